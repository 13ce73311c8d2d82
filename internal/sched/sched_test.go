package sched

import (
	"context"
	"sync/atomic"
	"testing"
	"time"
)

func TestManualFiresInOrder(t *testing.T) {
	m := NewManual()
	var log []string

	m.SchedulePeriodic(20*time.Millisecond, func() bool {
		log = append(log, "fast")
		return true
	})
	m.SchedulePeriodic(100*time.Millisecond, func() bool {
		log = append(log, "slow")
		return true
	})

	if fired := m.Advance(10 * time.Millisecond); fired != 0 {
		t.Errorf("fired %d before due", fired)
	}

	fired := m.Advance(90 * time.Millisecond)
	if fired != 6 {
		t.Errorf("Advance(100ms total) fired %d, want 6", fired)
	}
	if log[len(log)-1] != "slow" {
		t.Errorf("last fired = %q, want slow (fast at 100ms has the lower id)", log[len(log)-1])
	}
	if m.Now() != 100*time.Millisecond {
		t.Errorf("Now() = %v, want 100ms", m.Now())
	}
}

func TestManualStopAndCancel(t *testing.T) {
	m := NewManual()

	n := 0
	stopper := m.SchedulePeriodic(time.Millisecond, func() bool {
		n++
		return n < 3
	})
	cancelled := m.SchedulePeriodic(time.Millisecond, func() bool {
		t.Error("cancelled timer fired")
		return true
	})
	m.Cancel(cancelled)
	m.Cancel(TimerID(999))

	m.Advance(10 * time.Millisecond)
	if n != 3 {
		t.Errorf("stopper ran %d times, want 3", n)
	}
	if m.Active(stopper) {
		t.Error("timer returning false should be removed")
	}
	if m.Pending() != 0 {
		t.Errorf("Pending() = %d, want 0", m.Pending())
	}
}

func TestManualSelfCancel(t *testing.T) {
	m := NewManual()
	var id TimerID
	runs := 0
	id = m.SchedulePeriodic(time.Millisecond, func() bool {
		runs++
		m.Cancel(id)
		return true
	})
	m.Advance(5 * time.Millisecond)
	if runs != 1 {
		t.Errorf("self-cancelled timer ran %d times, want 1", runs)
	}
}

func TestLoopRunsTimersAndWork(t *testing.T) {
	l := NewLoop()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	var ticks atomic.Int32
	done := make(chan struct{})

	l.SchedulePeriodic(time.Millisecond, func() bool {
		if ticks.Add(1) == 3 {
			l.Post(func() { close(done) })
			return false
		}
		return true
	})

	errc := make(chan error, 1)
	go func() { errc <- l.Run(ctx) }()

	select {
	case <-done:
	case <-ctx.Done():
		t.Fatal("loop did not run timer and posted work")
	}
	cancel()

	if err := <-errc; err != context.Canceled {
		t.Errorf("Run() = %v, want context.Canceled", err)
	}
	if got := ticks.Load(); got != 3 {
		t.Errorf("timer ran %d times, want 3", got)
	}
}
