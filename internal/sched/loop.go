package sched

import (
	"context"
	"sync"
	"time"
)

// Loop is a single-goroutine event loop. Timers and posted work all run on
// the goroutine that calls Run, so the code they call needs no locking.
type Loop struct {
	mu     sync.Mutex
	nextID TimerID
	timers map[TimerID]*loopTimer
	work   []func()

	wake chan struct{}
}

type loopTimer struct {
	interval time.Duration
	due      time.Time
	fn       Task
}

// NewLoop creates an idle loop.
func NewLoop() *Loop {
	return &Loop{
		timers: make(map[TimerID]*loopTimer),
		wake:   make(chan struct{}, 1),
	}
}

// SchedulePeriodic implements Scheduler. Safe to call from any goroutine.
func (l *Loop) SchedulePeriodic(interval time.Duration, fn Task) TimerID {
	if interval <= 0 {
		interval = time.Millisecond
	}

	l.mu.Lock()
	l.nextID++
	id := l.nextID
	l.timers[id] = &loopTimer{
		interval: interval,
		due:      time.Now().Add(interval),
		fn:       fn,
	}
	l.mu.Unlock()

	l.notify()
	return id
}

// Cancel implements Scheduler. Safe to call from any goroutine.
func (l *Loop) Cancel(id TimerID) {
	l.mu.Lock()
	delete(l.timers, id)
	l.mu.Unlock()
}

// Post queues fn to run on the loop goroutine.
func (l *Loop) Post(fn func()) {
	l.mu.Lock()
	l.work = append(l.work, fn)
	l.mu.Unlock()

	l.notify()
}

func (l *Loop) notify() {
	select {
	case l.wake <- struct{}{}:
	default:
	}
}

// Run processes posted work and timers until ctx is done.
func (l *Loop) Run(ctx context.Context) error {
	timer := time.NewTimer(time.Hour)
	defer timer.Stop()

	for {
		l.runWork()
		wait := l.runTimers(time.Now())

		timer.Reset(wait)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.wake:
		case <-timer.C:
		}
		if !timer.Stop() {
			select {
			case <-timer.C:
			default:
			}
		}
	}
}

func (l *Loop) runWork() {
	l.mu.Lock()
	work := l.work
	l.work = nil
	l.mu.Unlock()

	for _, fn := range work {
		fn()
	}
}

// runTimers fires due timers and returns how long to sleep until the next.
func (l *Loop) runTimers(now time.Time) time.Duration {
	l.mu.Lock()
	var due []TimerID
	for id, t := range l.timers {
		if !t.due.After(now) {
			due = append(due, id)
		}
	}
	l.mu.Unlock()

	for _, id := range due {
		l.mu.Lock()
		t, ok := l.timers[id]
		l.mu.Unlock()
		if !ok {
			continue
		}

		keep := t.fn()

		l.mu.Lock()
		if _, live := l.timers[id]; live {
			if keep {
				t.due = now.Add(t.interval)
			} else {
				delete(l.timers, id)
			}
		}
		l.mu.Unlock()
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	wait := time.Hour
	for _, t := range l.timers {
		if d := t.due.Sub(now); d < wait {
			wait = d
		}
	}
	if wait < 0 {
		wait = 0
	}
	return wait
}
