package sched

import "time"

// Manual is a Scheduler driven by a virtual clock. Nothing fires until
// Advance is called.
type Manual struct {
	now    time.Duration
	nextID TimerID
	timers map[TimerID]*manualTimer
}

type manualTimer struct {
	id       TimerID
	interval time.Duration
	due      time.Duration
	fn       Task
}

// NewManual creates a manual scheduler at virtual time zero.
func NewManual() *Manual {
	return &Manual{
		timers: make(map[TimerID]*manualTimer),
	}
}

// SchedulePeriodic implements Scheduler.
func (m *Manual) SchedulePeriodic(interval time.Duration, fn Task) TimerID {
	if interval <= 0 {
		interval = time.Millisecond
	}
	m.nextID++
	m.timers[m.nextID] = &manualTimer{
		id:       m.nextID,
		interval: interval,
		due:      m.now + interval,
		fn:       fn,
	}
	return m.nextID
}

// Cancel implements Scheduler.
func (m *Manual) Cancel(id TimerID) {
	delete(m.timers, id)
}

// Now returns the virtual time.
func (m *Manual) Now() time.Duration {
	return m.now
}

// Pending returns the number of live callbacks.
func (m *Manual) Pending() int {
	return len(m.timers)
}

// Active reports whether id is still scheduled.
func (m *Manual) Active(id TimerID) bool {
	_, ok := m.timers[id]
	return ok
}

// Advance moves the clock forward by d, firing every callback that comes
// due in time order (earlier IDs first on ties). It returns the number of
// callbacks fired.
func (m *Manual) Advance(d time.Duration) int {
	target := m.now + d
	fired := 0

	for {
		t := m.nextDue(target)
		if t == nil {
			break
		}
		m.now = t.due
		fired++

		if !t.fn() {
			delete(m.timers, t.id)
			continue
		}
		// The callback may have cancelled itself.
		if _, ok := m.timers[t.id]; ok {
			t.due += t.interval
		}
	}

	m.now = target
	return fired
}

func (m *Manual) nextDue(limit time.Duration) *manualTimer {
	var best *manualTimer
	for _, t := range m.timers {
		if t.due > limit {
			continue
		}
		if best == nil || t.due < best.due || (t.due == best.due && t.id < best.id) {
			best = t
		}
	}
	return best
}
