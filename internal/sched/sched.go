// Package sched provides periodic callback scheduling for a single-threaded
// host.
//
// Callbacks never run concurrently with each other: Loop runs them on the
// goroutine that called Run, and Manual runs them on the goroutine that calls
// Advance. A callback returns false to stop being rescheduled.
package sched

import "time"

// TimerID identifies a scheduled callback. The zero value is never issued.
type TimerID uint64

// Task is a periodic callback. Returning false cancels it.
type Task func() bool

// Scheduler schedules periodic callbacks.
type Scheduler interface {
	// SchedulePeriodic runs fn every interval until it returns false or
	// is cancelled.
	SchedulePeriodic(interval time.Duration, fn Task) TimerID

	// Cancel stops a callback. Unknown or already stopped IDs are ignored.
	Cancel(id TimerID)
}
