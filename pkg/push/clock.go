package push

import "time"

// Clock abstracts the time source so the state machine is testable without
// real time.
type Clock interface {
	Now() time.Time
}

// Scheduler abstracts delayed execution so reconnect and settle delays are
// testable without real timers.
type Scheduler interface {
	AfterFunc(d time.Duration, fn func()) Timer
}

// Timer is a cancellable pending callback.
type Timer interface {
	// Stop cancels the timer. Reports whether it was still pending.
	Stop() bool
}

// realClock uses the system time.
type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

// realScheduler uses time.AfterFunc.
type realScheduler struct{}

func (realScheduler) AfterFunc(d time.Duration, fn func()) Timer {
	return time.AfterFunc(d, fn)
}

// SystemClock returns the wall-time clock.
func SystemClock() Clock { return realClock{} }

// SystemScheduler returns the real timer-backed scheduler.
func SystemScheduler() Scheduler { return realScheduler{} }
