package scheduler

import "time"

// Timer is a cancellable one-shot timer handle.
type Timer interface {
	Stop() bool
}

// Clock abstracts wall-clock time and timer creation so tests can drive the
// scheduler with a virtual clock.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, fn func()) Timer
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now()
}

func (realClock) AfterFunc(d time.Duration, fn func()) Timer {
	return time.AfterFunc(d, fn)
}

// NewRealClock returns a Clock backed by the system clock.
func NewRealClock() Clock {
	return realClock{}
}
