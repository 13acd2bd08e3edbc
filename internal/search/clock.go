package search

import "time"

// Timer is the handle of an armed quiet-period timer.
type Timer interface {
	Stop() bool
}

// Clock arms timers. Tests substitute a manual clock.
type Clock interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type realClock struct{}

func (realClock) AfterFunc(d time.Duration, f func()) Timer { return time.AfterFunc(d, f) }
