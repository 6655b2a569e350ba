package notifications

import "time"

// Timer is a pending expiry that can be cancelled.
type Timer interface {
	Stop() bool
}

// Scheduler runs f once after d has elapsed.
type Scheduler interface {
	AfterFunc(d time.Duration, f func()) Timer
}

type wallClock struct{}

func (wallClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// WallClock returns the Scheduler backed by the runtime timer heap.
func WallClock() Scheduler {
	return wallClock{}
}
