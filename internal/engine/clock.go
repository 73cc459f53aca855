package engine

import (
	"context"
	"time"
)

// Clock abstracts wall-clock reads so the loop's scheduling is testable.
type Clock interface {
	Now() time.Time
}

// Sleeper abstracts the inter-cycle wait. Sleep returns early with the
// context's error when the context is cancelled; a plain interrupt request is
// delivered separately so the loop can distinguish "stop sleeping and prompt"
// from "shut down".
type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration) error
}

type realClock struct{}

func (realClock) Now() time.Time {
	return time.Now()
}

// NewClock returns the wall clock.
func NewClock() Clock {
	return realClock{}
}

type realSleeper struct{}

func (realSleeper) Sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// NewSleeper returns a timer-backed sleeper that honors context cancellation.
func NewSleeper() Sleeper {
	return realSleeper{}
}
