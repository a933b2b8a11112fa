package clock

import (
	"context"
	"time"
)

// Clock is the time source used by the scheduler and upload engine.
type Clock interface {
	Now() time.Time
	After(d time.Duration) <-chan time.Time
}

// Sleeper blocks for d or until ctx is done.
type Sleeper interface {
	Sleep(ctx context.Context, d time.Duration) error
}

type realClock struct{}

// Real is the wall clock.
var Real Clock = realClock{}

func (realClock) Now() time.Time                         { return time.Now() }
func (realClock) After(d time.Duration) <-chan time.Time { return time.After(d) }

// ClockSleeper sleeps on a Clock.
type ClockSleeper struct {
	Clock Clock
}

func (s ClockSleeper) Sleep(ctx context.Context, d time.Duration) error {
	c := s.Clock
	if c == nil {
		c = Real
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-c.After(d):
		return nil
	}
}
