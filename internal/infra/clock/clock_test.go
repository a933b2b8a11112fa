package clock

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type instantClock struct{ waited []time.Duration }

func (c *instantClock) Now() time.Time { return time.Unix(0, 0) }
func (c *instantClock) After(d time.Duration) <-chan time.Time {
	c.waited = append(c.waited, d)
	ch := make(chan time.Time, 1)
	ch <- time.Unix(0, 0).Add(d)
	return ch
}

func TestClockSleeper(t *testing.T) {
	c := &instantClock{}
	s := ClockSleeper{Clock: c}
	require.NoError(t, s.Sleep(context.Background(), 24*time.Hour))
	require.Equal(t, []time.Duration{24 * time.Hour}, c.waited)
}

func TestClockSleeper_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := ClockSleeper{}.Sleep(ctx, time.Hour)
	require.ErrorIs(t, err, context.Canceled)
}
