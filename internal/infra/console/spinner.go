package console

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/briandowns/spinner"

	"tusky-uploader/internal/infra/clock"
)

// SpinnerSleeper waits like clock.ClockSleeper but shows a countdown spinner
// on an interactive console.
type SpinnerSleeper struct {
	Writer io.Writer
	Clock  clock.Clock
}

func (s SpinnerSleeper) Sleep(ctx context.Context, d time.Duration) error {
	clk := s.Clock
	if clk == nil {
		clk = clock.Real
	}
	if s.Writer == nil {
		return clock.ClockSleeper{Clock: clk}.Sleep(ctx, d)
	}

	sp := spinner.New(spinner.CharSets[43], 100*time.Millisecond, spinner.WithWriter(s.Writer))
	_ = sp.Color("cyan")
	deadline := clk.Now().Add(d)
	sp.PreUpdate = func(sp *spinner.Spinner) {
		left := deadline.Sub(clk.Now()).Round(time.Second)
		if left < 0 {
			left = 0
		}
		sp.Suffix = fmt.Sprintf(" next upload in %s", left)
	}
	sp.Start()
	defer sp.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-clk.After(d):
		return nil
	}
}
