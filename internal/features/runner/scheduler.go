package runner

import (
	"context"
	"fmt"
	"strings"
	"time"

	"tusky-uploader/internal/common"
	"tusky-uploader/internal/infra/clock"
	"tusky-uploader/internal/infra/log"
)

const DefaultInterval = 24 * time.Hour

// RepeatPolicy decides whether passes repeat on the interval.
type RepeatPolicy string

const (
	RepeatAuto   RepeatPolicy = "auto"
	RepeatAlways RepeatPolicy = "always"
	RepeatNever  RepeatPolicy = "never"
)

func ParseRepeatPolicy(s string) (RepeatPolicy, error) {
	switch p := RepeatPolicy(strings.ToLower(strings.TrimSpace(s))); p {
	case "", RepeatAuto:
		return RepeatAuto, nil
	case RepeatAlways, RepeatNever:
		return p, nil
	}
	return "", fmt.Errorf("%w: unknown repeat policy %q (want auto, always or never)", common.ErrConfig, s)
}

// Repeats resolves auto: wallet accounts repeat, static tokens run once.
func (p RepeatPolicy) Repeats(walletAccounts bool) bool {
	switch p {
	case RepeatAlways:
		return true
	case RepeatNever:
		return false
	}
	return walletAccounts
}

// PassFunc runs one cycle.
type PassFunc func(ctx context.Context) (*Report, error)

// Scheduler runs a pass, then waits Interval and runs again until ctx is done.
type Scheduler struct {
	Interval time.Duration
	Repeat   bool
	Clock    clock.Clock
	Log      *log.Logger
	// OnReport is called after every completed pass.
	OnReport func(ctx context.Context, r *Report)
}

// Run returns nil on cancellation; other pass errors are returned as-is.
func (s *Scheduler) Run(ctx context.Context, pass PassFunc) error {
	clk := s.Clock
	if clk == nil {
		clk = clock.Real
	}
	l := s.Log
	if l == nil {
		l = log.NewNop()
	}
	interval := s.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}

	for {
		report, err := pass(ctx)
		if ctx.Err() != nil {
			l.Warn("Run interrupted, shutting down")
			return nil
		}
		if err != nil {
			return err
		}
		if s.OnReport != nil && report != nil {
			s.OnReport(ctx, report)
		}
		if !s.Repeat {
			return nil
		}

		l.Loading(fmt.Sprintf("Next cycle at %s", clk.Now().Add(interval).Format("2006-01-02 15:04:05")))
		select {
		case <-ctx.Done():
			l.Warn("Run interrupted, shutting down")
			return nil
		case <-clk.After(interval):
		}
	}
}
