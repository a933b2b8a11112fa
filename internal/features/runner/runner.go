// Package runner drives one pass over all accounts: login, discovery and uploads.
package runner

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"net/http"
	"time"

	"tusky-uploader/internal/features/auth"
	"tusky-uploader/internal/features/upload"
	"tusky-uploader/internal/features/vaults"
	"tusky-uploader/internal/infra/clock"
	"tusky-uploader/internal/infra/log"
	"tusky-uploader/internal/infra/proxy"

	"go.uber.org/zap"
)

const (
	DefaultDelayMin = 20000 * time.Millisecond
	DefaultDelayMax = 35000 * time.Millisecond
)

// API is everything a session needs from the Tusky API.
type API interface {
	auth.ChallengeAPI
	vaults.API
	upload.API
	SetJWT(token string)
}

// HTTPClientFactory builds a client for a proxy line; "" means direct.
type HTTPClientFactory func(proxyURL string) (*http.Client, error)

// APIFactory binds an API to an account's HTTP client.
type APIFactory func(httpClient *http.Client) API

// Report summarizes one pass.
type Report struct {
	Cycle     int
	Accounts  int
	Succeeded int
	Failed    int
	Uploads   int
	Started   time.Time
	Finished  time.Time
}

func (r *Report) Duration() time.Duration { return r.Finished.Sub(r.Started) }

type Runner struct {
	accounts      []auth.Account
	pool          *proxy.Pool
	newHTTPClient HTTPClientFactory
	newAPI        APIFactory
	engine        *upload.Engine

	uploadsPerVault int
	delayMin        time.Duration
	delayMax        time.Duration

	sleeper clock.Sleeper
	clock   clock.Clock
	randN   func(n int64) int64
	log     *log.Logger
	cycle   int
}

type Option func(*Runner)

// WithUploads sets the number of uploads per vault. Values below 1 become 1.
func WithUploads(n int) Option {
	return func(r *Runner) {
		if n < 1 {
			n = 1
		}
		r.uploadsPerVault = n
	}
}

// WithDelay sets the [min, max) window slept between uploads to one vault.
func WithDelay(lo, hi time.Duration) Option {
	return func(r *Runner) { r.delayMin, r.delayMax = lo, hi }
}

func WithSleeper(s clock.Sleeper) Option {
	return func(r *Runner) { r.sleeper = s }
}

func WithClock(c clock.Clock) Option {
	return func(r *Runner) { r.clock = c }
}

// WithRand replaces the source of delay jitter. randN must return a value in [0, n).
func WithRand(randN func(n int64) int64) Option {
	return func(r *Runner) { r.randN = randN }
}

func WithLogger(l *log.Logger) Option {
	return func(r *Runner) { r.log = l }
}

func WithHTTPClientFactory(f HTTPClientFactory) Option {
	return func(r *Runner) { r.newHTTPClient = f }
}

func New(accounts []auth.Account, pool *proxy.Pool, newAPI APIFactory, engine *upload.Engine, opts ...Option) *Runner {
	if pool == nil {
		pool = proxy.NewPool(nil)
	}
	r := &Runner{
		accounts:        accounts,
		pool:            pool,
		newAPI:          newAPI,
		engine:          engine,
		uploadsPerVault: 1,
		delayMin:        DefaultDelayMin,
		delayMax:        DefaultDelayMax,
		clock:           clock.Real,
		randN:           rand.Int64N,
		log:             log.NewNop(),
		newHTTPClient: func(proxyURL string) (*http.Client, error) {
			return proxy.NewHTTPClient(proxyURL, 30*time.Second)
		},
	}
	for _, opt := range opts {
		opt(r)
	}
	if r.sleeper == nil {
		r.sleeper = clock.ClockSleeper{Clock: r.clock}
	}
	return r
}

// RunOnce processes every account in order. An account failure is logged and
// the pass moves on; only context cancellation ends it early.
func (r *Runner) RunOnce(ctx context.Context) (*Report, error) {
	r.cycle++
	report := &Report{Cycle: r.cycle, Accounts: len(r.accounts), Started: r.clock.Now()}
	defer func() { report.Finished = r.clock.Now() }()

	for i, acct := range r.accounts {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		_, proxyURL := r.pool.Next()
		r.log.Step(fmt.Sprintf("Processing account %d/%d: %s", i+1, len(r.accounts), acct.Strategy.Describe()),
			zap.String("account", acct.Name), zap.String("proxy", proxy.Display(proxyURL)))

		uploads, err := r.processAccount(ctx, acct, proxyURL)
		report.Uploads += uploads
		if err != nil {
			report.Failed++
			if ctx.Err() != nil {
				return report, ctx.Err()
			}
			r.log.Error(fmt.Sprintf("Account %s failed: %v", acct.Name, err), zap.String("account", acct.Name))
			continue
		}
		report.Succeeded++
	}

	r.log.Info(fmt.Sprintf("Cycle %d finished: %d/%d accounts succeeded, %d files uploaded",
		report.Cycle, report.Succeeded, report.Accounts, report.Uploads))
	return report, nil
}

func (r *Runner) clientFor(proxyURL string) (*http.Client, error) {
	if proxyURL == "" {
		return r.newHTTPClient("")
	}
	hc, err := r.newHTTPClient(proxyURL)
	if err == nil {
		r.log.Info("Using proxy: " + proxy.Display(proxyURL))
		return hc, nil
	}
	r.log.Warn(fmt.Sprintf("Proxy %s unusable (%v), using direct connection", proxy.Display(proxyURL), err))
	return r.newHTTPClient("")
}

func (r *Runner) processAccount(ctx context.Context, acct auth.Account, proxyURL string) (int, error) {
	hc, err := r.clientFor(proxyURL)
	if err != nil {
		return 0, fmt.Errorf("failed to build http client: %w", err)
	}
	api := r.newAPI(hc)

	token, err := acct.Strategy.Authenticate(ctx, api, r.log)
	if err != nil {
		return 0, err
	}
	api.SetJWT(token)

	if _, err := vaults.FetchStorage(ctx, api, r.log); err != nil {
		return 0, err
	}
	ids, err := vaults.Discover(ctx, api, r.log)
	if err != nil {
		return 0, err
	}

	uploaded := 0
	for _, vaultID := range ids {
		for k := 0; k < r.uploadsPerVault; k++ {
			if _, err := r.engine.Upload(ctx, api, vaultID); err != nil {
				return uploaded, err
			}
			uploaded++

			if k < r.uploadsPerVault-1 {
				if err := r.pause(ctx); err != nil {
					return uploaded, err
				}
			}
		}
	}
	return uploaded, nil
}

// NextDelay samples uniformly from [delayMin, delayMax) at millisecond granularity.
func (r *Runner) NextDelay() time.Duration {
	minMs, maxMs := r.delayMin.Milliseconds(), r.delayMax.Milliseconds()
	if maxMs <= minMs {
		return r.delayMin
	}
	return time.Duration(minMs+r.randN(maxMs-minMs)) * time.Millisecond
}

func (r *Runner) pause(ctx context.Context) error {
	d := r.NextDelay()
	r.log.Loading(fmt.Sprintf("Waiting %.2f seconds before next upload...", d.Seconds()))
	if err := r.sleeper.Sleep(ctx, d); err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		return fmt.Errorf("delay interrupted: %w", err)
	}
	return nil
}
