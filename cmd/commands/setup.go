package commands

// Shared wiring for all commands
// Loads config, logger, credentials and proxies, and builds per-account API clients

import (
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"tusky-uploader/internal/clients_api/tusky"
	"tusky-uploader/internal/credentials"
	"tusky-uploader/internal/features/runner"
	"tusky-uploader/internal/infra/config"
	logging "tusky-uploader/internal/infra/log"
	"tusky-uploader/internal/infra/proxy"
)

type app struct {
	cfg      *config.Config
	log      *logging.Logger
	accounts *credentials.Result
	proxies  *proxy.LoadResult
	dir      string
}

// inDir resolves relative file settings against --config-dir.
func (a *app) inDir(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(a.dir, path)
}

func setup(cmd *cobra.Command) (*app, error) {
	dir, _ := cmd.Flags().GetString("config-dir")

	cfg, err := config.Load(config.Options{Dir: dir, Flags: cmd.Flags()})
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	a := &app{cfg: cfg, dir: dir}
	l, err := logging.New(logging.Options{Dir: a.inDir(cfg.Log.Dir), NoColor: os.Getenv("NO_COLOR") != ""})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize file logger: %v\n", err)
		l, _ = logging.New(logging.Options{})
	}
	a.log = l

	mode, err := credentials.ParseMode(cfg.Credentials.Mode)
	if err != nil {
		return nil, err
	}
	accounts, err := credentials.Load(mode, a.inDir(cfg.Credentials.SeedFile), os.LookupEnv)
	if accounts != nil {
		for _, r := range accounts.Rejected {
			l.Warn(fmt.Sprintf("Skipping credential at %s: %v", r.Source, r.Reason))
		}
	}
	if err != nil {
		l.Error(err.Error())
		return nil, err
	}
	a.accounts = accounts
	if accounts.Mode == credentials.ModeSeed {
		l.Info(fmt.Sprintf("Loaded %d wallet(s) from %s", len(accounts.Accounts), cfg.Credentials.SeedFile))
	} else {
		l.Info(fmt.Sprintf("Loaded %d token(s) from environment", len(accounts.Accounts)))
	}

	proxies, err := proxy.Load(a.inDir(cfg.Proxy.File))
	if err != nil {
		l.Warn("Failed to read proxies, using direct connection: " + err.Error())
		proxies = &proxy.LoadResult{}
	}
	for _, r := range proxies.Rejected {
		l.Warn(fmt.Sprintf("Proxy %s is unusable and will fall back to direct: %v", proxy.Display(r.Line), r.Reason))
	}
	if len(proxies.Entries) == 0 {
		l.Warn("No proxies found, using direct connection")
	} else {
		l.Info(fmt.Sprintf("Loaded %d proxies (%d valid)", len(proxies.Entries), len(proxies.Valid)))
	}
	a.proxies = proxies

	return a, nil
}

func (a *app) httpClientFactory() runner.HTTPClientFactory {
	return func(proxyURL string) (*http.Client, error) {
		return proxy.NewHTTPClient(proxyURL, a.cfg.API.RequestTimeout)
	}
}

func (a *app) apiFactory() runner.APIFactory {
	return func(hc *http.Client) runner.API {
		return a.newTuskyClient(hc)
	}
}

func (a *app) newTuskyClient(hc *http.Client) *tusky.Client {
	return tusky.NewClient(a.cfg.API.BaseURL, hc,
		tusky.WithRateLimit(a.cfg.API.RateLimit, a.cfg.API.RateBurst),
		tusky.WithMaxResponseSize(a.cfg.API.MaxResponseSize),
		tusky.WithLogger(a.log))
}

// clientForAccount mirrors the runner's proxy assignment for the diagnostic commands.
func (a *app) clientForAccount(pool *proxy.Pool) *tusky.Client {
	_, raw := pool.Next()
	hc, err := proxy.NewHTTPClient(raw, a.cfg.API.RequestTimeout)
	if err != nil {
		a.log.Warn(fmt.Sprintf("Proxy %s unusable, using direct connection", proxy.Display(raw)), zap.Error(err))
		hc, _ = proxy.NewHTTPClient("", a.cfg.API.RequestTimeout)
	}
	return a.newTuskyClient(hc)
}
