package commands

// Command to run the full upload workflow
// Logs every account in, discovers vaults and uploads placeholder images
// Repeats every cycle.interval when the repeat policy asks for it
// Implements graceful shutdown on SIGINT/SIGTERM

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"tusky-uploader/internal/clients_api/picsum"
	"tusky-uploader/internal/credentials"
	"tusky-uploader/internal/features/placeholder"
	"tusky-uploader/internal/features/runner"
	"tusky-uploader/internal/features/upload"
	"tusky-uploader/internal/infra/clock"
	"tusky-uploader/internal/infra/console"
	"tusky-uploader/internal/infra/proxy"
	"tusky-uploader/internal/notify"
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Upload placeholder images into every eligible vault of every account",
	Long: `Run the complete workflow: login, storage check, vault discovery and uploads.
Seed-phrase accounts repeat every 24 hours by default; token accounts run once.`,
	RunE: runUploader,
}

func init() {
	runCmd.Flags().Int("uploads", 0, "Uploads per vault; 0 asks on the terminal (env: TUSKY_RUN_UPLOADS)")
	runCmd.Flags().String("repeat", "auto", "Repeat policy: auto, always or never (env: TUSKY_RUN_REPEAT)")
}

func runUploader(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	console.Banner(os.Stdout, "Tusky Uploader", "Tusky testnet vault filler")

	a, err := setup(cmd)
	if err != nil {
		return err
	}
	defer a.log.Sync()

	policy, err := runner.ParseRepeatPolicy(a.cfg.Run.Repeat)
	if err != nil {
		return err
	}

	uploads, err := console.UploadCount(a.cfg.Run.Uploads, os.Stdin, os.Stdout)
	if err != nil {
		return fmt.Errorf("failed to read upload count: %w", err)
	}
	a.log.Info(fmt.Sprintf("Uploading %d file(s) per vault", uploads))

	var images upload.ImageSource = picsum.NewSource(a.cfg.Image.URL, a.cfg.API.RequestTimeout, a.cfg.Image.Retries)
	if a.cfg.Image.FallbackLocal {
		images = &placeholder.Fallback{Primary: images, Secondary: placeholder.NewGenerator(800, 600), Log: a.log}
	}

	var notifier notify.Notifier = notify.Nop{}
	if a.cfg.Telegram.BotToken != "" {
		tg, err := notify.NewTelegram(a.cfg.Telegram.BotToken, a.cfg.Telegram.ChatID, a.log)
		if err != nil {
			return err
		}
		notifier = tg
	}

	var sleeper clock.Sleeper = clock.ClockSleeper{Clock: clock.Real}
	if console.IsInteractive(os.Stdout) {
		sleeper = console.SpinnerSleeper{Writer: os.Stdout, Clock: clock.Real}
	}

	r := runner.New(
		a.accounts.Accounts,
		proxy.NewPool(a.proxies.Entries),
		a.apiFactory(),
		upload.NewEngine(images, clock.Real, a.log),
		runner.WithUploads(uploads),
		runner.WithDelay(a.cfg.Delay.Min(), a.cfg.Delay.Max()),
		runner.WithSleeper(sleeper),
		runner.WithLogger(a.log),
		runner.WithHTTPClientFactory(a.httpClientFactory()),
	)

	repeat := policy.Repeats(a.accounts.Mode == credentials.ModeSeed)
	if repeat {
		a.log.Info(fmt.Sprintf("Repeating every %s until interrupted", a.cfg.Cycle.Interval))
	}

	scheduler := &runner.Scheduler{
		Interval: a.cfg.Cycle.Interval,
		Repeat:   repeat,
		Clock:    clock.Real,
		Log:      a.log,
		OnReport: func(ctx context.Context, rep *runner.Report) {
			if err := notifier.Notify(ctx, rep); err != nil {
				a.log.Debug("Report not delivered", zap.Error(err))
			}
		},
	}
	if err := scheduler.Run(ctx, r.RunOnce); err != nil {
		a.log.Error("Run failed: " + err.Error())
		return err
	}
	a.log.Success("All done")
	return nil
}
