// Package notify sends cycle reports to Telegram.
package notify

import (
	"context"
	"fmt"
	"html"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"tusky-uploader/internal/common"
	"tusky-uploader/internal/features/runner"
	"tusky-uploader/internal/infra/log"
)

// Notifier receives a report after every pass.
type Notifier interface {
	Notify(ctx context.Context, r *runner.Report) error
}

// Nop drops reports.
type Nop struct{}

func (Nop) Notify(context.Context, *runner.Report) error { return nil }

// sender is the subset of *tgbotapi.BotAPI used here.
type sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

type Telegram struct {
	bot    sender
	chatID int64
	log    *log.Logger
}

// NewTelegram connects to the Bot API. Fails with ErrConfig on a rejected token.
func NewTelegram(token string, chatID int64, l *log.Logger) (*Telegram, error) {
	bot, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to init telegram bot: %w", common.ErrConfig, err)
	}
	if l == nil {
		l = log.NewNop()
	}
	l.Info("Telegram reports enabled for bot @"+bot.Self.UserName, zap.Int64("chat_id", chatID))
	return &Telegram{bot: bot, chatID: chatID, log: l}, nil
}

func (t *Telegram) Notify(ctx context.Context, r *runner.Report) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := tgbotapi.NewMessage(t.chatID, FormatReport(r))
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true

	if _, err := t.bot.Send(msg); err != nil {
		t.log.Warn("Failed to send telegram report: "+err.Error(), zap.Int("cycle", r.Cycle))
		return fmt.Errorf("%w: telegram send: %w", common.ErrNetwork, err)
	}
	t.log.Debug("Telegram report sent", zap.Int("cycle", r.Cycle))
	return nil
}

// FormatReport renders a pass summary as Telegram HTML.
func FormatReport(r *runner.Report) string {
	var b strings.Builder
	fmt.Fprintf(&b, "<b>%s</b>\n\n", html.EscapeString(fmt.Sprintf("Tusky uploader: cycle #%d", r.Cycle)))
	fmt.Fprintf(&b, "Accounts: <b>%d/%d</b> succeeded\n", r.Succeeded, r.Accounts)
	if r.Failed > 0 {
		fmt.Fprintf(&b, "Failed: <b>%d</b>\n", r.Failed)
	}
	fmt.Fprintf(&b, "Files uploaded: <b>%d</b>\n", r.Uploads)
	fmt.Fprintf(&b, "Duration: %s", r.Duration().Round(time.Second))
	return b.String()
}
