package notify

import (
	"context"
	"errors"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/require"

	"tusky-uploader/internal/common"
	"tusky-uploader/internal/features/runner"
	"tusky-uploader/internal/infra/log"
)

type fakeSender struct {
	sent []tgbotapi.Chattable
	err  error
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.sent = append(f.sent, c)
	return tgbotapi.Message{}, f.err
}

func sampleReport() *runner.Report {
	start := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	return &runner.Report{Cycle: 3, Accounts: 4, Succeeded: 3, Failed: 1, Uploads: 9, Started: start, Finished: start.Add(95 * time.Second)}
}

func TestFormatReport(t *testing.T) {
	got := FormatReport(sampleReport())
	require.Contains(t, got, "<b>Tusky uploader: cycle #3</b>")
	require.Contains(t, got, "Accounts: <b>3/4</b> succeeded")
	require.Contains(t, got, "Failed: <b>1</b>")
	require.Contains(t, got, "Files uploaded: <b>9</b>")
	require.Contains(t, got, "Duration: 1m35s")

	clean := sampleReport()
	clean.Failed = 0
	require.NotContains(t, FormatReport(clean), "Failed")
}

func TestTelegram_Notify(t *testing.T) {
	fs := &fakeSender{}
	tg := &Telegram{bot: fs, chatID: -100123, log: log.NewNop()}

	require.NoError(t, tg.Notify(context.Background(), sampleReport()))
	require.Len(t, fs.sent, 1)
	msg, ok := fs.sent[0].(tgbotapi.MessageConfig)
	require.True(t, ok)
	require.Equal(t, int64(-100123), msg.ChatID)
	require.Equal(t, tgbotapi.ModeHTML, msg.ParseMode)
}

func TestTelegram_NotifyError(t *testing.T) {
	tg := &Telegram{bot: &fakeSender{err: errors.New("bad gateway")}, chatID: 1, log: log.NewNop()}
	err := tg.Notify(context.Background(), sampleReport())
	require.True(t, errors.Is(err, common.ErrNetwork))
}

func TestNop(t *testing.T) {
	require.NoError(t, Nop{}.Notify(context.Background(), sampleReport()))
}
