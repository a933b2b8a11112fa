package log

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLogger_ConsoleMarkers(t *testing.T) {
	var out bytes.Buffer
	l, err := New(Options{Console: &out, NoColor: true})
	require.NoError(t, err)

	l.Info("loaded 2 proxies")
	l.Warn("direct mode")
	l.Error("upload failed")
	l.Success("uploaded", zap.Int64("duration_ms", 42))
	l.Loading("waiting")
	l.Step("processing vault")
	l.Debug("file only")

	got := out.String()
	require.Contains(t, got, "[✓] loaded 2 proxies")
	require.Contains(t, got, "[⚠] direct mode")
	require.Contains(t, got, "[✗] upload failed")
	require.Contains(t, got, "[✅] uploaded (42ms)")
	require.Contains(t, got, "[⟳] waiting")
	require.Contains(t, got, "[➤] processing vault")
	require.NotContains(t, got, "file only")
	require.NotContains(t, got, "\033[")
}

func TestLogger_FileSink(t *testing.T) {
	dir := t.TempDir()
	var out bytes.Buffer
	l, err := New(Options{Dir: dir, Console: &out, NoColor: true})
	require.NoError(t, err)

	l.Info("account ready", zap.String("address", "0xabc"))
	l.LogResponse("req1", 401, 0, zap.String("endpoint", "/storage"))
	l.Sync()

	data, err := os.ReadFile(filepath.Join(dir, "app.log"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	require.Contains(t, lines[0], "INFO account ready")
	require.Contains(t, lines[0], `"address":"0xabc"`)
	require.Contains(t, lines[1], "ERROR HTTP response")
	require.Contains(t, lines[1], `"status_code":401`)
}

func TestGenerateRequestID(t *testing.T) {
	a, b := GenerateRequestID(), GenerateRequestID()
	require.Len(t, a, 16)
	require.NotEqual(t, a, b)
}
