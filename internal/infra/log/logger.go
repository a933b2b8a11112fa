package log

// Two-sink zap logger: everything goes to logs/app.log, operator-facing lines
// go to the console with a colored status marker.
// Every package receives a *Logger explicitly; there is no global.

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/buffer"
	"go.uber.org/zap/zapcore"
)

const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
	colorWhite  = "\033[37m"
)

// MaxLogFileSize - app.log is truncated once it grows past this.
const MaxLogFileSize = 50 * 1024 * 1024

// Options configures New.
type Options struct {
	// Dir holds app.log. Empty disables the file sink.
	Dir string
	// Console receives operator lines. Defaults to os.Stdout.
	Console io.Writer
	// NoColor strips ANSI colors from console lines.
	NoColor bool
}

// Logger routes a message to the file sink and, for operator lines, to the console.
type Logger struct {
	file    *zap.Logger
	console *zap.Logger
	noColor bool
}

// New builds a Logger.
func New(opts Options) (*Logger, error) {
	fileLogger := zap.NewNop()
	if opts.Dir != "" {
		if err := os.MkdirAll(opts.Dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create logs directory: %w", err)
		}
		fileEncoder := &fileEntryEncoder{Encoder: zapcore.NewConsoleEncoder(zap.NewProductionEncoderConfig())}
		fileCore := zapcore.NewCore(
			fileEncoder,
			getLogFileWriter(filepath.Join(opts.Dir, "app.log")),
			zapcore.DebugLevel,
		)
		fileLogger = zap.New(fileCore)
	}

	out := opts.Console
	if out == nil {
		out = os.Stdout
	}
	consoleConfig := zapcore.EncoderConfig{
		TimeKey:     "time",
		MessageKey:  "msg",
		LineEnding:  zapcore.DefaultLineEnding,
		EncodeTime:  zapcore.TimeEncoderOfLayout("15:04:05"),
		EncodeLevel: zapcore.CapitalLevelEncoder,
	}
	consoleCore := zapcore.NewCore(
		zapcore.NewConsoleEncoder(consoleConfig),
		zapcore.AddSync(out),
		zapcore.DebugLevel,
	)

	return &Logger{
		file:    fileLogger,
		console: zap.New(consoleCore),
		noColor: opts.NoColor,
	}, nil
}

// NewNop discards everything.
func NewNop() *Logger {
	return &Logger{file: zap.NewNop(), console: zap.NewNop(), noColor: true}
}

func (l *Logger) paint(color, marker, msg string) string {
	if l.noColor {
		return marker + " " + msg
	}
	return color + marker + " " + msg + colorReset
}

// Info - [✓] green.
func (l *Logger) Info(msg string, fields ...zap.Field) {
	l.file.Info(msg, fields...)
	l.console.Info(l.paint(colorGreen, "[✓]", msg))
}

// Success - [✅] green.
func (l *Logger) Success(msg string, fields ...zap.Field) {
	l.file.Info(msg, fields...)
	if d := extractDuration(fields); d > 0 {
		msg = fmt.Sprintf("%s (%dms)", msg, d)
	}
	l.console.Info(l.paint(colorGreen, "[✅]", msg))
}

// Warn - [⚠] yellow.
func (l *Logger) Warn(msg string, fields ...zap.Field) {
	l.file.Warn(msg, fields...)
	l.console.Warn(l.paint(colorYellow, "[⚠]", msg))
}

// Error - [✗] red.
func (l *Logger) Error(msg string, fields ...zap.Field) {
	l.file.Error(msg, fields...)
	l.console.Error(l.paint(colorRed, "[✗]", msg))
}

// Loading - [⟳] cyan, used for waits.
func (l *Logger) Loading(msg string, fields ...zap.Field) {
	l.file.Info(msg, fields...)
	l.console.Info(l.paint(colorCyan, "[⟳]", msg))
}

// Step - [➤] white, used for workflow progress.
func (l *Logger) Step(msg string, fields ...zap.Field) {
	l.file.Info(msg, fields...)
	l.console.Info(l.paint(colorWhite, "[➤]", msg))
}

// Debug goes to the file only.
func (l *Logger) Debug(msg string, fields ...zap.Field) {
	l.file.Debug(msg, fields...)
}

// Sync flushes both sinks.
func (l *Logger) Sync() {
	_ = l.file.Sync()
	_ = l.console.Sync()
}

// GenerateRequestID returns a random 16-char hex id for correlating request/response lines.
func GenerateRequestID() string {
	b := make([]byte, 8)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

// LogRequest writes an outgoing HTTP request to the file sink.
func (l *Logger) LogRequest(requestID, method, endpoint string, fields ...zap.Field) {
	all := append([]zap.Field{
		zap.String("request_id", requestID),
		zap.String("method", method),
		zap.String("endpoint", endpoint),
	}, fields...)
	l.file.Info("HTTP request", all...)
}

// LogResponse writes an HTTP response (or transport failure when statusCode is 0) to the file sink.
func (l *Logger) LogResponse(requestID string, statusCode int, duration time.Duration, fields ...zap.Field) {
	all := append([]zap.Field{
		zap.String("request_id", requestID),
		zap.Int("status_code", statusCode),
		zap.Int64("duration_ms", duration.Milliseconds()),
	}, fields...)
	if statusCode >= 200 && statusCode < 300 {
		l.file.Info("HTTP response", all...)
		return
	}
	l.file.Error("HTTP response", all...)
}

func extractDuration(fields []zap.Field) int64 {
	for _, field := range fields {
		if field.Key == "duration_ms" && field.Type == zapcore.Int64Type {
			return field.Integer
		}
	}
	return 0
}

type rotatingLogWriter struct {
	file *os.File
	path string
	mu   sync.Mutex
}

func (w *rotatingLogWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	info, err := w.file.Stat()
	if err == nil && info.Size() > MaxLogFileSize {
		w.file.Close()
		w.file, err = os.OpenFile(w.path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
		if err != nil {
			return 0, fmt.Errorf("failed to truncate log file: %w", err)
		}
	}
	return w.file.Write(p)
}

func (w *rotatingLogWriter) Sync() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.file.Sync()
}

func getLogFileWriter(path string) zapcore.WriteSyncer {
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to open log file %s: %v, falling back to stderr\n", path, err)
		return zapcore.AddSync(os.Stderr)
	}
	return &rotatingLogWriter{file: file, path: path}
}

// fileEntryEncoder writes "2006-01-02 15:04:05     LEVEL msg\t{json fields}".
type fileEntryEncoder struct {
	zapcore.Encoder
}

func (e *fileEntryEncoder) Clone() zapcore.Encoder {
	return &fileEntryEncoder{Encoder: e.Encoder.Clone()}
}

func (e *fileEntryEncoder) EncodeEntry(entry zapcore.Entry, fields []zapcore.Field) (*buffer.Buffer, error) {
	buf := buffer.NewPool().Get()
	buf.AppendString(entry.Time.Format("2006-01-02 15:04:05"))
	buf.AppendString("     ")
	buf.AppendString(entry.Level.CapitalString())
	buf.AppendString(" ")
	buf.AppendString(entry.Message)

	if len(fields) > 0 {
		enc := zapcore.NewMapObjectEncoder()
		for _, f := range fields {
			f.AddTo(enc)
		}
		if data, err := json.Marshal(enc.Fields); err == nil {
			buf.AppendString("\t")
			buf.AppendString(string(data))
		}
	}
	buf.AppendString("\n")
	return buf, nil
}
