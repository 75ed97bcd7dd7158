package chat

import (
	"io"
	"unicode/utf8"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// AttemptEvent records metadata about a single candidate attempt.
type AttemptEvent struct {
	Endpoint  string
	Transport Transport
	Attempt   int
	LatencyMs int64
	Success   bool
	ErrorCode string
	Err       error
	Bytes     int
	Frames    int
	Completed bool
}

// Observer receives events about chat attempts for logging and metrics.
type Observer interface {
	OnAttemptComplete(event AttemptEvent)
	OnUnknownFrame(endpoint string, line string)
}

// LogObserver writes attempt events as JSON lines.
type LogObserver struct {
	logger *zap.Logger
}

// NewLogObserver creates an Observer that logs events to w.
func NewLogObserver(w io.Writer) *LogObserver {
	encoderConfig := zapcore.EncoderConfig{
		TimeKey:     "timestamp",
		LevelKey:    "level",
		MessageKey:  "message",
		EncodeTime:  zapcore.RFC3339TimeEncoder,
		EncodeLevel: zapcore.LowercaseLevelEncoder,
	}
	core := zapcore.NewCore(
		zapcore.NewJSONEncoder(encoderConfig),
		zapcore.AddSync(w),
		zapcore.DebugLevel,
	)
	return &LogObserver{logger: zap.New(core).With(zap.String("component", "chat"))}
}

func (o *LogObserver) OnAttemptComplete(event AttemptEvent) {
	fields := []zap.Field{
		zap.String("endpoint", event.Endpoint),
		zap.String("transport", string(event.Transport)),
		zap.Int("attempt", event.Attempt),
		zap.Int64("latency_ms", event.LatencyMs),
		zap.Int("bytes", event.Bytes),
		zap.Int("frames", event.Frames),
		zap.Bool("completed", event.Completed),
	}
	if !event.Success {
		fields = append(fields, zap.String("error_code", event.ErrorCode), zap.Error(event.Err))
		o.logger.Warn("chat_attempt_failed", fields...)
		return
	}
	o.logger.Info("chat_attempt", fields...)
}

func (o *LogObserver) OnUnknownFrame(endpoint string, line string) {
	o.logger.Debug("chat_unknown_frame", zap.String("endpoint", endpoint), zap.String("line", truncateRunes(line, maxLoggedLineRunes)))
}

// Sync flushes buffered log entries.
func (o *LogObserver) Sync() error {
	return o.logger.Sync()
}

// NoopObserver discards all events. Useful for tests.
type NoopObserver struct{}

func (NoopObserver) OnAttemptComplete(AttemptEvent) {}

func (NoopObserver) OnUnknownFrame(string, string) {}

const maxLoggedLineRunes = 200

// truncateRunes cuts s to at most n runes without splitting a character.
func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
