// Package logging wraps zap the way the rest of the pack's services
// do: a thin Logger with a Field value type instead of passing
// zapcore.Field directly, so call sites never import zap. Grounded on
// the exchange repo's pkg/logger.Logger, trimmed to the methods
// BookCore actually calls (no per-request context propagation — a
// book actor has no inbound HTTP context to thread through).
package logging

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is a structured logger for one component.
type Logger struct {
	z *zap.Logger
}

// Field holds one key-value pair to attach to a log line.
type Field struct {
	Key   string
	Value any
}

func F(key string, value any) Field { return Field{Key: key, Value: value} }

// Level selects the minimum severity a Logger emits.
type Level string

const (
	DebugLevel Level = "debug"
	InfoLevel  Level = "info"
	WarnLevel  Level = "warn"
	ErrorLevel Level = "error"
)

func (l Level) zapLevel() zapcore.Level {
	switch l {
	case DebugLevel:
		return zapcore.DebugLevel
	case WarnLevel:
		return zapcore.WarnLevel
	case ErrorLevel:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// New builds a production-style JSON logger at the given level.
func New(level Level) (*Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(level.zapLevel())
	cfg.EncoderConfig.MessageKey = "message"

	z, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return &Logger{z: z}, nil
}

// NewNop returns a logger that discards everything, for tests.
func NewNop() *Logger { return &Logger{z: zap.NewNop()} }

func (l *Logger) Sync() error { return l.z.Sync() }

func (l *Logger) Debug(msg string, fields ...Field) { l.z.Debug(msg, convert(fields)...) }
func (l *Logger) Info(msg string, fields ...Field)  { l.z.Info(msg, convert(fields)...) }
func (l *Logger) Warn(msg string, fields ...Field)  { l.z.Warn(msg, convert(fields)...) }

func (l *Logger) Error(err error, fields ...Field) {
	if ce := l.z.Check(zapcore.ErrorLevel, err.Error()); ce != nil {
		ce.Write(convert(fields)...)
	}
}

// With returns a child logger carrying fields on every subsequent
// call, used so BookCore doesn't repeat its pair name on every line.
func (l *Logger) With(fields ...Field) *Logger {
	return &Logger{z: l.z.With(convert(fields)...)}
}

func convert(fields []Field) []zapcore.Field {
	out := make([]zapcore.Field, 0, len(fields))
	for _, f := range fields {
		out = append(out, zap.Any(f.Key, f.Value))
	}
	return out
}
