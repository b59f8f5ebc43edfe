// Package shared holds the small cross-cutting interfaces used by every
// other internal package, mirroring the teacher's domain/shared split:
// a logging abstraction the infrastructure layer implements concretely.
package shared

import (
	"time"

	"go.uber.org/zap"
)

// Logger defines the interface for structured logging consumed by every
// internal package. Kept deliberately small so fakes are trivial in tests.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
	With(fields ...Field) Logger
}

// Field is a single structured logging key/value pair.
type Field struct {
	Key   string
	Value interface{}
}

// StringField creates a string field.
func StringField(key, value string) Field { return Field{Key: key, Value: value} }

// IntField creates an int field.
func IntField(key string, value int) Field { return Field{Key: key, Value: value} }

// ErrorField creates an error field.
func ErrorField(err error) Field { return Field{Key: "error", Value: err} }

// DurationField creates a duration field.
func DurationField(key string, value time.Duration) Field { return Field{Key: key, Value: value} }

// ZapLogger implements Logger on top of go.uber.org/zap, the teacher's
// logging library (internal/infrastructure/logging/logger.go).
type ZapLogger struct {
	logger *zap.Logger
}

// NewZapLogger wraps an already-configured zap.Logger. Configuring zap's
// sinks/level is the embedder's responsibility (spec: logging configuration
// is out of scope); NewProductionLogger below offers a sane default.
func NewZapLogger(logger *zap.Logger) *ZapLogger {
	return &ZapLogger{logger: logger}
}

// NewProductionLogger builds a ZapLogger with zap's production defaults.
func NewProductionLogger() (*ZapLogger, error) {
	logger, err := zap.NewProduction()
	if err != nil {
		return nil, err
	}
	return &ZapLogger{logger: logger}, nil
}

func (l *ZapLogger) Debug(msg string, fields ...Field) { l.logger.Debug(msg, toZap(fields)...) }
func (l *ZapLogger) Info(msg string, fields ...Field)  { l.logger.Info(msg, toZap(fields)...) }
func (l *ZapLogger) Warn(msg string, fields ...Field)  { l.logger.Warn(msg, toZap(fields)...) }
func (l *ZapLogger) Error(msg string, fields ...Field) { l.logger.Error(msg, toZap(fields)...) }

func (l *ZapLogger) With(fields ...Field) Logger {
	return &ZapLogger{logger: l.logger.With(toZap(fields)...)}
}

func toZap(fields []Field) []zap.Field {
	out := make([]zap.Field, len(fields))
	for i, f := range fields {
		switch v := f.Value.(type) {
		case string:
			out[i] = zap.String(f.Key, v)
		case int:
			out[i] = zap.Int(f.Key, v)
		case int64:
			out[i] = zap.Int64(f.Key, v)
		case bool:
			out[i] = zap.Bool(f.Key, v)
		case time.Duration:
			out[i] = zap.Duration(f.Key, v)
		case error:
			out[i] = zap.Error(v)
		default:
			out[i] = zap.Any(f.Key, v)
		}
	}
	return out
}

// NoOpLogger discards everything. Used as the default when the embedder
// does not inject a logger, and in tests.
type NoOpLogger struct{}

func NewNoOpLogger() *NoOpLogger { return &NoOpLogger{} }

func (NoOpLogger) Debug(string, ...Field) {}
func (NoOpLogger) Info(string, ...Field)  {}
func (NoOpLogger) Warn(string, ...Field)  {}
func (NoOpLogger) Error(string, ...Field) {}
func (l NoOpLogger) With(...Field) Logger { return l }
