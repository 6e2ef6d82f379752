package logger

import (
	"context"
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// ZerologAdapter implements the ports.Logger interface on top of zerolog,
// giving structured JSON output for production while the console format
// stays readable during development.
type ZerologAdapter struct {
	logger zerolog.Logger
}

// ZerologConfig holds configuration for the zerolog adapter.
type ZerologConfig struct {
	Level   string
	Console bool // Human-readable console format instead of JSON
	Out     io.Writer
}

// NewZerolog creates a structured logger. With Console set, output goes
// through zerolog's ConsoleWriter.
func NewZerolog(cfg ZerologConfig) *ZerologAdapter {
	out := cfg.Out
	if out == nil {
		out = os.Stderr
	}

	var writer io.Writer = out
	if cfg.Console {
		writer = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}

	logger := zerolog.New(writer).
		Level(parseZerologLevel(cfg.Level)).
		With().
		Timestamp().
		Logger()

	return &ZerologAdapter{logger: logger}
}

func parseZerologLevel(level string) zerolog.Level {
	switch level {
	case "debug", "DEBUG":
		return zerolog.DebugLevel
	case "info", "INFO":
		return zerolog.InfoLevel
	case "warn", "WARN", "warning", "WARNING":
		return zerolog.WarnLevel
	case "error", "ERROR":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

func applyFields(event *zerolog.Event, fields []map[string]interface{}) *zerolog.Event {
	if len(fields) > 0 && fields[0] != nil {
		event = event.Fields(fields[0])
	}
	return event
}

// Debug logs a message at Debug level.
func (l *ZerologAdapter) Debug(ctx context.Context, msg string, fields ...map[string]interface{}) {
	applyFields(l.logger.Debug(), fields).Msg(msg)
}

// Info logs a message at Info level.
func (l *ZerologAdapter) Info(ctx context.Context, msg string, fields ...map[string]interface{}) {
	applyFields(l.logger.Info(), fields).Msg(msg)
}

// Warn logs a message at Warning level.
func (l *ZerologAdapter) Warn(ctx context.Context, msg string, fields ...map[string]interface{}) {
	applyFields(l.logger.Warn(), fields).Msg(msg)
}

// Error logs an error message at Error level.
func (l *ZerologAdapter) Error(ctx context.Context, err error, msg string, fields ...map[string]interface{}) {
	applyFields(l.logger.Error().Err(err), fields).Msg(msg)
}
