package ports

import "context"

// Logger is the leveled logging port the rest of the system writes to.
// Fields carry structured context (trade ID, instrument, source name); the
// adapters decide how to render them. Two implementations exist: a plain
// stderr logger and a zerolog-backed one selected by configuration.
type Logger interface {
	Debug(ctx context.Context, msg string, fields ...map[string]interface{})
	Info(ctx context.Context, msg string, fields ...map[string]interface{})
	Warn(ctx context.Context, msg string, fields ...map[string]interface{})
	// Error carries the error separately from the message so adapters can
	// render it as a structured field.
	Error(ctx context.Context, err error, msg string, fields ...map[string]interface{})
}
