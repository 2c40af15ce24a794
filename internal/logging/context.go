package logging

import (
	"context"
	"log/slog"
)

const (
	// FieldComponent is the standardized structured logging key for component names.
	FieldComponent = "component"
	// FieldAppID is the standardized structured logging key for the target app id.
	FieldAppID = "app_id"
	// FieldSessionID is the standardized structured logging key for pipeline run identifiers.
	FieldSessionID = "session_id"
	// FieldCursor is the standardized structured logging key for pagination cursors.
	FieldCursor = "cursor"
)

type contextKey struct{}

// IntoContext stores logger in ctx for retrieval by nested components.
func IntoContext(ctx context.Context, logger *slog.Logger) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, contextKey{}, logger)
}

// FromContext returns the logger stored in ctx, or a no-op logger.
func FromContext(ctx context.Context) *slog.Logger {
	if ctx != nil {
		if logger, ok := ctx.Value(contextKey{}).(*slog.Logger); ok && logger != nil {
			return logger
		}
	}
	return NewNop()
}

// WithComponent tags logger with a component field.
func WithComponent(logger *slog.Logger, component string) *slog.Logger {
	if logger == nil {
		return NewNop()
	}
	return logger.With(slog.String(FieldComponent, component))
}
