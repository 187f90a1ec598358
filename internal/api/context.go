package api

import (
	"context"

	"github.com/semmidev/keeper/internal/infrastructure/logger"
)

type contextKey int

const requestIDKey contextKey = iota

func ContextWithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

// LoggerFromContext tags log with the request id carried by ctx, if any.
func LoggerFromContext(log *logger.Logger, ctx context.Context) *logger.Logger {
	if ctx == nil {
		return log
	}
	if id := RequestIDFromContext(ctx); id != "" {
		return &logger.Logger{SugaredLogger: log.With("request_id", id)}
	}
	return log
}
