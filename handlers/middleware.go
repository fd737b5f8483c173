package handlers

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/pocketbase/pocketbase/core"
	"github.com/rs/zerolog"
)

type contextKey string

const RequestIDKey contextKey = "requestID"

// RequestIDHeader is echoed back on every response.
const RequestIDHeader = "X-Request-ID"

// GetRequestID extracts the request id stored by RequestLogger.
func GetRequestID(ctx context.Context) string {
	if val, ok := ctx.Value(RequestIDKey).(string); ok {
		return val
	}
	return ""
}

// RequestLogger tags each request with an id (reusing a client supplied
// X-Request-ID), attaches a request-scoped logger to the context and logs
// the outcome once the handler chain returns.
func RequestLogger(logger zerolog.Logger) func(e *core.RequestEvent) error {
	return func(e *core.RequestEvent) error {
		id := e.Request.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		e.Response.Header().Set(RequestIDHeader, id)

		reqLog := logger.With().Str("request_id", id).Logger()
		ctx := context.WithValue(e.Request.Context(), RequestIDKey, id)
		ctx = reqLog.WithContext(ctx)
		e.Request = e.Request.WithContext(ctx)

		start := time.Now()
		err := e.Next()

		ev := reqLog.Info()
		if err != nil {
			ev = reqLog.Warn().Err(err)
		}
		ev.Str("method", e.Request.Method).
			Str("path", e.Request.URL.Path).
			Int("status", e.Status()).
			Dur("duration", time.Since(start)).
			Msg("request")
		return err
	}
}

// requestLogger returns the logger RequestLogger attached to the request,
// or fallback when the middleware did not run.
func requestLogger(e *core.RequestEvent, fallback zerolog.Logger) *zerolog.Logger {
	if l := zerolog.Ctx(e.Request.Context()); l.GetLevel() != zerolog.Disabled {
		return l
	}
	return &fallback
}
