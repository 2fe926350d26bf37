package logging

import (
	"context"
	"net/http"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

type ctxKey struct{}

// InitLogger configures the global zerolog logger from LOG_LEVEL and LOG_FORMAT.
func InitLogger() {
	zerolog.TimeFieldFormat = time.RFC3339
	level := zerolog.InfoLevel
	if envLevel := os.Getenv("LOG_LEVEL"); envLevel != "" {
		if parsedLevel, err := zerolog.ParseLevel(envLevel); err == nil {
			level = parsedLevel
		}
	}

	zerolog.SetGlobalLevel(level)

	if os.Getenv("LOG_FORMAT") != "json" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
	}
}

func Info() *zerolog.Event {
	return log.Info()
}

func Debug() *zerolog.Event {
	return log.Debug()
}

func Error() *zerolog.Event {
	return log.Error()
}

func Warn() *zerolog.Event {
	return log.Warn()
}

// WithRequestID stores a request id in the context so that every log line of
// one resolution can be correlated.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// RequestID returns the id stored by WithRequestID, or "".
func RequestID(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

// InfoCtx, DebugCtx, WarnCtx and ErrorCtx tag the event with the request id of ctx.
func InfoCtx(ctx context.Context) *zerolog.Event {
	return withID(ctx, log.Info())
}

func DebugCtx(ctx context.Context) *zerolog.Event {
	return withID(ctx, log.Debug())
}

func WarnCtx(ctx context.Context) *zerolog.Event {
	return withID(ctx, log.Warn())
}

func ErrorCtx(ctx context.Context) *zerolog.Event {
	return withID(ctx, log.Error())
}

func withID(ctx context.Context, event *zerolog.Event) *zerolog.Event {
	if id := RequestID(ctx); id != "" {
		return event.Str("request_id", id)
	}
	return event
}

// ErrorWithRequest returns an error event tagged with the request id, method,
// url and client address of r.
func ErrorWithRequest(r *http.Request) *zerolog.Event {
	return withID(r.Context(), log.Error()).
		Str("method", r.Method).
		Str("url", r.URL.String()).
		Str("client_ip", getClientIP(r))
}

// getClientIP extracts the real client IP address from the request
func getClientIP(r *http.Request) string {
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		return xff
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return xri
	}
	return r.RemoteAddr
}
