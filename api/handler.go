package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/samber/mo"

	"github.com/felipemarinho97/torrent-resolver/debrid"
	"github.com/felipemarinho97/torrent-resolver/logging"
	"github.com/felipemarinho97/torrent-resolver/resolver"
	"github.com/felipemarinho97/torrent-resolver/schema"
)

// StreamService is the resolution pipeline behind the handlers.
type StreamService interface {
	Streams(ctx context.Context, id schema.MediaID) ([]resolver.Stream, error)
	Resolve(ctx context.Context, provider, hash string, id schema.MediaID, fileIndex mo.Option[int]) (debrid.Outcome, error)
	Providers() []string
}

// HealthCheck reports whether a dependency is reachable.
type HealthCheck func(ctx context.Context) error

type Handler struct {
	svc    StreamService
	checks map[string]HealthCheck
}

func New(svc StreamService, checks map[string]HealthCheck) *Handler {
	return &Handler{svc: svc, checks: checks}
}

// Routes registers every endpoint behind the request logging middleware.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", h.HandlerIndex)
	mux.HandleFunc("GET /health", h.HandlerHealth)
	mux.HandleFunc("GET /stream/{type}/{id}", h.HandlerStreams)
	mux.HandleFunc("GET /resolve/{provider}/{hash}/{type}/{id}", h.HandlerResolve)
	return logging.HTTPLoggingMiddleware(mux)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Error().Err(err).Msg("Failed to encode response")
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

// writeInternalError logs err with the request it failed and answers 500.
func writeInternalError(w http.ResponseWriter, r *http.Request, err error) {
	logging.ErrorWithRequest(r).Err(err).Msg("Request failed")
	writeError(w, http.StatusInternalServerError, err)
}
