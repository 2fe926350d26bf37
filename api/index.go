package handler

import (
	"net/http"
	"time"

	"github.com/felipemarinho97/torrent-resolver/consts"
)

type Endpoint struct {
	Path        string `json:"path"`
	Description string `json:"description"`
}

var endpoints = []Endpoint{
	{Path: "/stream/{type}/{id}", Description: "Ranked stream candidates for a movie, series episode or anime episode"},
	{Path: "/resolve/{provider}/{hash}/{type}/{id}", Description: "Redirects to the debrid download of a torrent, optional ?file= index"},
	{Path: "/health", Description: "Dependency status"},
}

func (h *Handler) HandlerIndex(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"time":      time.Now().Format(time.RFC850),
		"build":     consts.GetBuildInfo(),
		"providers": h.svc.Providers(),
		"endpoints": endpoints,
	})
}

func (h *Handler) HandlerHealth(w http.ResponseWriter, r *http.Request) {
	status := http.StatusOK
	report := make(map[string]string, len(h.checks))
	for name, check := range h.checks {
		if err := check(r.Context()); err != nil {
			report[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		report[name] = "ok"
	}
	writeJSON(w, status, map[string]any{"status": http.StatusText(status), "checks": report})
}
