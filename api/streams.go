package handler

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"

	"github.com/samber/lo"

	"github.com/felipemarinho97/torrent-resolver/metadata"
	"github.com/felipemarinho97/torrent-resolver/resolver"
	"github.com/felipemarinho97/torrent-resolver/schema"
)

type StreamResponse struct {
	Name         string            `json:"name"`
	Title        string            `json:"title"`
	InfoHash     string            `json:"infoHash"`
	FileIdx      *int              `json:"fileIdx,omitempty"`
	Size         int64             `json:"size"`
	Seeders      int               `json:"seeders"`
	Quality      string            `json:"quality,omitempty"`
	Language     string            `json:"language"`
	Source       string            `json:"source"`
	Availability map[string]bool   `json:"availability,omitempty"`
	URLs         map[string]string `json:"urls,omitempty"`
}

type StreamsResponse struct {
	Streams []StreamResponse `json:"streams"`
}

func (h *Handler) HandlerStreams(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	contentType := r.PathValue("type")
	id, err := schema.ParseMediaID(contentType, r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	streams, err := h.svc.Streams(ctx, id)
	switch {
	case errors.Is(err, metadata.ErrNotFound):
		writeError(w, http.StatusNotFound, err)
		return
	case err != nil:
		writeInternalError(w, r, err)
		return
	}

	base := baseURL(r)
	resp := StreamsResponse{Streams: make([]StreamResponse, 0, len(streams))}
	for _, s := range streams {
		resp.Streams = append(resp.Streams, toStreamResponse(s, base, contentType, id, h.svc.Providers()))
	}
	writeJSON(w, http.StatusOK, resp)
}

func toStreamResponse(s resolver.Stream, base, contentType string, id schema.MediaID, providers []string) StreamResponse {
	out := StreamResponse{
		Name:         streamName(s),
		Title:        s.Title,
		InfoHash:     s.InfoHash,
		FileIdx:      s.FileIndex,
		Size:         s.Size,
		Seeders:      s.Seeders,
		Quality:      s.Quality,
		Language:     s.Language.String(),
		Source:       s.Source,
		Availability: s.Availability,
	}
	if len(providers) > 0 {
		out.URLs = make(map[string]string, len(providers))
	}
	for _, p := range providers {
		u := fmt.Sprintf("%s/resolve/%s/%s/%s/%s", base, url.PathEscape(p), s.InfoHash, url.PathEscape(contentType), url.PathEscape(id.String()))
		if s.FileIndex != nil {
			u += "?file=" + strconv.Itoa(*s.FileIndex)
		}
		out.URLs[p] = u
	}
	return out
}

// streamName is the short label: cached providers first, then quality.
func streamName(s resolver.Stream) string {
	cached := lo.Filter(lo.Keys(s.Availability), func(p string, _ int) bool { return s.Availability[p] })
	sort.Strings(cached)
	parts := lo.Map(cached, func(p string, _ int) string { return "[" + strings.ToUpper(p) + "+]" })
	if s.Quality != "" {
		parts = append(parts, s.Quality)
	}
	if len(parts) == 0 {
		return s.Source
	}
	return strings.Join(parts, " ")
}

func baseURL(r *http.Request) string {
	scheme := "http"
	if r.TLS != nil || strings.EqualFold(r.Header.Get("X-Forwarded-Proto"), "https") {
		scheme = "https"
	}
	host := r.Host
	if fwd := r.Header.Get("X-Forwarded-Host"); fwd != "" {
		host = fwd
	}
	return scheme + "://" + host
}
