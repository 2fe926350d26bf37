package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/samber/mo"

	"github.com/felipemarinho97/torrent-resolver/debrid"
	"github.com/felipemarinho97/torrent-resolver/resolver"
	"github.com/felipemarinho97/torrent-resolver/schema"
)

type OutcomeResponse struct {
	State   string `json:"state"`
	JobID   string `json:"job_id,omitempty"`
	Failure string `json:"failure,omitempty"`
	Error   string `json:"error,omitempty"`
}

// HandlerResolve redirects to the stream URL when the torrent is ready, answers
// 202 while the provider is still working on it and reports failures with their
// class.
func (h *Handler) HandlerResolve(w http.ResponseWriter, r *http.Request) {
	id, err := schema.ParseMediaID(r.PathValue("type"), r.PathValue("id"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	fileIndex := mo.None[int]()
	if v := r.URL.Query().Get("file"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, fmt.Errorf("invalid file index %q", v))
			return
		}
		fileIndex = mo.Some(n)
	}

	out, err := h.svc.Resolve(r.Context(), r.PathValue("provider"), r.PathValue("hash"), id, fileIndex)
	switch {
	case errors.Is(err, resolver.ErrUnknownProvider):
		writeError(w, http.StatusNotFound, err)
		return
	case errors.Is(err, resolver.ErrInvalidHash):
		writeError(w, http.StatusBadRequest, err)
		return
	case err != nil:
		writeInternalError(w, r, err)
		return
	}

	switch out.Kind {
	case debrid.OutcomeResolved:
		http.Redirect(w, r, out.URL, http.StatusFound)
	case debrid.OutcomePending:
		writeJSON(w, http.StatusAccepted, OutcomeResponse{State: out.State.String(), JobID: out.JobID})
	default:
		resp := OutcomeResponse{State: out.State.String(), JobID: out.JobID, Failure: out.Failure().String()}
		if out.Err != nil {
			resp.Error = out.Err.Error()
		}
		writeJSON(w, FailureStatus(out.Failure()), resp)
	}
}

// FailureStatus maps a failure class to the HTTP status reported to clients.
func FailureStatus(f debrid.Failure) int {
	switch f {
	case debrid.FailureAccessDenied:
		return http.StatusForbidden
	case debrid.FailureContentFlagged:
		return http.StatusUnavailableForLegalReasons
	case debrid.FailureQuotaExceeded, debrid.FailureRateLimited:
		return http.StatusTooManyRequests
	case debrid.FailurePayloadTooLarge:
		return http.StatusRequestEntityTooLarge
	case debrid.FailureConversionFailed:
		return http.StatusUnprocessableEntity
	default:
		return http.StatusBadGateway
	}
}
