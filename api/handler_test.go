package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"reflect"
	"strings"
	"testing"

	"github.com/samber/mo"

	"github.com/felipemarinho97/torrent-resolver/debrid"
	"github.com/felipemarinho97/torrent-resolver/metadata"
	"github.com/felipemarinho97/torrent-resolver/resolver"
	"github.com/felipemarinho97/torrent-resolver/schema"
)

const testHash = "0123456789abcdef0123456789abcdef01234567"

type fakeService struct {
	streams   []resolver.Stream
	err       error
	outcome   debrid.Outcome
	gotID     schema.MediaID
	gotFile   mo.Option[int]
	gotProv   string
	providers []string
}

func (f *fakeService) Streams(_ context.Context, id schema.MediaID) ([]resolver.Stream, error) {
	f.gotID = id
	return f.streams, f.err
}

func (f *fakeService) Resolve(_ context.Context, provider, _ string, id schema.MediaID, fileIndex mo.Option[int]) (debrid.Outcome, error) {
	f.gotProv, f.gotID, f.gotFile = provider, id, fileIndex
	return f.outcome, f.err
}

func (f *fakeService) Providers() []string { return f.providers }

func serve(t *testing.T, h *Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	h.Routes().ServeHTTP(rec, req)
	return rec
}

func TestHandlerStreams(t *testing.T) {
	idx := 2
	svc := &fakeService{
		providers: []string{"realdebrid"},
		streams: []resolver.Stream{{
			Candidate: schema.Candidate{
				Title:     "Breaking Bad S05 1080p",
				InfoHash:  testHash,
				Size:      1 << 30,
				Seeders:   12,
				Quality:   "1080p",
				Source:    "torznab",
				FileIndex: &idx,
				Language:  schema.LanguageLocalized,
			},
			Availability: map[string]bool{"realdebrid": true},
		}},
	}
	rec := serve(t, New(svc, nil), "/stream/series/tt0903747:5:14.json")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body)
	}

	var resp StreamsResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Streams) != 1 {
		t.Fatalf("got %d streams", len(resp.Streams))
	}
	got := resp.Streams[0]
	if got.Name != "[REALDEBRID+] 1080p" {
		t.Errorf("name = %q", got.Name)
	}
	wantURL := "http://example.com/resolve/realdebrid/" + testHash + "/series/tt0903747:5:14?file=2"
	if !reflect.DeepEqual(got.URLs, map[string]string{"realdebrid": wantURL}) {
		t.Errorf("urls = %v", got.URLs)
	}
	if got.Language != schema.LanguageLocalized.String() {
		t.Errorf("language = %q", got.Language)
	}
	if svc.gotID.Kind != schema.KindSeries || *svc.gotID.Episode != 14 {
		t.Errorf("parsed id = %+v", svc.gotID)
	}
}

func TestHandlerStreamsErrors(t *testing.T) {
	tests := []struct {
		name   string
		target string
		err    error
		want   int
	}{
		{"bad id", "/stream/movie/nm0000001", nil, http.StatusBadRequest},
		{"unknown title", "/stream/movie/tt0000001", metadata.ErrNotFound, http.StatusNotFound},
		{"pipeline failure", "/stream/movie/tt0000001", errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(t, New(&fakeService{err: tt.err}, nil), tt.target)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestHandlerResolve(t *testing.T) {
	tests := []struct {
		name       string
		target     string
		outcome    debrid.Outcome
		err        error
		wantStatus int
		wantBody   string
	}{
		{
			name:       "resolved",
			target:     "/resolve/realdebrid/" + testHash + "/movie/tt0068646",
			outcome:    debrid.Outcome{Kind: debrid.OutcomeResolved, URL: "https://cdn.example/file.mkv"},
			wantStatus: http.StatusFound,
		},
		{
			name:       "pending",
			target:     "/resolve/realdebrid/" + testHash + "/movie/tt0068646",
			outcome:    debrid.Outcome{Kind: debrid.OutcomePending, State: debrid.StateDownloading, JobID: "J1"},
			wantStatus: http.StatusAccepted,
			wantBody:   `"job_id":"J1"`,
		},
		{
			name:       "flagged",
			target:     "/resolve/realdebrid/" + testHash + "/movie/tt0068646",
			outcome:    debrid.Outcome{Kind: debrid.OutcomeFailed, State: debrid.StateError, Err: debrid.FailureContentFlagged},
			wantStatus: http.StatusUnavailableForLegalReasons,
			wantBody:   `"failure"`,
		},
		{
			name:       "bad file index",
			target:     "/resolve/realdebrid/" + testHash + "/movie/tt0068646?file=x",
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "unknown provider",
			target:     "/resolve/premiumize/" + testHash + "/movie/tt0068646",
			err:        resolver.ErrUnknownProvider,
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "invalid hash",
			target:     "/resolve/realdebrid/abc/movie/tt0068646",
			err:        resolver.ErrInvalidHash,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "pipeline failure",
			target:     "/resolve/realdebrid/" + testHash + "/movie/tt0068646",
			err:        errors.New("store down"),
			wantStatus: http.StatusInternalServerError,
			wantBody:   `"store down"`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(t, New(&fakeService{outcome: tt.outcome, err: tt.err}, nil), tt.target)
			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d (%s)", rec.Code, tt.wantStatus, rec.Body)
			}
			if tt.outcome.Kind == debrid.OutcomeResolved && rec.Header().Get("Location") != tt.outcome.URL {
				t.Errorf("location = %q", rec.Header().Get("Location"))
			}
			if tt.wantBody != "" && !strings.Contains(rec.Body.String(), tt.wantBody) {
				t.Errorf("body %s does not contain %s", rec.Body, tt.wantBody)
			}
		})
	}
}

func TestHandlerResolvePassesFileIndex(t *testing.T) {
	svc := &fakeService{outcome: debrid.Outcome{Kind: debrid.OutcomeResolved, URL: "https://cdn.example/x"}}
	serve(t, New(svc, nil), "/resolve/alldebrid/"+testHash+"/series/tt0903747:5:14?file=3")
	if svc.gotProv != "alldebrid" {
		t.Errorf("provider = %q", svc.gotProv)
	}
	if idx, ok := svc.gotFile.Get(); !ok || idx != 3 {
		t.Errorf("file index = %v", svc.gotFile)
	}
}

func TestFailureStatus(t *testing.T) {
	for _, f := range debrid.Failures {
		if got := FailureStatus(f); got < 400 {
			t.Errorf("%s mapped to %d", f, got)
		}
	}
	if got := FailureStatus(debrid.FailureRateLimited); got != http.StatusTooManyRequests {
		t.Errorf("rate limited = %d", got)
	}
}

func TestHandlerHealth(t *testing.T) {
	checks := map[string]HealthCheck{
		"store": func(context.Context) error { return nil },
		"redis": func(context.Context) error { return errors.New("connection refused") },
	}
	rec := serve(t, New(&fakeService{}, checks), "/health")
	if rec.Code != http.StatusServiceUnavailable {
		t.Fatalf("status = %d", rec.Code)
	}
	var body struct {
		Checks map[string]string `json:"checks"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	want := map[string]string{"store": "ok", "redis": "connection refused"}
	if !reflect.DeepEqual(body.Checks, want) {
		t.Errorf("checks = %v", body.Checks)
	}
}

func TestHandlerIndex(t *testing.T) {
	rec := serve(t, New(&fakeService{providers: []string{"realdebrid"}}, nil), "/")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), `"realdebrid"`) {
		t.Errorf("index does not list providers: %s", rec.Body)
	}
}
