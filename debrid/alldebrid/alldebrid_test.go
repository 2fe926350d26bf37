package alldebrid

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"reflect"
	"testing"

	"golang.org/x/time/rate"

	"github.com/felipemarinho97/torrent-resolver/debrid"
	"github.com/felipemarinho97/torrent-resolver/schema"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New("key", WithBaseURL(srv.URL), WithRateLimit(rate.Inf, 1))
}

func TestEveryStatusCodeIsMapped(t *testing.T) {
	for code := 0; code <= 15; code++ {
		if _, ok := magnetStatuses[code]; !ok {
			t.Errorf("status code %d has no mapping", code)
		}
	}
}

func TestEveryFailureIsReachable(t *testing.T) {
	reached := map[debrid.Failure]bool{
		FailureForHTTPStatus(http.StatusTooManyRequests): true,
	}
	for _, f := range errorCodes {
		reached[f] = true
	}
	for _, m := range magnetStatuses {
		reached[m.failure] = true
	}
	for _, f := range debrid.Failures {
		if !reached[f] {
			t.Errorf("failure %s is never produced", f)
		}
	}
}

func TestMapStatus(t *testing.T) {
	tests := []struct {
		code    int
		status  debrid.JobStatus
		failure debrid.Failure
	}{
		{0, debrid.StatusQueued, debrid.FailureNone},
		{2, debrid.StatusDownloading, debrid.FailureNone},
		{4, debrid.StatusReady, debrid.FailureNone},
		{8, debrid.StatusError, debrid.FailurePayloadTooLarge},
		{11, debrid.StatusError, debrid.FailureContentFlagged},
		{15, debrid.StatusError, debrid.FailureConversionFailed},
		{42, debrid.StatusError, debrid.FailureGeneric},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprint(tt.code), func(t *testing.T) {
			status, failure := MapStatus(tt.code)
			if status != tt.status || failure != tt.failure {
				t.Errorf("MapStatus(%d) = %s, %s; want %s, %s", tt.code, status, failure, tt.status, tt.failure)
			}
		})
	}
}

func TestErrorEnvelope(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		failure debrid.Failure
		code    string
	}{
		{"bad apikey", http.StatusOK, `{"status":"error","error":{"code":"AUTH_BAD_APIKEY","message":"The auth apikey is invalid"}}`, debrid.FailureAccessDenied, "AUTH_BAD_APIKEY"},
		{"too large", http.StatusOK, `{"status":"error","error":{"code":"MAGNET_TOO_LARGE","message":"too large"}}`, debrid.FailurePayloadTooLarge, "MAGNET_TOO_LARGE"},
		{"unknown code", http.StatusBadRequest, `{"status":"error","error":{"code":"SOMETHING_NEW","message":"?"}}`, debrid.FailureGeneric, "SOMETHING_NEW"},
		{"throttled", http.StatusTooManyRequests, `{"status":"error","error":{"code":"GENERIC","message":"slow down"}}`, debrid.FailureRateLimited, "429"},
		{"no body", http.StatusUnauthorized, ``, debrid.FailureAccessDenied, "401"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.body)
			})
			_, err := c.Unrestrict(context.Background(), "https://uptobox.com/x")
			var pe *debrid.ProviderError
			if !errors.As(err, &pe) {
				t.Fatalf("expected ProviderError, got %v", err)
			}
			if pe.Failure != tt.failure || pe.Code != tt.code {
				t.Errorf("got %s (%s), want %s (%s)", pe.Failure, pe.Code, tt.failure, tt.code)
			}
		})
	}
}

func TestRequestsCarryAgentAndKey(t *testing.T) {
	var agent, auth string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		agent = r.URL.Query().Get("agent")
		auth = r.Header.Get("Authorization")
		fmt.Fprint(w, `{"status":"success","data":{"link":"https://cdn.example/file.mkv"}}`)
	})
	link, err := c.Unrestrict(context.Background(), "https://alldebrid.com/f/x")
	if err != nil {
		t.Fatal(err)
	}
	if link != "https://cdn.example/file.mkv" {
		t.Errorf("link = %q", link)
	}
	if agent != DefaultAgent || auth != "Bearer key" {
		t.Errorf("agent = %q, auth = %q", agent, auth)
	}
}

func TestCheckBulkCache(t *testing.T) {
	a := "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"
	b := "BBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBBB"
	var asked []string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		asked = r.URL.Query()["magnets[]"]
		fmt.Fprintf(w, `{"status":"success","data":{"magnets":[{"magnet":"%s","hash":"%s","instant":true},{"hash":"%s","instant":false}]}}`, a, a, schema.NormalizeHash(b))
	})
	got, err := c.CheckBulkCache(context.Background(), []string{a, b})
	if err != nil {
		t.Fatal(err)
	}
	want := map[string]bool{a: true, schema.NormalizeHash(b): false}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("got %v, want %v", got, want)
	}
	if !reflect.DeepEqual(asked, []string{a, schema.NormalizeHash(b)}) {
		t.Errorf("asked %v", asked)
	}
}

func TestUpload(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantID  string
		failure debrid.Failure
	}{
		{"created", `{"status":"success","data":{"magnets":[{"hash":"abc","id":1234,"ready":false}]}}`, "1234", debrid.FailureNone},
		{"item error", `{"status":"success","data":{"magnets":[{"magnet":"x","error":{"code":"MAGNET_INVALID_URI","message":"bad"}}]}}`, "", debrid.FailureConversionFailed},
		{"empty", `{"status":"success","data":{"magnets":[]}}`, "", debrid.FailureGeneric},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				if r.URL.Path != "/magnet/upload" {
					t.Errorf("path = %s", r.URL.Path)
				}
				fmt.Fprint(w, tt.body)
			})
			id, err := c.FindOrCreateJob(context.Background(), "magnet:?xt=urn:btih:abc")
			if id != tt.wantID {
				t.Errorf("id = %q, want %q", id, tt.wantID)
			}
			if got := debrid.FailureOf(err); got != tt.failure {
				t.Errorf("failure = %s, want %s", got, tt.failure)
			}
		})
	}
}

func TestGetJobInfo(t *testing.T) {
	var id string
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		id = r.URL.Query().Get("id")
		fmt.Fprint(w, `{"status":"success","data":{"magnets":{
			"id":77,"hash":"ABC","filename":"Show S01","status":"Ready","statusCode":4,
			"size":300,"downloaded":300,
			"links":[
				{"link":"https://alldebrid.com/f/1","filename":"Show.S01E01.mkv","size":100},
				{"link":"https://alldebrid.com/f/2","filename":"Show.S01E02.mkv","size":200}
			]}}}`)
	})
	info, err := c.GetJobInfo(context.Background(), "77")
	if err != nil {
		t.Fatal(err)
	}
	if id != "77" {
		t.Errorf("id param = %q", id)
	}
	want := debrid.JobInfo{
		ID:         "77",
		InfoHash:   "abc",
		Status:     debrid.StatusReady,
		StatusText: "Ready",
		Progress:   100,
		Files: []schema.File{
			{Index: 0, Path: "Show.S01E01.mkv", Size: 100, Selected: true},
			{Index: 1, Path: "Show.S01E02.mkv", Size: 200, Selected: true},
		},
		Links: []string{"https://alldebrid.com/f/1", "https://alldebrid.com/f/2"},
	}
	if !reflect.DeepEqual(info, want) {
		t.Errorf("got %+v\nwant %+v", info, want)
	}
}

func TestListJobs(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"status":"success","data":{"magnets":[{"id":1,"hash":"AA","statusCode":1},{"id":2,"hash":"bb","statusCode":5}]}}`)
	})
	jobs, err := c.ListJobs(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	want := []debrid.Job{
		{ID: "1", InfoHash: "aa", Status: debrid.StatusDownloading},
		{ID: "2", InfoHash: "bb", Status: debrid.StatusError},
	}
	if !reflect.DeepEqual(jobs, want) {
		t.Errorf("got %+v, want %+v", jobs, want)
	}
}

func TestResolveThroughMachine(t *testing.T) {
	hash := "cccccccccccccccccccccccccccccccccccccccc"
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/magnet/status" && r.URL.Query().Get("id") == "":
			fmt.Fprintf(w, `{"status":"success","data":{"magnets":[{"id":5,"hash":"%s","statusCode":4}]}}`, hash)
		case r.URL.Path == "/magnet/status":
			fmt.Fprintf(w, `{"status":"success","data":{"magnets":{"id":5,"hash":"%s","statusCode":4,"links":[
				{"link":"https://alldebrid.com/f/a","filename":"Movie.2020.1080p.mkv","size":2000000000}]}}}`, hash)
		case r.URL.Path == "/link/unlock":
			fmt.Fprint(w, `{"status":"success","data":{"link":"https://cdn.example/movie.mkv"}}`)
		default:
			t.Errorf("unexpected request %s", r.URL)
		}
	})

	m := debrid.NewMachine(nil, 1000, nil)
	out := m.Resolve(context.Background(), c, debrid.Request{
		InfoHash: hash,
		Query:    schema.MediaQuery{Kind: schema.KindMovie, Titles: []string{"Movie"}, Year: 2020},
	})
	if out.Kind != debrid.OutcomeResolved || out.URL != "https://cdn.example/movie.mkv" {
		t.Fatalf("got %+v", out)
	}
}

type recorder struct {
	states   []schema.CacheEntry
	episodes []schema.EpisodeFile
}

func (r *recorder) UpsertCacheStates(_ context.Context, e []schema.CacheEntry) error {
	r.states = append(r.states, e...)
	return nil
}

func (r *recorder) UpsertEpisodeFiles(_ context.Context, e []schema.EpisodeFile) error {
	r.episodes = append(r.episodes, e...)
	return nil
}

func TestResolveIgnoresTorrentFileIndex(t *testing.T) {
	hash := "dddddddddddddddddddddddddddddddddddddddd"
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/magnet/status" && r.URL.Query().Get("id") == "":
			fmt.Fprintf(w, `{"status":"success","data":{"magnets":[{"id":9,"hash":"%s","statusCode":4}]}}`, hash)
		case r.URL.Path == "/magnet/status":
			// links are not in torrent order
			fmt.Fprintf(w, `{"status":"success","data":{"magnets":{"id":9,"hash":"%s","statusCode":4,"links":[
				{"link":"https://alldebrid.com/f/e03","filename":"Show.S01E03.mkv","size":2000000000},
				{"link":"https://alldebrid.com/f/e01","filename":"Show.S01E01.mkv","size":2000000000},
				{"link":"https://alldebrid.com/f/e02","filename":"Show.S01E02.mkv","size":2000000000}]}}}`, hash)
		case r.URL.Path == "/link/unlock":
			fmt.Fprintf(w, `{"status":"success","data":{"link":"%s.mkv"}}`, r.URL.Query().Get("link"))
		default:
			t.Errorf("unexpected request %s", r.URL)
		}
	})
	query := schema.MediaQuery{
		Kind: schema.KindSeries, Titles: []string{"Show"}, ImdbID: "tt0000042",
		Season: schema.IntPtr(1), Episode: schema.IntPtr(2),
	}

	tests := []struct {
		name      string
		fileIndex *int
	}{
		{"no hint", nil},
		{"torrent order hint", schema.IntPtr(1)},
		{"hint past the links", schema.IntPtr(7)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &recorder{}
			out := debrid.NewMachine(rec, 1000, nil).Resolve(context.Background(), c, debrid.Request{
				InfoHash: hash, Query: query, FileIndex: tt.fileIndex,
			})
			if out.Kind != debrid.OutcomeResolved || out.URL != "https://alldebrid.com/f/e02.mkv" {
				t.Fatalf("got %+v, want the S01E02 link", out)
			}
			if len(rec.states) != 1 {
				t.Errorf("recorded %d cache states, want 1", len(rec.states))
			}
			if !reflect.DeepEqual(rec.episodes, []schema.EpisodeFile(nil)) {
				t.Errorf("recorded episode files %+v, want none", rec.episodes)
			}
		})
	}
}
