package requester

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/felipemarinho97/torrent-resolver/logging"
)

// ErrChallenge is returned when the solver hands back a page that is still
// behind the anti-bot wall.
var ErrChallenge = errors.New("upstream is under attack mode")

// FlareSolverr fetches pages through a FlareSolverr instance. It is used by the
// Requester when an upstream answers with a Cloudflare challenge.
type FlareSolverr struct {
	url        string
	maxTimeout time.Duration
	httpClient *http.Client

	mu      sync.Mutex
	session string
}

func NewFlareSolverr(url string, maxTimeout time.Duration) *FlareSolverr {
	return &FlareSolverr{
		url:        strings.TrimRight(url, "/"),
		maxTimeout: maxTimeout,
		httpClient: &http.Client{Timeout: maxTimeout + 10*time.Second},
	}
}

type solverResponse struct {
	Status   string   `json:"status"`
	Message  string   `json:"message"`
	Session  string   `json:"session"`
	Sessions []string `json:"sessions"`
	Solution struct {
		URL      string `json:"url"`
		Status   int    `json:"status"`
		Response string `json:"response"`
	} `json:"solution"`
}

func (f *FlareSolverr) command(ctx context.Context, body map[string]any) (*solverResponse, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, f.url+"/v1", bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("flaresolverr %s: %w", body["cmd"], err)
	}
	defer resp.Body.Close()

	var out solverResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("flaresolverr %s: decode: %w", body["cmd"], err)
	}
	if out.Status != "" && out.Status != "ok" {
		return nil, fmt.Errorf("flaresolverr %s: %s", body["cmd"], out.Message)
	}
	return &out, nil
}

// retrieveSession reuses the first open browser session, creating one if none
// exists. Failures fall back to sessionless requests.
func (f *FlareSolverr) retrieveSession(ctx context.Context) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.session != "" {
		return f.session
	}

	list, err := f.command(ctx, map[string]any{"cmd": "sessions.list"})
	if err == nil && len(list.Sessions) > 0 {
		f.session = list.Sessions[0]
		return f.session
	}

	logging.DebugCtx(ctx).Msg("No flaresolverr sessions found, creating a new one")
	created, err := f.command(ctx, map[string]any{"cmd": "sessions.create"})
	if err != nil {
		logging.WarnCtx(ctx).Err(err).Msg("Failed to create flaresolverr session")
		return ""
	}
	f.session = created.Session
	return f.session
}

// Get returns the rendered body of url.
func (f *FlareSolverr) Get(ctx context.Context, url string) ([]byte, error) {
	cmd := map[string]any{
		"cmd":        "request.get",
		"url":        url,
		"maxTimeout": f.maxTimeout.Milliseconds(),
	}
	if session := f.retrieveSession(ctx); session != "" {
		cmd["session"] = session
	}

	out, err := f.command(ctx, cmd)
	if err != nil {
		return nil, err
	}
	if out.Solution.Status != 0 && (out.Solution.Status < 200 || out.Solution.Status > 299) {
		return nil, &StatusError{URL: url, StatusCode: out.Solution.Status}
	}
	if strings.Contains(out.Solution.Response, "Under attack") {
		return nil, ErrChallenge
	}
	return []byte(out.Solution.Response), nil
}
