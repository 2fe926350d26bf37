// Package alldebrid is the AllDebrid debrid provider. Magnets are processed
// whole, so file selection is never needed.
package alldebrid

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/samber/lo"
	"golang.org/x/time/rate"

	"github.com/felipemarinho97/torrent-resolver/debrid"
	"github.com/felipemarinho97/torrent-resolver/schema"
)

const (
	Name           = "alldebrid"
	DefaultBaseURL = "https://api.alldebrid.com/v4"
	DefaultAgent   = "torrent-resolver"
	batchLimit     = 50
)

type Client struct {
	apiKey     string
	agent      string
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

var _ debrid.Provider = (*Client)(nil)

type Option func(*Client)

func WithBaseURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.baseURL = strings.TrimRight(u, "/")
		}
	}
}

func WithAgent(agent string) Option {
	return func(c *Client) {
		if agent != "" {
			c.agent = agent
		}
	}
}

func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

func WithRateLimit(limit rate.Limit, burst int) Option {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(limit, burst)
	}
}

func New(apiKey string, opts ...Option) *Client {
	c := &Client{
		apiKey:     apiKey,
		agent:      DefaultAgent,
		baseURL:    DefaultBaseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		limiter:    rate.NewLimiter(rate.Limit(10), 10),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Name() string                { return Name }
func (c *Client) RequiresFileSelection() bool { return false }
func (c *Client) BatchLimit() int             { return batchLimit }

// LinkIndexed is true: magnet status lists links, not torrent files, so file
// indexes are link positions.
func (c *Client) LinkIndexed() bool { return true }

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type envelope struct {
	Status string          `json:"status"`
	Data   json.RawMessage `json:"data"`
	Error  *apiError       `json:"error"`
}

type instantMagnet struct {
	Hash    string `json:"hash"`
	Instant bool   `json:"instant"`
}

type uploadedMagnet struct {
	Hash  string    `json:"hash"`
	ID    int64     `json:"id"`
	Ready bool      `json:"ready"`
	Error *apiError `json:"error"`
}

type magnetLink struct {
	Link     string `json:"link"`
	Filename string `json:"filename"`
	Size     int64  `json:"size"`
}

type magnetStatus struct {
	ID         int64        `json:"id"`
	Hash       string       `json:"hash"`
	Filename   string       `json:"filename"`
	Status     string       `json:"status"`
	StatusCode int          `json:"statusCode"`
	Size       float64      `json:"size"`
	Downloaded float64      `json:"downloaded"`
	Links      []magnetLink `json:"links"`
}

func (c *Client) get(ctx context.Context, path string, params url.Values, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}
	if params == nil {
		params = url.Values{}
	}
	params.Set("agent", c.agent)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	var env envelope
	decodeErr := json.NewDecoder(resp.Body).Decode(&env)
	if env.Status == "error" || resp.StatusCode < 200 || resp.StatusCode > 299 {
		return mapError(resp.StatusCode, env.Error)
	}
	if decodeErr != nil {
		return fmt.Errorf("failed to decode %s response: %w", path, decodeErr)
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("failed to decode %s data: %w", path, err)
	}
	return nil
}

func mapError(status int, apiErr *apiError) error {
	pe := &debrid.ProviderError{Provider: Name, Code: strconv.Itoa(status), Failure: FailureForHTTPStatus(status)}
	if apiErr == nil {
		return pe
	}
	if apiErr.Code != "" && status != http.StatusTooManyRequests {
		pe.Code = apiErr.Code
		pe.Failure = FailureForCode(apiErr.Code)
	}
	if apiErr.Message != "" {
		pe.Err = errors.New(apiErr.Message)
	}
	return pe
}

func (c *Client) CheckBulkCache(ctx context.Context, hashes []string) (map[string]bool, error) {
	out := make(map[string]bool, len(hashes))
	if len(hashes) == 0 {
		return out, nil
	}

	params := url.Values{}
	for _, h := range hashes {
		h = schema.NormalizeHash(h)
		out[h] = false
		params.Add("magnets[]", h)
	}

	var data struct {
		Magnets []instantMagnet `json:"magnets"`
	}
	if err := c.get(ctx, "/magnet/instant", params, &data); err != nil {
		return nil, err
	}
	for _, m := range data.Magnets {
		h := schema.NormalizeHash(m.Hash)
		if _, asked := out[h]; asked {
			out[h] = m.Instant
		}
	}
	return out, nil
}

// FindOrCreateJob uploads the magnet. Uploading a magnet that already has a
// job returns that job.
func (c *Client) FindOrCreateJob(ctx context.Context, magnet string) (string, error) {
	var data struct {
		Magnets []uploadedMagnet `json:"magnets"`
	}
	if err := c.get(ctx, "/magnet/upload", url.Values{"magnets[]": {magnet}}, &data); err != nil {
		return "", err
	}
	if len(data.Magnets) == 0 {
		return "", &debrid.ProviderError{Provider: Name, Failure: debrid.FailureGeneric, Err: errors.New("empty upload response")}
	}
	m := data.Magnets[0]
	if m.Error != nil {
		return "", mapError(http.StatusOK, m.Error)
	}
	return strconv.FormatInt(m.ID, 10), nil
}

func (c *Client) ListJobs(ctx context.Context) ([]debrid.Job, error) {
	var data struct {
		Magnets []magnetStatus `json:"magnets"`
	}
	if err := c.get(ctx, "/magnet/status", nil, &data); err != nil {
		return nil, err
	}
	return lo.Map(data.Magnets, func(m magnetStatus, _ int) debrid.Job {
		status, _ := MapStatus(m.StatusCode)
		return debrid.Job{ID: strconv.FormatInt(m.ID, 10), InfoHash: schema.NormalizeHash(m.Hash), Status: status}
	}), nil
}

func (c *Client) SelectFiles(context.Context, string, []int) error {
	return nil
}

// GetJobInfo reports the magnet. Ready magnets expose one link per file, all
// of them selected.
func (c *Client) GetJobInfo(ctx context.Context, jobID string) (debrid.JobInfo, error) {
	var data struct {
		Magnets magnetStatus `json:"magnets"`
	}
	if err := c.get(ctx, "/magnet/status", url.Values{"id": {jobID}}, &data); err != nil {
		return debrid.JobInfo{}, err
	}

	m := data.Magnets
	status, failure := MapStatus(m.StatusCode)
	var progress float64
	if m.Size > 0 {
		progress = m.Downloaded / m.Size * 100
	}

	return debrid.JobInfo{
		ID:         strconv.FormatInt(m.ID, 10),
		InfoHash:   schema.NormalizeHash(m.Hash),
		Status:     status,
		StatusText: m.Status,
		Failure:    failure,
		Progress:   progress,
		Files: lo.Map(m.Links, func(l magnetLink, i int) schema.File {
			return schema.File{Index: i, Path: l.Filename, Size: l.Size, Selected: true}
		}),
		Links: lo.Map(m.Links, func(l magnetLink, _ int) string { return l.Link }),
	}, nil
}

func (c *Client) Unrestrict(ctx context.Context, link string) (string, error) {
	var data struct {
		Link string `json:"link"`
	}
	if err := c.get(ctx, "/link/unlock", url.Values{"link": {link}}, &data); err != nil {
		return "", err
	}
	if data.Link == "" {
		return "", &debrid.ProviderError{Provider: Name, Failure: debrid.FailureGeneric, Err: errors.New("empty download link")}
	}
	return data.Link, nil
}

func (c *Client) DeleteJob(ctx context.Context, jobID string) error {
	return c.get(ctx, "/magnet/delete", url.Values{"id": {jobID}}, nil)
}
