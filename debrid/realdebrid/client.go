// Package realdebrid is the Real-Debrid debrid provider.
package realdebrid

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/samber/lo"
	"golang.org/x/time/rate"

	"github.com/felipemarinho97/torrent-resolver/debrid"
	"github.com/felipemarinho97/torrent-resolver/schema"
)

const (
	Name           = "realdebrid"
	DefaultBaseURL = "https://api.real-debrid.com/rest/1.0"
	batchLimit     = 40

	listPageSize = 100
	listMaxPages = 20
)

type Client struct {
	token      string
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

var _ debrid.Provider = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

func WithBaseURL(u string) Option {
	return func(c *Client) {
		if u != "" {
			c.baseURL = strings.TrimRight(u, "/")
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

// WithRateLimit paces outbound calls; the API allows about 250 per minute.
func WithRateLimit(limit rate.Limit, burst int) Option {
	return func(c *Client) {
		c.limiter = rate.NewLimiter(limit, burst)
	}
}

func New(token string, opts ...Option) *Client {
	c := &Client{
		token:      token,
		baseURL:    DefaultBaseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		limiter:    rate.NewLimiter(rate.Limit(4), 4),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Name() string                { return Name }
func (c *Client) RequiresFileSelection() bool { return true }
func (c *Client) BatchLimit() int             { return batchLimit }

type apiError struct {
	Error     string `json:"error"`
	ErrorCode int    `json:"error_code"`
}

type addMagnetResponse struct {
	ID  string `json:"id"`
	URI string `json:"uri"`
}

type torrentItem struct {
	ID     string `json:"id"`
	Hash   string `json:"hash"`
	Status string `json:"status"`
}

type torrentFile struct {
	ID       int    `json:"id"`
	Path     string `json:"path"`
	Bytes    int64  `json:"bytes"`
	Selected int    `json:"selected"`
}

type torrentInfo struct {
	ID       string        `json:"id"`
	Hash     string        `json:"hash"`
	Status   string        `json:"status"`
	Progress float64       `json:"progress"`
	Files    []torrentFile `json:"files"`
	Links    []string      `json:"links"`
}

type unrestrictedLink struct {
	Download string `json:"download"`
}

func (c *Client) do(ctx context.Context, method, path string, form url.Values, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return err
	}

	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	if form != nil {
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr apiError
		_ = json.NewDecoder(resp.Body).Decode(&apiErr)
		return mapError(resp.StatusCode, apiErr)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", path, err)
	}
	return nil
}

func mapError(status int, apiErr apiError) error {
	if apiErr.ErrorCode == codeTorrentActive {
		return debrid.ErrJobExists
	}
	pe := &debrid.ProviderError{Provider: Name, Failure: FailureForHTTPStatus(status)}
	if apiErr.ErrorCode != 0 {
		pe.Code = strconv.Itoa(apiErr.ErrorCode)
		pe.Failure = FailureForCode(apiErr.ErrorCode)
	} else {
		pe.Code = strconv.Itoa(status)
	}
	if apiErr.Error != "" {
		pe.Err = errors.New(apiErr.Error)
	}
	return pe
}

// CheckBulkCache reports the instant availability of each hash. Every hash
// asked for is present in the result.
func (c *Client) CheckBulkCache(ctx context.Context, hashes []string) (map[string]bool, error) {
	out := make(map[string]bool, len(hashes))
	if len(hashes) == 0 {
		return out, nil
	}

	var resp map[string]json.RawMessage
	path := "/torrents/instantAvailability/" + strings.Join(lo.Map(hashes, func(h string, _ int) string {
		return url.PathEscape(schema.NormalizeHash(h))
	}), "/")
	if err := c.do(ctx, http.MethodGet, path, nil, &resp); err != nil {
		return nil, err
	}

	for _, h := range hashes {
		h = schema.NormalizeHash(h)
		out[h] = false
		for key, raw := range resp {
			if schema.NormalizeHash(key) != h {
				continue
			}
			// uncached hashes come back as an empty array
			var hosts map[string][]json.RawMessage
			if json.Unmarshal(raw, &hosts) == nil && len(hosts["rd"]) > 0 {
				out[h] = true
			}
		}
	}
	return out, nil
}

func (c *Client) FindOrCreateJob(ctx context.Context, magnet string) (string, error) {
	var resp addMagnetResponse
	if err := c.do(ctx, http.MethodPost, "/torrents/addMagnet", url.Values{"magnet": {magnet}}, &resp); err != nil {
		return "", err
	}
	if resp.ID == "" {
		return "", &debrid.ProviderError{Provider: Name, Failure: debrid.FailureGeneric, Err: errors.New("empty torrent id")}
	}
	return resp.ID, nil
}

// ListJobs walks the torrent list page by page until a short page, newest
// first, up to listMaxPages pages.
func (c *Client) ListJobs(ctx context.Context) ([]debrid.Job, error) {
	var jobs []debrid.Job
	for page := 1; page <= listMaxPages; page++ {
		var items []torrentItem
		path := fmt.Sprintf("/torrents?limit=%d&page=%d", listPageSize, page)
		if err := c.do(ctx, http.MethodGet, path, nil, &items); err != nil {
			return nil, err
		}
		jobs = append(jobs, lo.Map(items, func(it torrentItem, _ int) debrid.Job {
			status, _ := MapStatus(it.Status)
			return debrid.Job{ID: it.ID, InfoHash: schema.NormalizeHash(it.Hash), Status: status}
		})...)
		if len(items) < listPageSize {
			break
		}
	}
	return jobs, nil
}

// SelectFiles selects files by torrent position. The API numbers files from 1.
func (c *Client) SelectFiles(ctx context.Context, jobID string, fileIndexes []int) error {
	ids := lo.Map(fileIndexes, func(i int, _ int) string { return strconv.Itoa(i + 1) })
	form := url.Values{"files": {strings.Join(ids, ",")}}
	return c.do(ctx, http.MethodPost, "/torrents/selectFiles/"+url.PathEscape(jobID), form, nil)
}

func (c *Client) GetJobInfo(ctx context.Context, jobID string) (debrid.JobInfo, error) {
	var info torrentInfo
	if err := c.do(ctx, http.MethodGet, "/torrents/info/"+url.PathEscape(jobID), nil, &info); err != nil {
		return debrid.JobInfo{}, err
	}

	status, failure := MapStatus(info.Status)
	files := lo.Map(info.Files, func(f torrentFile, _ int) schema.File {
		return schema.File{
			Index:    f.ID - 1,
			Path:     strings.TrimPrefix(f.Path, "/"),
			Size:     f.Bytes,
			Selected: f.Selected == 1,
		}
	})
	sort.SliceStable(files, func(i, j int) bool { return files[i].Index < files[j].Index })

	return debrid.JobInfo{
		ID:         info.ID,
		InfoHash:   schema.NormalizeHash(info.Hash),
		Status:     status,
		StatusText: info.Status,
		Failure:    failure,
		Progress:   info.Progress,
		Files:      files,
		Links:      info.Links,
	}, nil
}

func (c *Client) Unrestrict(ctx context.Context, link string) (string, error) {
	var resp unrestrictedLink
	if err := c.do(ctx, http.MethodPost, "/unrestrict/link", url.Values{"link": {link}}, &resp); err != nil {
		return "", err
	}
	if resp.Download == "" {
		return "", &debrid.ProviderError{Provider: Name, Failure: debrid.FailureGeneric, Err: errors.New("empty download link")}
	}
	return resp.Download, nil
}

func (c *Client) DeleteJob(ctx context.Context, jobID string) error {
	return c.do(ctx, http.MethodDelete, "/torrents/delete/"+url.PathEscape(jobID), nil, nil)
}
