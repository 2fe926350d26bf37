package requester

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/felipemarinho97/torrent-resolver/cache"
	"github.com/felipemarinho97/torrent-resolver/logging"
)

const (
	cacheKey  = "shortLivedCache"
	userAgent = "torrent-resolver/1.0 (+https://github.com/felipemarinho97/torrent-resolver)"
)

// StatusError is returned for non-2xx responses.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("GET %s: unexpected status %d", e.URL, e.StatusCode)
}

// Requester fetches upstream documents and keeps successful bodies in a
// short-lived cache so repeated plans for the same title do not hit the
// upstream twice.
type Requester struct {
	c                         cache.Cache
	httpClient                *http.Client
	shortLivedCacheExpiration time.Duration
	solver                    *FlareSolverr
}

func NewRequester(c cache.Cache) *Requester {
	if c == nil {
		c = cache.Nop{}
	}
	httpClient := &http.Client{
		Timeout: 30 * time.Second,
		Transport: &http.Transport{
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
			ForceAttemptHTTP2:   true,
		},
	}

	return &Requester{httpClient: httpClient, c: c, shortLivedCacheExpiration: 30 * time.Minute}
}

func (i *Requester) SetShortLivedCacheExpiration(expiration time.Duration) {
	i.shortLivedCacheExpiration = expiration
}

// WithSolver routes challenged requests (403 and 503) through FlareSolverr.
func (i *Requester) WithSolver(f *FlareSolverr) *Requester {
	i.solver = f
	return i
}

func isChallenge(status int) bool {
	return status == http.StatusForbidden || status == http.StatusServiceUnavailable
}

func setHeaders(req *http.Request, accept string) {
	req.Header.Set("User-Agent", userAgent)
	if accept == "" {
		accept = "application/json, application/xml;q=0.9, */*;q=0.8"
	}
	req.Header.Set("Accept", accept)
}

// GetDocument returns the body of url, served from the short-lived cache when possible.
func (i *Requester) GetDocument(ctx context.Context, url string, accept ...string) ([]byte, error) {
	key := fmt.Sprintf("%s:%s", cacheKey, url)
	if body, err := i.c.Get(ctx, key); err == nil && len(body) > 0 {
		logging.DebugCtx(ctx).Str("url", url).Msg("Returning from short-lived cache")
		return body, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request for url %s: %w", url, err)
	}
	acc := ""
	if len(accept) > 0 {
		acc = accept[0]
	}
	setHeaders(req, acc)

	resp, err := i.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to do request for url %s: %w", url, err)
	}
	defer resp.Body.Close()

	var body []byte
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode <= 299:
		var buf bytes.Buffer
		if resp.ContentLength > 0 {
			buf.Grow(int(resp.ContentLength))
		} else {
			buf.Grow(32 * 1024)
		}
		if _, err := io.Copy(&buf, resp.Body); err != nil {
			return nil, fmt.Errorf("failed to read response body: %w", err)
		}
		body = buf.Bytes()
	case i.solver != nil && isChallenge(resp.StatusCode):
		_, _ = io.Copy(io.Discard, resp.Body)
		logging.DebugCtx(ctx).Str("url", url).Int("status", resp.StatusCode).Msg("Retrying through flaresolverr")
		body, err = i.solver.Get(ctx, url)
		if err != nil {
			return nil, err
		}
	default:
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, &StatusError{URL: url, StatusCode: resp.StatusCode}
	}

	if len(body) > 0 {
		if err := i.c.SetWithExpiration(ctx, key, body, i.shortLivedCacheExpiration); err != nil {
			logging.ErrorCtx(ctx).Err(err).Str("url", url).Msg("Failed to save response to cache")
		}
	}

	return body, nil
}

func (i *Requester) ExpireDocument(ctx context.Context, url string) error {
	key := fmt.Sprintf("%s:%s", cacheKey, url)
	return i.c.Del(ctx, key)
}
