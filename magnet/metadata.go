package magnet

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/felipemarinho97/torrent-resolver/cache"
	"github.com/felipemarinho97/torrent-resolver/logging"
	"github.com/felipemarinho97/torrent-resolver/schema"
)

type MetadataRequest struct {
	MagnetURI string `json:"magnet_uri"`
}

type TorrentFile struct {
	Path   string `json:"path"`
	Size   int64  `json:"size"`
	Offset int64  `json:"offset"`
}

type MetadataResponse struct {
	InfoHash string        `json:"info_hash"`
	Name     string        `json:"name"`
	Size     int64         `json:"size"`
	Files    []TorrentFile `json:"files"`
	Trackers []string      `json:"trackers"`
}

// MetadataClient asks a magnet-metadata service for the file list of a torrent.
type MetadataClient struct {
	baseURL    string
	httpClient *http.Client
	c          cache.Cache
}

func NewClient(baseURL string, timeout time.Duration, c cache.Cache) *MetadataClient {
	if c == nil {
		c = cache.Nop{}
	}
	return &MetadataClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:      100,
				IdleConnTimeout:   30 * time.Second,
				ForceAttemptHTTP2: true,
			},
		},
		c: c,
	}
}

func (c *MetadataClient) IsEnabled() bool {
	return c != nil && c.baseURL != ""
}

func (c *MetadataClient) FetchMetadata(ctx context.Context, magnetURI string) (*MetadataResponse, error) {
	if !c.IsEnabled() {
		return nil, fmt.Errorf("magnet metadata API is not enabled")
	}
	m, err := Parse(magnetURI)
	if err != nil {
		return nil, err
	}
	cacheKey := fmt.Sprintf("metadata:%s", m.InfoHash)
	if cachedData, err := c.c.Get(ctx, cacheKey); err == nil && cachedData != nil {
		var cachedMetadata MetadataResponse
		if err := json.Unmarshal(cachedData, &cachedMetadata); err == nil {
			return &cachedMetadata, nil
		}
	}

	body, err := json.Marshal(MetadataRequest{MagnetURI: magnetURI})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/metadata", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	logging.DebugCtx(ctx).Str("info_hash", m.InfoHash).Msg("Fetching torrent metadata")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send POST request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API responded with status: %s", resp.Status)
	}

	var metadata MetadataResponse
	if err := json.NewDecoder(resp.Body).Decode(&metadata); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}

	if cacheData, err := json.Marshal(metadata); err == nil {
		_ = c.c.SetWithExpiration(ctx, cacheKey, cacheData, 7*24*time.Hour)
	}

	return &metadata, nil
}

// Files returns the torrent's file list as candidate files, indexed in torrent order.
func (c *MetadataClient) Files(ctx context.Context, magnetURI string) ([]schema.File, error) {
	md, err := c.FetchMetadata(ctx, magnetURI)
	if err != nil {
		return nil, err
	}
	files := make([]schema.File, 0, len(md.Files))
	for i, f := range md.Files {
		files = append(files, schema.File{Index: i, Path: f.Path, Size: f.Size})
	}
	return files, nil
}
