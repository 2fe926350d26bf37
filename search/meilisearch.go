package meilisearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/felipemarinho97/torrent-resolver/schema"
	"github.com/samber/lo"
)

// SearchIndexer integrates with Meilisearch to index and search candidates.
type SearchIndexer struct {
	Client    *http.Client
	BaseURL   string
	APIKey    string
	IndexName string
}

// document is the indexed form of a candidate, keyed by info hash.
type document struct {
	Hash string           `json:"id"`
	Kind schema.MediaKind `json:"kind"`
	schema.Candidate
}

// NewSearchIndexer creates a new instance of SearchIndexer.
func NewSearchIndexer(baseURL, apiKey, indexName string) *SearchIndexer {
	return &SearchIndexer{
		Client:    &http.Client{Timeout: 10 * time.Second},
		BaseURL:   baseURL,
		APIKey:    apiKey,
		IndexName: indexName,
	}
}

// IsEnabled reports whether an index address is configured.
func (t *SearchIndexer) IsEnabled() bool {
	return t != nil && t.BaseURL != ""
}

func (t *SearchIndexer) post(ctx context.Context, path string, body any) (*http.Response, error) {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	url := fmt.Sprintf("%s/indexes/%s/%s", t.BaseURL, t.IndexName, path)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if t.APIKey != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", t.APIKey))
	}

	resp, err := t.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	return resp, nil
}

// IndexCandidates adds or replaces the candidates in the index. Candidates
// without a usable hash are skipped.
func (t *SearchIndexer) IndexCandidates(ctx context.Context, kind schema.MediaKind, cands []schema.Candidate) error {
	cands = schema.UsableOnly(cands)
	if len(cands) == 0 {
		return nil
	}

	docs := lo.Map(cands, func(c schema.Candidate, _ int) document {
		c.Files = nil
		c.FileIndex = nil
		return document{Hash: c.InfoHash, Kind: kind, Candidate: c}
	})

	resp, err := t.post(ctx, "documents", docs)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	// documents are indexed asynchronously, the task is only enqueued here
	if resp.StatusCode != http.StatusAccepted && resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("indexing failed: %d %s", resp.StatusCode, body)
	}
	return nil
}

// SearchCandidates searches indexed candidates matching query. When kind is set,
// hits of other kinds are dropped.
func (t *SearchIndexer) SearchCandidates(ctx context.Context, query string, kind schema.MediaKind, limit int) ([]schema.Candidate, error) {
	requestBody := map[string]any{
		"q": query,
	}
	if limit > 0 {
		requestBody["limit"] = limit
	}

	resp, err := t.post(ctx, "search", requestBody)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("search failed: %s", body)
	}

	var result struct {
		Hits []document `json:"hits"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to parse search response: %w", err)
	}

	hits := lo.Filter(result.Hits, func(d document, _ int) bool {
		return kind == "" || d.Kind == "" || d.Kind == kind
	})
	return lo.Map(hits, func(d document, _ int) schema.Candidate {
		c := d.Candidate
		if c.InfoHash == "" {
			c.InfoHash = d.Hash
		}
		return c
	}), nil
}
