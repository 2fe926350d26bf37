package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/felipemarinho97/torrent-resolver/magnet"
	"github.com/felipemarinho97/torrent-resolver/requester"
	"github.com/felipemarinho97/torrent-resolver/schema"
	"github.com/felipemarinho97/torrent-resolver/utils"
)

// Indexer queries one indexer of a torrent-indexer instance
// (GET /indexers/{name}?q=...).
type Indexer struct {
	indexer string
	baseURL string
	r       *requester.Requester
}

func NewIndexer(baseURL, indexer string, r *requester.Requester) *Indexer {
	return &Indexer{indexer: indexer, baseURL: strings.TrimRight(baseURL, "/"), r: r}
}

func (i *Indexer) Name() string {
	return "indexer:" + i.indexer
}

type indexerResponse struct {
	Results []indexedTorrent `json:"results"`
	Count   int              `json:"count"`
}

type indexedTorrent struct {
	Title      string   `json:"title"`
	Year       string   `json:"year"`
	IMDB       string   `json:"imdb"`
	Audio      []string `json:"audio"`
	MagnetLink string   `json:"magnet_link"`
	InfoHash   string   `json:"info_hash"`
	Size       string   `json:"size"`
	Files      []struct {
		Path string `json:"path"`
		Size string `json:"size"`
	} `json:"files"`
	LeechCount int `json:"leech_count"`
	SeedCount  int `json:"seed_count"`
}

func (i *Indexer) Search(ctx context.Context, query string, _ schema.MediaKind) ([]schema.Candidate, error) {
	u := fmt.Sprintf("%s/indexers/%s?q=%s", i.baseURL, url.PathEscape(i.indexer), url.QueryEscape(query))
	body, err := i.r.GetDocument(ctx, u, "application/json")
	if err != nil {
		return nil, err
	}

	var resp indexerResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode indexer response: %w", err)
	}

	cands := make([]schema.Candidate, 0, len(resp.Results))
	for _, it := range resp.Results {
		cands = append(cands, i.toCandidate(it))
	}
	return cands, nil
}

func (i *Indexer) toCandidate(it indexedTorrent) schema.Candidate {
	c := schema.Candidate{
		Title:      it.Title,
		Size:       utils.ParseSize(it.Size),
		Seeders:    it.SeedCount,
		Leechers:   it.LeechCount,
		InfoHash:   it.InfoHash,
		MagnetLink: it.MagnetLink,
		Source:     i.Name(),
		Categories: it.Audio,
	}
	if strings.HasPrefix(it.IMDB, "tt") {
		c.ImdbID = it.IMDB
	} else if idx := strings.Index(it.IMDB, "/title/"); idx >= 0 {
		c.ImdbID = strings.Trim(strings.SplitN(it.IMDB[idx+len("/title/"):], "/", 2)[0], " ")
	}
	if c.InfoHash == "" && c.MagnetLink != "" {
		if m, err := magnet.Parse(c.MagnetLink); err == nil {
			c.InfoHash = m.InfoHash
		}
	}
	for idx, f := range it.Files {
		c.Files = append(c.Files, schema.File{Index: idx, Path: f.Path, Size: utils.ParseSize(f.Size)})
	}
	return c
}
