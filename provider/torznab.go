package provider

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/felipemarinho97/torrent-resolver/magnet"
	"github.com/felipemarinho97/torrent-resolver/requester"
	"github.com/felipemarinho97/torrent-resolver/schema"
)

var torznabCategories = map[schema.MediaKind]string{
	schema.KindMovie:  "2000",
	schema.KindSeries: "5000",
	schema.KindAnime:  "5070",
}

// Torznab queries a Jackett/Prowlarr compatible Torznab endpoint.
type Torznab struct {
	name    string
	baseURL string
	apiKey  string
	r       *requester.Requester
}

func NewTorznab(name, baseURL, apiKey string, r *requester.Requester) *Torznab {
	if name == "" {
		name = "torznab"
	}
	return &Torznab{name: name, baseURL: strings.TrimRight(baseURL, "/"), apiKey: apiKey, r: r}
}

func (t *Torznab) Name() string {
	return t.name
}

type torznabFeed struct {
	Channel struct {
		Items []torznabItem `xml:"item"`
	} `xml:"channel"`
}

type torznabItem struct {
	Title     string `xml:"title"`
	Link      string `xml:"link"`
	Size      int64  `xml:"size"`
	Enclosure struct {
		URL    string `xml:"url,attr"`
		Length int64  `xml:"length,attr"`
	} `xml:"enclosure"`
	Categories []string      `xml:"category"`
	Attrs      []torznabAttr `xml:"attr"`
}

type torznabAttr struct {
	Name  string `xml:"name,attr"`
	Value string `xml:"value,attr"`
}

func (t *Torznab) Search(ctx context.Context, query string, kind schema.MediaKind) ([]schema.Candidate, error) {
	params := url.Values{}
	params.Set("t", "search")
	params.Set("q", query)
	if t.apiKey != "" {
		params.Set("apikey", t.apiKey)
	}
	if cat, ok := torznabCategories[kind]; ok {
		params.Set("cat", cat)
	}

	body, err := t.r.GetDocument(ctx, t.baseURL+"/api?"+params.Encode(), "application/rss+xml, application/xml")
	if err != nil {
		return nil, err
	}

	var feed torznabFeed
	if err := xml.Unmarshal(body, &feed); err != nil {
		return nil, fmt.Errorf("failed to decode torznab feed: %w", err)
	}

	cands := make([]schema.Candidate, 0, len(feed.Channel.Items))
	for _, item := range feed.Channel.Items {
		cands = append(cands, t.toCandidate(item))
	}
	return cands, nil
}

func (t *Torznab) toCandidate(item torznabItem) schema.Candidate {
	c := schema.Candidate{
		Title:      item.Title,
		Size:       item.Size,
		Source:     t.name,
		Categories: item.Categories,
	}
	if c.Size == 0 {
		c.Size = item.Enclosure.Length
	}

	for _, a := range item.Attrs {
		switch strings.ToLower(a.Name) {
		case "seeders":
			c.Seeders, _ = strconv.Atoi(a.Value)
		case "peers":
			// peers includes seeders
			if peers, err := strconv.Atoi(a.Value); err == nil {
				c.Leechers = peers
			}
		case "infohash":
			c.InfoHash = a.Value
		case "magneturl":
			c.MagnetLink = a.Value
		case "imdb", "imdbid":
			if a.Value != "" && a.Value != "0" {
				c.ImdbID = "tt" + strings.TrimPrefix(a.Value, "tt")
			}
		case "size":
			if c.Size == 0 {
				c.Size, _ = strconv.ParseInt(a.Value, 10, 64)
			}
		}
	}
	if c.Leechers >= c.Seeders {
		c.Leechers -= c.Seeders
	}

	if c.MagnetLink == "" {
		for _, link := range []string{item.Link, item.Enclosure.URL} {
			if strings.HasPrefix(link, "magnet:") {
				c.MagnetLink = link
				break
			}
		}
	}
	if c.InfoHash == "" && c.MagnetLink != "" {
		if m, err := magnet.Parse(c.MagnetLink); err == nil {
			c.InfoHash = m.InfoHash
		}
	}
	return c
}
