package metadata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/felipemarinho97/torrent-resolver/requester"
	"github.com/felipemarinho97/torrent-resolver/schema"
)

const DefaultCinemetaURL = "https://v3-cinemeta.strem.io"

// Cinemeta resolves IMDb ids through the Cinemeta addon.
type Cinemeta struct {
	baseURL string
	r       *requester.Requester
}

var _ Resolver = (*Cinemeta)(nil)

func NewCinemeta(baseURL string, r *requester.Requester) *Cinemeta {
	if baseURL == "" {
		baseURL = DefaultCinemetaURL
	}
	return &Cinemeta{baseURL: strings.TrimRight(baseURL, "/"), r: r}
}

type cinemetaResponse struct {
	Meta *struct {
		Name        string          `json:"name"`
		Year        json.RawMessage `json:"year"`
		ReleaseInfo string          `json:"releaseInfo"`
	} `json:"meta"`
}

func (c *Cinemeta) Resolve(ctx context.Context, id schema.MediaID) (schema.MediaQuery, error) {
	if id.ImdbID == "" {
		return schema.MediaQuery{}, fmt.Errorf("cinemeta: %s is not an imdb id", id)
	}

	kind := schema.KindMovie
	if id.Kind == schema.KindSeries {
		kind = schema.KindSeries
	}

	u := fmt.Sprintf("%s/meta/%s/%s.json", c.baseURL, kind, url.PathEscape(id.ImdbID))
	body, err := c.r.GetDocument(ctx, u, "application/json")
	if err != nil {
		var status *requester.StatusError
		if errors.As(err, &status) && status.StatusCode == http.StatusNotFound {
			return schema.MediaQuery{}, fmt.Errorf("cinemeta %s: %w", id.ImdbID, ErrNotFound)
		}
		return schema.MediaQuery{}, fmt.Errorf("cinemeta %s: %w", id.ImdbID, err)
	}

	var resp cinemetaResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return schema.MediaQuery{}, fmt.Errorf("failed to decode cinemeta response: %w", err)
	}
	if resp.Meta == nil || strings.TrimSpace(resp.Meta.Name) == "" {
		return schema.MediaQuery{}, fmt.Errorf("cinemeta %s: %w", id.ImdbID, ErrNotFound)
	}

	// year is a number for some titles and a string for others
	year := parseYear(strings.Trim(string(resp.Meta.Year), `"`))
	if year == 0 {
		year = parseYear(resp.Meta.ReleaseInfo)
	}

	return schema.MediaQuery{
		Kind:    kind,
		Titles:  []string{strings.TrimSpace(resp.Meta.Name)},
		Year:    year,
		Season:  id.Season,
		Episode: id.Episode,
		ImdbID:  id.ImdbID,
	}, nil
}
