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

const DefaultKitsuURL = "https://kitsu.io/api/edge"

// Kitsu resolves anime ids through the Kitsu API. Episodes of Kitsu ids are
// absolute.
type Kitsu struct {
	baseURL string
	r       *requester.Requester
}

var _ Resolver = (*Kitsu)(nil)

func NewKitsu(baseURL string, r *requester.Requester) *Kitsu {
	if baseURL == "" {
		baseURL = DefaultKitsuURL
	}
	return &Kitsu{baseURL: strings.TrimRight(baseURL, "/"), r: r}
}

type kitsuResponse struct {
	Data *struct {
		Attributes struct {
			CanonicalTitle    string            `json:"canonicalTitle"`
			Titles            map[string]string `json:"titles"`
			AbbreviatedTitles []string          `json:"abbreviatedTitles"`
			StartDate         string            `json:"startDate"`
			Subtype           string            `json:"subtype"`
		} `json:"attributes"`
	} `json:"data"`
}

// title keys tried after the canonical title, most useful first
var kitsuTitleKeys = []string{"en", "en_jp", "en_us"}

func (k *Kitsu) Resolve(ctx context.Context, id schema.MediaID) (schema.MediaQuery, error) {
	if id.KitsuID == "" {
		return schema.MediaQuery{}, fmt.Errorf("kitsu: %s is not a kitsu id", id)
	}

	u := fmt.Sprintf("%s/anime/%s", k.baseURL, url.PathEscape(id.KitsuID))
	body, err := k.r.GetDocument(ctx, u, "application/vnd.api+json")
	if err != nil {
		var status *requester.StatusError
		if errors.As(err, &status) && status.StatusCode == http.StatusNotFound {
			return schema.MediaQuery{}, fmt.Errorf("kitsu %s: %w", id.KitsuID, ErrNotFound)
		}
		return schema.MediaQuery{}, fmt.Errorf("kitsu %s: %w", id.KitsuID, err)
	}

	var resp kitsuResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return schema.MediaQuery{}, fmt.Errorf("failed to decode kitsu response: %w", err)
	}
	if resp.Data == nil {
		return schema.MediaQuery{}, fmt.Errorf("kitsu %s: %w", id.KitsuID, ErrNotFound)
	}
	attrs := resp.Data.Attributes

	titles := []string{attrs.CanonicalTitle}
	for _, key := range kitsuTitleKeys {
		titles = append(titles, attrs.Titles[key])
	}
	titles = append(titles, attrs.AbbreviatedTitles...)

	q := schema.MediaQuery{
		Kind:    schema.KindAnime,
		Titles:  titles,
		Year:    parseYear(attrs.StartDate),
		KitsuID: id.KitsuID,
	}
	q.Titles = q.AllTitles()
	if len(q.Titles) == 0 {
		return schema.MediaQuery{}, fmt.Errorf("kitsu %s: %w", id.KitsuID, ErrNotFound)
	}

	if id.Episode != nil {
		q.Episode = id.Episode
		q.AbsoluteEpisode = id.Episode
	} else if strings.EqualFold(attrs.Subtype, "movie") {
		q.Kind = schema.KindMovie
	}
	return q, nil
}
