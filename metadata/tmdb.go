package metadata

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/felipemarinho97/torrent-resolver/requester"
	"github.com/felipemarinho97/torrent-resolver/schema"
)

const DefaultTMDBURL = "https://api.themoviedb.org/3"

// TMDB finds the localized and original titles of an IMDb id.
type TMDB struct {
	apiKey   string
	baseURL  string
	language schema.Language
	r        *requester.Requester
}

var _ Localizer = (*TMDB)(nil)

func NewTMDB(apiKey, baseURL string, language schema.Language, r *requester.Requester) (*TMDB, error) {
	apiKey = strings.TrimSpace(apiKey)
	if apiKey == "" {
		return nil, errors.New("tmdb api key required")
	}
	if baseURL == "" {
		baseURL = DefaultTMDBURL
	}
	return &TMDB{apiKey: apiKey, baseURL: strings.TrimRight(baseURL, "/"), language: language, r: r}, nil
}

type findResponse struct {
	MovieResults []struct {
		Title         string `json:"title"`
		OriginalTitle string `json:"original_title"`
	} `json:"movie_results"`
	TVResults []struct {
		Name         string `json:"name"`
		OriginalName string `json:"original_name"`
	} `json:"tv_results"`
}

func (t *TMDB) Localize(ctx context.Context, kind schema.MediaKind, imdbID string) (string, string, error) {
	params := url.Values{}
	params.Set("api_key", t.apiKey)
	params.Set("external_source", "imdb_id")
	params.Set("language", t.language.Locale())

	u := fmt.Sprintf("%s/find/%s?%s", t.baseURL, url.PathEscape(imdbID), params.Encode())
	body, err := t.r.GetDocument(ctx, u, "application/json")
	if err != nil {
		return "", "", fmt.Errorf("tmdb find %s: %w", imdbID, err)
	}

	var resp findResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", "", fmt.Errorf("failed to decode tmdb response: %w", err)
	}

	switch {
	case kind == schema.KindMovie && len(resp.MovieResults) > 0:
		return resp.MovieResults[0].Title, resp.MovieResults[0].OriginalTitle, nil
	case len(resp.TVResults) > 0:
		return resp.TVResults[0].Name, resp.TVResults[0].OriginalName, nil
	case len(resp.MovieResults) > 0:
		return resp.MovieResults[0].Title, resp.MovieResults[0].OriginalTitle, nil
	}
	return "", "", fmt.Errorf("tmdb find %s: %w", imdbID, ErrNotFound)
}
