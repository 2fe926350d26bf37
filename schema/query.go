package schema

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

type MediaKind string

const (
	KindMovie  MediaKind = "movie"
	KindSeries MediaKind = "series"
	KindAnime  MediaKind = "anime"
)

// MediaQuery is the canonical request. Titles are ordered by matching priority:
// primary, localized, original.
type MediaQuery struct {
	Kind            MediaKind `json:"kind"`
	Titles          []string  `json:"titles"`
	LocalizedTitle  string    `json:"localized_title,omitempty"`
	Year            int       `json:"year,omitempty"`
	Season          *int      `json:"season,omitempty"`
	Episode         *int      `json:"episode,omitempty"`
	AbsoluteEpisode *int      `json:"absolute_episode,omitempty"`
	ImdbID          string    `json:"imdb_id,omitempty"`
	KitsuID         string    `json:"kitsu_id,omitempty"`
}

// PrimaryTitle returns the highest-priority title, or "" when none is known.
func (q MediaQuery) PrimaryTitle() string {
	if len(q.Titles) == 0 {
		return ""
	}
	return q.Titles[0]
}

// AllTitles returns the known titles in priority order, with the localized title
// appended when it is not already listed. Blank and repeated titles are dropped.
func (q MediaQuery) AllTitles() []string {
	seen := make(map[string]bool, len(q.Titles)+1)
	var out []string
	for _, t := range append(append([]string{}, q.Titles...), q.LocalizedTitle) {
		t = strings.TrimSpace(t)
		key := strings.ToLower(t)
		if t == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, t)
	}
	return out
}

// AbsoluteNumber is the episode number used for anime: the absolute episode when
// known, else the plain episode number.
func (q MediaQuery) AbsoluteNumber() (int, bool) {
	switch {
	case q.AbsoluteEpisode != nil:
		return *q.AbsoluteEpisode, true
	case q.Episode != nil:
		return *q.Episode, true
	}
	return 0, false
}

var shortTitleCut = regexp.MustCompile(`\s*(:|\s[-\x{2013}\x{2014}]\s|[\x{2013}\x{2014}])`)

// ShortTitle cuts a title at its first colon or spaced dash ("Star Wars: A New
// Hope" becomes "Star Wars"). Hyphenated words such as "Spider-Man" are kept.
func ShortTitle(title string) string {
	if loc := shortTitleCut.FindStringIndex(title); loc != nil && loc[0] > 0 {
		return strings.TrimSpace(title[:loc[0]])
	}
	return strings.TrimSpace(title)
}

// IsEpisodic reports whether the query targets a season/episode of a non-anime series.
func (q MediaQuery) IsEpisodic() bool {
	return q.Kind == KindSeries && q.Season != nil && q.Episode != nil
}

// ExternalID returns the identifier used to key stored records.
func (q MediaQuery) ExternalID() string {
	if q.ImdbID != "" {
		return q.ImdbID
	}
	if q.KitsuID != "" {
		return "kitsu:" + q.KitsuID
	}
	return ""
}

// MediaID is a parsed addon-style identifier such as "tt0903747:5:14" or
// "kitsu:1376:13".
type MediaID struct {
	Kind    MediaKind
	ImdbID  string
	KitsuID string
	Season  *int
	Episode *int
}

// ParseMediaID parses an identifier of the given content type ("movie" or
// "series"). Kitsu identifiers always produce an anime id whose trailing number is
// the absolute episode.
func ParseMediaID(contentType, id string) (MediaID, error) {
	id = strings.TrimSpace(id)
	id = strings.TrimSuffix(id, ".json")
	if id == "" {
		return MediaID{}, fmt.Errorf("empty media id")
	}

	parts := strings.Split(id, ":")
	if parts[0] == "kitsu" {
		if len(parts) < 2 || parts[1] == "" {
			return MediaID{}, fmt.Errorf("invalid kitsu id %q", id)
		}
		m := MediaID{Kind: KindAnime, KitsuID: parts[1]}
		if len(parts) >= 3 {
			ep, err := strconv.Atoi(parts[len(parts)-1])
			if err != nil {
				return MediaID{}, fmt.Errorf("invalid episode in %q: %w", id, err)
			}
			m.Episode = &ep
		}
		return m, nil
	}

	if !strings.HasPrefix(parts[0], "tt") {
		return MediaID{}, fmt.Errorf("unsupported media id %q", id)
	}

	m := MediaID{Kind: KindMovie, ImdbID: parts[0]}
	if contentType == string(KindSeries) || len(parts) == 3 {
		m.Kind = KindSeries
	}
	if len(parts) == 3 {
		season, err := strconv.Atoi(parts[1])
		if err != nil {
			return MediaID{}, fmt.Errorf("invalid season in %q: %w", id, err)
		}
		episode, err := strconv.Atoi(parts[2])
		if err != nil {
			return MediaID{}, fmt.Errorf("invalid episode in %q: %w", id, err)
		}
		m.Season, m.Episode = &season, &episode
	} else if len(parts) != 1 {
		return MediaID{}, fmt.Errorf("malformed media id %q", id)
	}
	return m, nil
}

// String renders the identifier back into its addon form.
func (m MediaID) String() string {
	switch {
	case m.KitsuID != "" && m.Episode != nil:
		return fmt.Sprintf("kitsu:%s:%d", m.KitsuID, *m.Episode)
	case m.KitsuID != "":
		return "kitsu:" + m.KitsuID
	case m.Season != nil && m.Episode != nil:
		return fmt.Sprintf("%s:%d:%d", m.ImdbID, *m.Season, *m.Episode)
	default:
		return m.ImdbID
	}
}
