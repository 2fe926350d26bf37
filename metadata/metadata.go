package metadata

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/felipemarinho97/torrent-resolver/logging"
	"github.com/felipemarinho97/torrent-resolver/schema"
)

// ErrNotFound is returned when the metadata service does not know the id.
var ErrNotFound = errors.New("metadata not found")

// Resolver turns an addon id into the query the search runs with.
type Resolver interface {
	Resolve(ctx context.Context, id schema.MediaID) (schema.MediaQuery, error)
}

// Localizer looks up the localized and original titles of an IMDb id.
type Localizer interface {
	Localize(ctx context.Context, kind schema.MediaKind, imdbID string) (localized, original string, err error)
}

// Multi dispatches Kitsu ids to the anime resolver and everything else to the
// IMDb resolver, then adds localized titles when a Localizer is set.
type Multi struct {
	IMDb      Resolver
	Kitsu     Resolver
	Localizer Localizer
	Timeout   time.Duration
}

var _ Resolver = (*Multi)(nil)

func (m *Multi) Resolve(ctx context.Context, id schema.MediaID) (schema.MediaQuery, error) {
	if m.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, m.Timeout)
		defer cancel()
	}

	next := m.IMDb
	if id.KitsuID != "" {
		next = m.Kitsu
	}
	if next == nil {
		return schema.MediaQuery{}, fmt.Errorf("no metadata resolver for %s", id)
	}

	q, err := next.Resolve(ctx, id)
	if err != nil {
		return schema.MediaQuery{}, err
	}

	if m.Localizer != nil && q.ImdbID != "" {
		localized, original, err := m.Localizer.Localize(ctx, q.Kind, q.ImdbID)
		if err != nil {
			// titles from the primary resolver are enough to search with
			logging.WarnCtx(ctx).Err(err).Str("imdb_id", q.ImdbID).Msg("Failed to localize titles")
			return q, nil
		}
		q.LocalizedTitle = localized
		if original != "" {
			q.Titles = append(q.Titles, original)
		}
		q.Titles = (schema.MediaQuery{Titles: q.Titles}).AllTitles()
	}
	return q, nil
}

var yearRegex = regexp.MustCompile(`\b(19|20)\d{2}\b`)

// parseYear returns the first year found in s ("2008–2013", "1972-03-24").
func parseYear(s string) int {
	y, _ := strconv.Atoi(yearRegex.FindString(s))
	return y
}
