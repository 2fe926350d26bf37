package store

import (
	"context"

	"github.com/felipemarinho97/torrent-resolver/schema"
)

// Store is the persistent side of the resolution cache: torrents found by past
// searches, the episode files inside them and per-provider cache states.
type Store interface {
	// FindByID returns the torrents attached to an IMDb or Kitsu id.
	FindByID(ctx context.Context, imdbID, kitsuID string) ([]schema.Candidate, error)
	// FindSeasonTorrents returns torrents of a series recorded for the season, plus
	// those recorded for no particular season (complete series packs).
	FindSeasonTorrents(ctx context.Context, imdbID string, season int) ([]schema.Candidate, error)
	// FindEpisodeFiles returns torrents holding the episode, annotated with the
	// file index of the episode inside each one.
	FindEpisodeFiles(ctx context.Context, ref EpisodeKey) ([]schema.Candidate, error)
	SearchText(ctx context.Context, text string, kind schema.MediaKind, limit int) ([]schema.Candidate, error)

	UpsertTorrents(ctx context.Context, kind schema.MediaKind, cands []schema.Candidate) error
	UpsertEpisodeFiles(ctx context.Context, files []schema.EpisodeFile) error

	CacheStates(ctx context.Context, provider string, hashes []string) (map[string]schema.CacheEntry, error)
	UpsertCacheStates(ctx context.Context, entries []schema.CacheEntry) error

	// RepairIdentifiers fills missing identifiers on the given torrents and returns
	// how many rows changed.
	RepairIdentifiers(ctx context.Context, hashes []string, imdbID, kitsuID string) (int64, error)

	Close() error
}

// EpisodeKey addresses one episode by IMDb id and season/episode, or by Kitsu id
// and absolute episode (season 0).
type EpisodeKey struct {
	ImdbID  string
	KitsuID string
	Season  int
	Episode int
}
