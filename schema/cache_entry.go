package schema

import "time"

// CacheEntry records whether a debrid provider had a torrent cached when last checked.
type CacheEntry struct {
	InfoHash  string    `json:"info_hash"`
	Provider  string    `json:"provider"`
	Cached    bool      `json:"cached"`
	CheckedAt time.Time `json:"checked_at"`
}

// Fresh reports whether the entry is still inside the validity window. Stale
// entries must be treated as absent, not as negative.
func (e CacheEntry) Fresh(now time.Time, window time.Duration) bool {
	if e.CheckedAt.IsZero() {
		return false
	}
	return now.Sub(e.CheckedAt) <= window
}

// EpisodeFile maps one episode to a file inside a (pack) torrent.
type EpisodeFile struct {
	InfoHash  string `json:"info_hash"`
	ImdbID    string `json:"imdb_id,omitempty"`
	KitsuID   string `json:"kitsu_id,omitempty"`
	Season    int    `json:"season"`
	Episode   int    `json:"episode"`
	FileIndex int    `json:"file_index"`
	FileName  string `json:"file_name"`
	Size      int64  `json:"size"`
}
