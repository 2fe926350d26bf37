package schema

import "strings"

// MinHashLength is the shortest content hash accepted as an identity.
const MinHashLength = 32

type Candidate struct {
	Title      string        `json:"title"`
	Size       int64         `json:"size"`
	Seeders    int           `json:"seeders"`
	Leechers   int           `json:"leechers"`
	Quality    string        `json:"quality"`
	InfoHash   string        `json:"info_hash"`
	MagnetLink string        `json:"magnet_link"`
	Source     string        `json:"source"`
	Categories []string      `json:"categories,omitempty"`
	Files      []File        `json:"files,omitempty"`
	FileIndex  *int          `json:"file_index,omitempty"`
	Language   LanguageClass `json:"language"`
	ImdbID     string        `json:"imdb_id,omitempty"`
	KitsuID    string        `json:"kitsu_id,omitempty"`
	Season     *int          `json:"season,omitempty"`
}

type File struct {
	Index    int    `json:"index"`
	Path     string `json:"path"`
	Size     int64  `json:"size"`
	Selected bool   `json:"selected"`
}

// NormalizeHash returns the canonical (lower-case, trimmed) form of a content hash.
func NormalizeHash(hash string) string {
	return strings.ToLower(strings.TrimSpace(hash))
}

// Usable reports whether the candidate carries a content hash long enough to be
// used as its identity.
func (c Candidate) Usable() bool {
	return len(NormalizeHash(c.InfoHash)) >= MinHashLength
}

// UsableOnly drops unusable candidates and normalizes the hash and quality of the
// remaining ones. The input slice is not modified.
func UsableOnly(cands []Candidate) []Candidate {
	out := make([]Candidate, 0, len(cands))
	for _, c := range cands {
		if !c.Usable() {
			continue
		}
		c.InfoHash = NormalizeHash(c.InfoHash)
		if c.Quality == "" {
			c.Quality = DetectQuality(c.Title)
		}
		out = append(out, c)
	}
	return out
}

// SelectedFile returns the annotated file index, if any.
func (c Candidate) SelectedFile() (int, bool) {
	if c.FileIndex == nil {
		return 0, false
	}
	return *c.FileIndex, true
}

// IntPtr is a small helper for optional numeric fields.
func IntPtr(v int) *int {
	return &v
}
