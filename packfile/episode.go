package packfile

import (
	"strconv"

	"github.com/felipemarinho97/torrent-resolver/matching"
	"github.com/felipemarinho97/torrent-resolver/schema"
)

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

func itoa(n int) string {
	return strconv.Itoa(n)
}

// FindEpisode returns the first file whose name carries the season/episode.
func FindEpisode(files []schema.File, season, episode int) (int, bool) {
	for _, f := range files {
		if matching.ExactEpisode(BaseName(f.Path), season, episode).Matched() {
			return f.Index, true
		}
	}
	return 0, false
}

// FindAbsolute returns the first file whose name carries the absolute episode.
func FindAbsolute(files []schema.File, episode int, titles ...string) (int, bool) {
	for _, f := range files {
		if matching.AnimeEpisode(BaseName(f.Path), episode, titles...).Matched() {
			return f.Index, true
		}
	}
	return 0, false
}

// EpisodeRef is a season/episode found in a pack file name.
type EpisodeRef struct {
	Season    int
	Episode   int
	FileIndex int
	FileName  string
	Size      int64
}

// EpisodeMap lists every file whose name carries an explicit season/episode.
func EpisodeMap(files []schema.File) []EpisodeRef {
	var out []EpisodeRef
	for _, f := range files {
		s, e, ok := matching.SeasonEpisode(BaseName(f.Path))
		if !ok {
			continue
		}
		out = append(out, EpisodeRef{Season: s, Episode: e, FileIndex: f.Index, FileName: f.Path, Size: f.Size})
	}
	return out
}
