// Package packfile picks files inside multi-file torrents.
package packfile

import (
	"path"
	"regexp"
	"strings"

	"github.com/samber/lo"

	"github.com/felipemarinho97/torrent-resolver/schema"
)

var videoExtensions = map[string]bool{
	".mkv": true, ".mp4": true, ".avi": true, ".m4v": true, ".mov": true,
	".wmv": true, ".ts": true, ".m2ts": true, ".webm": true, ".mpg": true,
	".mpeg": true, ".flv": true, ".divx": true, ".ogm": true,
}

var extraRegex = regexp.MustCompile(`(?i)\b(sample|trailer|extras?|featurettes?|behind[ ._-]the[ ._-]scenes|bonus|deleted[ ._-]scenes?|promo|teaser|interviews?)\b`)

// BaseName strips directories and the extension from a torrent file path.
func BaseName(p string) string {
	p = path.Base(strings.ReplaceAll(p, "\\", "/"))
	return strings.TrimSuffix(p, path.Ext(p))
}

func IsVideo(p string) bool {
	return videoExtensions[strings.ToLower(path.Ext(p))]
}

// IsExtra reports whether the file looks like a sample, trailer or bonus feature.
func IsExtra(p string) bool {
	return extraRegex.MatchString(strings.ReplaceAll(p, "\\", "/"))
}

// Plausible keeps the video files that can be the feature: extras only survive
// when they are bigger than sizeFloor.
func Plausible(files []schema.File, sizeFloor int64) []schema.File {
	return lo.Filter(files, func(f schema.File, _ int) bool {
		return IsVideo(f.Path) && (!IsExtra(f.Path) || f.Size > sizeFloor)
	})
}

// Largest returns the index of the biggest file; the first one wins ties.
func Largest(files []schema.File) (int, bool) {
	if len(files) == 0 {
		return 0, false
	}
	best := files[0]
	for _, f := range files[1:] {
		if f.Size > best.Size {
			best = f
		}
	}
	return best.Index, true
}
