package matching

import (
	"regexp"
	"strings"
)

var (
	animeEpisodeRegex = regexp.MustCompile(`\b(?:s\d{1,2} ?)?e(\d{1,4})(?:v\d)?\b`)
	animeNumberRegex  = regexp.MustCompile(`\b(\d{1,4})(?:v\d)?\b`)
	// [S2]E01-[E]12, 144-195, 01~12
	animeRangeRegex = regexp.MustCompile(`\b(?:s\d{1,2} ?)?e?(\d{1,4}) ?[-~] ?e?(\d{1,4})\b`)
	digitsRegex     = regexp.MustCompile(`\d+`)
	// channel layouts (DDP5.1, AAC2.0), codecs, bit depth, resolutions and
	// season/part markers: none of them is an absolute episode
	animeNoiseRegex = regexp.MustCompile(`\b(?:[a-z]*\d\.\d|[hx]\.?26[45]|\d+ ?bits?|\d{3,4}[pi]|[248]k|` +
		`(?:season|stagione|saison|temporada|part|parte|cour) ?\d{1,2}|s\d{1,2})\b`)
)

// Range limits for anime batches. Ranges starting at 1900 or later are years.
const (
	maxAnimeEpisode   = 9999
	maxAnimeRangeSpan = 300
	minYearLikeStart  = 1900
)

// PlausibleRange reports whether start-end looks like an episode range rather
// than a year range or a stray pair of numbers.
func PlausibleRange(start, end int) bool {
	return start < end &&
		end <= maxAnimeEpisode &&
		end-start <= maxAnimeRangeSpan &&
		start < minYearLikeStart
}

// animeText is releaseText without technical tags, season markers and the
// numbers that belong to the titles, so "Mob Psycho 100" does not read as
// episode 100 nor "DDP5.1" as episode 1.
func animeText(candidate string, titles []string) string {
	text := releaseText(animeNoiseRegex.ReplaceAllString(fold(candidate), " "))
	for _, t := range titles {
		for _, n := range digitsRegex.FindAllString(t, -1) {
			text = strings.ReplaceAll(text, " "+n+" ", " ")
		}
	}
	return text
}

// AnimeEpisode accepts a single absolute-episode token: a standalone number or
// E13, optionally versioned (13v2).
func AnimeEpisode(candidate string, episode int, titles ...string) Verdict {
	text := animeText(candidate, titles)
	for _, re := range []*regexp.Regexp{animeEpisodeRegex, animeNumberRegex} {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			if atoi(m[1]) == episode {
				return AnimeEpisodeMatch
			}
		}
	}
	return NoMatch
}

// AnimeRange accepts a plausible batch range that contains the episode.
func AnimeRange(candidate string, episode int, titles ...string) Verdict {
	for _, m := range animeRangeRegex.FindAllStringSubmatch(animeText(candidate, titles), -1) {
		start, end := atoi(m[1]), atoi(m[2])
		if PlausibleRange(start, end) && episode >= start && episode <= end {
			return AnimeRangeMatch
		}
	}
	return NoMatch
}
