package matching

import (
	"regexp"
	"strconv"
)

var (
	// s05e14, s05 e14, s5.e14
	seasonEpisodeRegex = regexp.MustCompile(`\bs(\d{1,2}) ?e(\d{1,4})\b`)
	// 5x14
	crossEpisodeRegex = regexp.MustCompile(`\b(\d{1,2})x(\d{2,3})\b`)
	// season 5 episode 14, stagione 5 episodio 14
	wordedEpisodeRegex = regexp.MustCompile(`\b(?:season|stagione|saison|temporada|staffel) ?(\d{1,2}) ?(?:episode|episodio|ep|folge|capitulo) ?(\d{1,4})\b`)
	// 514, 0514
	compactEpisodeRegex = regexp.MustCompile(`\b(\d{3,4})\b`)
	// s06e01-25, s06e01-e25
	episodeRangeRegex = regexp.MustCompile(`\bs(\d{1,2}) ?e(\d{1,4}) ?- ?e?(\d{1,4})\b`)
	// stagione 5, season 05
	wordedSeasonRegex = regexp.MustCompile(`\b(?:season|stagione|saison|temporada|staffel|series|serie) ?(\d{1,2})\b`)
	// s05 not followed by another digit
	compactSeasonRegex = regexp.MustCompile(`\bs(\d{1,2})\b`)
	completeRegex      = regexp.MustCompile(`\b(?:complete|completa|completo|completi|full|integrale|intera)\b`)
	// complete 5, 5 completa
	completeSeasonRegex = regexp.MustCompile(`\b(?:complete|completa|completo|full|integrale) (\d{1,2})\b|\b(\d{1,2}) (?:complete|completa|completo|full|integrale)\b`)
	wholeSeriesRegex    = regexp.MustCompile(`\b(?:series|serie|collection|collezione)\b`)
	// s01-s10, s01-10
	seasonRangeRegex = regexp.MustCompile(`\bs(\d{1,2}) ?- ?s?(\d{1,2})\b`)
	// season 1-5, stagioni 1 a 5, seasons 1 to 5
	wordedSeasonRangeRegex = regexp.MustCompile(`\b(?:seasons?|stagion[ei]|saisons?|temporadas?|staffeln?) ?(\d{1,2}) ?(?:-|a|al|to|through|e|and|bis) ?(\d{1,2})\b`)
)

// compact digit runs that are never season/episode numbers
var compactExclusions = map[int]bool{
	264: true, 265: true, 480: true, 576: true, 720: true, 1080: true, 2160: true,
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}

// ExactEpisode accepts an explicit token for season/episode: S05E14, 5x14,
// "Season 5 Episode 14" or a compact run such as 514 or 0514.
func ExactEpisode(candidate string, season, episode int) Verdict {
	text := releaseText(candidate)
	for _, re := range []*regexp.Regexp{seasonEpisodeRegex, crossEpisodeRegex, wordedEpisodeRegex} {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			if atoi(m[1]) == season && atoi(m[2]) == episode {
				return ExactEpisodeMatch
			}
		}
	}

	if season < 100 && episode < 100 {
		want := season*100 + episode
		for _, m := range compactEpisodeRegex.FindAllStringSubmatch(text, -1) {
			n := atoi(m[1])
			if n == want && !isYear(n) && !compactExclusions[n] {
				return ExactEpisodeMatch
			}
		}
	}
	return NoMatch
}

func isYear(n int) bool {
	return n >= 1900 && n <= 2099
}

// EpisodeRange accepts an in-title range such as S06E01-25 containing the
// episode, both ends inclusive.
func EpisodeRange(candidate string, season, episode int) Verdict {
	for _, m := range episodeRangeRegex.FindAllStringSubmatch(releaseText(candidate), -1) {
		start, end := atoi(m[2]), atoi(m[3])
		if atoi(m[1]) == season && start <= end && episode >= start && episode <= end {
			return EpisodeRangeMatch
		}
	}
	return NoMatch
}

// hasEpisodeToken reports whether the title names a specific episode.
func hasEpisodeToken(text string) bool {
	return seasonEpisodeRegex.MatchString(text) ||
		crossEpisodeRegex.MatchString(text) ||
		wordedEpisodeRegex.MatchString(text)
}

// SeasonPack accepts a whole-season release of the given season: "Stagione 5",
// "Season 5", a bare S05 or a complete/full keyword next to the season number.
// Titles naming a specific episode are never packs. A complete-series release
// without any season number counts as a pack of every season.
func SeasonPack(candidate string, season int) Verdict {
	text := releaseText(candidate)
	if hasEpisodeToken(text) {
		return NoMatch
	}
	for _, re := range []*regexp.Regexp{wordedSeasonRegex, compactSeasonRegex} {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			if atoi(m[1]) == season {
				return SeasonPackMatch
			}
		}
	}

	for _, m := range completeSeasonRegex.FindAllStringSubmatch(text, -1) {
		n := m[1]
		if n == "" {
			n = m[2]
		}
		if atoi(n) == season {
			return SeasonPackMatch
		}
	}

	if completeRegex.MatchString(text) && wholeSeriesRegex.MatchString(text) &&
		!compactSeasonRegex.MatchString(text) && !wordedSeasonRegex.MatchString(text) &&
		!seasonRangeRegex.MatchString(text) && !completeSeasonRegex.MatchString(text) {
		return SeasonPackMatch
	}
	return NoMatch
}

// MultiSeason accepts a season range (S01-S10, "Stagioni 1-5") containing the
// season, both ends inclusive.
func MultiSeason(candidate string, season int) Verdict {
	text := releaseText(candidate)
	for _, re := range []*regexp.Regexp{seasonRangeRegex, wordedSeasonRangeRegex} {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			from, to := atoi(m[1]), atoi(m[2])
			if from < to && season >= from && season <= to {
				return MultiSeasonMatch
			}
		}
	}
	return NoMatch
}

// SeriesEpisode runs the episode rules in order of specificity.
func SeriesEpisode(candidate string, season, episode int) Verdict {
	return first(
		func() Verdict { return ExactEpisode(candidate, season, episode) },
		func() Verdict { return EpisodeRange(candidate, season, episode) },
		func() Verdict { return SeasonPack(candidate, season) },
		func() Verdict { return MultiSeason(candidate, season) },
	)
}

// IndicatesSeason reports whether title refers to the given season in any form:
// an episode of it, a range inside it, a pack of it or a season range covering it.
func IndicatesSeason(title string, season int) bool {
	text := releaseText(title)
	for _, re := range []*regexp.Regexp{seasonEpisodeRegex, crossEpisodeRegex, wordedEpisodeRegex} {
		for _, m := range re.FindAllStringSubmatch(text, -1) {
			if atoi(m[1]) == season {
				return true
			}
		}
	}
	return SeasonPack(title, season).Matched() || MultiSeason(title, season).Matched()
}

// SeasonEpisode extracts the first explicit season/episode token of title.
func SeasonEpisode(title string) (season, episode int, ok bool) {
	text := releaseText(title)
	for _, re := range []*regexp.Regexp{seasonEpisodeRegex, crossEpisodeRegex, wordedEpisodeRegex} {
		if m := re.FindStringSubmatch(text); m != nil {
			return atoi(m[1]), atoi(m[2]), true
		}
	}
	return 0, 0, false
}
