package matching

import (
	"regexp"
	"strconv"
	"strings"
)

var yearRegex = regexp.MustCompile(`\b(19\d{2}|20\d{2})\b`)

// MovieTitle accepts candidate when at least threshold of the significant words
// of title appear in it. Titles without significant words ("Up", "It") need an
// exact word-boundary match instead.
func MovieTitle(candidate, title string, threshold float64) Verdict {
	if len(SignificantWords(title)) == 0 {
		if containsPhrase(candidate, title) {
			return TitleMatch
		}
		return NoMatch
	}
	if WordOverlap(title, candidate) >= threshold {
		return TitleMatch
	}
	return NoMatch
}

// YearWithin accepts candidate when it carries no year token or one within one
// year of want. Years that are part of one of the titles ("Blade Runner 2049")
// are ignored. A zero want disables the check.
func YearWithin(candidate string, want int, titles ...string) Verdict {
	if want == 0 {
		return MovieMatch
	}
	own := make(map[string]bool)
	for _, t := range titles {
		for _, y := range yearRegex.FindAllString(t, -1) {
			own[y] = true
		}
	}

	found := false
	for _, y := range yearRegex.FindAllString(strings.NewReplacer(".", " ", "_", " ").Replace(candidate), -1) {
		if own[y] {
			continue
		}
		found = true
		n, _ := strconv.Atoi(y)
		if n >= want-1 && n <= want+1 {
			return MovieMatch
		}
	}
	if found {
		return NoMatch
	}
	return MovieMatch
}
