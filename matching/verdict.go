package matching

// Verdict is the outcome of one matching rule. Every value except NoMatch is a
// positive verdict naming the rule that accepted the title.
type Verdict int

const (
	NoMatch Verdict = iota
	TitleMatch
	MovieMatch
	ExactEpisodeMatch
	EpisodeRangeMatch
	SeasonPackMatch
	MultiSeasonMatch
	AnimeEpisodeMatch
	AnimeRangeMatch
)

var verdictNames = map[Verdict]string{
	NoMatch:           "no-match",
	TitleMatch:        "title",
	MovieMatch:        "movie",
	ExactEpisodeMatch: "exact-episode",
	EpisodeRangeMatch: "episode-range",
	SeasonPackMatch:   "season-pack",
	MultiSeasonMatch:  "multi-season",
	AnimeEpisodeMatch: "anime-episode",
	AnimeRangeMatch:   "anime-range",
}

func (v Verdict) Matched() bool {
	return v != NoMatch
}

func (v Verdict) String() string {
	if s, ok := verdictNames[v]; ok {
		return s
	}
	return "unknown"
}

// first returns the first positive verdict.
func first(verdicts ...func() Verdict) Verdict {
	for _, v := range verdicts {
		if r := v(); r.Matched() {
			return r
		}
	}
	return NoMatch
}
