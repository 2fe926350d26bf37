package ranking

import (
	"strings"

	"github.com/felipemarinho97/torrent-resolver/matching"
	"github.com/felipemarinho97/torrent-resolver/schema"
)

// LanguageDetector classifies release titles by the audio they announce for one
// localized language.
type LanguageDetector struct {
	Language  schema.Language
	Threshold float64
}

func NewLanguageDetector(lang schema.Language, threshold float64) LanguageDetector {
	if threshold <= 0 {
		threshold = matching.DefaultThresholds.LocalizedWords
	}
	return LanguageDetector{Language: lang, Threshold: threshold}
}

// Detect looks for multi-language markers first, then localized-language
// markers. Without markers, a release named after the localized title (more than
// Threshold of its significant words) counts as localized, unless the localized
// title is simply the original one.
func (d LanguageDetector) Detect(title string, q schema.MediaQuery) schema.LanguageClass {
	text := matching.PlainText(title)
	for _, m := range schema.MultiMarkers {
		if strings.Contains(text, " "+m+" ") {
			return schema.LanguageMulti
		}
	}
	for _, m := range d.Language.Markers() {
		if strings.Contains(text, " "+m+" ") {
			return schema.LanguageLocalized
		}
	}

	loc := q.LocalizedTitle
	if loc == "" || matching.NormalizeTitle(loc) == matching.NormalizeTitle(q.PrimaryTitle()) {
		return schema.LanguageOther
	}
	if matching.WordOverlap(loc, title) > d.Threshold {
		return schema.LanguageLocalized
	}
	return schema.LanguageOther
}

// Annotate returns copies of cands with their language class set.
func (d LanguageDetector) Annotate(cands []schema.Candidate, q schema.MediaQuery) []schema.Candidate {
	out := make([]schema.Candidate, len(cands))
	for i, c := range cands {
		c.Language = d.Detect(c.Title, q)
		out[i] = c
	}
	return out
}
