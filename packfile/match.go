package packfile

import (
	"regexp"
	"strings"

	"github.com/samber/mo"

	"github.com/felipemarinho97/torrent-resolver/matching"
	"github.com/felipemarinho97/torrent-resolver/schema"
)

const (
	localizedWeight = 0.4
	originalWeight  = 0.3
	partWeight      = 0.2
	yearWeight      = 0.1
)

var (
	explicitPartRegex = regexp.MustCompile(`\b(?:part|parte|pt|vol|volume|capitolo|chapter|chapitre|teil) ?(\d{1,2}|[ivx]{1,5})\b`)
	trailingPartRegex = regexp.MustCompile(`\s(\d{1,2}|[ivx]{1,5})$`)
	fileYearRegex     = regexp.MustCompile(`\b(19\d{2}|20\d{2})\b`)
)

// Target describes the movie looked for inside a pack.
type Target struct {
	Localized string
	Original  string
	Year      int
}

// TargetFor builds the pack target of a query. The primary title doubles as
// the original one.
func TargetFor(q schema.MediaQuery) Target {
	t := Target{Localized: q.LocalizedTitle, Original: q.PrimaryTitle(), Year: q.Year}
	if t.Localized == "" {
		t.Localized = t.Original
	}
	return t
}

// Score rates how well a file name fits the target. Files sharing no title word
// with the target score zero.
func Score(name string, t Target) float64 {
	name = BaseName(name)
	loc := matching.WordOverlap(t.Localized, name)
	orig := matching.WordOverlap(t.Original, name)
	if loc == 0 && orig == 0 {
		return 0
	}

	score := localizedWeight*loc + originalWeight*orig
	if samePart(partOf(t), PartNumber(name)) {
		score += partWeight
	}
	if t.Year > 0 && fileYearRegex.MatchString(name) {
		for _, y := range fileYearRegex.FindAllString(name, -1) {
			if y == itoa(t.Year) {
				score += yearWeight
				break
			}
		}
	}
	return score
}

// Match returns the index of the video file that best fits the target. Ties
// keep the first file; no file is selected when every score is zero.
func Match(files []schema.File, t Target) (int, bool) {
	best, bestScore := 0, 0.0
	for _, f := range files {
		if !IsVideo(f.Path) {
			continue
		}
		if s := Score(f.Path, t); s > bestScore {
			best, bestScore = f.Index, s
		}
	}
	return best, bestScore > 0
}

func partOf(t Target) mo.Option[int] {
	if p := PartNumber(t.Localized); p.IsPresent() {
		return p
	}
	return PartNumber(t.Original)
}

// samePart is true when both carry the same part number or neither has one.
func samePart(want, got mo.Option[int]) bool {
	if w, ok := want.Get(); ok {
		g, ok := got.Get()
		return ok && g == w
	}
	return got.IsAbsent()
}

// PartNumber extracts a sequel/part number: "Parte II", "Part 2", "Vol. 3" or a
// trailing number such as "Rocky 2". Years are not part numbers.
func PartNumber(title string) mo.Option[int] {
	text := strings.TrimSpace(matching.NormalizeTitle(fileYearRegex.ReplaceAllString(title, " ")))
	if m := explicitPartRegex.FindStringSubmatch(text); m != nil {
		if n := partValue(m[1]); n > 0 {
			return mo.Some(n)
		}
	}
	if m := trailingPartRegex.FindStringSubmatch(text); m != nil {
		if n := partValue(m[1]); n > 0 {
			return mo.Some(n)
		}
	}
	return mo.None[int]()
}

func partValue(s string) int {
	if n := atoi(s); n > 0 {
		return n
	}
	return romanValue(s)
}

var romanDigits = map[byte]int{'i': 1, 'v': 5, 'x': 10}

func romanValue(s string) int {
	total := 0
	for i := 0; i < len(s); i++ {
		v, ok := romanDigits[s[i]]
		if !ok {
			return 0
		}
		if i+1 < len(s) && romanDigits[s[i+1]] > v {
			total -= v
		} else {
			total += v
		}
	}
	return total
}
