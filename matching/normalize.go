package matching

import (
	"regexp"
	"strings"

	"github.com/mozillazg/go-unidecode"
)

var (
	bracketedRegex = regexp.MustCompile(`[\[\(\{][^\]\)\}]*[\]\)\}]`)
	nonWordRegex   = regexp.MustCompile(`[^a-z0-9]+`)
	separatorRepl  = strings.NewReplacer(".", " ", "_", " ", "+", " ")
)

// stop-words of the languages releases are usually named in
var stopWords = map[string]bool{
	"the": true, "and": true, "for": true, "with": true, "from": true,
	"gli": true, "dei": true, "del": true, "della": true, "delle": true, "degli": true, "nel": true, "una": true, "uno": true,
	"los": true, "las": true, "por": true, "con": true,
	"les": true, "des": true, "une": true, "aux": true,
	"der": true, "die": true, "das": true, "und": true, "ein": true,
	"dos": true, "uma": true,
}

// fold transliterates to ASCII and lower-cases.
func fold(s string) string {
	return strings.ToLower(unidecode.Unidecode(s))
}

// NormalizeTitle folds s, drops bracketed and parenthesised segments and reduces
// punctuation to single spaces.
func NormalizeTitle(s string) string {
	s = bracketedRegex.ReplaceAllString(fold(s), " ")
	s = nonWordRegex.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// releaseText prepares a release name for token matching: folded, with the
// usual separators turned into spaces and brackets kept as word boundaries.
func releaseText(s string) string {
	s = separatorRepl.Replace(fold(s))
	s = strings.NewReplacer("[", " ", "]", " ", "(", " ", ")", " ", "{", " ", "}", " ").Replace(s)
	return " " + strings.Join(strings.Fields(s), " ") + " "
}

// SignificantWords returns the words of s longer than two characters that are
// not stop-words.
func SignificantWords(s string) []string {
	var out []string
	for _, w := range strings.Fields(NormalizeTitle(s)) {
		if len(w) > 2 && !stopWords[w] {
			out = append(out, w)
		}
	}
	return out
}

// WordOverlap is the fraction of the significant words of title that appear as
// words of candidate. It is 0 when title has no significant words.
func WordOverlap(title, candidate string) float64 {
	words := SignificantWords(title)
	if len(words) == 0 {
		return 0
	}
	have := make(map[string]bool)
	for _, w := range strings.Fields(NormalizeTitle(candidate)) {
		have[w] = true
	}
	n := 0
	for _, w := range words {
		if have[w] {
			n++
		}
	}
	return float64(n) / float64(len(words))
}

// containsPhrase reports whether phrase appears in text on word boundaries.
func containsPhrase(text, phrase string) bool {
	text, phrase = NormalizeTitle(text), NormalizeTitle(phrase)
	if phrase == "" {
		return false
	}
	return strings.Contains(" "+text+" ", " "+phrase+" ")
}

// PlainText folds s and reduces every non-alphanumeric run, brackets included,
// to a single space. The result is padded with spaces so callers can look up
// whole words and phrases with strings.Contains(" word ").
func PlainText(s string) string {
	return " " + strings.TrimSpace(nonWordRegex.ReplaceAllString(fold(s), " ")) + " "
}
