package schema

import "strings"

// Language is an ISO 639-2 language tag.
type Language string

const (
	LanguageItalian    Language = "ita"
	LanguagePortuguese Language = "por"
	LanguageSpanish    Language = "spa"
	LanguageFrench     Language = "fra"
	LanguageGerman     Language = "deu"
	LanguageEnglish    Language = "eng"
)

var LanguageList = []Language{
	LanguageItalian,
	LanguagePortuguese,
	LanguageSpanish,
	LanguageFrench,
	LanguageGerman,
	LanguageEnglish,
}

// LanguageClass orders candidates by how well their audio matches the user's
// language. Higher is better.
type LanguageClass int

const (
	LanguageOther LanguageClass = iota
	LanguageMulti
	LanguageLocalized
)

func (c LanguageClass) String() string {
	switch c {
	case LanguageLocalized:
		return "localized"
	case LanguageMulti:
		return "multi"
	default:
		return "other"
	}
}

// MultiMarkers are release-name words announcing more than one audio track.
var MultiMarkers = []string{
	"multi",
	"multilang",
	"multi audio",
	"multiaudio",
	"dual audio",
	"dual",
}

// Markers returns the release-name words announcing an audio track in the language.
func (l Language) Markers() []string {
	switch l {
	case LanguageItalian:
		return []string{"ita", "italian", "italiano"}
	case LanguagePortuguese:
		return []string{"por", "pt br", "ptbr", "portugues", "portuguese", "dublado", "nacional"}
	case LanguageSpanish:
		return []string{"spa", "esp", "spanish", "espanol", "castellano", "latino"}
	case LanguageFrench:
		return []string{"fra", "fre", "french", "francais", "vff", "vf", "truefrench"}
	case LanguageGerman:
		return []string{"deu", "ger", "german", "deutsch"}
	case LanguageEnglish:
		return []string{"eng", "english"}
	default:
		return nil
	}
}

func (l Language) String() string {
	return string(l)
}

// GetLanguageFromString resolves a tag or a language name to a Language.
func GetLanguageFromString(s string) *Language {
	s = strings.TrimSpace(s)
	for _, l := range LanguageList {
		if strings.EqualFold(string(l), s) {
			return &l
		}
		for _, m := range l.Markers() {
			if strings.EqualFold(m, s) {
				return &l
			}
		}
	}
	return nil
}

// Locale returns the IETF tag used by metadata services for the language.
func (l Language) Locale() string {
	switch l {
	case LanguageItalian:
		return "it-IT"
	case LanguagePortuguese:
		return "pt-BR"
	case LanguageSpanish:
		return "es-ES"
	case LanguageFrench:
		return "fr-FR"
	case LanguageGerman:
		return "de-DE"
	default:
		return "en-US"
	}
}
