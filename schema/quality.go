package schema

import (
	"regexp"
	"strings"
)

const (
	Quality2160p   = "2160p"
	Quality1080p   = "1080p"
	Quality720p    = "720p"
	Quality480p    = "480p"
	QualityCam     = "CAM"
	QualityUnknown = ""
)

type qualityPattern struct {
	regex *regexp.Regexp
	tag   string
}

// checked in order, first hit wins
var qualityPatterns = []qualityPattern{
	{regexp.MustCompile(`(?i)\b(2160p|4k|uhd)\b`), Quality2160p},
	{regexp.MustCompile(`(?i)\b(1080p|1080i|fhd)\b`), Quality1080p},
	{regexp.MustCompile(`(?i)\b(720p|hd ?rip)\b`), Quality720p},
	{regexp.MustCompile(`(?i)\b(480p|576p|360p|sd|dvd ?rip|xvid)\b`), Quality480p},
	{regexp.MustCompile(`(?i)\b(cam|cam ?rip|hd ?cam|ts|telesync|hdts|tc|telecine)\b`), QualityCam},
}

var qualityTiers = map[string]int{
	Quality2160p: 5,
	Quality1080p: 4,
	Quality720p:  3,
	Quality480p:  2,
	QualityCam:   1,
}

// DetectQuality derives the quality tag of a release title.
func DetectQuality(title string) string {
	t := strings.NewReplacer(".", " ", "_", " ", "[", " ", "]", " ").Replace(title)
	for _, p := range qualityPatterns {
		if p.regex.MatchString(t) {
			return p.tag
		}
	}
	return QualityUnknown
}

// QualityTier maps a quality tag onto an ordinal scale; unknown tags are lowest.
func QualityTier(tag string) int {
	return qualityTiers[tag]
}
