package utils

import (
	"regexp"
	"strings"
)

var (
	bracketedRegex    = regexp.MustCompile(`[\[\(\{][^\]\)\}]*[\]\)\}]`)
	releaseGroupRegex = regexp.MustCompile(`-[A-Za-z0-9]+$`)
	releaseTokenRegex = regexp.MustCompile(`(?i)\b(` +
		// resolution
		`2160p|1080p|1080i|720p|576p|480p|4k|uhd|fhd|` +
		// source
		`blu-?ray|bdrip|brrip|bdremux|remux|web-?dl|web-?rip|webrip|hdtv|hdrip|dvdrip|dvd|hdcam|cam|telesync|` +
		// codec
		`x264|x265|h\.?264|h\.?265|hevc|avc|xvid|divx|10bit|8bit|hdr10|hdr|dv|dolby\s?vision|` +
		// audio
		`aac|ac3|eac3|dts|dts-hd|ddp?5\.1|dd\+?|atmos|truehd|mp3|5\.1|7\.1|2\.0|` +
		// language
		`ita|eng|multi|multisub|sub|subs|subbed|dual|dublado|legendado|nacional|` +
		// misc
		`repack|proper|extended|unrated|internal|limited|ita-eng` +
		`)\b`)
)

// CleanTitle strips release noise (resolution, source, codec, audio and language
// tags, release group, bracketed segments and known websites) from a title so it
// can be used as a full-text query.
func CleanTitle(title string) string {
	t := RemoveKnownWebsites(title)
	t = bracketedRegex.ReplaceAllString(t, " ")
	t = strings.NewReplacer(".", " ", "_", " ").Replace(t)
	t = strings.TrimSpace(t)
	t = releaseGroupRegex.ReplaceAllString(t, "")
	t = releaseTokenRegex.ReplaceAllString(t, " ")
	return strings.Join(strings.Fields(t), " ")
}
