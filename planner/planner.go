// Package planner turns a media query into the ordered list of search strings
// sent to the providers.
package planner

import (
	"fmt"
	"strings"

	"github.com/samber/lo"

	"github.com/felipemarinho97/torrent-resolver/schema"
)

// Plan returns the search strings for q, most valuable first. The output has no
// case-insensitive duplicates and is stable for identical input.
func Plan(q schema.MediaQuery) []string {
	var out []string
	switch q.Kind {
	case schema.KindMovie:
		out = planMovie(q)
	case schema.KindSeries:
		out = planSeries(q)
	case schema.KindAnime:
		out = planAnime(q)
	}

	out = lo.Map(out, func(s string, _ int) string {
		return strings.Join(strings.Fields(s), " ")
	})
	out = lo.Filter(out, func(s string, _ int) bool { return s != "" })
	return lo.UniqBy(out, strings.ToLower)
}

func planMovie(q schema.MediaQuery) []string {
	var out []string
	withYear := func(t string) {
		if q.Year > 0 {
			out = append(out, fmt.Sprintf("%s %d", t, q.Year))
		}
		out = append(out, t)
	}
	for _, title := range q.AllTitles() {
		withYear(title)
		if short := schema.ShortTitle(title); short != title {
			withYear(short)
		}
	}
	return out
}

func planSeries(q schema.MediaQuery) []string {
	var out []string
	for _, title := range q.AllTitles() {
		short := schema.ShortTitle(title)
		out = append(out, short)
		out = append(out, seasonVariants(short, q.Season, q.Episode)...)
		if short != title {
			out = append(out, seasonVariants(title, q.Season, q.Episode)...)
		}
	}
	return out
}

func seasonVariants(title string, season, episode *int) []string {
	var out []string
	if season != nil {
		s := *season
		if episode != nil {
			out = append(out, fmt.Sprintf("%s S%02dE%02d", title, s, *episode))
		}
		out = append(out,
			fmt.Sprintf("%s S%02d", title, s),
			fmt.Sprintf("%s Stagione %d", title, s),
			fmt.Sprintf("%s Season %d", title, s),
		)
	}
	return append(out, title+" Complete")
}

func planAnime(q schema.MediaQuery) []string {
	abs, hasAbs := q.AbsoluteNumber()
	var out []string
	for _, title := range q.AllTitles() {
		if hasAbs {
			out = append(out, fmt.Sprintf("%s %d", title, abs))
		}
		out = append(out, title)
	}
	return out
}
