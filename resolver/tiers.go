// Package resolver turns a media identifier into ranked stream candidates. It
// consults the persistent store first, then the full-text index, and only then
// the live providers.
package resolver

import (
	"context"
	"sort"

	"github.com/hbollon/go-edlib"
	"github.com/samber/lo"

	"github.com/felipemarinho97/torrent-resolver/logging"
	"github.com/felipemarinho97/torrent-resolver/matching"
	"github.com/felipemarinho97/torrent-resolver/monitoring"
	"github.com/felipemarinho97/torrent-resolver/planner"
	"github.com/felipemarinho97/torrent-resolver/schema"
	"github.com/felipemarinho97/torrent-resolver/store"
	"github.com/felipemarinho97/torrent-resolver/utils"
)

const defaultTextLimit = 50

// TextIndex is a full-text index of known torrents.
type TextIndex interface {
	IsEnabled() bool
	IndexCandidates(ctx context.Context, kind schema.MediaKind, cands []schema.Candidate) error
	SearchCandidates(ctx context.Context, query string, kind schema.MediaKind, limit int) ([]schema.Candidate, error)
}

// Live searches the external torrent sources.
type Live interface {
	Collect(ctx context.Context, queries []string, kind schema.MediaKind) []schema.Candidate
}

type Tier int

const (
	TierNone Tier = iota
	TierExact
	TierText
	TierLive
)

func (t Tier) String() string {
	switch t {
	case TierExact:
		return "exact"
	case TierText:
		return "text"
	case TierLive:
		return "live"
	default:
		return "none"
	}
}

// Result is what a lookup found and the last tier it consulted.
type Result struct {
	Tier       Tier
	Candidates []schema.Candidate
}

type Tiers struct {
	store         store.Store
	index         TextIndex
	live          Live
	matcher       *matching.Matcher
	fallbackLimit int
	textLimit     int
	metrics       *monitoring.Metrics
}

// NewTiers builds the lookup chain. index may be nil; live may be nil to
// disable live searches.
func NewTiers(st store.Store, index TextIndex, live Live, matcher *matching.Matcher, fallbackLimit int, metrics *monitoring.Metrics) *Tiers {
	if matcher == nil {
		matcher = matching.NewMatcher(matching.DefaultThresholds)
	}
	return &Tiers{
		store:         st,
		index:         index,
		live:          live,
		matcher:       matcher,
		fallbackLimit: fallbackLimit,
		textLimit:     defaultTextLimit,
		metrics:       metrics,
	}
}

// Lookup runs the tiers in order. Live providers are searched when the cached
// tiers found nothing, or for a season when no cached title names that season.
func (t *Tiers) Lookup(ctx context.Context, q schema.MediaQuery) Result {
	res := Result{Tier: TierExact, Candidates: t.exact(ctx, q)}
	if len(res.Candidates) == 0 {
		res = Result{Tier: TierText, Candidates: t.text(ctx, q)}
	}

	if len(res.Candidates) == 0 || t.missingSeason(res.Candidates, q) {
		if live := t.searchLive(ctx, q); len(live) > 0 || len(res.Candidates) == 0 {
			res = Result{Tier: TierLive, Candidates: append(res.Candidates, live...)}
		}
	}

	if len(res.Candidates) == 0 {
		res.Tier = TierNone
	}
	t.metrics.TierHit(res.Tier.String())
	logging.DebugCtx(ctx).
		Str("tier", res.Tier.String()).
		Int("results", len(res.Candidates)).
		Str("id", q.ExternalID()).
		Msg("Resolution tiers done")
	return res
}

func (t *Tiers) missingSeason(cands []schema.Candidate, q schema.MediaQuery) bool {
	if q.Kind != schema.KindSeries || q.Season == nil {
		return false
	}
	return !lo.SomeBy(cands, func(c schema.Candidate) bool {
		return matching.IndicatesSeason(c.Title, *q.Season)
	})
}

// exact answers from records stored under the query's identifier.
func (t *Tiers) exact(ctx context.Context, q schema.MediaQuery) []schema.Candidate {
	if t.store == nil {
		return nil
	}

	switch q.Kind {
	case schema.KindMovie:
		if q.ImdbID == "" {
			return nil
		}
		return t.storeCall(ctx, "find_by_id", func() ([]schema.Candidate, error) {
			return t.store.FindByID(ctx, q.ImdbID, "")
		})

	case schema.KindSeries:
		if q.ImdbID == "" {
			return nil
		}
		if !q.IsEpisodic() {
			return t.keepMatching(t.storeCall(ctx, "find_by_id", func() ([]schema.Candidate, error) {
				return t.store.FindByID(ctx, q.ImdbID, "")
			}), q)
		}
		episodes := t.storeCall(ctx, "find_episode_files", func() ([]schema.Candidate, error) {
			return t.store.FindEpisodeFiles(ctx, store.EpisodeKey{ImdbID: q.ImdbID, Season: *q.Season, Episode: *q.Episode})
		})
		// a torrent stored for the season may hold a different episode
		season := t.keepMatching(t.storeCall(ctx, "find_season_torrents", func() ([]schema.Candidate, error) {
			return t.store.FindSeasonTorrents(ctx, q.ImdbID, *q.Season)
		}), q)
		return mergeByHash(episodes, season)

	case schema.KindAnime:
		if q.KitsuID == "" {
			return nil
		}
		var episodes []schema.Candidate
		if ep, ok := q.AbsoluteNumber(); ok {
			episodes = t.storeCall(ctx, "find_episode_files", func() ([]schema.Candidate, error) {
				return t.store.FindEpisodeFiles(ctx, store.EpisodeKey{KitsuID: q.KitsuID, Episode: ep})
			})
		}
		series := t.keepMatching(t.storeCall(ctx, "find_by_id", func() ([]schema.Candidate, error) {
			return t.store.FindByID(ctx, "", q.KitsuID)
		}), q)
		return mergeByHash(episodes, series)
	}
	return nil
}

// text searches the cleaned title, then its short form. Matches missing the
// query's identifiers get them repaired in the store.
func (t *Tiers) text(ctx context.Context, q schema.MediaQuery) []schema.Candidate {
	title := utils.CleanTitle(q.PrimaryTitle())
	if title == "" {
		return nil
	}
	texts := []string{title}
	if short := utils.CleanTitle(schema.ShortTitle(q.PrimaryTitle())); short != "" && short != title {
		texts = append(texts, short)
	}

	for _, text := range texts {
		matched := t.keepMatching(t.searchText(ctx, text, q.Kind), q)
		if len(matched) == 0 {
			continue
		}
		t.repair(ctx, matched, q)

		primary := matching.NormalizeTitle(q.PrimaryTitle())
		sort.SliceStable(matched, func(i, j int) bool {
			return edlib.JaccardSimilarity(primary, matching.NormalizeTitle(matched[i].Title), 2) >
				edlib.JaccardSimilarity(primary, matching.NormalizeTitle(matched[j].Title), 2)
		})
		if len(matched) > t.textLimit {
			matched = matched[:t.textLimit]
		}
		return matched
	}
	return nil
}

func (t *Tiers) searchText(ctx context.Context, text string, kind schema.MediaKind) []schema.Candidate {
	if t.index != nil && t.index.IsEnabled() {
		found, err := t.index.SearchCandidates(ctx, text, kind, t.textLimit)
		if err == nil {
			return found
		}
		logging.WarnCtx(ctx).Err(err).Str("query", text).Msg("Full-text index search failed, using store")
	}
	if t.store == nil {
		return nil
	}
	return t.storeCall(ctx, "search_text", func() ([]schema.Candidate, error) {
		return t.store.SearchText(ctx, text, kind, t.textLimit)
	})
}

func (t *Tiers) repair(ctx context.Context, cands []schema.Candidate, q schema.MediaQuery) {
	hashes := lo.FilterMap(cands, func(c schema.Candidate, _ int) (string, bool) {
		missing := (q.ImdbID != "" && c.ImdbID == "") || (q.KitsuID != "" && c.KitsuID == "")
		return c.InfoHash, missing
	})
	if len(hashes) == 0 || t.store == nil {
		return
	}

	n, err := t.store.RepairIdentifiers(ctx, hashes, q.ImdbID, q.KitsuID)
	if err != nil {
		t.metrics.StoreError("repair_identifiers")
		logging.WarnCtx(ctx).Err(err).Msg("Failed to repair torrent identifiers")
		return
	}
	for i := range cands {
		cands[i].ImdbID = lo.CoalesceOrEmpty(cands[i].ImdbID, q.ImdbID)
		cands[i].KitsuID = lo.CoalesceOrEmpty(cands[i].KitsuID, q.KitsuID)
	}
	logging.InfoCtx(ctx).Int64("repaired", n).Str("id", q.ExternalID()).Msg("Repaired torrent identifiers")
}

// searchLive queries the providers and writes what matched back to the store
// and the full-text index.
func (t *Tiers) searchLive(ctx context.Context, q schema.MediaQuery) []schema.Candidate {
	if t.live == nil || len(q.AllTitles()) == 0 {
		return nil
	}
	queries := planner.Plan(q)
	if len(queries) == 0 {
		return nil
	}

	found := t.matcher.Filter(t.live.Collect(ctx, queries, q.Kind), q, t.fallbackLimit)
	t.writeBack(ctx, q, found)
	return found
}

func (t *Tiers) writeBack(ctx context.Context, q schema.MediaQuery, found []schema.Candidate) {
	// similarity fallbacks are returned but never stored under the identifier
	keep := lo.FilterMap(found, func(c schema.Candidate, _ int) (schema.Candidate, bool) {
		if !t.matcher.Match(c.Title, q).Matched() {
			return c, false
		}
		c.ImdbID = lo.CoalesceOrEmpty(c.ImdbID, q.ImdbID)
		c.KitsuID = lo.CoalesceOrEmpty(c.KitsuID, q.KitsuID)
		if q.Kind == schema.KindSeries && q.Season != nil && c.Season == nil && matching.IndicatesSeason(c.Title, *q.Season) {
			c.Season = schema.IntPtr(*q.Season)
		}
		return c, true
	})
	if len(keep) == 0 {
		return
	}

	if t.store != nil {
		if err := t.store.UpsertTorrents(ctx, q.Kind, keep); err != nil {
			t.metrics.StoreError("upsert_torrents")
			logging.WarnCtx(ctx).Err(err).Int("torrents", len(keep)).Msg("Failed to store live results")
		}
	}
	if t.index != nil && t.index.IsEnabled() {
		if err := t.index.IndexCandidates(ctx, q.Kind, keep); err != nil {
			logging.WarnCtx(ctx).Err(err).Int("torrents", len(keep)).Msg("Failed to index live results")
		}
	}
}

func (t *Tiers) keepMatching(cands []schema.Candidate, q schema.MediaQuery) []schema.Candidate {
	return lo.Filter(cands, func(c schema.Candidate, _ int) bool {
		return t.matcher.Match(c.Title, q).Matched()
	})
}

// storeCall runs a store read. Failures count as no cached results.
func (t *Tiers) storeCall(ctx context.Context, op string, fn func() ([]schema.Candidate, error)) []schema.Candidate {
	cands, err := fn()
	if err != nil {
		t.metrics.StoreError(op)
		logging.WarnCtx(ctx).Err(err).Str("operation", op).Msg("Store lookup failed")
		return nil
	}
	return cands
}

// mergeByHash keeps every candidate of primary and adds those of secondary
// whose hash primary does not have.
func mergeByHash(primary, secondary []schema.Candidate) []schema.Candidate {
	seen := make(map[string]bool, len(primary))
	out := make([]schema.Candidate, 0, len(primary)+len(secondary))
	for _, c := range primary {
		seen[schema.NormalizeHash(c.InfoHash)] = true
		out = append(out, c)
	}
	for _, c := range secondary {
		h := schema.NormalizeHash(c.InfoHash)
		if seen[h] {
			continue
		}
		seen[h] = true
		out = append(out, c)
	}
	return out
}
