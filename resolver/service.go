package resolver

import (
	"context"
	"errors"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/samber/mo"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/felipemarinho97/torrent-resolver/cache"
	"github.com/felipemarinho97/torrent-resolver/debrid"
	"github.com/felipemarinho97/torrent-resolver/logging"
	"github.com/felipemarinho97/torrent-resolver/magnet"
	"github.com/felipemarinho97/torrent-resolver/metadata"
	"github.com/felipemarinho97/torrent-resolver/monitoring"
	"github.com/felipemarinho97/torrent-resolver/ranking"
	"github.com/felipemarinho97/torrent-resolver/schema"
	"github.com/felipemarinho97/torrent-resolver/store"
)

var (
	ErrUnknownProvider = errors.New("unknown debrid provider")
	ErrInvalidHash     = errors.New("invalid info hash")
)

// Stream is a ranked candidate with the debrid providers that have it cached.
type Stream struct {
	schema.Candidate
	Availability map[string]bool `json:"availability,omitempty"`
}

type Options struct {
	Language           schema.Language
	LocalizedThreshold float64
	Preference         []string
	CacheValidity      time.Duration
	BatchDelay         time.Duration
	SizeFloor          int64
	CacheSize          int
	CacheTTL           time.Duration

	// ResolveTimeout bounds one debrid resolution, defaults to DefaultResolveTimeout.
	ResolveTimeout time.Duration
}

const DefaultResolveTimeout = 2 * time.Minute

type Service struct {
	meta      metadata.Resolver
	tiers     *Tiers
	store     store.Store
	providers []debrid.Provider
	machine   *debrid.Machine
	trackers  *magnet.Trackers
	files     FileLister
	hintLimit int
	language  ranking.LanguageDetector
	pref      ranking.Preference
	validity  time.Duration
	delay     time.Duration
	streams   *cache.Memory[[]Stream]
	group     singleflight.Group
	metrics   *monitoring.Metrics
	now       func() time.Time

	resolveTimeout time.Duration
}

// NewService wires the resolution pipeline. st may be nil, in which case
// nothing is persisted; trackers may be nil.
func NewService(meta metadata.Resolver, tiers *Tiers, st store.Store, providers []debrid.Provider, trackers *magnet.Trackers, metrics *monitoring.Metrics, opts Options) *Service {
	s := &Service{
		meta:      meta,
		tiers:     tiers,
		store:     st,
		providers: providers,
		trackers:  trackers,
		language:  ranking.NewLanguageDetector(opts.Language, opts.LocalizedThreshold),
		pref:      ranking.NewPreference(opts.Preference),
		validity:  opts.CacheValidity,
		delay:     opts.BatchDelay,
		metrics:   metrics,
		now:       time.Now,

		resolveTimeout: opts.ResolveTimeout,
	}
	if s.resolveTimeout <= 0 {
		s.resolveTimeout = DefaultResolveTimeout
	}
	var recorder debrid.Recorder
	if st != nil {
		recorder = st
	}
	s.machine = debrid.NewMachine(recorder, opts.SizeFloor, metrics)
	s.streams = cache.NewMemory[[]Stream](opts.CacheSize, opts.CacheTTL, func() time.Time { return s.now() })
	return s
}

func (s *Service) Providers() []string {
	return lo.Map(s.providers, func(p debrid.Provider, _ int) string { return p.Name() })
}

// Streams returns the ranked candidates for id, annotated with debrid
// availability.
func (s *Service) Streams(ctx context.Context, id schema.MediaID) ([]Stream, error) {
	key := id.String()
	if cached, ok := s.streams.Get(key); ok {
		s.metrics.CacheHit("streams")
		return copyStreams(cached), nil
	}
	s.metrics.CacheMiss("streams")

	q, err := s.meta.Resolve(ctx, id)
	degraded := false
	switch {
	case errors.Is(err, metadata.ErrNotFound):
		return nil, fmt.Errorf("failed to resolve metadata for %s: %w", key, err)
	case err != nil:
		// stored records are keyed by id and still answer
		logging.WarnCtx(ctx).Err(err).Str("id", key).Msg("Metadata unavailable, looking up streams by id")
		q, degraded = QueryFromID(id), true
	}

	found := s.tiers.Lookup(ctx, q)
	cands := s.language.Annotate(found.Candidates, q)
	cands = ranking.Rank(ranking.Dedupe(cands, s.pref))
	s.hintFiles(ctx, q, cands)

	hashes := lo.Map(cands, func(c schema.Candidate, _ int) string { return schema.NormalizeHash(c.InfoHash) })
	avail := s.availability(ctx, hashes)

	streams := lo.Map(cands, func(c schema.Candidate, _ int) Stream {
		st := Stream{Candidate: c}
		h := schema.NormalizeHash(c.InfoHash)
		for provider, cached := range avail {
			if v, ok := cached[h]; ok {
				if st.Availability == nil {
					st.Availability = make(map[string]bool, len(avail))
				}
				st.Availability[provider] = v
			}
		}
		return st
	})

	logging.InfoCtx(ctx).
		Str("id", key).
		Str("tier", found.Tier.String()).
		Int("streams", len(streams)).
		Msg("Streams resolved")
	if !degraded {
		s.streams.Set(key, streams)
	}
	return copyStreams(streams), nil
}

// copyStreams detaches the result from the memoized slice and its maps.
func copyStreams(streams []Stream) []Stream {
	out := make([]Stream, len(streams))
	for i, st := range streams {
		st.Availability = maps.Clone(st.Availability)
		st.Files = slices.Clone(st.Files)
		st.Categories = slices.Clone(st.Categories)
		st.FileIndex = clonePtr(st.FileIndex)
		st.Season = clonePtr(st.Season)
		out[i] = st
	}
	return out
}

func clonePtr(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}

// availability reports, per provider, which hashes are cached. Fresh stored
// states are trusted; the rest are bulk-checked and written back.
func (s *Service) availability(ctx context.Context, hashes []string) map[string]map[string]bool {
	results := make([]map[string]bool, len(s.providers))
	if len(hashes) == 0 {
		return map[string]map[string]bool{}
	}

	var g errgroup.Group
	for i, p := range s.providers {
		g.Go(func() error {
			results[i] = s.providerAvailability(ctx, p, hashes)
			return nil
		})
	}
	_ = g.Wait()

	out := make(map[string]map[string]bool, len(s.providers))
	for i, p := range s.providers {
		out[p.Name()] = results[i]
	}
	return out
}

func (s *Service) providerAvailability(ctx context.Context, p debrid.Provider, hashes []string) map[string]bool {
	known := make(map[string]bool, len(hashes))
	now := s.now()

	var states map[string]schema.CacheEntry
	if s.store != nil {
		var err error
		if states, err = s.store.CacheStates(ctx, p.Name(), hashes); err != nil {
			s.metrics.StoreError("cache_states")
			logging.WarnCtx(ctx).Err(err).Str("provider", p.Name()).Msg("Failed to read cache states")
		}
	}

	var stale []string
	for _, h := range hashes {
		if e, ok := states[h]; ok && e.Fresh(now, s.validity) {
			known[h] = e.Cached
			continue
		}
		stale = append(stale, h)
	}
	if len(stale) == 0 {
		return known
	}

	checked, err := debrid.CheckCached(ctx, p, stale, s.delay)
	if err != nil {
		logging.WarnCtx(ctx).Err(err).Str("provider", p.Name()).Int("checked", len(checked)).Msg("Bulk cache check incomplete")
	}
	entries := make([]schema.CacheEntry, 0, len(checked))
	for h, cached := range checked {
		known[h] = cached
		entries = append(entries, schema.CacheEntry{InfoHash: h, Provider: p.Name(), Cached: cached, CheckedAt: now})
	}
	if s.store != nil && len(entries) > 0 {
		if err := s.store.UpsertCacheStates(ctx, entries); err != nil {
			s.metrics.StoreError("upsert_cache_states")
			logging.WarnCtx(ctx).Err(err).Str("provider", p.Name()).Msg("Failed to save cache states")
		}
	}
	return known
}

// Resolve drives the debrid job of hash on provider for the media id.
// Identical concurrent calls share one resolution.
func (s *Service) Resolve(ctx context.Context, provider, hash string, id schema.MediaID, fileIndex mo.Option[int]) (debrid.Outcome, error) {
	p, ok := lo.Find(s.providers, func(p debrid.Provider) bool { return strings.EqualFold(p.Name(), provider) })
	if !ok {
		return debrid.Outcome{}, fmt.Errorf("%w: %s", ErrUnknownProvider, provider)
	}
	hash = schema.NormalizeHash(hash)
	if !(schema.Candidate{InfoHash: hash}).Usable() {
		return debrid.Outcome{}, fmt.Errorf("%w: %q", ErrInvalidHash, hash)
	}

	key := strings.Join([]string{p.Name(), hash, id.String()}, "|")
	if idx, ok := fileIndex.Get(); ok {
		key += "|" + strconv.Itoa(idx)
	}
	// the shared work outlives any single caller
	ch := s.group.DoChan(key, func() (any, error) {
		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.resolveTimeout)
		defer cancel()
		return s.resolve(rctx, p, hash, id, fileIndex), nil
	})
	select {
	case <-ctx.Done():
		return debrid.Outcome{}, ctx.Err()
	case res := <-ch:
		if res.Shared {
			logging.DebugCtx(ctx).Str("key", key).Msg("Joined in-flight resolution")
		}
		return res.Val.(debrid.Outcome), nil
	}
}

func (s *Service) resolve(ctx context.Context, p debrid.Provider, hash string, id schema.MediaID, fileIndex mo.Option[int]) debrid.Outcome {
	q, err := s.meta.Resolve(ctx, id)
	if err != nil {
		// episode selection only needs the id itself
		logging.WarnCtx(ctx).Err(err).Str("id", id.String()).Msg("Metadata unavailable, resolving from id")
		q = QueryFromID(id)
	}

	req := debrid.Request{InfoHash: hash, Query: q}
	if idx, ok := fileIndex.Get(); ok {
		req.FileIndex = &idx
	}
	if s.trackers != nil {
		if uri, err := magnet.Build(hash, q.PrimaryTitle(), s.trackers.List(ctx)); err == nil {
			req.Magnet = uri
		}
	}

	out := s.machine.Resolve(ctx, p, req)
	if out.Kind == debrid.OutcomeResolved {
		s.streams.Delete(id.String())
	}
	return out
}

// QueryFromID builds the bare query an id implies when no metadata is known.
func QueryFromID(id schema.MediaID) schema.MediaQuery {
	q := schema.MediaQuery{
		Kind:    id.Kind,
		ImdbID:  id.ImdbID,
		KitsuID: id.KitsuID,
		Season:  id.Season,
		Episode: id.Episode,
	}
	if id.Kind == schema.KindAnime {
		q.AbsoluteEpisode = id.Episode
	}
	return q
}
