package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/samber/lo"

	handler "github.com/felipemarinho97/torrent-resolver/api"
	"github.com/felipemarinho97/torrent-resolver/cache"
	"github.com/felipemarinho97/torrent-resolver/config"
	"github.com/felipemarinho97/torrent-resolver/debrid"
	"github.com/felipemarinho97/torrent-resolver/debrid/alldebrid"
	"github.com/felipemarinho97/torrent-resolver/debrid/realdebrid"
	"github.com/felipemarinho97/torrent-resolver/logging"
	"github.com/felipemarinho97/torrent-resolver/magnet"
	"github.com/felipemarinho97/torrent-resolver/matching"
	"github.com/felipemarinho97/torrent-resolver/metadata"
	"github.com/felipemarinho97/torrent-resolver/monitoring"
	"github.com/felipemarinho97/torrent-resolver/provider"
	"github.com/felipemarinho97/torrent-resolver/requester"
	"github.com/felipemarinho97/torrent-resolver/resolver"
	"github.com/felipemarinho97/torrent-resolver/schema"
	meilisearch "github.com/felipemarinho97/torrent-resolver/search"
	"github.com/felipemarinho97/torrent-resolver/store"
)

const fileHintLimit = 10

// app holds every wired component of a running resolver.
type app struct {
	cfg     *config.Config
	metrics *monitoring.Metrics
	redis   *cache.Redis
	store   *store.SQL
	service *resolver.Service
	checks  map[string]handler.HealthCheck
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	metrics := monitoring.NewMetrics()
	redis := cache.NewRedis(cfg.RedisHost)

	st, err := store.Open(ctx, cfg.DatabaseDriver, cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}

	req := requester.NewRequester(redis)
	req.SetShortLivedCacheExpiration(cfg.ShortLivedCacheDuration)
	if cfg.FlareSolverrAddress != "" {
		req.WithSolver(requester.NewFlareSolverr(cfg.FlareSolverrAddress, cfg.FlareSolverrTimeout))
	}

	meta, err := newMetadata(cfg, req)
	if err != nil {
		_ = st.Close()
		return nil, err
	}

	lang := schema.LanguageItalian
	if l := schema.GetLanguageFromString(cfg.LocalizedLanguage); l != nil {
		lang = *l
	} else {
		logging.Warn().Str("language", cfg.LocalizedLanguage).Msg("Unknown localized language, using default")
	}

	matcher := matching.NewMatcher(matching.Thresholds{
		TitleWords:     cfg.TitleWordThreshold,
		LocalizedWords: cfg.LocalizedWordThreshold,
	})
	gateway := provider.NewGateway(newProviders(cfg, req), cfg.ProviderTimeout, cfg.ResultTarget, cfg.ProviderDelay, metrics)
	index := meilisearch.NewSearchIndexer(cfg.MeilisearchURL, cfg.MeilisearchKey, cfg.MeilisearchIndex)
	tiers := resolver.NewTiers(st, index, gateway, matcher, cfg.FallbackLimit, metrics)

	svc := resolver.NewService(meta, tiers, st, newDebridProviders(cfg), magnet.NewTrackers(redis), metrics, resolver.Options{
		Language:           lang,
		LocalizedThreshold: cfg.LocalizedWordThreshold,
		Preference:         cfg.ProviderPreference,
		CacheValidity:      cfg.CacheValidity,
		BatchDelay:         cfg.DebridBatchDelay,
		SizeFloor:          cfg.VideoSizeFloor,
		CacheSize:          cfg.StreamCacheSize,
		CacheTTL:           cfg.StreamCacheTTL,
	})
	if cfg.MagnetMetadataAPI != "" {
		svc.WithFileLister(magnet.NewClient(cfg.MagnetMetadataAPI, cfg.MetadataTimeout, redis), fileHintLimit)
	}

	return &app{
		cfg:     cfg,
		metrics: metrics,
		redis:   redis,
		store:   st,
		service: svc,
		checks: map[string]handler.HealthCheck{
			"redis": redis.Ping,
			"store": st.Ping,
		},
	}, nil
}

func (a *app) Close() error {
	return errors.Join(a.store.Close(), a.redis.Close())
}

func newMetadata(cfg *config.Config, req *requester.Requester) (*metadata.Multi, error) {
	multi := &metadata.Multi{
		IMDb:    metadata.NewCinemeta(cfg.CinemetaURL, req),
		Kitsu:   metadata.NewKitsu(cfg.KitsuURL, req),
		Timeout: cfg.MetadataTimeout,
	}
	if cfg.TMDBAPIKey == "" {
		return multi, nil
	}

	lang := schema.LanguageItalian
	if l := schema.GetLanguageFromString(cfg.LocalizedLanguage); l != nil {
		lang = *l
	}
	tmdb, err := metadata.NewTMDB(cfg.TMDBAPIKey, "", lang, req)
	if err != nil {
		return nil, fmt.Errorf("failed to configure tmdb: %w", err)
	}
	multi.Localizer = tmdb
	return multi, nil
}

func newProviders(cfg *config.Config, req *requester.Requester) []provider.Provider {
	var providers []provider.Provider
	if cfg.TorznabURL != "" {
		providers = append(providers, provider.NewTorznab("torznab", cfg.TorznabURL, cfg.TorznabAPIKey, req))
	}
	if cfg.IndexerURL != "" {
		for _, name := range cfg.IndexerNames {
			providers = append(providers, provider.NewIndexer(cfg.IndexerURL, name, req))
		}
	}
	if len(providers) == 0 {
		logging.Warn().Msg("No torrent providers configured, live search is disabled")
	}
	logging.Info().
		Strs("providers", lo.Map(providers, func(p provider.Provider, _ int) string { return p.Name() })).
		Msg("Torrent providers configured")
	return providers
}

func newDebridProviders(cfg *config.Config) []debrid.Provider {
	var providers []debrid.Provider
	if cfg.RealDebridToken != "" {
		providers = append(providers, realdebrid.New(cfg.RealDebridToken))
	}
	if cfg.AllDebridKey != "" {
		providers = append(providers, alldebrid.New(cfg.AllDebridKey))
	}
	if len(providers) == 0 {
		logging.Warn().Msg("No debrid provider configured, streams carry no availability")
	}
	return providers
}
