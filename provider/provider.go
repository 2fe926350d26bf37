// Package provider fans search strings out to the configured torrent sources.
package provider

import (
	"context"
	"sync"
	"time"

	"github.com/felipemarinho97/torrent-resolver/logging"
	"github.com/felipemarinho97/torrent-resolver/monitoring"
	"github.com/felipemarinho97/torrent-resolver/schema"
)

// Provider is one external torrent source. Search must return an empty slice,
// not an error, when nothing was found.
type Provider interface {
	Name() string
	Search(ctx context.Context, query string, kind schema.MediaKind) ([]schema.Candidate, error)
}

type Gateway struct {
	providers []Provider
	timeout   time.Duration
	target    int
	delay     time.Duration
	metrics   *monitoring.Metrics
}

func NewGateway(providers []Provider, timeout time.Duration, target int, delay time.Duration, metrics *monitoring.Metrics) *Gateway {
	return &Gateway{
		providers: providers,
		timeout:   timeout,
		target:    target,
		delay:     delay,
		metrics:   metrics,
	}
}

func (g *Gateway) Providers() []Provider {
	return g.providers
}

// Search runs query against every provider concurrently. A provider that fails or
// exceeds the per-call timeout contributes nothing. Results keep provider order.
func (g *Gateway) Search(ctx context.Context, query string, kind schema.MediaKind) []schema.Candidate {
	results := make([][]schema.Candidate, len(g.providers))

	var wg sync.WaitGroup
	for i, p := range g.providers {
		wg.Add(1)
		go func(i int, p Provider) {
			defer wg.Done()
			results[i] = g.call(ctx, p, query, kind)
		}(i, p)
	}
	wg.Wait()

	var out []schema.Candidate
	for _, r := range results {
		out = append(out, r...)
	}
	return out
}

func (g *Gateway) call(ctx context.Context, p Provider, query string, kind schema.MediaKind) []schema.Candidate {
	callCtx := ctx
	if g.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	start := time.Now()
	cands, err := p.Search(callCtx, query, kind)
	if err == nil && callCtx.Err() != nil {
		err = callCtx.Err()
	}
	g.metrics.ObserveProvider(p.Name(), start, err)
	if err != nil {
		logging.WarnCtx(ctx).Err(err).
			Str("provider", p.Name()).
			Str("query", query).
			Dur("duration", time.Since(start)).
			Msg("Provider search failed")
		return nil
	}

	for i := range cands {
		if cands[i].Source == "" {
			cands[i].Source = p.Name()
		}
	}
	cands = schema.UsableOnly(cands)
	logging.DebugCtx(ctx).
		Str("provider", p.Name()).
		Str("query", query).
		Int("results", len(cands)).
		Msg("Provider search done")
	return cands
}

// Collect runs the queries one after the other, pausing between them, and stops
// as soon as the accumulated result count reaches the target.
func (g *Gateway) Collect(ctx context.Context, queries []string, kind schema.MediaKind) []schema.Candidate {
	var acc []schema.Candidate
	for i, q := range queries {
		if i > 0 && g.delay > 0 {
			t := time.NewTimer(g.delay)
			select {
			case <-ctx.Done():
				t.Stop()
				return acc
			case <-t.C:
			}
		}
		if ctx.Err() != nil {
			return acc
		}

		acc = append(acc, g.Search(ctx, q, kind)...)
		if g.target > 0 && len(acc) >= g.target {
			logging.DebugCtx(ctx).Int("results", len(acc)).Int("queries", i+1).Msg("Result target reached")
			break
		}
	}
	return acc
}
