package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	ProviderDuration *prometheus.HistogramVec
	ProviderErrors   *prometheus.CounterVec
	ProviderRequests *prometheus.CounterVec
	CacheHits        *prometheus.CounterVec
	CacheMisses      *prometheus.CounterVec
	DebridRequests   *prometheus.CounterVec
	ResolveOutcomes  *prometheus.CounterVec
	TierHits         *prometheus.CounterVec
	StoreErrors      *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	return &Metrics{
		ProviderDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "provider_duration_seconds",
			Help:    "Duration of search provider requests",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 20, 30},
		}, []string{"provider"}),
		ProviderErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "provider_errors_total",
			Help: "Number of search provider errors",
		}, []string{"provider"}),
		ProviderRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "provider_requests_total",
			Help: "Number of search provider requests",
		}, []string{"provider"}),
		CacheHits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cache_hits_total",
			Help: "Number of cache hits",
		}, []string{"cache"}),
		CacheMisses: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cache_misses_total",
			Help: "Number of cache misses",
		}, []string{"cache"}),
		DebridRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "debrid_requests_total",
			Help: "Number of debrid API calls",
		}, []string{"provider", "operation"}),
		ResolveOutcomes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "resolve_outcomes_total",
			Help: "Outcomes of debrid stream resolutions",
		}, []string{"provider", "outcome"}),
		TierHits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "resolution_tier_hits_total",
			Help: "Lookups answered by each resolution tier",
		}, []string{"tier"}),
		StoreErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "store_errors_total",
			Help: "Failed persistent store operations",
		}, []string{"operation"}),
	}
}

func (m *Metrics) Register() {
	m.RegisterWith(prometheus.DefaultRegisterer)
}

func (m *Metrics) RegisterWith(r prometheus.Registerer) {
	r.MustRegister(
		m.ProviderDuration,
		m.ProviderErrors,
		m.ProviderRequests,
		m.CacheHits,
		m.CacheMisses,
		m.DebridRequests,
		m.ResolveOutcomes,
		m.TierHits,
		m.StoreErrors,
	)
}

// The helpers below accept a nil receiver so that components can run without metrics.

func (m *Metrics) ObserveProvider(provider string, start time.Time, err error) {
	if m == nil {
		return
	}
	m.ProviderRequests.WithLabelValues(provider).Inc()
	m.ProviderDuration.WithLabelValues(provider).Observe(time.Since(start).Seconds())
	if err != nil {
		m.ProviderErrors.WithLabelValues(provider).Inc()
	}
}

func (m *Metrics) CacheHit(cache string) {
	if m == nil {
		return
	}
	m.CacheHits.WithLabelValues(cache).Inc()
}

func (m *Metrics) CacheMiss(cache string) {
	if m == nil {
		return
	}
	m.CacheMisses.WithLabelValues(cache).Inc()
}

func (m *Metrics) DebridCall(provider, operation string) {
	if m == nil {
		return
	}
	m.DebridRequests.WithLabelValues(provider, operation).Inc()
}

func (m *Metrics) Outcome(provider, outcome string) {
	if m == nil {
		return
	}
	m.ResolveOutcomes.WithLabelValues(provider, outcome).Inc()
}

func (m *Metrics) TierHit(tier string) {
	if m == nil {
		return
	}
	m.TierHits.WithLabelValues(tier).Inc()
}

func (m *Metrics) StoreError(operation string) {
	if m == nil {
		return
	}
	m.StoreErrors.WithLabelValues(operation).Inc()
}
