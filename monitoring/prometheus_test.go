package monitoring

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestMetricsHelpers(t *testing.T) {
	m := NewMetrics()
	m.RegisterWith(prometheus.NewRegistry())

	m.ObserveProvider("torznab", time.Now(), nil)
	m.ObserveProvider("torznab", time.Now(), errors.New("boom"))
	m.CacheHit("memory")
	m.Outcome("realdebrid", "pending")
	m.TierHit("exact")
	m.StoreError("find_by_id")
	m.StoreError("find_by_id")

	if got := testutil.ToFloat64(m.ProviderRequests.WithLabelValues("torznab")); got != 2 {
		t.Errorf("provider requests = %v, want 2", got)
	}
	if got := testutil.ToFloat64(m.ProviderErrors.WithLabelValues("torznab")); got != 1 {
		t.Errorf("provider errors = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.CacheHits.WithLabelValues("memory")); got != 1 {
		t.Errorf("cache hits = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.ResolveOutcomes.WithLabelValues("realdebrid", "pending")); got != 1 {
		t.Errorf("outcomes = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.TierHits.WithLabelValues("exact")); got != 1 {
		t.Errorf("tier hits = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.StoreErrors.WithLabelValues("find_by_id")); got != 2 {
		t.Errorf("store errors = %v, want 2", got)
	}
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	m.ObserveProvider("x", time.Now(), errors.New("boom"))
	m.CacheHit("x")
	m.CacheMiss("x")
	m.DebridCall("x", "y")
	m.Outcome("x", "y")
	m.TierHit("x")
	m.StoreError("x")
}
