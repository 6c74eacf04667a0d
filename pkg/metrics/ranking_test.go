package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRankingMetricsQueryAndCache(t *testing.T) {
	m := NewRankingMetrics(prometheus.NewRegistry())
	m.ObserveQuery("aggregate", 40*time.Millisecond)
	m.CacheHit()
	m.CacheMiss()
	m.CacheMiss()

	if n := testutil.CollectAndCount(m.queryDuration); n != 1 {
		t.Fatalf("expected one query series, got %d", n)
	}
	if got := testutil.ToFloat64(m.cache.WithLabelValues("miss")); got != 2 {
		t.Fatalf("expected 2 misses, got %f", got)
	}
	if got := testutil.ToFloat64(m.cache.WithLabelValues("hit")); got != 1 {
		t.Fatalf("expected 1 hit, got %f", got)
	}
}

func TestIngestMetricsCountsRows(t *testing.T) {
	m := NewIngestMetrics(prometheus.NewRegistry())
	m.ObserveFile("upload", 120, 3)
	m.ObserveFile("upload", 30, 0)

	if got := testutil.ToFloat64(m.files.WithLabelValues("upload")); got != 2 {
		t.Fatalf("expected 2 files, got %f", got)
	}
	if got := testutil.ToFloat64(m.rows.WithLabelValues("upload", "inserted")); got != 150 {
		t.Fatalf("expected 150 inserted rows, got %f", got)
	}
	if got := testutil.ToFloat64(m.rows.WithLabelValues("upload", "skipped")); got != 3 {
		t.Fatalf("expected 3 skipped rows, got %f", got)
	}
}

func TestNilRegistererMetricsAreNoops(t *testing.T) {
	NewRankingMetrics(nil).ObserveQuery("aggregate", time.Second)
	NewRankingMetrics(nil).CacheHit()
	NewIngestMetrics(nil).ObserveFile("cli", 1, 1)
	var m *RankingMetrics
	m.CacheMiss()
}
