package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// RankingMetrics tracks aggregate query latency and ranking cache efficiency.
type RankingMetrics struct {
	queryDuration *prometheus.HistogramVec
	cache         *prometheus.CounterVec
}

// NewRankingMetrics registers the ranking metrics on the provided registerer.
func NewRankingMetrics(reg prometheus.Registerer) *RankingMetrics {
	if reg == nil {
		return &RankingMetrics{}
	}
	queryDuration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "incentives_ranking_query_duration_seconds",
		Help:    "Duration of aggregate queries backing rankings.",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation"})
	cache := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "incentives_ranking_cache_requests_total",
		Help: "Ranking cache lookups by result.",
	}, []string{"result"})
	reg.MustRegister(queryDuration, cache)
	return &RankingMetrics{queryDuration: queryDuration, cache: cache}
}

// ObserveQuery records the duration of an aggregate query.
func (m *RankingMetrics) ObserveQuery(operation string, duration time.Duration) {
	if m == nil || m.queryDuration == nil {
		return
	}
	m.queryDuration.WithLabelValues(normalizeLabel(operation)).Observe(duration.Seconds())
}

// CacheHit counts a ranking served from cache.
func (m *RankingMetrics) CacheHit() {
	if m == nil || m.cache == nil {
		return
	}
	m.cache.WithLabelValues("hit").Inc()
}

// CacheMiss counts a ranking that had to be computed.
func (m *RankingMetrics) CacheMiss() {
	if m == nil || m.cache == nil {
		return
	}
	m.cache.WithLabelValues("miss").Inc()
}
