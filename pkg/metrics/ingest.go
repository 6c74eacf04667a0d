package metrics

import "github.com/prometheus/client_golang/prometheus"

// IngestMetrics counts ingested files and rows per source (upload, folder, cli).
type IngestMetrics struct {
	files *prometheus.CounterVec
	rows  *prometheus.CounterVec
}

// NewIngestMetrics registers the ingestion counters on the provided registerer.
func NewIngestMetrics(reg prometheus.Registerer) *IngestMetrics {
	if reg == nil {
		return &IngestMetrics{}
	}
	files := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "incentives_ingest_files_total",
		Help: "Event files ingested.",
	}, []string{"source"})
	rows := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "incentives_ingest_rows_total",
		Help: "Event rows processed by outcome.",
	}, []string{"source", "outcome"})
	reg.MustRegister(files, rows)
	return &IngestMetrics{files: files, rows: rows}
}

// ObserveFile records one ingested file and its row outcomes.
func (m *IngestMetrics) ObserveFile(source string, inserted, skipped int) {
	if m == nil || m.files == nil {
		return
	}
	source = normalizeLabel(source)
	m.files.WithLabelValues(source).Inc()
	m.rows.WithLabelValues(source, "inserted").Add(float64(inserted))
	m.rows.WithLabelValues(source, "skipped").Add(float64(skipped))
}
