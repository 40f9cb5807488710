// ABOUTME: Prometheus collectors for writes and report exports.
// ABOUTME: Collectors are registered once at package init.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	achievementsSaved = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "minilok",
		Subsystem: "entry",
		Name:      "achievements_saved_total",
		Help:      "Achievement values saved, by cluster.",
	}, []string{"cluster"})
	pdcaSaved = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "minilok",
		Subsystem: "entry",
		Name:      "pdca_saved_total",
		Help:      "PDCA notes saved.",
	})
	lastWriteGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "minilok",
		Subsystem: "storage",
		Name:      "last_write_timestamp_seconds",
		Help:      "Unix timestamp of the most recent successful write.",
	})
	reportsExported = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "minilok",
		Subsystem: "report",
		Name:      "exported_total",
		Help:      "PDF reports produced, by kind.",
	}, []string{"kind"})
	exportFailures = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "minilok",
		Subsystem: "report",
		Name:      "export_failures_total",
		Help:      "PDF exports that produced no file, by kind.",
	}, []string{"kind"})
	exportDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "minilok",
		Subsystem: "report",
		Name:      "export_duration_seconds",
		Help:      "Time spent rasterizing a report.",
		Buckets:   []float64{0.5, 1, 2, 5, 10, 30, 60},
	}, []string{"kind"})
)

func init() {
	prometheus.MustRegister(achievementsSaved, pdcaSaved, lastWriteGauge, reportsExported, exportFailures, exportDuration)
}

// RecordWrite updates the last-write watermark gauge.
func RecordWrite(ts time.Time) {
	if ts.IsZero() {
		return
	}
	lastWriteGauge.Set(float64(ts.Unix()))
}

// RecordAchievementSaved counts a saved achievement for cluster.
func RecordAchievementSaved(cluster string) {
	achievementsSaved.WithLabelValues(cluster).Inc()
	RecordWrite(time.Now())
}

// RecordPdcaSaved counts a saved PDCA note.
func RecordPdcaSaved() {
	pdcaSaved.Inc()
	RecordWrite(time.Now())
}

// RecordExport counts a finished export and its duration.
func RecordExport(kind string, took time.Duration) {
	reportsExported.WithLabelValues(kind).Inc()
	exportDuration.WithLabelValues(kind).Observe(took.Seconds())
}

// RecordExportFailure counts an export that produced no file.
func RecordExportFailure(kind string) {
	exportFailures.WithLabelValues(kind).Inc()
}
