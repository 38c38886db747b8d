package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Refresh modes and results used as label values.
const (
	ModeSilent     = "silent"
	ModeForeground = "foreground"

	ResultOK      = "ok"
	ResultError   = "error"
	ResultDropped = "dropped"
	ResultSkipped = "skipped"
)

var (
	TagRefreshTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mina_tag_refresh_total",
		Help: "Tag refresh attempts by mode and result",
	}, []string{"mode", "result"})

	TagRefreshDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "mina_tag_refresh_duration_seconds",
		Help:    "Duration of a full pagination walk",
		Buckets: prometheus.DefBuckets,
	}, []string{"mode"})

	TagPagesFetched = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mina_tag_pages_fetched_total",
		Help: "Pages read from /mina-tags",
	})

	TagSnapshotRecords = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "mina_tag_snapshot_records",
		Help: "Records held in the current snapshot",
	})

	TagLatestEntities = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "mina_tag_latest_entities",
		Help: "Distinct etiquetas in the current snapshot",
	})

	TagSnapshotChanges = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mina_tag_snapshot_changes_total",
		Help: "Times a refresh replaced the snapshot",
	})

	TagInteriorEntities = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "mina_tag_interior_entities",
		Help: "Latest entities inside the mine by category",
	}, []string{"categoria"})

	ViewersConnected = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "mina_dashboard_viewers",
		Help: "Connected WebSocket viewers",
	})
)

// RecordSnapshot refreshes the snapshot gauges after a replacement.
func RecordSnapshot(records, latest int, interiorByCategory map[string]int) {
	TagSnapshotChanges.Inc()
	TagSnapshotRecords.Set(float64(records))
	TagLatestEntities.Set(float64(latest))
	for cat, n := range interiorByCategory {
		TagInteriorEntities.WithLabelValues(cat).Set(float64(n))
	}
}

var (
	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mina_dashboard_http_requests_total",
		Help: "HTTP requests by method, route and status",
	}, []string{"method", "route", "status"})

	HTTPDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "mina_dashboard_http_request_duration_seconds",
		Help:    "HTTP request latency by method and route",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})
)
