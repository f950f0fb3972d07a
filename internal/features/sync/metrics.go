package sync

import (
	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	runs        *prometheus.CounterVec
	records     *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	lastSuccess *prometheus.GaugeVec
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "confops",
			Subsystem: "sync",
			Name:      "runs_total",
			Help:      "Sync runs by type and final status.",
		}, []string{"sync_type", "status"}),
		records: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "confops",
			Subsystem: "sync",
			Name:      "records_total",
			Help:      "Contacts touched by sync runs, by type and outcome.",
		}, []string{"sync_type", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "confops",
			Subsystem: "sync",
			Name:      "duration_seconds",
			Help:      "Wall time of sync runs.",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		}, []string{"sync_type"}),
		lastSuccess: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "confops",
			Subsystem: "sync",
			Name:      "last_success_timestamp_seconds",
			Help:      "Unix time of the last completed run.",
		}, []string{"sync_type"}),
	}
	reg.MustRegister(m.runs, m.records, m.duration, m.lastSuccess)
	return m
}

// Observe records a finished run. A nil receiver is a no-op.
func (m *Metrics) Observe(log *SyncLog) {
	if m == nil || log.CompletedAt == nil {
		return
	}
	syncType := string(log.SyncType)
	m.runs.WithLabelValues(syncType, string(log.Status)).Inc()
	m.records.WithLabelValues(syncType, "created").Add(float64(log.RecordsCreated))
	m.records.WithLabelValues(syncType, "updated").Add(float64(log.RecordsUpdated))
	m.records.WithLabelValues(syncType, "deleted").Add(float64(log.RecordsDeleted))
	m.duration.WithLabelValues(syncType).Observe(log.CompletedAt.Sub(log.StartedAt).Seconds())
	if log.Status == LogStatusCompleted {
		m.lastSuccess.WithLabelValues(syncType).Set(float64(log.CompletedAt.Unix()))
	}
}
