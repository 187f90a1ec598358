package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "keeper"

var (
	BackupsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backups_total",
			Help:      "Total number of dump attempts by trigger and result",
		},
		[]string{"trigger", "result"},
	)

	RestoresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "restores_total",
			Help:      "Total number of restore attempts by result",
		},
		[]string{"result"},
	)

	OperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "backup_duration_seconds",
			Help:      "Duration of dump and restore invocations",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 300, 900},
		},
		[]string{"operation"},
	)

	LastBackupSuccess = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "backup_last_success_timestamp_seconds",
			Help:      "Unix time of the last successful dump",
		},
	)

	LastBackupSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "backup_size_bytes",
			Help:      "Size of the last successful dump",
		},
	)

	MirrorUploadsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mirror_uploads_total",
			Help:      "Total number of off-site uploads by target and result",
		},
		[]string{"target", "result"},
	)

	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)
)

func result(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

// RecordBackup records one dump attempt.
func RecordBackup(trigger string, started time.Time, size int64, err error) {
	BackupsTotal.WithLabelValues(trigger, result(err)).Inc()
	OperationDuration.WithLabelValues("dump").Observe(time.Since(started).Seconds())

	if err == nil {
		LastBackupSuccess.SetToCurrentTime()
		LastBackupSize.Set(float64(size))
	}
}

// RecordRestore records one restore attempt.
func RecordRestore(started time.Time, err error) {
	RestoresTotal.WithLabelValues(result(err)).Inc()
	OperationDuration.WithLabelValues("restore").Observe(time.Since(started).Seconds())
}

func RecordMirrorUpload(target string, err error) {
	MirrorUploadsTotal.WithLabelValues(target, result(err)).Inc()
}
