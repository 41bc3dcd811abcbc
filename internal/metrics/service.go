package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var _ Metrics = (*Service)(nil)

// NewMetricsHandler returns an http.Handler for the given Gatherer.
// If no gatherer is provided, it uses the default one.
func NewMetricsHandler(gatherer ...prometheus.Gatherer) http.Handler {
	gath := prometheus.DefaultGatherer
	if len(gatherer) > 0 {
		gath = gatherer[0]
	}
	return promhttp.HandlerFor(gath, promhttp.HandlerOpts{})
}

// NewService creates and registers the Prometheus metrics.
// If no registerer is provided, it uses the default Prometheus registerer.
func NewService(registerer ...prometheus.Registerer) *Service {
	reg := prometheus.DefaultRegisterer
	if len(registerer) > 0 {
		reg = registerer[0]
	}

	s := &Service{
		Submissions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tankbot_submissions_total",
			Help: "The total number of accepted score submissions.",
		}),
		BucketSyncs: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tankbot_bucket_syncs_total",
			Help: "The total number of bucket threads brought up to date.",
		}),
		BucketSyncFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tankbot_bucket_sync_failures_total",
			Help: "The total number of bucket thread updates that failed.",
		}),
		AnnouncementsSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tankbot_announcements_sent_total",
			Help: "The total number of record announcements successfully sent.",
		}),
		AnnouncementsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tankbot_announcements_failed_total",
			Help: "The total number of record announcements that failed to send.",
		}),
		Backups: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tankbot_backups_total",
			Help: "The total number of backups delivered.",
		}),
		BackupsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tankbot_backups_failed_total",
			Help: "The total number of backup runs that failed.",
		}),
		BackupDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "tankbot_backup_duration_seconds",
			Help:    "The duration of backup runs.",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),
		Verifications: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tankbot_backup_verifications_total",
			Help: "The total number of backup verifications that passed.",
		}),
		VerificationsFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "tankbot_backup_verifications_failed_total",
			Help: "The total number of backup verifications that failed.",
		}),
		StartupTimeSeconds: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "tankbot_startup_duration_seconds",
			Help: "The duration of the application startup in seconds.",
		}),
	}

	reg.MustRegister(
		s.Submissions,
		s.BucketSyncs,
		s.BucketSyncFailed,
		s.AnnouncementsSent,
		s.AnnouncementsFailed,
		s.Backups,
		s.BackupsFailed,
		s.BackupDuration,
		s.Verifications,
		s.VerificationsFailed,
		s.StartupTimeSeconds,
	)

	return s
}

func (s *Service) IncSubmissions() {
	s.Submissions.Inc()
}

func (s *Service) IncBucketSyncs() {
	s.BucketSyncs.Inc()
}

func (s *Service) IncBucketSyncFailed() {
	s.BucketSyncFailed.Inc()
}

func (s *Service) IncAnnouncementsSent() {
	s.AnnouncementsSent.Inc()
}

func (s *Service) IncAnnouncementsFailed() {
	s.AnnouncementsFailed.Inc()
}

func (s *Service) IncBackups() {
	s.Backups.Inc()
}

func (s *Service) IncBackupsFailed() {
	s.BackupsFailed.Inc()
}

func (s *Service) ObserveBackupDuration(duration float64) {
	s.BackupDuration.Observe(duration)
}

func (s *Service) IncVerifications() {
	s.Verifications.Inc()
}

func (s *Service) IncVerificationsFailed() {
	s.VerificationsFailed.Inc()
}

func (s *Service) SetStartupTime(duration float64) {
	s.StartupTimeSeconds.Set(duration)
}
