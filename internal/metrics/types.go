package metrics

import "github.com/prometheus/client_golang/prometheus"

// Keys of the persistent counters.
const (
	KeyThreadsCreated   = "bucket_threads_created"
	KeyRecordsAnnounced = "records_announced"
	KeyBackupsDelivered = "backups_delivered"
)

// Service holds all the Prometheus metrics for the application.
// By defining them all in one place, we ensure consistency in naming and labeling.
type Service struct {
	Submissions         prometheus.Counter
	BucketSyncs         prometheus.Counter
	BucketSyncFailed    prometheus.Counter
	AnnouncementsSent   prometheus.Counter
	AnnouncementsFailed prometheus.Counter
	Backups             prometheus.Counter
	BackupsFailed       prometheus.Counter
	BackupDuration      prometheus.Histogram
	Verifications       prometheus.Counter
	VerificationsFailed prometheus.Counter
	StartupTimeSeconds  prometheus.Gauge
}
