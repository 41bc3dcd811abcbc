package metrics

// Metrics defines the interface for collecting application metrics.
// This decouples the application from the specific metrics implementation (e.g., Prometheus).
type Metrics interface {
	IncSubmissions()
	IncBucketSyncs()
	IncBucketSyncFailed()
	IncAnnouncementsSent()
	IncAnnouncementsFailed()
	IncBackups()
	IncBackupsFailed()
	ObserveBackupDuration(duration float64)
	IncVerifications()
	IncVerificationsFailed()
	SetStartupTime(duration float64)
}

// MetricsStore keeps counters that survive restarts.
type MetricsStore interface {
	Increment(key string)
	GetAll() (map[string]int, error)
}
