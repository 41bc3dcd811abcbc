package metrics

import "sync"

var _ Metrics = (*Mock)(nil)

// Mock is a mock implementation of the Metrics interface for testing.
// It is safe for concurrent use.
type Mock struct {
	mu                  sync.Mutex
	submissions         int
	bucketSyncs         int
	bucketSyncFailed    int
	announcementsSent   int
	announcementsFailed int
	backups             int
	backupsFailed       int
	verifications       int
	verificationsFailed int
	backupDurations     []float64
	startupTime         float64
}

// NewMock creates a new mock instance.
func NewMock() *Mock {
	return &Mock{
		backupDurations: make([]float64, 0),
	}
}

func (m *Mock) IncSubmissions() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.submissions++
}

func (m *Mock) IncBucketSyncs() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bucketSyncs++
}

func (m *Mock) IncBucketSyncFailed() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.bucketSyncFailed++
}

func (m *Mock) IncAnnouncementsSent() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.announcementsSent++
}

func (m *Mock) IncAnnouncementsFailed() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.announcementsFailed++
}

func (m *Mock) IncBackups() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.backups++
}

func (m *Mock) IncBackupsFailed() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.backupsFailed++
}

func (m *Mock) IncVerifications() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.verifications++
}

func (m *Mock) IncVerificationsFailed() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.verificationsFailed++
}

func (m *Mock) ObserveBackupDuration(duration float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.backupDurations = append(m.backupDurations, duration)
}

func (m *Mock) SetStartupTime(duration float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.startupTime = duration
}

// Submissions returns the number of times IncSubmissions was called.
func (m *Mock) Submissions() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.submissions
}

// BucketSyncs returns the number of times IncBucketSyncs was called.
func (m *Mock) BucketSyncs() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.bucketSyncs
}

// BucketSyncFailed returns the number of times IncBucketSyncFailed was called.
func (m *Mock) BucketSyncFailed() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.bucketSyncFailed
}

// AnnouncementsSent returns the number of times IncAnnouncementsSent was called.
func (m *Mock) AnnouncementsSent() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.announcementsSent
}

// AnnouncementsFailed returns the number of times IncAnnouncementsFailed was called.
func (m *Mock) AnnouncementsFailed() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.announcementsFailed
}

// Backups returns the number of times IncBackups was called.
func (m *Mock) Backups() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.backups
}

// BackupsFailed returns the number of times IncBackupsFailed was called.
func (m *Mock) BackupsFailed() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.backupsFailed
}

// Verifications returns the number of times IncVerifications was called.
func (m *Mock) Verifications() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.verifications
}

// VerificationsFailed returns the number of times IncVerificationsFailed was called.
func (m *Mock) VerificationsFailed() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.verificationsFailed
}

// BackupDurations returns every observed backup duration.
func (m *Mock) BackupDurations() []float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]float64(nil), m.backupDurations...)
}
