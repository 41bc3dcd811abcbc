package notifier

import (
	"context"
	"sync"
)

var _ Notifier = (*Mock)(nil)

// Mock is a mock implementation of the Notifier interface for testing.
// It is safe for concurrent use.
type Mock struct {
	mu sync.Mutex

	AnnounceRecordFunc func(a Announcement) error

	// Call records
	announcements []Announcement
}

// NewMock creates a new mock instance.
func NewMock() *Mock {
	return &Mock{}
}

func (m *Mock) AnnounceRecord(_ context.Context, a Announcement) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.announcements = append(m.announcements, a)
	if m.AnnounceRecordFunc != nil {
		return m.AnnounceRecordFunc(a)
	}
	return nil
}

// Announcements returns every announcement received so far.
func (m *Mock) Announcements() []Announcement {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Announcement(nil), m.announcements...)
}

// Reset clears all call records.
func (m *Mock) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.announcements = nil
}
