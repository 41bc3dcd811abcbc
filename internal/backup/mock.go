package backup

import (
	"context"
	"fmt"
	"sync"
)

var _ Channel = (*MockChannel)(nil)

// MockChannel is an in-memory Channel for testing. Delivered files can be
// downloaded again, like attachments of a real channel.
// It is safe for concurrent use.
type MockChannel struct {
	mu       sync.Mutex
	messages []Message // newest first
	files    map[string][]byte
	nextID   int

	SendFunc     func(d Delivery) error
	HistoryFunc  func(limit int) error
	DownloadFunc func(a Attachment) error

	// Call records
	Deliveries []Delivery
	Posts      []string
}

// NewMockChannel creates a new mock channel.
func NewMockChannel() *MockChannel {
	return &MockChannel{files: map[string][]byte{}}
}

func (m *MockChannel) Send(_ context.Context, _ string, d Delivery) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SendFunc != nil {
		if err := m.SendFunc(d); err != nil {
			return err
		}
	}
	m.Deliveries = append(m.Deliveries, d)
	m.addLocked(d.Filename, d.Data)
	return nil
}

func (m *MockChannel) Post(_ context.Context, _ string, content string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Posts = append(m.Posts, content)
	m.nextID++
	m.messages = append([]Message{{ID: fmt.Sprint(m.nextID)}}, m.messages...)
	return nil
}

func (m *MockChannel) History(_ context.Context, _ string, limit int) ([]Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.HistoryFunc != nil {
		if err := m.HistoryFunc(limit); err != nil {
			return nil, err
		}
	}
	if limit > len(m.messages) {
		limit = len(m.messages)
	}
	return append([]Message(nil), m.messages[:limit]...), nil
}

func (m *MockChannel) Download(_ context.Context, a Attachment) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.DownloadFunc != nil {
		if err := m.DownloadFunc(a); err != nil {
			return nil, err
		}
	}
	data, ok := m.files[a.URL]
	if !ok {
		return nil, fmt.Errorf("attachment %s not found", a.URL)
	}
	return append([]byte(nil), data...), nil
}

// AddAttachment posts a message carrying a file, as a user would.
func (m *MockChannel) AddAttachment(filename string, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.addLocked(filename, data)
}

func (m *MockChannel) addLocked(filename string, data []byte) {
	m.nextID++
	url := fmt.Sprintf("mem://%d/%s", m.nextID, filename)
	m.files[url] = append([]byte(nil), data...)
	m.messages = append([]Message{{
		ID:          fmt.Sprint(m.nextID),
		Attachments: []Attachment{{Filename: filename, URL: url}},
	}}, m.messages...)
}
