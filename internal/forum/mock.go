package forum

import (
	"context"
	"fmt"
	"sync"
)

var _ ThreadAPI = (*Mock)(nil)

// MockThread is the state the Mock keeps per thread.
type MockThread struct {
	Thread
	Content string
	TagIDs  []string
	Pinned  bool
	Locked  bool
}

// Mock is an in-memory implementation of ThreadAPI for testing.
// Set a ...Func hook to make an operation fail. It is safe for concurrent use.
type Mock struct {
	mu      sync.Mutex
	forums  map[string]*Forum
	threads map[string]*MockThread
	nextID  int

	ForumFunc        func(forumID string) error
	EnsureTagsFunc   func(forumID string, names []string) error
	CreateThreadFunc func(forumID, title string) error
	EditThreadFunc   func(threadID string) error
	EditStarterFunc  func(threadID string) error
	PinStarterFunc   func(threadID string) error
	SetLockedFunc    func(threadID string, locked bool) error

	// Call records
	CreateThreadCalls []string
	EditStarterCalls  []string
	SetLockedCalls    []struct {
		ThreadID string
		Locked   bool
	}
}

// NewMock creates a Mock with the given forum channels and no tags.
func NewMock(forumIDs ...string) *Mock {
	m := &Mock{
		forums:  map[string]*Forum{},
		threads: map[string]*MockThread{},
	}
	for _, id := range forumIDs {
		m.forums[id] = &Forum{ID: id}
	}
	return m
}

func (m *Mock) Forum(_ context.Context, forumID string) (Forum, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ForumFunc != nil {
		if err := m.ForumFunc(forumID); err != nil {
			return Forum{}, err
		}
	}
	f, ok := m.forums[forumID]
	if !ok {
		return Forum{}, fmt.Errorf("unknown channel %s", forumID)
	}
	return Forum{ID: f.ID, Tags: append([]Tag(nil), f.Tags...)}, nil
}

func (m *Mock) EnsureTags(_ context.Context, forumID string, names []string) (Forum, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.EnsureTagsFunc != nil {
		if err := m.EnsureTagsFunc(forumID, names); err != nil {
			return Forum{}, err
		}
	}
	f, ok := m.forums[forumID]
	if !ok {
		return Forum{}, fmt.Errorf("unknown channel %s", forumID)
	}
	for _, name := range names {
		if _, exists := f.TagID(name); !exists {
			m.nextID++
			f.Tags = append(f.Tags, Tag{ID: fmt.Sprintf("tag-%d", m.nextID), Name: name})
		}
	}
	return Forum{ID: f.ID, Tags: append([]Tag(nil), f.Tags...)}, nil
}

func (m *Mock) CreateThread(_ context.Context, forumID, title, content string, tagIDs []string) (Thread, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CreateThreadCalls = append(m.CreateThreadCalls, title)
	if m.CreateThreadFunc != nil {
		if err := m.CreateThreadFunc(forumID, title); err != nil {
			return Thread{}, err
		}
	}
	m.nextID++
	th := &MockThread{
		Thread:  Thread{ID: fmt.Sprintf("thread-%d", m.nextID), ForumID: forumID, Name: title},
		Content: content,
		TagIDs:  tagIDs,
	}
	m.threads[th.ID] = th
	return th.Thread, nil
}

func (m *Mock) Thread(_ context.Context, threadID string) (Thread, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	th, ok := m.threads[threadID]
	if !ok {
		return Thread{}, fmt.Errorf("unknown thread %s", threadID)
	}
	return th.Thread, nil
}

func (m *Mock) EditThread(_ context.Context, threadID, title string, tagIDs []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.EditThreadFunc != nil {
		if err := m.EditThreadFunc(threadID); err != nil {
			return err
		}
	}
	th, ok := m.threads[threadID]
	if !ok {
		return fmt.Errorf("unknown thread %s", threadID)
	}
	th.Name = title
	th.TagIDs = tagIDs
	return nil
}

func (m *Mock) EditStarter(_ context.Context, threadID, content string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.EditStarterCalls = append(m.EditStarterCalls, threadID)
	if m.EditStarterFunc != nil {
		if err := m.EditStarterFunc(threadID); err != nil {
			return err
		}
	}
	th, ok := m.threads[threadID]
	if !ok {
		return fmt.Errorf("unknown thread %s", threadID)
	}
	th.Content = content
	return nil
}

func (m *Mock) PinStarter(_ context.Context, threadID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.PinStarterFunc != nil {
		if err := m.PinStarterFunc(threadID); err != nil {
			return err
		}
	}
	th, ok := m.threads[threadID]
	if !ok {
		return fmt.Errorf("unknown thread %s", threadID)
	}
	th.Pinned = true
	return nil
}

func (m *Mock) SetLocked(_ context.Context, threadID string, locked bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SetLockedCalls = append(m.SetLockedCalls, struct {
		ThreadID string
		Locked   bool
	}{threadID, locked})
	if m.SetLockedFunc != nil {
		if err := m.SetLockedFunc(threadID, locked); err != nil {
			return err
		}
	}
	th, ok := m.threads[threadID]
	if !ok {
		return fmt.Errorf("unknown thread %s", threadID)
	}
	th.Locked = locked
	return nil
}

// Threads returns a copy of every thread keyed by id.
func (m *Mock) Threads() map[string]MockThread {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[string]MockThread, len(m.threads))
	for id, th := range m.threads {
		out[id] = *th
	}
	return out
}

// DeleteThread removes a thread, as a moderator would.
func (m *Mock) DeleteThread(threadID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.threads, threadID)
}
