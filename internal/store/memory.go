package store

import (
	"maps"
	"sync"
	"time"

	"github.com/google/uuid"
)

// subscriberBuffer is the channel buffer of each subscriber.
const subscriberBuffer = 100

// MemoryStore is an in-memory implementation of [Store].
//
// Subscribers receive updates via buffered channels. Updates are sent
// non-blocking; if a subscriber's buffer is full, the update is dropped for
// that subscriber.
type MemoryStore struct {
	mu          sync.RWMutex
	sessions    map[string]Session
	subscribers map[chan Session]struct{}
	subMu       sync.RWMutex
	now         func() time.Time
}

// NewMemoryStore creates a new in-memory [Store] implementation.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		sessions:    make(map[string]Session),
		subscribers: make(map[chan Session]struct{}),
		now:         time.Now,
	}
}

// Create stores s as a pending session.
func (m *MemoryStore) Create(s Session) Session {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	s.Query = maps.Clone(s.Query)
	s.Status = StatusPending
	s.Polls = 0
	s.CreatedAt = m.now()
	s.UpdatedAt = s.CreatedAt
	if s.PollsNeeded <= 0 {
		s.Status = StatusComplete
	}

	m.mu.Lock()
	m.sessions[s.ID] = s
	m.mu.Unlock()

	m.notifySubscribers(s)
	return copySession(s)
}

// Get returns a copy of the session with the given ID.
func (m *MemoryStore) Get(id string) (Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	s, ok := m.sessions[id]
	if !ok {
		return Session{}, false
	}
	return copySession(s), true
}

// Advance records one answered poll for the session.
//
// Polls keep counting after completion. Subscribers are only notified on
// the transition to [StatusComplete].
func (m *MemoryStore) Advance(id string) (Session, bool) {
	m.mu.Lock()
	s, ok := m.sessions[id]
	if !ok {
		m.mu.Unlock()
		return Session{}, false
	}

	s.Polls++
	s.UpdatedAt = m.now()
	completed := false
	if s.Status == StatusPending && s.Polls >= s.PollsNeeded {
		s.Status = StatusComplete
		completed = true
	}
	m.sessions[id] = s
	m.mu.Unlock()

	if completed {
		m.notifySubscribers(s)
	}
	return copySession(s), true
}

// GetAll returns a snapshot of all stored sessions. Order is not guaranteed.
func (m *MemoryStore) GetAll() []Session {
	m.mu.RLock()
	defer m.mu.RUnlock()

	sessions := make([]Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		sessions = append(sessions, copySession(s))
	}
	return sessions
}

// Subscribe creates a new subscription and returns a channel for receiving updates.
//
// Caller must call [MemoryStore.Unsubscribe] when done to prevent resource leaks.
func (m *MemoryStore) Subscribe() <-chan Session {
	ch := make(chan Session, subscriberBuffer)

	m.subMu.Lock()
	m.subscribers[ch] = struct{}{}
	m.subMu.Unlock()

	return ch
}

// Unsubscribe removes a subscription and closes its channel.
// Safe to call multiple times or with an unknown channel.
func (m *MemoryStore) Unsubscribe(ch <-chan Session) {
	m.subMu.Lock()
	defer m.subMu.Unlock()

	for subCh := range m.subscribers {
		if subCh == ch {
			delete(m.subscribers, subCh)
			close(subCh)
			break
		}
	}
}

// notifySubscribers sends s to all active subscribers without blocking.
func (m *MemoryStore) notifySubscribers(s Session) {
	m.subMu.RLock()
	defer m.subMu.RUnlock()

	for ch := range m.subscribers {
		select {
		case ch <- copySession(s):
		default:
			// subscriber is slow, drop the message
		}
	}
}

func copySession(s Session) Session {
	s.Query = maps.Clone(s.Query)
	return s
}
