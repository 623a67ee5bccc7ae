package audit

import (
	"context"
	"sync"
)

// DefaultCapacity bounds InMemoryStore when no capacity is given.
const DefaultCapacity = 10000

// Store appends events. Implementations must be safe for concurrent use.
type Store interface {
	Append(ctx context.Context, event Event) error
}

// InMemoryStore keeps the most recent events, indexed per session. Once
// full, the oldest event is dropped for each new one.
type InMemoryStore struct {
	mu       sync.RWMutex
	capacity int
	events   map[string][]Event
	order    []Event
}

// NewInMemoryStore builds a store holding up to capacity events
// (DefaultCapacity when omitted or not positive).
func NewInMemoryStore(capacity ...int) *InMemoryStore {
	c := DefaultCapacity
	if len(capacity) > 0 && capacity[0] > 0 {
		c = capacity[0]
	}
	return &InMemoryStore{capacity: c, events: make(map[string][]Event)}
}

func (s *InMemoryStore) Append(_ context.Context, event Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[event.SessionID] = append(s.events[event.SessionID], event)
	s.order = append(s.order, event)
	for len(s.order) > s.capacity {
		oldest := s.order[0]
		s.order = s.order[1:]
		if rest := s.events[oldest.SessionID][1:]; len(rest) > 0 {
			s.events[oldest.SessionID] = rest
		} else {
			delete(s.events, oldest.SessionID)
		}
	}
	return nil
}

func (s *InMemoryStore) ListBySession(_ context.Context, sessionID string) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Event{}, s.events[sessionID]...), nil
}

// ListRecent returns up to limit events, newest last.
func (s *InMemoryStore) ListRecent(_ context.Context, limit int) ([]Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	start := len(s.order) - limit
	if start < 0 {
		start = 0
	}
	return append([]Event{}, s.order[start:]...), nil
}
