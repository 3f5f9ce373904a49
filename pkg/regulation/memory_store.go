package regulation

import (
	"context"
	"sync"
	"time"
)

// InMemoryStore is an in-memory implementation of the attempt Store,
// suitable for single-instance deployments and tests.
type InMemoryStore struct {
	mu       sync.RWMutex
	attempts map[string][]Attempt
}

// NewInMemoryStore creates a new instance of InMemoryStore.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		attempts: make(map[string][]Attempt),
	}
}

// AppendAttempt appends one attempt record.
func (s *InMemoryStore) AppendAttempt(_ context.Context, attempt Attempt) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.attempts[attempt.Username] = append(s.attempts[attempt.Username], attempt)
	return nil
}

// LoadAttempts returns the attempts for username recorded at or after since,
// newest first.
func (s *InMemoryStore) LoadAttempts(_ context.Context, username string, since time.Time) ([]Attempt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	records := s.attempts[username]
	attempts := make([]Attempt, 0, len(records))
	for i := len(records) - 1; i >= 0; i-- {
		if records[i].Time.Before(since) {
			continue
		}
		attempts = append(attempts, records[i])
	}
	return attempts, nil
}
