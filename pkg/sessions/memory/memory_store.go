package memory

import (
	"context"
	"sync"
	"time"

	"github.com/gatewarden/gatewarden/pkg/apis/options"
	"github.com/gatewarden/gatewarden/pkg/apis/sessions"
	"github.com/gatewarden/gatewarden/pkg/sessions/persistence"
)

// InMemoryStore is an in-memory implementation of the persistence.Store
// interface, suitable for single-instance deployments and tests.
type InMemoryStore struct {
	mu       sync.RWMutex
	store    map[string][]byte
	timeouts map[string]time.Time
}

// NewInMemoryStore creates an in-memory backed sessions.SessionStore.
func NewInMemoryStore(cookieOpts *options.Cookie) sessions.SessionStore {
	ims := &InMemoryStore{
		store:    make(map[string][]byte),
		timeouts: make(map[string]time.Time),
	}

	return persistence.NewManager(ims, cookieOpts)
}

// Save stores the session data in memory with a specified expiration time.
func (s *InMemoryStore) Save(_ context.Context, key string, value []byte, expiration time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.store[key] = value
	s.timeouts[key] = time.Now().Add(expiration)
	return nil
}

// Load retrieves the session data from memory.
func (s *InMemoryStore) Load(_ context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if timeout, ok := s.timeouts[key]; ok && time.Now().After(timeout) {
		delete(s.store, key)
		delete(s.timeouts, key)
		return nil, sessions.ErrNotFound
	}

	value, ok := s.store[key]
	if !ok {
		return nil, sessions.ErrNotFound
	}
	return value, nil
}

// Clear removes the session data from memory.
func (s *InMemoryStore) Clear(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.store, key)
	delete(s.timeouts, key)
	return nil
}

// VerifyConnection always succeeds for the in-memory store.
func (s *InMemoryStore) VerifyConnection(_ context.Context) error {
	return nil
}
