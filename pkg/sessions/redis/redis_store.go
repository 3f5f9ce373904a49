package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/gatewarden/gatewarden/pkg/apis/options"
	"github.com/gatewarden/gatewarden/pkg/apis/sessions"
	"github.com/gatewarden/gatewarden/pkg/sessions/persistence"
)

const sessionKeyPrefix = "gatewarden:session:"

// SessionStore is an implementation of the persistence.Store interface that
// stores session records in redis.
type SessionStore struct {
	client redis.UniversalClient
}

// NewRedisSessionStore initialises a redis backed sessions.SessionStore from
// the configuration given.
func NewRedisSessionStore(opts options.Session, cookieOpts *options.Cookie) (sessions.SessionStore, error) {
	redisOpts, err := redis.ParseURL(opts.RedisConnectionURL)
	if err != nil {
		return nil, fmt.Errorf("unable to parse redis url: %w", err)
	}

	rs := &SessionStore{
		client: redis.NewClient(redisOpts),
	}
	return persistence.NewManager(rs, cookieOpts), nil
}

// NewStoreFromClient builds a persistence.Store over an existing client.
func NewStoreFromClient(client redis.UniversalClient) *SessionStore {
	return &SessionStore{client: client}
}

// Save takes the marshalled session record and stores it in redis.
func (s *SessionStore) Save(ctx context.Context, key string, value []byte, exp time.Duration) error {
	if err := s.client.Set(ctx, sessionKeyPrefix+key, value, exp).Err(); err != nil {
		return fmt.Errorf("%w: error saving session: %v", sessions.ErrBackendUnavailable, err)
	}
	return nil
}

// Load reads the marshalled session record from redis.
func (s *SessionStore) Load(ctx context.Context, key string) ([]byte, error) {
	value, err := s.client.Get(ctx, sessionKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, sessions.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: error loading session: %v", sessions.ErrBackendUnavailable, err)
	}
	return value, nil
}

// Clear removes the session record from redis.
func (s *SessionStore) Clear(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, sessionKeyPrefix+key).Err(); err != nil {
		return fmt.Errorf("%w: error clearing session: %v", sessions.ErrBackendUnavailable, err)
	}
	return nil
}

// VerifyConnection checks the backing redis is reachable.
func (s *SessionStore) VerifyConnection(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("%w: %v", sessions.ErrBackendUnavailable, err)
	}
	return nil
}
