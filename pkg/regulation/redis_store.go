package regulation

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const attemptKeyPrefix = "gatewarden:attempts:"

// attemptRetention bounds how long attempt records are kept. Records older
// than this can never influence a regulation decision again.
const attemptRetention = 24 * time.Hour

// RedisStore persists authentication attempts in a redis sorted set per
// username, scored by the attempt timestamp so windowed reads are a single
// range query.
type RedisStore struct {
	client redis.UniversalClient
}

// NewRedisStore builds a Store over an existing redis client.
func NewRedisStore(client redis.UniversalClient) *RedisStore {
	return &RedisStore{client: client}
}

// NewRedisStoreFromURL builds a Store from a redis connection URL
// (eg: redis://HOST[:PORT]).
func NewRedisStoreFromURL(url string) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("unable to parse redis url: %w", err)
	}
	return NewRedisStore(redis.NewClient(opts)), nil
}

// AppendAttempt appends one attempt record and prunes records beyond the
// retention horizon.
func (s *RedisStore) AppendAttempt(ctx context.Context, attempt Attempt) error {
	payload, err := json.Marshal(attempt)
	if err != nil {
		return fmt.Errorf("error marshalling attempt record: %w", err)
	}

	key := attemptKeyPrefix + attempt.Username
	horizon := attempt.Time.Add(-attemptRetention)

	pipe := s.client.TxPipeline()
	pipe.ZAdd(ctx, key, redis.Z{
		Score:  float64(attempt.Time.UnixNano()),
		Member: payload,
	})
	pipe.ZRemRangeByScore(ctx, key, "-inf", strconv.FormatInt(horizon.UnixNano(), 10))
	pipe.Expire(ctx, key, attemptRetention)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("error persisting attempt record: %w", err)
	}
	return nil
}

// LoadAttempts returns the attempts for username recorded at or after since,
// newest first.
func (s *RedisStore) LoadAttempts(ctx context.Context, username string, since time.Time) ([]Attempt, error) {
	key := attemptKeyPrefix + username
	members, err := s.client.ZRevRangeByScore(ctx, key, &redis.ZRangeBy{
		Min: strconv.FormatInt(since.UnixNano(), 10),
		Max: "+inf",
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("error loading attempt records: %w", err)
	}

	attempts := make([]Attempt, 0, len(members))
	for _, member := range members {
		var attempt Attempt
		if err := json.Unmarshal([]byte(member), &attempt); err != nil {
			return nil, fmt.Errorf("error unmarshalling attempt record: %w", err)
		}
		attempts = append(attempts, attempt)
	}
	return attempts, nil
}

// VerifyConnection checks the backing redis is reachable.
func (s *RedisStore) VerifyConnection(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
