package identity

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// SessionStore persists the cart identifier assigned to an anonymous session
// token so repeated requests resolve to the same cart.
type SessionStore interface {
	// Hash returns the stored identifier for the session token, or "" when
	// the token has no identifier yet.
	Hash(ctx context.Context, token string) (string, error)
	// SetHash stores the identifier for the session token.
	SetHash(ctx context.Context, token, hash string) error
}

const sessionKeyPrefix = "cart:session:"

// RedisSessionStore keeps session identifiers in Redis with a sliding TTL.
type RedisSessionStore struct {
	R   *redis.Client
	TTL time.Duration
}

func (s RedisSessionStore) ttl() time.Duration {
	if s.TTL <= 0 {
		return 30 * 24 * time.Hour
	}
	return s.TTL
}

// Hash implements SessionStore.
func (s RedisSessionStore) Hash(ctx context.Context, token string) (string, error) {
	if s.R == nil {
		return "", errors.New("identity: redis client not configured")
	}
	hash, err := s.R.Get(ctx, sessionKeyPrefix+token).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	_ = s.R.Expire(ctx, sessionKeyPrefix+token, s.ttl()).Err()
	return hash, nil
}

// SetHash implements SessionStore.
func (s RedisSessionStore) SetHash(ctx context.Context, token, hash string) error {
	if s.R == nil {
		return errors.New("identity: redis client not configured")
	}
	return s.R.Set(ctx, sessionKeyPrefix+token, hash, s.ttl()).Err()
}
