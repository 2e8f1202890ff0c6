// Package redis implements the token revocation store on Redis.
package redis

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/Auth-ism/ann-ai-backend/pkg/cryptox"
)

// blacklistKeyPrefix namespaces revocation entries in the shared store.
const blacklistKeyPrefix = "blacklisted_jwt:"

// defaultOpTimeout bounds every round-trip so a slow store fails the request
// instead of hanging it.
const defaultOpTimeout = 3 * time.Second

// Blacklist records revoked token fingerprints with automatic expiry. The
// raw token never reaches the store; entries are keyed by its SHA-256
// fingerprint and expire with the token's remaining lifetime, so the set
// cannot grow beyond tokens that are still otherwise valid.
type Blacklist struct {
	client    *redis.Client
	opTimeout time.Duration
}

// NewBlacklist connects to the Redis instance at the given URL and verifies
// reachability. Operations are bounded by the default timeout.
func NewBlacklist(ctx context.Context, url string) (*Blacklist, error) {
	return NewBlacklistTimeout(ctx, url, defaultOpTimeout)
}

// NewBlacklistTimeout is NewBlacklist with an explicit per-operation
// timeout. Non-positive values fall back to the default.
func NewBlacklistTimeout(ctx context.Context, url string, opTimeout time.Duration) (*Blacklist, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("redis: invalid url: %w", err)
	}
	if opTimeout <= 0 {
		opTimeout = defaultOpTimeout
	}

	b := &Blacklist{
		client:    redis.NewClient(opts),
		opTimeout: opTimeout,
	}

	pingCtx, cancel := context.WithTimeout(ctx, b.opTimeout)
	defer cancel()
	if err := b.client.Ping(pingCtx).Err(); err != nil {
		_ = b.client.Close()
		return nil, fmt.Errorf("redis: ping failed: %w", err)
	}

	return b, nil
}

// Blacklist writes the token's revocation entry with the given ttl in a
// single SET-with-expiry call, so the key and its lifetime land atomically.
// A non-positive ttl means the token has already expired; revoking a dead
// token is a no-op, not an error. Re-blacklisting overwrites idempotently.
func (b *Blacklist) Blacklist(ctx context.Context, token string, subjectID int64, ttl time.Duration) error {
	if ttl <= 0 {
		return nil
	}

	key := blacklistKeyPrefix + cryptox.FingerprintToken(token)

	opCtx, cancel := context.WithTimeout(ctx, b.opTimeout)
	defer cancel()

	if err := b.client.Set(opCtx, key, strconv.FormatInt(subjectID, 10), ttl).Err(); err != nil {
		return fmt.Errorf("redis: blacklist write failed: %w", err)
	}
	return nil
}

// IsBlacklisted looks up the token's fingerprint. Absence means "not
// revoked"; any store failure propagates so callers can fail closed.
func (b *Blacklist) IsBlacklisted(ctx context.Context, token string) (bool, error) {
	key := blacklistKeyPrefix + cryptox.FingerprintToken(token)

	opCtx, cancel := context.WithTimeout(ctx, b.opTimeout)
	defer cancel()

	n, err := b.client.Exists(opCtx, key).Result()
	if err != nil {
		return false, fmt.Errorf("redis: blacklist lookup failed: %w", err)
	}
	return n > 0, nil
}

// Ping verifies the store is reachable.
func (b *Blacklist) Ping(ctx context.Context) error {
	opCtx, cancel := context.WithTimeout(ctx, b.opTimeout)
	defer cancel()
	return b.client.Ping(opCtx).Err()
}

func (b *Blacklist) Close() error { return b.client.Close() }
