// Package account resolves the member whose bookings the engine works on.
package account

import (
	"context"
	"errors"
	"strings"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Resolver looks up the current member account. ok is false when no account is known.
type Resolver interface {
	Resolve(ctx context.Context) (account string, ok bool)
}

// Static always returns the same account; an empty value resolves to nothing.
type Static string

func (s Static) Resolve(context.Context) (string, bool) {
	v := strings.TrimSpace(string(s))
	return v, v != ""
}

// RedisResolver reads the persisted session account from a redis key.
// Lookups are best effort: errors are logged and treated as "unknown".
type RedisResolver struct {
	client *redis.Client
	key    string
	logger zerolog.Logger
}

func NewRedisResolver(client *redis.Client, key string, logger *zerolog.Logger) *RedisResolver {
	return &RedisResolver{
		client: client,
		key:    key,
		logger: logger.With().Str("component", "account").Logger(),
	}
}

func (r *RedisResolver) Resolve(ctx context.Context) (string, bool) {
	val, err := r.client.Get(ctx, r.key).Result()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			r.logger.Warn().Err(err).Str("key", r.key).Msg("account lookup failed")
		}
		return "", false
	}
	val = strings.TrimSpace(val)
	return val, val != ""
}

// Store persists the account for later resolution.
func (r *RedisResolver) Store(ctx context.Context, account string) error {
	return r.client.Set(ctx, r.key, account, 0).Err()
}

// Chain tries resolvers in order and returns the first known account.
type Chain []Resolver

func (c Chain) Resolve(ctx context.Context) (string, bool) {
	for _, r := range c {
		if r == nil {
			continue
		}
		if v, ok := r.Resolve(ctx); ok {
			return v, true
		}
	}
	return "", false
}
