package services

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

const blacklistPrefix = "blacklist:jti:"

// RedisTokenBlacklist stores revoked token ids until the token would have
// expired anyway.
type RedisTokenBlacklist struct {
	Client redis.UniversalClient
}

func NewTokenBlacklist(client redis.UniversalClient) *RedisTokenBlacklist {
	return &RedisTokenBlacklist{Client: client}
}

func (tb *RedisTokenBlacklist) Revoke(ctx context.Context, jti string, expiresAt time.Time) error {
	ttl := time.Until(expiresAt)
	if ttl <= 0 {
		return nil
	}
	if err := tb.Client.Set(ctx, blacklistPrefix+jti, "1", ttl).Err(); err != nil {
		return errors.Wrap(err, "blacklisting token")
	}
	return nil
}

func (tb *RedisTokenBlacklist) IsRevoked(ctx context.Context, jti string) (bool, error) {
	n, err := tb.Client.Exists(ctx, blacklistPrefix+jti).Result()
	if err != nil {
		return false, errors.Wrap(err, "checking token blacklist")
	}
	return n > 0, nil
}
