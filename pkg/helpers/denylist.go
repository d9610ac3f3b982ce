package helpers

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

var ErrDenylistUnavailable = errors.New("token denylist unavailable")

// RedisDenylist records invalidated refresh tokens by jti until they
// would have expired anyway.
type RedisDenylist struct {
	rdb *redis.Client
}

func NewRedisDenylist(rdb *redis.Client) *RedisDenylist {
	return &RedisDenylist{rdb: rdb}
}

func keyDenied(jti string) string { return "token:denylist:" + jti }

func (d *RedisDenylist) Deny(ctx context.Context, jti string, until time.Time) error {
	if d == nil || d.rdb == nil {
		return ErrDenylistUnavailable
	}
	ttl := time.Until(until)
	if ttl <= 0 {
		return nil
	}
	return d.rdb.Set(ctx, keyDenied(jti), "1", ttl).Err()
}

func (d *RedisDenylist) IsDenied(ctx context.Context, jti string) (bool, error) {
	if d == nil || d.rdb == nil {
		return false, ErrDenylistUnavailable
	}
	n, err := d.rdb.Exists(ctx, keyDenied(jti)).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
