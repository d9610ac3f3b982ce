package helpers

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisDenylist(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	d := NewRedisDenylist(rdb)
	ctx := context.Background()

	denied, err := d.IsDenied(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, denied)

	require.NoError(t, d.Deny(ctx, "jti-1", time.Now().Add(time.Hour)))
	denied, err = d.IsDenied(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, denied)

	ttl := mr.TTL("token:denylist:jti-1")
	assert.Greater(t, ttl, 59*time.Minute)
	assert.LessOrEqual(t, ttl, time.Hour)

	// entries vanish once the token would have expired anyway
	mr.FastForward(time.Hour + time.Second)
	denied, err = d.IsDenied(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, denied)
}

func TestRedisDenylist_AlreadyExpiredIsNoop(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	d := NewRedisDenylist(rdb)

	require.NoError(t, d.Deny(context.Background(), "old", time.Now().Add(-time.Minute)))
	assert.False(t, mr.Exists("token:denylist:old"))
}

func TestRedisDenylist_Unavailable(t *testing.T) {
	d := NewRedisDenylist(nil)
	_, err := d.IsDenied(context.Background(), "x")
	assert.ErrorIs(t, err, ErrDenylistUnavailable)
	assert.ErrorIs(t, d.Deny(context.Background(), "x", time.Now().Add(time.Minute)), ErrDenylistUnavailable)
}
