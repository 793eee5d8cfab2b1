package authgw

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.od2.network/bearergw/pkg/oauth2err"
	"go.od2.network/bearergw/pkg/redistest"
	"go.od2.network/bearergw/pkg/token"
)

func TestRedisStore(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	rd := redistest.NewRedis(ctx, t)
	defer rd.Close(t)
	store := &RedisStore{Redis: rd.Client, Prefix: "oauth:access_token:"}
	now := time.Unix(time.Now().Unix(), 0)

	require.NoError(t, rd.Client.HSet(ctx, store.Key("abc123"),
		RedisFieldUserID, "u1",
		RedisFieldExpires, strconv.FormatInt(now.Add(time.Hour).Unix(), 10)).Err())
	require.NoError(t, rd.Client.HSet(ctx, store.Key("noexp"),
		RedisFieldUserID, "u2").Err())
	require.NoError(t, rd.Client.HSet(ctx, store.Key("garbage"),
		RedisFieldUserID, "u3",
		RedisFieldExpires, "tomorrow").Err())

	info, err := store.LookupToken(ctx, "abc123")
	require.NoError(t, err)
	assert.Equal(t, "u1", info.UserID)
	assert.True(t, info.ExpiresAt.Equal(now.Add(time.Hour)))

	v := NewValidator(store, now)
	id, err := v.Validate(ctx, "abc123")
	require.NoError(t, err)
	assert.Equal(t, "u1", id.ID)
	_, err = v.Validate(ctx, "noexp")
	requireProtocolError(t, err, oauth2err.InvalidGrantKind, DescExpiredToken)
	_, err = v.Validate(ctx, "xyz")
	requireProtocolError(t, err, oauth2err.InvalidGrantKind, DescInvalidToken)
	_, err = v.Validate(ctx, "garbage")
	requireProtocolError(t, err, oauth2err.ServerErrorKind, "")
	// Raw tokens never appear in keys.
	assert.NotContains(t, store.Key("abc123"), "abc123")
}

func TestCacheInvalidation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	rd := redistest.NewRedis(ctx, t)
	defer rd.Close(t)

	backend := &mockBackend{setUser: "u1"}
	cache, err := NewCache(backend, 16, time.Hour)
	require.NoError(t, err)
	_, err = cache.LookupToken(ctx, "tok")
	require.NoError(t, err)
	_, err = cache.LookupToken(ctx, "other")
	require.NoError(t, err)

	inv := &CacheInvalidation{
		Cache:     cache,
		Redis:     rd.Client,
		StreamKey: "token-invalidations",
		Backlog:   64,
	}
	require.NoError(t, inv.Add(ctx, token.Hash("tok")))
	require.NoError(t, inv.read(ctx))
	assert.Equal(t, 1, cache.Cache.Len())

	backend.setUser = "u2"
	info, err := cache.LookupToken(ctx, "tok")
	require.NoError(t, err)
	assert.Equal(t, "u2", info.UserID)
	info, err = cache.LookupToken(ctx, "other")
	require.NoError(t, err)
	assert.Equal(t, "u1", info.UserID)

	done := make(chan error, 1)
	runCtx, stop := context.WithCancel(ctx)
	go func() { done <- inv.Run(runCtx) }()
	stop()
	assert.NoError(t, <-done)
}
