package authgw

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.od2.network/bearergw/pkg/token"
)

func TestCache_Invalidate(t *testing.T) {
	backend := &mockBackend{
		setUser: "u1",
	}
	cache, err := NewCache(backend, 16, 30*24*time.Hour)
	require.NoError(t, err)
	// Write some random entries to the cache.
	for i := 0; i < 64; i++ {
		_, err := cache.LookupSlow(context.TODO(), fmt.Sprintf("random-%d", i))
		require.NoError(t, err)
	}
	// Write 8 more recent entries.
	var toks [8]string
	for i := range toks {
		toks[i] = fmt.Sprintf("recent-%d", i)
		_, err := cache.LookupToken(context.TODO(), toks[i])
		require.NoError(t, err)
	}
	assert.Equal(t, 16, cache.Cache.Len())
	// Pretend all tokens were reassigned.
	backend.setUser = "u2"
	// Re-request the entries.
	// The cache should be stale, since there were no invalidation events yet.
	for _, tok := range toks {
		info, err := cache.LookupToken(context.TODO(), tok)
		assert.NoError(t, err)
		assert.Equal(t, "u1", info.UserID)
	}
	// Invalidate every other entry.
	for i := 1; i < 8; i += 2 {
		assert.True(t, cache.Invalidate(token.Hash(toks[i])))
	}
	// Re-request the entries, again.
	// Every other token resolves to the new user now.
	for i, tok := range toks {
		info, err := cache.LookupToken(context.TODO(), tok)
		assert.NoError(t, err)
		if i%2 == 0 {
			assert.Equal(t, "u1", info.UserID, i)
		} else {
			assert.Equal(t, "u2", info.UserID, i)
		}
	}
}

func TestCache_Unknown(t *testing.T) {
	backend := &mockBackend{setErr: ErrUnknown}
	cache, err := NewCache(backend, 16, time.Hour)
	require.NoError(t, err)
	_, err = cache.LookupToken(context.TODO(), "tok")
	assert.True(t, errors.Is(err, ErrUnknown))
	// Misses are not cached.
	backend.setErr = nil
	backend.setUser = "u1"
	info, err := cache.LookupToken(context.TODO(), "tok")
	require.NoError(t, err)
	assert.Equal(t, "u1", info.UserID)
	assert.Equal(t, 2, backend.calls)
}

func TestCache_CopiesRecords(t *testing.T) {
	backend := &mockBackend{setUser: "u1"}
	cache, err := NewCache(backend, 16, time.Hour)
	require.NoError(t, err)
	info, err := cache.LookupToken(context.TODO(), "tok")
	require.NoError(t, err)
	info.UserID = "mutated"
	info, err = cache.LookupToken(context.TODO(), "tok")
	require.NoError(t, err)
	assert.Equal(t, "u1", info.UserID)
	assert.Equal(t, 1, backend.calls)
}

// mockBackend always returns the specified result.
type mockBackend struct {
	setUser string
	setErr  error
	calls   int
}

// LookupToken always returns the result specified in mockBackend.
func (m *mockBackend) LookupToken(_ context.Context, _ string) (*TokenInfo, error) {
	m.calls++
	if m.setErr != nil {
		return nil, m.setErr
	}
	return &TokenInfo{
		ExpiresAt: time.Now().Add(time.Hour),
		UserID:    m.setUser,
	}, nil
}

// Assert mockBackend implements Backend.
var _ Backend = (*mockBackend)(nil)
