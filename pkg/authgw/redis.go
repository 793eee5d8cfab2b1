package authgw

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
	"go.od2.network/bearergw/pkg/token"
)

// Redis hash fields of a token record.
const (
	RedisFieldUserID  = "user_id"
	RedisFieldExpires = "expires" // Unix seconds
)

// RedisStore reads token records from Redis hashes keyed by Prefix + fingerprint.
type RedisStore struct {
	Redis  *redis.Client
	Prefix string
}

// Key returns the Redis key of a token.
func (s *RedisStore) Key(tok string) string {
	return s.Prefix + token.Hash(tok).String()
}

// LookupToken reads a token from Redis.
func (s *RedisStore) LookupToken(ctx context.Context, tok string) (*TokenInfo, error) {
	vals, err := s.Redis.HGetAll(ctx, s.Key(tok)).Result()
	if err != nil {
		return nil, err
	}
	if len(vals) == 0 {
		return nil, ErrUnknown
	}
	info := &TokenInfo{UserID: vals[RedisFieldUserID]}
	if expStr := vals[RedisFieldExpires]; expStr != "" {
		exp, err := strconv.ParseInt(expStr, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid %s in %s: %w", RedisFieldExpires, s.Key(tok), err)
		}
		info.ExpiresAt = time.Unix(exp, 0)
	}
	return info, nil
}

// Assert RedisStore implements Backend.
var _ Backend = (*RedisStore)(nil)
