// Package authgw authorizes requests carrying OAuth 2.0 bearer tokens.
//
// A Filter extracts the token from a request, looks it up in a Backend
// and attaches the resulting Identity to the request context.
package authgw

import (
	"context"
	"errors"
	"time"
)

// Backend fetches information about tokens.
type Backend interface {
	// LookupToken returns ErrUnknown if the token does not exist.
	// Any other error is treated as an infrastructure failure.
	LookupToken(ctx context.Context, tok string) (*TokenInfo, error)
}

// BackendFunc is a function implementing Backend.
type BackendFunc func(ctx context.Context, tok string) (*TokenInfo, error)

// LookupToken calls f.
func (f BackendFunc) LookupToken(ctx context.Context, tok string) (*TokenInfo, error) {
	return f(ctx, tok)
}

// TokenInfo is the stored record of an access token.
type TokenInfo struct {
	ExpiresAt time.Time // zero if the record carries no expiry
	UserID    string
}

// ValidAt returns whether the token is still valid at the given time.
// Tokens without expiry are never valid.
func (t *TokenInfo) ValidAt(now time.Time) bool {
	return !t.ExpiresAt.IsZero() && t.ExpiresAt.After(now)
}

// ErrUnknown is returned when a token is not present in the store.
var ErrUnknown = errors.New("unknown token")

// Timeout bounds the duration of lookups on a backend.
type Timeout struct {
	Backend Backend
	Timeout time.Duration
}

// LookupToken calls the backend with a deadline.
func (t *Timeout) LookupToken(ctx context.Context, tok string) (*TokenInfo, error) {
	if t.Timeout <= 0 {
		return t.Backend.LookupToken(ctx, tok)
	}
	ctx, cancel := context.WithTimeout(ctx, t.Timeout)
	defer cancel()
	return t.Backend.LookupToken(ctx, tok)
}

// Assert Timeout implements Backend.
var _ Backend = (*Timeout)(nil)
