package authgw

import (
	"context"
	"errors"
	"time"

	"go.od2.network/bearergw/pkg/oauth2err"
)

// Validation error descriptions.
const (
	DescInvalidToken = "The access token provided is invalid."
	DescExpiredToken = "The access token provided has expired."
)

// Validator resolves tokens to identities.
//
// The expiry cutoff is fixed when the validator is created,
// so one instance judges every token against the same point in time.
type Validator struct {
	backend Backend
	now     time.Time
}

// NewValidator creates a validator looking up tokens in backend,
// treating tokens expiring at or before now as expired.
func NewValidator(backend Backend, now time.Time) *Validator {
	return &Validator{backend: backend, now: now}
}

// Now returns the expiry cutoff.
func (v *Validator) Now() time.Time {
	return v.now
}

// Validate looks up a token and returns the identity it grants.
//
// Rejections are returned as *oauth2err.Error.
// If ctx is done once the lookup returns, ctx.Err() is returned instead.
func (v *Validator) Validate(ctx context.Context, tok string) (*Identity, error) {
	info, err := v.backend.LookupToken(ctx, tok)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	if errors.Is(err, ErrUnknown) {
		return nil, oauth2err.InvalidGrant(DescInvalidToken)
	} else if err != nil {
		return nil, oauth2err.ServerError(err)
	}
	if info == nil {
		return nil, oauth2err.InvalidGrant(DescInvalidToken)
	}
	if !info.ValidAt(v.now) {
		return nil, oauth2err.InvalidGrant(DescExpiredToken)
	}
	return &Identity{ID: info.UserID}, nil
}
