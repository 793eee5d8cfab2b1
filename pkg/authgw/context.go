package authgw

import (
	"context"
	"fmt"
)

// Identity is the user a request was authorized for.
type Identity struct {
	ID string
}

type contextKey struct{}

// WithIdentity returns a Go context with the identity attached.
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

// IdentityFromContext returns the identity attached to the Go context.
func IdentityFromContext(ctx context.Context) (*Identity, error) {
	id, _ := ctx.Value(contextKey{}).(*Identity)
	if id == nil {
		return nil, fmt.Errorf("invalid auth context")
	}
	return id, nil
}
