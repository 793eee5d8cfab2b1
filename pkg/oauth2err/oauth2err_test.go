package oauth2err

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

func TestKind_HTTPStatus(t *testing.T) {
	assert.Equal(t, http.StatusBadRequest, InvalidRequestKind.HTTPStatus())
	assert.Equal(t, http.StatusUnauthorized, InvalidGrantKind.HTTPStatus())
	assert.Equal(t, http.StatusUnauthorized, InvalidTokenKind.HTTPStatus())
	assert.Equal(t, http.StatusForbidden, InsufficientScopeKind.HTTPStatus())
	assert.Equal(t, http.StatusInternalServerError, ServerErrorKind.HTTPStatus())
	assert.Equal(t, http.StatusBadRequest, UnsupportedGrantTypeKind.HTTPStatus())
}

func TestKind_GRPCCode(t *testing.T) {
	assert.Equal(t, codes.InvalidArgument, InvalidRequestKind.GRPCCode())
	assert.Equal(t, codes.Unauthenticated, InvalidGrantKind.GRPCCode())
	assert.Equal(t, codes.PermissionDenied, AccessDeniedKind.GRPCCode())
	assert.Equal(t, codes.Internal, ServerErrorKind.GRPCCode())
}

func TestServerError(t *testing.T) {
	cause := errors.New("dial tcp 10.0.0.1:3306: connection refused")
	err := ServerError(cause)
	assert.Equal(t, ServerErrorKind, err.Kind)
	assert.Empty(t, err.Description)
	assert.Empty(t, err.PublicDescription())
	assert.True(t, errors.Is(err, cause))
	assert.Contains(t, err.Error(), "connection refused")

	st := err.GRPCStatus()
	assert.Equal(t, codes.Internal, st.Code())
	assert.Equal(t, "server_error", st.Message())
}

func TestInvalidGrant(t *testing.T) {
	err := InvalidGrant("The access token provided has expired.")
	assert.Equal(t, "invalid_grant: The access token provided has expired.", err.Error())
	assert.Equal(t, err.Description, err.PublicDescription())
	assert.Nil(t, err.Unwrap())

	st, ok := status.FromError(err)
	require.True(t, ok)
	assert.Equal(t, codes.Unauthenticated, st.Code())
}

func TestAs(t *testing.T) {
	wrapped := fmt.Errorf("authorize: %w", InvalidRequest("Malformed auth header"))
	e, ok := As(wrapped)
	require.True(t, ok)
	assert.Equal(t, InvalidRequestKind, e.Kind)

	_, ok = As(errors.New("plain"))
	assert.False(t, ok)
}
