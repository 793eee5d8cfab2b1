// Package oauth2err implements the OAuth 2.0 error model (RFC 6749 section 5.2, RFC 6750 section 3.1).
package oauth2err

import (
	"errors"
	"net/http"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// Kind is the machine-readable OAuth 2.0 error code.
type Kind string

// Error kinds.
const (
	InvalidRequestKind       Kind = "invalid_request"
	InvalidClientKind        Kind = "invalid_client"
	InvalidGrantKind         Kind = "invalid_grant"
	UnauthorizedClientKind   Kind = "unauthorized_client"
	UnsupportedGrantTypeKind Kind = "unsupported_grant_type"
	InvalidScopeKind         Kind = "invalid_scope"
	InvalidTokenKind         Kind = "invalid_token"
	InsufficientScopeKind    Kind = "insufficient_scope"
	AccessDeniedKind         Kind = "access_denied"
	ServerErrorKind          Kind = "server_error"
)

// HTTPStatus returns the conventional HTTP status code of the error kind.
func (k Kind) HTTPStatus() int {
	switch k {
	case InvalidGrantKind, InvalidTokenKind, InvalidClientKind:
		return http.StatusUnauthorized
	case InsufficientScopeKind, AccessDeniedKind:
		return http.StatusForbidden
	case ServerErrorKind:
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}

// GRPCCode returns the gRPC status code of the error kind.
func (k Kind) GRPCCode() codes.Code {
	switch k.HTTPStatus() {
	case http.StatusUnauthorized:
		return codes.Unauthenticated
	case http.StatusForbidden:
		return codes.PermissionDenied
	case http.StatusInternalServerError:
		return codes.Internal
	default:
		return codes.InvalidArgument
	}
}

// Error is a protocol error.
//
// Errors of internal kinds carry no description, only a cause.
// The cause is kept for logging and must not be shown to clients.
type Error struct {
	Kind        Kind
	Description string
	Cause       error
	Internal    bool
}

// New creates a user-facing protocol error.
func New(kind Kind, description string) *Error {
	return &Error{Kind: kind, Description: description}
}

// InvalidRequest is returned for malformed, ambiguous or missing token presentations.
func InvalidRequest(description string) *Error {
	return New(InvalidRequestKind, description)
}

// InvalidGrant is returned for unknown or expired tokens.
func InvalidGrant(description string) *Error {
	return New(InvalidGrantKind, description)
}

// ServerError wraps a failure of an external collaborator.
func ServerError(cause error) *Error {
	return &Error{
		Kind:     ServerErrorKind,
		Cause:    cause,
		Internal: true,
	}
}

// Error returns the full error string, including the cause.
// Use PublicDescription for anything sent to a client.
func (e *Error) Error() string {
	msg := string(e.Kind)
	if e.Description != "" {
		msg += ": " + e.Description
	}
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

// Unwrap returns the cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// PublicDescription returns the description safe to expose to clients.
func (e *Error) PublicDescription() string {
	if e.Internal {
		return ""
	}
	return e.Description
}

// HTTPStatus returns the HTTP status code of the error.
func (e *Error) HTTPStatus() int {
	return e.Kind.HTTPStatus()
}

// GRPCStatus converts the error to a gRPC status.
// Internal errors are reduced to their kind.
func (e *Error) GRPCStatus() *status.Status {
	msg := string(e.Kind)
	if desc := e.PublicDescription(); desc != "" {
		msg += ": " + desc
	}
	return status.New(e.Kind.GRPCCode(), msg)
}

// As returns the protocol error in the chain of err, if any.
func As(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}
