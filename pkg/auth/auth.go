package auth

import (
	"errors"
	"net/http"

	"github.com/rhuss/paydesk/pkg/api"
)

// Identity represents an authenticated caller.
type Identity struct {
	// ID is the user id carried in the token subject (required, non-empty).
	ID string

	Name  string
	Email string
	Role  api.Role
}

// HasRole reports whether the identity carries role.
func (id *Identity) HasRole(role api.Role) bool {
	return id != nil && id.Role == role
}

// Rejection is the reason a request was refused by the gate.
type Rejection int

const (
	// RejectNone marks a successful outcome.
	RejectNone Rejection = iota

	// RejectNoCredential means neither cookie nor header carried a token.
	RejectNoCredential

	// RejectInvalidToken covers malformed tokens and signature mismatches.
	RejectInvalidToken

	// RejectExpired means the token was genuine but past its expiry.
	RejectExpired

	// RejectUnknownSubject means the token names an account that no
	// longer exists.
	RejectUnknownSubject

	// RejectTransientFailure means the user store could not be reached.
	RejectTransientFailure

	// RejectInsufficientRole means the caller is authenticated but lacks
	// the role a route requires.
	RejectInsufficientRole
)

var rejectionNames = map[Rejection]string{
	RejectNone:             "none",
	RejectNoCredential:     "no_credential",
	RejectInvalidToken:     "invalid_token",
	RejectExpired:          "expired",
	RejectUnknownSubject:   "unknown_subject",
	RejectTransientFailure: "transient_failure",
	RejectInsufficientRole: "insufficient_role",
}

// String returns the metric and log label for r.
func (r Rejection) String() string {
	if s, ok := rejectionNames[r]; ok {
		return s
	}
	return "unknown"
}

// StatusCode returns the HTTP status a rejection maps to.
func (r Rejection) StatusCode() int {
	switch r {
	case RejectNone:
		return http.StatusOK
	case RejectInsufficientRole:
		return http.StatusForbidden
	case RejectTransientFailure:
		return http.StatusInternalServerError
	default:
		return http.StatusUnauthorized
	}
}

// Message returns the client-facing message. Malformed and forged tokens
// share one message.
func (r Rejection) Message() string {
	switch r {
	case RejectNoCredential:
		return "You are not logged in, please provide token"
	case RejectInvalidToken:
		return "Invalid token"
	case RejectExpired:
		return "Token has expired"
	case RejectUnknownSubject:
		return "The user belonging to this token no longer exists"
	case RejectInsufficientRole:
		return "You are not allowed to perform this action"
	default:
		return "Internal server error"
	}
}

// APIError converts r into the typed API error written to the client.
func (r Rejection) APIError() *api.APIError {
	switch r.StatusCode() {
	case http.StatusForbidden:
		return api.NewForbiddenError(r.Message())
	case http.StatusUnauthorized:
		return api.NewUnauthorizedError(r.Message())
	default:
		return api.NewServerError(r.Message())
	}
}

// Outcome is the result of gating one request. Exactly one of Identity
// and Rejection is set.
type Outcome struct {
	Identity  *Identity
	Rejection Rejection
}

// Authenticated reports whether the outcome admits the request.
func (o Outcome) Authenticated() bool {
	return o.Rejection == RejectNone && o.Identity != nil
}

func authenticated(id *Identity) Outcome { return Outcome{Identity: id} }

func rejected(r Rejection) Outcome { return Outcome{Rejection: r} }

// ErrTooManyRequests is returned by a RateLimiter over its limit.
var ErrTooManyRequests = errors.New("rate limit exceeded")
