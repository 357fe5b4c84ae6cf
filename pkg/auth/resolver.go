package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/rhuss/paydesk/pkg/api"
	"github.com/rhuss/paydesk/pkg/storage"
)

var (
	// ErrSubjectNotFound means the token subject has no live account.
	ErrSubjectNotFound = errors.New("auth: subject not found")

	// ErrStoreUnavailable wraps infrastructure failures during lookup.
	ErrStoreUnavailable = errors.New("auth: user store unavailable")
)

// UserFinder is the read path the resolver needs from the user store.
type UserFinder interface {
	FindByID(ctx context.Context, id string) (*api.User, error)
}

// Resolver maps a verified token subject to an Identity.
type Resolver struct {
	users UserFinder
}

// NewResolver creates a Resolver backed by users.
func NewResolver(users UserFinder) *Resolver {
	return &Resolver{users: users}
}

// Resolve looks up subject. It returns either a non-nil Identity or one of
// ErrSubjectNotFound and ErrStoreUnavailable.
func (r *Resolver) Resolve(ctx context.Context, subject string) (*Identity, error) {
	if !api.ValidateUserID(subject) {
		return nil, ErrSubjectNotFound
	}

	u, err := r.users.FindByID(ctx, subject)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return nil, ErrSubjectNotFound
	case err != nil:
		return nil, fmt.Errorf("%w: %w", ErrStoreUnavailable, err)
	case u == nil:
		return nil, ErrSubjectNotFound
	}

	return &Identity{
		ID:    u.ID,
		Name:  u.Name,
		Email: u.Email,
		Role:  u.Role,
	}, nil
}
