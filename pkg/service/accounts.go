package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rhuss/paydesk/pkg/api"
	"github.com/rhuss/paydesk/pkg/auth"
	"github.com/rhuss/paydesk/pkg/debug"
	"github.com/rhuss/paydesk/pkg/observability"
	"github.com/rhuss/paydesk/pkg/storage"
)

// Register creates an account with the user role.
func (s *Service) Register(ctx context.Context, req *api.RegisterUserRequest) (*api.User, error) {
	if apiErr := api.ValidateRegister(req, s.cfg.Validation); apiErr != nil {
		return nil, apiErr
	}

	hash, err := s.hasher.Hash(ctx, req.Password)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	now := s.now().UTC()
	u := &api.User{
		ID:        api.NewUserID(),
		Name:      strings.TrimSpace(req.Name),
		Email:     api.NormalizeEmail(req.Email),
		Password:  hash,
		Role:      api.RoleUser,
		Photo:     api.DefaultPhoto,
		Verified:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.store.CreateUser(ctx, u); err != nil {
		if errors.Is(err, storage.ErrConflict) {
			return nil, api.NewConflictError(msgEmailTaken)
		}
		return nil, fmt.Errorf("creating user: %w", err)
	}

	debug.Log("auth", "user registered", "user_id", u.ID)
	return u, nil
}

// Login verifies the credentials and issues a session token. The login
// key is matched against the email first, then the account name.
func (s *Service) Login(ctx context.Context, req *api.LoginUserRequest) (string, error) {
	if apiErr := api.ValidateLogin(req); apiErr != nil {
		return "", apiErr
	}

	u, err := s.store.FindByLoginKey(ctx, strings.TrimSpace(req.Email))
	switch {
	case errors.Is(err, storage.ErrNotFound):
		s.hasher.Verify(ctx, req.Password, s.dummyHash)
		observability.LoginAttemptsTotal.WithLabelValues("invalid").Inc()
		return "", api.NewInvalidRequestError("credentials", msgInvalidCredentials)
	case err != nil:
		observability.LoginAttemptsTotal.WithLabelValues("error").Inc()
		return "", fmt.Errorf("looking up user: %w", err)
	}

	if !s.hasher.Verify(ctx, req.Password, u.Password) {
		if ctx.Err() != nil {
			observability.LoginAttemptsTotal.WithLabelValues("error").Inc()
			return "", ctx.Err()
		}
		observability.LoginAttemptsTotal.WithLabelValues("invalid").Inc()
		return "", api.NewInvalidRequestError("credentials", msgInvalidCredentials)
	}

	tok, err := s.codec.Issue(s.codec.NewClaims(u.ID))
	if err != nil {
		observability.LoginAttemptsTotal.WithLabelValues("error").Inc()
		return "", fmt.Errorf("issuing token: %w", err)
	}

	observability.LoginAttemptsTotal.WithLabelValues("success").Inc()
	debug.Log("auth", "login succeeded", "user_id", u.ID)
	return tok, nil
}

// CurrentUser loads the account behind id.
func (s *Service) CurrentUser(ctx context.Context, id *auth.Identity) (*api.User, error) {
	u, err := s.store.FindByID(ctx, id.ID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, api.NewUnauthorizedError(msgUserGone)
	}
	if err != nil {
		return nil, fmt.Errorf("loading user: %w", err)
	}
	return u, nil
}

// ListUsers returns all accounts ordered by creation time.
func (s *Service) ListUsers(ctx context.Context) ([]*api.User, error) {
	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing users: %w", err)
	}
	return users, nil
}
