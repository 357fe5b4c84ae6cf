package service

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/rhuss/paydesk/pkg/api"
	"github.com/rhuss/paydesk/pkg/auth/password"
	"github.com/rhuss/paydesk/pkg/auth/token"
	"github.com/rhuss/paydesk/pkg/export"
	"github.com/rhuss/paydesk/pkg/storage"
	"github.com/rhuss/paydesk/pkg/transport"
)

// Client-visible messages.
const (
	msgInvalidCredentials = "Invalid email or password"
	msgEmailTaken         = "User with that email already exists"
	msgRecordNotFound     = "No record with that Id exists"
	msgNoExport           = "No export available, create one first"
	msgUserGone           = "The user belonging to this token no longer exists"
)

// Config holds service settings.
type Config struct {
	Validation api.ValidationConfig
}

// DefaultConfig returns the default service configuration.
func DefaultConfig() Config {
	return Config{Validation: api.DefaultValidationConfig()}
}

// Deps are the collaborators of a Service. Exporter may be nil, in which
// case export operations fail with a server error.
type Deps struct {
	Store    storage.Store
	Hasher   *password.Hasher
	Codec    *token.Codec
	Exporter *export.Exporter
}

// Service implements the transport service interfaces.
type Service struct {
	store    storage.Store
	hasher   *password.Hasher
	codec    *token.Codec
	exporter *export.Exporter
	cfg      Config
	now      func() time.Time

	// dummyHash is verified against when the login key is unknown so
	// both failure paths cost one derivation.
	dummyHash string
}

var (
	_ transport.AccountService = (*Service)(nil)
	_ transport.RecordService  = (*Service)(nil)
	_ transport.ExportService  = (*Service)(nil)
)

// New creates a Service. It derives one throwaway hash up front, which
// also fails fast when the hasher is misconfigured.
func New(ctx context.Context, d Deps, cfg Config) (*Service, error) {
	if d.Store == nil {
		return nil, errors.New("service: store must not be nil")
	}
	if d.Hasher == nil {
		return nil, errors.New("service: hasher must not be nil")
	}
	if d.Codec == nil {
		return nil, errors.New("service: token codec must not be nil")
	}

	seed := make([]byte, 24)
	if _, err := rand.Read(seed); err != nil {
		return nil, fmt.Errorf("service: %w", err)
	}
	dummy, err := d.Hasher.Hash(ctx, base64.RawStdEncoding.EncodeToString(seed))
	if err != nil {
		return nil, fmt.Errorf("service: preparing login hash: %w", err)
	}

	return &Service{
		store:     d.Store,
		hasher:    d.Hasher,
		codec:     d.Codec,
		exporter:  d.Exporter,
		cfg:       cfg,
		now:       time.Now,
		dummyHash: dummy,
	}, nil
}
