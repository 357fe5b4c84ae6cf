package storage

import (
	"context"

	"github.com/rhuss/paydesk/pkg/api"
)

// UserStore persists accounts. Lookups return ErrNotFound for unknown keys.
type UserStore interface {
	// CreateUser inserts u. It returns ErrConflict when the id or email is
	// already taken.
	CreateUser(ctx context.Context, u *api.User) error

	FindByID(ctx context.Context, id string) (*api.User, error)

	// FindByLoginKey matches key against the normalized email first, then
	// the account name. Names are not unique; the oldest account wins and
	// ties go to the lowest id.
	FindByLoginKey(ctx context.Context, key string) (*api.User, error)

	ListUsers(ctx context.Context) ([]*api.User, error)
}

// RecordStore persists payment records. Records are returned in ID order.
type RecordStore interface {
	// CreateRecord assigns ID, CreatedAt and UpdatedAt on r.
	CreateRecord(ctx context.Context, r *api.Record) error
	ListRecords(ctx context.Context) ([]*api.Record, error)
	GetRecord(ctx context.Context, id int64) (*api.Record, error)

	// UpdateRecord overwrites the editable fields of the record with r.ID
	// and refreshes UpdatedAt on r.
	UpdateRecord(ctx context.Context, r *api.Record) error
	DeleteRecord(ctx context.Context, id int64) error
}

// Store is the full persistence surface used by the server.
type Store interface {
	UserStore
	RecordStore
	HealthCheck(ctx context.Context) error
	Close() error
}
