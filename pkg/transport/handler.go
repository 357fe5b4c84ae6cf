package transport

import (
	"context"
	"io"
	"time"

	"github.com/rhuss/paydesk/pkg/api"
	"github.com/rhuss/paydesk/pkg/auth"
)

// AccountService handles the account lifecycle.
type AccountService interface {
	// Register creates a new account with the default role.
	Register(ctx context.Context, req *api.RegisterUserRequest) (*api.User, error)

	// Login checks the credentials and returns a freshly issued session
	// token. Unknown accounts and wrong passwords fail identically.
	Login(ctx context.Context, req *api.LoginUserRequest) (string, error)

	// CurrentUser loads the full account behind an authenticated identity.
	CurrentUser(ctx context.Context, id *auth.Identity) (*api.User, error)

	// ListUsers returns every account.
	ListUsers(ctx context.Context) ([]*api.User, error)
}

// RecordService handles payment records.
type RecordService interface {
	ListRecords(ctx context.Context) ([]*api.Record, error)
	CreateRecord(ctx context.Context, by *auth.Identity, req *api.CreateRecordRequest) (*api.Record, error)
	UpdateRecord(ctx context.Context, by *auth.Identity, id int64, req *api.UpdateRecordRequest) (*api.Record, error)
	DeleteRecord(ctx context.Context, id int64) error
}

// Export describes a stored spreadsheet.
type Export struct {
	Name      string
	Size      int64
	Rows      int
	CreatedAt time.Time
}

// ExportService builds spreadsheets from the record collection.
type ExportService interface {
	// CreateExport renders all records and stores the result in the
	// configured sink.
	CreateExport(ctx context.Context) (*Export, error)

	// OpenExport returns a reader over the most recent export. The caller
	// closes it.
	OpenExport(ctx context.Context) (io.ReadCloser, *Export, error)
}
