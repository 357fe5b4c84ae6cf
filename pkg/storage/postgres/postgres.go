// Package postgres provides a PostgreSQL implementation of storage.Store.
// It uses pgx/v5 for connection pooling and goose for schema migrations.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/rhuss/paydesk/pkg/api"
	"github.com/rhuss/paydesk/pkg/storage"
)

// Store is a PostgreSQL-backed storage.Store.
type Store struct {
	pool *pgxpool.Pool
}

// Ensure Store implements storage.Store at compile time.
var _ storage.Store = (*Store)(nil)

// New creates a new PostgreSQL store with the given configuration.
// If MigrateOnStart is true, schema migrations are applied automatically.
func New(ctx context.Context, cfg Config) (*Store, error) {
	cfg.defaults()

	poolCfg, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parsing DSN: %w", err)
	}

	poolCfg.MaxConns = cfg.MaxConns
	poolCfg.MinConns = cfg.MinConns
	poolCfg.MaxConnLifetime = cfg.MaxConnLifetime

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("creating connection pool: %w", err)
	}

	// Verify connectivity.
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	s := &Store{pool: pool}

	if cfg.MigrateOnStart {
		if err := s.migrate(ctx); err != nil {
			pool.Close()
			return nil, fmt.Errorf("running migrations: %w", err)
		}
	}

	return s, nil
}

const userColumns = `id, name, email, password, role, photo, verified, created_at, updated_at`

// CreateUser inserts a new account.
func (s *Store) CreateUser(ctx context.Context, u *api.User) error {
	u.Email = api.NormalizeEmail(u.Email)
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	if u.UpdatedAt.IsZero() {
		u.UpdatedAt = u.CreatedAt
	}

	_, err := s.pool.Exec(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`,
		u.ID, u.Name, u.Email, u.Password, string(u.Role), u.Photo, u.Verified,
		u.CreatedAt, u.UpdatedAt,
	)
	if err != nil {
		if isDuplicateKey(err) {
			return storage.ErrConflict
		}
		return fmt.Errorf("inserting user: %w", err)
	}
	return nil
}

// FindByID loads a user by primary key.
func (s *Store) FindByID(ctx context.Context, id string) (*api.User, error) {
	if !api.ValidateUserID(id) {
		return nil, storage.ErrNotFound
	}
	row := s.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
	return scanUser(row)
}

// FindByLoginKey loads a user by email, falling back to the oldest account
// with a matching name.
func (s *Store) FindByLoginKey(ctx context.Context, key string) (*api.User, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT `+userColumns+` FROM users
		WHERE email = $1 OR name = $2
		ORDER BY (email = $1) DESC, created_at ASC, id ASC
		LIMIT 1
	`, api.NormalizeEmail(key), key)
	return scanUser(row)
}

// ListUsers returns all users ordered by creation time.
func (s *Store) ListUsers(ctx context.Context) ([]*api.User, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY created_at, id`)
	if err != nil {
		return nil, fmt.Errorf("querying users: %w", err)
	}
	defer rows.Close()

	var users []*api.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating users: %w", err)
	}
	return users, nil
}

const recordColumns = `id, created_at, updated_at, last_updated_by, first_name, last_name,
	mi, course, year_level, payment_for, amount, received_by`

// CreateRecord inserts a record and fills in the generated columns.
func (s *Store) CreateRecord(ctx context.Context, r *api.Record) error {
	err := s.pool.QueryRow(ctx, `
		INSERT INTO records (
			last_updated_by, first_name, last_name, mi, course,
			year_level, payment_for, amount, received_by
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at, updated_at
	`,
		r.LastUpdatedBy, r.FirstName, r.LastName, r.MI, r.Course,
		r.YearLevel, r.PaymentFor, r.Amount, r.ReceivedBy,
	).Scan(&r.ID, &r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		return fmt.Errorf("inserting record: %w", err)
	}
	return nil
}

// ListRecords returns every record in ID order.
func (s *Store) ListRecords(ctx context.Context) ([]*api.Record, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+recordColumns+` FROM records ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("querying records: %w", err)
	}
	defer rows.Close()

	var records []*api.Record
	for rows.Next() {
		r, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating records: %w", err)
	}
	return records, nil
}

// GetRecord loads a record by ID.
func (s *Store) GetRecord(ctx context.Context, id int64) (*api.Record, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+recordColumns+` FROM records WHERE id = $1`, id)
	return scanRecord(row)
}

// UpdateRecord overwrites the editable columns of an existing record.
func (s *Store) UpdateRecord(ctx context.Context, r *api.Record) error {
	err := s.pool.QueryRow(ctx, `
		UPDATE records SET
			last_updated_by = $2, first_name = $3, last_name = $4, mi = $5,
			course = $6, year_level = $7, payment_for = $8, amount = $9,
			received_by = $10, updated_at = NOW()
		WHERE id = $1
		RETURNING created_at, updated_at
	`,
		r.ID, r.LastUpdatedBy, r.FirstName, r.LastName, r.MI,
		r.Course, r.YearLevel, r.PaymentFor, r.Amount, r.ReceivedBy,
	).Scan(&r.CreatedAt, &r.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return storage.ErrNotFound
		}
		return fmt.Errorf("updating record: %w", err)
	}
	return nil
}

// DeleteRecord removes a record.
func (s *Store) DeleteRecord(ctx context.Context, id int64) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM records WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting record: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// HealthCheck verifies the database connection.
func (s *Store) HealthCheck(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// Close releases the connection pool.
func (s *Store) Close() error {
	s.pool.Close()
	return nil
}

func scanUser(row pgx.Row) (*api.User, error) {
	var u api.User
	var role string
	err := row.Scan(&u.ID, &u.Name, &u.Email, &u.Password, &role, &u.Photo, &u.Verified,
		&u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("scanning user: %w", err)
	}
	u.Role = api.Role(role)
	return &u, nil
}

func scanRecord(row pgx.Row) (*api.Record, error) {
	var r api.Record
	err := row.Scan(&r.ID, &r.CreatedAt, &r.UpdatedAt, &r.LastUpdatedBy, &r.FirstName,
		&r.LastName, &r.MI, &r.Course, &r.YearLevel, &r.PaymentFor, &r.Amount, &r.ReceivedBy)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("scanning record: %w", err)
	}
	return &r, nil
}

// isDuplicateKey reports a unique_violation (SQLSTATE 23505).
func isDuplicateKey(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}
