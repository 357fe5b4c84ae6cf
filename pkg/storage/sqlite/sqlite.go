// Package sqlite provides a single-file storage.Store built on gorm and the
// SQLite driver. It suits single-node deployments without a PostgreSQL
// server; the schema is created with gorm auto-migration.
package sqlite

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/rhuss/paydesk/pkg/api"
	"github.com/rhuss/paydesk/pkg/storage"
)

// Config holds SQLite settings.
type Config struct {
	// Path is the database file. Parent directories are created.
	Path string
}

type userRow struct {
	ID        string `gorm:"primaryKey;type:varchar(36)"`
	Name      string `gorm:"index;not null"`
	Email     string `gorm:"uniqueIndex;not null"`
	Password  string `gorm:"not null"`
	Role      string `gorm:"not null;default:user"`
	Photo     string `gorm:"not null;default:default.png"`
	Verified  bool   `gorm:"not null;default:false"`
	CreatedAt time.Time
	UpdatedAt time.Time
}

func (userRow) TableName() string { return "users" }

type recordRow struct {
	ID            int64 `gorm:"primaryKey;autoIncrement"`
	CreatedAt     time.Time
	UpdatedAt     time.Time
	LastUpdatedBy string
	FirstName     string `gorm:"not null"`
	LastName      string `gorm:"not null"`
	MI            string `gorm:"column:mi"`
	Course        string
	YearLevel     string
	PaymentFor    string
	Amount        string
	ReceivedBy    string
}

func (recordRow) TableName() string { return "records" }

// Store is a gorm-backed storage.Store.
type Store struct {
	db *gorm.DB
}

// Ensure Store implements storage.Store at compile time.
var _ storage.Store = (*Store)(nil)

// New opens (or creates) the database at cfg.Path and migrates the schema.
func New(cfg Config) (*Store, error) {
	if cfg.Path == "" {
		return nil, errors.New("sqlite: path is required")
	}
	if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	db, err := gorm.Open(sqlite.Open(cfg.Path), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("getting database handle: %w", err)
	}
	// SQLite serializes writers; a single connection avoids SQLITE_BUSY.
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&userRow{}, &recordRow{}); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("migrating database: %w", err)
	}

	return &Store{db: db}, nil
}

// CreateUser inserts a new account.
func (s *Store) CreateUser(ctx context.Context, u *api.User) error {
	u.Email = api.NormalizeEmail(u.Email)
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	if u.UpdatedAt.IsZero() {
		u.UpdatedAt = u.CreatedAt
	}

	row := userRow{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Password:  u.Password,
		Role:      string(u.Role),
		Photo:     u.Photo,
		Verified:  u.Verified,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return storage.ErrConflict
		}
		return fmt.Errorf("inserting user: %w", err)
	}
	return nil
}

// FindByID loads a user by primary key.
func (s *Store) FindByID(ctx context.Context, id string) (*api.User, error) {
	var row userRow
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&row).Error; err != nil {
		return nil, notFound(err, "user")
	}
	return row.toAPI(), nil
}

// FindByLoginKey loads a user by email, then by the oldest matching name.
func (s *Store) FindByLoginKey(ctx context.Context, key string) (*api.User, error) {
	var row userRow
	err := s.db.WithContext(ctx).Where("email = ?", api.NormalizeEmail(key)).First(&row).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		err = s.db.WithContext(ctx).Where("name = ?", key).Order("created_at ASC, id ASC").First(&row).Error
	}
	if err != nil {
		return nil, notFound(err, "user")
	}
	return row.toAPI(), nil
}

// ListUsers returns all users ordered by creation time.
func (s *Store) ListUsers(ctx context.Context) ([]*api.User, error) {
	var rows []userRow
	if err := s.db.WithContext(ctx).Order("created_at, id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("querying users: %w", err)
	}
	users := make([]*api.User, 0, len(rows))
	for i := range rows {
		users = append(users, rows[i].toAPI())
	}
	return users, nil
}

// CreateRecord inserts a record and fills in the generated columns.
func (s *Store) CreateRecord(ctx context.Context, r *api.Record) error {
	now := time.Now().UTC()
	row := fromRecord(r)
	row.ID = 0
	row.CreatedAt = now
	row.UpdatedAt = now
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("inserting record: %w", err)
	}
	r.ID = row.ID
	r.CreatedAt = row.CreatedAt
	r.UpdatedAt = row.UpdatedAt
	return nil
}

// ListRecords returns every record in ID order.
func (s *Store) ListRecords(ctx context.Context) ([]*api.Record, error) {
	var rows []recordRow
	if err := s.db.WithContext(ctx).Order("id").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("querying records: %w", err)
	}
	records := make([]*api.Record, 0, len(rows))
	for i := range rows {
		records = append(records, rows[i].toAPI())
	}
	return records, nil
}

// GetRecord loads a record by ID.
func (s *Store) GetRecord(ctx context.Context, id int64) (*api.Record, error) {
	var row recordRow
	if err := s.db.WithContext(ctx).Where("id = ?", id).First(&row).Error; err != nil {
		return nil, notFound(err, "record")
	}
	return row.toAPI(), nil
}

// UpdateRecord overwrites the editable columns of an existing record.
func (s *Store) UpdateRecord(ctx context.Context, r *api.Record) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing recordRow
		if err := tx.Where("id = ?", r.ID).First(&existing).Error; err != nil {
			return notFound(err, "record")
		}

		row := fromRecord(r)
		row.CreatedAt = existing.CreatedAt
		row.UpdatedAt = time.Now().UTC()
		if err := tx.Save(&row).Error; err != nil {
			return fmt.Errorf("updating record: %w", err)
		}
		r.CreatedAt = row.CreatedAt
		r.UpdatedAt = row.UpdatedAt
		return nil
	})
}

// DeleteRecord removes a record.
func (s *Store) DeleteRecord(ctx context.Context, id int64) error {
	res := s.db.WithContext(ctx).Delete(&recordRow{}, id)
	if res.Error != nil {
		return fmt.Errorf("deleting record: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// HealthCheck pings the underlying database.
func (s *Store) HealthCheck(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Close closes the database.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func notFound(err error, what string) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return storage.ErrNotFound
	}
	return fmt.Errorf("querying %s: %w", what, err)
}

func (r *userRow) toAPI() *api.User {
	return &api.User{
		ID:        r.ID,
		Name:      r.Name,
		Email:     r.Email,
		Password:  r.Password,
		Role:      api.Role(r.Role),
		Photo:     r.Photo,
		Verified:  r.Verified,
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

func fromRecord(r *api.Record) recordRow {
	return recordRow{
		ID:            r.ID,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
		LastUpdatedBy: r.LastUpdatedBy,
		FirstName:     r.FirstName,
		LastName:      r.LastName,
		MI:            r.MI,
		Course:        r.Course,
		YearLevel:     r.YearLevel,
		PaymentFor:    r.PaymentFor,
		Amount:        r.Amount,
		ReceivedBy:    r.ReceivedBy,
	}
}

func (r *recordRow) toAPI() *api.Record {
	return &api.Record{
		ID:            r.ID,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
		LastUpdatedBy: r.LastUpdatedBy,
		FirstName:     r.FirstName,
		LastName:      r.LastName,
		MI:            r.MI,
		Course:        r.Course,
		YearLevel:     r.YearLevel,
		PaymentFor:    r.PaymentFor,
		Amount:        r.Amount,
		ReceivedBy:    r.ReceivedBy,
	}
}
