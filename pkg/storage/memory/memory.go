// Package memory provides an in-memory implementation of storage.Store for
// tests and single-process deployments. Data is lost when the process
// restarts.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rhuss/paydesk/pkg/api"
	"github.com/rhuss/paydesk/pkg/storage"
)

// Store is an in-memory storage.Store. Values are copied on the way in and
// out so callers never share state with the store.
type Store struct {
	mu      sync.RWMutex
	users   map[string]*api.User
	byEmail map[string]string // normalized email -> user id
	records map[int64]*api.Record
	nextID  int64
	now     func() time.Time
}

// Ensure Store implements storage.Store at compile time.
var _ storage.Store = (*Store)(nil)

// New creates an empty store.
func New() *Store {
	return &Store{
		users:   make(map[string]*api.User),
		byEmail: make(map[string]string),
		records: make(map[int64]*api.Record),
		now:     time.Now,
	}
}

// CreateUser stores a copy of u.
func (s *Store) CreateUser(_ context.Context, u *api.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	email := api.NormalizeEmail(u.Email)
	if _, exists := s.users[u.ID]; exists {
		return storage.ErrConflict
	}
	if _, exists := s.byEmail[email]; exists {
		return storage.ErrConflict
	}

	now := s.now().UTC()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	if u.UpdatedAt.IsZero() {
		u.UpdatedAt = u.CreatedAt
	}
	u.Email = email

	cp := *u
	s.users[u.ID] = &cp
	s.byEmail[email] = u.ID
	return nil
}

// FindByID returns the user with the given id.
func (s *Store) FindByID(_ context.Context, id string) (*api.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

// FindByLoginKey looks up by email, then by name.
func (s *Store) FindByLoginKey(_ context.Context, key string) (*api.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if id, ok := s.byEmail[api.NormalizeEmail(key)]; ok {
		cp := *s.users[id]
		return &cp, nil
	}

	var found *api.User
	for _, u := range s.users {
		if u.Name != key {
			continue
		}
		if found == nil || u.CreatedAt.Before(found.CreatedAt) ||
			(u.CreatedAt.Equal(found.CreatedAt) && u.ID < found.ID) {
			found = u
		}
	}
	if found == nil {
		return nil, storage.ErrNotFound
	}
	cp := *found
	return &cp, nil
}

// ListUsers returns all users ordered by creation time.
func (s *Store) ListUsers(_ context.Context) ([]*api.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*api.User, 0, len(s.users))
	for _, u := range s.users {
		cp := *u
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID < out[j].ID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

// CreateRecord assigns the next ID and timestamps, then stores a copy.
func (s *Store) CreateRecord(_ context.Context, r *api.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	now := s.now().UTC()
	r.ID = s.nextID
	r.CreatedAt = now
	r.UpdatedAt = now

	cp := *r
	s.records[r.ID] = &cp
	return nil
}

// ListRecords returns all records in ID order.
func (s *Store) ListRecords(_ context.Context) ([]*api.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*api.Record, 0, len(s.records))
	for _, r := range s.records {
		cp := *r
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// GetRecord returns the record with the given id.
func (s *Store) GetRecord(_ context.Context, id int64) (*api.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.records[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

// UpdateRecord replaces the editable fields of an existing record.
func (s *Store) UpdateRecord(_ context.Context, r *api.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.records[r.ID]
	if !ok {
		return storage.ErrNotFound
	}

	r.CreatedAt = existing.CreatedAt
	r.UpdatedAt = s.now().UTC()
	cp := *r
	s.records[r.ID] = &cp
	return nil
}

// DeleteRecord removes a record.
func (s *Store) DeleteRecord(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.records[id]; !ok {
		return storage.ErrNotFound
	}
	delete(s.records, id)
	return nil
}

// HealthCheck always returns nil for the in-memory store.
func (s *Store) HealthCheck(_ context.Context) error {
	return nil
}

// Close is a no-op for the in-memory store.
func (s *Store) Close() error {
	return nil
}
