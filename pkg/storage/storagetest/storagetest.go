// Package storagetest holds a behavioural test suite shared by every
// storage.Store adapter.
package storagetest

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rhuss/paydesk/pkg/api"
	"github.com/rhuss/paydesk/pkg/storage"
)

// Run exercises s against the storage.Store contract. s must be empty.
func Run(t *testing.T, s storage.Store) {
	t.Helper()
	t.Run("Users", func(t *testing.T) { testUsers(t, s) })
	t.Run("Records", func(t *testing.T) { testRecords(t, s) })
	t.Run("ConcurrentRecords", func(t *testing.T) { testConcurrentRecords(t, s) })
	t.Run("HealthCheck", func(t *testing.T) {
		assert.NoError(t, s.HealthCheck(context.Background()))
	})
}

// NewUser returns a user with a fresh id.
func NewUser(name, email string, role api.Role) *api.User {
	return &api.User{
		ID:       api.NewUserID(),
		Name:     name,
		Email:    email,
		Password: "$argon2id$v=19$m=1024,t=1,p=1$c2FsdHNhbHRzYWx0c2FsdA$a2V5a2V5a2V5a2V5a2V5a2V5a2V5a2V5a2V5a2U",
		Role:     role,
		Photo:    api.DefaultPhoto,
	}
}

func testUsers(t *testing.T, s storage.Store) {
	ctx := context.Background()

	alice := NewUser("alice", "Alice@X.com", api.RoleUser)
	require.NoError(t, s.CreateUser(ctx, alice))
	assert.Equal(t, "alice@x.com", alice.Email, "email is normalized on create")
	assert.False(t, alice.CreatedAt.IsZero())

	got, err := s.FindByID(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, alice.ID, got.ID)
	assert.Equal(t, "alice", got.Name)
	assert.Equal(t, "alice@x.com", got.Email)
	assert.Equal(t, alice.Password, got.Password)
	assert.Equal(t, api.RoleUser, got.Role)

	_, err = s.FindByID(ctx, api.NewUserID())
	assert.ErrorIs(t, err, storage.ErrNotFound)

	dup := NewUser("alice2", "alice@x.com", api.RoleUser)
	assert.ErrorIs(t, s.CreateUser(ctx, dup), storage.ErrConflict)

	byEmail, err := s.FindByLoginKey(ctx, " ALICE@x.com")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, byEmail.ID)

	byName, err := s.FindByLoginKey(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, byName.ID)

	_, err = s.FindByLoginKey(ctx, "nobody@x.com")
	assert.ErrorIs(t, err, storage.ErrNotFound)

	admin := NewUser("root", "root@x.com", api.RoleAdmin)
	admin.CreatedAt = alice.CreatedAt.Add(time.Second)
	require.NoError(t, s.CreateUser(ctx, admin))

	users, err := s.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, alice.ID, users[0].ID)
	assert.Equal(t, api.RoleAdmin, users[1].Role)

	// Accounts sharing a name: the oldest wins, then the lowest id,
	// regardless of insertion order.
	created := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	twins := []struct {
		id      string
		email   string
		created time.Time
	}{
		{"00000000-0000-4000-8000-000000000000", "twin0@x.com", created.Add(time.Second)},
		{"00000000-0000-4000-8000-000000000002", "twin2@x.com", created},
		{"00000000-0000-4000-8000-000000000001", "twin1@x.com", created},
	}
	for _, tw := range twins {
		u := NewUser("twin", tw.email, api.RoleUser)
		u.ID = tw.id
		u.CreatedAt = tw.created
		require.NoError(t, s.CreateUser(ctx, u))
	}
	for range 3 {
		twin, err := s.FindByLoginKey(ctx, "twin")
		require.NoError(t, err)
		assert.Equal(t, "00000000-0000-4000-8000-000000000001", twin.ID)
	}
}

func sampleFields(first string) api.RecordFields {
	return api.RecordFields{
		LastUpdatedBy: "alice",
		FirstName:     first,
		LastName:      "Cruz",
		MI:            "D",
		Course:        "BSIT",
		YearLevel:     "2",
		PaymentFor:    "Tuition",
		Amount:        "1500.00",
		ReceivedBy:    "bob",
	}
}

func testRecords(t *testing.T, s storage.Store) {
	ctx := context.Background()

	var first api.Record
	sampleFields("Juan").Apply(&first)
	require.NoError(t, s.CreateRecord(ctx, &first))
	assert.NotZero(t, first.ID)
	assert.False(t, first.CreatedAt.IsZero())

	var second api.Record
	sampleFields("Maria").Apply(&second)
	require.NoError(t, s.CreateRecord(ctx, &second))
	assert.Greater(t, second.ID, first.ID)

	records, err := s.ListRecords(ctx)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(records), 2)
	assert.Equal(t, first.ID, records[0].ID)
	assert.Equal(t, "Juan", records[0].FirstName)
	assert.Equal(t, "1500.00", records[0].Amount)

	update := api.Record{ID: first.ID}
	fields := sampleFields("Juan Carlos")
	fields.Amount = "2000.00"
	fields.LastUpdatedBy = "root"
	fields.Apply(&update)
	require.NoError(t, s.UpdateRecord(ctx, &update))

	got, err := s.GetRecord(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "Juan Carlos", got.FirstName)
	assert.Equal(t, "2000.00", got.Amount)
	assert.Equal(t, "root", got.LastUpdatedBy)
	assert.True(t, got.CreatedAt.Equal(first.CreatedAt), "CreatedAt is preserved")
	assert.False(t, got.UpdatedAt.Before(first.UpdatedAt))

	missing := api.Record{ID: 999999}
	assert.ErrorIs(t, s.UpdateRecord(ctx, &missing), storage.ErrNotFound)
	_, err = s.GetRecord(ctx, 999999)
	assert.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, s.DeleteRecord(ctx, first.ID))
	assert.ErrorIs(t, s.DeleteRecord(ctx, first.ID), storage.ErrNotFound)
	_, err = s.GetRecord(ctx, first.ID)
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func testConcurrentRecords(t *testing.T, s storage.Store) {
	ctx := context.Background()

	before, err := s.ListRecords(ctx)
	require.NoError(t, err)

	const n = 10
	var wg sync.WaitGroup
	ids := make(chan int64, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			var r api.Record
			sampleFields("Concurrent").Apply(&r)
			if err := s.CreateRecord(ctx, &r); err != nil {
				t.Errorf("CreateRecord: %v", err)
				return
			}
			ids <- r.ID
		}()
	}
	wg.Wait()
	close(ids)

	seen := make(map[int64]bool)
	for id := range ids {
		assert.False(t, seen[id], "duplicate id %d", id)
		seen[id] = true
	}

	after, err := s.ListRecords(ctx)
	require.NoError(t, err)
	assert.Len(t, after, len(before)+n)
}
