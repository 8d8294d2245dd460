package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookhaven/bookhaven-server/internal/domain"
	"github.com/bookhaven/bookhaven-server/internal/store"
)

func newUser(id, email string, created time.Time) *domain.User {
	u := &domain.User{Name: id, Email: email}
	u.ID = id
	u.InitTimestamps(created)
	return u
}

func TestUsers_EmailUniqueIgnoringCase(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, s.CreateUser(ctx, newUser("user-a", "Alice@Example.com", now)))

	err := s.CreateUser(ctx, newUser("user-b", "alice@example.COM", now))
	require.ErrorIs(t, err, store.ErrAlreadyExists)

	got, err := s.GetUserByEmail(ctx, "  ALICE@example.com ")
	require.NoError(t, err)
	assert.Equal(t, "user-a", got.ID)
	assert.Equal(t, "Alice@Example.com", got.Email)
}

func TestUsers_UpdateEmailConflict(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, s.CreateUser(ctx, newUser("user-a", "a@example.com", now)))
	bob := newUser("user-b", "b@example.com", now)
	require.NoError(t, s.CreateUser(ctx, bob))

	bob.Email = "A@example.com"
	require.ErrorIs(t, s.UpdateUser(ctx, bob), store.ErrAlreadyExists)
}

func TestUsers_ListOrderedByCreation(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, s.CreateUser(ctx, newUser("user-z", "z@example.com", base)))
	require.NoError(t, s.CreateUser(ctx, newUser("user-a", "a@example.com", base.Add(time.Hour))))
	require.NoError(t, s.CreateUser(ctx, newUser("user-m", "m@example.com", base)))

	users, err := s.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 3)
	assert.Equal(t, "user-m", users[0].ID)
	assert.Equal(t, "user-z", users[1].ID)
	assert.Equal(t, "user-a", users[2].ID)
}

func TestUsers_DeleteFreesEmail(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, s.CreateUser(ctx, newUser("user-a", "a@example.com", now)))
	require.NoError(t, s.DeleteUser(ctx, "user-a"))

	_, err := s.GetUser(ctx, "user-a")
	require.ErrorIs(t, err, store.ErrNotFound)

	require.NoError(t, s.CreateUser(ctx, newUser("user-b", "a@example.com", now)))
}
