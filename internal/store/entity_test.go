package store_test

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookhaven/bookhaven-server/internal/store"
)

type testEntity struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

func newTestEntity(s *store.Store) *store.Entity[testEntity] {
	return store.NewEntity[testEntity](s, "test:").
		WithIndexTransform("email",
			func(e *testEntity) []string { return []string{strings.ToLower(e.Email)} },
			strings.ToLower,
		)
}

func TestEntity_CreateAndGet(t *testing.T) {
	s := setupTestStore(t)
	entity := newTestEntity(s)
	ctx := context.Background()

	in := &testEntity{ID: "1", Name: "John Doe", Email: "john@example.com"}
	require.NoError(t, entity.Create(ctx, "1", in))

	got, err := entity.Get(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, in, got)
}

func TestEntity_Create_DuplicateID(t *testing.T) {
	s := setupTestStore(t)
	entity := newTestEntity(s)
	ctx := context.Background()

	require.NoError(t, entity.Create(ctx, "1", &testEntity{ID: "1", Email: "a@example.com"}))

	err := entity.Create(ctx, "1", &testEntity{ID: "1", Email: "b@example.com"})
	require.ErrorIs(t, err, store.ErrAlreadyExists)
}

func TestEntity_Create_IndexConflict(t *testing.T) {
	s := setupTestStore(t)
	entity := newTestEntity(s)
	ctx := context.Background()

	require.NoError(t, entity.Create(ctx, "1", &testEntity{ID: "1", Email: "john@example.com"}))

	err := entity.Create(ctx, "2", &testEntity{ID: "2", Email: "JOHN@example.com"})
	require.ErrorIs(t, err, store.ErrAlreadyExists)

	_, err = entity.Get(ctx, "2")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestEntity_GetByIndex(t *testing.T) {
	s := setupTestStore(t)
	entity := newTestEntity(s)
	ctx := context.Background()

	require.NoError(t, entity.Create(ctx, "1", &testEntity{ID: "1", Email: "John@Example.com"}))

	got, err := entity.GetByIndex(ctx, "email", "JOHN@EXAMPLE.COM")
	require.NoError(t, err)
	assert.Equal(t, "1", got.ID)

	_, err = entity.GetByIndex(ctx, "email", "nobody@example.com")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestEntity_Update_MovesIndex(t *testing.T) {
	s := setupTestStore(t)
	entity := newTestEntity(s)
	ctx := context.Background()

	require.NoError(t, entity.Create(ctx, "1", &testEntity{ID: "1", Email: "old@example.com"}))
	require.NoError(t, entity.Update(ctx, "1", &testEntity{ID: "1", Email: "new@example.com"}))

	_, err := entity.GetByIndex(ctx, "email", "old@example.com")
	require.ErrorIs(t, err, store.ErrNotFound)

	got, err := entity.GetByIndex(ctx, "email", "new@example.com")
	require.NoError(t, err)
	assert.Equal(t, "1", got.ID)

	// The freed value can be claimed by another entity.
	require.NoError(t, entity.Create(ctx, "2", &testEntity{ID: "2", Email: "old@example.com"}))
}

func TestEntity_Update_KeepsOwnIndex(t *testing.T) {
	s := setupTestStore(t)
	entity := newTestEntity(s)
	ctx := context.Background()

	require.NoError(t, entity.Create(ctx, "1", &testEntity{ID: "1", Name: "A", Email: "a@example.com"}))
	require.NoError(t, entity.Update(ctx, "1", &testEntity{ID: "1", Name: "B", Email: "a@example.com"}))

	got, err := entity.Get(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, "B", got.Name)
}

func TestEntity_Update_Conflict(t *testing.T) {
	s := setupTestStore(t)
	entity := newTestEntity(s)
	ctx := context.Background()

	require.NoError(t, entity.Create(ctx, "1", &testEntity{ID: "1", Email: "a@example.com"}))
	require.NoError(t, entity.Create(ctx, "2", &testEntity{ID: "2", Email: "b@example.com"}))

	err := entity.Update(ctx, "2", &testEntity{ID: "2", Email: "A@example.com"})
	require.ErrorIs(t, err, store.ErrAlreadyExists)

	// Nothing changed.
	got, err := entity.GetByIndex(ctx, "email", "b@example.com")
	require.NoError(t, err)
	assert.Equal(t, "2", got.ID)
}

func TestEntity_Update_NotFound(t *testing.T) {
	s := setupTestStore(t)
	entity := newTestEntity(s)

	err := entity.Update(context.Background(), "missing", &testEntity{ID: "missing"})
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestEntity_Delete(t *testing.T) {
	s := setupTestStore(t)
	entity := newTestEntity(s)
	ctx := context.Background()

	require.NoError(t, entity.Create(ctx, "1", &testEntity{ID: "1", Email: "a@example.com"}))
	require.NoError(t, entity.Delete(ctx, "1"))

	_, err := entity.Get(ctx, "1")
	require.ErrorIs(t, err, store.ErrNotFound)
	_, err = entity.GetByIndex(ctx, "email", "a@example.com")
	require.ErrorIs(t, err, store.ErrNotFound)

	require.ErrorIs(t, entity.Delete(ctx, "1"), store.ErrNotFound)
}

func TestEntity_List_SkipsIndexKeys(t *testing.T) {
	s := setupTestStore(t)
	entity := newTestEntity(s)
	ctx := context.Background()

	for i := range 5 {
		id := fmt.Sprintf("%d", i)
		require.NoError(t, entity.Create(ctx, id, &testEntity{ID: id, Email: id + "@example.com"}))
	}

	all, err := entity.All(ctx)
	require.NoError(t, err)
	require.Len(t, all, 5)
	for _, e := range all {
		assert.NotEmpty(t, e.ID)
	}
}

func TestEntity_List_EarlyStop(t *testing.T) {
	s := setupTestStore(t)
	entity := newTestEntity(s)
	ctx := context.Background()

	for i := range 3 {
		id := fmt.Sprintf("%d", i)
		require.NoError(t, entity.Create(ctx, id, &testEntity{ID: id, Email: id + "@example.com"}))
	}

	seen := 0
	for e, err := range entity.List(ctx) {
		require.NoError(t, err)
		require.NotNil(t, e)
		seen++
		if seen == 2 {
			break
		}
	}
	assert.Equal(t, 2, seen)
}

func TestEntity_CanceledContext(t *testing.T) {
	s := setupTestStore(t)
	entity := newTestEntity(s)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.ErrorIs(t, entity.Create(ctx, "1", &testEntity{ID: "1"}), context.Canceled)
	_, err := entity.Get(ctx, "1")
	require.ErrorIs(t, err, context.Canceled)
}
