package store_test

import (
	"cmp"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookhaven/bookhaven-server/internal/domain"
	"github.com/bookhaven/bookhaven-server/internal/store"
)

func newBook(id string, created time.Time, sales int, published bool) *domain.Book {
	b := &domain.Book{Title: id, SalesCount: sales, IsPublished: published}
	b.ID = id
	b.InitTimestamps(created)
	return b
}

func ids(books []*domain.Book) []string {
	out := make([]string, len(books))
	for i, b := range books {
		out[i] = b.ID
	}
	return out
}

func TestBooks_CRUD(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	b := newBook("book-1", time.Now(), 0, true)
	b.Price = 9.99
	b.CountInStock = 3
	require.NoError(t, s.CreateBook(ctx, b))

	got, err := s.GetBook(ctx, "book-1")
	require.NoError(t, err)
	assert.Equal(t, 9.99, got.Price)
	assert.Equal(t, 3, got.CountInStock)

	got.CountInStock = 0
	require.NoError(t, s.UpdateBook(ctx, got))

	got, err = s.GetBook(ctx, "book-1")
	require.NoError(t, err)
	assert.Equal(t, 0, got.CountInStock)

	require.NoError(t, s.DeleteBook(ctx, "book-1"))
	_, err = s.GetBook(ctx, "book-1")
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestBooks_QueryStableSortAndLimit(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, s.CreateBook(ctx, newBook("book-c", base, 5, true)))
	require.NoError(t, s.CreateBook(ctx, newBook("book-a", base.Add(time.Minute), 5, true)))
	require.NoError(t, s.CreateBook(ctx, newBook("book-b", base.Add(2*time.Minute), 9, true)))
	require.NoError(t, s.CreateBook(ctx, newBook("book-d", base.Add(3*time.Minute), 50, false)))

	listed, err := s.ListBooks(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"book-c", "book-a", "book-b", "book-d"}, ids(listed))

	got, err := s.QueryBooks(ctx, store.Query[domain.Book]{
		Filter: func(b *domain.Book) bool { return b.IsPublished },
		Less:   func(a, b *domain.Book) int { return cmp.Compare(b.SalesCount, a.SalesCount) },
		Limit:  2,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"book-b", "book-c"}, ids(got))
}

func TestQuery_ZeroValueKeepsEverything(t *testing.T) {
	items := []*domain.Book{newBook("1", time.Now(), 0, true), newBook("2", time.Now(), 0, false)}

	got := store.Query[domain.Book]{}.Apply(items)
	assert.Equal(t, []string{"1", "2"}, ids(got))
}
