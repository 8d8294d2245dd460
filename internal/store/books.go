package store

import (
	"context"

	"github.com/bookhaven/bookhaven-server/internal/domain"
)

// CreateBook stores a new book.
func (s *Store) CreateBook(ctx context.Context, b *domain.Book) error {
	return s.Books.Create(ctx, b.ID, b)
}

// GetBook returns the book with id or ErrNotFound.
func (s *Store) GetBook(ctx context.Context, id string) (*domain.Book, error) {
	return s.Books.Get(ctx, id)
}

// UpdateBook saves b.
func (s *Store) UpdateBook(ctx context.Context, b *domain.Book) error {
	return s.Books.Update(ctx, b.ID, b)
}

// DeleteBook removes a book record. The image asset is not touched.
func (s *Store) DeleteBook(ctx context.Context, id string) error {
	return s.Books.Delete(ctx, id)
}

// ListBooks returns every book in store order (creation time, then ID).
func (s *Store) ListBooks(ctx context.Context) ([]*domain.Book, error) {
	books, err := s.Books.All(ctx)
	if err != nil {
		return nil, err
	}
	sortByCreation(books, func(b *domain.Book) *domain.Record { return &b.Record })
	return books, nil
}

// QueryBooks applies q to the books in store order.
func (s *Store) QueryBooks(ctx context.Context, q Query[domain.Book]) ([]*domain.Book, error) {
	books, err := s.ListBooks(ctx)
	if err != nil {
		return nil, err
	}
	return q.Apply(books), nil
}
