package store

import (
	"context"

	"github.com/bookhaven/bookhaven-server/internal/domain"
)

// CreateUser stores a new user. Returns ErrAlreadyExists when the email is taken.
func (s *Store) CreateUser(ctx context.Context, u *domain.User) error {
	return s.Users.Create(ctx, u.ID, u)
}

// GetUser returns the user with id or ErrNotFound.
func (s *Store) GetUser(ctx context.Context, id string) (*domain.User, error) {
	return s.Users.Get(ctx, id)
}

// GetUserByEmail looks a user up by email, ignoring case.
func (s *Store) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return s.Users.GetByIndex(ctx, "email", email)
}

// UpdateUser saves u. Returns ErrAlreadyExists when the new email belongs to someone else.
func (s *Store) UpdateUser(ctx context.Context, u *domain.User) error {
	return s.Users.Update(ctx, u.ID, u)
}

// DeleteUser removes a user. Books owned by the user are kept.
func (s *Store) DeleteUser(ctx context.Context, id string) error {
	return s.Users.Delete(ctx, id)
}

// ListUsers returns every user ordered by creation time.
func (s *Store) ListUsers(ctx context.Context) ([]*domain.User, error) {
	users, err := s.Users.All(ctx)
	if err != nil {
		return nil, err
	}
	sortByCreation(users, func(u *domain.User) *domain.Record { return &u.Record })
	return users, nil
}
