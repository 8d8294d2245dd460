// Package service implements the bookstore's business operations on top of
// the store, token service and image storage.
package service

import (
	"errors"
	"fmt"
	"time"

	domainerrors "github.com/bookhaven/bookhaven-server/internal/errors"
	"github.com/bookhaven/bookhaven-server/internal/store"
	"github.com/bookhaven/bookhaven-server/internal/validation"
)

// validate is the shared request validator.
var validate = validation.New()

// Clock returns the current time. Services accept one so tests can pin time.
type Clock func() time.Time

// storeError translates store sentinels into domain errors. notFound is
// returned for store.ErrNotFound; other failures are wrapped for a 500.
func storeError(err error, notFound *domainerrors.Error, op string) error {
	switch {
	case errors.Is(err, store.ErrNotFound):
		return notFound
	case errors.Is(err, store.ErrAlreadyExists):
		return domainerrors.ErrEmailTaken
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}

func ptr[T any](v T) *T {
	return &v
}
