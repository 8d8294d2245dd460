package store

import "errors"

// Sentinel errors returned by entity operations. Services translate them to
// domain errors.
var (
	ErrNotFound      = errors.New("store: not found")
	ErrAlreadyExists = errors.New("store: already exists")
	ErrClosed        = errors.New("store: closed")
)
