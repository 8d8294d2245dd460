package domain

import "time"

// Record holds the identity and timestamps shared by every stored document.
type Record struct {
	ID        string    `json:"id"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// InitTimestamps sets both CreatedAt and UpdatedAt to now.
// Call this when creating a new entity.
func (r *Record) InitTimestamps(now time.Time) {
	r.CreatedAt = now
	r.UpdatedAt = now
}

// Touch updates the UpdatedAt timestamp.
// Call this whenever the underlying entity changes.
func (r *Record) Touch(now time.Time) {
	r.UpdatedAt = now
}
