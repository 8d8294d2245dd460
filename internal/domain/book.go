// Package domain contains the core business entities of the bookstore catalog.
package domain

import (
	"strings"
	"time"
)

// Book is a catalog listing.
type Book struct {
	Record
	User          string    `json:"user"` // ID of the admin who created the listing
	Title         string    `json:"title"`
	Author        string    `json:"author"`
	Description   string    `json:"description"`
	Price         float64   `json:"price"`
	CountInStock  int       `json:"countInStock"`
	Image         string    `json:"image"`
	ImageBlurHash string    `json:"imageBlurHash,omitempty"`
	Category      string    `json:"category"`
	SalesCount    int       `json:"salesCount"`
	IsPublished   bool      `json:"isPublished"`
	ReleaseDate   time.Time `json:"releaseDate"`
	Rating        float64   `json:"rating"`
	NumReviews    int       `json:"numReviews"`
}

// NewReleaseWindow is how far back a release date may lie for a book to count as new.
const NewReleaseWindow = 30 * 24 * time.Hour

// IsNewRelease reports whether the book is published and released within the
// window ending at now. Future release dates do not count.
func (b *Book) IsNewRelease(now time.Time) bool {
	return b.IsPublished &&
		!b.ReleaseDate.Before(now.Add(-NewReleaseWindow)) &&
		!b.ReleaseDate.After(now)
}

// HasExternalImage reports whether the image reference carries a URI scheme.
// External images are never deleted by the server.
func (b *Book) HasExternalImage() bool {
	return IsExternalRef(b.Image)
}

// IsExternalRef reports whether ref looks like "scheme:..." rather than a local path.
func IsExternalRef(ref string) bool {
	scheme, _, ok := strings.Cut(ref, ":")
	if !ok || scheme == "" {
		return false
	}
	for i, r := range scheme {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z':
		case i > 0 && (r >= '0' && r <= '9' || r == '+' || r == '-' || r == '.'):
		default:
			return false
		}
	}
	return true
}

// BookPatch carries an update. A nil field is left untouched; a non-nil field is
// applied even when it holds a zero value.
type BookPatch struct {
	Title        *string
	Author       *string
	Description  *string
	Price        *float64
	CountInStock *int
	Category     *string
	IsPublished  *bool
	ReleaseDate  *time.Time
}

// IsEmpty reports whether the patch changes no field.
func (p *BookPatch) IsEmpty() bool {
	return p.Title == nil && p.Author == nil && p.Description == nil &&
		p.Price == nil && p.CountInStock == nil && p.Category == nil &&
		p.IsPublished == nil && p.ReleaseDate == nil
}

// Apply copies every present field onto b.
func (p *BookPatch) Apply(b *Book) {
	if p.Title != nil {
		b.Title = *p.Title
	}
	if p.Author != nil {
		b.Author = *p.Author
	}
	if p.Description != nil {
		b.Description = *p.Description
	}
	if p.Price != nil {
		b.Price = *p.Price
	}
	if p.CountInStock != nil {
		b.CountInStock = *p.CountInStock
	}
	if p.Category != nil {
		b.Category = *p.Category
	}
	if p.IsPublished != nil {
		b.IsPublished = *p.IsPublished
	}
	if p.ReleaseDate != nil {
		b.ReleaseDate = *p.ReleaseDate
	}
}
