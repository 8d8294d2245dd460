// Package search keeps a Bleve index of book text used to filter catalog
// listings by keyword.
package search

import (
	"github.com/bookhaven/bookhaven-server/internal/domain"
	"github.com/bookhaven/bookhaven-server/internal/normalize"
)

// BookDocument is the indexed form of a book.
type BookDocument struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Author      string `json:"author"`
	Category    string `json:"category"`
	Description string `json:"description"` // plain text, markup stripped
}

// NewBookDocument builds the indexed form of b.
func NewBookDocument(b *domain.Book) *BookDocument {
	return &BookDocument{
		ID:          b.ID,
		Title:       b.Title,
		Author:      b.Author,
		Category:    b.Category,
		Description: normalize.PlainText(b.Description),
	}
}

// ToMap converts the document to the field names used by the mapping.
func (d *BookDocument) ToMap() map[string]any {
	return map[string]any{
		"id":          d.ID,
		"title":       d.Title,
		"author":      d.Author,
		"category":    d.Category,
		"description": d.Description,
	}
}
