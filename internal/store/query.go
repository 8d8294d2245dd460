package store

import (
	"cmp"
	"slices"

	"github.com/bookhaven/bookhaven-server/internal/domain"
)

// Query selects, orders and truncates a collection in memory.
// A nil Filter keeps everything, a nil Less keeps store order and a
// non-positive Limit means no limit.
type Query[T any] struct {
	Filter func(*T) bool
	Less   func(a, b *T) int
	Limit  int
}

// Apply runs the query over items, which must already be in store order.
// Sorting is stable so ties keep that order.
func (q Query[T]) Apply(items []*T) []*T {
	out := make([]*T, 0, len(items))
	for _, item := range items {
		if q.Filter == nil || q.Filter(item) {
			out = append(out, item)
		}
	}

	if q.Less != nil {
		slices.SortStableFunc(out, q.Less)
	}

	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	return out
}

// sortByCreation orders documents by creation time, then ID. This is the
// stable store order returned by list operations.
func sortByCreation[T any](items []*T, record func(*T) *domain.Record) {
	slices.SortStableFunc(items, func(a, b *T) int {
		ra, rb := record(a), record(b)
		if c := ra.CreatedAt.Compare(rb.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(ra.ID, rb.ID)
	})
}
