// Package resource holds the contracts shared by every document collection
// served through the generic repository and service.
package resource

import (
	"time"

	"github.com/terrain-ouvert/datahub/internal/query"
)

// Kind describes how documents of type T are identified, owned and prepared
// before they are first stored.
type Kind[T any] struct {
	// Name is the singular name used in messages and logs.
	Name string

	ID       func(*T) string
	SetID    func(*T, string)
	Owner    func(*T) int64
	SetOwner func(*T, int64)

	// BeforeCreate fills derived fields and defaults. It runs before
	// validation.
	BeforeCreate func(doc *T, now time.Time)

	// Query describes the fields listings may filter, sort and select on.
	Query query.Options
}

// Page is one page of documents and the total number of matches.
type Page[T any] struct {
	Items []*T
	Total int64
	Plan  query.Plan
}

// TotalPages returns the number of pages for the plan's limit.
func (p Page[T]) TotalPages() int {
	return p.Plan.TotalPages(p.Total)
}
