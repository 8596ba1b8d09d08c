package shared

import (
	"context"

	"github.com/google/uuid"
)

// Repository is the collection contract every entity repository satisfies.
// Implementations are bound to one unit-of-work session.
type Repository[T any] interface {
	// Add inserts a new entity. Fails with ALREADY_EXISTS on a duplicate key.
	Add(ctx context.Context, entity *T) error
	// Get returns the single entity matching conds, NOT_FOUND on none and
	// MULTIPLE_MATCHES on more than one.
	Get(ctx context.Context, conds ...Condition) (*T, error)
	// List filters, then applies search, sort and pagination.
	List(ctx context.Context, params ListParams, conds ...Condition) ([]T, error)
	Filter(ctx context.Context, conds ...Condition) ([]T, error)
	// First returns nil, nil when nothing matches.
	First(ctx context.Context, conds ...Condition) (*T, error)
	Count(ctx context.Context, conds ...Condition) (int64, error)
	Exists(ctx context.Context, conds ...Condition) (bool, error)
	// Update persists all fields of an existing entity. NOT_FOUND if absent.
	Update(ctx context.Context, entity *T) error
	// Delete removes the entity and returns its key. NOT_FOUND if absent.
	Delete(ctx context.Context, id uuid.UUID) (uuid.UUID, error)
}

// ListParams carries pass-through paging options
type ListParams struct {
	Search string
	// SortBy is a column name, prefixed with "-" for descending order
	SortBy string
	Offset int
	Limit  int
}

// DefaultListLimit is applied when a caller leaves Limit unset
const DefaultListLimit = 100

// MaxListLimit caps a single page
const MaxListLimit = 1000

// Normalize clamps offset and limit into range
func (p ListParams) Normalize() ListParams {
	if p.Offset < 0 {
		p.Offset = 0
	}
	if p.Limit <= 0 {
		p.Limit = DefaultListLimit
	}
	if p.Limit > MaxListLimit {
		p.Limit = MaxListLimit
	}
	return p
}

// SortColumn splits SortBy into column and direction
func (p ListParams) SortColumn() (column string, desc bool) {
	if p.SortBy == "" {
		return "", false
	}
	if p.SortBy[0] == '-' {
		return p.SortBy[1:], true
	}
	return p.SortBy, false
}
