package memory

import (
	"context"
	"fmt"
	"reflect"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/invoicing/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// table holds the committed-or-pending rows of one entity type
type table[T any] struct {
	rows map[uuid.UUID]T
}

func newTable[T any]() *table[T] {
	return &table[T]{rows: make(map[uuid.UUID]T)}
}

// snapshot copies the rows and returns a function restoring them
func (t *table[T]) snapshot() func() {
	saved := make(map[uuid.UUID]T, len(t.rows))
	for k, v := range t.rows {
		saved[k] = v
	}
	return func() { t.rows = saved }
}

// Repository is the in-memory shared.Repository. It stores value copies,
// so callers only change stored state through Add, Update and Delete.
type Repository[T any] struct {
	store  *Store
	table  *table[T]
	schema Schema[T]
}

var _ shared.Repository[struct{}] = (*Repository[struct{}])(nil)

func (r *Repository[T]) before(ctx context.Context, op string, write bool) error {
	if err := ctx.Err(); err != nil {
		return shared.StorageFailure(r.schema.Table+"."+op, err)
	}
	return r.store.observe(r.schema.Table, op, write)
}

// Add implements shared.Repository
func (r *Repository[T]) Add(ctx context.Context, entity *T) error {
	if err := r.before(ctx, "add", true); err != nil {
		return err
	}
	id := r.schema.ID(entity)
	if _, ok := r.table.rows[id]; ok {
		return shared.AlreadyExists(fmt.Sprintf("%s with id %s already exists", r.schema.Table, id))
	}
	if err := r.checkUnique(entity, id); err != nil {
		return err
	}
	r.table.rows[id] = *entity
	return nil
}

// Get implements shared.Repository
func (r *Repository[T]) Get(ctx context.Context, conds ...shared.Condition) (*T, error) {
	rows, err := r.Filter(ctx, conds...)
	if err != nil {
		return nil, err
	}
	switch len(rows) {
	case 0:
		return nil, shared.NotFound(r.schema.Table)
	case 1:
		return &rows[0], nil
	default:
		return nil, shared.NewDomainError(shared.CodeMultipleMatches,
			fmt.Sprintf("%d %s rows match", len(rows), r.schema.Table))
	}
}

// List implements shared.Repository
func (r *Repository[T]) List(ctx context.Context, params shared.ListParams, conds ...shared.Condition) ([]T, error) {
	rows, err := r.Filter(ctx, conds...)
	if err != nil {
		return nil, err
	}
	params = params.Normalize()

	if search := strings.ToLower(strings.TrimSpace(params.Search)); search != "" && len(r.schema.Search) > 0 {
		filtered := rows[:0]
		for i := range rows {
			cols := r.schema.Columns(&rows[i])
			for _, c := range r.schema.Search {
				if s, ok := normalize(cols[c]).(string); ok && strings.Contains(strings.ToLower(s), search) {
					filtered = append(filtered, rows[i])
					break
				}
			}
		}
		rows = filtered
	}

	column, desc := params.SortColumn()
	if column != "" {
		if _, ok := r.schema.Columns(new(T))[column]; ok {
			sort.SliceStable(rows, func(i, j int) bool {
				c := compare(r.schema.Columns(&rows[i])[column], r.schema.Columns(&rows[j])[column])
				if desc {
					return c > 0
				}
				return c < 0
			})
		}
	}

	if params.Offset >= len(rows) {
		return []T{}, nil
	}
	end := params.Offset + params.Limit
	if end > len(rows) {
		end = len(rows)
	}
	return rows[params.Offset:end], nil
}

// Filter implements shared.Repository. Rows come back ordered by creation.
func (r *Repository[T]) Filter(ctx context.Context, conds ...shared.Condition) ([]T, error) {
	if err := r.before(ctx, "filter", false); err != nil {
		return nil, err
	}
	out := make([]T, 0)
	for _, row := range r.table.rows {
		ok, err := r.matches(&row, conds)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, row)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		ci := r.schema.Columns(&out[i])
		cj := r.schema.Columns(&out[j])
		if c := compare(ci["created_at"], cj["created_at"]); c != 0 {
			return c < 0
		}
		return compare(ci["id"], cj["id"]) < 0
	})
	return out, nil
}

// First implements shared.Repository
func (r *Repository[T]) First(ctx context.Context, conds ...shared.Condition) (*T, error) {
	rows, err := r.Filter(ctx, conds...)
	if err != nil || len(rows) == 0 {
		return nil, err
	}
	return &rows[0], nil
}

// Count implements shared.Repository
func (r *Repository[T]) Count(ctx context.Context, conds ...shared.Condition) (int64, error) {
	rows, err := r.Filter(ctx, conds...)
	if err != nil {
		return 0, err
	}
	return int64(len(rows)), nil
}

// Exists implements shared.Repository
func (r *Repository[T]) Exists(ctx context.Context, conds ...shared.Condition) (bool, error) {
	n, err := r.Count(ctx, conds...)
	return n > 0, err
}

// Update implements shared.Repository
func (r *Repository[T]) Update(ctx context.Context, entity *T) error {
	if err := r.before(ctx, "update", true); err != nil {
		return err
	}
	id := r.schema.ID(entity)
	if _, ok := r.table.rows[id]; !ok {
		return shared.NotFound(r.schema.Table)
	}
	if err := r.checkUnique(entity, id); err != nil {
		return err
	}
	r.table.rows[id] = *entity
	return nil
}

// Delete implements shared.Repository
func (r *Repository[T]) Delete(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	if err := r.before(ctx, "delete", true); err != nil {
		return uuid.Nil, err
	}
	if _, ok := r.table.rows[id]; !ok {
		return uuid.Nil, shared.NotFound(r.schema.Table)
	}
	delete(r.table.rows, id)
	return id, nil
}

func (r *Repository[T]) checkUnique(entity *T, id uuid.UUID) error {
	if len(r.schema.Unique) == 0 {
		return nil
	}
	cols := r.schema.Columns(entity)
	for _, key := range r.schema.Unique {
		conds := make([]shared.Condition, 0, len(key))
		for _, c := range key {
			conds = append(conds, shared.Eq(c, cols[c]))
		}
		for otherID, row := range r.table.rows {
			if otherID == id {
				continue
			}
			if ok, _ := r.matches(&row, conds); ok {
				return shared.AlreadyExists(fmt.Sprintf("%s violates unique (%s)", r.schema.Table, strings.Join(key, ", ")))
			}
		}
	}
	return nil
}

func (r *Repository[T]) matches(row *T, conds []shared.Condition) (bool, error) {
	if len(conds) == 0 {
		return true, nil
	}
	cols := r.schema.Columns(row)
	for _, c := range conds {
		v, ok := cols[c.Field]
		if !ok {
			return false, shared.ServiceFailure(fmt.Sprintf("unknown column %s.%s", r.schema.Table, c.Field))
		}
		switch c.Op {
		case shared.OpEq:
			if c.IsNull() {
				if normalize(v) != nil {
					return false, nil
				}
				continue
			}
			if !equal(v, c.Value) {
				return false, nil
			}
		case shared.OpIn:
			if !contains(c.Value, v) {
				return false, nil
			}
		default:
			return false, shared.ServiceFailure(fmt.Sprintf("unsupported operator %d", c.Op))
		}
	}
	return true, nil
}

// normalize dereferences pointers, mapping nil pointers to nil
func normalize(v any) any {
	rv := reflect.ValueOf(v)
	if !rv.IsValid() {
		return nil
	}
	if rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return nil
		}
		return normalize(rv.Elem().Interface())
	}
	return v
}

func equal(a, b any) bool {
	a, b = normalize(a), normalize(b)
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	switch av := a.(type) {
	case decimal.Decimal:
		bv, ok := b.(decimal.Decimal)
		return ok && av.Equal(bv)
	case time.Time:
		bv, ok := b.(time.Time)
		return ok && av.Equal(bv)
	}
	ra, rb := reflect.ValueOf(a), reflect.ValueOf(b)
	if ra.Kind() == reflect.String && rb.Kind() == reflect.String {
		return ra.String() == rb.String()
	}
	return reflect.DeepEqual(a, b)
}

func contains(set any, v any) bool {
	rs := reflect.ValueOf(set)
	if rs.Kind() != reflect.Slice && rs.Kind() != reflect.Array {
		return equal(set, v)
	}
	for i := 0; i < rs.Len(); i++ {
		if equal(rs.Index(i).Interface(), v) {
			return true
		}
	}
	return false
}

// compare orders two column values; nil sorts first
func compare(a, b any) int {
	a, b = normalize(a), normalize(b)
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	switch av := a.(type) {
	case time.Time:
		return av.Compare(b.(time.Time))
	case decimal.Decimal:
		return av.Cmp(b.(decimal.Decimal))
	case uuid.UUID:
		return strings.Compare(av.String(), b.(uuid.UUID).String())
	case int:
		return av - b.(int)
	case bool:
		bv := b.(bool)
		switch {
		case av == bv:
			return 0
		case !av:
			return -1
		}
		return 1
	}
	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}
