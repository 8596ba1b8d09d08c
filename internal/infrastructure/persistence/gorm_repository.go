package persistence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"

	"github.com/google/uuid"
	"github.com/invoicing/backend/internal/domain/shared"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var columnPattern = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// GormRepository implements shared.Repository[T] over the GORM model M.
// It is bound to whatever *gorm.DB it is given, usually a transaction.
type GormRepository[T any, M any] struct {
	db         *gorm.DB
	table      string
	toDomain   func(*M) *T
	fromDomain func(*T) *M
	idOf       func(*T) uuid.UUID
	sortFields map[string]bool
	search     []string
}

// repositoryConfig describes one entity mapping
type repositoryConfig[T any, M any] struct {
	table      string
	toDomain   func(*M) *T
	fromDomain func(*T) *M
	idOf       func(*T) uuid.UUID
	sortFields map[string]bool
	search     []string
}

func newGormRepository[T any, M any](db *gorm.DB, cfg repositoryConfig[T, M]) *GormRepository[T, M] {
	return &GormRepository[T, M]{
		db:         db,
		table:      cfg.table,
		toDomain:   cfg.toDomain,
		fromDomain: cfg.fromDomain,
		idOf:       cfg.idOf,
		sortFields: cfg.sortFields,
		search:     cfg.search,
	}
}

// Add implements shared.Repository
func (r *GormRepository[T, M]) Add(ctx context.Context, entity *T) error {
	model := r.fromDomain(entity)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return r.translate("add", err)
	}
	return nil
}

// Get implements shared.Repository
func (r *GormRepository[T, M]) Get(ctx context.Context, conds ...shared.Condition) (*T, error) {
	q, err := r.where(r.db.WithContext(ctx), conds)
	if err != nil {
		return nil, err
	}
	var ms []M
	if err := q.Limit(2).Find(&ms).Error; err != nil {
		return nil, r.translate("get", err)
	}
	switch len(ms) {
	case 0:
		return nil, shared.NotFound(r.table)
	case 1:
		return r.toDomain(&ms[0]), nil
	default:
		return nil, shared.NewDomainError(shared.CodeMultipleMatches,
			fmt.Sprintf("more than one %s row matches", r.table))
	}
}

// List implements shared.Repository
func (r *GormRepository[T, M]) List(ctx context.Context, params shared.ListParams, conds ...shared.Condition) ([]T, error) {
	q, err := r.where(r.db.WithContext(ctx), conds)
	if err != nil {
		return nil, err
	}
	params = params.Normalize()

	if search := strings.TrimSpace(params.Search); search != "" && len(r.search) > 0 {
		pattern := "%" + strings.ToLower(escapeLike(search)) + "%"
		exprs := make([]clause.Expression, 0, len(r.search))
		for _, col := range r.search {
			exprs = append(exprs, clause.Expr{
				SQL:  `LOWER(?) LIKE ? ESCAPE '\'`,
				Vars: []any{clause.Column{Name: col}, pattern},
			})
		}
		q = q.Where(clause.Or(exprs...))
	}

	column, desc := params.SortColumn()
	column = ValidateSortField(column, r.sortFields, "created_at")
	q = q.Order(clause.OrderByColumn{Column: clause.Column{Name: column}, Desc: desc}).
		Order(clause.OrderByColumn{Column: clause.Column{Name: "id"}})

	var ms []M
	if err := q.Offset(params.Offset).Limit(params.Limit).Find(&ms).Error; err != nil {
		return nil, r.translate("list", err)
	}
	return r.toDomainSlice(ms), nil
}

// Filter implements shared.Repository
func (r *GormRepository[T, M]) Filter(ctx context.Context, conds ...shared.Condition) ([]T, error) {
	q, err := r.where(r.db.WithContext(ctx), conds)
	if err != nil {
		return nil, err
	}
	var ms []M
	if err := q.Order("created_at ASC").Order("id ASC").Find(&ms).Error; err != nil {
		return nil, r.translate("filter", err)
	}
	return r.toDomainSlice(ms), nil
}

// First implements shared.Repository
func (r *GormRepository[T, M]) First(ctx context.Context, conds ...shared.Condition) (*T, error) {
	q, err := r.where(r.db.WithContext(ctx), conds)
	if err != nil {
		return nil, err
	}
	var ms []M
	if err := q.Order("created_at ASC").Order("id ASC").Limit(1).Find(&ms).Error; err != nil {
		return nil, r.translate("first", err)
	}
	if len(ms) == 0 {
		return nil, nil
	}
	return r.toDomain(&ms[0]), nil
}

// Count implements shared.Repository
func (r *GormRepository[T, M]) Count(ctx context.Context, conds ...shared.Condition) (int64, error) {
	q, err := r.where(r.db.WithContext(ctx).Model(new(M)), conds)
	if err != nil {
		return 0, err
	}
	var n int64
	if err := q.Count(&n).Error; err != nil {
		return 0, r.translate("count", err)
	}
	return n, nil
}

// Exists implements shared.Repository
func (r *GormRepository[T, M]) Exists(ctx context.Context, conds ...shared.Condition) (bool, error) {
	n, err := r.Count(ctx, conds...)
	return n > 0, err
}

// Update implements shared.Repository. Every column is written, zero
// values included; updated_at comes from the entity.
func (r *GormRepository[T, M]) Update(ctx context.Context, entity *T) error {
	model := r.fromDomain(entity)
	result := r.db.WithContext(ctx).
		Model(new(M)).
		Where("id = ?", r.idOf(entity)).
		Select("*").
		Omit("id", "created_at").
		UpdateColumns(model)
	if result.Error != nil {
		return r.translate("update", result.Error)
	}
	if result.RowsAffected == 0 {
		return shared.NotFound(r.table)
	}
	return nil
}

// Delete implements shared.Repository
func (r *GormRepository[T, M]) Delete(ctx context.Context, id uuid.UUID) (uuid.UUID, error) {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(new(M))
	if result.Error != nil {
		return uuid.Nil, r.translate("delete", result.Error)
	}
	if result.RowsAffected == 0 {
		return uuid.Nil, shared.NotFound(r.table)
	}
	return id, nil
}

func (r *GormRepository[T, M]) toDomainSlice(ms []M) []T {
	out := make([]T, 0, len(ms))
	for i := range ms {
		out = append(out, *r.toDomain(&ms[i]))
	}
	return out
}

func (r *GormRepository[T, M]) where(q *gorm.DB, conds []shared.Condition) (*gorm.DB, error) {
	for _, c := range conds {
		if !columnPattern.MatchString(c.Field) {
			return nil, shared.ServiceFailure(fmt.Sprintf("invalid column %q", c.Field))
		}
		col := clause.Column{Name: c.Field}
		switch c.Op {
		case shared.OpEq:
			if c.IsNull() {
				q = q.Where(clause.Eq{Column: col, Value: nil})
			} else {
				q = q.Where(clause.Eq{Column: col, Value: c.Value})
			}
		case shared.OpIn:
			q = q.Where(clause.IN{Column: col, Values: toValues(c.Value)})
		default:
			return nil, shared.ServiceFailure(fmt.Sprintf("unsupported operator %d", c.Op))
		}
	}
	return q, nil
}

func (r *GormRepository[T, M]) translate(op string, err error) error {
	return TranslateError(r.table+"."+op, err)
}

// TranslateError maps GORM and driver errors onto domain errors
func TranslateError(op string, err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return shared.WrapDomainError(shared.CodeAlreadyExists, "resource already exists", err)
	case errors.Is(err, gorm.ErrRecordNotFound):
		return shared.WrapDomainError(shared.CodeNotFound, "resource not found", err)
	case errors.Is(err, sql.ErrTxDone):
		return shared.WrapDomainError(shared.CodeStorage, "transaction already finished during "+op, err)
	}
	return shared.StorageFailure(op, err)
}

func toValues(v any) []any {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return []any{v}
	}
	out := make([]any, rv.Len())
	for i := range out {
		out[i] = rv.Index(i).Interface()
	}
	return out
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
