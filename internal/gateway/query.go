package gateway

import (
	"context"
	"fmt"
	"reflect"
)

// Filter is an equality match on one column.
type Filter struct {
	Column string
	Value  any
}

// Order sorts results by one column.
type Order struct {
	Column    string
	Ascending bool
}

// Query selects rows of one table. A zero Limit means no limit.
type Query struct {
	Table   string
	Filters []Filter
	Order   *Order
	Limit   int
}

// From starts a query on table.
func From(table string) Query {
	return Query{Table: table}
}

// Eq adds an equality filter.
func (q Query) Eq(column string, value any) Query {
	filters := make([]Filter, len(q.Filters), len(q.Filters)+1)
	copy(filters, q.Filters)
	q.Filters = append(filters, Filter{Column: column, Value: value})
	return q
}

// OrderBy sets the sort column and direction.
func (q Query) OrderBy(column string, ascending bool) Query {
	q.Order = &Order{Column: column, Ascending: ascending}
	return q
}

// WithLimit caps the number of rows returned.
func (q Query) WithLimit(n int) Query {
	q.Limit = n
	return q
}

func (q Query) String() string {
	s := q.Table
	for _, f := range q.Filters {
		s += fmt.Sprintf(" %s=%v", f.Column, f.Value)
	}
	if q.Order != nil {
		dir := "desc"
		if q.Order.Ascending {
			dir = "asc"
		}
		s += fmt.Sprintf(" order=%s.%s", q.Order.Column, dir)
	}
	if q.Limit > 0 {
		s += fmt.Sprintf(" limit=%d", q.Limit)
	}
	return s
}

// First returns the first row matching q, or ErrNotFound.
func First[T any](ctx context.Context, t Tables, q Query) (*T, error) {
	var rows []T
	if err := t.Select(ctx, q.WithLimit(1), &rows); err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%s: %w", q.Table, ErrNotFound)
	}
	return &rows[0], nil
}

// List returns every row matching q.
func List[T any](ctx context.Context, t Tables, q Query) ([]T, error) {
	var rows []T
	if err := t.Select(ctx, q, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// CheckSliceDest reports whether dest points to a slice, as Select needs.
func CheckSliceDest(dest any) error {
	v := reflect.ValueOf(dest)
	if v.Kind() != reflect.Pointer || v.IsNil() || v.Elem().Kind() != reflect.Slice {
		return fmt.Errorf("select destination must be a non-nil slice pointer, got %T", dest)
	}
	return nil
}
