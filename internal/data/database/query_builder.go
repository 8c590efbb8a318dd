// Package database provides a small, injection-safe builder for list
// queries with optional filters, ordering, and pagination.
package database

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/jackc/pgx/v5"
)

type ConditionType string

const (
	Equal ConditionType = "="
	ILike ConditionType = "ILIKE"
	Any   ConditionType = "ANY"

	defaultLimit  = -1
	defaultOffset = -1
)

type Condition struct {
	Field string
	Type  ConditionType
	Value any
}

func WhereCond(field string, condType ConditionType, value any) Condition {
	return Condition{Field: field, Type: condType, Value: value}
}

type ListQueryOptions struct {
	Table      string
	Columns    []string
	Conditions []Condition
	OrderBy    string
	OrderDir   string
	Limit      int
	Offset     int
}

type ListQueryOption func(*ListQueryOptions)

func NewListQueryOptions(table string, opts ...ListQueryOption) *ListQueryOptions {
	options := &ListQueryOptions{
		Table:  table,
		Limit:  defaultLimit,
		Offset: defaultOffset,
	}
	for _, opt := range opts {
		opt(options)
	}
	return options
}

// WithColumns sets the columns to select.
func WithColumns(cols ...string) ListQueryOption {
	return func(o *ListQueryOptions) {
		o.Columns = cols
	}
}

// WithCondition adds a single condition.
func WithCondition(cond Condition) ListQueryOption {
	return func(o *ListQueryOptions) {
		o.Conditions = append(o.Conditions, cond)
	}
}

// WithOrderBy sets the ordering column and direction.
func WithOrderBy(column, direction string) ListQueryOption {
	return func(o *ListQueryOptions) {
		o.OrderBy = column
		o.OrderDir = direction
	}
}

// WithLimit sets the limit. Accepts 0.
func WithLimit(limit int) ListQueryOption {
	return func(o *ListQueryOptions) {
		if limit >= 0 {
			o.Limit = limit
		}
	}
}

// WithOffset sets the offset. Accepts 0.
func WithOffset(offset int) ListQueryOption {
	return func(o *ListQueryOptions) {
		if offset >= 0 {
			o.Offset = offset
		}
	}
}

// sanitizeIdentifier quotes a single identifier via pgx.
func sanitizeIdentifier(ident string) string {
	return pgx.Identifier{ident}.Sanitize()
}

// BuildListQuery constructs a SQL query string and positional arguments from
// options. Identifiers are quoted; values always travel as parameters.
func BuildListQuery(options *ListQueryOptions) (string, []any) {
	if options == nil {
		return "", nil
	}

	var query strings.Builder

	if len(options.Columns) == 0 {
		query.WriteString("SELECT * ")
	} else {
		cols := make([]string, len(options.Columns))
		for i, col := range options.Columns {
			cols[i] = sanitizeIdentifier(col)
		}
		fmt.Fprintf(&query, "SELECT %s ", strings.Join(cols, ", "))
	}
	query.WriteString("FROM ")
	query.WriteString(sanitizeIdentifier(options.Table))

	args := []any{}
	paramCount := 1

	var where []string
	for _, cond := range options.Conditions {
		clause, condArgs, next := buildCondition(cond, paramCount)
		if clause == "" {
			continue
		}
		where = append(where, clause)
		args = append(args, condArgs...)
		paramCount = next
	}
	if len(where) > 0 {
		query.WriteString(" WHERE ")
		query.WriteString(strings.Join(where, " AND "))
	}

	if options.OrderBy != "" {
		query.WriteString(" ORDER BY ")
		query.WriteString(sanitizeIdentifier(options.OrderBy))
		if dir := strings.ToUpper(options.OrderDir); dir == "ASC" || dir == "DESC" {
			query.WriteString(" ")
			query.WriteString(dir)
		}
	}

	if options.Limit != defaultLimit {
		fmt.Fprintf(&query, " LIMIT $%d", paramCount)
		args = append(args, options.Limit)
		paramCount++
	}
	if options.Offset != defaultOffset {
		fmt.Fprintf(&query, " OFFSET $%d", paramCount)
		args = append(args, options.Offset)
	}

	return query.String(), args
}

func buildCondition(cond Condition, paramCount int) (string, []any, int) {
	if cond.Field == "" {
		return "", nil, paramCount
	}
	field := sanitizeIdentifier(cond.Field)

	switch cond.Type {
	case Equal, ILike:
		clause := fmt.Sprintf("%s %s $%d", field, cond.Type, paramCount)
		return clause, []any{cond.Value}, paramCount + 1
	case Any:
		// value = ANY over an array parameter, e.g. tags @> matching.
		rv := reflect.ValueOf(cond.Value)
		if rv.Kind() != reflect.Slice || rv.Len() == 0 {
			return "", nil, paramCount
		}
		placeholders := make([]string, rv.Len())
		args := make([]any, rv.Len())
		for i := range rv.Len() {
			placeholders[i] = fmt.Sprintf("$%d", paramCount)
			args[i] = rv.Index(i).Interface()
			paramCount++
		}
		clause := fmt.Sprintf("%s = ANY (ARRAY[%s])", field, strings.Join(placeholders, ", "))
		return clause, args, paramCount
	}
	return "", nil, paramCount
}
