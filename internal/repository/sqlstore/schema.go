package sqlstore

import (
	"fmt"
	"strings"

	"github.com/terrain-ouvert/datahub/internal/query"
)

// Column maps one document field onto a table column.
type Column[T any] struct {
	// Field is the name used by query plans.
	Field string
	// Name is the SQL column.
	Name string
	// Scan returns the destination a row value is scanned into.
	Scan func(*T) any
	// Value returns the argument bound on insert and update.
	Value func(*T) any
}

// Schema maps a document type onto a table.
type Schema[T any] struct {
	// Name is the singular document name used in errors.
	Name    string
	Table   string
	IDField string
	Columns []Column[T]
	New     func() *T
	ID      func(*T) string
}

func (s Schema[T]) column(field string) (Column[T], bool) {
	for _, c := range s.Columns {
		if c.Field == field {
			return c, true
		}
	}
	return Column[T]{}, false
}

func (s Schema[T]) idColumn() Column[T] {
	c, _ := s.column(s.IDField)
	return c
}

// selected returns the columns of the projection, identifier first.
func (s Schema[T]) selected(fields []string) []Column[T] {
	if fields == nil {
		return s.Columns
	}
	cols := []Column[T]{s.idColumn()}
	for _, f := range fields {
		if f == s.IDField {
			continue
		}
		if c, ok := s.column(f); ok {
			cols = append(cols, c)
		}
	}
	return cols
}

func columnNames[T any](cols []Column[T]) string {
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.Name
	}
	return strings.Join(names, ", ")
}

var opSymbols = map[query.Op]string{
	query.OpEq:  "=",
	query.OpGt:  ">",
	query.OpGte: ">=",
	query.OpLt:  "<",
	query.OpLte: "<=",
}

// where renders filter as a parameterized WHERE clause. Column names come
// from the schema only; values are always bound.
func (s Schema[T]) where(filter query.Filter) (string, []any, error) {
	var parts []string
	var args []any
	for _, p := range filter {
		col, ok := s.column(p.Field)
		if !ok {
			return "", nil, fmt.Errorf("unknown field %q", p.Field)
		}
		if p.Op == query.OpIn {
			values := listArgs(p.Value)
			if len(values) == 0 {
				parts = append(parts, "1 = 0")
				continue
			}
			parts = append(parts, fmt.Sprintf("%s IN (%s)", col.Name, placeholders(len(values))))
			args = append(args, values...)
			continue
		}
		sym, ok := opSymbols[p.Op]
		if !ok {
			return "", nil, fmt.Errorf("unsupported operator %q", p.Op)
		}
		parts = append(parts, col.Name+" "+sym+" ?")
		args = append(args, bindValue(p.Value))
	}
	if len(parts) == 0 {
		return "", nil, nil
	}
	return " WHERE " + strings.Join(parts, " AND "), args, nil
}

func (s Schema[T]) orderBy(keys []query.SortKey) string {
	var parts []string
	for _, k := range keys {
		col, ok := s.column(k.Field)
		if !ok {
			continue
		}
		if k.Desc {
			parts = append(parts, col.Name+" DESC")
		} else {
			parts = append(parts, col.Name+" ASC")
		}
	}
	if len(parts) == 0 {
		return ""
	}
	return " ORDER BY " + strings.Join(parts, ", ")
}

func listArgs(v any) []any {
	switch list := v.(type) {
	case []string:
		out := make([]any, len(list))
		for i, s := range list {
			out[i] = s
		}
		return out
	case []any:
		out := make([]any, len(list))
		for i, s := range list {
			out[i] = bindValue(s)
		}
		return out
	}
	return nil
}

func placeholders(n int) string {
	return strings.TrimSuffix(strings.Repeat("?, ", n), ", ")
}
