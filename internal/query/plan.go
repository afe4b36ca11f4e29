// Package query turns untrusted listing parameters into bounded query plans.
package query

import (
	"fmt"
	"math"
	"time"
)

// Op is a comparison operator understood by the stores.
type Op string

const (
	OpEq  Op = "eq"
	OpGt  Op = "gt"
	OpGte Op = "gte"
	OpLt  Op = "lt"
	OpLte Op = "lte"
	// OpIn matches any value of a list. It is never produced from request
	// parameters, only from base filters built by services.
	OpIn Op = "in"
)

// Valid reports whether op is a known operator.
func (op Op) Valid() bool {
	switch op {
	case OpEq, OpGt, OpGte, OpLt, OpLte, OpIn:
		return true
	}
	return false
}

// Kind is the value type of a filterable field.
type Kind int

const (
	KindString Kind = iota
	KindNumber
	KindInteger
	KindTime
)

// Predicate is a single field comparison.
type Predicate struct {
	Field string
	Op    Op
	Value any
}

// NewPredicate builds a predicate, rejecting unknown operators and
// non-list values for OpIn.
func NewPredicate(field string, op Op, value any) (Predicate, error) {
	if field == "" {
		return Predicate{}, fmt.Errorf("predicate field is empty")
	}
	if !op.Valid() {
		return Predicate{}, fmt.Errorf("unknown operator %q", op)
	}
	if op == OpIn {
		switch value.(type) {
		case []string, []any:
		default:
			return Predicate{}, fmt.Errorf("operator in requires a list value, got %T", value)
		}
	}
	return Predicate{Field: field, Op: op, Value: value}, nil
}

// In matches field against any of values.
func In(field string, values []string) Predicate {
	return Predicate{Field: field, Op: OpIn, Value: values}
}

// Eq matches field exactly.
func Eq(field string, value any) Predicate {
	return Predicate{Field: field, Op: OpEq, Value: value}
}

// Filter is a conjunction of predicates.
type Filter []Predicate

// And returns a new filter holding f followed by other.
func (f Filter) And(other Filter) Filter {
	out := make(Filter, 0, len(f)+len(other))
	out = append(out, f...)
	return append(out, other...)
}

// SortKey orders results by one field.
type SortKey struct {
	Field string
	Desc  bool
}

func (k SortKey) String() string {
	if k.Desc {
		return "-" + k.Field
	}
	return k.Field
}

// Plan is the compiled, bounded form of a listing request.
type Plan struct {
	Filter Filter
	Sort   []SortKey
	// Fields is the projection. Nil means every field.
	Fields []string
	Page   int
	Limit  int
	Skip   int
}

// TotalPages returns ceil(total/limit), or 0 when nothing matched.
func (p Plan) TotalPages(total int64) int {
	if total <= 0 || p.Limit <= 0 {
		return 0
	}
	limit := int64(p.Limit)
	return int((total + limit - 1) / limit)
}

// Selects reports whether field is part of the projection.
func (p Plan) Selects(field string) bool {
	if p.Fields == nil {
		return true
	}
	for _, f := range p.Fields {
		if f == field {
			return true
		}
	}
	return false
}

// WithPage returns a copy of p paginated at page with limit. Pages past
// the last representable offset are clamped so Skip never overflows.
func (p Plan) WithPage(page, limit int) Plan {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = DefaultPageSize
	}
	if page-1 > math.MaxInt/limit {
		page = math.MaxInt/limit + 1
	}
	p.Page = page
	p.Limit = limit
	p.Skip = (page - 1) * limit
	return p
}

func parseValue(kind Kind, raw string) (any, bool) {
	switch kind {
	case KindString:
		return raw, true
	case KindNumber:
		return parseNumber(raw)
	case KindInteger:
		return parseInteger(raw)
	case KindTime:
		return parseTime(raw)
	}
	return nil, false
}

var timeLayouts = []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05", "2006-01-02"}

func parseTime(raw string) (any, bool) {
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC(), true
		}
	}
	if v, ok := parseNumber(raw); ok {
		return time.UnixMilli(int64(v.(float64))).UTC(), true
	}
	return nil, false
}
