package query

import (
	"math"
	"net/url"
	"sort"
	"strconv"
	"strings"
)

const (
	// DefaultPageSize is the page size of general listings.
	DefaultPageSize = 50
	// FavoritesPageSize is the page size of favorites listings.
	FavoritesPageSize = 15
	// MaxPageSize caps any requested limit.
	MaxPageSize = 100
	// DefaultIDField names the identifier when Options leaves it empty.
	DefaultIDField = "id"
)

// Reserved parameters never become filters.
const (
	ParamSort   = "sort"
	ParamFields = "fields"
	ParamPage   = "page"
	ParamLimit  = "limit"
)

var reserved = map[string]bool{
	ParamSort:   true,
	ParamFields: true,
	ParamPage:   true,
	ParamLimit:  true,
}

// requestOps are the operators accepted in field[op] parameters.
var requestOps = map[string]Op{
	"eq":  OpEq,
	"gt":  OpGt,
	"gte": OpGte,
	"lt":  OpLt,
	"lte": OpLte,
}

// Options describes the collection a plan is compiled for.
type Options struct {
	// Fields lists the filterable, sortable and selectable fields.
	Fields map[string]Kind
	// SelectOnly lists fields that may be projected but never filtered or
	// sorted on.
	SelectOnly  []string
	IDField     string
	DefaultSort []SortKey
	PageSize    int
	MaxPageSize int
}

func (o Options) withDefaults() Options {
	if o.IDField == "" {
		o.IDField = DefaultIDField
	}
	if o.PageSize <= 0 {
		o.PageSize = DefaultPageSize
	}
	if o.MaxPageSize <= 0 {
		o.MaxPageSize = MaxPageSize
	}
	if o.PageSize > o.MaxPageSize {
		o.PageSize = o.MaxPageSize
	}
	if len(o.DefaultSort) == 0 {
		o.DefaultSort = []SortKey{{Field: "createdAt", Desc: true}}
	}
	return o
}

func (o Options) known(field string) (Kind, bool) {
	if field == o.IDField {
		if k, ok := o.Fields[field]; ok {
			return k, true
		}
		return KindString, true
	}
	k, ok := o.Fields[field]
	return k, ok
}

func (o Options) selectOnly(field string) bool {
	for _, f := range o.SelectOnly {
		if f == field {
			return true
		}
	}
	return false
}

// Compile turns request parameters into a plan. It never fails: anything
// it cannot interpret is left out of the plan.
func Compile(params url.Values, opts Options) Plan {
	opts = opts.withDefaults()

	plan := Plan{
		Filter: compileFilter(params, opts),
		Sort:   compileSort(params.Get(ParamSort), opts),
		Fields: compileFields(params, opts),
	}

	page := positiveInt(params.Get(ParamPage), 1)
	limit := positiveInt(params.Get(ParamLimit), opts.PageSize)
	if limit > opts.MaxPageSize {
		limit = opts.MaxPageSize
	}
	return plan.WithPage(page, limit)
}

func compileFilter(params url.Values, opts Options) Filter {
	keys := make([]string, 0, len(params))
	for k := range params {
		if !reserved[k] {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	type slot struct {
		field string
		op    Op
	}
	seen := make(map[slot]bool)
	var filter Filter
	for _, key := range keys {
		field, op, ok := splitKey(key)
		if !ok {
			continue
		}
		kind, known := opts.known(field)
		if !known {
			continue
		}
		if seen[slot{field, op}] {
			continue
		}
		value, ok := parseValue(kind, params.Get(key))
		if !ok {
			continue
		}
		seen[slot{field, op}] = true
		filter = append(filter, Predicate{Field: field, Op: op, Value: value})
	}
	return filter
}

// splitKey parses "field" or "field[op]".
func splitKey(key string) (string, Op, bool) {
	open := strings.IndexByte(key, '[')
	if open < 0 {
		return key, OpEq, key != ""
	}
	if open == 0 || !strings.HasSuffix(key, "]") {
		return "", "", false
	}
	op, ok := requestOps[key[open+1:len(key)-1]]
	if !ok {
		return "", "", false
	}
	return key[:open], op, true
}

func compileSort(raw string, opts Options) []SortKey {
	var keys []SortKey
	seen := make(map[string]bool)
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		desc := strings.HasPrefix(part, "-")
		field := strings.TrimPrefix(strings.TrimPrefix(part, "-"), "+")
		if field == "" || seen[field] {
			continue
		}
		if _, ok := opts.known(field); !ok {
			continue
		}
		seen[field] = true
		keys = append(keys, SortKey{Field: field, Desc: desc})
	}
	if len(keys) == 0 {
		keys = append(keys, opts.DefaultSort...)
		for _, k := range keys {
			seen[k.Field] = true
		}
	}
	if !seen[opts.IDField] {
		keys = append(keys, SortKey{Field: opts.IDField})
	}
	return keys
}

func compileFields(params url.Values, opts Options) []string {
	if _, ok := params[ParamFields]; !ok {
		return nil
	}
	fields := []string{opts.IDField}
	seen := map[string]bool{opts.IDField: true}
	for _, part := range strings.Split(params.Get(ParamFields), ",") {
		part = strings.TrimSpace(part)
		if part == "" || seen[part] {
			continue
		}
		if _, ok := opts.known(part); !ok && !opts.selectOnly(part) {
			continue
		}
		seen[part] = true
		fields = append(fields, part)
	}
	if len(fields) == 1 {
		return nil
	}
	return fields
}

func positiveInt(raw string, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil || n < 1 {
		return fallback
	}
	return n
}

func parseNumber(raw string) (any, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil, false
	}
	return v, true
}

func parseInteger(raw string) (any, bool) {
	v, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return nil, false
	}
	return v, true
}
