package utils

import (
	"github.com/terrain-ouvert/datahub/internal/query"
)

// Page carries the counters of a paginated listing.
type Page struct {
	Page         int
	TotalResults int64
	TotalPages   int
}

// NewPage derives the counters of plan from the matching total.
func NewPage(plan query.Plan, total int64) Page {
	return Page{
		Page:         plan.Page,
		TotalResults: total,
		TotalPages:   plan.TotalPages(total),
	}
}

// Project keeps only the selected keys of each document. A nil selection
// returns docs untouched.
func Project(docs []map[string]interface{}, fields []string) []map[string]interface{} {
	if fields == nil {
		return docs
	}
	out := make([]map[string]interface{}, len(docs))
	for i, doc := range docs {
		kept := make(map[string]interface{}, len(fields))
		for _, f := range fields {
			if v, ok := doc[f]; ok {
				kept[f] = v
			}
		}
		out[i] = kept
	}
	return out
}
