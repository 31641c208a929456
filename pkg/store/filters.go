package store

import "transcriptvault/pkg/domain"

// Op names a backend-agnostic filter operation.
type Op string

const (
	OpEquals        Op = "equals"
	OpContainsFold  Op = "containsFold"
	OpArrayContains Op = "arrayContains"
	OpGTE           Op = "gte"
	OpLTE           Op = "lte"
)

// Logical field names filters address. Implementations map these onto their
// own column or attribute names.
const (
	FieldTitle    = "title"
	FieldSpeakers = "speakers"
	FieldTags     = "tags"
	FieldDate     = "date"
	FieldStatus   = "status"
)

// Filter is one backend-agnostic filter operation.
type Filter struct {
	Field string
	Op    Op
	Value string
}

// BuildFilters translates a search query into filter operations. Absent
// fields produce no entry at all, so an empty query matches everything by
// matching nothing. Date bounds are expected in database form already.
func BuildFilters(q domain.SearchQuery) []Filter {
	var filters []Filter
	if q.Title != "" {
		filters = append(filters, Filter{Field: FieldTitle, Op: OpContainsFold, Value: q.Title})
	}
	if q.Speaker != "" {
		filters = append(filters, Filter{Field: FieldSpeakers, Op: OpArrayContains, Value: q.Speaker})
	}
	if q.Tag != "" {
		filters = append(filters, Filter{Field: FieldTags, Op: OpArrayContains, Value: q.Tag})
	}
	if q.DateFrom != "" {
		filters = append(filters, Filter{Field: FieldDate, Op: OpGTE, Value: q.DateFrom})
	}
	if q.DateTo != "" {
		filters = append(filters, Filter{Field: FieldDate, Op: OpLTE, Value: q.DateTo})
	}
	if q.Status != "" {
		filters = append(filters, Filter{Field: FieldStatus, Op: OpEquals, Value: q.Status})
	}
	return filters
}
