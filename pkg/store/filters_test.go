package store

import (
	"testing"

	"transcriptvault/pkg/domain"
)

func TestBuildFiltersEmptyQueryProducesNoFilters(t *testing.T) {
	if filters := BuildFilters(domain.SearchQuery{}); len(filters) != 0 {
		t.Fatalf("empty query must produce no filters, got %v", filters)
	}
}

func TestBuildFiltersOnePerPresentField(t *testing.T) {
	q := domain.SearchQuery{
		Title:    "standup",
		Speaker:  "Ada",
		Tag:      "weekly",
		DateFrom: "2023-01-01T00:00:00Z",
		DateTo:   "2023-12-31T00:00:00Z",
		Status:   "processed",
	}
	filters := BuildFilters(q)
	if len(filters) != 6 {
		t.Fatalf("expected 6 filters, got %d: %v", len(filters), filters)
	}
	want := []Filter{
		{Field: FieldTitle, Op: OpContainsFold, Value: "standup"},
		{Field: FieldSpeakers, Op: OpArrayContains, Value: "Ada"},
		{Field: FieldTags, Op: OpArrayContains, Value: "weekly"},
		{Field: FieldDate, Op: OpGTE, Value: "2023-01-01T00:00:00Z"},
		{Field: FieldDate, Op: OpLTE, Value: "2023-12-31T00:00:00Z"},
		{Field: FieldStatus, Op: OpEquals, Value: "processed"},
	}
	for i, f := range want {
		if filters[i] != f {
			t.Fatalf("filters[%d] = %+v, want %+v", i, filters[i], f)
		}
	}
}

func TestBuildFiltersPartialQuery(t *testing.T) {
	filters := BuildFilters(domain.SearchQuery{Speaker: "Ada"})
	if len(filters) != 1 {
		t.Fatalf("expected 1 filter, got %v", filters)
	}
	if filters[0].Field != FieldSpeakers || filters[0].Op != OpArrayContains {
		t.Fatalf("unexpected filter %+v", filters[0])
	}
}
