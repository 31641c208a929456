package domain

import (
	"strings"
	"testing"
)

func validMeta() Metadata {
	return Metadata{
		SourceID: "src-1",
		Title:    "Quarterly review",
		Date:     "2023-04-15",
		Speakers: []string{"A", "B"},
		Format:   FormatJSON,
	}
}

func TestMissingFieldsReportsAllForZeroValue(t *testing.T) {
	missing := MissingFields(Metadata{})
	want := []string{"sourceId", "title", "date", "speakers", "format"}
	if len(missing) != len(want) {
		t.Fatalf("missing = %v, want %v", missing, want)
	}
	for i, f := range want {
		if missing[i] != f {
			t.Fatalf("missing[%d] = %q, want %q", i, missing[i], f)
		}
	}
}

func TestMissingFieldsAllowsEmptySpeakers(t *testing.T) {
	m := validMeta()
	m.Speakers = []string{}
	if missing := MissingFields(m); len(missing) != 0 {
		t.Fatalf("empty speakers slice should be present, got missing %v", missing)
	}
	m.Speakers = nil
	missing := MissingFields(m)
	if len(missing) != 1 || missing[0] != "speakers" {
		t.Fatalf("nil speakers should be missing, got %v", missing)
	}
}

func TestValidateNormalizesDefaults(t *testing.T) {
	in := validMeta()
	res := Validate(in)
	if !res.Valid {
		t.Fatalf("expected valid, errors: %v", res.Errors)
	}
	norm := res.Normalized
	if norm.Date != "2023-04-15T00:00:00Z" {
		t.Fatalf("date = %q, want canonical database form", norm.Date)
	}
	if norm.Tags == nil || len(norm.Tags) != 0 {
		t.Fatalf("tags = %v, want empty slice", norm.Tags)
	}
	if norm.ProcessingStatus != StatusPending {
		t.Fatalf("status = %q, want pending", norm.ProcessingStatus)
	}
	if norm.UploadedAt == "" {
		t.Fatalf("uploadedAt not stamped")
	}
	// Caller-owned input must stay untouched.
	if in.Tags != nil || in.ProcessingStatus != "" || in.UploadedAt != "" || in.Date != "2023-04-15" {
		t.Fatalf("input was mutated: %+v", in)
	}
}

func TestValidateAcceptsDatabaseFormDate(t *testing.T) {
	m := validMeta()
	m.Date = "2023-04-15T09:30:00Z"
	res := Validate(m)
	if !res.Valid {
		t.Fatalf("expected valid, errors: %v", res.Errors)
	}
	if res.Normalized.Date != "2023-04-15T09:30:00Z" {
		t.Fatalf("canonical date must pass through, got %q", res.Normalized.Date)
	}
}

func TestValidateRejectsBadEnumsAndDates(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Metadata)
		want   string
	}{
		{"bad format", func(m *Metadata) { m.Format = "pdf" }, "format"},
		{"bad status", func(m *Metadata) { m.ProcessingStatus = "done" }, "processingStatus"},
		{"bad date", func(m *Metadata) { m.Date = "2023-02-30" }, "date"},
		{"negative version", func(m *Metadata) { m.Version = -1 }, "version"},
		{"bad uploadedAt", func(m *Metadata) { m.UploadedAt = "yesterday" }, "uploadedAt"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			m := validMeta()
			tc.mutate(&m)
			res := Validate(m)
			if res.Valid {
				t.Fatalf("expected invalid")
			}
			found := false
			for _, e := range res.Errors {
				if strings.Contains(e, tc.want) {
					found = true
				}
			}
			if !found {
				t.Fatalf("errors %v should name %q", res.Errors, tc.want)
			}
		})
	}
}

func TestValidateAggregatesErrors(t *testing.T) {
	res := Validate(Metadata{Format: "pdf"})
	if res.Valid {
		t.Fatalf("expected invalid")
	}
	if len(res.Errors) < 5 {
		t.Fatalf("expected aggregated errors, got %v", res.Errors)
	}
}

func TestCloneIsDeep(t *testing.T) {
	m := validMeta()
	m.Tags = []string{"x"}
	stamp := "2023-04-15T00:00:00Z"
	m.ProcessingCompletedAt = &stamp
	c := m.Clone()
	c.Speakers[0] = "Z"
	c.Tags[0] = "y"
	*c.ProcessingCompletedAt = "changed"
	if m.Speakers[0] != "A" || m.Tags[0] != "x" || *m.ProcessingCompletedAt != stamp {
		t.Fatalf("clone shares memory with original: %+v", m)
	}
}
