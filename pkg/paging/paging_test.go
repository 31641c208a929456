package paging

import "testing"

func TestBounds(t *testing.T) {
	cases := []struct {
		name     string
		limit    int
		offset   int
		from, to int
	}{
		{"defaults", 10, 0, 0, 9},
		{"second page", 10, 10, 10, 19},
		{"single row", 1, 5, 5, 5},
		{"zero limit is empty but well-formed", 0, 3, 3, 2},
		{"zero limit at origin", 0, 0, 0, -1},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			from, to := Bounds(tc.limit, tc.offset)
			if from != tc.from || to != tc.to {
				t.Fatalf("Bounds(%d, %d) = (%d, %d), want (%d, %d)", tc.limit, tc.offset, from, to, tc.from, tc.to)
			}
		})
	}
}

func TestValidateRejectsNegatives(t *testing.T) {
	neg := -1
	ok := 5
	if err := Validate(&neg, nil); err == nil {
		t.Fatalf("expected error for negative limit")
	}
	if err := Validate(nil, &neg); err == nil {
		t.Fatalf("expected error for negative offset")
	}
	if err := Validate(&ok, &ok); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := Validate(nil, nil); err != nil {
		t.Fatalf("nil params must be valid, got: %v", err)
	}
}

func TestNormalizeDefaults(t *testing.T) {
	limit, offset := Normalize(nil, nil)
	if limit != 10 || offset != 0 {
		t.Fatalf("Normalize(nil, nil) = (%d, %d), want (10, 0)", limit, offset)
	}
	// The default window must never degenerate into an empty range.
	from, to := Bounds(limit, offset)
	if to < from {
		t.Fatalf("default bounds (%d, %d) are an empty range", from, to)
	}

	zero := 0
	seven := 7
	limit, offset = Normalize(&zero, &seven)
	if limit != 0 || offset != 7 {
		t.Fatalf("Normalize(&0, &7) = (%d, %d), want (0, 7)", limit, offset)
	}
}
