// Package paging translates (limit, offset) pairs into the inclusive range
// bounds expected by range-based query backends.
package paging

import "fmt"

const (
	// DefaultLimit and DefaultOffset apply when a caller passes nil params.
	// Listing with no arguments must window the first ten rows; a zero
	// default limit would silently empty every unparameterized call.
	DefaultLimit  = 10
	DefaultOffset = 0
)

// Bounds converts limit and offset into an inclusive (from, to) range.
// A limit of zero yields the well-formed empty range (from, from-1).
func Bounds(limit, offset int) (from, to int) {
	from = offset
	if limit == 0 {
		return from, from - 1
	}
	return from, offset + limit - 1
}

// Validate rejects negative limit or offset. Nil values are valid and
// deferred to Normalize.
func Validate(limit, offset *int) error {
	if limit != nil && *limit < 0 {
		return fmt.Errorf("limit %d must not be negative", *limit)
	}
	if offset != nil && *offset < 0 {
		return fmt.Errorf("offset %d must not be negative", *offset)
	}
	return nil
}

// Normalize fills in the default limit and offset for nil values.
func Normalize(limit, offset *int) (int, int) {
	l, o := DefaultLimit, DefaultOffset
	if limit != nil {
		l = *limit
	}
	if offset != nil {
		o = *offset
	}
	return l, o
}
