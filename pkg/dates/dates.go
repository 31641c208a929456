// Package dates converts between the three date forms used by the service:
// user input ("2006-01-02"), the canonical database form (RFC 3339 with an
// explicit offset), and the long display form ("January 2, 2006").
package dates

import (
	"fmt"
	"time"
)

const (
	userLayout    = "2006-01-02"
	displayLayout = "January 2, 2006"
)

// ParseUser parses a strict YYYY-MM-DD calendar date.
func ParseUser(s string) (time.Time, error) {
	t, err := time.Parse(userLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD: %w", s, err)
	}
	// time.Parse tolerates missing leading zeros; a round trip does not.
	if t.Format(userLayout) != s {
		return time.Time{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD", s)
	}
	return t, nil
}

// ParseDatabase parses the canonical database form.
func ParseDatabase(s string) (time.Time, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid database date %q: expected RFC 3339: %w", s, err)
	}
	return t, nil
}

// IsValidUser reports whether s is a valid user-input date.
func IsValidUser(s string) bool {
	_, err := ParseUser(s)
	return err == nil
}

// IsValidDatabase reports whether s is a valid database date.
func IsValidDatabase(s string) bool {
	_, err := ParseDatabase(s)
	return err == nil
}

// UserToDatabase converts a user-input date to the database form at UTC
// midnight, preserving the calendar day.
func UserToDatabase(s string) (string, error) {
	t, err := ParseUser(s)
	if err != nil {
		return "", err
	}
	return t.UTC().Format(time.RFC3339), nil
}

// DatabaseToUser converts a database date back to its UTC calendar day.
func DatabaseToUser(s string) (string, error) {
	t, err := ParseDatabase(s)
	if err != nil {
		return "", err
	}
	return t.UTC().Format(userLayout), nil
}

// DatabaseToDisplay renders a database date for humans, e.g. "January 15, 2024".
func DatabaseToDisplay(s string) (string, error) {
	t, err := ParseDatabase(s)
	if err != nil {
		return "", err
	}
	return t.UTC().Format(displayLayout), nil
}

// NowDatabase returns the current instant in database form.
func NowDatabase() string {
	return time.Now().UTC().Format(time.RFC3339)
}

// FormatDatabase renders an instant in database form.
func FormatDatabase(t time.Time) string {
	return t.UTC().Format(time.RFC3339)
}

// IsBefore reports whether database date a is strictly before b.
func IsBefore(a, b string) (bool, error) {
	ta, err := ParseDatabase(a)
	if err != nil {
		return false, err
	}
	tb, err := ParseDatabase(b)
	if err != nil {
		return false, err
	}
	return ta.Before(tb), nil
}

// IsAfter reports whether database date a is strictly after b.
func IsAfter(a, b string) (bool, error) {
	return IsBefore(b, a)
}

// AddDays shifts a database date by a whole number of days, as a UTC instant.
func AddDays(s string, days int) (string, error) {
	t, err := ParseDatabase(s)
	if err != nil {
		return "", err
	}
	return t.UTC().Add(time.Duration(days) * 24 * time.Hour).Format(time.RFC3339), nil
}

// DaysBetween returns the whole days from a to b (negative when b precedes a).
func DaysBetween(a, b string) (int, error) {
	ta, err := ParseDatabase(a)
	if err != nil {
		return 0, err
	}
	tb, err := ParseDatabase(b)
	if err != nil {
		return 0, err
	}
	return int(tb.Sub(ta) / (24 * time.Hour)), nil
}
