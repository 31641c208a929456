package domain

import (
	"fmt"

	"transcriptvault/pkg/dates"
)

// Result reports the outcome of metadata validation. Normalized is only
// populated when Valid is true.
type Result struct {
	Valid      bool
	Errors     []string
	Normalized Metadata
}

// MissingFields returns the required fields absent from m. A zero Metadata
// reports every required field.
func MissingFields(m Metadata) []string {
	var missing []string
	if m.SourceID == "" {
		missing = append(missing, "sourceId")
	}
	if m.Title == "" {
		missing = append(missing, "title")
	}
	if m.Date == "" {
		missing = append(missing, "date")
	}
	if m.Speakers == nil {
		missing = append(missing, "speakers")
	}
	if m.Format == "" {
		missing = append(missing, "format")
	}
	return missing
}

// ValidFormat reports whether f is one of the closed format enumeration.
func ValidFormat(f Format) bool {
	for _, v := range Formats() {
		if f == v {
			return true
		}
	}
	return false
}

// ValidStatus reports whether s is one of the closed status enumeration.
func ValidStatus(s ProcessingStatus) bool {
	for _, v := range Statuses() {
		if s == v {
			return true
		}
	}
	return false
}

// Validate checks m and, when valid, returns a normalized copy with defaults
// applied: date coerced to the database form, empty tags, pending status and
// an uploadedAt stamp. The input is never mutated.
func Validate(m Metadata) Result {
	var errs []string
	for _, f := range MissingFields(m) {
		errs = append(errs, fmt.Sprintf("%s is required", f))
	}

	date := m.Date
	if m.Date != "" {
		switch {
		case dates.IsValidUser(m.Date):
			date, _ = dates.UserToDatabase(m.Date)
		case dates.IsValidDatabase(m.Date):
			// already canonical
		default:
			errs = append(errs, fmt.Sprintf("date %q is not a valid YYYY-MM-DD or RFC 3339 date", m.Date))
		}
	}
	if m.Format != "" && !ValidFormat(m.Format) {
		errs = append(errs, fmt.Sprintf("format %q is not one of %v", m.Format, Formats()))
	}
	if m.ProcessingStatus != "" && !ValidStatus(m.ProcessingStatus) {
		errs = append(errs, fmt.Sprintf("processingStatus %q is not one of %v", m.ProcessingStatus, Statuses()))
	}
	if m.Version < 0 {
		errs = append(errs, fmt.Sprintf("version %d must be a positive integer", m.Version))
	}
	if m.UploadedAt != "" && !dates.IsValidDatabase(m.UploadedAt) {
		errs = append(errs, fmt.Sprintf("uploadedAt %q is not a valid RFC 3339 date", m.UploadedAt))
	}
	if len(errs) > 0 {
		return Result{Valid: false, Errors: errs}
	}

	out := m.Clone()
	out.Date = date
	if out.Tags == nil {
		out.Tags = []string{}
	}
	if out.ProcessingStatus == "" {
		out.ProcessingStatus = StatusPending
	}
	if out.UploadedAt == "" {
		out.UploadedAt = dates.NowDatabase()
	}
	return Result{Valid: true, Normalized: out}
}
