package engine

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies engine failures so adapters can map them to consistent
// status codes.
type Kind string

const (
	KindNotFound    Kind = "not_found"
	KindValidation  Kind = "validation"
	KindConflict    Kind = "conflict"
	KindUnavailable Kind = "unavailable"
)

// Error is the engine's public error type. Messages always carry the
// operation and the identifiers involved.
type Error struct {
	Kind     Kind
	Op       string
	SourceID string
	Version  int
	Msg      string
	Err      error
}

func (e *Error) Error() string {
	var sb strings.Builder
	sb.WriteString(e.Op)
	sb.WriteString(": ")
	sb.WriteString(e.Msg)
	if e.SourceID != "" {
		fmt.Fprintf(&sb, " (sourceId=%s", e.SourceID)
		if e.Version > 0 {
			fmt.Fprintf(&sb, ", version=%d", e.Version)
		}
		sb.WriteString(")")
	}
	if e.Err != nil {
		sb.WriteString(": ")
		sb.WriteString(e.Err.Error())
	}
	return sb.String()
}

func (e *Error) Unwrap() error { return e.Err }

// KindOf extracts the failure kind, or "" for non-engine errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsNotFound reports whether err is a NotFound engine error.
func IsNotFound(err error) bool { return KindOf(err) == KindNotFound }

// IsValidation reports whether err is a Validation engine error.
func IsValidation(err error) bool { return KindOf(err) == KindValidation }

// IsConflict reports whether err is a Conflict engine error.
func IsConflict(err error) bool { return KindOf(err) == KindConflict }

// IsUnavailable reports whether err is an Unavailable engine error.
func IsUnavailable(err error) bool { return KindOf(err) == KindUnavailable }

func notFound(op, sourceID string, version int, err error) *Error {
	msg := "transcript not found"
	if version > 0 {
		msg = fmt.Sprintf("transcript version %d not found", version)
	}
	return &Error{Kind: KindNotFound, Op: op, SourceID: sourceID, Version: version, Msg: msg, Err: err}
}

func validation(op, msg string) *Error {
	return &Error{Kind: KindValidation, Op: op, Msg: msg}
}

func conflict(op, sourceID string, version int, err error) *Error {
	return &Error{
		Kind: KindConflict, Op: op, SourceID: sourceID, Version: version,
		Msg: fmt.Sprintf("version %d already assigned by a concurrent upload", version),
		Err: err,
	}
}

func unavailable(op, sourceID string, version int, msg string, err error) *Error {
	return &Error{Kind: KindUnavailable, Op: op, SourceID: sourceID, Version: version, Msg: msg, Err: err}
}
