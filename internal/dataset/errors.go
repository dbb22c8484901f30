package dataset

import (
	"errors"
	"fmt"
)

// Sentinel errors for the three ways a load can fail.
var (
	// ErrDatasetUnavailable indicates the resource could not be read
	ErrDatasetUnavailable = errors.New("dataset unavailable")
	// ErrDatasetMalformed indicates a syntax or schema violation
	ErrDatasetMalformed = errors.New("dataset malformed")
	// ErrIntegrityCheckFailed indicates the stored digest does not match the content
	ErrIntegrityCheckFailed = errors.New("integrity check failed")
)

// UnavailableError wraps a resource provider failure
type UnavailableError struct {
	Resource string // Resource name requested from the provider
	Err      error  // Provider error
}

func (e *UnavailableError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("dataset %q unavailable: %v", e.Resource, e.Err)
	}
	return fmt.Sprintf("dataset %q unavailable", e.Resource)
}

// Is matches ErrDatasetUnavailable as well as the wrapped cause.
func (e *UnavailableError) Is(target error) bool {
	return target == ErrDatasetUnavailable
}

func (e *UnavailableError) Unwrap() error {
	return e.Err
}

// MalformedError locates a structural problem in the dataset
type MalformedError struct {
	Day    string // Day key, empty for top-level problems
	Field  string // Offending field path
	Offset int64  // Byte offset of a syntax error, -1 when not applicable
	Msg    string // Human-readable detail
}

func (e *MalformedError) Error() string {
	switch {
	case e.Offset >= 0:
		return fmt.Sprintf("dataset malformed at offset %d: %s", e.Offset, e.Msg)
	case e.Day != "" && e.Field != "":
		return fmt.Sprintf("dataset malformed: day %s: field %s: %s", e.Day, e.Field, e.Msg)
	case e.Day != "":
		return fmt.Sprintf("dataset malformed: day %s: %s", e.Day, e.Msg)
	case e.Field != "":
		return fmt.Sprintf("dataset malformed: field %s: %s", e.Field, e.Msg)
	}
	return fmt.Sprintf("dataset malformed: %s", e.Msg)
}

func (e *MalformedError) Unwrap() error {
	return ErrDatasetMalformed
}

// IntegrityError reports a digest mismatch
type IntegrityError struct {
	Expected string // Digest stored in the dataset
	Computed string // Digest of the canonical remainder
}

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("integrity check failed: expected %s, computed %s", e.Expected, e.Computed)
}

func (e *IntegrityError) Unwrap() error {
	return ErrIntegrityCheckFailed
}

func malformed(day, field, format string, args ...any) *MalformedError {
	return &MalformedError{Day: day, Field: field, Offset: -1, Msg: fmt.Sprintf(format, args...)}
}
