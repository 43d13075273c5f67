package lperr

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ErrorType defines the category of the error for better handling/display.
type ErrorType string

const (
	TypeInvalidInput ErrorType = "InvalidInput"
	TypeFetch        ErrorType = "Fetch"
	TypeTimeout      ErrorType = "Timeout"
	TypeNotCompliant ErrorType = "NotCompliant"
)

// Error is a custom error type that holds context about the failure.
type Error struct {
	Type    ErrorType
	Message string
	Context map[string]string
	Cause   error
}

func (e *Error) Error() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("[%s] %s", e.Type, e.Message))

	if len(e.Context) > 0 {
		keys := make([]string, 0, len(e.Context))
		for k := range e.Context {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			parts = append(parts, fmt.Sprintf("%s=%q", k, e.Context[k]))
		}
		sb.WriteString(" | context: {")
		sb.WriteString(strings.Join(parts, ", "))
		sb.WriteString("}")
	}

	if e.Cause != nil {
		sb.WriteString(fmt.Sprintf(" | cause: %v", e.Cause))
	}
	return sb.String()
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// InvalidInput reports a caller contract violation: a malformed mutation
// config, an out-of-range block index and the like.
func InvalidInput(format string, args ...any) *Error {
	return &Error{
		Type:    TypeInvalidInput,
		Message: fmt.Sprintf(format, args...),
	}
}

// IndexOutOfRange returns an invalid-input error for a block index outside [0, length).
func IndexOutOfRange(index, length int) *Error {
	return &Error{
		Type:    TypeInvalidInput,
		Message: fmt.Sprintf("block index %d out of range", index),
		Context: map[string]string{
			"index":  fmt.Sprint(index),
			"length": fmt.Sprint(length),
		},
	}
}

// NewFetch wraps a page or asset retrieval failure.
func NewFetch(url string, cause error) *Error {
	return &Error{
		Type:    TypeFetch,
		Message: "fetch failed",
		Context: map[string]string{"url": url},
		Cause:   cause,
	}
}

// NewTimeout returns an error indicating an operation exceeded its time limit.
func NewTimeout(operation, durationStr string, cause error) *Error {
	return &Error{
		Type:    TypeTimeout,
		Message: fmt.Sprintf("operation %q timed out after %s", operation, durationStr),
		Context: map[string]string{
			"operation": operation,
			"duration":  durationStr,
		},
		Cause: cause,
	}
}

// NewNotCompliant is returned by strict runs whose build output failed validation.
func NewNotCompliant(errs []string) *Error {
	return &Error{
		Type:    TypeNotCompliant,
		Message: fmt.Sprintf("build output failed validation with %d error(s)", len(errs)),
		Context: map[string]string{"first": first(errs)},
	}
}

// IsInvalidInput reports whether any error in err's chain is an invalid-input error.
// Errors combined with multierr are inspected individually.
func IsInvalidInput(err error) bool {
	return isType(err, TypeInvalidInput)
}

// IsNotCompliant reports whether err came from a strict run that failed validation.
func IsNotCompliant(err error) bool {
	return isType(err, TypeNotCompliant)
}

// IsTimeout reports whether err is a timeout.
func IsTimeout(err error) bool {
	return isType(err, TypeTimeout)
}

func isType(err error, t ErrorType) bool {
	if err == nil {
		return false
	}
	var e *Error
	if errors.As(err, &e) && e.Type == t {
		return true
	}
	if multi, ok := err.(interface{ Errors() []error }); ok {
		for _, inner := range multi.Errors() {
			if isType(inner, t) {
				return true
			}
		}
	}
	return false
}

func first(list []string) string {
	if len(list) == 0 {
		return ""
	}
	return list[0]
}
