// Package failure defines the error kinds a scenario can fail with.
package failure

import (
	"errors"
	"fmt"
	"strings"
)

const (
	CodeValidation        = "VALIDATION"
	CodeTimeoutExceeded   = "TIMEOUT_EXCEEDED"
	CodeTabNotFound       = "TAB_NOT_FOUND"
	CodePathNotFound      = "PATH_NOT_FOUND"
	CodeAssertionMismatch = "ASSERTION_MISMATCH"
	CodeDriverFailure     = "DRIVER_FAILURE"
	CodeCaseService       = "CASE_SERVICE"
	CodeRunNotFound       = "RUN_NOT_FOUND"
	CodeRunInProgress     = "RUN_IN_PROGRESS"
)

// Absent is the expected value reported when an element must not be rendered.
const Absent = "<absent>"

// CodedError is a typed error used for stable runner and API mapping.
type CodedError struct {
	Code    string
	Message string
	Cause   error
}

func (e *CodedError) Error() string {
	if e.Cause == nil {
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
}

func (e *CodedError) Unwrap() error { return e.Cause }

// New builds a CodedError.
func New(code, msg string, cause error) error {
	return &CodedError{Code: code, Message: msg, Cause: cause}
}

// Validation reports a caller error such as an empty tab path.
func Validation(msg string) error {
	return &CodedError{Code: CodeValidation, Message: msg}
}

// Timeout reports a poll that exhausted its budget without the condition holding.
func Timeout(condition string, attempts uint, cause error) error {
	return &CodedError{
		Code:    CodeTimeoutExceeded,
		Message: fmt.Sprintf("condition %q not met after %d checks", condition, attempts),
		Cause:   cause,
	}
}

// TabNotFound reports a tab missing after the whole strip was traversed.
func TabNotFound(tab string, scrolls int) error {
	return &CodedError{
		Code:    CodeTabNotFound,
		Message: fmt.Sprintf("tab %q not found after %d scrolls", tab, scrolls),
	}
}

// Driver wraps an error raised by the browser driver.
func Driver(op string, cause error) error {
	return &CodedError{Code: CodeDriverFailure, Message: op, Cause: cause}
}

// MismatchError reports a resolved value that differs from the expected one.
type MismatchError struct {
	Path     []string
	Expected string
	Actual   string
}

func (e *MismatchError) Error() string {
	return fmt.Sprintf("%s: %s: expected %q, got %q", CodeAssertionMismatch, joinPath(e.Path), e.Expected, e.Actual)
}

// PathError reports a label path that could not be resolved. Resolved holds
// the segments matched before Segment failed.
type PathError struct {
	Path     []string
	Resolved []string
	Segment  string
	Matches  int
	// Reason overrides the match-count explanation when the segment matched
	// but its content could not be read.
	Reason string
}

func (e *PathError) Error() string {
	reason := "no match"
	switch {
	case e.Reason != "":
		reason = e.Reason
	case e.Matches > 1:
		reason = fmt.Sprintf("ambiguous, %d matches", e.Matches)
	}
	return fmt.Sprintf("%s: segment %q of %s (%s; resolved %q)",
		CodePathNotFound, e.Segment, joinPath(e.Path), reason, joinPath(e.Resolved))
}

// Code returns the outermost stable code carried by err, or "" when err is
// untyped. A timeout wrapping a mismatch reports the timeout.
func Code(err error) string {
	for e := err; e != nil; e = errors.Unwrap(e) {
		switch typed := e.(type) {
		case *CodedError:
			return typed.Code
		case *MismatchError:
			return CodeAssertionMismatch
		case *PathError:
			return CodePathNotFound
		}
	}
	return ""
}

// Is reports whether err carries the given code.
func Is(err error, code string) bool {
	return err != nil && Code(err) == code
}

func joinPath(path []string) string {
	if len(path) == 0 {
		return "[]"
	}
	return "[" + strings.Join(path, " > ") + "]"
}
