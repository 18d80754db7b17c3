// Package errs defines the fatal error kinds of the cleaning step. Every kind carries a
// stable tag that is used as the log event name when the step aborts.
package errs

import (
	"errors"
	"fmt"
)

// Kind classifies a fatal error.
type Kind string

const (
	KindUsage            Kind = "usage_error"
	KindArtifactNotFound Kind = "artifact_not_found"
	KindTransfer         Kind = "transfer_error"
	KindMalformedInput   Kind = "malformed_input"
	KindInvalidRange     Kind = "invalid_range"
	KindPublish          Kind = "publish_error"
)

// Error is a classified error. Op names the operation that failed.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %s", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same kind, so errors.Is(err, errs.ErrPublish) works.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Op == "" && t.Err == nil && t.Kind == e.Kind
}

// Sentinels for errors.Is.
var (
	ErrUsage            = &Error{Kind: KindUsage}
	ErrArtifactNotFound = &Error{Kind: KindArtifactNotFound}
	ErrTransfer         = &Error{Kind: KindTransfer}
	ErrMalformedInput   = &Error{Kind: KindMalformedInput}
	ErrInvalidRange     = &Error{Kind: KindInvalidRange}
	ErrPublish          = &Error{Kind: KindPublish}
)

func newf(kind Kind, op, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

func Usage(op, format string, args ...any) *Error {
	return newf(KindUsage, op, format, args...)
}

func ArtifactNotFound(op, format string, args ...any) *Error {
	return newf(KindArtifactNotFound, op, format, args...)
}

func Transfer(op, format string, args ...any) *Error {
	return newf(KindTransfer, op, format, args...)
}

func MalformedInput(op, format string, args ...any) *Error {
	return newf(KindMalformedInput, op, format, args...)
}

func InvalidRange(op, format string, args ...any) *Error {
	return newf(KindInvalidRange, op, format, args...)
}

func Publish(op, format string, args ...any) *Error {
	return newf(KindPublish, op, format, args...)
}

// Tag returns the event tag for err. Unclassified errors get "internal_error".
func Tag(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return string(e.Kind)
	}
	return "internal_error"
}

// ExitCode maps err to the process exit status.
func ExitCode(err error) int {
	switch {
	case err == nil:
		return 0
	case errors.Is(err, ErrUsage):
		return 2
	default:
		return 1
	}
}
