package fault

import (
	"errors"
	"fmt"
)

// Kind classifies a pipeline failure for callers. Every error that leaves
// the intake pipeline carries exactly one Kind.
type Kind string

const (
	// KindInput marks malformed or missing caller input. Not retryable.
	KindInput Kind = "input"
	// KindUpstream marks a transport failure reaching the extraction
	// backend or a document source. The caller may retry.
	KindUpstream Kind = "upstream"
	// KindParse marks backend output that cannot be interpreted as the
	// target shape. Retrying with identical input is unlikely to help.
	KindParse Kind = "parse"
	// KindValidation marks structural or business-rule rejection. Carries
	// the full violation list, never just the first.
	KindValidation Kind = "validation"
	// KindConflict marks a duplicate unique key (campaign reference).
	KindConflict Kind = "conflict"
	// KindNotFound marks a reference to a nonexistent booking or record.
	KindNotFound Kind = "not_found"
)

// Error is the typed failure returned by the intake pipeline. Msg is safe
// to hand to callers; the wrapped cause stays in logs only.
type Error struct {
	Kind   Kind
	Msg    string
	Issues []string // populated for validation errors
	cause  error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Msg, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

func (e *Error) Unwrap() error {
	return e.cause
}

// Safe returns the caller-facing summary: the stable kind plus the safe
// message, with raw cause detail stripped.
func (e *Error) Safe() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Msg)
}

// New creates an Error with the given kind and safe message.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...)}
}

// Wrap creates an Error wrapping cause. The message must be safe for
// callers; cause detail is reachable only through Unwrap.
func Wrap(cause error, kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Msg: fmt.Sprintf(format, args...), cause: cause}
}

// Validation creates a validation Error carrying the full issue list.
func Validation(msg string, issues []string) *Error {
	return &Error{Kind: KindValidation, Msg: msg, Issues: issues}
}

// KindOf returns the Kind of err, or "" if err carries none.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return ""
}

// IsKind reports whether err (or any error in its chain) carries kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// IssuesOf returns the violation list attached to err, or nil.
func IssuesOf(err error) []string {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Issues
	}
	return nil
}
