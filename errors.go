package sqlmapper

import (
	"errors"
	"strings"
)

var (
	ErrMissingParam     = errors.New("sqlmapper: missing parameter")
	ErrEmptyCollection  = errors.New("sqlmapper: empty collection parameter")
	ErrUnsupportedValue = errors.New("sqlmapper: unsupported value")
	ErrPrecondition     = errors.New("sqlmapper: precondition violated")
	ErrValidation       = errors.New("sqlmapper: validation failed")
	ErrSessionReleased  = errors.New("sqlmapper: session already released")
	ErrNoSession        = errors.New("sqlmapper: no session in context")
	ErrUnknownQuery     = errors.New("sqlmapper: unknown named query")
	ErrSessionBroken    = errors.New("sqlmapper: session has no transaction after a failed commit")
)

// ValidationError reports a row that could not be materialized into a record.
type ValidationError struct {
	Type  string
	Path  []string
	Cause error
}

func (e *ValidationError) Error() string {
	var b strings.Builder
	b.WriteString("sqlmapper: validate ")
	b.WriteString(e.Type)
	if len(e.Path) > 0 {
		b.WriteByte('.')
		b.WriteString(strings.Join(e.Path, "."))
	}
	if e.Cause != nil {
		b.WriteString(": ")
		b.WriteString(e.Cause.Error())
	}
	return b.String()
}

func (e *ValidationError) Unwrap() error { return e.Cause }

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }
