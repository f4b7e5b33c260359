package diag

import (
	"errors"
	"fmt"
	"strings"

	"raven/internal/source"
)

// Error is a compiler-domain failure carried by a unit in the symbol
// registry or returned by the scheduler.
type Error struct {
	Code    Code
	Unit    string
	Message string
	Span    source.Span
	Notes   []Note
	Err     error
}

// Errorf builds an Error with a formatted message.
func Errorf(code Code, span source.Span, format string, args ...any) *Error {
	return &Error{Code: code, Span: span, Message: fmt.Sprintf(format, args...)}
}

func (e *Error) Error() string {
	if e.Unit != "" {
		return fmt.Sprintf("%s %s: %s", e.Code.ID(), e.Unit, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code.ID(), e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// WithNote appends a secondary location.
func (e *Error) WithNote(sp source.Span, msg string) *Error {
	e.Notes = append(e.Notes, Note{Span: sp, Msg: msg})
	return e
}

// Diagnostic converts the error into a Diagnostic with the given severity.
func (e *Error) Diagnostic(sev Severity) Diagnostic {
	return Diagnostic{
		Severity: sev,
		Code:     e.Code,
		Unit:     e.Unit,
		Message:  e.Message,
		Primary:  e.Span,
		Notes:    append([]Note(nil), e.Notes...),
	}
}

// Errors is a list of independent failures of one unit.
type Errors []*Error

func (es Errors) Error() string {
	parts := make([]string, len(es))
	for i, e := range es {
		parts[i] = e.Error()
	}
	return strings.Join(parts, "; ")
}

// Flatten returns every *Error contained in err. Foreign errors are wrapped
// with UnknownCode so callers always get something printable.
func Flatten(err error) []*Error {
	if err == nil {
		return nil
	}
	var list Errors
	if errors.As(err, &list) {
		return list
	}
	var single *Error
	if errors.As(err, &single) {
		return []*Error{single}
	}
	return []*Error{{Code: UnknownCode, Message: err.Error(), Err: err}}
}

// CodeOf returns the code of the first compiler error inside err.
func CodeOf(err error) Code {
	flat := Flatten(err)
	if len(flat) == 0 {
		return UnknownCode
	}
	return flat[0].Code
}
