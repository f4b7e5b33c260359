package diag

import (
	"errors"
	"fmt"

	"raven/internal/source"
)

// DependencyFailed builds the error of unit, which needed dep; dep failed
// with cause. The message names the unit where the failure started.
func DependencyFailed(unit string, span source.Span, dep string, cause error) *Error {
	root := RootFailure(dep, cause)
	return &Error{
		Code:    SemaDependencyFailed,
		Unit:    unit,
		Span:    span,
		Message: fmt.Sprintf("depends on `%s`, which failed", root),
		Err:     &Error{Code: CodeOf(cause), Unit: root, Message: fmt.Sprintf("`%s` failed", root)},
	}
}

// RootFailure follows DependencyFailed chains in cause back to their
// origin. dep is returned when cause failed on its own.
func RootFailure(dep string, cause error) string {
	for _, e := range Flatten(cause) {
		if e.Code != SemaDependencyFailed {
			continue
		}
		var inner *Error
		if errors.As(e.Err, &inner) && inner.Unit != "" {
			return inner.Unit
		}
	}
	return dep
}
