package sema

import (
	"errors"

	"raven/internal/ast"
	"raven/internal/asyncrt"
	"raven/internal/diag"
	"raven/internal/source"
	"raven/internal/traits"
	"raven/internal/types"
)

// unitChecker holds the state of one finalization attempt.
type unitChecker struct {
	c     *Checker
	w     asyncrt.Waker
	raw   *ast.Unit
	name  string
	scope *nameScope
	env   traits.Assumptions
	errs  diag.Errors

	sigs   map[string]*signature
	vars   locals
	result types.Type
}

func newUnitChecker(c *Checker, w asyncrt.Waker, raw *ast.Unit) *unitChecker {
	return &unitChecker{
		c:     c,
		w:     w,
		raw:   raw,
		name:  raw.FullName(),
		scope: scopeOf(raw),
		sigs:  map[string]*signature{},
	}
}

func (uc *unitChecker) errorf(code diag.Code, span source.Span, format string, args ...any) *diag.Error {
	err := diag.Errorf(code, span, format, args...)
	err.Unit = uc.name
	return err
}

func (uc *unitChecker) report(code diag.Code, span source.Span, format string, args ...any) *diag.Error {
	err := uc.errorf(code, span, format, args...)
	uc.errs = append(uc.errs, err)
	return err
}

// soft records compiler errors on the unit and passes everything else
// (pending, internal failures) back to the caller.
func (uc *unitChecker) soft(err error) error {
	if err == nil {
		return nil
	}
	var de *diag.Error
	if !errors.As(err, &de) {
		return err
	}
	de.Unit = uc.name
	uc.errs = append(uc.errs, de)
	return nil
}

// adopt records an error produced without a site, such as an engine
// answer, at span.
func (uc *unitChecker) adopt(err error, span source.Span) error {
	var de *diag.Error
	if errors.As(err, &de) && de.Span == (source.Span{}) {
		de.Span = span
	}
	return uc.soft(err)
}

func isPending(err error) bool { return errors.Is(err, asyncrt.ErrPending) }

// dependencyFailed reports that the unit needed dep, which failed with cause.
func (uc *unitChecker) dependencyFailed(span source.Span, dep string, cause error) *diag.Error {
	return diag.DependencyFailed(uc.name, span, dep, cause)
}

func typeMismatch(want, got types.Type) bool {
	return want.IsValid() && got.IsValid() && !want.Equal(got)
}
