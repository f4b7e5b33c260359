// Package testkit holds assertions shared by parser tests and fuzz harnesses.
package testkit

import (
	"fmt"

	"fortio.org/safecast"

	"raven/internal/ast"
	"raven/internal/source"
)

// CheckSpanInvariants runs a minimal set of span invariants on a parsed file:
// 1) file.Span points at sf and stays within its content
// 2) every clean unit has a non-empty span inside file.Span
// 3) file.Span covers the union of unit spans
// Poisoned units may end up with an empty span after recovery.
func CheckSpanInvariants(f *ast.File, sf *source.File) error {
	if f == nil || sf == nil {
		return fmt.Errorf("nil file")
	}
	if f.Span.File != sf.ID {
		return fmt.Errorf("file span points to different file id: got=%d want=%d", f.Span.File, sf.ID)
	}
	lenContent, err := safecast.Conv[uint32](len(sf.Content))
	if err != nil {
		return fmt.Errorf("len content overflow: %w", err)
	}
	if f.Span.End > lenContent || f.Span.Start > f.Span.End {
		return fmt.Errorf("file span %v outside content of %d bytes", f.Span, lenContent)
	}

	var union source.Span
	var haveUnit bool
	for i, u := range f.Units {
		if u == nil {
			return fmt.Errorf("nil unit at %d", i)
		}
		sp := u.Span
		if sp.File != sf.ID {
			return fmt.Errorf("unit %s span file mismatch: got=%d want=%d", u.FullName(), sp.File, sf.ID)
		}
		if sp.Start > sp.End || (!u.Poisoned && sp.Empty()) {
			return fmt.Errorf("bad span %v for unit %s", sp, u.FullName())
		}
		if sp.Start < f.Span.Start || sp.End > f.Span.End {
			return fmt.Errorf("unit %s span %v is outside file span %v", u.FullName(), sp, f.Span)
		}
		if !haveUnit {
			union = sp
			haveUnit = true
		} else {
			union = union.Cover(sp)
		}
	}
	if haveUnit && (union.Start < f.Span.Start || union.End > f.Span.End) {
		return fmt.Errorf("file span %v does not cover union of units %v", f.Span, union)
	}
	return nil
}
