package driver

import (
	"fmt"

	"raven/internal/ast"
	"raven/internal/diag"
	"raven/internal/source"
	"raven/internal/symbols"
)

// report collects diagnostics in a fixed order: load errors, per-file
// lexer/parser diagnostics in file order, entry validation, unit failures
// by name, then instance failures by name. Failures reachable from the
// entry are errors, the rest are warnings.
func (c *compilation) report(entry string) *diag.Bag {
	all := diag.NewBag(0)
	all.Merge(c.ioBag)
	for _, st := range c.files {
		all.Merge(st.bag)
	}

	units := programUnits{reg: c.reg, cache: c.cache}
	if d, ok := c.checkEntry(entry); ok {
		all.Add(d)
	}
	reach := units.reachable(entry)

	for _, name := range c.reg.Names() {
		snap, ok := c.reg.Lookup(name)
		if !ok || snap.State != symbols.StateFailed || snap.Raw == nil {
			continue
		}
		addFailure(all, name, snap.Span, snap.Err, reach[name])
	}
	for _, inst := range c.cache.Failed() {
		var span source.Span
		if s, ok := c.reg.Lookup(inst.Generic); ok {
			span = s.Span
		}
		addFailure(all, inst.Name, span, inst.Err, reach[inst.Name])
	}

	all.Sort()
	all.Dedup()
	out := diag.NewBag(c.req.MaxDiagnostics)
	out.Merge(all)
	return out
}

func addFailure(bag *diag.Bag, name string, span source.Span, err error, reachable bool) {
	for _, e := range diag.Flatten(err) {
		sev := diag.SevWarning
		if reachable || e.Code == diag.SemaDuplicateDefinition {
			sev = diag.SevError
		}
		d := e.Diagnostic(sev)
		if d.Unit == "" {
			d.Unit = name
		}
		if d.Primary.Empty() {
			d.Primary = span
		}
		bag.Add(d)
	}
}

// checkEntry reports a missing entry, or one that is not a plain
// parameterless function.
func (c *compilation) checkEntry(entry string) (diag.Diagnostic, bool) {
	snap, ok := c.reg.Lookup(entry)
	if !ok || snap.Raw == nil {
		return diag.Diagnostic{
			Severity: diag.SevError,
			Code:     diag.SemaEntryNotFound,
			Unit:     entry,
			Message:  fmt.Sprintf("entry point `%s` not found", entry),
		}, true
	}
	raw := snap.Raw
	bad := ""
	switch {
	case raw.Kind != ast.UnitFunc:
		bad = fmt.Sprintf("is a %s, not a function", raw.Kind)
	case raw.Owner != nil:
		bad = "is an impl method"
	case len(raw.TypeParams()) > 0:
		bad = "is generic"
	case raw.Func != nil && len(raw.Func.Params) > 0:
		bad = "takes parameters"
	}
	if bad == "" {
		return diag.Diagnostic{}, false
	}
	return diag.Diagnostic{
		Severity: diag.SevError,
		Code:     diag.SemaInvalidEntry,
		Unit:     entry,
		Message:  fmt.Sprintf("entry point `%s` %s", entry, bad),
		Primary:  raw.NameSpan,
	}, true
}
