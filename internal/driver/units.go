package driver

import (
	"errors"
	"fmt"
	"slices"

	"raven/internal/asyncrt"
	"raven/internal/diag"
	"raven/internal/hir"
	"raven/internal/mono"
	"raven/internal/symbols"
)

// programUnits serves finalized units to the emit scheduler from the
// registry and the instance cache.
type programUnits struct {
	reg   *symbols.Registry
	cache *mono.Cache
}

func (p programUnits) Finalized(name string) (*hir.Unit, error) {
	// вызывается после затишья: ожидание здесь означает зависший инстанс
	inst, err := p.cache.Await(name, nil)
	switch {
	case errors.Is(err, asyncrt.ErrPending):
		return nil, &diag.Error{Code: diag.SemaResolutionStall, Unit: name, Message: fmt.Sprintf("instance `%s` never finished", name)}
	case err == nil && inst.Err != nil:
		return nil, inst.Err
	case err == nil:
		return inst.Unit, nil
	}
	snap, ok := p.reg.Lookup(name)
	if !ok || snap.Raw == nil {
		return nil, &diag.Error{Code: diag.SemaEntryNotFound, Unit: name, Message: fmt.Sprintf("unit `%s` not found", name)}
	}
	switch snap.State {
	case symbols.StateFinalized:
		return snap.Unit, nil
	case symbols.StateFailed:
		return nil, snap.Err
	}
	return nil, &diag.Error{Code: diag.SemaResolutionStall, Unit: name, Message: fmt.Sprintf("`%s` is %s", name, snap.State)}
}

// all lists every finalized unit and instance, sorted by name.
func (p programUnits) all() []*hir.Unit {
	var out []*hir.Unit
	p.reg.Range(func(s symbols.Snapshot) bool {
		if s.State == symbols.StateFinalized && s.Unit != nil {
			out = append(out, s.Unit)
		}
		return true
	})
	for _, inst := range p.cache.Instances() {
		if inst.Done && inst.Unit != nil {
			out = append(out, inst.Unit)
		}
	}
	slices.SortFunc(out, func(a, b *hir.Unit) int {
		switch {
		case a.Name < b.Name:
			return -1
		case a.Name > b.Name:
			return 1
		}
		return 0
	})
	return out
}

// reachable walks Refs of finalized units from entry. Failed units are
// included but not expanded; so are the root failures behind them.
func (p programUnits) reachable(entry string) map[string]bool {
	seen := map[string]bool{}
	if entry == "" {
		return seen
	}
	queue := []string{entry}
	for len(queue) > 0 {
		name := queue[0]
		queue = queue[1:]
		if seen[name] {
			continue
		}
		seen[name] = true
		u, err := p.Finalized(name)
		if err != nil {
			if root := diag.RootFailure(name, err); root != name {
				queue = append(queue, root)
			}
			continue
		}
		if u != nil {
			queue = append(queue, u.Refs...)
		}
	}
	return seen
}
