package textir

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"raven/internal/hir"
	"raven/internal/types"
)

// Backend collects emitted units in emission order.
type Backend struct {
	mu    sync.Mutex
	order []string
	text  map[string]string
}

// New creates an empty backend.
func New() *Backend {
	return &Backend{text: make(map[string]string)}
}

// Emit renders u and returns the units it refers to, in first-use order.
func (b *Backend) Emit(ctx context.Context, u *hir.Unit) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if u == nil {
		return nil, fmt.Errorf("textir: nil unit")
	}
	if u.IsGeneric() {
		return nil, fmt.Errorf("textir: generic unit %s has no code", u.Name)
	}
	e := &emitter{refs: newRefList()}
	switch u.Kind {
	case hir.UnitFunc:
		if err := e.emitFunc(u); err != nil {
			return nil, err
		}
	case hir.UnitStruct:
		e.emitStruct(u)
	case hir.UnitTrait, hir.UnitImpl:
		// записи для разрешения трейтов, кода нет
		fmt.Fprintf(&e.buf, "; %s %s\n", u.Kind, u.Name)
	default:
		return nil, fmt.Errorf("textir: unit %s has unknown kind %s", u.Name, u.Kind)
	}

	b.mu.Lock()
	if _, dup := b.text[u.Name]; !dup {
		b.order = append(b.order, u.Name)
	}
	b.text[u.Name] = e.buf.String()
	b.mu.Unlock()
	return e.refs.names, nil
}

// Units lists emitted unit names in emission order.
func (b *Backend) Units() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.order...)
}

// Text returns the rendering of one unit.
func (b *Backend) Text(name string) (string, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	s, ok := b.text[name]
	return s, ok
}

// Program concatenates every unit, separated by blank lines.
func (b *Backend) Program() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	parts := make([]string, len(b.order))
	for i, n := range b.order {
		parts[i] = b.text[n]
	}
	return strings.Join(parts, "\n")
}

// WriteTo writes Program to w.
func (b *Backend) WriteTo(w io.Writer) (int64, error) {
	n, err := io.WriteString(w, b.Program())
	return int64(n), err
}

type refList struct {
	seen  map[string]bool
	names []string
}

func newRefList() *refList { return &refList{seen: map[string]bool{}} }

func (r *refList) add(name string) {
	if name == "" || r.seen[name] {
		return
	}
	r.seen[name] = true
	r.names = append(r.names, name)
}

// addType records the struct units t needs.
func (r *refList) addType(t types.Type) {
	if t.Kind != types.KindNamed {
		return
	}
	for _, a := range t.Args {
		r.addType(a)
	}
	r.add(types.InstanceName(t.Name, t.Args))
}

type emitter struct {
	buf  strings.Builder
	refs *refList
}

func (e *emitter) emitStruct(u *hir.Unit) {
	fmt.Fprintf(&e.buf, "struct @%s {\n", u.Name)
	for _, f := range u.Struct.Fields {
		fmt.Fprintf(&e.buf, "  %s: %s\n", f.Name, f.Type)
		e.refs.addType(f.Type)
	}
	e.buf.WriteString("}\n")
}
