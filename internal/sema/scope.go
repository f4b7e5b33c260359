package sema

import (
	"slices"
	"strings"

	"raven/internal/ast"
	"raven/internal/source"
	"raven/internal/types"
)

// nameScope is the context names inside one unit resolve against.
type nameScope struct {
	ns      string
	imports [][]string
	params  map[string]bool
	// self is what `Self` denotes; invalid when Self is not in scope.
	self types.Type
}

func scopeOf(raw *ast.Unit) *nameScope {
	sc := &nameScope{ns: raw.Namespace, params: map[string]bool{}}
	for _, imp := range raw.Imports {
		sc.imports = append(sc.imports, imp.Path)
	}
	for _, tp := range raw.TypeParams() {
		sc.params[tp.Name] = true
	}
	return sc
}

// candidates lists the qualified names path may refer to, in lookup order.
func (sc *nameScope) candidates(path []string) []string {
	var out []string
	add := func(name string) {
		if name != "" && !slices.Contains(out, name) {
			out = append(out, name)
		}
	}
	joined := strings.Join(path, source.Separator)
	if len(path) == 1 {
		n := path[0]
		add(source.Qualify(sc.ns, n))
		for _, imp := range sc.imports {
			p := strings.Join(imp, source.Separator)
			add(source.Qualify(p, n))
			if imp[len(imp)-1] == n {
				add(p)
			}
		}
		add(source.Qualify(source.PreludeNamespace, n))
		return out
	}
	add(joined)
	add(source.Qualify(sc.ns, joined))
	for _, imp := range sc.imports {
		if imp[len(imp)-1] == path[0] {
			add(strings.Join(append(slices.Clone(imp), path[1:]...), source.Separator))
		}
	}
	add(source.Qualify(source.PreludeNamespace, joined))
	return out
}

// locals is a stack of lexical blocks.
type locals struct {
	frames []map[string]types.Type
}

func (l *locals) push() { l.frames = append(l.frames, map[string]types.Type{}) }
func (l *locals) pop()  { l.frames = l.frames[:len(l.frames)-1] }

func (l *locals) declare(name string, t types.Type) {
	l.frames[len(l.frames)-1][name] = t
}

func (l *locals) lookup(name string) (types.Type, bool) {
	for i := len(l.frames) - 1; i >= 0; i-- {
		if t, ok := l.frames[i][name]; ok {
			return t, true
		}
	}
	return types.Invalid, false
}
