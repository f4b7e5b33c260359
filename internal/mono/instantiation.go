package mono

import (
	"slices"
	"sync"

	"raven/internal/asyncrt"
	"raven/internal/hir"
	"raven/internal/types"
)

// InstantiationKind identifies the kind of entity being instantiated.
type InstantiationKind uint8

const (
	// InstFn represents a function instantiation.
	InstFn InstantiationKind = iota
	// InstType represents a struct instantiation.
	InstType
)

func (k InstantiationKind) String() string {
	if k == InstType {
		return "struct"
	}
	return "fn"
}

// InstantiationKey is the comparable identity of an instance. ArgsKey is
// the canonical rendering of the type arguments.
type InstantiationKey struct {
	Generic string
	ArgsKey string
}

func keyOf(generic string, args []types.Type) InstantiationKey {
	return InstantiationKey{Generic: generic, ArgsKey: types.ListString(args)}
}

// InstEntry is one claimed instance.
type InstEntry struct {
	Kind     InstantiationKind
	Key      InstantiationKey
	Name     string
	TypeArgs []types.Type

	mu         sync.Mutex
	done       bool
	unit       *hir.Unit
	err        error
	requesters []string
	waiters    asyncrt.WaitList
}

func (e *InstEntry) addRequester(owner string) {
	e.mu.Lock()
	if i, found := slices.BinarySearch(e.requesters, owner); !found {
		e.requesters = slices.Insert(e.requesters, i, owner)
	}
	e.mu.Unlock()
}

// Instance is a point-in-time copy of an entry.
type Instance struct {
	Kind       InstantiationKind
	Name       string
	Generic    string
	TypeArgs   []types.Type
	Done       bool
	Unit       *hir.Unit
	Err        error
	Requesters []string
}

func (e *InstEntry) snapshot() Instance {
	e.mu.Lock()
	defer e.mu.Unlock()
	return Instance{
		Kind:       e.Kind,
		Name:       e.Name,
		Generic:    e.Key.Generic,
		TypeArgs:   e.TypeArgs,
		Done:       e.done,
		Unit:       e.unit,
		Err:        e.err,
		Requesters: slices.Clone(e.requesters),
	}
}
