// Package types models semantic type terms: builtins, named (possibly
// generic) structs, type parameters and Self. Types are immutable values
// and safe to share between jobs.
package types

import (
	"fmt"
	"strings"
)

// Kind enumerates type term kinds.
type Kind uint8

const (
	KindInvalid Kind = iota
	KindBuiltin
	KindNamed
	KindParam
	KindSelf
)

func (k Kind) String() string {
	switch k {
	case KindInvalid:
		return "invalid"
	case KindBuiltin:
		return "builtin"
	case KindNamed:
		return "named"
	case KindParam:
		return "param"
	case KindSelf:
		return "self"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

// Type is a type term. Named types carry the generic unit name in Name
// and the arguments in Args; `main::Box<i64>` is {Named, "main::Box", [i64]}.
type Type struct {
	Kind Kind
	Name string
	Args []Type
}

// Builtin type names.
const (
	NameI64  = "i64"
	NameF64  = "f64"
	NameBool = "bool"
	NameStr  = "str"
	NameVoid = "void"
)

var (
	Invalid = Type{}
	I64     = Type{Kind: KindBuiltin, Name: NameI64}
	F64     = Type{Kind: KindBuiltin, Name: NameF64}
	Bool    = Type{Kind: KindBuiltin, Name: NameBool}
	Str     = Type{Kind: KindBuiltin, Name: NameStr}
	Void    = Type{Kind: KindBuiltin, Name: NameVoid}
	Self    = Type{Kind: KindSelf, Name: "Self"}
)

// LookupBuiltin maps a builtin name to its type.
func LookupBuiltin(name string) (Type, bool) {
	switch name {
	case NameI64:
		return I64, true
	case NameF64:
		return F64, true
	case NameBool:
		return Bool, true
	case NameStr:
		return Str, true
	case NameVoid:
		return Void, true
	}
	return Invalid, false
}

// Named builds a named type.
func Named(name string, args ...Type) Type {
	return Type{Kind: KindNamed, Name: name, Args: args}
}

// Param builds a type parameter reference.
func Param(name string) Type {
	return Type{Kind: KindParam, Name: name}
}

// IsValid reports whether t is a real type.
func (t Type) IsValid() bool { return t.Kind != KindInvalid }

// IsVoid reports whether t is void.
func (t Type) IsVoid() bool { return t.Kind == KindBuiltin && t.Name == NameVoid }

// Equal compares type terms structurally.
func (t Type) Equal(o Type) bool {
	if t.Kind != o.Kind || t.Name != o.Name || len(t.Args) != len(o.Args) {
		return false
	}
	for i := range t.Args {
		if !t.Args[i].Equal(o.Args[i]) {
			return false
		}
	}
	return true
}

func (t Type) String() string {
	var sb strings.Builder
	t.write(&sb)
	return sb.String()
}

func (t Type) write(sb *strings.Builder) {
	if t.Kind == KindInvalid {
		sb.WriteString("<invalid>")
		return
	}
	sb.WriteString(t.Name)
	if len(t.Args) > 0 {
		sb.WriteByte('<')
		WriteList(sb, t.Args)
		sb.WriteByte('>')
	}
}

// WriteList writes types separated by ", ".
func WriteList(sb *strings.Builder, ts []Type) {
	for i, a := range ts {
		if i > 0 {
			sb.WriteString(", ")
		}
		a.write(sb)
	}
}

// ListString renders types separated by ", ".
func ListString(ts []Type) string {
	var sb strings.Builder
	WriteList(&sb, ts)
	return sb.String()
}

// IsConcrete reports whether t mentions no type parameters and no Self.
func (t Type) IsConcrete() bool {
	switch t.Kind {
	case KindParam, KindSelf, KindInvalid:
		return false
	}
	for _, a := range t.Args {
		if !a.IsConcrete() {
			return false
		}
	}
	return true
}

// AllConcrete reports whether every type in ts is concrete.
func AllConcrete(ts []Type) bool {
	for _, t := range ts {
		if !t.IsConcrete() {
			return false
		}
	}
	return true
}

// Depth is the nesting depth of a type term. Leaves have depth 1.
func (t Type) Depth() int {
	d := 0
	for _, a := range t.Args {
		d = max(d, a.Depth())
	}
	return d + 1
}

// MaxDepth is the largest Depth among ts, 0 for none.
func MaxDepth(ts []Type) int {
	d := 0
	for _, t := range ts {
		d = max(d, t.Depth())
	}
	return d
}

// Specificity counts non-parameter nodes; a larger value is a more
// specific pattern.
func (t Type) Specificity() int {
	if t.Kind == KindParam {
		return 0
	}
	n := 1
	for _, a := range t.Args {
		n += a.Specificity()
	}
	return n
}

// Mentions reports whether t refers to parameter name.
func (t Type) Mentions(name string) bool {
	if t.Kind == KindParam && t.Name == name {
		return true
	}
	for _, a := range t.Args {
		if a.Mentions(name) {
			return true
		}
	}
	return false
}
