package ast

import (
	"fmt"

	"raven/internal/source"
)

// UnitKind classifies a compilation unit.
type UnitKind uint8

const (
	UnitFunc UnitKind = iota + 1
	UnitStruct
	UnitTrait
	UnitImpl
)

func (k UnitKind) String() string {
	switch k {
	case UnitFunc:
		return "fn"
	case UnitStruct:
		return "struct"
	case UnitTrait:
		return "trait"
	case UnitImpl:
		return "impl"
	}
	return "invalid"
}

// Unit is one top-level item in raw form.
type Unit struct {
	Kind       UnitKind
	Name       string // local name: "foo", "impl#0", "impl#0::add"
	Namespace  string
	Span       source.Span
	NameSpan   source.Span
	Attrs      []*Attr
	Visibility Visibility
	Internal   bool
	// Poisoned marks a unit whose item contained syntax errors.
	Poisoned bool
	// Priority comes from #[priority(N)] and is only meaningful for impls.
	Priority int8
	Imports  []*Import

	Func   *FnDecl
	Struct *StructDecl
	Trait  *TraitDecl
	Impl   *ImplDecl

	// Owner is set on impl methods and points at the impl unit.
	Owner *Unit
}

// FullName returns the unit's qualified name.
func (u *Unit) FullName() string {
	return source.Qualify(u.Namespace, u.Name)
}

// Public reports whether the unit is visible from other namespaces.
func (u *Unit) Public() bool { return u.Visibility == VisPublic }

// TypeParams returns the generic parameters the unit declares. Impl
// methods inherit the parameters of their impl.
func (u *Unit) TypeParams() []*TypeParam {
	switch u.Kind {
	case UnitFunc:
		if u.Owner != nil && u.Owner.Impl != nil {
			return u.Owner.Impl.TypeParams
		}
		return u.Func.TypeParams
	case UnitStruct:
		return u.Struct.TypeParams
	case UnitTrait:
		return u.Trait.TypeParams
	case UnitImpl:
		return u.Impl.TypeParams
	}
	return nil
}

func (u *Unit) String() string {
	return fmt.Sprintf("%s %s", u.Kind, u.FullName())
}

// ImplName returns the local name of the n-th impl in a file.
func ImplName(n int) string {
	return fmt.Sprintf("impl#%d", n)
}

// TypeParam is `T` or `T: A + B<C>`.
type TypeParam struct {
	Name   string
	Bounds []*TypeExpr
	Span   source.Span
}

// Param is a function parameter. Self params have no Type.
type Param struct {
	Name string
	Type *TypeExpr
	Self bool
	Span source.Span
}

// FnDecl is a function, impl method or trait method signature.
type FnDecl struct {
	Name       string
	TypeParams []*TypeParam
	Params     []*Param
	Result     *TypeExpr // nil means void
	Body       *Block    // nil for signatures and internal functions
	Span       source.Span
}

// Field is a struct field declaration.
type Field struct {
	Name string
	Type *TypeExpr
	Span source.Span
}

// StructDecl is `struct Name<T> { f: T }`.
type StructDecl struct {
	TypeParams []*TypeParam
	Fields     []*Field
}

// TraitDecl is `trait Name<T> { fn m(self) -> T; }`.
type TraitDecl struct {
	TypeParams []*TypeParam
	Methods    []*FnDecl
}

// ImplDecl is `impl<T> Trait<T> for Type { ... }`.
type ImplDecl struct {
	TypeParams []*TypeParam
	Trait      *TypeExpr
	Target     *TypeExpr
	Methods    []*FnDecl
}
