// Package hir is the finalized, typed form of compilation units.
package hir

import (
	"raven/internal/source"
	"raven/internal/types"
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

// Unit is a finalized compilation unit. Instances produced by
// degenericing carry Origin (the generic) and TypeArgs.
type Unit struct {
	Name   string
	Kind   UnitKind
	Span   source.Span
	Public bool

	Func   *Func
	Struct *Struct
	Trait  *Trait
	Impl   *Impl

	// Refs lists units this one depends on, sorted and unique.
	Refs []string

	Origin   string
	TypeArgs []types.Type
}

// TypeParams returns the unit's generic parameters.
func (u *Unit) TypeParams() []TypeParam {
	switch u.Kind {
	case UnitFunc:
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

// IsGeneric reports whether the unit still has unbound type parameters.
func (u *Unit) IsGeneric() bool { return len(u.TypeParams()) > 0 }

// IsInstance reports whether the unit was produced by degenericing.
func (u *Unit) IsInstance() bool { return u.Origin != "" }

// TypeParam is a generic parameter with its declared bounds.
type TypeParam struct {
	Name   string
	Bounds []types.TraitRef
}

// ParamNames lists type parameter names in declaration order.
func ParamNames(tps []TypeParam) []string {
	out := make([]string, len(tps))
	for i, tp := range tps {
		out[i] = tp.Name
	}
	return out
}

// Param is a typed value parameter.
type Param struct {
	Name string
	Type types.Type
}

// Func is a function or impl method.
type Func struct {
	TypeParams []TypeParam
	Params     []Param
	Result     types.Type
	Body       *Block // nil when Internal
	Internal   bool
	Owner      string // impl unit for methods
	Method     string // method name inside the impl
}

// Field is a struct field.
type Field struct {
	Name string
	Type types.Type
}

// Struct is a structure definition.
type Struct struct {
	TypeParams []TypeParam
	Fields     []Field
}

// Field looks up a field by name.
func (s *Struct) Field(name string) (Field, bool) {
	for _, f := range s.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// MethodSig is a trait method signature. The receiver is Params[0] typed Self.
type MethodSig struct {
	Name   string
	Params []Param
	Result types.Type
}

// Trait is a trait definition.
type Trait struct {
	TypeParams []TypeParam
	Methods    []MethodSig
}

// Method looks up a method signature by name.
func (t *Trait) Method(name string) (MethodSig, bool) {
	for _, m := range t.Methods {
		if m.Name == name {
			return m, true
		}
	}
	return MethodSig{}, false
}

// ImplMethod links a trait method name to the function unit implementing it.
type ImplMethod struct {
	Name string
	Unit string
}

// Impl is a trait implementation record.
type Impl struct {
	TypeParams []TypeParam
	Trait      types.TraitRef
	Target     types.Type
	Priority   int8
	Methods    []ImplMethod // sorted by Name
}

// Method returns the function unit implementing name.
func (i *Impl) Method(name string) (string, bool) {
	for _, m := range i.Methods {
		if m.Name == name {
			return m.Unit, true
		}
	}
	return "", false
}
