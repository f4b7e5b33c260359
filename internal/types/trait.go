package types

import "strings"

// TraitRef names a trait with arguments: core::Add<i64>.
type TraitRef struct {
	Name string
	Args []Type
}

// Equal compares trait refs structurally.
func (r TraitRef) Equal(o TraitRef) bool {
	if r.Name != o.Name || len(r.Args) != len(o.Args) {
		return false
	}
	for i := range r.Args {
		if !r.Args[i].Equal(o.Args[i]) {
			return false
		}
	}
	return true
}

func (r TraitRef) String() string {
	var sb strings.Builder
	sb.WriteString(r.Name)
	if len(r.Args) > 0 {
		sb.WriteByte('<')
		WriteList(&sb, r.Args)
		sb.WriteByte('>')
	}
	return sb.String()
}

// Apply substitutes parameters in the trait arguments.
func (r TraitRef) Apply(s Subst) TraitRef {
	return TraitRef{Name: r.Name, Args: ApplyAll(r.Args, s)}
}

// ReplaceSelf substitutes Self in the trait arguments.
func (r TraitRef) ReplaceSelf(self Type) TraitRef {
	args := make([]Type, len(r.Args))
	for i, a := range r.Args {
		args[i] = a.ReplaceSelf(self)
	}
	return TraitRef{Name: r.Name, Args: args}
}

// IsConcrete reports whether all arguments are concrete.
func (r TraitRef) IsConcrete() bool { return AllConcrete(r.Args) }

// Bound is `Param: Trait<...>`.
type Bound struct {
	Param string
	Trait TraitRef
}

// InstanceName names the instantiation of generic with args: `main::id<i64>`.
func InstanceName(generic string, args []Type) string {
	if len(args) == 0 {
		return generic
	}
	var sb strings.Builder
	sb.WriteString(generic)
	sb.WriteByte('<')
	WriteList(&sb, args)
	sb.WriteByte('>')
	return sb.String()
}
