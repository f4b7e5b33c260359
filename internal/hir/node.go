package hir

import (
	"raven/internal/source"
	"raven/internal/types"
)

// Block is a statement list.
type Block struct {
	Stmts []Stmt
}

// Stmt is a typed statement.
type Stmt interface{ stmtNode() }

type (
	Let struct {
		Name  string
		Type  types.Type
		Value Expr
	}
	Assign struct {
		Target Expr
		Value  Expr
	}
	Return struct {
		Value Expr // nil for void
	}
	// If with Else nil has no else branch; `else if` nests an If in Else.
	If struct {
		Cond Expr
		Then *Block
		Else *Block
	}
	While struct {
		Cond Expr
		Body *Block
	}
	ExprStmt struct {
		X Expr
	}
)

func (*Let) stmtNode()      {}
func (*Assign) stmtNode()   {}
func (*Return) stmtNode()   {}
func (*If) stmtNode()       {}
func (*While) stmtNode()    {}
func (*ExprStmt) stmtNode() {}

// Expr is a typed expression.
type Expr interface {
	Type() types.Type
	exprNode()
}

// LitKind classifies literals.
type LitKind uint8

const (
	LitInt LitKind = iota + 1
	LitFloat
	LitString
	LitBool
)

// Target is what a call invokes. A resolved target names a function unit
// (possibly an instance). Inside generic bodies a target may stay deferred:
// Generic+TypeArgs for a generic callee whose arguments mention type
// parameters, or Trait+Self+Method for dispatch on a type parameter.
type Target struct {
	Unit     string
	Generic  string
	TypeArgs []types.Type
	Trait    *types.TraitRef
	Self     types.Type
	Method   string
}

// Resolved reports whether the target names a concrete unit.
func (t Target) Resolved() bool { return t.Unit != "" }

type (
	Literal struct {
		Kind LitKind
		Text string
		Ty   types.Type
	}
	Local struct {
		Name string
		Ty   types.Type
	}
	// Call arguments include the receiver first for method calls.
	Call struct {
		Target Target
		Args   []Expr
		Ty     types.Type
		Span   source.Span
	}
	FieldAccess struct {
		X     Expr
		Field string
		Ty    types.Type
	}
	StructLit struct {
		Ty     types.Type
		Fields []FieldInit
	}
	// Joined holds `a < b <= c`: Ops[i] compares Operands[i] and Operands[i+1].
	Joined struct {
		Operands []Expr
		Ops      []Target
	}
)

// FieldInit is one field of a struct literal, in declaration order.
type FieldInit struct {
	Name  string
	Value Expr
}

func (e *Literal) Type() types.Type     { return e.Ty }
func (e *Local) Type() types.Type       { return e.Ty }
func (e *Call) Type() types.Type        { return e.Ty }
func (e *FieldAccess) Type() types.Type { return e.Ty }
func (e *StructLit) Type() types.Type   { return e.Ty }
func (e *Joined) Type() types.Type      { return types.Bool }

func (*Literal) exprNode()     {}
func (*Local) exprNode()       {}
func (*Call) exprNode()        {}
func (*FieldAccess) exprNode() {}
func (*StructLit) exprNode()   {}
func (*Joined) exprNode()      {}
