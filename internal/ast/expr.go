package ast

import (
	"raven/internal/source"
	"raven/internal/token"
)

// Expr is an expression node.
type Expr interface {
	Pos() source.Span
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

// Literal is an integer, float, string or bool literal. Text holds the
// source lexeme, with quotes stripped and escapes decoded for strings.
type Literal struct {
	Kind LitKind
	Text string
	Span source.Span
}

// PathExpr is a bare name or qualified path: `x`, `util::max`.
type PathExpr struct {
	Segments []string
	Span     source.Span
}

// SelfExpr is `self`.
type SelfExpr struct {
	Span source.Span
}

// CallExpr is `callee(args)`.
type CallExpr struct {
	Callee Expr
	Args   []Expr
	Span   source.Span
}

// MethodCallExpr is `recv.method(args)`.
type MethodCallExpr struct {
	Recv       Expr
	Method     string
	MethodSpan source.Span
	Args       []Expr
	Span       source.Span
}

// FieldExpr is `x.field`.
type FieldExpr struct {
	X         Expr
	Field     string
	FieldSpan source.Span
	Span      source.Span
}

// FieldInit is `name: value` inside a `new` literal.
type FieldInit struct {
	Name  string
	Value Expr
	Span  source.Span
}

// StructLit is `new T { f: e }`.
type StructLit struct {
	Type   *TypeExpr
	Fields []*FieldInit
	Span   source.Span
}

// UnaryExpr is a prefix operator application.
type UnaryExpr struct {
	Op   token.Kind
	X    Expr
	Span source.Span
}

// BinaryExpr is `x op y`.
type BinaryExpr struct {
	Op     token.Kind
	OpSpan source.Span
	X, Y   Expr
	Span   source.Span
}

// JoinedExpr is a chain of operators from one join group, `a < b <= c`.
// It means every adjacent pair holds, each operand evaluated once.
type JoinedExpr struct {
	Operands []Expr
	Ops      []token.Kind
	OpSpans  []source.Span
	Span     source.Span
}

// BadExpr stands in for an expression that failed to parse.
type BadExpr struct {
	Span source.Span
}

func (e *Literal) Pos() source.Span        { return e.Span }
func (e *PathExpr) Pos() source.Span       { return e.Span }
func (e *SelfExpr) Pos() source.Span       { return e.Span }
func (e *CallExpr) Pos() source.Span       { return e.Span }
func (e *MethodCallExpr) Pos() source.Span { return e.Span }
func (e *FieldExpr) Pos() source.Span      { return e.Span }
func (e *StructLit) Pos() source.Span      { return e.Span }
func (e *UnaryExpr) Pos() source.Span      { return e.Span }
func (e *BinaryExpr) Pos() source.Span     { return e.Span }
func (e *JoinedExpr) Pos() source.Span     { return e.Span }
func (e *BadExpr) Pos() source.Span        { return e.Span }

func (*Literal) exprNode()        {}
func (*PathExpr) exprNode()       {}
func (*SelfExpr) exprNode()       {}
func (*CallExpr) exprNode()       {}
func (*MethodCallExpr) exprNode() {}
func (*FieldExpr) exprNode()      {}
func (*StructLit) exprNode()      {}
func (*UnaryExpr) exprNode()      {}
func (*BinaryExpr) exprNode()     {}
func (*JoinedExpr) exprNode()     {}
func (*BadExpr) exprNode()        {}
