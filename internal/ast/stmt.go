package ast

import "raven/internal/source"

// Stmt is a statement node.
type Stmt interface {
	Pos() source.Span
	stmtNode()
}

// Block is `{ stmts }`.
type Block struct {
	Stmts []Stmt
	Span  source.Span
}

// LetStmt is `let x: T = e;`.
type LetStmt struct {
	Name     string
	NameSpan source.Span
	Type     *TypeExpr
	Value    Expr
	Span     source.Span
}

// AssignStmt is `target = value;`.
type AssignStmt struct {
	Target Expr
	Value  Expr
	Span   source.Span
}

// ReturnStmt is `return e;` with optional value.
type ReturnStmt struct {
	Value Expr
	Span  source.Span
}

// IfStmt is `if c { } else ...`. Else is nil, a *Block or an *IfStmt.
type IfStmt struct {
	Cond Expr
	Then *Block
	Else Stmt
	Span source.Span
}

// WhileStmt is `while c { }`.
type WhileStmt struct {
	Cond Expr
	Body *Block
	Span source.Span
}

// ExprStmt is an expression evaluated for effect.
type ExprStmt struct {
	X    Expr
	Span source.Span
}

func (s *Block) Pos() source.Span      { return s.Span }
func (s *LetStmt) Pos() source.Span    { return s.Span }
func (s *AssignStmt) Pos() source.Span { return s.Span }
func (s *ReturnStmt) Pos() source.Span { return s.Span }
func (s *IfStmt) Pos() source.Span     { return s.Span }
func (s *WhileStmt) Pos() source.Span  { return s.Span }
func (s *ExprStmt) Pos() source.Span   { return s.Span }

func (*Block) stmtNode()      {}
func (*LetStmt) stmtNode()    {}
func (*AssignStmt) stmtNode() {}
func (*ReturnStmt) stmtNode() {}
func (*IfStmt) stmtNode()     {}
func (*WhileStmt) stmtNode()  {}
func (*ExprStmt) stmtNode()   {}
