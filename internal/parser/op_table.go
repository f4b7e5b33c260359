package parser

import (
	"math"

	"raven/internal/source"
	"raven/internal/token"
)

// Operator describes how an operator token maps onto a core trait.
// Higher Priority binds tighter; equal priorities group left to right.
// Operators sharing a non-empty Join chain into one ast.JoinedExpr.
type Operator struct {
	Token    token.Kind
	Trait    string
	Method   string
	Priority int8
	Join     string
	Prefix   bool
}

// TraitName returns the qualified trait name, e.g. "core::Add".
func (o Operator) TraitName() string {
	return source.Qualify(source.PreludeNamespace, o.Trait)
}

// JoinCompare groups the ordering comparisons.
const JoinCompare = "compare"

// Operators is the static priority table.
var Operators = []Operator{
	{Token: token.OrOr, Trait: "Or", Method: "or", Priority: -3},
	{Token: token.AndAnd, Trait: "And", Method: "and", Priority: -2},
	{Token: token.EqEq, Trait: "Equal", Method: "equal", Priority: -1},
	{Token: token.BangEq, Trait: "NotEqual", Method: "not_equal", Priority: -1},
	{Token: token.Lt, Trait: "Less", Method: "less", Priority: 0, Join: JoinCompare},
	{Token: token.LtEq, Trait: "LessEqual", Method: "less_equal", Priority: 0, Join: JoinCompare},
	{Token: token.Gt, Trait: "Greater", Method: "greater", Priority: 0, Join: JoinCompare},
	{Token: token.GtEq, Trait: "GreaterEqual", Method: "greater_equal", Priority: 0, Join: JoinCompare},
	{Token: token.Pipe, Trait: "BitOr", Method: "bit_or", Priority: 1},
	{Token: token.Caret, Trait: "BitXor", Method: "bit_xor", Priority: 2},
	{Token: token.Amp, Trait: "BitAnd", Method: "bit_and", Priority: 3},
	{Token: token.Shl, Trait: "Shl", Method: "shl", Priority: 4},
	{Token: token.Shr, Trait: "Shr", Method: "shr", Priority: 4},
	{Token: token.Plus, Trait: "Add", Method: "add", Priority: 5},
	{Token: token.Minus, Trait: "Sub", Method: "sub", Priority: 5},
	{Token: token.Star, Trait: "Mul", Method: "mul", Priority: 6},
	{Token: token.Slash, Trait: "Div", Method: "div", Priority: 6},
	{Token: token.Percent, Trait: "Rem", Method: "rem", Priority: 6},
	{Token: token.Minus, Trait: "Neg", Method: "neg", Priority: 7, Prefix: true},
	{Token: token.Bang, Trait: "Not", Method: "not", Priority: 7, Prefix: true},
}

var (
	binaryOps = map[token.Kind]Operator{}
	prefixOps = map[token.Kind]Operator{}
)

const minPriority = math.MinInt8

func init() {
	for _, op := range Operators {
		if op.Prefix {
			prefixOps[op.Token] = op
		} else {
			binaryOps[op.Token] = op
		}
	}
}

// BinaryOp looks up an infix operator.
func BinaryOp(k token.Kind) (Operator, bool) {
	op, ok := binaryOps[k]
	return op, ok
}

// PrefixOp looks up a prefix operator.
func PrefixOp(k token.Kind) (Operator, bool) {
	op, ok := prefixOps[k]
	return op, ok
}
