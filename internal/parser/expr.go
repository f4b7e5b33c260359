package parser

import (
	"strings"

	"raven/internal/ast"
	"raven/internal/diag"
	"raven/internal/source"
	"raven/internal/token"
)

// parseExpr - главная точка входа для парсинга выражений
func (p *Parser) parseExpr() ast.Expr {
	return p.parseBinary(minPriority)
}

// parseBinary: precedence climbing по таблице Operators.
// Цепочка операторов одной join-группы собирается в один JoinedExpr.
func (p *Parser) parseBinary(minPrec int) ast.Expr {
	left := p.parseUnary()
	for {
		op, ok := BinaryOp(p.peek().Kind)
		if !ok || int(op.Priority) < minPrec {
			return left
		}
		opTok := p.advance()
		right := p.parseBinary(int(op.Priority) + 1)

		if op.Join == "" {
			left = &ast.BinaryExpr{Op: opTok.Kind, OpSpan: opTok.Span, X: left, Y: right, Span: left.Pos().Cover(right.Pos())}
			continue
		}

		joined := &ast.JoinedExpr{
			Operands: []ast.Expr{left, right},
			Ops:      []token.Kind{opTok.Kind},
			OpSpans:  []source.Span{opTok.Span},
		}
		for {
			next, ok := BinaryOp(p.peek().Kind)
			if !ok || next.Join != op.Join {
				break
			}
			nt := p.advance()
			joined.Ops = append(joined.Ops, nt.Kind)
			joined.OpSpans = append(joined.OpSpans, nt.Span)
			joined.Operands = append(joined.Operands, p.parseBinary(int(next.Priority)+1))
		}
		if len(joined.Ops) == 1 {
			left = &ast.BinaryExpr{Op: opTok.Kind, OpSpan: opTok.Span, X: left, Y: right, Span: left.Pos().Cover(right.Pos())}
			continue
		}
		last := joined.Operands[len(joined.Operands)-1]
		joined.Span = left.Pos().Cover(last.Pos())
		left = joined
	}
}

// unary := ('-' | '!') unary | postfix
func (p *Parser) parseUnary() ast.Expr {
	if _, ok := PrefixOp(p.peek().Kind); ok {
		opTok := p.advance()
		x := p.parseUnary()
		return &ast.UnaryExpr{Op: opTok.Kind, X: x, Span: opTok.Span.Cover(x.Pos())}
	}
	return p.parsePostfix(p.parsePrimary())
}

// postfix := primary ('(' args ')' | '.' IDENT ('(' args ')')?)*
func (p *Parser) parsePostfix(x ast.Expr) ast.Expr {
	for {
		switch p.peek().Kind {
		case token.LParen:
			p.advance()
			args := p.parseArgs()
			x = &ast.CallExpr{Callee: x, Args: args, Span: x.Pos().Cover(p.lastSpan)}
		case token.Dot:
			p.advance()
			name, ok := p.expectIdent("field or method name after '.'")
			if !ok {
				return x
			}
			if p.eat(token.LParen) {
				args := p.parseArgs()
				x = &ast.MethodCallExpr{Recv: x, Method: name.Text, MethodSpan: name.Span, Args: args, Span: x.Pos().Cover(p.lastSpan)}
				continue
			}
			x = &ast.FieldExpr{X: x, Field: name.Text, FieldSpan: name.Span, Span: x.Pos().Cover(name.Span)}
		default:
			return x
		}
	}
}

// parseArgs читает аргументы после уже съеденной '('.
func (p *Parser) parseArgs() []ast.Expr {
	var args []ast.Expr
	for !p.atOr(token.RParen, token.EOF) {
		args = append(args, p.parseExpr())
		if !p.eat(token.Comma) {
			break
		}
	}
	p.expect(token.RParen, diag.SynUnclosedDelimiter, "expected ')' to close argument list")
	return args
}

func (p *Parser) parsePrimary() ast.Expr {
	tok := p.peek()
	switch tok.Kind {
	case token.IntLit:
		p.advance()
		return &ast.Literal{Kind: ast.LitInt, Text: strings.ReplaceAll(tok.Text, "_", ""), Span: tok.Span}
	case token.FloatLit:
		p.advance()
		return &ast.Literal{Kind: ast.LitFloat, Text: strings.ReplaceAll(tok.Text, "_", ""), Span: tok.Span}
	case token.StringLit:
		p.advance()
		return &ast.Literal{Kind: ast.LitString, Text: unquote(tok.Text), Span: tok.Span}
	case token.KwTrue, token.KwFalse:
		p.advance()
		return &ast.Literal{Kind: ast.LitBool, Text: tok.Text, Span: tok.Span}
	case token.KwSelf:
		p.advance()
		return &ast.SelfExpr{Span: tok.Span}
	case token.Ident:
		path, _ := p.parsePath()
		return &ast.PathExpr{Segments: path, Span: tok.Span.Cover(p.lastSpan)}
	case token.LParen:
		p.advance()
		x := p.parseExpr()
		p.expect(token.RParen, diag.SynUnclosedDelimiter, "expected ')'")
		return x
	case token.KwNew:
		return p.parseStructLit()
	}
	p.err(diag.SynExpectExpression, "expected expression, got "+describe(tok))
	return &ast.BadExpr{Span: p.diagSpan()}
}

// new T<A> { f: e, g: e }
func (p *Parser) parseStructLit() ast.Expr {
	kw := p.advance()
	lit := &ast.StructLit{Type: p.parseType()}
	if _, ok := p.expect(token.LBrace, diag.SynUnexpectedToken, "expected '{' after type in 'new'"); !ok {
		lit.Span = kw.Span.Cover(p.lastSpan)
		return lit
	}
	for !p.atOr(token.RBrace, token.EOF) {
		name, ok := p.expectIdent("field name")
		if !ok {
			break
		}
		init := &ast.FieldInit{Name: name.Text}
		if _, ok := p.expect(token.Colon, diag.SynUnexpectedToken, "expected ':' after field name"); ok {
			init.Value = p.parseExpr()
		} else {
			init.Value = &ast.BadExpr{Span: p.diagSpan()}
		}
		init.Span = name.Span.Cover(p.lastSpan)
		lit.Fields = append(lit.Fields, init)
		if !p.eat(token.Comma) {
			break
		}
	}
	p.expect(token.RBrace, diag.SynUnclosedDelimiter, "expected '}' to close struct literal")
	lit.Span = kw.Span.Cover(p.lastSpan)
	return lit
}

// unquote снимает кавычки и декодирует escape; лексер уже проверил их.
func unquote(lit string) string {
	lit = strings.TrimPrefix(lit, "\"")
	lit = strings.TrimSuffix(lit, "\"")
	if !strings.ContainsRune(lit, '\\') {
		return lit
	}
	var sb strings.Builder
	for i := 0; i < len(lit); i++ {
		c := lit[i]
		if c != '\\' || i+1 >= len(lit) {
			sb.WriteByte(c)
			continue
		}
		i++
		switch lit[i] {
		case 'n':
			sb.WriteByte('\n')
		case 't':
			sb.WriteByte('\t')
		case 'r':
			sb.WriteByte('\r')
		case '0':
			sb.WriteByte(0)
		default:
			sb.WriteByte(lit[i])
		}
	}
	return sb.String()
}
