package parser

import (
	"raven/internal/ast"
	"raven/internal/diag"
	"raven/internal/source"
	"raven/internal/token"
)

// parseType: path ('<' type (',' type)* '>')?
// На ошибке возвращает тип с пустым путем, чтобы вызывающий мог продолжить.
func (p *Parser) parseType() *ast.TypeExpr {
	start := p.peek().Span
	if !p.at(token.Ident) {
		p.err(diag.SynExpectType, "expected type, got "+describe(p.peek()))
		return &ast.TypeExpr{Span: start}
	}
	path, _ := p.parsePath()
	t := &ast.TypeExpr{Path: path}
	if p.eat(token.Lt) {
		for !p.atOr(token.Gt, token.Shr, token.EOF) {
			t.Args = append(t.Args, p.parseType())
			if !p.eat(token.Comma) {
				break
			}
		}
		p.expectCloseAngle()
	}
	t.Span = start.Cover(p.lastSpan)
	return t
}

// expectCloseAngle съедает '>'; `>>` в контексте типов делится на два '>'.
func (p *Parser) expectCloseAngle() bool {
	if p.at(token.Shr) {
		tok := p.advance()
		mid := tok.Span.Start + 1
		p.lastSpan = source.Span{File: tok.Span.File, Start: tok.Span.Start, End: mid}
		rest := token.Token{Kind: token.Gt, Text: ">", Span: source.Span{File: tok.Span.File, Start: mid, End: tok.Span.End}}
		p.look = append([]token.Token{rest}, p.look...)
		return true
	}
	_, ok := p.expect(token.Gt, diag.SynUnclosedDelimiter, "expected '>'")
	return ok
}
