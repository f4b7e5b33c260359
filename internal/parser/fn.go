package parser

import (
	"raven/internal/ast"
	"raven/internal/diag"
	"raven/internal/token"
)

// parseFnDecl: fn name<T: B>(params) -> R (block | ;)
// allowBody=false для сигнатур трейтов: там тело запрещено.
// unit != nil для функций-юнитов: получает имя до разбора тела.
func (p *Parser) parseFnDecl(allowBody bool, unit func(name token.Token)) (*ast.FnDecl, token.Token) {
	kw := p.advance()
	name, ok := p.expectIdent("function name")
	if !ok {
		return nil, name
	}
	if unit != nil {
		unit(name)
	}
	decl := &ast.FnDecl{Name: name.Text}
	decl.TypeParams = p.parseGenerics()

	if _, ok := p.expect(token.LParen, diag.SynUnexpectedToken, "expected '(' after function name"); ok {
		decl.Params = p.parseParams()
		p.expect(token.RParen, diag.SynUnclosedDelimiter, "expected ')' to close parameter list")
	}
	if p.eat(token.Arrow) {
		decl.Result = p.parseType()
	}

	switch {
	case p.at(token.LBrace):
		body := p.parseBlock()
		if allowBody {
			decl.Body = body
		} else {
			p.errAt(diag.SynUnexpectedToken, body.Span, "trait methods cannot have a body")
		}
	case p.eat(token.Semicolon):
	default:
		if allowBody {
			p.err(diag.SynUnexpectedToken, "expected function body or ';', got "+describe(p.peek()))
		} else {
			p.expectSemi()
		}
	}
	decl.Span = kw.Span.Cover(p.lastSpan)
	return decl, name
}

// params := param (',' param)*    param := 'self' | IDENT ':' type
func (p *Parser) parseParams() []*ast.Param {
	var params []*ast.Param
	for !p.atOr(token.RParen, token.EOF, token.LBrace) {
		switch tok := p.peek(); tok.Kind {
		case token.KwSelf:
			p.advance()
			if len(params) > 0 {
				p.errAt(diag.SynUnexpectedToken, tok.Span, "'self' must be the first parameter")
			}
			params = append(params, &ast.Param{Name: "self", Self: true, Span: tok.Span})
		case token.Ident:
			p.advance()
			param := &ast.Param{Name: tok.Text}
			if _, ok := p.expect(token.Colon, diag.SynExpectType, "expected ':' and parameter type"); ok {
				param.Type = p.parseType()
			}
			param.Span = tok.Span.Cover(p.lastSpan)
			params = append(params, param)
		default:
			p.err(diag.SynExpectIdentifier, "expected parameter name, got "+describe(tok))
			p.skipUntil(token.Comma, token.RParen)
		}
		if !p.eat(token.Comma) {
			break
		}
	}
	return params
}

// generics := '<' IDENT (':' type ('+' type)*)? (',' ...)* '>'
func (p *Parser) parseGenerics() []*ast.TypeParam {
	if !p.at(token.Lt) {
		return nil
	}
	p.advance()
	var params []*ast.TypeParam
	for !p.atOr(token.Gt, token.EOF) {
		name, ok := p.expectIdent("type parameter name")
		if !ok {
			p.skipUntil(token.Comma, token.Gt, token.LParen)
			if !p.eat(token.Comma) {
				break
			}
			continue
		}
		tp := &ast.TypeParam{Name: name.Text}
		if p.eat(token.Colon) {
			for {
				tp.Bounds = append(tp.Bounds, p.parseType())
				if !p.eat(token.Plus) {
					break
				}
			}
		}
		tp.Span = name.Span.Cover(p.lastSpan)
		params = append(params, tp)
		if !p.eat(token.Comma) {
			break
		}
	}
	p.expectCloseAngle()
	return params
}
