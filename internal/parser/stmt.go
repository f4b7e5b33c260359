package parser

import (
	"raven/internal/ast"
	"raven/internal/diag"
	"raven/internal/token"
)

// parseBlock: '{' stmt* '}'
func (p *Parser) parseBlock() *ast.Block {
	open := p.advance()
	block := &ast.Block{}
	for !p.atOr(token.RBrace, token.EOF) {
		if p.peek().Kind.IsTopLevelKeyword() {
			break
		}
		before := p.errors
		stmt := p.parseStmt()
		if stmt != nil {
			block.Stmts = append(block.Stmts, stmt)
		}
		if p.errors > before {
			p.resyncStmt()
		}
	}
	p.expect(token.RBrace, diag.SynUnclosedDelimiter, "expected '}' to close block")
	block.Span = open.Span.Cover(p.lastSpan)
	return block
}

// resyncStmt: прокручиваем до ';' (съедаем) или до '}' текущего блока.
func (p *Parser) resyncStmt() {
	p.skipUntil(token.Semicolon, token.RBrace)
	p.eat(token.Semicolon)
}

func (p *Parser) parseStmt() ast.Stmt {
	switch p.peek().Kind {
	case token.KwLet:
		return p.parseLet()
	case token.KwReturn:
		kw := p.advance()
		ret := &ast.ReturnStmt{}
		if !p.at(token.Semicolon) {
			ret.Value = p.parseExpr()
		}
		p.expectSemi()
		ret.Span = kw.Span.Cover(p.lastSpan)
		return ret
	case token.KwIf:
		return p.parseIf()
	case token.KwWhile:
		kw := p.advance()
		cond := p.parseExpr()
		body := p.parseBodyBlock("while")
		return &ast.WhileStmt{Cond: cond, Body: body, Span: kw.Span.Cover(p.lastSpan)}
	case token.LBrace:
		return p.parseBlock()
	case token.Semicolon:
		p.advance()
		return nil
	}

	x := p.parseExpr()
	start := x.Pos()
	if p.eat(token.Assign) {
		value := p.parseExpr()
		p.expectSemi()
		return &ast.AssignStmt{Target: x, Value: value, Span: start.Cover(p.lastSpan)}
	}
	p.expectSemi()
	return &ast.ExprStmt{X: x, Span: start.Cover(p.lastSpan)}
}

// let x: T = e;
func (p *Parser) parseLet() ast.Stmt {
	kw := p.advance()
	name, ok := p.expectIdent("variable name")
	if !ok {
		return nil
	}
	let := &ast.LetStmt{Name: name.Text, NameSpan: name.Span}
	if p.eat(token.Colon) {
		let.Type = p.parseType()
	}
	if _, ok := p.expect(token.Assign, diag.SynUnexpectedToken, "expected '=' in let statement"); ok {
		let.Value = p.parseExpr()
	} else {
		let.Value = &ast.BadExpr{Span: p.diagSpan()}
	}
	p.expectSemi()
	let.Span = kw.Span.Cover(p.lastSpan)
	return let
}

// if c { } else if d { } else { }
func (p *Parser) parseIf() *ast.IfStmt {
	kw := p.advance()
	stmt := &ast.IfStmt{Cond: p.parseExpr()}
	stmt.Then = p.parseBodyBlock("if")
	if p.eat(token.KwElse) {
		switch {
		case p.at(token.KwIf):
			stmt.Else = p.parseIf()
		default:
			stmt.Else = p.parseBodyBlock("else")
		}
	}
	stmt.Span = kw.Span.Cover(p.lastSpan)
	return stmt
}

func (p *Parser) parseBodyBlock(what string) *ast.Block {
	if !p.at(token.LBrace) {
		p.err(diag.SynUnexpectedToken, "expected '{' after "+what+", got "+describe(p.peek()))
		return &ast.Block{Span: p.diagSpan()}
	}
	return p.parseBlock()
}
