package parser

import (
	"raven/internal/diag"
	"raven/internal/source"
	"raven/internal/token"
)

// diagSpan выбирает лучший span для диагностики. На EOF указываем сразу за
// последним съеденным токеном.
func (p *Parser) diagSpan() source.Span {
	tok := p.peek()
	if tok.Kind == token.EOF && p.lastSpan.End > 0 {
		return source.Span{File: p.lastSpan.File, Start: p.lastSpan.End, End: p.lastSpan.End}
	}
	return tok.Span
}

// expect: ожидаем конкретный токен. Если нет, репортим и возвращаем (tok,false).
func (p *Parser) expect(k token.Kind, code diag.Code, msg string) (token.Token, bool) {
	if p.at(k) {
		return p.advance(), true
	}
	p.errAt(code, p.diagSpan(), msg+", got "+describe(p.peek()))
	return token.Token{Kind: token.Invalid, Span: p.diagSpan()}, false
}

// expectIdent ожидает идентификатор.
func (p *Parser) expectIdent(what string) (token.Token, bool) {
	return p.expect(token.Ident, diag.SynExpectIdentifier, "expected "+what)
}

func (p *Parser) expectSemi() bool {
	_, ok := p.expect(token.Semicolon, diag.SynExpectSemicolon, "expected ';'")
	return ok
}

// репортует ошибку и передает текущий спан
func (p *Parser) err(code diag.Code, msg string) {
	p.errAt(code, p.diagSpan(), msg)
}

func (p *Parser) errAt(code diag.Code, sp source.Span, msg string) {
	p.errors++
	p.report(code, diag.SevError, sp, msg)
}

func (p *Parser) warnAt(code diag.Code, sp source.Span, msg string) {
	p.report(code, diag.SevWarning, sp, msg)
}

func (p *Parser) report(code diag.Code, sev diag.Severity, sp source.Span, msg string) {
	if p.opts.Reporter == nil {
		return
	}
	if sev == diag.SevError {
		if p.opts.MaxErrors > 0 && p.reported >= p.opts.MaxErrors {
			return // достигли максимального количества ошибок
		}
		p.reported++
	}
	p.opts.Reporter.Report(code, sev, sp, msg, nil)
}

func describe(tok token.Token) string {
	switch tok.Kind {
	case token.EOF:
		return "end of file"
	case token.Ident, token.IntLit, token.FloatLit, token.StringLit:
		return tok.Kind.String() + " \"" + tok.Text + "\""
	}
	return "\"" + tok.Kind.String() + "\""
}
