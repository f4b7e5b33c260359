package lexer

import (
	"raven/internal/diag"
	"raven/internal/token"
)

// scanNumber: 123, 1_000, 3.14, 2.5e-3. `1.x` остается целым числом с точкой.
// Идентификатор, приклеенный к числу (12ab),: ошибка.
func (lx *Lexer) scanNumber() token.Token {
	start := lx.cursor.Mark()
	kind := token.IntLit
	lx.digits()

	if lx.cursor.Peek() == '.' && isDec(lx.cursor.PeekAt(1)) {
		kind = token.FloatLit
		lx.cursor.Bump()
		lx.digits()
	}
	if b := lx.cursor.Peek(); b == 'e' || b == 'E' {
		next := lx.cursor.PeekAt(1)
		if isDec(next) || ((next == '+' || next == '-') && isDec(lx.cursor.PeekAt(2))) {
			kind = token.FloatLit
			lx.cursor.Bump()
			if next == '+' || next == '-' {
				lx.cursor.Bump()
			}
			lx.digits()
		}
	}

	if isIdentContinueByte(lx.cursor.Peek()) {
		for isIdentContinueByte(lx.cursor.Peek()) {
			lx.cursor.Bump()
		}
		sp := lx.cursor.SpanFrom(start)
		lx.errLex(diag.LexBadNumber, sp, "malformed number literal")
		return token.Token{Kind: token.Invalid, Span: sp, Text: string(lx.cursor.Slice(start))}
	}
	sp := lx.cursor.SpanFrom(start)
	return token.Token{Kind: kind, Span: sp, Text: string(lx.cursor.Slice(start))}
}

func (lx *Lexer) digits() {
	for {
		b := lx.cursor.Peek()
		if !isDec(b) && !(b == '_' && isDec(lx.cursor.PeekAt(1))) {
			return
		}
		lx.cursor.Bump()
	}
}
