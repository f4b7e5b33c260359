package lexer

import (
	"raven/internal/diag"
	"raven/internal/token"
)

// scanString: "..." с escape \" \\ \n \t \r \0. Text содержит исходный
// лексем вместе с кавычками; декодирование делает парсер.
func (lx *Lexer) scanString() token.Token {
	start := lx.cursor.Mark()
	lx.cursor.Bump() // opening '"'
	bad := false
	for !lx.cursor.EOF() {
		b := lx.cursor.Peek()
		switch b {
		case '"':
			lx.cursor.Bump()
			sp := lx.cursor.SpanFrom(start)
			if bad {
				return token.Token{Kind: token.Invalid, Span: sp, Text: string(lx.cursor.Slice(start))}
			}
			return token.Token{Kind: token.StringLit, Span: sp, Text: string(lx.cursor.Slice(start))}
		case '\\':
			escStart := lx.cursor.Mark()
			lx.cursor.Bump()
			switch lx.cursor.Peek() {
			case '"', '\\', 'n', 't', 'r', '0':
				lx.cursor.Bump()
			default:
				lx.bumpRune()
				lx.errLex(diag.LexUnknownChar, lx.cursor.SpanFrom(escStart), "unknown escape sequence")
				bad = true
			}
		case '\n':
			sp := lx.cursor.SpanFrom(start)
			lx.errLex(diag.LexUnterminatedString, sp, "newline in string literal")
			return token.Token{Kind: token.Invalid, Span: sp, Text: string(lx.cursor.Slice(start))}
		default:
			lx.bumpRune()
		}
	}
	sp := lx.cursor.SpanFrom(start)
	lx.errLex(diag.LexUnterminatedString, sp, "unterminated string literal")
	return token.Token{Kind: token.Invalid, Span: sp, Text: string(lx.cursor.Slice(start))}
}
