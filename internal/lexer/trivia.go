package lexer

import "raven/internal/diag"

// skipTrivia пропускает пробелы, переводы строк, // и /* */ комментарии.
// Блочные комментарии поддерживают вложенность; незакрытый комментарий
// репортится и обрезается на EOF.
func (lx *Lexer) skipTrivia() {
	for !lx.cursor.EOF() {
		switch b := lx.cursor.Peek(); {
		case b == ' ' || b == '\t' || b == '\n' || b == '\r':
			lx.cursor.Bump()
		case b == '/' && lx.cursor.PeekAt(1) == '/':
			for !lx.cursor.EOF() && lx.cursor.Peek() != '\n' {
				lx.cursor.Bump()
			}
		case b == '/' && lx.cursor.PeekAt(1) == '*':
			lx.skipBlockComment()
		default:
			return
		}
	}
}

func (lx *Lexer) skipBlockComment() {
	start := lx.cursor.Mark()
	lx.cursor.Bump()
	lx.cursor.Bump()
	depth := 1
	for !lx.cursor.EOF() && depth > 0 {
		b0, b1 := lx.cursor.Peek(), lx.cursor.PeekAt(1)
		switch {
		case b0 == '/' && b1 == '*':
			lx.cursor.Bump()
			lx.cursor.Bump()
			depth++
		case b0 == '*' && b1 == '/':
			lx.cursor.Bump()
			lx.cursor.Bump()
			depth--
		default:
			lx.cursor.Bump()
		}
	}
	if depth > 0 {
		lx.errLex(diag.LexUnterminatedBlockComment, lx.cursor.SpanFrom(start), "unterminated block comment")
	}
}
