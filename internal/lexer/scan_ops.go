package lexer

import (
	"raven/internal/diag"
	"raven/internal/token"
)

var twoByteOps = [...]struct {
	a, b byte
	kind token.Kind
}{
	{':', ':', token.ColonColon},
	{'-', '>', token.Arrow},
	{'&', '&', token.AndAnd},
	{'|', '|', token.OrOr},
	{'=', '=', token.EqEq},
	{'!', '=', token.BangEq},
	{'<', '=', token.LtEq},
	{'>', '=', token.GtEq},
	{'<', '<', token.Shl},
	{'>', '>', token.Shr},
}

var oneByteOps = map[byte]token.Kind{
	'(': token.LParen, ')': token.RParen,
	'{': token.LBrace, '}': token.RBrace,
	'[': token.LBracket, ']': token.RBracket,
	',': token.Comma, ';': token.Semicolon, ':': token.Colon,
	'.': token.Dot, '#': token.Hash, '=': token.Assign,
	'+': token.Plus, '-': token.Minus, '*': token.Star,
	'/': token.Slash, '%': token.Percent, '!': token.Bang,
	'<': token.Lt, '>': token.Gt, '&': token.Amp,
	'|': token.Pipe, '^': token.Caret,
}

// Жадно: сначала 2-символьные, затем 1-символьные.
func (lx *Lexer) scanOperatorOrPunct() token.Token {
	start := lx.cursor.Mark()
	emit := func(k token.Kind) token.Token {
		sp := lx.cursor.SpanFrom(start)
		return token.Token{Kind: k, Span: sp, Text: string(lx.cursor.Slice(start))}
	}

	b0, b1 := lx.cursor.Peek(), lx.cursor.PeekAt(1)
	for _, op := range twoByteOps {
		if op.a == b0 && op.b == b1 {
			lx.cursor.Bump()
			lx.cursor.Bump()
			return emit(op.kind)
		}
	}
	if k, ok := oneByteOps[b0]; ok {
		lx.cursor.Bump()
		return emit(k)
	}

	r, _ := lx.peekRune()
	lx.bumpRune()
	tok := emit(token.Invalid)
	lx.errLex(diag.LexUnknownChar, tok.Span, "unknown character "+quoteRune(r))
	return tok
}
