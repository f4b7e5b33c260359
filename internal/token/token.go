package token

import (
	"raven/internal/source"
)

// Token represents a single source token with its location.
type Token struct {
	Kind Kind        `msgpack:"k"`
	Span source.Span `msgpack:"s"`
	Text string      `msgpack:"t"`
}

// IsLiteral reports whether the token is a numeric, boolean, or string literal.
func (t Token) IsLiteral() bool {
	switch t.Kind {
	case IntLit, FloatLit, StringLit, KwTrue, KwFalse:
		return true
	default:
		return false
	}
}

// IsKeyword reports whether the token is a language keyword.
func (t Token) IsKeyword() bool {
	return t.Kind >= KwFn && t.Kind <= KwSelf
}

// Source yields tokens one by one and keeps returning EOF at the end.
type Source interface {
	Next() Token
}

// SliceSource replays a token slice, e.g. one loaded from the token cache.
type SliceSource struct {
	toks []Token
	pos  int
	eof  Token
}

// NewSliceSource wraps toks. A missing trailing EOF is synthesized.
func NewSliceSource(toks []Token) *SliceSource {
	s := &SliceSource{toks: toks, eof: Token{Kind: EOF}}
	if n := len(toks); n > 0 {
		last := toks[n-1].Span
		s.eof.Span = source.Span{File: last.File, Start: last.End, End: last.End}
		if toks[n-1].Kind == EOF {
			s.eof = toks[n-1]
		}
	}
	return s
}

// Next returns the next token.
func (s *SliceSource) Next() Token {
	if s.pos >= len(s.toks) {
		return s.eof
	}
	t := s.toks[s.pos]
	s.pos++
	return t
}
