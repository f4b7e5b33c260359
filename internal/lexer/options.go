package lexer

import (
	"raven/internal/diag"
	"raven/internal/source"
)

// Options configure a Lexer.
type Options struct {
	// Reporter может быть nil, тогда ошибки игнорируются (но лексинг продолжается).
	Reporter diag.Reporter
}

func (lx *Lexer) errLex(code diag.Code, sp source.Span, msg string) {
	lx.errors++
	if lx.opts.Reporter != nil {
		diag.ReportError(lx.opts.Reporter, code, sp, msg).Emit()
	}
}
