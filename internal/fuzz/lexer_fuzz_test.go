package fuzztests

import (
	"testing"

	"raven/internal/diag"
	"raven/internal/lexer"
	"raven/internal/source"
	"raven/internal/token"
)

const maxFuzzInput = 1 << 16 // 64 KiB

func FuzzLexerTokens(f *testing.F) {
	addCorpusSeeds(f)
	f.Fuzz(func(t *testing.T, input []byte) {
		file := virtualFile(t, input)

		bag := diag.NewBag(64)
		lx := lexer.New(file, lexer.Options{Reporter: diag.BagReporter{Bag: bag}})
		var prevEnd uint32
		for {
			tok := lx.Next()
			if tok.Span.Start < prevEnd || tok.Span.End < tok.Span.Start {
				t.Fatalf("token %s span %v goes backwards (prev end %d)", tok.Kind, tok.Span, prevEnd)
			}
			prevEnd = tok.Span.End
			if tok.Kind == token.EOF {
				break
			}
		}
	})
}

// virtualFile копирует вход, чтобы fuzz-движок мог переиспользовать буфер.
func virtualFile(t *testing.T, input []byte) *source.File {
	t.Helper()
	if len(input) > maxFuzzInput {
		input = input[:maxFuzzInput]
	}
	fs := source.NewFileSet("")
	id, err := fs.Add("fuzz.rv", append([]byte(nil), input...), source.FileVirtual)
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	return fs.Get(id)
}
