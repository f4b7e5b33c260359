package testkit

import (
	"testing"

	"raven/internal/ast"
	"raven/internal/lexer"
	"raven/internal/parser"
	"raven/internal/source"
	"raven/internal/token"
)

func parse(t *testing.T, src string) (*ast.File, *source.File) {
	t.Helper()
	fs := source.NewFileSet("")
	id, err := fs.Add("main.rv", []byte(src), source.FileVirtual)
	if err != nil {
		t.Fatal(err)
	}
	file := fs.Get(id)
	toks, _ := lexer.Tokenize(file, lexer.Options{})
	return parser.ParseFile(file, token.NewSliceSource(toks), parser.Options{}).File, file
}

func TestSpanInvariantsHoldForParsedFile(t *testing.T) {
	f, sf := parse(t, "struct P { x: i64 }\nimpl P { fn get(self) -> i64 { return self.x; } }\nfn main() {}\n")
	if len(f.Units) == 0 {
		t.Fatal("no units parsed")
	}
	if err := CheckSpanInvariants(f, sf); err != nil {
		t.Fatal(err)
	}
}

func TestSpanInvariantsCatchEscapedUnit(t *testing.T) {
	f, sf := parse(t, "fn main() {}\n")
	f.Units[0].Span.End = f.Span.End + 10
	if err := CheckSpanInvariants(f, sf); err == nil {
		t.Fatal("expected error for unit outside file span")
	}
}

func TestSpanInvariantsEmptyFile(t *testing.T) {
	f, sf := parse(t, "")
	if err := CheckSpanInvariants(f, sf); err != nil {
		t.Fatal(err)
	}
	if err := CheckSpanInvariants(nil, sf); err == nil {
		t.Fatal("expected error for nil file")
	}
}
