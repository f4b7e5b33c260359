package lexer

import (
	"testing"

	"raven/internal/diag"
	"raven/internal/source"
	"raven/internal/token"
)

func lexString(t *testing.T, src string) ([]token.Token, *diag.Bag) {
	t.Helper()
	fs := source.NewFileSet("")
	id, err := fs.Add("main.rv", []byte(src), source.FileVirtual)
	if err != nil {
		t.Fatal(err)
	}
	bag := diag.NewBag(0)
	toks, _ := Tokenize(fs.Get(id), Options{Reporter: diag.BagReporter{Bag: bag}})
	return toks, bag
}

func kinds(toks []token.Token) []token.Kind {
	out := make([]token.Kind, len(toks))
	for i, t := range toks {
		out[i] = t.Kind
	}
	return out
}

func expectKinds(t *testing.T, src string, want ...token.Kind) []token.Token {
	t.Helper()
	toks, bag := lexString(t, src)
	if bag.Len() != 0 {
		t.Fatalf("%q: unexpected diagnostics %+v", src, bag.Items())
	}
	want = append(want, token.EOF)
	got := kinds(toks)
	if len(got) != len(want) {
		t.Fatalf("%q: kinds = %v, want %v", src, got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("%q: token %d = %v, want %v", src, i, got[i], want[i])
		}
	}
	return toks
}

func TestKeywordsAndIdents(t *testing.T) {
	toks := expectKinds(t, "pub fn main() -> i64 { return x_1; }",
		token.KwPub, token.KwFn, token.Ident, token.LParen, token.RParen, token.Arrow,
		token.Ident, token.LBrace, token.KwReturn, token.Ident, token.Semicolon, token.RBrace)
	if toks[2].Text != "main" || toks[9].Text != "x_1" {
		t.Fatalf("texts: %q %q", toks[2].Text, toks[9].Text)
	}
	if toks[2].Span.Start != 7 || toks[2].Span.End != 11 {
		t.Fatalf("span of main = %+v", toks[2].Span)
	}
}

func TestOperatorsGreedy(t *testing.T) {
	expectKinds(t, ":: : -> - && & || | == = != ! <= << < >= >> > ^ % # .",
		token.ColonColon, token.Colon, token.Arrow, token.Minus, token.AndAnd, token.Amp,
		token.OrOr, token.Pipe, token.EqEq, token.Assign, token.BangEq, token.Bang,
		token.LtEq, token.Shl, token.Lt, token.GtEq, token.Shr, token.Gt,
		token.Caret, token.Percent, token.Hash, token.Dot)
}

func TestNumbers(t *testing.T) {
	tests := []struct {
		src  string
		kind token.Kind
	}{
		{"0", token.IntLit},
		{"1_000", token.IntLit},
		{"3.14", token.FloatLit},
		{"2.5e-3", token.FloatLit},
		{"1e9", token.FloatLit},
	}
	for _, tt := range tests {
		toks := expectKinds(t, tt.src, tt.kind)
		if toks[0].Text != tt.src {
			t.Errorf("%q: text %q", tt.src, toks[0].Text)
		}
	}
	// `1.abs` is an integer followed by a method access
	expectKinds(t, "1.abs", token.IntLit, token.Dot, token.Ident)
}

func TestBadNumber(t *testing.T) {
	toks, bag := lexString(t, "12ab + 1")
	if toks[0].Kind != token.Invalid || toks[0].Text != "12ab" {
		t.Fatalf("token = %+v", toks[0])
	}
	if bag.Len() != 1 || bag.Items()[0].Code != diag.LexBadNumber {
		t.Fatalf("diags = %+v", bag.Items())
	}
	if toks[1].Kind != token.Plus || toks[2].Kind != token.IntLit {
		t.Fatalf("lexing did not continue: %v", kinds(toks))
	}
}

func TestStrings(t *testing.T) {
	toks := expectKinds(t, `"a\n\"b\"" x`, token.StringLit, token.Ident)
	if toks[0].Text != `"a\n\"b\""` {
		t.Fatalf("text = %q", toks[0].Text)
	}

	toks, bag := lexString(t, "\"abc\nlet")
	if toks[0].Kind != token.Invalid || bag.Items()[0].Code != diag.LexUnterminatedString {
		t.Fatalf("newline in string: %+v %+v", toks[0], bag.Items())
	}
	if toks[1].Kind != token.KwLet {
		t.Fatalf("after bad string: %v", kinds(toks))
	}

	_, bag = lexString(t, `"\q"`)
	if bag.Len() != 1 || bag.Items()[0].Code != diag.LexUnknownChar {
		t.Fatalf("bad escape: %+v", bag.Items())
	}
}

func TestComments(t *testing.T) {
	expectKinds(t, "a // line\n/* block /* nested */ still */ b", token.Ident, token.Ident)

	toks, bag := lexString(t, "a /* never closed")
	if len(toks) != 2 || toks[1].Kind != token.EOF {
		t.Fatalf("toks = %v", kinds(toks))
	}
	if bag.Len() != 1 || bag.Items()[0].Code != diag.LexUnterminatedBlockComment {
		t.Fatalf("diags = %+v", bag.Items())
	}
}

func TestUnknownCharContinues(t *testing.T) {
	toks, bag := lexString(t, "a @ b $")
	want := []token.Kind{token.Ident, token.Invalid, token.Ident, token.Invalid, token.EOF}
	got := kinds(toks)
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("kinds = %v", got)
		}
	}
	if bag.Len() != 2 {
		t.Fatalf("diags = %d", bag.Len())
	}
}

func TestUnicodeIdentNFC(t *testing.T) {
	// "é" как e + combining acute
	toks := expectKinds(t, "cafe\u0301 caf\u00e9", token.Ident, token.Ident)
	if toks[0].Text != toks[1].Text {
		t.Fatalf("not normalized: %q vs %q", toks[0].Text, toks[1].Text)
	}
	if toks[0].Span.Len() != 6 {
		t.Fatalf("span must cover raw bytes: %+v", toks[0].Span)
	}
}

func TestPeekAndEOF(t *testing.T) {
	fs := source.NewFileSet("")
	id, _ := fs.Add("x.rv", []byte("a b"), source.FileVirtual)
	lx := New(fs.Get(id), Options{})
	if lx.Peek().Text != "a" || lx.Peek().Text != "a" {
		t.Fatal("peek must not consume")
	}
	if lx.Next().Text != "a" || lx.Next().Text != "b" {
		t.Fatal("next order")
	}
	for range 3 {
		if k := lx.Next().Kind; k != token.EOF {
			t.Fatalf("after end: %v", k)
		}
	}
}
