package parser

import (
	"fmt"
	"strings"
	"testing"

	"raven/internal/ast"
	"raven/internal/diag"
	"raven/internal/lexer"
	"raven/internal/source"
	"raven/internal/token"
)

func parseSource(t *testing.T, input string) (*ast.File, *diag.Bag) {
	t.Helper()
	fs := source.NewFileSet("")
	id, err := fs.Add("main.rv", []byte(input), source.FileVirtual)
	if err != nil {
		t.Fatal(err)
	}
	file := fs.Get(id)
	bag := diag.NewBag(100)
	reporter := diag.BagReporter{Bag: bag}
	lx := lexer.New(file, lexer.Options{Reporter: reporter})
	res := ParseFile(file, lx, Options{Reporter: reporter})
	return res.File, bag
}

func diagnosticsSummary(bag *diag.Bag) string {
	diags := bag.Items()
	if len(diags) == 0 {
		return "<none>"
	}
	lines := make([]string, len(diags))
	for i, d := range diags {
		lines[i] = fmt.Sprintf("[%s] %s", d.Code.ID(), d.Message)
	}
	return strings.Join(lines, "; ")
}

func mustParse(t *testing.T, input string) *ast.File {
	t.Helper()
	file, bag := parseSource(t, input)
	if bag.HasErrors() || bag.HasWarnings() {
		t.Fatalf("unexpected diagnostics: %s", diagnosticsSummary(bag))
	}
	return file
}

// sexpr печатает выражение в виде s-expression для сравнения в тестах.
func sexpr(e ast.Expr) string {
	switch e := e.(type) {
	case *ast.Literal:
		if e.Kind == ast.LitString {
			return fmt.Sprintf("%q", e.Text)
		}
		return e.Text
	case *ast.PathExpr:
		return strings.Join(e.Segments, "::")
	case *ast.SelfExpr:
		return "self"
	case *ast.UnaryExpr:
		return "(" + e.Op.String() + " " + sexpr(e.X) + ")"
	case *ast.BinaryExpr:
		return "(" + e.Op.String() + " " + sexpr(e.X) + " " + sexpr(e.Y) + ")"
	case *ast.JoinedExpr:
		var sb strings.Builder
		sb.WriteString("(join " + sexpr(e.Operands[0]))
		for i, op := range e.Ops {
			sb.WriteString(" " + op.String() + " " + sexpr(e.Operands[i+1]))
		}
		return sb.String() + ")"
	case *ast.CallExpr:
		return "(call " + sexpr(e.Callee) + args(e.Args) + ")"
	case *ast.MethodCallExpr:
		return "(." + e.Method + " " + sexpr(e.Recv) + args(e.Args) + ")"
	case *ast.FieldExpr:
		return "(field " + sexpr(e.X) + " " + e.Field + ")"
	case *ast.StructLit:
		var sb strings.Builder
		sb.WriteString("(new " + e.Type.String())
		for _, f := range e.Fields {
			sb.WriteString(" " + f.Name + "=" + sexpr(f.Value))
		}
		return sb.String() + ")"
	case *ast.BadExpr:
		return "<bad>"
	}
	return "?"
}

func args(xs []ast.Expr) string {
	var sb strings.Builder
	for _, x := range xs {
		sb.WriteString(" " + sexpr(x))
	}
	return sb.String()
}

func parseExprSource(t *testing.T, expr string) ast.Expr {
	t.Helper()
	file := mustParse(t, "fn f() { "+expr+"; }")
	stmt, ok := file.Units[0].Func.Body.Stmts[0].(*ast.ExprStmt)
	if !ok {
		t.Fatalf("expected expression statement, got %T", file.Units[0].Func.Body.Stmts[0])
	}
	return stmt.X
}

func TestOperatorPriority(t *testing.T) {
	tests := []struct {
		src, want string
	}{
		{"a + b * c", "(+ a (* b c))"},
		{"a * b + c", "(+ (* a b) c)"},
		{"a - b - c", "(- (- a b) c)"},
		{"a || b && c", "(|| a (&& b c))"},
		{"a == b || c != d", "(|| (== a b) (!= c d))"},
		{"-a * b", "(* (- a) b)"},
		{"!a.b()", "(! (.b a))"},
		{"a | b ^ c & d", "(| a (^ b (& c d)))"},
		{"a << 1 + 2", "(<< a (+ 1 2))"},
		{"a & b == c", "(== (& a b) c)"},
		{"(a + b) * c", "(* (+ a b) c)"},
		{"x.y.z(1, 2)", "(.z (field x y) 1 2)"},
		{"util::max(a, b)", "(call util::max a b)"},
		{"new Pair<i64> { a: 1, b: 2 }", "(new Pair<i64> a=1 b=2)"},
		{`"a\tb"`, `"a\tb"`},
		{"1_000", "1000"},
	}
	for _, tt := range tests {
		if got := sexpr(parseExprSource(t, tt.src)); got != tt.want {
			t.Errorf("%s: got %s, want %s", tt.src, got, tt.want)
		}
	}
}

func TestJoinedComparisons(t *testing.T) {
	tests := []struct {
		src, want string
	}{
		{"a < b", "(< a b)"},
		{"a < b <= c", "(join a < b <= c)"},
		{"a < b + 1 > c", "(join a < (+ b 1) > c)"},
		{"a < b == c < d", "(== (< a b) (< c d))"},
		{"a >= b > c >= d", "(join a >= b > c >= d)"},
	}
	for _, tt := range tests {
		if got := sexpr(parseExprSource(t, tt.src)); got != tt.want {
			t.Errorf("%s: got %s, want %s", tt.src, got, tt.want)
		}
	}
}

func TestOperatorsTableConsistent(t *testing.T) {
	for _, op := range Operators {
		got, ok := BinaryOp(op.Token)
		if op.Prefix {
			got, ok = PrefixOp(op.Token)
		}
		if !ok || got.Trait != op.Trait {
			t.Errorf("lookup %v: %+v", op.Token, got)
		}
		if !strings.HasPrefix(op.TraitName(), "core::") {
			t.Errorf("trait name %s", op.TraitName())
		}
	}
	if op, _ := PrefixOp(token.Minus); op.Method != "neg" {
		t.Fatalf("prefix minus = %+v", op)
	}
}

func TestItemsAndImpls(t *testing.T) {
	file := mustParse(t, `
import util::math;
pub struct Pair<T> { a: T, b: T }
trait Show { fn show(self) -> str; }
#[priority(5)]
impl<T: Show> Show for Pair<T> {
	fn show(self) -> str { return self.a.show(); }
}
impl Show for i64 { fn show(self) -> str { return "n"; } }
internal fn print(s: str);
`)
	var names []string
	for _, u := range file.Units {
		names = append(names, u.Kind.String()+" "+u.FullName())
	}
	want := "struct main::Pair,trait main::Show,impl main::impl#0,fn main::impl#0::show,impl main::impl#1,fn main::impl#1::show,fn main::print"
	if got := strings.Join(names, ","); got != want {
		t.Fatalf("units:\n got %s\nwant %s", got, want)
	}
	if len(file.Imports) != 1 || file.Imports[0].String() != "util::math" {
		t.Fatalf("imports = %+v", file.Imports)
	}
	for _, u := range file.Units {
		if len(u.Imports) != 1 {
			t.Fatalf("%s has no imports", u)
		}
	}
	pair := file.Units[0]
	if !pair.Public() || len(pair.Struct.Fields) != 2 || pair.Struct.TypeParams[0].Name != "T" {
		t.Fatalf("pair = %+v", pair.Struct)
	}
	impl := file.Units[2]
	if impl.Priority != 5 || impl.Impl.Trait.String() != "Show" || impl.Impl.Target.String() != "Pair<T>" {
		t.Fatalf("impl = %+v prio %d", impl.Impl, impl.Priority)
	}
	if b := impl.Impl.TypeParams[0].Bounds; len(b) != 1 || b[0].String() != "Show" {
		t.Fatalf("bounds = %+v", b)
	}
	method := file.Units[3]
	if method.Owner != impl || len(method.TypeParams()) != 1 || !method.Func.Params[0].Self {
		t.Fatalf("method = %+v", method)
	}
	printFn := file.Units[6]
	if !printFn.Internal || printFn.Func.Body != nil {
		t.Fatalf("print = %+v", printFn.Func)
	}
}

func TestNestedGenericCloseSplit(t *testing.T) {
	file := mustParse(t, "fn f(x: Box<Box<i64>>) -> Box<i64> { return x.get(); }")
	fn := file.Units[0].Func
	if got := fn.Params[0].Type.String(); got != "Box<Box<i64>>" {
		t.Fatalf("param type = %s", got)
	}
	if fn.Result.String() != "Box<i64>" {
		t.Fatalf("result = %s", fn.Result)
	}
}

func TestStatements(t *testing.T) {
	file := mustParse(t, `fn f(n: i64) -> i64 {
	let x: i64 = 1;
	x = x + n;
	if x > 2 { return 1; } else if x < 0 { return 2; } else { x = 0; }
	while x < 10 { x = x + 1; }
	return x;
}`)
	stmts := file.Units[0].Func.Body.Stmts
	kinds := make([]string, len(stmts))
	for i, s := range stmts {
		kinds[i] = fmt.Sprintf("%T", s)
	}
	want := "*ast.LetStmt *ast.AssignStmt *ast.IfStmt *ast.WhileStmt *ast.ReturnStmt"
	if got := strings.Join(kinds, " "); got != want {
		t.Fatalf("stmts = %s", got)
	}
	ifs := stmts[2].(*ast.IfStmt)
	if _, ok := ifs.Else.(*ast.IfStmt); !ok {
		t.Fatalf("else-if = %T", ifs.Else)
	}
}

func TestPriorityAttributeErrors(t *testing.T) {
	_, bag := parseSource(t, "#[priority(300)] impl A for i64 {}")
	if !bag.HasErrors() || bag.Items()[0].Code != diag.SynBadAttribute {
		t.Fatalf("diags = %s", diagnosticsSummary(bag))
	}

	file, bag := parseSource(t, "#[priority(-128)] impl A for i64 {}")
	if bag.Len() != 0 || file.Units[0].Priority != -128 {
		t.Fatalf("negative priority: %s %+v", diagnosticsSummary(bag), file.Units[0])
	}

	_, bag = parseSource(t, "#[inline] fn f() {}")
	if bag.HasErrors() || !bag.HasWarnings() || bag.Items()[0].Code != diag.SynUnknownAttribute {
		t.Fatalf("unknown attribute: %s", diagnosticsSummary(bag))
	}
}

func TestRecoveryPoisonsOnlyBrokenUnit(t *testing.T) {
	file, bag := parseSource(t, `
fn bad() { let = 1; foo(; }
fn good() -> i64 { return 1; }
struct S { a: i64 }
`)
	if !bag.HasErrors() {
		t.Fatal("expected syntax errors")
	}
	byName := map[string]*ast.Unit{}
	for _, u := range file.Units {
		byName[u.Name] = u
	}
	if u := byName["bad"]; u == nil || !u.Poisoned {
		t.Fatalf("bad = %+v", u)
	}
	if u := byName["good"]; u == nil || u.Poisoned {
		t.Fatalf("good = %+v", u)
	}
	if u := byName["S"]; u == nil || u.Poisoned {
		t.Fatalf("S = %+v", u)
	}
}

func TestUnclosedBodyResyncsAtNextItem(t *testing.T) {
	file, bag := parseSource(t, "fn a() { let x = 1;\nfn b() {}")
	if !bag.HasErrors() || len(file.Units) != 2 {
		t.Fatalf("units = %d, diags = %s", len(file.Units), diagnosticsSummary(bag))
	}
	if !file.Units[0].Poisoned || file.Units[1].Poisoned {
		t.Fatalf("poison flags: %v %v", file.Units[0].Poisoned, file.Units[1].Poisoned)
	}
}

func TestInvalidLexemePoisons(t *testing.T) {
	file, bag := parseSource(t, "fn a() { let x = 1 @ 2; }")
	if len(file.Units) != 1 || !file.Units[0].Poisoned {
		t.Fatalf("units = %+v", file.Units)
	}
	if bag.Items()[0].Code != diag.LexUnknownChar {
		t.Fatalf("diags = %s", diagnosticsSummary(bag))
	}
}

func TestGenericMethodRejected(t *testing.T) {
	_, bag := parseSource(t, "trait T { fn m<U>(self); }")
	if !bag.HasErrors() || bag.Items()[0].Code != diag.SynGenericMethod {
		t.Fatalf("diags = %s", diagnosticsSummary(bag))
	}
}

func TestModifierErrors(t *testing.T) {
	_, bag := parseSource(t, "internal struct S {}")
	if !bag.HasErrors() || bag.Items()[0].Code != diag.SynModifierNotAllowed {
		t.Fatalf("diags = %s", diagnosticsSummary(bag))
	}
	_, bag = parseSource(t, "pub import a;")
	if !bag.HasErrors() || bag.Items()[0].Code != diag.SynModifierNotAllowed {
		t.Fatalf("diags = %s", diagnosticsSummary(bag))
	}
}

func TestGarbageAtTopLevelTerminates(t *testing.T) {
	file, bag := parseSource(t, ") ) } let x; fn ok() {}")
	if !bag.HasErrors() {
		t.Fatal("expected errors")
	}
	if len(file.Units) != 1 || file.Units[0].Name != "ok" {
		t.Fatalf("units = %+v", file.Units)
	}
}

func TestReplayedTokens(t *testing.T) {
	fs := source.NewFileSet("")
	id, _ := fs.Add("lib/util.rv", []byte("pub fn max(a: i64, b: i64) -> i64 { return a; }"), source.FileVirtual)
	file := fs.Get(id)
	toks, _ := lexer.Tokenize(file, lexer.Options{})
	res := ParseFile(file, token.NewSliceSource(toks), Options{})
	if res.Errors != 0 || res.File.Units[0].FullName() != "lib::util::max" {
		t.Fatalf("res = %+v", res)
	}
}

func TestHeadersAnnouncedBeforeBodies(t *testing.T) {
	fs := source.NewFileSet("")
	id, err := fs.Add("main.rv", []byte(`
struct P { x: i64 }
impl Show for P { fn show(self) -> str { return "p"; } }
fn main() { let x = 1; }
`), source.FileVirtual)
	if err != nil {
		t.Fatal(err)
	}
	file := fs.Get(id)
	var heads []string
	ParseFile(file, lexer.New(file, lexer.Options{}), Options{
		OnHeader: func(name string, _ source.Span) { heads = append(heads, name) },
	})
	want := "main::P,main::impl#0,main::impl#0::show,main::main"
	if got := strings.Join(heads, ","); got != want {
		t.Fatalf("headers = %s, want %s", got, want)
	}
}
