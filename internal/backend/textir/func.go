package textir

import (
	"fmt"
	"strconv"
	"strings"

	"raven/internal/hir"
	"raven/internal/types"
)

type funcEmitter struct {
	e          *emitter
	tmpID      int
	blockID    int
	terminated bool
	scopes     []map[string]string
	used       map[string]int
}

func (e *emitter) emitFunc(u *hir.Unit) error {
	f := u.Func
	params := make([]string, len(f.Params))
	for i, p := range f.Params {
		params[i] = p.Type.String()
		e.refs.addType(p.Type)
	}
	e.refs.addType(f.Result)
	head := fmt.Sprintf("@%s(%s) -> %s", u.Name, strings.Join(params, ", "), f.Result)
	if f.Internal || f.Body == nil {
		fmt.Fprintf(&e.buf, "declare %s\n", head)
		return nil
	}
	fmt.Fprintf(&e.buf, "define %s {\n", head)
	fe := &funcEmitter{e: e, used: map[string]int{}}
	fe.push()
	fe.label(fe.newBlock())
	for i, p := range f.Params {
		slot := fe.declare(p.Name)
		fmt.Fprintf(&e.buf, "  local %s: %s = param %d\n", slot, p.Type, i)
	}
	if err := fe.emitBlock(f.Body); err != nil {
		return err
	}
	if !fe.terminated {
		if f.Result.IsVoid() {
			fe.line("ret void")
		} else {
			fe.line("unreachable")
		}
	}
	e.buf.WriteString("}\n")
	return nil
}

func (fe *funcEmitter) push() { fe.scopes = append(fe.scopes, map[string]string{}) }
func (fe *funcEmitter) pop()  { fe.scopes = fe.scopes[:len(fe.scopes)-1] }

// declare gives name a slot that does not collide with earlier lets.
func (fe *funcEmitter) declare(name string) string {
	n := fe.used[name]
	fe.used[name] = n + 1
	slot := "%" + name
	if n > 0 {
		slot = fmt.Sprintf("%%%s.%d", name, n)
	}
	fe.scopes[len(fe.scopes)-1][name] = slot
	return slot
}

func (fe *funcEmitter) slot(name string) (string, error) {
	for i := len(fe.scopes) - 1; i >= 0; i-- {
		if s, ok := fe.scopes[i][name]; ok {
			return s, nil
		}
	}
	return "", fmt.Errorf("textir: unknown local %s", name)
}

func (fe *funcEmitter) nextTemp() string {
	t := fmt.Sprintf("%%%d", fe.tmpID)
	fe.tmpID++
	return t
}

func (fe *funcEmitter) newBlock() string {
	b := fmt.Sprintf("bb%d", fe.blockID)
	fe.blockID++
	return b
}

func (fe *funcEmitter) label(b string) {
	fmt.Fprintf(&fe.e.buf, "%s:\n", b)
	fe.terminated = false
}

func (fe *funcEmitter) line(format string, args ...any) {
	fe.e.buf.WriteString("  ")
	fmt.Fprintf(&fe.e.buf, format, args...)
	fe.e.buf.WriteByte('\n')
}

func (fe *funcEmitter) term(format string, args ...any) {
	fe.line(format, args...)
	fe.terminated = true
}

func (fe *funcEmitter) emitBlock(b *hir.Block) error {
	if b == nil {
		return nil
	}
	fe.push()
	defer fe.pop()
	for _, st := range b.Stmts {
		if fe.terminated {
			// код после return
			fe.label(fe.newBlock())
		}
		if err := fe.emitStmt(st); err != nil {
			return err
		}
	}
	return nil
}

func (fe *funcEmitter) emitStmt(st hir.Stmt) error {
	switch st := st.(type) {
	case *hir.Let:
		fe.e.refs.addType(st.Type)
		if st.Value == nil {
			fe.line("local %s: %s", fe.declare(st.Name), st.Type)
			return nil
		}
		v, err := fe.emitExpr(st.Value)
		if err != nil {
			return err
		}
		fe.line("local %s: %s = %s", fe.declare(st.Name), st.Type, v)
	case *hir.Assign:
		v, err := fe.emitExpr(st.Value)
		if err != nil {
			return err
		}
		return fe.emitStore(st.Target, v)
	case *hir.Return:
		if st.Value == nil {
			fe.term("ret void")
			return nil
		}
		v, err := fe.emitExpr(st.Value)
		if err != nil {
			return err
		}
		fe.term("ret %s", v)
	case *hir.If:
		return fe.emitIf(st)
	case *hir.While:
		return fe.emitWhile(st)
	case *hir.ExprStmt:
		_, err := fe.emitExpr(st.X)
		return err
	default:
		return fmt.Errorf("textir: unsupported statement %T", st)
	}
	return nil
}

func (fe *funcEmitter) emitIf(st *hir.If) error {
	c, err := fe.emitExpr(st.Cond)
	if err != nil {
		return err
	}
	then, end := fe.newBlock(), fe.newBlock()
	els := end
	if st.Else != nil {
		els = fe.newBlock()
	}
	fe.term("br %s, %s, %s", c, then, els)
	fe.label(then)
	if err := fe.emitBlock(st.Then); err != nil {
		return err
	}
	if !fe.terminated {
		fe.term("jmp %s", end)
	}
	if st.Else != nil {
		fe.label(els)
		if err := fe.emitBlock(st.Else); err != nil {
			return err
		}
		if !fe.terminated {
			fe.term("jmp %s", end)
		}
	}
	fe.label(end)
	return nil
}

func (fe *funcEmitter) emitWhile(st *hir.While) error {
	cond, body, end := fe.newBlock(), fe.newBlock(), fe.newBlock()
	fe.term("jmp %s", cond)
	fe.label(cond)
	c, err := fe.emitExpr(st.Cond)
	if err != nil {
		return err
	}
	fe.term("br %s, %s, %s", c, body, end)
	fe.label(body)
	if err := fe.emitBlock(st.Body); err != nil {
		return err
	}
	if !fe.terminated {
		fe.term("jmp %s", cond)
	}
	fe.label(end)
	return nil
}

// emitStore writes v into a local or a field path rooted at a local.
func (fe *funcEmitter) emitStore(target hir.Expr, v string) error {
	path, err := fe.placePath(target)
	if err != nil {
		return err
	}
	fe.line("store %s, %s", path, v)
	return nil
}

func (fe *funcEmitter) placePath(e hir.Expr) (string, error) {
	switch e := e.(type) {
	case *hir.Local:
		return fe.slot(e.Name)
	case *hir.FieldAccess:
		base, err := fe.placePath(e.X)
		if err != nil {
			return "", err
		}
		return base + "." + e.Field, nil
	}
	return "", fmt.Errorf("textir: cannot assign to %s", hir.ExprString(e))
}

func (fe *funcEmitter) emitExpr(e hir.Expr) (string, error) {
	switch e := e.(type) {
	case *hir.Literal:
		t := fe.nextTemp()
		text := e.Text
		if e.Kind == hir.LitString {
			text = strconv.Quote(text)
		}
		fe.line("%s = const %s %s", t, e.Ty, text)
		return t, nil
	case *hir.Local:
		s, err := fe.slot(e.Name)
		if err != nil {
			return "", err
		}
		t := fe.nextTemp()
		fe.line("%s = load %s", t, s)
		return t, nil
	case *hir.Call:
		return fe.emitCall(e)
	case *hir.FieldAccess:
		x, err := fe.emitExpr(e.X)
		if err != nil {
			return "", err
		}
		t := fe.nextTemp()
		fe.line("%s = field %s, %s : %s", t, x, e.Field, e.Ty)
		return t, nil
	case *hir.StructLit:
		fe.e.refs.addType(e.Ty)
		parts := make([]string, len(e.Fields))
		for i, f := range e.Fields {
			v, err := fe.emitExpr(f.Value)
			if err != nil {
				return "", err
			}
			parts[i] = f.Name + ": " + v
		}
		t := fe.nextTemp()
		fe.line("%s = new @%s { %s }", t, types.InstanceName(e.Ty.Name, e.Ty.Args), strings.Join(parts, ", "))
		return t, nil
	case *hir.Joined:
		return fe.emitJoined(e)
	case nil:
		return "", fmt.Errorf("textir: missing expression")
	}
	return "", fmt.Errorf("textir: unsupported expression %T", e)
}

func (fe *funcEmitter) callee(t hir.Target) (string, error) {
	if !t.Resolved() {
		return "", fmt.Errorf("textir: call target %s was never resolved", hir.TargetString(t))
	}
	fe.e.refs.add(t.Unit)
	return "@" + t.Unit, nil
}

func (fe *funcEmitter) emitCall(e *hir.Call) (string, error) {
	args := make([]string, len(e.Args))
	for i, a := range e.Args {
		v, err := fe.emitExpr(a)
		if err != nil {
			return "", err
		}
		args[i] = v
	}
	fn, err := fe.callee(e.Target)
	if err != nil {
		return "", err
	}
	if e.Ty.IsVoid() {
		fe.line("call %s(%s)", fn, strings.Join(args, ", "))
		return "void", nil
	}
	t := fe.nextTemp()
	fe.line("%s = call %s(%s) : %s", t, fn, strings.Join(args, ", "), e.Ty)
	return t, nil
}

// emitJoined evaluates `a < b <= c` left to right, each operand once,
// stopping at the first false link.
func (fe *funcEmitter) emitJoined(e *hir.Joined) (string, error) {
	acc := fe.declare("join")
	fe.line("local %s: bool", acc)
	end := fe.newBlock()
	prev, err := fe.emitExpr(e.Operands[0])
	if err != nil {
		return "", err
	}
	for i, op := range e.Ops {
		next, err := fe.emitExpr(e.Operands[i+1])
		if err != nil {
			return "", err
		}
		fn, err := fe.callee(op)
		if err != nil {
			return "", err
		}
		c := fe.nextTemp()
		fe.line("%s = call %s(%s, %s) : bool", c, fn, prev, next)
		fe.line("store %s, %s", acc, c)
		if i < len(e.Ops)-1 {
			cont := fe.newBlock()
			fe.term("br %s, %s, %s", c, cont, end)
			fe.label(cont)
		}
		prev = next
	}
	fe.term("jmp %s", end)
	fe.label(end)
	t := fe.nextTemp()
	fe.line("%s = load %s", t, acc)
	return t, nil
}
