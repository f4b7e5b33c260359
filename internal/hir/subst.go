package hir

import "raven/internal/types"

// TargetResolver finalizes a call target after substitution.
type TargetResolver func(Target) (Target, error)

// Instantiate copies a generic function, struct or impl with s applied to
// every type. Call targets are substituted and then passed through resolve.
// The copy has no type parameters; Refs are recomputed by the caller.
func Instantiate(u *Unit, name string, args []types.Type, resolve TargetResolver) (*Unit, error) {
	s := types.Bind(ParamNames(u.TypeParams()), args)
	out := &Unit{
		Name:     name,
		Kind:     u.Kind,
		Span:     u.Span,
		Public:   u.Public,
		Origin:   u.Name,
		TypeArgs: args,
	}
	switch u.Kind {
	case UnitFunc:
		r := rewriter{s: s, resolve: resolve}
		f := u.Func
		body, err := r.block(f.Body)
		if err != nil {
			return nil, err
		}
		out.Func = &Func{
			Params:   substParams(f.Params, s),
			Result:   f.Result.Apply(s),
			Body:     body,
			Internal: f.Internal,
			Owner:    f.Owner,
			Method:   f.Method,
		}
	case UnitStruct:
		fields := make([]Field, len(u.Struct.Fields))
		for i, fld := range u.Struct.Fields {
			fields[i] = Field{Name: fld.Name, Type: fld.Type.Apply(s)}
		}
		out.Struct = &Struct{Fields: fields}
	case UnitImpl:
		out.Impl = &Impl{
			Trait:    u.Impl.Trait.Apply(s),
			Target:   u.Impl.Target.Apply(s),
			Priority: u.Impl.Priority,
			Methods:  u.Impl.Methods,
		}
	default:
		out.Trait = u.Trait
	}
	return out, nil
}

func substParams(ps []Param, s types.Subst) []Param {
	out := make([]Param, len(ps))
	for i, p := range ps {
		out[i] = Param{Name: p.Name, Type: p.Type.Apply(s)}
	}
	return out
}

type rewriter struct {
	s       types.Subst
	resolve TargetResolver
}

func (r *rewriter) block(b *Block) (*Block, error) {
	if b == nil {
		return nil, nil
	}
	out := &Block{Stmts: make([]Stmt, 0, len(b.Stmts))}
	for _, st := range b.Stmts {
		ns, err := r.stmt(st)
		if err != nil {
			return nil, err
		}
		out.Stmts = append(out.Stmts, ns)
	}
	return out, nil
}

func (r *rewriter) stmt(st Stmt) (Stmt, error) {
	switch st := st.(type) {
	case *Let:
		v, err := r.expr(st.Value)
		return &Let{Name: st.Name, Type: st.Type.Apply(r.s), Value: v}, err
	case *Assign:
		t, err := r.expr(st.Target)
		if err != nil {
			return nil, err
		}
		v, err := r.expr(st.Value)
		return &Assign{Target: t, Value: v}, err
	case *Return:
		v, err := r.expr(st.Value)
		return &Return{Value: v}, err
	case *If:
		c, err := r.expr(st.Cond)
		if err != nil {
			return nil, err
		}
		then, err := r.block(st.Then)
		if err != nil {
			return nil, err
		}
		els, err := r.block(st.Else)
		return &If{Cond: c, Then: then, Else: els}, err
	case *While:
		c, err := r.expr(st.Cond)
		if err != nil {
			return nil, err
		}
		body, err := r.block(st.Body)
		return &While{Cond: c, Body: body}, err
	case *ExprStmt:
		x, err := r.expr(st.X)
		return &ExprStmt{X: x}, err
	}
	return st, nil
}

func (r *rewriter) exprs(es []Expr) ([]Expr, error) {
	out := make([]Expr, len(es))
	for i, e := range es {
		ne, err := r.expr(e)
		if err != nil {
			return nil, err
		}
		out[i] = ne
	}
	return out, nil
}

func (r *rewriter) expr(e Expr) (Expr, error) {
	switch e := e.(type) {
	case nil:
		return nil, nil
	case *Literal:
		return e, nil
	case *Local:
		return &Local{Name: e.Name, Ty: e.Ty.Apply(r.s)}, nil
	case *Call:
		args, err := r.exprs(e.Args)
		if err != nil {
			return nil, err
		}
		t, err := r.target(e.Target)
		if err != nil {
			return nil, err
		}
		return &Call{Target: t, Args: args, Ty: e.Ty.Apply(r.s), Span: e.Span}, nil
	case *FieldAccess:
		x, err := r.expr(e.X)
		return &FieldAccess{X: x, Field: e.Field, Ty: e.Ty.Apply(r.s)}, err
	case *StructLit:
		fields := make([]FieldInit, len(e.Fields))
		for i, f := range e.Fields {
			v, err := r.expr(f.Value)
			if err != nil {
				return nil, err
			}
			fields[i] = FieldInit{Name: f.Name, Value: v}
		}
		return &StructLit{Ty: e.Ty.Apply(r.s), Fields: fields}, nil
	case *Joined:
		ops, err := r.exprs(e.Operands)
		if err != nil {
			return nil, err
		}
		targets := make([]Target, len(e.Ops))
		for i, op := range e.Ops {
			if targets[i], err = r.target(op); err != nil {
				return nil, err
			}
		}
		return &Joined{Operands: ops, Ops: targets}, nil
	}
	return e, nil
}

func (r *rewriter) target(t Target) (Target, error) {
	if t.Resolved() {
		return t, nil
	}
	out := Target{
		Generic:  t.Generic,
		TypeArgs: types.ApplyAll(t.TypeArgs, r.s),
		Self:     t.Self.Apply(r.s),
		Method:   t.Method,
	}
	if t.Trait != nil {
		tr := t.Trait.Apply(r.s)
		out.Trait = &tr
	}
	if r.resolve == nil {
		return out, nil
	}
	return r.resolve(out)
}
