package parser

import (
	"raven/internal/ast"
	"raven/internal/diag"
	"raven/internal/source"
	"raven/internal/token"
)

type modifiers struct {
	vis          ast.Visibility
	internal     bool
	span         source.Span
	pubSpan      source.Span
	internalSpan source.Span
}

func (m modifiers) any() bool { return m.vis == ast.VisPublic || m.internal }

// parseItem выбирает по первому токену нужный распознаватель top-level конструкции.
func (p *Parser) parseItem() bool {
	before := p.errors
	start := p.peek().Span
	attrs := p.parseAttributes()
	mods := p.parseModifiers()

	var units []*ast.Unit
	switch p.peek().Kind {
	case token.KwImport:
		p.rejectDecorations(attrs, mods, "import")
		return p.parseImport()
	case token.KwFn:
		if u := p.parseFnItem(mods); u != nil {
			units = append(units, u)
		}
	case token.KwStruct:
		p.rejectInternal(mods, "struct")
		if u := p.parseStructItem(mods); u != nil {
			units = append(units, u)
		}
	case token.KwTrait:
		p.rejectInternal(mods, "trait")
		if u := p.parseTraitItem(mods); u != nil {
			units = append(units, u)
		}
	case token.KwImpl:
		if mods.any() {
			p.errAt(diag.SynModifierNotAllowed, mods.span, "modifiers are not allowed on impls")
		}
		units = p.parseImplItem()
	default:
		p.err(diag.SynUnexpectedToken, "expected item, got "+describe(p.peek()))
		return false
	}
	if len(units) == 0 {
		return false
	}

	head := units[0]
	head.Span = start.Cover(p.lastSpan)
	head.Attrs = attrs
	p.applyAttrs(head)
	if p.errors > before {
		head.Poisoned = true
	}
	p.file.Units = append(p.file.Units, units...)
	return true
}

// parseAttributes: `#[name]` или `#[name(-12)]`, сколько угодно подряд.
func (p *Parser) parseAttributes() []*ast.Attr {
	var attrs []*ast.Attr
	for p.at(token.Hash) {
		hash := p.advance()
		if _, ok := p.expect(token.LBracket, diag.SynBadAttribute, "expected '[' after '#'"); !ok {
			return attrs
		}
		name, ok := p.expectIdent("attribute name")
		if !ok {
			p.skipUntil(token.RBracket)
			p.eat(token.RBracket)
			continue
		}
		attr := &ast.Attr{Name: name.Text}
		if p.eat(token.LParen) {
			attr.HasArg = true
			argStart := p.peek().Span
			neg := p.eat(token.Minus)
			lit, ok := p.expect(token.IntLit, diag.SynBadAttribute, "expected integer attribute argument")
			if ok {
				attr.ArgSpan = argStart.Cover(lit.Span)
				v, err := parseIntText(lit.Text, neg)
				if err != nil {
					p.errAt(diag.SynBadAttribute, attr.ArgSpan, "attribute argument "+lit.Text+" is out of range")
				}
				attr.Arg = v
			}
			if _, ok := p.expect(token.RParen, diag.SynUnclosedDelimiter, "expected ')'"); !ok {
				p.skipUntil(token.RBracket)
			}
		}
		p.expect(token.RBracket, diag.SynUnclosedDelimiter, "expected ']'")
		attr.Span = hash.Span.Cover(p.lastSpan)
		attrs = append(attrs, attr)
	}
	return attrs
}

func (p *Parser) parseModifiers() modifiers {
	var mods modifiers
	for {
		switch tok := p.peek(); tok.Kind {
		case token.KwPub:
			p.advance()
			if mods.vis == ast.VisPublic {
				p.errAt(diag.SynModifierNotAllowed, tok.Span, "duplicate 'pub' modifier")
			}
			mods.vis = ast.VisPublic
			mods.pubSpan = tok.Span
		case token.KwInternal:
			p.advance()
			if mods.internal {
				p.errAt(diag.SynModifierNotAllowed, tok.Span, "duplicate 'internal' modifier")
			}
			mods.internal = true
			mods.internalSpan = tok.Span
		default:
			return mods
		}
		if mods.span.Empty() {
			mods.span = p.lastSpan
		} else {
			mods.span = mods.span.Cover(p.lastSpan)
		}
	}
}

func (p *Parser) rejectDecorations(attrs []*ast.Attr, mods modifiers, what string) {
	if len(attrs) > 0 {
		p.warnAt(diag.SynBadAttribute, attrs[0].Span, "attributes on "+what+" are ignored")
	}
	if mods.any() {
		p.errAt(diag.SynModifierNotAllowed, mods.span, "modifiers are not allowed on "+what)
	}
}

func (p *Parser) rejectInternal(mods modifiers, what string) {
	if mods.internal {
		p.errAt(diag.SynModifierNotAllowed, mods.internalSpan, "'internal' is only allowed on functions, not on "+what)
	}
}

// import a::b::c;
func (p *Parser) parseImport() bool {
	kw := p.advance()
	path, ok := p.parsePath()
	if !ok {
		return false
	}
	if !p.expectSemi() {
		return false
	}
	p.file.Imports = append(p.file.Imports, &ast.Import{Path: path, Span: kw.Span.Cover(p.lastSpan)})
	return true
}

// parsePath: IDENT ('::' IDENT)*
func (p *Parser) parsePath() ([]string, bool) {
	first, ok := p.expectIdent("identifier")
	if !ok {
		return nil, false
	}
	path := []string{first.Text}
	for p.eat(token.ColonColon) {
		seg, ok := p.expectIdent("identifier after '::'")
		if !ok {
			return path, false
		}
		path = append(path, seg.Text)
	}
	return path, true
}

func (p *Parser) newUnit(kind ast.UnitKind, name token.Token, mods modifiers) *ast.Unit {
	return &ast.Unit{
		Kind:       kind,
		Name:       name.Text,
		Namespace:  p.file.Namespace,
		NameSpan:   name.Span,
		Visibility: mods.vis,
		Internal:   mods.internal,
	}
}

func (p *Parser) announce(local string, span source.Span) {
	if p.opts.OnHeader != nil {
		p.opts.OnHeader(source.Qualify(p.file.Namespace, local), span)
	}
}

func (p *Parser) parseFnItem(mods modifiers) *ast.Unit {
	decl, name := p.parseFnDecl(true, func(name token.Token) { p.announce(name.Text, name.Span) })
	if decl == nil {
		return nil
	}
	u := p.newUnit(ast.UnitFunc, name, mods)
	u.Func = decl
	return u
}

// struct Name<T> { a: T, b: i64 }
func (p *Parser) parseStructItem(mods modifiers) *ast.Unit {
	p.advance()
	name, ok := p.expectIdent("struct name")
	if !ok {
		return nil
	}
	u := p.newUnit(ast.UnitStruct, name, mods)
	p.announce(u.Name, u.NameSpan)
	decl := &ast.StructDecl{TypeParams: p.parseGenerics()}
	u.Struct = decl
	if _, ok := p.expect(token.LBrace, diag.SynUnexpectedToken, "expected '{' after struct header"); !ok {
		u.Poisoned = true
		return u
	}
	for !p.atOr(token.RBrace, token.EOF) && !p.peek().Kind.IsTopLevelKeyword() {
		fname, ok := p.expectIdent("field name")
		if !ok {
			p.skipUntil(token.Comma, token.RBrace)
			p.eat(token.Comma)
			continue
		}
		if _, ok := p.expect(token.Colon, diag.SynUnexpectedToken, "expected ':' after field name"); !ok {
			p.skipUntil(token.Comma, token.RBrace)
			p.eat(token.Comma)
			continue
		}
		ty := p.parseType()
		decl.Fields = append(decl.Fields, &ast.Field{Name: fname.Text, Type: ty, Span: fname.Span.Cover(p.lastSpan)})
		if !p.eat(token.Comma) && !p.at(token.RBrace) {
			p.err(diag.SynUnexpectedToken, "expected ',' or '}' after field, got "+describe(p.peek()))
			p.skipUntil(token.Comma, token.RBrace)
			p.eat(token.Comma)
		}
	}
	p.expect(token.RBrace, diag.SynUnclosedDelimiter, "expected '}' to close struct")
	return u
}

// trait Name<T> { fn m(self, x: T) -> T; }
func (p *Parser) parseTraitItem(mods modifiers) *ast.Unit {
	p.advance()
	name, ok := p.expectIdent("trait name")
	if !ok {
		return nil
	}
	u := p.newUnit(ast.UnitTrait, name, mods)
	p.announce(u.Name, u.NameSpan)
	decl := &ast.TraitDecl{TypeParams: p.parseGenerics()}
	u.Trait = decl
	if _, ok := p.expect(token.LBrace, diag.SynUnexpectedToken, "expected '{' after trait header"); !ok {
		return u
	}
	for !p.atOr(token.RBrace, token.EOF) && !p.atItemStart() {
		if !p.at(token.KwFn) {
			p.err(diag.SynUnexpectedToken, "expected method signature, got "+describe(p.peek()))
			p.skipUntil(token.KwFn, token.RBrace)
			continue
		}
		m, _ := p.parseFnDecl(false, nil)
		if m == nil {
			p.skipUntil(token.KwFn, token.RBrace)
			continue
		}
		p.rejectMethodGenerics(m)
		decl.Methods = append(decl.Methods, m)
	}
	p.expect(token.RBrace, diag.SynUnclosedDelimiter, "expected '}' to close trait")
	return u
}

// impl<T> Trait<T> for Target { fn ... }
// Методы становятся отдельными юнитами "impl#N::method" сразу за impl.
func (p *Parser) parseImplItem() []*ast.Unit {
	kw := p.advance()
	impl := &ast.Unit{
		Kind:       ast.UnitImpl,
		Name:       ast.ImplName(p.impls),
		Namespace:  p.file.Namespace,
		NameSpan:   kw.Span,
		Visibility: ast.VisPublic,
	}
	p.impls++
	p.announce(impl.Name, impl.NameSpan)
	decl := &ast.ImplDecl{TypeParams: p.parseGenerics()}
	impl.Impl = decl
	decl.Trait = p.parseType()
	if _, ok := p.expect(token.KwFor, diag.SynUnexpectedToken, "expected 'for' in impl header"); ok {
		decl.Target = p.parseType()
	}
	units := []*ast.Unit{impl}
	if _, ok := p.expect(token.LBrace, diag.SynUnexpectedToken, "expected '{' after impl header"); !ok {
		return units
	}
	for !p.atOr(token.RBrace, token.EOF) && !p.atItemStart() {
		if !p.at(token.KwFn) {
			p.err(diag.SynUnexpectedToken, "expected method, got "+describe(p.peek()))
			p.skipUntil(token.KwFn, token.RBrace)
			continue
		}
		before := p.errors
		m, name := p.parseFnDecl(true, func(name token.Token) {
			p.announce(impl.Name+source.Separator+name.Text, name.Span)
		})
		if m == nil {
			p.skipUntil(token.KwFn, token.RBrace)
			continue
		}
		p.rejectMethodGenerics(m)
		decl.Methods = append(decl.Methods, m)
		units = append(units, &ast.Unit{
			Kind:       ast.UnitFunc,
			Name:       impl.Name + source.Separator + m.Name,
			Namespace:  p.file.Namespace,
			Span:       m.Span,
			NameSpan:   name.Span,
			Visibility: ast.VisPublic,
			Poisoned:   p.errors > before,
			Func:       m,
			Owner:      impl,
		})
	}
	p.expect(token.RBrace, diag.SynUnclosedDelimiter, "expected '}' to close impl")
	return units
}

func (p *Parser) rejectMethodGenerics(m *ast.FnDecl) {
	if len(m.TypeParams) > 0 {
		p.errAt(diag.SynGenericMethod, m.TypeParams[0].Span, "methods cannot declare their own type parameters")
	}
}

// skipUntil прокручивает до одного из kinds на текущем уровне вложенности
// фигурных скобок; на стартере item (включая fn) тоже останавливается.
func (p *Parser) skipUntil(kinds ...token.Kind) {
	depth := 0
	for {
		k := p.peek().Kind
		if k == token.EOF {
			return
		}
		if depth == 0 {
			for _, want := range kinds {
				if k == want {
					return
				}
			}
			if k.IsTopLevelKeyword() {
				return
			}
		}
		switch k {
		case token.LBrace:
			depth++
		case token.RBrace:
			if depth == 0 {
				return
			}
			depth--
		}
		p.advance()
	}
}
