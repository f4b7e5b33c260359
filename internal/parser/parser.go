// Package parser builds raw units from a token stream. It performs no
// name resolution; every top-level item becomes an ast.Unit.
package parser

import (
	"slices"

	"raven/internal/ast"
	"raven/internal/source"
	"raven/internal/token"
)

// Parser: состояние парсера на один файл
type Parser struct {
	toks     token.Source
	look     []token.Token // буфер просмотра вперед; split `>>` кладет сюда `>`
	file     *ast.File
	opts     Options
	lastSpan source.Span // span последнего съеденного токена для лучшей диагностики
	errors   uint        // репортнутые ошибки + невалидные лексемы
	consumed int
	reported uint
	impls    int
}

// ParseFile: входная точка для разбора одного файла.
func ParseFile(file *source.File, toks token.Source, opts Options) Result {
	p := &Parser{
		toks: toks,
		file: &ast.File{ID: file.ID, Namespace: file.Namespace},
		opts: opts,
	}
	p.lastSpan = source.Span{File: file.ID}
	start := p.peek().Span
	p.parseItems()
	p.file.Span = start.Cover(p.peek().Span)
	for _, u := range p.file.Units {
		u.Imports = p.file.Imports
	}
	return Result{File: p.file, Errors: p.errors}
}

// fill гарантирует n токенов в буфере. Invalid токены уже репортнуты
// лексером: пропускаем их, но помечаем текущий item как испорченный.
func (p *Parser) fill(n int) {
	for len(p.look) < n {
		tok := p.toks.Next()
		if tok.Kind == token.Invalid {
			p.errors++
			continue
		}
		p.look = append(p.look, tok)
	}
}

func (p *Parser) peek() token.Token {
	p.fill(1)
	return p.look[0]
}

func (p *Parser) peekAt(n int) token.Token {
	p.fill(n + 1)
	return p.look[n]
}

func (p *Parser) at(k token.Kind) bool {
	return p.peek().Kind == k
}

func (p *Parser) atOr(kinds ...token.Kind) bool {
	return slices.Contains(kinds, p.peek().Kind)
}

// advance: съедает следующий токен и обновляет lastSpan
func (p *Parser) advance() token.Token {
	tok := p.peek()
	if tok.Kind == token.EOF {
		return tok
	}
	p.look = p.look[1:]
	p.lastSpan = tok.Span
	p.consumed++
	return tok
}

func (p *Parser) eat(k token.Kind) bool {
	if p.at(k) {
		p.advance()
		return true
	}
	return false
}

// parseItems: основной цикл верхнего уровня, parseItem до EOF.
func (p *Parser) parseItems() {
	for !p.at(token.EOF) {
		mark := p.consumed
		if !p.parseItem() {
			p.resyncTop(p.consumed == mark)
		}
	}
}

// atItemStart: стартер следующего item, кроме fn (fn бывает и внутри impl/trait).
func (p *Parser) atItemStart() bool {
	k := p.peek().Kind
	return k != token.KwFn && k.IsTopLevelKeyword()
}

// resyncTop восстанавливается после ошибки на верхнем уровне:
// прокручиваем до стартового токена следующего item или EOF.
// Без прогресса сначала съедаем текущий токен, иначе зациклимся.
func (p *Parser) resyncTop(stuck bool) {
	if stuck {
		p.advance()
	}
	for !p.at(token.EOF) && !p.peek().Kind.IsTopLevelKeyword() {
		p.advance()
	}
}
