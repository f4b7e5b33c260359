package driver

import (
	"fmt"

	"raven/internal/ast"
	"raven/internal/asyncrt"
	"raven/internal/diag"
	"raven/internal/parser"
	"raven/internal/source"
	"raven/internal/token"
	"raven/internal/trace"
)

// parseJob parses a tokenized file and registers its units. Names are
// reserved as soon as each header is parsed, so a duplicate is reported
// once at the later definition and never registered.
func (c *compilation) parseJob(st *fileState) asyncrt.Job {
	return asyncrt.JobFunc(func(jc *asyncrt.JobContext) error {
		defer c.parsed()
		began := c.req.OnPhase.start("parse", st.file.Path)
		span := trace.Begin(c.tracer, trace.ScopePass, "parse", 0).WithExtra("file", st.file.Path)

		rep := diag.NewDedupReporter(diag.BagReporter{Bag: st.bag})
		announced := map[string]int{}
		reserved := map[string]int{}
		spans := map[string]source.Span{}
		res := parser.ParseFile(st.file, token.NewSliceSource(st.toks), parser.Options{
			MaxErrors: c.req.MaxSyntaxErrs,
			Reporter:  rep,
			OnHeader: func(name string, sp source.Span) {
				announced[name]++
				if err := c.reg.Reserve(name, sp); err != nil {
					for _, e := range diag.Flatten(err) {
						st.bag.Add(e.Diagnostic(diag.SevError))
					}
					return
				}
				reserved[name]++
				spans[name] = sp
			},
		})
		st.toks = nil

		n := 0
		for _, u := range res.File.Units {
			name := u.FullName()
			if announced[name] > 0 {
				if reserved[name] == 0 {
					continue
				}
				reserved[name]--
			}
			if err := c.register(jc, name, u); err != nil {
				for _, e := range diag.Flatten(err) {
					st.bag.Add(e.Diagnostic(diag.SevError))
				}
				continue
			}
			n++
		}
		// заголовок разобран, а сам item потерян из-за синтаксических ошибок
		for name, left := range reserved {
			if left > 0 {
				_ = c.reg.Fail(name, &diag.Error{
					Code:    diag.SemaPoisonedUnit,
					Unit:    name,
					Span:    spans[name],
					Message: fmt.Sprintf("`%s` contains syntax errors", name),
				})
			}
		}
		span.End(fmt.Sprintf("%d units, %d errors, %d suppressed", n, res.Errors, rep.Suppressed()))
		c.req.OnPhase.end("parse", st.file.Path, began)
		return nil
	})
}

func (c *compilation) register(jc *asyncrt.JobContext, name string, u *ast.Unit) error {
	if err := c.reg.Register(name, u); err != nil {
		return err
	}
	jc.Spawn("check "+name, c.checker.Job(name))
	return nil
}

// ParseResult is the outcome of ParseFile.
type ParseResult struct {
	FileSet *source.FileSet
	File    *ast.File
	Bag     *diag.Bag
}

// ParseFile parses one file outside of a build, for `raven parse`.
func ParseFile(root, path string, content []byte, maxErrors uint) (*ParseResult, error) {
	fs := source.NewFileSet(root)
	id, err := fs.Add(path, content, 0)
	if err != nil {
		return nil, err
	}
	file := fs.Get(id)
	toks, diags := lex(file, nil, trace.Nop)
	bag := diag.NewBag(0)
	for _, d := range diags {
		bag.Add(d)
	}
	res := parser.ParseFile(file, token.NewSliceSource(toks), parser.Options{
		MaxErrors: maxErrors,
		Reporter:  diag.NewDedupReporter(diag.BagReporter{Bag: bag}),
	})
	return &ParseResult{FileSet: fs, File: res.File, Bag: bag}, nil
}
