package driver

import (
	"fmt"

	"raven/internal/asyncrt"
	"raven/internal/diag"
	"raven/internal/lexer"
	"raven/internal/source"
	"raven/internal/token"
	"raven/internal/trace"
)

// lex tokenizes file, going through cache when one is configured. Lexer
// diagnostics are returned alongside so cached files replay them.
func lex(file *source.File, cache *TokenCache, tracer trace.Tracer) ([]token.Token, []diag.Diagnostic) {
	if toks, diags, ok, err := cache.Get(file); err == nil && ok {
		trace.Point(tracer, trace.ScopePass, "token cache hit", file.Path)
		return toks, diags
	} else if err != nil {
		trace.Point(tracer, trace.ScopePass, "token cache error", err.Error())
	}
	bag := diag.NewBag(0)
	toks, _ := lexer.Tokenize(file, lexer.Options{Reporter: diag.BagReporter{Bag: bag}})
	diags := append([]diag.Diagnostic(nil), bag.Items()...)
	if err := cache.Put(file, toks, diags); err != nil {
		trace.Point(tracer, trace.ScopePass, "token cache error", err.Error())
	}
	return toks, diags
}

func (c *compilation) tokenizeJob(st *fileState) asyncrt.Job {
	return asyncrt.JobFunc(func(jc *asyncrt.JobContext) error {
		began := c.req.OnPhase.start("tokenize", st.file.Path)
		span := trace.Begin(c.tracer, trace.ScopePass, "tokenize", 0).WithExtra("file", st.file.Path)
		toks, diags := lex(st.file, c.req.TokenCache, c.tracer)
		st.toks = toks
		for _, d := range diags {
			st.bag.Add(d)
		}
		span.End(fmt.Sprintf("%d tokens", len(toks)))
		c.req.OnPhase.end("tokenize", st.file.Path, began)

		jc.Spawn("parse "+st.file.Path, c.parseJob(st))
		return nil
	})
}

// TokenizeResult is the outcome of TokenizeFile.
type TokenizeResult struct {
	FileSet *source.FileSet
	File    *source.File
	Tokens  []token.Token
	Bag     *diag.Bag
}

// TokenizeFile lexes one file outside of a build, for `raven tokenize`.
func TokenizeFile(path string, content []byte, cache *TokenCache) (*TokenizeResult, error) {
	fs := source.NewFileSet("")
	id, err := fs.Add(path, content, 0)
	if err != nil {
		return nil, err
	}
	file := fs.Get(id)
	toks, diags := lex(file, cache, trace.Nop)
	bag := diag.NewBag(0)
	for _, d := range diags {
		bag.Add(d)
	}
	return &TokenizeResult{FileSet: fs, File: file, Tokens: toks, Bag: bag}, nil
}
