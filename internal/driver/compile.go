package driver

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"raven/internal/asyncrt"
	"raven/internal/backend/textir"
	"raven/internal/diag"
	"raven/internal/emit"
	"raven/internal/hir"
	"raven/internal/mono"
	"raven/internal/observ"
	"raven/internal/prelude"
	"raven/internal/sema"
	"raven/internal/source"
	"raven/internal/symbols"
	"raven/internal/token"
	"raven/internal/trace"
	"raven/internal/traits"
)

// Request describes one compilation.
type Request struct {
	// Root is the project root; namespaces are computed relative to it.
	Root  string
	Files []File
	// Entry defaults to "main::main". A bare name is qualified with the
	// main namespace, or with the namespace of a lone source file.
	Entry   string
	Workers int
	// Seed != 0 turns on fuzzed scheduling with that seed.
	Seed           uint64
	MaxDepth       int
	MaxDiagnostics int
	MaxSyntaxErrs  uint
	// Backend defaults to a textir.Backend.
	Backend emit.Backend
	// Emit runs the emit scheduler when the program is free of errors.
	Emit       bool
	Timings    bool
	TokenCache *TokenCache
	Tracer     trace.Tracer
	OnPhase    PhaseObserver
	Heartbeat  time.Duration
}

// Result is the outcome of Compile. Fields are valid even when Aborted.
type Result struct {
	BuildID   uuid.UUID
	FileSet   *source.FileSet
	Bag       *diag.Bag
	Registry  *symbols.Registry
	Instances *mono.Cache
	Entry     string
	Emitted   []string
	Backend   emit.Backend
	Timer     *observ.Timer
	Stats     asyncrt.Stats
	// Aborted is set when an error diagnostic blocks emission.
	Aborted bool
}

// Units lists the finalized program sorted by name.
func (r *Result) Units() []*hir.Unit {
	return programUnits{reg: r.Registry, cache: r.Instances}.all()
}

// IR returns the textual program when the backend is the reference one.
func (r *Result) IR() (string, bool) {
	b, ok := r.Backend.(*textir.Backend)
	if !ok {
		return "", false
	}
	return b.Program(), true
}

// fileState is owned by the file's tokenize job and then its parse job.
type fileState struct {
	file *source.File
	bag  *diag.Bag
	toks []token.Token
}

type compilation struct {
	req    Request
	id     uuid.UUID
	tracer trace.Tracer
	timer  *observ.Timer

	fs      *source.FileSet
	ioBag   *diag.Bag
	files   []*fileState
	reg     *symbols.Registry
	engine  *traits.Engine
	exec    *asyncrt.Executor
	cache   *mono.Cache
	checker *sema.Checker

	remaining atomic.Int32
}

func newCompilation(req Request) *compilation {
	tr := req.Tracer
	if tr == nil {
		tr = trace.Nop
	}
	c := &compilation{
		req:    req,
		id:     uuid.New(),
		tracer: tr,
		timer:  observ.NewTimer(),
		fs:     source.NewFileSet(req.Root),
		ioBag:  diag.NewBag(0),
		reg:    symbols.NewRegistry(),
	}
	c.engine = traits.NewEngine(c.reg)
	c.exec = asyncrt.NewExecutor(asyncrt.Config{
		Workers: req.Workers,
		Fuzz:    req.Seed != 0,
		Seed:    req.Seed,
		Tracer:  tr,
	})
	c.cache = mono.New(mono.Options{
		Registry: c.reg,
		Engine:   c.engine,
		Spawner:  c.exec,
		MaxDepth: req.MaxDepth,
		Tracer:   tr,
	})
	c.checker = sema.New(sema.Config{Registry: c.reg, Engine: c.engine, Instances: c.cache, Tracer: tr})
	return c
}

// Compile runs the whole pipeline: load, tokenize and parse every file,
// finalize all units, report, and emit the entry closure.
func Compile(ctx context.Context, req Request) (*Result, error) {
	c := newCompilation(req)
	span := trace.Begin(c.tracer, trace.ScopeDriver, "compile", 0).WithExtra("build_id", c.id.String())
	ctx = trace.WithTracer(ctx, c.tracer)

	var hb *trace.Heartbeat
	if req.Heartbeat > 0 {
		hb = trace.StartHeartbeat(c.tracer, req.Heartbeat, c.exec.Status)
	}
	defer hb.Stop()

	idx := c.timer.Begin("load")
	began := req.OnPhase.start("load", "")
	c.load()
	req.OnPhase.end("load", "", began)
	c.timer.End(idx, fmt.Sprintf("%d files", len(c.files)))

	idx = c.timer.Begin("compile")
	began = req.OnPhase.start("check", "")
	c.spawnFiles()
	if err := c.drain(ctx); err != nil {
		span.End("cancelled")
		return nil, err
	}
	req.OnPhase.end("check", "", began)
	c.timer.End(idx, c.exec.Status())

	res := &Result{
		BuildID:   c.id,
		FileSet:   c.fs,
		Registry:  c.reg,
		Instances: c.cache,
		Backend:   req.Backend,
		Timer:     c.timer,
	}
	if res.Backend == nil {
		res.Backend = textir.New()
	}

	idx = c.timer.Begin("diagnose")
	res.Entry = c.entryName()
	res.Bag = c.report(res.Entry)
	res.Aborted = res.Bag.HasErrors()
	c.timer.End(idx, fmt.Sprintf("%d diagnostics", res.Bag.Len()))

	if req.Emit && !res.Aborted {
		idx = c.timer.Begin("emit")
		began = req.OnPhase.start("emit", "")
		emitted, err := c.emit(ctx, res)
		req.OnPhase.end("emit", "", began)
		c.timer.End(idx, fmt.Sprintf("%d units", len(emitted)))
		res.Emitted = emitted
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				span.End("cancelled")
				return nil, ctxErr
			}
			for _, e := range diag.Flatten(err) {
				res.Bag.Add(e.Diagnostic(diag.SevError))
			}
			res.Aborted = true
		}
	}

	res.Stats = c.exec.Stats()
	if req.Timings {
		rep := c.timer.Report()
		appendTimingDiagnostic(res.Bag, timingPayload{Kind: "build", BuildID: c.id.String(), TotalMS: rep.TotalMS, Phases: rep.Phases})
	}
	if res.Aborted {
		span.End("aborted")
	} else {
		span.End("ok")
	}
	return res, nil
}

// load adds the prelude and the request files to the file set. A file that
// cannot be added is reported and skipped.
func (c *compilation) load() {
	if _, err := prelude.Add(c.fs); err != nil {
		c.ioBag.Add(diag.NewError(diag.IOLoadFileError, source.Span{}, fmt.Sprintf("prelude: %v", err)))
	}
	for _, f := range c.req.Files {
		if _, err := c.fs.Add(f.Path, f.Content, 0); err != nil {
			c.ioBag.Add(diag.NewError(diag.IOLoadFileError, source.Span{}, err.Error()))
		}
	}
	files := c.fs.Files()
	for i := range files {
		c.files = append(c.files, &fileState{file: c.fs.Get(files[i].ID), bag: diag.NewBag(0)})
	}
}

func (c *compilation) spawnFiles() {
	c.remaining.Store(int32(len(c.files))) //nolint:gosec // file count fits in FileID
	if len(c.files) == 0 {
		c.reg.Seal()
		return
	}
	for _, st := range c.files {
		c.exec.Spawn("tokenize "+st.file.Path, c.tokenizeJob(st))
	}
}

// parsed is called once per file by its parse job.
func (c *compilation) parsed() {
	if c.remaining.Add(-1) == 0 {
		trace.Point(c.tracer, trace.ScopePass, "seal", fmt.Sprintf("%d units", len(c.reg.Names())))
		c.reg.Seal()
	}
}

const entryNamespace = "main"

// entryName picks the requested or default entry unit. A bare name is
// qualified with "main" when main.rv exists, else with the namespace of
// the only source file, else with "main".
func (c *compilation) entryName() string {
	entry := c.req.Entry
	if entry == "" {
		entry = "main"
	}
	if strings.Contains(entry, source.Separator) {
		return entry
	}
	var only []string
	for _, st := range c.files {
		if st.file.Flags&source.FileVirtual != 0 {
			continue
		}
		if st.file.Namespace == entryNamespace {
			return source.Qualify(entryNamespace, entry)
		}
		only = append(only, st.file.Namespace)
	}
	if len(only) == 1 {
		return source.Qualify(only[0], entry)
	}
	return source.Qualify(entryNamespace, entry)
}

func (c *compilation) emit(ctx context.Context, res *Result) ([]string, error) {
	sched := emit.NewScheduler(emit.Config{
		Backend: res.Backend,
		Units:   programUnits{reg: c.reg, cache: c.cache},
		Tracer:  c.tracer,
		OnEmit: func(name string, _, _ int) {
			if c.req.OnPhase != nil {
				c.req.OnPhase(PhaseEvent{Name: "emit", Status: PhaseEnd, Unit: name})
			}
		},
	})
	out, err := sched.Run(ctx, res.Entry)
	return out.Emitted, err
}
