package buildpipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"raven/internal/diag"
	"raven/internal/driver"
	"raven/internal/emit"
	"raven/internal/observ"
	"raven/internal/trace"
)

// ErrDiagnostics is returned when the compilation reported errors.
var ErrDiagnostics = errors.New("diagnostics reported errors")

// CompileRequest configures the shared compilation pipeline.
type CompileRequest struct {
	// TargetPath is a project directory or a single .rv file.
	TargetPath string
	// BaseDir is the namespace root; defaults to TargetPath (or its
	// directory for a file).
	BaseDir        string
	Entry          string
	Workers        int
	Seed           uint64
	MaxDepth       int
	MaxDiagnostics int
	CacheDir       string
	NoCache        bool
	Emit           bool
	Timings        bool
	Backend        emit.Backend
	Tracer         trace.Tracer
	Heartbeat      time.Duration
	Progress       ProgressSink
}

// CompileResult captures compilation artefacts and stage timings.
type CompileResult struct {
	Driver  *driver.Result
	Files   []string
	Timings Timings
}

// Compile loads the target and runs the driver.
func Compile(ctx context.Context, req *CompileRequest) (CompileResult, error) {
	var result CompileResult
	if ctx == nil {
		ctx = context.Background()
	}
	if req == nil {
		return result, fmt.Errorf("missing compile request")
	}
	if req.TargetPath == "" {
		return result, fmt.Errorf("missing target path")
	}

	loadStart := time.Now()
	files, baseDir, err := loadTarget(ctx, req)
	if err != nil {
		emitStage(req.Progress, nil, StageLoad, StatusError, err, 0)
		return result, err
	}
	paths := make([]string, len(files))
	for i, f := range files {
		paths[i] = f.Path
	}
	result.Files = normalizeProgressFiles(paths, baseDir)
	result.Timings.Set(StageLoad, time.Since(loadStart))
	emitQueued(req.Progress, result.Files)
	emitStage(req.Progress, result.Files, StageLoad, StatusDone, nil, result.Timings.Duration(StageLoad))

	var cache *driver.TokenCache
	if !req.NoCache {
		if cache, err = driver.OpenTokenCache(req.CacheDir); err != nil {
			trace.Point(tracerOf(req), trace.ScopeDriver, "token cache disabled", err.Error())
			cache = nil
		}
	}

	phase := newPhaseObserver(req.Progress, result.Files, baseDir)
	res, err := driver.Compile(ctx, driver.Request{
		Root:           baseDir,
		Files:          files,
		Entry:          req.Entry,
		Workers:        req.Workers,
		Seed:           req.Seed,
		MaxDepth:       req.MaxDepth,
		MaxDiagnostics: req.MaxDiagnostics,
		Backend:        req.Backend,
		Emit:           req.Emit,
		Timings:        req.Timings,
		TokenCache:     cache,
		Tracer:         req.Tracer,
		OnPhase:        phase.OnPhase,
		Heartbeat:      req.Heartbeat,
	})
	if err != nil {
		emitStage(req.Progress, result.Files, StageCheck, StatusError, err, 0)
		return result, err
	}
	result.Driver = res
	recordDriverTimings(&result.Timings, res.Timer.Report())
	phase.finish(res)

	if res.Aborted {
		return result, ErrDiagnostics
	}
	return result, nil
}

func tracerOf(req *CompileRequest) trace.Tracer {
	if req.Tracer == nil {
		return trace.Nop
	}
	return req.Tracer
}

// loadTarget reads a directory tree or a single file and picks the
// namespace root.
func loadTarget(ctx context.Context, req *CompileRequest) ([]driver.File, string, error) {
	info, err := os.Stat(req.TargetPath)
	if err != nil {
		return nil, "", err
	}
	baseDir := req.BaseDir
	var files []driver.File
	if info.IsDir() {
		if baseDir == "" {
			baseDir = req.TargetPath
		}
		files, err = driver.LoadDir(ctx, req.TargetPath, req.Workers)
	} else {
		if baseDir == "" {
			baseDir = filepath.Dir(req.TargetPath)
		}
		files, err = driver.LoadFiles(ctx, []string{req.TargetPath}, 1)
	}
	if err != nil {
		return nil, "", err
	}
	if len(files) == 0 {
		return nil, "", fmt.Errorf("no %s files in %s", driver.Ext, req.TargetPath)
	}
	return files, baseDir, nil
}

// phaseObserver turns driver phase events into progress events. Driver
// events arrive from worker goroutines.
type phaseObserver struct {
	sink  ProgressSink
	files []string
	base  string
	known map[string]bool
}

func newPhaseObserver(sink ProgressSink, files []string, base string) *phaseObserver {
	known := make(map[string]bool, len(files))
	for _, f := range files {
		known[f] = true
	}
	return &phaseObserver{sink: sink, files: files, base: absBase(base), known: known}
}

// OnPhase updates the progress UI based on compiler phase events.
func (p *phaseObserver) OnPhase(ev driver.PhaseEvent) {
	if p == nil || p.sink == nil {
		return
	}
	status := StatusWorking
	if ev.Status == driver.PhaseEnd {
		status = StatusDone
	}
	switch ev.Name {
	case "tokenize", "parse":
		file := displayPath(ev.File, p.base)
		if !p.known[file] {
			return // prelude
		}
		p.sink.OnEvent(Event{File: file, Stage: Stage(ev.Name), Status: status, Elapsed: ev.Elapsed})
	case "check":
		if status == StatusWorking {
			emitStage(p.sink, p.files, StageCheck, StatusWorking, nil, 0)
		}
	case "emit":
		if ev.Unit != "" {
			p.sink.OnEvent(Event{Unit: ev.Unit, Stage: StageEmit, Status: StatusWorking})
			return
		}
		p.sink.OnEvent(Event{Stage: StageEmit, Status: status, Elapsed: ev.Elapsed})
	}
}

// finish reports per-file check results: files with error diagnostics
// end in StatusError.
func (p *phaseObserver) finish(res *driver.Result) {
	if p == nil || p.sink == nil || res == nil {
		return
	}
	failed := map[string]bool{}
	for _, d := range res.Bag.Items() {
		if d.Severity < diag.SevError || d.Primary.Empty() {
			continue
		}
		if int(d.Primary.File) < res.FileSet.Len() {
			failed[displayPath(res.FileSet.Get(d.Primary.File).Path, p.base)] = true
		}
	}
	for _, f := range p.files {
		if failed[f] {
			p.sink.OnEvent(Event{File: f, Stage: StageCheck, Status: StatusError, Err: ErrDiagnostics})
			continue
		}
		p.sink.OnEvent(Event{File: f, Stage: StageCheck, Status: StatusDone})
	}
	status := StatusDone
	var err error
	if res.Aborted {
		status, err = StatusError, ErrDiagnostics
	}
	p.sink.OnEvent(Event{Stage: StageCheck, Status: status, Err: err})
}

func recordDriverTimings(t *Timings, report observ.Report) {
	for _, phase := range report.Phases {
		d := durationFromMillis(phase.DurationMS)
		switch phase.Name {
		case "load":
			t.Add(StageLoad, d)
		case "compile", "diagnose":
			t.Add(StageCheck, d)
		case "emit":
			t.Add(StageEmit, d)
		}
	}
}

func durationFromMillis(ms float64) time.Duration {
	return time.Duration(ms * float64(time.Millisecond))
}

func emitQueued(sink ProgressSink, files []string) {
	if sink == nil {
		return
	}
	for _, file := range files {
		sink.OnEvent(Event{File: file, Stage: StageLoad, Status: StatusQueued})
	}
}

func emitStage(sink ProgressSink, files []string, stage Stage, status Status, err error, elapsed time.Duration) {
	if sink == nil {
		return
	}
	sink.OnEvent(Event{Stage: stage, Status: status, Err: err, Elapsed: elapsed})
	for _, file := range files {
		sink.OnEvent(Event{File: file, Stage: stage, Status: status, Err: err, Elapsed: elapsed})
	}
}
