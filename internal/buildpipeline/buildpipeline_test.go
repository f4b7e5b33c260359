package buildpipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"testing"
)

type eventLog struct {
	mu     sync.Mutex
	events []Event
}

func (l *eventLog) OnEvent(ev Event) {
	l.mu.Lock()
	l.events = append(l.events, ev)
	l.mu.Unlock()
}

func (l *eventLog) has(file string, stage Stage, status Status) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return slices.ContainsFunc(l.events, func(ev Event) bool {
		return ev.File == file && ev.Stage == stage && ev.Status == status
	})
}

func writeProject(t *testing.T, files map[string]string) string {
	t.Helper()
	dir := t.TempDir()
	for name, src := range files {
		path := filepath.Join(dir, name)
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			t.Fatal(err)
		}
		if err := os.WriteFile(path, []byte(src), 0o600); err != nil {
			t.Fatal(err)
		}
	}
	return dir
}

func TestBuildWritesProgram(t *testing.T) {
	dir := writeProject(t, map[string]string{
		"main.rv":      "import util::num; fn main() -> i64 { return num::two(); }",
		"util/num.rv":  "pub fn two() -> i64 { return 2; }",
		"util/dead.rv": "pub fn never() -> i64 { return 0; }",
	})
	out := filepath.Join(dir, "target", "out.ir")
	log := &eventLog{}
	res, err := Build(context.Background(), &BuildRequest{
		CompileRequest: CompileRequest{TargetPath: dir, NoCache: true, Progress: log},
		OutputPath:     out,
	})
	if err != nil {
		t.Fatalf("build: %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	text := string(data)
	if !strings.Contains(text, "define @main::main() -> i64 {") || !strings.Contains(text, "define @util::num::two() -> i64 {") {
		t.Fatalf("program:\n%s", text)
	}
	if strings.Contains(text, "never") {
		t.Fatalf("unreachable unit emitted:\n%s", text)
	}
	if !slices.Equal(res.Files, []string{"main.rv", "util/dead.rv", "util/num.rv"}) {
		t.Fatalf("files = %v", res.Files)
	}
	for _, f := range res.Files {
		for _, st := range []Stage{StageTokenize, StageParse, StageCheck} {
			if !log.has(f, st, StatusDone) {
				t.Fatalf("%s: no %s done event", f, st)
			}
		}
	}
	if !log.has("", StageWrite, StatusDone) || res.Bytes != int64(len(data)) {
		t.Fatalf("write not reported: bytes=%d", res.Bytes)
	}
	if !res.Timings.Has(StageCheck) || !res.Timings.Has(StageWrite) {
		t.Fatalf("timings missing")
	}
}

func TestCheckReportsFailingFile(t *testing.T) {
	dir := writeProject(t, map[string]string{
		"main.rv": "import lib; fn main() -> i64 { return lib::f(); }",
		"lib.rv":  "pub fn f() -> i64 { return true; }",
	})
	log := &eventLog{}
	res, err := Check(context.Background(), &CompileRequest{TargetPath: dir, NoCache: true, Progress: log})
	if !errors.Is(err, ErrDiagnostics) {
		t.Fatalf("err = %v", err)
	}
	if res.Driver == nil || len(res.Driver.Emitted) != 0 {
		t.Fatalf("check must not emit")
	}
	if !log.has("lib.rv", StageCheck, StatusError) || !log.has("main.rv", StageCheck, StatusDone) {
		t.Fatalf("per-file check status missing")
	}
}

func TestSingleFileTarget(t *testing.T) {
	dir := writeProject(t, map[string]string{"app/tool.rv": "fn main() {}"})
	res, err := Check(context.Background(), &CompileRequest{TargetPath: filepath.Join(dir, "app", "tool.rv"), NoCache: true})
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if res.Driver.Entry != "tool::main" {
		t.Fatalf("entry = %s", res.Driver.Entry)
	}
}

func TestEmptyDirectory(t *testing.T) {
	if _, err := Check(context.Background(), &CompileRequest{TargetPath: t.TempDir(), NoCache: true}); err == nil {
		t.Fatalf("expected error for empty project")
	}
}

func TestNormalizeProgressFiles(t *testing.T) {
	base := t.TempDir()
	got := normalizeProgressFiles([]string{
		filepath.Join(base, "b.rv"),
		filepath.Join(base, "a", "c.rv"),
		filepath.Join(base, "b.rv"),
		"",
	}, base)
	if !slices.Equal(got, []string{"a/c.rv", "b.rv"}) {
		t.Fatalf("got %v", got)
	}
}

func TestTargetFilesMatchCompile(t *testing.T) {
	dir := writeProject(t, map[string]string{
		"main.rv":         "fn main() {}",
		"util/num.rv":     "pub fn two() -> i64 { return 2; }",
		".hidden/skip.rv": "fn skip() {}",
		"notes.txt":       "not source",
	})
	req := &CompileRequest{TargetPath: dir, NoCache: true}
	want, err := TargetFiles(req)
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(want, []string{"main.rv", "util/num.rv"}) {
		t.Fatalf("target files %v", want)
	}
	res, err := Check(context.Background(), req)
	if err != nil {
		t.Fatal(err)
	}
	if !slices.Equal(res.Files, want) {
		t.Fatalf("compile files %v, listed %v", res.Files, want)
	}
}
