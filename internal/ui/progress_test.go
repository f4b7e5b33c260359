package ui

import (
	"strings"
	"testing"

	"raven/internal/buildpipeline"
)

func TestApplyEventTracksFiles(t *testing.T) {
	m := newProgressModel("raven build", []string{"main.rv", "util/num.rv"}, nil)
	events := []buildpipeline.Event{
		{File: "main.rv", Stage: buildpipeline.StageTokenize, Status: buildpipeline.StatusWorking},
		{File: "main.rv", Stage: buildpipeline.StageTokenize, Status: buildpipeline.StatusDone},
		{File: "main.rv", Stage: buildpipeline.StageParse, Status: buildpipeline.StatusWorking},
		{File: "util/num.rv", Stage: buildpipeline.StageCheck, Status: buildpipeline.StatusError},
		{File: "util/num.rv", Stage: buildpipeline.StageCheck, Status: buildpipeline.StatusDone},
		{File: "other.rv", Stage: buildpipeline.StageParse, Status: buildpipeline.StatusWorking},
		{Stage: buildpipeline.StageEmit, Status: buildpipeline.StatusWorking},
		{Unit: "main::main", Stage: buildpipeline.StageEmit, Status: buildpipeline.StatusWorking},
	}
	for _, ev := range events {
		m.applyEvent(ev)
	}
	if m.items[0].status != "parsing" || m.items[1].status != "error" || !m.items[1].final {
		t.Fatalf("items = %+v", m.items)
	}
	if m.stageLabel != "emitting" || m.emitted != 1 || !m.failed {
		t.Fatalf("label=%q emitted=%d failed=%v", m.stageLabel, m.emitted, m.failed)
	}
	if p := m.percent(); p <= 0.5 || p >= 1 {
		t.Fatalf("percent = %v", p)
	}
	m.done = true
	view := m.View()
	for _, want := range []string{"failed: raven build (emitting)", "main.rv", "emitted 1 units, last main::main"} {
		if !strings.Contains(view, want) {
			t.Fatalf("view missing %q:\n%s", want, view)
		}
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		in    string
		width int
		want  string
	}{
		{"short", 10, "short"},
		{"averyverylongname", 8, "av..."},
		{"abcdef", 3, "abc"},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.width); got != tt.want {
			t.Fatalf("truncate(%q, %d) = %q, want %q", tt.in, tt.width, got, tt.want)
		}
	}
}
