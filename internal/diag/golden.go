package diag

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"raven/internal/source"
)

type goldenDiagnostic struct {
	Severity string
	Code     string
	Path     string
	Line     uint32
	Column   uint32
	Message  string
	Notes    []goldenDiagnostic
}

// FormatGoldenDiagnostics renders diagnostics into a stable, single-line-per-entry
// representation suitable for golden comparisons in tests and for --format short.
// Paths are reduced to their base name so output does not depend on temp dirs.
func FormatGoldenDiagnostics(diags []Diagnostic, fs *source.FileSet, includeNotes bool) string {
	if fs == nil || len(diags) == 0 {
		return ""
	}

	rendered := make([]goldenDiagnostic, 0, len(diags))
	for _, d := range diags {
		g := render(d.Severity.String(), d.Code.ID(), d.Primary, d.Message, fs)
		if includeNotes {
			for _, n := range d.Notes {
				g.Notes = append(g.Notes, render("NOTE", d.Code.ID(), n.Span, n.Msg, fs))
			}
		}
		rendered = append(rendered, g)
	}

	sort.SliceStable(rendered, func(i, j int) bool {
		di, dj := rendered[i], rendered[j]
		if di.Path != dj.Path {
			return di.Path < dj.Path
		}
		if di.Line != dj.Line {
			return di.Line < dj.Line
		}
		if di.Column != dj.Column {
			return di.Column < dj.Column
		}
		if di.Severity != dj.Severity {
			return di.Severity < dj.Severity
		}
		if di.Code != dj.Code {
			return di.Code < dj.Code
		}
		return di.Message < dj.Message
	})

	lines := make([]string, 0, len(rendered))
	for _, d := range rendered {
		lines = append(lines, d.line())
		for _, n := range d.Notes {
			lines = append(lines, n.line())
		}
	}
	return strings.Join(lines, "\n")
}

func (d goldenDiagnostic) line() string {
	return fmt.Sprintf("%s %s %s:%d:%d %s", d.Severity, d.Code, d.Path, d.Line, d.Column, d.Message)
}

func render(sev, code string, sp source.Span, msg string, fs *source.FileSet) goldenDiagnostic {
	if int(sp.File) >= fs.Len() {
		return goldenDiagnostic{Severity: sev, Code: code, Path: "<unknown>", Message: msg}
	}
	start, _ := fs.Resolve(sp)
	return goldenDiagnostic{
		Severity: sev,
		Code:     code,
		Path:     filepath.Base(fs.Get(sp.File).Path),
		Line:     start.Line,
		Column:   start.Col,
		Message:  msg,
	}
}
