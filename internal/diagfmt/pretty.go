package diagfmt

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"raven/internal/diag"
	"raven/internal/source"
)

type palette struct {
	err, warn, info, note, code, loc, gutter, caret *color.Color
}

func newPalette(enabled bool) palette {
	mk := func(attrs ...color.Attribute) *color.Color {
		c := color.New(attrs...)
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
		return c
	}
	return palette{
		err:    mk(color.FgRed, color.Bold),
		warn:   mk(color.FgYellow, color.Bold),
		info:   mk(color.FgCyan, color.Bold),
		note:   mk(color.FgBlue, color.Bold),
		code:   mk(color.Bold),
		loc:    mk(color.Faint),
		gutter: mk(color.FgBlue),
		caret:  mk(color.FgGreen, color.Bold),
	}
}

func (p palette) severity(sev diag.Severity) *color.Color {
	switch sev {
	case diag.SevError:
		return p.err
	case diag.SevWarning:
		return p.warn
	default:
		return p.info
	}
}

// Pretty форматирует диагностики в человекочитаемый вид.
// Идёт по bag.Items() (ожидается bag.Sort() заранее).
// Для каждого diag печатает:
// <path>:<line>:<col>: <SEV> <CODE>: <Message>
// затем контекст строки с подчёркиванием ^~~~ по Span, затем Notes.
func Pretty(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts PrettyOpts) {
	pal := newPalette(opts.Color)
	for i, d := range bag.Items() {
		if i > 0 {
			fmt.Fprintln(w)
		}
		prettyDiagnostic(w, d, fs, opts, pal)
	}
}

func prettyDiagnostic(w io.Writer, d diag.Diagnostic, fs *source.FileSet, opts PrettyOpts, pal palette) {
	header := fmt.Sprintf("%s: %s %s: %s",
		location(fs, d.Primary, opts.PathMode),
		pal.severity(d.Severity).Sprint(d.Severity.String()),
		pal.code.Sprint(d.Code.ID()),
		d.Message,
	)
	if d.Unit != "" {
		header += pal.loc.Sprintf(" [%s]", d.Unit)
	}
	fmt.Fprintln(w, clip(header, opts.Width))
	if d.Code != diag.ObsTimings {
		snippet(w, fs, d.Primary, opts, pal)
	}

	showNotes := opts.ShowNotes || d.Code == diag.ObsTimings
	if !showNotes {
		return
	}
	for _, n := range d.Notes {
		if n.Span == (source.Span{}) || lookupFile(fs, n.Span.File) == nil {
			fmt.Fprintf(w, "  %s: %s\n", pal.note.Sprint("note"), n.Msg)
			continue
		}
		fmt.Fprintf(w, "  %s: %s: %s\n", pal.note.Sprint("note"), location(fs, n.Span, opts.PathMode), n.Msg)
	}
}

func location(fs *source.FileSet, span source.Span, mode PathMode) string {
	f := lookupFile(fs, span.File)
	if f == nil {
		return unknownPath
	}
	start, _ := fs.Resolve(span)
	return fmt.Sprintf("%s:%d:%d", formatPath(f, mode, fs.BaseDir()), start.Line, start.Col)
}

// snippet печатает строку с ошибкой и каретки под Span. Колонки считаются
// по ширине на экране, поэтому широкие символы двигают каретку корректно.
func snippet(w io.Writer, fs *source.FileSet, span source.Span, opts PrettyOpts, pal palette) {
	f := lookupFile(fs, span.File)
	if f == nil || len(f.Content) == 0 {
		return
	}
	start, end := fs.Resolve(span)
	first := start.Line
	if ctx := uint32(opts.Context); first > ctx {
		first -= ctx
	} else {
		first = 1
	}
	last := start.Line + uint32(opts.Context)
	gutterWidth := len(fmt.Sprint(last))

	for ln := first; ln <= last; ln++ {
		text := f.GetLine(ln)
		if ln > start.Line && text == "" {
			break
		}
		text = strings.ReplaceAll(text, "\t", "    ")
		fmt.Fprintf(w, "%s %s\n", pal.gutter.Sprintf("%*d |", gutterWidth, ln), clip(text, opts.Width))
		if ln != start.Line {
			continue
		}
		line := f.GetLine(ln)
		prefix := caretPrefix(line, start.Col)
		length := 1
		if end.Line == start.Line && end.Col > start.Col {
			length = runewidth.StringWidth(expandTabs(substr(line, start.Col, end.Col)))
			if length == 0 {
				length = 1
			}
		}
		marks := "^" + strings.Repeat("~", length-1)
		fmt.Fprintf(w, "%s %s%s\n", pal.gutter.Sprintf("%*s |", gutterWidth, ""), strings.Repeat(" ", prefix), pal.caret.Sprint(marks))
	}
}

// caretPrefix is the display width of line before 1-based byte column col.
func caretPrefix(line string, col uint32) int {
	return runewidth.StringWidth(expandTabs(substr(line, 1, col)))
}

func substr(line string, from, to uint32) string {
	lo, hi := int(from)-1, int(to)-1
	lo = max(lo, 0)
	hi = min(hi, len(line))
	if lo >= hi {
		return ""
	}
	return line[lo:hi]
}

func expandTabs(s string) string {
	return strings.ReplaceAll(s, "\t", "    ")
}

func clip(s string, width int) string {
	if width <= 0 {
		return s
	}
	return runewidth.Truncate(s, width, "…")
}
