package diagfmt

import (
	"bytes"
	"strings"
	"testing"

	"raven/internal/diag"
	"raven/internal/source"
)

func addFile(t *testing.T, fs *source.FileSet, path, content string) source.FileID {
	t.Helper()
	id, err := fs.Add(path, []byte(content), source.FileVirtual)
	if err != nil {
		t.Fatalf("add %s: %v", path, err)
	}
	return id
}

// TestPathModes проверяет различные режимы форматирования путей
func TestPathModes(t *testing.T) {
	fs := source.NewFileSet("/home/user/project")
	fileID := addFile(t, fs, "/home/user/project/src/test.rv", "let x = \"unterminated string\n")

	bag := diag.NewBag(10)
	bag.Add(diag.New(
		diag.SevError,
		diag.LexUnterminatedString,
		source.Span{File: fileID, Start: 8, End: 28},
		"Unterminated string literal",
	))

	tests := []struct {
		name     string
		mode     PathMode
		contains string
	}{
		{name: "absolute", mode: PathModeAbsolute, contains: "/home/user/project/src/test.rv:1:9"},
		{name: "relative", mode: PathModeRelative, contains: "src/test.rv:1:9"},
		{name: "basename", mode: PathModeBasename, contains: "test.rv:1:9"},
		{name: "auto", mode: PathModeAuto, contains: "src/test.rv:1:9"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			Pretty(&buf, bag, fs, PrettyOpts{Context: 1, PathMode: tt.mode})
			output := buf.String()

			if !strings.Contains(output, tt.contains) {
				t.Errorf("expected output to contain %q, got:\n%s", tt.contains, output)
			}
			for _, want := range []string{"ERROR", "LEX1002", "Unterminated string literal"} {
				if !strings.Contains(output, want) {
					t.Errorf("missing %q in:\n%s", want, output)
				}
			}
		})
	}
}

func TestPrettyCaretUnderWideRunes(t *testing.T) {
	fs := source.NewFileSet("")
	fileID := addFile(t, fs, "test.rv", "let s = \"日本\"; bad\n")

	bag := diag.NewBag(1)
	bag.Add(diag.NewError(diag.SynUnexpectedToken, source.Span{File: fileID, Start: 18, End: 21}, "unexpected token"))

	var buf bytes.Buffer
	Pretty(&buf, bag, fs, PrettyOpts{PathMode: PathModeBasename})
	output := buf.String()

	if !strings.HasPrefix(output, "test.rv:1:19: ERROR SYN2001: unexpected token\n") {
		t.Fatalf("header mismatch:\n%s", output)
	}
	if !strings.Contains(output, "1 | let s = \"日本\"; bad\n") {
		t.Fatalf("source line missing:\n%s", output)
	}
	// "日本" занимает 4 колонки на экране
	caret := "  | " + strings.Repeat(" ", 16) + "^~~\n"
	if !strings.Contains(output, caret) {
		t.Fatalf("caret misaligned, want %q in:\n%s", caret, output)
	}
}

func TestPrettyNotesAndUnit(t *testing.T) {
	fs := source.NewFileSet("")
	fileID := addFile(t, fs, "test.rv", "fn f() {}\nfn f() {}\n")

	d := diag.NewError(diag.SemaDuplicateDefinition, source.Span{File: fileID, Start: 13, End: 14}, "duplicate definition of `main::f`")
	d.Unit = "main::f"
	d = d.WithNote(source.Span{File: fileID, Start: 3, End: 4}, "previous definition here")
	d = d.WithNote(source.Span{}, "units are named by namespace")
	bag := diag.NewBag(1)
	bag.Add(d)

	var buf bytes.Buffer
	Pretty(&buf, bag, fs, PrettyOpts{PathMode: PathModeBasename, ShowNotes: true})
	output := buf.String()

	for _, want := range []string{
		"test.rv:2:4: ERROR SEM3001",
		"[main::f]",
		"note: test.rv:1:4: previous definition here",
		"note: units are named by namespace",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("missing %q in:\n%s", want, output)
		}
	}

	buf.Reset()
	Pretty(&buf, bag, fs, PrettyOpts{PathMode: PathModeBasename})
	if strings.Contains(buf.String(), "note:") {
		t.Fatalf("notes printed without ShowNotes:\n%s", buf.String())
	}
}

func TestPrettyColor(t *testing.T) {
	fs := source.NewFileSet("")
	fileID := addFile(t, fs, "test.rv", "x\n")
	bag := diag.NewBag(1)
	bag.Add(diag.New(diag.SevWarning, diag.LexUnknownChar, source.Span{File: fileID, Start: 0, End: 1}, "odd"))

	var plain, colored bytes.Buffer
	Pretty(&plain, bag, fs, PrettyOpts{})
	Pretty(&colored, bag, fs, PrettyOpts{Color: true})
	if strings.Contains(plain.String(), "\x1b[") {
		t.Fatalf("escape codes without color:\n%q", plain.String())
	}
	if !strings.Contains(colored.String(), "\x1b[") {
		t.Fatalf("no escape codes with color:\n%q", colored.String())
	}
}

func TestPrettyUnknownFile(t *testing.T) {
	fs := source.NewFileSet("")
	bag := diag.NewBag(1)
	bag.Add(diag.NewError(diag.IOLoadFileError, source.Span{File: 9}, "load x.rv: permission denied"))

	var buf bytes.Buffer
	Pretty(&buf, bag, fs, PrettyOpts{})
	if got := buf.String(); got != "<unknown>: ERROR IO4001: load x.rv: permission denied\n" {
		t.Fatalf("got %q", got)
	}
}

func TestParseFormat(t *testing.T) {
	cases := map[string]Format{"": FormatPretty, "pretty": FormatPretty, "JSON": FormatJSON, "yml": FormatYAML}
	for in, want := range cases {
		got, err := ParseFormat(in)
		if err != nil || got != want {
			t.Errorf("ParseFormat(%q) = %v, %v", in, got, err)
		}
	}
	if _, err := ParseFormat("sarif"); err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestUseColor(t *testing.T) {
	if !UseColor(ColorAlways, nil) {
		t.Fatal("always must enable color")
	}
	if UseColor(ColorNever, nil) {
		t.Fatal("never must disable color")
	}
	if UseColor(ColorAuto, nil) {
		t.Fatal("auto without a terminal must disable color")
	}
}
