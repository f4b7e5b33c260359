package project

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeManifest(t *testing.T, dir, body string) string {
	t.Helper()
	path := filepath.Join(dir, ManifestName)
	if err := os.WriteFile(path, []byte(body), 0o600); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadDefaults(t *testing.T) {
	dir := t.TempDir()
	m, err := Load(writeManifest(t, dir, "[package]\nname = \"demo\"\n"))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if m.Root != DefaultRoot || m.Entry != DefaultEntry || m.MaxDepth != DefaultMaxDepth || m.MaxDiagnostics != DefaultMaxDiagnostics {
		t.Fatalf("defaults not applied: %+v", m)
	}
	if m.ResolveCacheDir() != "" {
		t.Fatalf("cache dir = %q", m.ResolveCacheDir())
	}
}

func TestLoadExplicitValues(t *testing.T) {
	dir := t.TempDir()
	m, err := Load(writeManifest(t, dir, `
[package]
name = "demo"
root = "."
entry = "app::start"

[build]
workers = 3
max_depth = 8
cache_dir = ".cache"
fuzz_seed = 42
max_diagnostics = 0
`))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if m.Root != "." || m.Entry != "app::start" || m.Workers != 3 || m.MaxDepth != 8 || m.FuzzSeed != 42 {
		t.Fatalf("manifest = %+v", m)
	}
	// explicit zero means unlimited, not the default
	if m.MaxDiagnostics != 0 {
		t.Fatalf("max_diagnostics = %d", m.MaxDiagnostics)
	}
	if got := m.ResolveCacheDir(); got != filepath.Join(dir, ".cache") {
		t.Fatalf("cache dir = %s", got)
	}
	if root, err := m.SourceRoot(); err != nil || root != dir {
		t.Fatalf("source root = %s %v", root, err)
	}
}

func TestLoadErrors(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"no package", "[build]\nworkers = 1\n", "missing [package]"},
		{"empty name", "[package]\nname = \"\"\n", "name is empty"},
		{"bad depth", "[package]\nname = \"x\"\n[build]\nmax_depth = 0\n", "max_depth must be positive"},
		{"escaping root", "[package]\nname = \"x\"\nroot = \"../elsewhere\"\n", "escapes project root"},
		{"absolute root", "[package]\nname = \"x\"\nroot = \"/abs\"\n", "must be relative"},
		{"unknown key", "[package]\nname = \"x\"\nflavour = \"y\"\n", "unknown keys: package.flavour"},
		{"syntax", "[package\n", "failed to parse TOML"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeManifest(t, t.TempDir(), tt.body))
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("err = %v, want %q", err, tt.want)
			}
		})
	}
	_, err := Load(writeManifest(t, t.TempDir(), "x = 1\n"))
	if !errors.Is(err, ErrPackageSectionMissing) {
		t.Fatalf("err = %v", err)
	}
}

func TestDiscoverWalksUp(t *testing.T) {
	dir := t.TempDir()
	writeManifest(t, dir, "[package]\nname = \"demo\"\n")
	nested := filepath.Join(dir, "src", "deep")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatal(err)
	}
	m, ok, err := Discover(nested)
	if err != nil || !ok || m.Name != "demo" {
		t.Fatalf("discover = %+v %v %v", m, ok, err)
	}
	root, ok, err := FindProjectRoot(nested)
	if err != nil || !ok || root != m.Dir {
		t.Fatalf("root = %s %v %v", root, ok, err)
	}
}
