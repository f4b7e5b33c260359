// Package project reads the raven.toml project manifest.
package project

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
)

// Defaults used when raven.toml leaves a key out.
const (
	DefaultRoot           = "src"
	DefaultEntry          = "main::main"
	DefaultMaxDepth       = 64
	DefaultMaxDiagnostics = 100
)

// ErrPackageSectionMissing indicates that [package] is missing.
var ErrPackageSectionMissing = errors.New("missing [package]")

// Manifest is a decoded raven.toml with defaults applied.
type Manifest struct {
	// Path is the manifest file; Dir its directory.
	Path string
	Dir  string

	Name string
	// Root is the source root relative to Dir.
	Root  string
	Entry string

	Workers        int
	MaxDepth       int
	CacheDir       string
	FuzzSeed       uint64
	MaxDiagnostics int
}

type manifestFile struct {
	Package struct {
		Name  string `toml:"name"`
		Root  string `toml:"root"`
		Entry string `toml:"entry"`
	} `toml:"package"`
	Build struct {
		Workers        int    `toml:"workers"`
		MaxDepth       int    `toml:"max_depth"`
		CacheDir       string `toml:"cache_dir"`
		FuzzSeed       uint64 `toml:"fuzz_seed"`
		MaxDiagnostics int    `toml:"max_diagnostics"`
	} `toml:"build"`
}

// Load parses raven.toml at path.
func Load(path string) (*Manifest, error) {
	var cfg manifestFile
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return nil, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if !meta.IsDefined("package") {
		return nil, fmt.Errorf("%s: %w", path, ErrPackageSectionMissing)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return nil, fmt.Errorf("%s: unknown keys: %s", path, strings.Join(keys, ", "))
	}

	m := &Manifest{
		Path:           path,
		Dir:            filepath.Dir(path),
		Name:           strings.TrimSpace(cfg.Package.Name),
		Root:           DefaultRoot,
		Entry:          DefaultEntry,
		Workers:        cfg.Build.Workers,
		MaxDepth:       DefaultMaxDepth,
		CacheDir:       strings.TrimSpace(cfg.Build.CacheDir),
		FuzzSeed:       cfg.Build.FuzzSeed,
		MaxDiagnostics: DefaultMaxDiagnostics,
	}
	if meta.IsDefined("package", "root") {
		m.Root = strings.TrimSpace(cfg.Package.Root)
	}
	if meta.IsDefined("package", "entry") {
		m.Entry = strings.TrimSpace(cfg.Package.Entry)
	}
	if meta.IsDefined("build", "max_depth") {
		m.MaxDepth = cfg.Build.MaxDepth
	}
	if meta.IsDefined("build", "max_diagnostics") {
		m.MaxDiagnostics = cfg.Build.MaxDiagnostics
	}
	if err := m.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return m, nil
}

func (m *Manifest) validate() error {
	switch {
	case m.Name == "":
		return errors.New("[package].name is empty")
	case m.Entry == "":
		return errors.New("[package].entry is empty")
	case m.Workers < 0:
		return fmt.Errorf("[build].workers must not be negative, got %d", m.Workers)
	case m.MaxDepth <= 0:
		return fmt.Errorf("[build].max_depth must be positive, got %d", m.MaxDepth)
	case m.MaxDiagnostics < 0:
		return fmt.Errorf("[build].max_diagnostics must not be negative, got %d", m.MaxDiagnostics)
	}
	_, err := m.SourceRoot()
	return err
}

// SourceRoot resolves [package].root and checks it stays inside Dir.
func (m *Manifest) SourceRoot() (string, error) {
	root := strings.TrimSpace(m.Root)
	if filepath.IsAbs(root) {
		return "", fmt.Errorf("invalid [package].root %q: must be relative", root)
	}
	clean := filepath.Clean(filepath.FromSlash(root))
	if clean == "." {
		clean = ""
	}
	rootPath := filepath.Join(m.Dir, clean)
	if rootPath != m.Dir && !pathWithin(m.Dir, rootPath) {
		return "", fmt.Errorf("invalid [package].root %q: escapes project root", root)
	}
	return rootPath, nil
}

// ResolveCacheDir returns the cache directory, relative paths taken from
// the manifest directory. Empty means the user cache.
func (m *Manifest) ResolveCacheDir() string {
	if m.CacheDir == "" || filepath.IsAbs(m.CacheDir) {
		return m.CacheDir
	}
	return filepath.Join(m.Dir, m.CacheDir)
}

// Discover loads the manifest governing startDir, if there is one.
func Discover(startDir string) (*Manifest, bool, error) {
	path, ok, err := FindManifest(startDir)
	if err != nil || !ok {
		return nil, ok, err
	}
	m, err := Load(path)
	if err != nil {
		return nil, true, err
	}
	if _, err := os.Stat(filepath.Join(m.Dir, m.Root)); err != nil {
		return nil, true, fmt.Errorf("%s: invalid [package].root %q: %w", path, m.Root, err)
	}
	return m, true, nil
}
