package diagfmt

import (
	"path/filepath"
	"strings"

	"raven/internal/source"
)

const unknownPath = "<unknown>"

// lookupFile returns nil for spans whose file is not in fs.
func lookupFile(fs *source.FileSet, id source.FileID) *source.File {
	if fs == nil || int(id) >= fs.Len() {
		return nil
	}
	return fs.Get(id)
}

func formatPath(f *source.File, mode PathMode, base string) string {
	if f == nil {
		return unknownPath
	}
	if strings.HasPrefix(f.Path, "<") {
		return f.Path
	}
	switch mode {
	case PathModeAbsolute:
		if f.Flags&source.FileVirtual != 0 {
			return f.Path
		}
		if abs, err := filepath.Abs(f.Path); err == nil {
			return filepath.ToSlash(abs)
		}
		return f.Path
	case PathModeBasename:
		return filepath.Base(f.Path)
	case PathModeRelative:
		return relativeTo(f.Path, base)
	default:
		rel := relativeTo(f.Path, base)
		if strings.HasPrefix(rel, "../") {
			return f.Path
		}
		return rel
	}
}

func relativeTo(path, base string) string {
	if base == "" {
		return path
	}
	absPath, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	absBase, err := filepath.Abs(base)
	if err != nil {
		return path
	}
	rel, err := filepath.Rel(absBase, absPath)
	if err != nil {
		return path
	}
	return filepath.ToSlash(rel)
}

func spanPath(fs *source.FileSet, span source.Span, mode PathMode) string {
	f := lookupFile(fs, span.File)
	if f == nil {
		return unknownPath
	}
	return formatPath(f, mode, fs.BaseDir())
}
