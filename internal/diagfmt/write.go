package diagfmt

import (
	"io"
	"os"

	"github.com/mattn/go-isatty"

	"raven/internal/diag"
	"raven/internal/source"
)

// Options bundles the settings of every output format.
type Options struct {
	Format Format
	Pretty PrettyOpts
	JSON   JSONOpts
}

// Write encodes bag in opts.Format. The bag is expected to be sorted.
func Write(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts Options) error {
	switch opts.Format {
	case FormatJSON:
		return JSON(w, bag, fs, opts.JSON)
	case FormatYAML:
		return YAML(w, bag, fs, opts.JSON)
	default:
		Pretty(w, bag, fs, opts.Pretty)
		return nil
	}
}

// ColorMode is the value of --color.
type ColorMode string

const (
	ColorAuto   ColorMode = "auto"
	ColorAlways ColorMode = "always"
	ColorNever  ColorMode = "never"
)

// UseColor resolves mode against out. Auto means a terminal and no NO_COLOR.
func UseColor(mode ColorMode, out *os.File) bool {
	switch mode {
	case ColorAlways:
		return true
	case ColorNever:
		return false
	}
	if _, ok := os.LookupEnv("NO_COLOR"); ok {
		return false
	}
	if out == nil {
		return false
	}
	fd := out.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
