package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"raven/internal/diag"
	"raven/internal/diagfmt"
	"raven/internal/source"
)

type outputSettings struct {
	format diagfmt.Format
	color  bool
	quiet  bool
	notes  bool
}

func readOutputSettings(cmd *cobra.Command, formatValue string) (outputSettings, error) {
	var s outputSettings
	format, err := diagfmt.ParseFormat(formatValue)
	if err != nil {
		return s, err
	}
	s.format = format

	root := cmd.Root().PersistentFlags()
	colorFlag, err := root.GetString("color")
	if err != nil {
		return s, fmt.Errorf("failed to get color flag: %w", err)
	}
	switch mode := diagfmt.ColorMode(colorFlag); mode {
	case diagfmt.ColorAuto, diagfmt.ColorAlways, diagfmt.ColorNever:
		s.color = diagfmt.UseColor(mode, os.Stderr)
	case "on":
		s.color = true
	case "off":
		s.color = false
	default:
		return s, fmt.Errorf("invalid --color value %q (expected auto|always|never)", colorFlag)
	}
	if s.quiet, err = root.GetBool("quiet"); err != nil {
		return s, fmt.Errorf("failed to get quiet flag: %w", err)
	}
	s.notes = true
	return s, nil
}

// printDiagnostics writes bag to w. Quiet pretty output keeps only errors.
func printDiagnostics(w io.Writer, bag *diag.Bag, fs *source.FileSet, s outputSettings) error {
	if bag == nil {
		bag = diag.NewBag(0)
	}
	if bag.Len() == 0 && s.format == diagfmt.FormatPretty {
		return nil
	}
	if s.quiet && s.format == diagfmt.FormatPretty {
		errorsOnly := diag.NewBag(0)
		for _, d := range bag.Items() {
			if d.Severity == diag.SevError {
				errorsOnly.Add(d)
			}
		}
		bag = errorsOnly
	}
	opts := diagfmt.Options{
		Format: s.format,
		Pretty: diagfmt.PrettyOpts{
			Color:     s.color,
			Context:   1,
			PathMode:  diagfmt.PathModeAuto,
			ShowNotes: s.notes,
		},
		JSON: diagfmt.JSONOpts{
			IncludePositions: true,
			PathMode:         diagfmt.PathModeAuto,
			IncludeNotes:     s.notes,
		},
	}
	if err := diagfmt.Write(w, bag, fs, opts); err != nil {
		return err
	}
	if s.format == diagfmt.FormatPretty && !s.quiet && bag.Len() > 0 {
		_, err := fmt.Fprintf(w, "\n%d error(s), %d warning(s)\n", bag.Count(diag.SevError), bag.Count(diag.SevWarning))
		return err
	}
	return nil
}
