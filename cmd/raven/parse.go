package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"raven/internal/diagfmt"
	"raven/internal/driver"
)

var parseCmd = &cobra.Command{
	Use:   "parse [flags] file.rv",
	Short: "Parse a raven source file and print its units",
	Long:  `Parse splits a raven source file into top-level units and prints their syntax trees`,
	Args:  cobra.ExactArgs(1),
	RunE:  runParse,
}

func init() {
	parseCmd.Flags().String("root", "", "namespace root (default the file's directory)")
	parseCmd.Flags().Uint("max-syntax-errors", 0, "stop reporting after this many syntax errors (0 = unlimited)")
}

func runParse(cmd *cobra.Command, args []string) error {
	filePath := args[0]

	root, err := cmd.Flags().GetString("root")
	if err != nil {
		return fmt.Errorf("failed to get root flag: %w", err)
	}
	if root == "" {
		root = filepath.Dir(filePath)
	}
	maxErrors, err := cmd.Flags().GetUint("max-syntax-errors")
	if err != nil {
		return fmt.Errorf("failed to get max-syntax-errors flag: %w", err)
	}
	out, err := readOutputSettings(cmd, "pretty")
	if err != nil {
		return err
	}

	content, err := os.ReadFile(filePath) // #nosec G304 -- path comes from the command line
	if err != nil {
		return err
	}
	result, err := driver.ParseFile(root, filePath, content, maxErrors)
	if err != nil {
		return fmt.Errorf("parsing failed: %w", err)
	}
	if err := printDiagnostics(os.Stderr, result.Bag, result.FileSet, out); err != nil {
		return err
	}
	return diagfmt.FormatASTPretty(os.Stdout, result.File, result.FileSet)
}
