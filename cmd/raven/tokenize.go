package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"raven/internal/diagfmt"
	"raven/internal/driver"
)

var tokenizeCmd = &cobra.Command{
	Use:   "tokenize [flags] file.rv",
	Short: "Tokenize a raven source file",
	Long:  `Tokenize breaks down a raven source file into its constituent tokens`,
	Args:  cobra.ExactArgs(1),
	RunE:  runTokenize,
}

func init() {
	tokenizeCmd.Flags().String("format", "pretty", "output format (pretty|json)")
}

func runTokenize(cmd *cobra.Command, args []string) error {
	filePath := args[0]

	format, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	out, err := readOutputSettings(cmd, "pretty")
	if err != nil {
		return err
	}

	content, err := os.ReadFile(filePath) // #nosec G304 -- path comes from the command line
	if err != nil {
		return err
	}
	result, err := driver.TokenizeFile(filePath, content, nil)
	if err != nil {
		return fmt.Errorf("tokenization failed: %w", err)
	}

	// Выводим диагностику в stderr, если есть
	if err := printDiagnostics(os.Stderr, result.Bag, result.FileSet, out); err != nil {
		return err
	}

	switch format {
	case "pretty":
		return diagfmt.FormatTokensPretty(os.Stdout, result.Tokens, result.FileSet)
	case "json":
		return diagfmt.FormatTokensJSON(os.Stdout, result.Tokens)
	default:
		return fmt.Errorf("unknown format: %s", format)
	}
}
