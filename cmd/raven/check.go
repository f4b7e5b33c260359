package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"raven/internal/buildpipeline"
	"raven/internal/hir"
)

var checkCmd = &cobra.Command{
	Use:   "check [flags] [path]",
	Short: "Check a raven project or file and report diagnostics",
	Long:  `Check finalizes every unit of the project without emitting code. Without a path the surrounding raven.toml project is checked`,
	Args:  cobra.MaximumNArgs(1),
	RunE:  runCheck,
}

func init() {
	addCompileFlags(checkCmd.Flags())
	checkCmd.Flags().String("format", "pretty", "diagnostics format (pretty|json|yaml)")
	checkCmd.Flags().Bool("emit-hir", false, "print the finalized program after a successful check")
}

func runCheck(cmd *cobra.Command, args []string) error {
	formatValue, err := cmd.Flags().GetString("format")
	if err != nil {
		return fmt.Errorf("failed to get format flag: %w", err)
	}
	emitHIR, err := cmd.Flags().GetBool("emit-hir")
	if err != nil {
		return fmt.Errorf("failed to get emit-hir flag: %w", err)
	}
	out, err := readOutputSettings(cmd, formatValue)
	if err != nil {
		return err
	}
	req, _, err := compileRequest(cmd, args)
	if err != nil {
		return err
	}

	res, err := buildpipeline.Check(cmd.Context(), req)
	if res.Driver != nil {
		if printErr := printDiagnostics(os.Stderr, res.Driver.Bag, res.Driver.FileSet, out); printErr != nil {
			return printErr
		}
	}
	if !out.quiet {
		printStageTimings(os.Stderr, res.Timings, req.Timings)
	}
	if err != nil {
		if errors.Is(err, buildpipeline.ErrDiagnostics) {
			dumpRing()
		}
		return err
	}
	if emitHIR {
		return hir.Dump(os.Stdout, res.Driver.Units())
	}
	return nil
}
