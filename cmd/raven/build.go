package main

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"raven/internal/buildpipeline"
)

var buildCmd = &cobra.Command{
	Use:   "build [flags] [path]",
	Short: "Build a raven project or file",
	Long:  `Build compiles the entry closure and writes the program as textual IR to -o, or to stdout`,
	Args:  cobra.MaximumNArgs(1),
	RunE:  runBuild,
}

func init() {
	addCompileFlags(buildCmd.Flags())
	buildCmd.Flags().StringP("output", "o", "", "write the program to this file (default stdout)")
	buildCmd.Flags().String("ui", "auto", "progress view (auto|on|off)")
}

func runBuild(cmd *cobra.Command, args []string) error {
	outputPath, err := cmd.Flags().GetString("output")
	if err != nil {
		return fmt.Errorf("failed to get output flag: %w", err)
	}
	uiValue, err := cmd.Flags().GetString("ui")
	if err != nil {
		return fmt.Errorf("failed to get ui flag: %w", err)
	}
	mode, err := readUIMode(uiValue)
	if err != nil {
		return err
	}
	if mode == uiModeOn && outputPath == "" {
		return errors.New("--ui=on needs -o: the program would be written over the progress view")
	}
	out, err := readOutputSettings(cmd, "pretty")
	if err != nil {
		return err
	}
	compileReq, manifest, err := compileRequest(cmd, args)
	if err != nil {
		return err
	}

	req := buildpipeline.BuildRequest{
		CompileRequest: *compileReq,
		OutputPath:     outputPath,
	}
	if outputPath == "" {
		req.Output = os.Stdout
	}

	title := "raven build"
	if manifest != nil {
		title += " " + manifest.Name
	}

	var res buildpipeline.BuildResult
	if shouldUseTUI(mode, outputPath == "") {
		files, listErr := buildpipeline.TargetFiles(&req.CompileRequest)
		if listErr != nil {
			return listErr
		}
		res, err = runBuildWithUI(cmd.Context(), title, files, &req)
	} else {
		res, err = buildpipeline.Build(cmd.Context(), &req)
	}

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
	if !out.quiet && res.OutputPath != "" {
		cwd, _ := os.Getwd()
		fmt.Fprintf(os.Stderr, "built %s (%d units, %d bytes)\n", formatPathForOutput(cwd, res.OutputPath), len(res.Driver.Emitted), res.Bytes)
	}
	return nil
}

func formatPathForOutput(root, path string) string {
	if root == "" || path == "" {
		return path
	}
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return path
	}
	if strings.HasPrefix(rel, "..") {
		return path
	}
	return filepath.ToSlash(rel)
}
