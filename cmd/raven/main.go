// Command raven compiles .rv sources with the concurrent unit scheduler.
package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"raven/internal/buildpipeline"
	"raven/internal/version"
)

var rootCmd = &cobra.Command{
	Use:           "raven",
	Short:         "Raven language compiler",
	Long:          `Raven compiles every top-level unit as an independent job and emits the entry closure as textual IR`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		if err := setupProfiling(cmd); err != nil {
			return err
		}
		return setupTracing(cmd)
	},
}

func main() {
	rootCmd.Version = version.Version

	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(tokenizeCmd)
	rootCmd.AddCommand(parseCmd)
	rootCmd.AddCommand(versionCmd)

	addPersistentFlags(rootCmd.PersistentFlags())

	err := rootCmd.Execute()
	closeTracing(rootCmd)
	stopProfiling()
	if err != nil {
		// diagnostics are already printed
		if !errors.Is(err, buildpipeline.ErrDiagnostics) {
			fmt.Fprintf(os.Stderr, "raven: %v\n", err)
		}
		os.Exit(1)
	}
}

// Глобальные флаги
func addPersistentFlags(flags *pflag.FlagSet) {
	flags.String("color", "auto", "colorize output (auto|always|never)")
	flags.Bool("quiet", false, "suppress non-essential output")
	flags.Bool("timings", false, "show timing information")
	flags.Int("max-diagnostics", 100, "maximum number of diagnostics to show (0 = unlimited)")
	flags.String("trace", "", "trace output file (- for stderr)")
	flags.String("trace-level", "off", "trace level (off|error|phase|detail|debug)")
	flags.String("trace-mode", "stream", "trace storage (stream|ring|both)")
	flags.String("trace-format", "auto", "trace format (auto|text|ndjson)")
	flags.Int("trace-ring-size", 4096, "events kept by the ring tracer")
	flags.Duration("trace-heartbeat", 0, "emit scheduler heartbeats at this interval (0 disables)")
	flags.String("cpu-profile", "", "write a CPU profile to this file")
	flags.String("mem-profile", "", "write a heap profile to this file on exit")
	flags.String("runtime-trace", "", "write a Go runtime trace to this file")
}
