package main

import (
	"fmt"
	"os"
	"path/filepath"

	"fortio.org/safecast"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"raven/internal/buildpipeline"
	"raven/internal/project"
)

// addCompileFlags registers the flags shared by build and check.
func addCompileFlags(fs *pflag.FlagSet) {
	fs.Uint("jobs", 0, "worker goroutines (0 = GOMAXPROCS)")
	fs.Uint64("seed", 0, "shuffle the job schedule with this seed (0 = FIFO)")
	fs.Int("max-depth", project.DefaultMaxDepth, "generic instantiation depth limit")
	fs.String("entry", "", "entry unit (default main::main)")
	fs.String("cache-dir", "", "token cache directory (default user cache)")
	fs.Bool("no-cache", false, "disable the on-disk token cache")
}

// compileRequest builds the request from raven.toml and flags; explicitly
// set flags override the manifest.
func compileRequest(cmd *cobra.Command, args []string) (*buildpipeline.CompileRequest, *project.Manifest, error) {
	req := &buildpipeline.CompileRequest{
		MaxDepth: project.DefaultMaxDepth,
		Tracer:   activeTracing.tracer,
	}

	target := "."
	if len(args) > 0 {
		target = args[0]
	}
	info, err := os.Stat(target)
	if err != nil {
		return nil, nil, err
	}

	var manifest *project.Manifest
	if info.IsDir() {
		m, found, err := project.Discover(target)
		if err != nil {
			return nil, nil, err
		}
		if found {
			manifest = m
		}
	}

	req.TargetPath = target
	if manifest != nil {
		absTarget, err := filepath.Abs(target)
		if err != nil {
			return nil, nil, err
		}
		root, err := manifest.SourceRoot()
		if err != nil {
			return nil, nil, err
		}
		// raven build внутри проекта собирает весь source root
		if absTarget == manifest.Dir {
			req.TargetPath = root
		}
		req.BaseDir = root
		req.Entry = manifest.Entry
		req.Workers = manifest.Workers
		req.Seed = manifest.FuzzSeed
		req.MaxDepth = manifest.MaxDepth
		req.MaxDiagnostics = manifest.MaxDiagnostics
		req.CacheDir = manifest.ResolveCacheDir()
	}

	flags := cmd.Flags()
	if flags.Changed("jobs") || manifest == nil {
		jobs, err := flags.GetUint("jobs")
		if err != nil {
			return nil, nil, fmt.Errorf("failed to get jobs flag: %w", err)
		}
		if req.Workers, err = safecast.Conv[int](jobs); err != nil {
			return nil, nil, fmt.Errorf("--jobs: %w", err)
		}
	}
	if flags.Changed("seed") {
		if req.Seed, err = flags.GetUint64("seed"); err != nil {
			return nil, nil, fmt.Errorf("failed to get seed flag: %w", err)
		}
	}
	if flags.Changed("max-depth") || manifest == nil {
		if req.MaxDepth, err = flags.GetInt("max-depth"); err != nil {
			return nil, nil, fmt.Errorf("failed to get max-depth flag: %w", err)
		}
		if req.MaxDepth <= 0 {
			return nil, nil, fmt.Errorf("--max-depth must be positive, got %d", req.MaxDepth)
		}
	}
	if flags.Changed("entry") {
		if req.Entry, err = flags.GetString("entry"); err != nil {
			return nil, nil, fmt.Errorf("failed to get entry flag: %w", err)
		}
	}
	if flags.Changed("cache-dir") {
		if req.CacheDir, err = flags.GetString("cache-dir"); err != nil {
			return nil, nil, fmt.Errorf("failed to get cache-dir flag: %w", err)
		}
	}
	if req.NoCache, err = flags.GetBool("no-cache"); err != nil {
		return nil, nil, fmt.Errorf("failed to get no-cache flag: %w", err)
	}

	root := cmd.Root().PersistentFlags()
	if root.Changed("max-diagnostics") || manifest == nil {
		if req.MaxDiagnostics, err = root.GetInt("max-diagnostics"); err != nil {
			return nil, nil, fmt.Errorf("failed to get max-diagnostics flag: %w", err)
		}
	}
	if req.Timings, err = root.GetBool("timings"); err != nil {
		return nil, nil, fmt.Errorf("failed to get timings flag: %w", err)
	}
	req.Heartbeat = activeTracing.heartbeat
	return req, manifest, nil
}
