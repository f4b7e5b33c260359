// Package buildpipeline runs a compilation for the CLI: it loads the
// target, drives the compiler, reports progress and writes the output.
package buildpipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

// BuildRequest configures output generation for a compilation.
type BuildRequest struct {
	CompileRequest
	// OutputPath receives the textual IR; empty means Output.
	OutputPath string
	Output     io.Writer
}

// BuildResult captures build artefacts and timings.
type BuildResult struct {
	CompileResult
	OutputPath string
	Bytes      int64
}

// Build compiles the target and writes the program emitted by the
// reference backend.
func Build(ctx context.Context, req *BuildRequest) (BuildResult, error) {
	var result BuildResult
	if req == nil {
		return result, fmt.Errorf("missing build request")
	}
	reqCopy := *req
	req = &reqCopy
	req.Emit = true

	compileRes, err := Compile(ctx, &req.CompileRequest)
	result.CompileResult = compileRes
	if err != nil {
		return result, err
	}
	ir, ok := compileRes.Driver.IR()
	if !ok {
		return result, nil // custom backend owns its output
	}

	writeStart := time.Now()
	emitStage(req.Progress, nil, StageWrite, StatusWorking, nil, 0)
	switch {
	case req.OutputPath != "":
		if err := writeFileAtomic(req.OutputPath, []byte(ir)); err != nil {
			err = fmt.Errorf("failed to write build output %q: %w", req.OutputPath, err)
			emitStage(req.Progress, nil, StageWrite, StatusError, err, 0)
			return result, err
		}
		result.OutputPath = req.OutputPath
		result.Bytes = int64(len(ir))
	case req.Output != nil:
		n, err := io.WriteString(req.Output, ir)
		result.Bytes = int64(n)
		if err != nil {
			emitStage(req.Progress, nil, StageWrite, StatusError, err, 0)
			return result, err
		}
	}
	result.Timings.Set(StageWrite, time.Since(writeStart))
	emitStage(req.Progress, nil, StageWrite, StatusDone, nil, result.Timings.Duration(StageWrite))
	return result, nil
}

// Check compiles the target without emitting.
func Check(ctx context.Context, req *CompileRequest) (CompileResult, error) {
	if req == nil {
		return CompileResult{}, fmt.Errorf("missing compile request")
	}
	reqCopy := *req
	reqCopy.Emit = false
	return Compile(ctx, &reqCopy)
}

// writeFileAtomic пишет во временный файл рядом и переименовывает.
func writeFileAtomic(path string, data []byte) (err error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return err
	}
	f, err := os.CreateTemp(dir, ".raven-*")
	if err != nil {
		return err
	}
	defer func() {
		if rmErr := os.Remove(f.Name()); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) && err == nil {
			err = rmErr
		}
	}()
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(f.Name(), path)
}
