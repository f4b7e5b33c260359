package driver

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"
)

// Ext is the source file extension.
const Ext = ".rv"

// File is one source file handed to Compile.
type File struct {
	Path    string
	Content []byte
}

// ListFiles возвращает отсортированный список всех *.rv файлов в директории.
// Скрытые директории пропускаются.
func ListFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() && path != dir && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		if !d.IsDir() && strings.HasSuffix(path, Ext) {
			files = append(files, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	// Сортируем для детерминированного порядка
	sort.Strings(files)
	return files, nil
}

// LoadDir reads every .rv file under dir, sorted by path.
func LoadDir(ctx context.Context, dir string, jobs int) ([]File, error) {
	paths, err := ListFiles(dir)
	if err != nil {
		return nil, err
	}
	return LoadFiles(ctx, paths, jobs)
}

// LoadFiles reads paths in parallel, keeping their order.
func LoadFiles(ctx context.Context, paths []string, jobs int) ([]File, error) {
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}
	out := make([]File, len(paths))
	if len(paths) == 0 {
		return out, nil
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(paths)))
	for i, path := range paths {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			// #nosec G304 -- paths come from the project walk or the command line
			content, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("load %s: %w", path, err)
			}
			out[i] = File{Path: path, Content: content}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}
