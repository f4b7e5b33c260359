package buildpipeline

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"raven/internal/driver"
)

func normalizeProgressFiles(files []string, baseDir string) []string {
	if len(files) == 0 {
		return files
	}
	normalized := make([]string, 0, len(files))
	seen := make(map[string]struct{}, len(files))

	base := absBase(baseDir)

	for _, file := range files {
		if file == "" {
			continue
		}
		path := displayPath(file, base)
		if _, ok := seen[path]; ok {
			continue
		}
		seen[path] = struct{}{}
		normalized = append(normalized, path)
	}
	sort.Strings(normalized)
	return normalized
}

// displayPath shortens file to a slash path relative to base when it lies
// under base. base must already be absolute.
func displayPath(file, base string) string {
	path := filepath.Clean(file)
	if base != "" {
		if abs, err := filepath.Abs(path); err == nil {
			path = abs
		}
		if rel, err := filepath.Rel(base, path); err == nil && rel != "." && !strings.HasPrefix(rel, "..") {
			path = rel
		}
	}
	return filepath.ToSlash(path)
}

func absBase(baseDir string) string {
	base := strings.TrimSpace(baseDir)
	if base != "" {
		if abs, err := filepath.Abs(base); err == nil {
			base = abs
		}
	}
	return base
}

// TargetFiles lists the files Compile will load for req, named the way
// progress events name them.
func TargetFiles(req *CompileRequest) ([]string, error) {
	info, err := os.Stat(req.TargetPath)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		base := req.BaseDir
		if base == "" {
			base = filepath.Dir(req.TargetPath)
		}
		return normalizeProgressFiles([]string{req.TargetPath}, base), nil
	}
	paths, err := driver.ListFiles(req.TargetPath)
	if err != nil {
		return nil, err
	}
	base := req.BaseDir
	if base == "" {
		base = req.TargetPath
	}
	return normalizeProgressFiles(paths, base), nil
}
