package fuzztests

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"
)

const (
	maxSeedBytes = 64 << 10 // 64 KiB, ограничение для тестового корпуса
)

// snippetSeeds покрывают каждую конструкцию языка хотя бы раз.
var snippetSeeds = []string{
	"",
	"fn main() {}\n",
	"import util::math;\nfn main() { math::add(1, 2); }\n",
	"pub struct P<T> { x: T, y: T }\n",
	"trait Eq { fn eq(self, other: i64) -> bool; }\n",
	"#[priority(3)] impl<T: Eq> Eq for Box<T> { fn eq(self, other: i64) -> bool { return true; } }\n",
	"internal fn print(s: str);\n",
	"fn f(n: i64) -> i64 { if 0 < n < 10 { return n; } else { return -n; } }\n",
	"fn f() { let s = \"esc \\\" \\n\"; s = s; }\n",
	"fn f() { let x = 9223372036854775808; }\n",
}

func addCorpusSeeds(f *testing.F) {
	addTestdataSeeds(f)
	for _, s := range snippetSeeds {
		f.Add([]byte(s))
	}
}

func addTestdataSeeds(f *testing.F) {
	root := filepath.Join("..", "..", "testdata")
	if _, err := os.Stat(root); err != nil {
		return
	}
	// проходим по дереву testdata, добавляем все *.rv файлы
	_ = filepath.WalkDir(root, func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil || d.IsDir() || filepath.Ext(path) != ".rv" {
			return nil
		}
		// #nosec G304 -- path comes from repository testdata walk
		src, err := os.ReadFile(path)
		if err != nil {
			return nil
		}
		f.Add(clampSeed(src))
		return nil
	})
}

func clampSeed(src []byte) []byte {
	if len(src) <= maxSeedBytes {
		return append([]byte(nil), src...)
	}
	return append([]byte(nil), src[:maxSeedBytes]...)
}
