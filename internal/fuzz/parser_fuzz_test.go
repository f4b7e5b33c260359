package fuzztests

import (
	"context"
	"testing"
	"time"

	"raven/internal/diag"
	"raven/internal/lexer"
	"raven/internal/parser"
	"raven/internal/testkit"
)

// parseTimeout is the maximum time allowed for parsing a single input.
// If parsing takes longer, it indicates a potential infinite loop.
const parseTimeout = 5 * time.Second

func FuzzParserBuildsAST(f *testing.F) {
	addCorpusSeeds(f)
	f.Fuzz(func(t *testing.T, input []byte) {
		file := virtualFile(t, input)

		bag := diag.NewBag(128)
		reporter := diag.BagReporter{Bag: bag}
		lx := lexer.New(file, lexer.Options{Reporter: reporter})
		res := parser.ParseFile(file, lx, parser.Options{Reporter: reporter, MaxErrors: 128})
		if res.File == nil {
			t.Fatal("parser returned nil file")
		}
		if err := testkit.CheckSpanInvariants(res.File, file); err != nil {
			t.Fatalf("span invariants: %v\ninput: %q", err, truncateForLog(input, 200))
		}
		if res.Errors == 0 {
			for _, u := range res.File.Units {
				if u.Poisoned {
					t.Fatalf("unit %s poisoned without syntax errors", u.FullName())
				}
			}
		}
	})
}

// FuzzParserNoHang tests that the parser doesn't hang on any input.
// It uses a timeout to detect infinite loops that could be caused by
// malformed input or edge cases in error recovery.
func FuzzParserNoHang(f *testing.F) {
	addCorpusSeeds(f)

	f.Add([]byte("fn test() { let x: i64 = 1\nlet y: i64 = 2; }")) // missing semicolon
	f.Add([]byte("fn test() { x + y\nlet z: i64 = 3; }"))          // expression without semicolon
	f.Add([]byte("impl<T: A + B> A for Box<Box<T>>> {}"))           // extra `>`
	f.Add([]byte("{ let x = 1 }"))                                  // block at top level
	f.Add([]byte("fn f() { { { { } } } }"))                         // deeply nested blocks
	f.Add([]byte("fn f() { while { } }"))                           // empty condition
	f.Add([]byte("#[priority(] pub internal struct"))               // broken header
	f.Add([]byte("fn f() { new P { x: , y: 1 }; }"))                // missing field value

	f.Fuzz(func(t *testing.T, input []byte) {
		file := virtualFile(t, input)

		ctx, cancel := context.WithTimeout(context.Background(), parseTimeout)
		defer cancel()

		done := make(chan struct{})
		go func() {
			defer close(done)
			bag := diag.NewBag(128)
			reporter := diag.BagReporter{Bag: bag}
			lx := lexer.New(file, lexer.Options{Reporter: reporter})
			_ = parser.ParseFile(file, lx, parser.Options{Reporter: reporter, MaxErrors: 128})
		}()

		select {
		case <-done:
		case <-ctx.Done():
			t.Fatalf("parser hang detected: parsing took longer than %v\ninput (%d bytes): %q",
				parseTimeout, len(input), truncateForLog(input, 200))
		}
	})
}

// truncateForLog truncates input for logging purposes
func truncateForLog(input []byte, maxLen int) []byte {
	if len(input) <= maxLen {
		return input
	}
	return append(input[:maxLen:maxLen], []byte("...")...)
}
