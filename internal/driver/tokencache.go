package driver

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/vmihailenco/msgpack/v5"

	"raven/internal/diag"
	"raven/internal/source"
	"raven/internal/token"
)

// Current schema version - increment when payload format or lexer output changes
const tokenCacheSchema uint16 = 1

// TokenCache хранит результаты лексера на диске, ключ: хэш содержимого файла.
// Thread-safe for concurrent access.
type TokenCache struct {
	mu  sync.RWMutex
	dir string

	hits, misses int
}

// tokenPayload is what one cache file holds. Spans are stored with file 0
// and rebased on load.
type tokenPayload struct {
	Schema uint16
	Path   string
	Tokens []token.Token
	Diags  []diag.Diagnostic
}

// OpenTokenCache uses dir, or the user cache directory when dir is empty.
func OpenTokenCache(dir string) (*TokenCache, error) {
	if dir == "" {
		base := os.Getenv("XDG_CACHE_HOME")
		if base == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return nil, err
			}
			base = filepath.Join(home, ".cache")
		}
		dir = filepath.Join(base, "raven")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &TokenCache{dir: dir}, nil
}

// Dir reports the cache directory.
func (c *TokenCache) Dir() string { return c.dir }

// cacheKey: H(schema || content hash).
func cacheKey(hash [32]byte) string {
	h := sha256.New()
	_, _ = fmt.Fprintf(h, "raven-tokens-%d:", tokenCacheSchema)
	_, _ = h.Write(hash[:])
	return hex.EncodeToString(h.Sum(nil))
}

func (c *TokenCache) pathFor(hash [32]byte) string {
	// подкаталог "tokens" для удобства очистки
	return filepath.Join(c.dir, "tokens", cacheKey(hash)+".mp")
}

// Put stores the tokens and lexer diagnostics of file.
func (c *TokenCache) Put(file *source.File, toks []token.Token, diags []diag.Diagnostic) (err error) {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.pathFor(file.Hash)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(p), "tmp-*")
	if err != nil {
		return err
	}
	defer func() {
		if rmErr := os.Remove(f.Name()); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) && err == nil {
			err = rmErr
		}
	}()

	payload := tokenPayload{
		Schema: tokenCacheSchema,
		Path:   file.Path,
		Tokens: rebaseTokens(toks, 0),
		Diags:  rebaseDiags(diags, 0),
	}
	if err := msgpack.NewEncoder(f).Encode(&payload); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	// Атомарная замена
	return os.Rename(f.Name(), p)
}

// Get loads the cached tokens of file. A schema mismatch counts as a miss.
func (c *TokenCache) Get(file *source.File) ([]token.Token, []diag.Diagnostic, bool, error) {
	if c == nil {
		return nil, nil, false, nil
	}
	c.mu.RLock()
	f, err := os.Open(c.pathFor(file.Hash))
	c.mu.RUnlock()
	if err != nil {
		c.count(false)
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil, false, nil
		}
		return nil, nil, false, err
	}
	defer f.Close()

	var payload tokenPayload
	if err := msgpack.NewDecoder(f).Decode(&payload); err != nil {
		c.count(false)
		return nil, nil, false, fmt.Errorf("token cache %s: %w", f.Name(), err)
	}
	if payload.Schema != tokenCacheSchema {
		c.count(false)
		return nil, nil, false, nil
	}
	c.count(true)
	return rebaseTokens(payload.Tokens, file.ID), rebaseDiags(payload.Diags, file.ID), true, nil
}

func (c *TokenCache) count(hit bool) {
	c.mu.Lock()
	if hit {
		c.hits++
	} else {
		c.misses++
	}
	c.mu.Unlock()
}

// Stats reports hits and misses since open.
func (c *TokenCache) Stats() (hits, misses int) {
	if c == nil {
		return 0, 0
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.hits, c.misses
}

// DropAll invalidates the cache.
func (c *TokenCache) DropAll() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()

	// тривиально: переименуем каталог и удалим
	dir := filepath.Join(c.dir, "tokens")
	old := dir + ".old-" + time.Now().Format("20060102150405")
	if err := os.Rename(dir, old); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	return os.RemoveAll(old)
}

func rebaseTokens(toks []token.Token, id source.FileID) []token.Token {
	out := make([]token.Token, len(toks))
	for i, t := range toks {
		t.Span.File = id
		out[i] = t
	}
	return out
}

func rebaseDiags(ds []diag.Diagnostic, id source.FileID) []diag.Diagnostic {
	out := make([]diag.Diagnostic, len(ds))
	for i, d := range ds {
		d.Primary.File = id
		notes := make([]diag.Note, len(d.Notes))
		for j, n := range d.Notes {
			n.Span.File = id
			notes[j] = n
		}
		d.Notes = notes
		out[i] = d
	}
	return out
}
