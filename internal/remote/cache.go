package remote

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"
)

// Cache persists raw response bodies under deterministic paths so a request
// can be served stale when the upstream is failing or the circuit is open.
type Cache struct {
	dir string
}

// NewCache builds a response cache rooted at dir. An empty dir disables
// persistence; lookups then always miss.
func NewCache(dir string) *Cache {
	return &Cache{dir: dir}
}

// path derives the on-disk location for a URL: the endpoint pattern keeps
// files greppable, the digest makes query parameters part of the key.
func (c *Cache) path(rawURL string) string {
	sum := sha256.Sum256([]byte(rawURL))
	pattern := strings.NewReplacer("/", "_", "*", "x", "?", "_").Replace(EndpointPattern(rawURL))
	return filepath.Join(c.dir, pattern+"-"+hex.EncodeToString(sum[:8])+".json")
}

// Store persists a response body for a URL. Failures are ignored; the cache
// is best-effort and recoverable from upstream.
func (c *Cache) Store(rawURL string, body []byte) {
	if c == nil || c.dir == "" {
		return
	}
	_ = os.WriteFile(c.path(rawURL), body, 0o644)
}

// Load returns the cached body for a URL, if any.
func (c *Cache) Load(rawURL string) ([]byte, bool) {
	if c == nil || c.dir == "" {
		return nil, false
	}
	body, err := os.ReadFile(c.path(rawURL))
	if err != nil {
		return nil, false
	}
	return body, true
}
