package pipeline

import (
	"crypto/sha256"
	"encoding/hex"
	"sync"
)

// ResponseCache memoizes successful base-provider responses within one
// batch run, keyed deterministically by (provider, model, prompt).
// Entries are never invalidated mid-run; lookups are idempotent, which
// is what makes sharing across requests safe.
type ResponseCache struct {
	mu      sync.RWMutex
	entries map[string]string
}

// NewResponseCache creates an empty cache
func NewResponseCache() *ResponseCache {
	return &ResponseCache{entries: make(map[string]string)}
}

// Get returns the cached response for the ref+prompt pair
func (c *ResponseCache) Get(ref ModelRef, prompt string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	text, ok := c.entries[cacheKey(ref, prompt)]
	return text, ok
}

// Put stores a successful response
func (c *ResponseCache) Put(ref ModelRef, prompt, text string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[cacheKey(ref, prompt)] = text
}

// Len returns the number of cached entries
func (c *ResponseCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func cacheKey(ref ModelRef, prompt string) string {
	h := sha256.New()
	h.Write([]byte(ref.Provider))
	h.Write([]byte{0})
	h.Write([]byte(ref.Model))
	h.Write([]byte{0})
	h.Write([]byte(prompt))
	return hex.EncodeToString(h.Sum(nil))
}
