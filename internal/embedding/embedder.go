// Package embedding turns chunk text into vectors.
package embedding

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"

	lru "github.com/hashicorp/golang-lru/v2"
)

var (
	ErrEmptyEmbedding    = errors.New("embedding response returned empty vector")
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
)

// Embedder converts texts to vectors of a fixed, declared dimension.
type Embedder interface {
	// Embed returns one vector per text, in order.
	Embed(ctx context.Context, texts []string) ([][]float32, error)

	// Dimension is the length of every vector Embed returns.
	Dimension() int

	Model() string
}

// DefaultCacheSize is used when a non-positive cache size is configured.
const DefaultCacheSize = 4096

// Cache keeps recent vectors keyed by model and text hash.
type Cache struct {
	cache *lru.Cache[string, []float32]
}

// NewCache returns a Cache holding at most size vectors.
func NewCache(size int) *Cache {
	if size <= 0 {
		size = DefaultCacheSize
	}
	cache, err := lru.New[string, []float32](size)
	if err != nil {
		cache, _ = lru.New[string, []float32](DefaultCacheSize)
	}
	return &Cache{cache: cache}
}

// Get returns a copy of the cached vector.
func (c *Cache) Get(key string) ([]float32, bool) {
	vec, ok := c.cache.Get(key)
	if !ok {
		return nil, false
	}
	out := make([]float32, len(vec))
	copy(out, vec)
	return out, true
}

// Add stores vec under key.
func (c *Cache) Add(key string, vec []float32) {
	stored := make([]float32, len(vec))
	copy(stored, vec)
	c.cache.Add(key, stored)
}

// Len returns the number of cached vectors.
func (c *Cache) Len() int {
	return c.cache.Len()
}

// CacheKey hashes model and text into a cache key.
func CacheKey(model, text string) string {
	h := sha256.Sum256([]byte(model + "\x00" + text))
	return hex.EncodeToString(h[:])
}
