package embedding

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newOllamaServer(t *testing.T, dim int, calls *int32) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/embeddings", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req ollamaRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "nomic-embed-text", req.Model)
		atomic.AddInt32(calls, 1)

		vec := make([]float32, dim)
		vec[0] = float32(len(req.Prompt))
		_ = json.NewEncoder(w).Encode(map[string]any{"embedding": vec})
	}))
}

func newTestOllama(t *testing.T, url string, dim int) *Ollama {
	t.Helper()
	o, err := NewOllama(OllamaConfig{BaseURL: url + "/", Model: "nomic-embed-text", Dimension: dim, CacheSize: 16})
	require.NoError(t, err)
	return o
}

func TestOllamaEmbed(t *testing.T) {
	var calls int32
	srv := newOllamaServer(t, 4, &calls)
	defer srv.Close()

	o := newTestOllama(t, srv.URL, 4)
	assert.Equal(t, 4, o.Dimension())
	assert.Equal(t, "nomic-embed-text", o.Model())

	vecs, err := o.Embed(context.Background(), []string{"a", "bbb"})
	require.NoError(t, err)
	require.Len(t, vecs, 2)
	assert.Equal(t, []float32{1, 0, 0, 0}, vecs[0])
	assert.Equal(t, []float32{3, 0, 0, 0}, vecs[1])
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestOllamaEmbedUsesCache(t *testing.T) {
	var calls int32
	srv := newOllamaServer(t, 4, &calls)
	defer srv.Close()

	o := newTestOllama(t, srv.URL, 4)
	_, err := o.Embed(context.Background(), []string{"same", "same"})
	require.NoError(t, err)
	vecs, err := o.Embed(context.Background(), []string{"same"})
	require.NoError(t, err)

	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	vecs[0][0] = 99
	again, err := o.Embed(context.Background(), []string{"same"})
	require.NoError(t, err)
	assert.Equal(t, float32(4), again[0][0], "cached vectors must not be shared")
}

func TestOllamaDimensionMismatch(t *testing.T) {
	var calls int32
	srv := newOllamaServer(t, 3, &calls)
	defer srv.Close()

	o := newTestOllama(t, srv.URL, 768)
	_, err := o.Embed(context.Background(), []string{"hello"})
	assert.ErrorIs(t, err, ErrDimensionMismatch)
}

func TestOllamaEmptyEmbedding(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"embedding": []}`))
	}))
	defer srv.Close()

	o := newTestOllama(t, srv.URL, 4)
	_, err := o.Embed(context.Background(), []string{"hello"})
	assert.ErrorIs(t, err, ErrEmptyEmbedding)
}

func TestOllamaHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `model "nomic-embed-text" not found`, http.StatusNotFound)
	}))
	defer srv.Close()

	o := newTestOllama(t, srv.URL, 4)
	_, err := o.Embed(context.Background(), []string{"hello"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
	assert.Contains(t, err.Error(), "not found")
}

func TestNewOllamaValidates(t *testing.T) {
	_, err := NewOllama(OllamaConfig{Model: "m", Dimension: 1})
	assert.Error(t, err)
	_, err = NewOllama(OllamaConfig{BaseURL: "http://x", Dimension: 1})
	assert.Error(t, err)
	_, err = NewOllama(OllamaConfig{BaseURL: "http://x", Model: "m"})
	assert.Error(t, err)
}

func TestCacheEvicts(t *testing.T) {
	c := NewCache(2)
	c.Add("a", []float32{1})
	c.Add("b", []float32{2})
	c.Add("c", []float32{3})

	assert.Equal(t, 2, c.Len())
	_, ok := c.Get("a")
	assert.False(t, ok)
	v, ok := c.Get("c")
	require.True(t, ok)
	assert.Equal(t, []float32{3}, v)
}

func TestCacheKeyDependsOnModel(t *testing.T) {
	assert.NotEqual(t, CacheKey("m1", "text"), CacheKey("m2", "text"))
	assert.Equal(t, CacheKey("m1", "text"), CacheKey("m1", "text"))
}
