package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
)

type ollamaRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

type ollamaResponse struct {
	Embedding []float32 `json:"embedding"`
}

// Ollama embeds text through an Ollama server's /api/embeddings endpoint.
type Ollama struct {
	baseURL   string
	model     string
	dimension int
	client    *http.Client
	cache     *Cache
	logger    *slog.Logger
}

// OllamaConfig configures NewOllama.
type OllamaConfig struct {
	BaseURL   string
	Model     string
	Dimension int
	Timeout   time.Duration
	CacheSize int
	Client    *http.Client
	Logger    *slog.Logger
}

// NewOllama validates cfg and returns an Ollama embedder.
func NewOllama(cfg OllamaConfig) (*Ollama, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, fmt.Errorf("ollama base url is empty")
	}
	if strings.TrimSpace(cfg.Model) == "" {
		return nil, fmt.Errorf("embedding model is empty")
	}
	if cfg.Dimension <= 0 {
		return nil, fmt.Errorf("embedding dimension must be greater than zero")
	}
	client := cfg.Client
	if client == nil {
		client = &http.Client{Timeout: cfg.Timeout}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Ollama{
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		model:     cfg.Model,
		dimension: cfg.Dimension,
		client:    client,
		cache:     NewCache(cfg.CacheSize),
		logger:    logger,
	}, nil
}

func (o *Ollama) Dimension() int { return o.dimension }

func (o *Ollama) Model() string { return o.model }

// Embed requests one embedding per text. Repeated texts are served from the cache.
func (o *Ollama) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	hits := 0
	for i, text := range texts {
		key := CacheKey(o.model, text)
		if vec, ok := o.cache.Get(key); ok {
			out[i] = vec
			hits++
			continue
		}
		vec, err := o.embedOne(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("embed text %d: %w", i, err)
		}
		o.cache.Add(key, vec)
		out[i] = vec
	}
	o.logger.Debug("embedded texts", "count", len(texts), "cache_hits", hits, "model", o.model)
	return out, nil
}

func (o *Ollama) embedOne(ctx context.Context, text string) ([]float32, error) {
	body, err := json.Marshal(ollamaRequest{Model: o.model, Prompt: text})
	if err != nil {
		return nil, fmt.Errorf("marshal embedding request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.baseURL+"/api/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create embedding request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := o.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("embedding request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read embedding response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("embedding request failed: %s: %s", resp.Status, strings.TrimSpace(string(raw)))
	}

	var parsed ollamaResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("parse embedding response: %w", err)
	}
	if len(parsed.Embedding) == 0 {
		return nil, ErrEmptyEmbedding
	}
	if len(parsed.Embedding) != o.dimension {
		return nil, fmt.Errorf("%w: model %s returned %d values, expected %d",
			ErrDimensionMismatch, o.model, len(parsed.Embedding), o.dimension)
	}
	return parsed.Embedding, nil
}
