// Package vectorstore stores chunk embeddings in a Qdrant collection over its REST API.
package vectorstore

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Distance is a Qdrant distance metric name.
type Distance string

const (
	DistanceCosine Distance = "Cosine"
	DistanceDot    Distance = "Dot"
	DistanceEuclid Distance = "Euclid"
)

// DefaultBatchSize is the number of points sent per upsert request.
const DefaultBatchSize = 64

// ErrCollectionDimension is returned when an existing collection has a different vector size.
var ErrCollectionDimension = errors.New("collection vector size does not match embedding dimension")

// APIError is a non-2xx response from Qdrant.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("qdrant API error: %d %s", e.StatusCode, strings.TrimSpace(e.Body))
}

func isNotFound(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}

// Point is one vector with its payload.
type Point struct {
	ID      string         `json:"id"`
	Vector  []float32      `json:"vector"`
	Payload map[string]any `json:"payload"`
}

// QdrantClient talks to one collection.
type QdrantClient struct {
	baseURL    string
	collection string
	batchSize  int
	httpClient *http.Client
}

// QdrantConfig configures NewQdrantClient.
type QdrantConfig struct {
	URL        string
	Collection string
	Timeout    time.Duration
	BatchSize  int
	Client     *http.Client
}

// NewQdrantClient validates cfg and returns a client.
func NewQdrantClient(cfg QdrantConfig) (*QdrantClient, error) {
	if strings.TrimSpace(cfg.URL) == "" {
		return nil, fmt.Errorf("qdrant url is required")
	}
	if strings.TrimSpace(cfg.Collection) == "" {
		return nil, fmt.Errorf("qdrant collection is required")
	}
	batch := cfg.BatchSize
	if batch <= 0 {
		batch = DefaultBatchSize
	}
	client := cfg.Client
	if client == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 30 * time.Second
		}
		client = &http.Client{Timeout: timeout}
	}
	return &QdrantClient{
		baseURL:    strings.TrimRight(cfg.URL, "/"),
		collection: cfg.Collection,
		batchSize:  batch,
		httpClient: client,
	}, nil
}

func (c *QdrantClient) Collection() string {
	return c.collection
}

// EnsureCollection creates the collection when it does not exist.
func (c *QdrantClient) EnsureCollection(ctx context.Context, dimension int, distance Distance) error {
	if dimension <= 0 {
		return fmt.Errorf("invalid vector dimension: %d", dimension)
	}
	exists, currentDim, err := c.collectionDimension(ctx)
	if err != nil {
		return err
	}
	if !exists {
		return c.createCollection(ctx, dimension, distance)
	}
	if currentDim > 0 && currentDim != dimension {
		return fmt.Errorf("%w: %s has %d, embedder declares %d", ErrCollectionDimension, c.collection, currentDim, dimension)
	}
	return nil
}

// RecreateCollection drops the collection, if present, and creates it empty.
func (c *QdrantClient) RecreateCollection(ctx context.Context, dimension int, distance Distance) error {
	if dimension <= 0 {
		return fmt.Errorf("invalid vector dimension: %d", dimension)
	}
	if err := c.deleteCollection(ctx); err != nil && !isNotFound(err) {
		return err
	}
	return c.createCollection(ctx, dimension, distance)
}

// DeleteBySource removes every point whose metadata.source equals source.
func (c *QdrantClient) DeleteBySource(ctx context.Context, source string) error {
	if source == "" {
		return nil
	}
	reqBody := map[string]any{
		"filter": map[string]any{
			"must": []map[string]any{
				{
					"key":   "metadata.source",
					"match": map[string]any{"value": source},
				},
			},
		},
	}
	return c.doRequest(ctx, http.MethodPost, c.collectionPath("/points/delete?wait=true"), reqBody, nil)
}

// Upsert writes points in batches.
func (c *QdrantClient) Upsert(ctx context.Context, points []Point) error {
	for start := 0; start < len(points); start += c.batchSize {
		end := min(start+c.batchSize, len(points))
		reqBody := map[string]any{"points": points[start:end]}
		if err := c.doRequest(ctx, http.MethodPut, c.collectionPath("/points?wait=true"), reqBody, nil); err != nil {
			return fmt.Errorf("upsert points %d-%d: %w", start, end-1, err)
		}
	}
	return nil
}

func (c *QdrantClient) collectionPath(suffix string) string {
	return "/collections/" + url.PathEscape(c.collection) + suffix
}

func (c *QdrantClient) collectionDimension(ctx context.Context) (bool, int, error) {
	var resp struct {
		Result struct {
			Config struct {
				Params struct {
					Vectors struct {
						Size int `json:"size"`
					} `json:"vectors"`
				} `json:"params"`
			} `json:"config"`
		} `json:"result"`
	}

	err := c.doRequest(ctx, http.MethodGet, c.collectionPath(""), nil, &resp)
	if isNotFound(err) {
		return false, 0, nil
	}
	if err != nil {
		return false, 0, err
	}
	return true, resp.Result.Config.Params.Vectors.Size, nil
}

func (c *QdrantClient) createCollection(ctx context.Context, dimension int, distance Distance) error {
	if distance == "" {
		distance = DistanceCosine
	}
	reqBody := map[string]any{
		"vectors": map[string]any{
			"size":     dimension,
			"distance": distance,
		},
	}
	return c.doRequest(ctx, http.MethodPut, c.collectionPath(""), reqBody, nil)
}

func (c *QdrantClient) deleteCollection(ctx context.Context) error {
	return c.doRequest(ctx, http.MethodDelete, c.collectionPath(""), nil, nil)
}

func (c *QdrantClient) doRequest(ctx context.Context, method, path string, body any, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal qdrant request: %w", err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("create qdrant request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("qdrant request failed: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read qdrant response: %w", err)
	}
	if resp.StatusCode >= 300 {
		return &APIError{StatusCode: resp.StatusCode, Body: string(data)}
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("parse qdrant response: %w", err)
	}
	return nil
}
