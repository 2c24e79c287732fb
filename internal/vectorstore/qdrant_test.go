package vectorstore

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mwiater/docindex/internal/ingest"
)

type recordedRequest struct {
	Method string
	Path   string
	Query  string
	Body   map[string]any
}

// fakeQdrant keeps just enough collection state to exercise the client.
type fakeQdrant struct {
	mu       sync.Mutex
	requests []recordedRequest
	exists   bool
	size     int
	points   map[string]map[string]any
	failPut  bool
}

func newFakeQdrant() *fakeQdrant {
	return &fakeQdrant{points: map[string]map[string]any{}}
}

func (f *fakeQdrant) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	raw, _ := io.ReadAll(r.Body)
	var body map[string]any
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &body)
	}
	f.requests = append(f.requests, recordedRequest{Method: r.Method, Path: r.URL.Path, Query: r.URL.RawQuery, Body: body})

	switch {
	case r.URL.Path == "/collections/docs" && r.Method == http.MethodGet:
		if !f.exists {
			http.Error(w, `{"status":{"error":"Not found: Collection docs doesn't exist!"}}`, http.StatusNotFound)
			return
		}
		_, _ = io.WriteString(w, `{"result":{"config":{"params":{"vectors":{"size":`+itoa(f.size)+`,"distance":"Cosine"}}}}}`)
	case r.URL.Path == "/collections/docs" && r.Method == http.MethodPut:
		vectors := body["vectors"].(map[string]any)
		f.exists = true
		f.size = int(vectors["size"].(float64))
		_, _ = io.WriteString(w, `{"result":true}`)
	case r.URL.Path == "/collections/docs" && r.Method == http.MethodDelete:
		if !f.exists {
			http.Error(w, `{"status":{"error":"Not found"}}`, http.StatusNotFound)
			return
		}
		f.exists = false
		f.points = map[string]map[string]any{}
		_, _ = io.WriteString(w, `{"result":true}`)
	case r.URL.Path == "/collections/docs/points" && r.Method == http.MethodPut:
		if f.failPut {
			http.Error(w, `{"status":{"error":"Wrong input: Vector dimension error"}}`, http.StatusBadRequest)
			return
		}
		for _, p := range body["points"].([]any) {
			point := p.(map[string]any)
			f.points[point["id"].(string)] = point["payload"].(map[string]any)
		}
		_, _ = io.WriteString(w, `{"result":{"status":"completed"}}`)
	case r.URL.Path == "/collections/docs/points/delete" && r.Method == http.MethodPost:
		source := sourceFromFilter(body)
		for id, payload := range f.points {
			meta := payload["metadata"].(map[string]any)
			if meta["source"] == source {
				delete(f.points, id)
			}
		}
		_, _ = io.WriteString(w, `{"result":{"status":"completed"}}`)
	default:
		http.Error(w, "unexpected request", http.StatusTeapot)
	}
}

func (f *fakeQdrant) methods() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.requests))
	for i, r := range f.requests {
		out[i] = r.Method + " " + r.Path
	}
	return out
}

func sourceFromFilter(body map[string]any) string {
	must := body["filter"].(map[string]any)["must"].([]any)
	cond := must[0].(map[string]any)
	if cond["key"] != "metadata.source" {
		return ""
	}
	return cond["match"].(map[string]any)["value"].(string)
}

func itoa(n int) string {
	b, _ := json.Marshal(n)
	return string(b)
}

func newTestClient(t *testing.T, srv *httptest.Server, batch int) *QdrantClient {
	t.Helper()
	c, err := NewQdrantClient(QdrantConfig{URL: srv.URL + "/", Collection: "docs", BatchSize: batch, Timeout: 5 * time.Second})
	require.NoError(t, err)
	return c
}

func TestEnsureCollectionCreatesWhenMissing(t *testing.T) {
	fake := newFakeQdrant()
	srv := httptest.NewServer(fake)
	defer srv.Close()

	c := newTestClient(t, srv, 0)
	require.NoError(t, c.EnsureCollection(context.Background(), 768, DistanceCosine))
	assert.Equal(t, []string{"GET /collections/docs", "PUT /collections/docs"}, fake.methods())

	vectors := fake.requests[1].Body["vectors"].(map[string]any)
	assert.Equal(t, float64(768), vectors["size"])
	assert.Equal(t, "Cosine", vectors["distance"])

	require.NoError(t, c.EnsureCollection(context.Background(), 768, DistanceCosine))
	assert.Len(t, fake.methods(), 3, "existing collection is left alone")
}

func TestEnsureCollectionDimensionMismatch(t *testing.T) {
	fake := newFakeQdrant()
	fake.exists, fake.size = true, 384
	srv := httptest.NewServer(fake)
	defer srv.Close()

	err := newTestClient(t, srv, 0).EnsureCollection(context.Background(), 768, DistanceCosine)
	assert.ErrorIs(t, err, ErrCollectionDimension)
}

func TestEnsureCollectionServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer srv.Close()

	err := newTestClient(t, srv, 0).EnsureCollection(context.Background(), 768, DistanceCosine)
	require.Error(t, err)
	var apiErr *APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusInternalServerError, apiErr.StatusCode)
}

func TestRecreateCollectionIgnoresMissing(t *testing.T) {
	fake := newFakeQdrant()
	srv := httptest.NewServer(fake)
	defer srv.Close()

	require.NoError(t, newTestClient(t, srv, 0).RecreateCollection(context.Background(), 8, DistanceCosine))
	assert.Equal(t, []string{"DELETE /collections/docs", "PUT /collections/docs"}, fake.methods())
	assert.True(t, fake.exists)
}

func TestUpsertBatches(t *testing.T) {
	fake := newFakeQdrant()
	fake.exists, fake.size = true, 2
	srv := httptest.NewServer(fake)
	defer srv.Close()

	var points []Point
	for i := 0; i < 5; i++ {
		points = append(points, Point{
			ID:      PointID("a.md", i),
			Vector:  []float32{1, 0},
			Payload: Payload(ingest.Chunk{Source: "a.md", ChunkIndex: i}),
		})
	}
	require.NoError(t, newTestClient(t, srv, 2).Upsert(context.Background(), points))

	assert.Len(t, fake.requests, 3)
	for _, r := range fake.requests {
		assert.Equal(t, "wait=true", r.Query)
	}
	assert.Len(t, fake.points, 5)
}

func TestUpsertReportsAPIError(t *testing.T) {
	fake := newFakeQdrant()
	fake.failPut = true
	srv := httptest.NewServer(fake)
	defer srv.Close()

	err := newTestClient(t, srv, 0).Upsert(context.Background(), []Point{{ID: PointID("a.md", 0), Vector: []float32{1}}})
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "400"), err.Error())
}

func TestNewQdrantClientValidates(t *testing.T) {
	_, err := NewQdrantClient(QdrantConfig{Collection: "docs"})
	assert.Error(t, err)
	_, err = NewQdrantClient(QdrantConfig{URL: "http://localhost:6333"})
	assert.Error(t, err)
}
