package vectorstore

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/mwiater/docindex/internal/embedding"
	"github.com/mwiater/docindex/internal/ingest"
)

// DocumentIndexer embeds chunks and writes them to Qdrant.
type DocumentIndexer struct {
	client   *QdrantClient
	embedder embedding.Embedder
	distance Distance
	logger   *slog.Logger
}

// NewDocumentIndexer returns an indexer using cosine distance.
func NewDocumentIndexer(client *QdrantClient, embedder embedding.Embedder, logger *slog.Logger) *DocumentIndexer {
	if logger == nil {
		logger = slog.Default()
	}
	return &DocumentIndexer{
		client:   client,
		embedder: embedder,
		distance: DistanceCosine,
		logger:   logger,
	}
}

// EnsureCollection creates the collection sized for the embedder. With
// recreate, a collection of the wrong vector size is dropped and rebuilt.
func (d *DocumentIndexer) EnsureCollection(ctx context.Context, recreate bool) error {
	err := d.client.EnsureCollection(ctx, d.embedder.Dimension(), d.distance)
	if recreate && errors.Is(err, ErrCollectionDimension) {
		d.logger.Warn("collection size differs from embedder, recreating", "collection", d.client.Collection(), "dimension", d.embedder.Dimension())
		return d.client.RecreateCollection(ctx, d.embedder.Dimension(), d.distance)
	}
	return err
}

// IndexDocuments embeds every chunk, then replaces the stored points.
// With recreate the whole collection is rebuilt; otherwise the points of every
// source in sources, and of any other source present in chunks, are removed
// before the upsert. A source with no chunks is only removed.
func (d *DocumentIndexer) IndexDocuments(ctx context.Context, sources []string, chunks []ingest.Chunk, recreate bool) error {
	if len(sources) == 0 && len(chunks) == 0 {
		return nil
	}

	var vectors [][]float32
	if len(chunks) > 0 {
		texts := make([]string, len(chunks))
		for i, c := range chunks {
			texts[i] = c.Text
		}
		start := time.Now()
		var err error
		vectors, err = d.embedder.Embed(ctx, texts)
		if err != nil {
			return err
		}
		if len(vectors) != len(chunks) {
			return fmt.Errorf("embedder returned %d vectors for %d chunks", len(vectors), len(chunks))
		}
		d.logger.Info("chunks embedded", "chunks", len(chunks), "model", d.embedder.Model(), "elapsed", time.Since(start).Truncate(time.Millisecond))
	}

	if recreate {
		if err := d.client.RecreateCollection(ctx, d.embedder.Dimension(), d.distance); err != nil {
			return fmt.Errorf("recreate collection: %w", err)
		}
	} else {
		for _, source := range staleSources(sources, chunks) {
			if err := d.client.DeleteBySource(ctx, source); err != nil {
				return fmt.Errorf("delete stale points for %s: %w", source, err)
			}
		}
	}
	if len(chunks) == 0 {
		d.logger.Info("stored points removed", "collection", d.client.Collection(), "sources", len(sources))
		return nil
	}

	points := make([]Point, len(chunks))
	for i, c := range chunks {
		points[i] = Point{
			ID:      PointID(c.Source, c.ChunkIndex),
			Vector:  vectors[i],
			Payload: Payload(c),
		}
	}
	if err := d.client.Upsert(ctx, points); err != nil {
		return err
	}
	d.logger.Info("points upserted", "collection", d.client.Collection(), "points", len(points))
	return nil
}

// PointID is a stable UUID for chunk index of source.
func PointID(source string, index int) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(source+"#"+strconv.Itoa(index))).String()
}

// Payload lays the chunk out as a LangChain document.
func Payload(c ingest.Chunk) map[string]any {
	return map[string]any{
		"page_content": c.Text,
		"metadata": map[string]any{
			"source":       c.Source,
			"file_type":    c.FileType,
			"chunk_index":  c.ChunkIndex,
			"total_chunks": c.TotalChunks,
			"ingested_at":  c.IngestedAt.UTC().Format(time.RFC3339),
		},
	}
}

// staleSources lists sources followed by any chunk source not already named, without duplicates.
func staleSources(sources []string, chunks []ingest.Chunk) []string {
	seen := make(map[string]struct{}, len(sources))
	var out []string
	add := func(source string) {
		if _, ok := seen[source]; ok {
			return
		}
		seen[source] = struct{}{}
		out = append(out, source)
	}
	for _, s := range sources {
		add(s)
	}
	for _, c := range chunks {
		add(c.Source)
	}
	return out
}
