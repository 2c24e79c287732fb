package ingest

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"
	"unicode/utf8"
)

// Orchestrator runs one incremental ingestion of a docs directory.
type Orchestrator struct {
	docsDir    string
	ledgerPath string
	splitter   Splitter
	store      DocumentStore
	reporter   Reporter
	logger     *slog.Logger
	now        func() time.Time
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithReporter sets the progress reporter.
func WithReporter(r Reporter) Option {
	return func(o *Orchestrator) { o.reporter = r }
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(o *Orchestrator) { o.logger = l }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) { o.now = now }
}

// NewOrchestrator wires an Orchestrator for docsDir and the ledger at ledgerPath.
func NewOrchestrator(docsDir, ledgerPath string, split Splitter, store DocumentStore, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		docsDir:    docsDir,
		ledgerPath: ledgerPath,
		splitter:   split,
		store:      store,
		reporter:   nopReporter{},
		logger:     slog.Default(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

type candidate struct {
	path   string
	source string
}

// Run performs one ingestion pass. Per-file problems are collected in the summary;
// only filesystem, ledger and service errors are returned.
func (o *Orchestrator) Run(ctx context.Context, opts Options) (*Summary, error) {
	start := o.now()
	summary := &Summary{}
	done := func(status Status) (*Summary, error) {
		summary.Status = status
		summary.Duration = o.now().Sub(start)
		return summary, nil
	}

	info, err := os.Stat(o.docsDir)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		if err := os.MkdirAll(o.docsDir, 0o755); err != nil {
			return nil, fmt.Errorf("create docs dir: %w", err)
		}
		o.reporter.Stage(fmt.Sprintf("Created %s. Add documentation files and run again.", o.docsDir))
		o.logger.Info("docs dir created", "path", o.docsDir)
		return done(StatusBootstrapped)
	case err != nil:
		return nil, fmt.Errorf("stat docs dir: %w", err)
	case !info.IsDir():
		return nil, fmt.Errorf("docs dir %s is not a directory", o.docsDir)
	}

	root, err := filepath.Abs(o.docsDir)
	if err != nil {
		return nil, fmt.Errorf("resolve docs dir: %w", err)
	}
	files, err := Scan(root, o.logger)
	if err != nil {
		return nil, err
	}
	summary.FilesFound = len(files)
	if len(files) == 0 {
		o.reporter.Stage(fmt.Sprintf("No documentation files found in %s", o.docsDir))
		return done(StatusNoFiles)
	}
	o.reporter.Stage(fmt.Sprintf("Found %d files", len(files)))

	ledger, err := LoadLedger(o.ledgerPath)
	if err != nil {
		return nil, err
	}

	var selected []candidate
	for _, path := range files {
		source, err := relSource(root, path)
		if err != nil {
			source = path
		}
		hash, err := HashFile(path)
		if err != nil {
			o.fail(summary, source, err)
			continue
		}
		if ledger.NeedsReindex(source, hash, opts.Force) {
			selected = append(selected, candidate{path: path, source: source})
		}
	}
	summary.FilesSelected = len(selected)
	if len(selected) == 0 {
		o.reporter.Stage("All files are up to date")
		o.logger.Info("nothing to ingest", "files", len(files))
		return done(StatusUpToDate)
	}
	o.reporter.Stage(fmt.Sprintf("%d files need indexing", len(selected)))

	if err := o.store.EnsureCollection(ctx, opts.Force); err != nil {
		return nil, fmt.Errorf("ensure collection: %w", err)
	}

	ingestedAt := o.now()
	var (
		chunks  []Chunk
		indexed []string
	)
	for _, c := range selected {
		fileChunks, hash, err := o.loadChunks(c, ingestedAt)
		if err != nil {
			o.fail(summary, c.source, err)
			continue
		}
		chunks = append(chunks, fileChunks...)
		indexed = append(indexed, c.source)
		ledger.Record(c.source, hash, len(fileChunks), ingestedAt)
		summary.FilesIndexed++
		o.reporter.FileIndexed(c.source, len(fileChunks))
		o.logger.Debug("file chunked", "source", c.source, "chunks", len(fileChunks))
	}
	summary.Chunks = len(chunks)

	if len(indexed) > 0 {
		if len(chunks) > 0 {
			o.reporter.Stage(fmt.Sprintf("Embedding and storing %d chunks", len(chunks)))
		} else {
			o.reporter.Stage(fmt.Sprintf("Removing stored chunks of %d files", len(indexed)))
		}
		if err := o.store.IndexDocuments(ctx, indexed, chunks, opts.Force); err != nil {
			return nil, fmt.Errorf("index documents: %w", err)
		}
	}

	ledger.LastIngestion = &Timestamp{o.now()}
	if err := ledger.Save(o.ledgerPath); err != nil {
		return nil, err
	}
	o.logger.Info("ingestion complete",
		"indexed", summary.FilesIndexed,
		"failed", summary.FilesFailed,
		"chunks", summary.Chunks,
	)
	return done(StatusIndexed)
}

// loadChunks reads, splits and annotates one file. The returned hash is of the bytes that were split.
func (o *Orchestrator) loadChunks(c candidate, at time.Time) ([]Chunk, string, error) {
	data, err := os.ReadFile(c.path)
	if err != nil {
		return nil, "", fmt.Errorf("read file: %w", err)
	}
	if !utf8.Valid(data) {
		return nil, "", ErrNotUTF8
	}

	tag := Classify(c.path)
	texts, err := o.splitter.Split(string(data), PolicyFor(tag).Params())
	if err != nil {
		return nil, "", fmt.Errorf("split: %w", err)
	}

	chunks := make([]Chunk, len(texts))
	for i, text := range texts {
		chunks[i] = Chunk{
			Text:        text,
			Source:      c.source,
			FileType:    tag,
			ChunkIndex:  i,
			TotalChunks: len(texts),
			IngestedAt:  at,
		}
	}
	return chunks, HashBytes(data), nil
}

func (o *Orchestrator) fail(summary *Summary, source string, err error) {
	fe := FileError{Source: source, Err: err}
	summary.Failures = append(summary.Failures, fe)
	summary.FilesFailed++
	o.reporter.FileFailed(source, err)
	o.logger.Warn("file skipped", "source", source, "error", err)
}
