package ingest

import (
	"context"
	"errors"
	"time"

	"github.com/mwiater/docindex/internal/splitter"
)

// ErrNotUTF8 is returned for files whose bytes are not valid UTF-8.
var ErrNotUTF8 = errors.New("file is not valid UTF-8")

// Chunk is one piece of a source file with its provenance.
type Chunk struct {
	Text        string
	Source      string
	FileType    string
	ChunkIndex  int
	TotalChunks int
	IngestedAt  time.Time
}

// Splitter cuts text into chunks.
type Splitter interface {
	Split(text string, p splitter.Params) ([]string, error)
}

// DocumentStore embeds and stores chunks.
//
// EnsureCollection with recreate set must not fail on a collection whose
// vector size no longer matches. IndexDocuments replaces the stored points of
// every source in sources, including sources that contributed no chunks.
type DocumentStore interface {
	EnsureCollection(ctx context.Context, recreate bool) error
	IndexDocuments(ctx context.Context, sources []string, chunks []Chunk, recreate bool) error
}

// Reporter receives user facing progress.
type Reporter interface {
	Stage(msg string)
	FileIndexed(source string, chunks int)
	FileFailed(source string, err error)
}

// Status describes how a run ended.
type Status string

const (
	StatusBootstrapped Status = "bootstrapped"
	StatusNoFiles      Status = "no-files"
	StatusUpToDate     Status = "up-to-date"
	StatusIndexed      Status = "indexed"
)

// FileError is a per-file failure that did not stop the run.
type FileError struct {
	Source string
	Err    error
}

func (e FileError) Error() string {
	return e.Source + ": " + e.Err.Error()
}

func (e FileError) Unwrap() error {
	return e.Err
}

// Summary is the outcome of one run.
type Summary struct {
	Status        Status
	FilesFound    int
	FilesSelected int
	FilesIndexed  int
	FilesFailed   int
	Chunks        int
	Failures      []FileError
	Collection    string
	Duration      time.Duration
}

// Options control a run.
type Options struct {
	Force bool
}

type nopReporter struct{}

func (nopReporter) Stage(string)             {}
func (nopReporter) FileIndexed(string, int)  {}
func (nopReporter) FileFailed(string, error) {}
