package ingest

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/xeipuuv/gojsonschema"
)

// ErrLedgerInvalid is returned when the ledger file exists but cannot be trusted.
var ErrLedgerInvalid = errors.New("ingestion ledger is invalid")

// Timestamp is a time that also decodes ISO 8601 values written without a zone offset.
// Such values are read as UTC.
type Timestamp struct {
	time.Time
}

var zonelessLayouts = []string{
	"2006-01-02T15:04:05.999999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999999",
}

// MarshalJSON writes RFC 3339 in UTC.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.UTC().Format(time.RFC3339Nano))
}

// UnmarshalJSON accepts RFC 3339 and zoneless ISO 8601.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if parsed, err := time.Parse(time.RFC3339Nano, s); err == nil {
		t.Time = parsed
		return nil
	}
	for _, layout := range zonelessLayouts {
		if parsed, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("unrecognized timestamp %q", s)
}

// LedgerEntry is the last successful indexing of one file.
type LedgerEntry struct {
	Hash      string    `json:"hash"`
	Chunks    int       `json:"chunks"`
	IndexedAt Timestamp `json:"indexed_at"`
}

// Ledger maps relative source paths to their last indexed state.
type Ledger struct {
	Files         map[string]LedgerEntry `json:"files"`
	LastIngestion *Timestamp             `json:"last_ingestion"`
}

// NamedEntry pairs a ledger entry with its path.
type NamedEntry struct {
	Path string
	LedgerEntry
}

var ledgerSchema = map[string]any{
	"type":     "object",
	"required": []any{"files"},
	"properties": map[string]any{
		"files": map[string]any{
			"type": "object",
			"additionalProperties": map[string]any{
				"type":     "object",
				"required": []any{"hash", "chunks"},
				"properties": map[string]any{
					"hash":       map[string]any{"type": "string", "pattern": "^[0-9a-f]{64}$"},
					"chunks":     map[string]any{"type": "integer", "minimum": 0},
					"indexed_at": map[string]any{"type": "string"},
				},
			},
		},
		"last_ingestion": map[string]any{"type": []any{"string", "null"}},
	},
}

// NewLedger returns an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{Files: map[string]LedgerEntry{}}
}

// LoadLedger reads the ledger at path. A missing file is an empty ledger.
func LoadLedger(path string) (*Ledger, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return NewLedger(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read ledger: %w", err)
	}
	if err := validateLedger(data); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrLedgerInvalid, path, err)
	}

	ledger := NewLedger()
	if err := json.Unmarshal(data, ledger); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrLedgerInvalid, path, err)
	}
	if ledger.Files == nil {
		ledger.Files = map[string]LedgerEntry{}
	}
	return ledger, nil
}

func validateLedger(data []byte) error {
	result, err := gojsonschema.Validate(gojsonschema.NewGoLoader(ledgerSchema), gojsonschema.NewBytesLoader(data))
	if err != nil {
		return fmt.Errorf("schema validation error: %w", err)
	}
	if result.Valid() {
		return nil
	}
	var details []string
	for _, desc := range result.Errors() {
		details = append(details, desc.String())
	}
	return fmt.Errorf("schema validation failed: %s", strings.Join(details, "; "))
}

// Save writes the ledger through a temp file renamed over path.
func (l *Ledger) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create ledger dir: %w", err)
	}

	data, err := json.MarshalIndent(l, "", "  ")
	if err != nil {
		return fmt.Errorf("encode ledger: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp ledger: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp ledger: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp ledger: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace ledger: %w", err)
	}
	return nil
}

// NeedsReindex reports whether path must be processed again.
func (l *Ledger) NeedsReindex(path, hash string, force bool) bool {
	if force {
		return true
	}
	entry, ok := l.Files[path]
	if !ok {
		return true
	}
	return entry.Hash != hash
}

// Record upserts the entry for path.
func (l *Ledger) Record(path, hash string, chunks int, at time.Time) {
	if l.Files == nil {
		l.Files = map[string]LedgerEntry{}
	}
	l.Files[path] = LedgerEntry{Hash: hash, Chunks: chunks, IndexedAt: Timestamp{at}}
}

// Entries returns the ledger entries sorted by path.
func (l *Ledger) Entries() []NamedEntry {
	out := make([]NamedEntry, 0, len(l.Files))
	for path, entry := range l.Files {
		out = append(out, NamedEntry{Path: path, LedgerEntry: entry})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

// TotalChunks sums the chunk counts of every entry.
func (l *Ledger) TotalChunks() int {
	total := 0
	for _, entry := range l.Files {
		total += entry.Chunks
	}
	return total
}
