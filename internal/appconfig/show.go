package appconfig

import (
	"fmt"
	"io"
)

// ShowConfig prints the current configuration summary.
func ShowConfig(out io.Writer, file string, cfg *Config) {
	if file == "" {
		fmt.Fprintln(out, "No config file loaded (using defaults).")
	} else {
		fmt.Fprintf(out, "Config file: %s\n\n", file)
	}

	if cfg == nil {
		d := Defaults()
		cfg = &d
	}

	fmt.Fprintln(out, "Current configuration:")
	fmt.Fprintf(out, "  Docs Dir:            %s\n", cfg.DocsDir)
	fmt.Fprintf(out, "  Ledger Path:         %s\n", cfg.LedgerPath)
	fmt.Fprintf(out, "  Ollama URL:          %s\n", cfg.OllamaURL)
	fmt.Fprintf(out, "  Embedding Model:     %s\n", cfg.EmbeddingModel)
	fmt.Fprintf(out, "  Embedding Dimension: %d\n", cfg.EmbeddingDimension)
	fmt.Fprintf(out, "  Embedding Cache:     %d\n", cfg.EmbeddingCacheSize)
	fmt.Fprintf(out, "  Qdrant URL:          %s\n", cfg.QdrantURL)
	fmt.Fprintf(out, "  Collection:          %s\n", cfg.Collection)
	fmt.Fprintf(out, "  Upsert Batch Size:   %d\n", cfg.UpsertBatchSize)
	fmt.Fprintf(out, "  Request Timeout:     %s\n", cfg.RequestTimeout())
	fmt.Fprintf(out, "  Log File:            %s\n", cfg.LogFilePath())
	fmt.Fprintf(out, "  Debug:               %v\n", cfg.Debug)
}
