package docindex

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/mwiater/docindex/internal/appconfig"
	"github.com/mwiater/docindex/internal/ingest"
	"github.com/mwiater/docindex/internal/util"
)

const (
	maxPathWidth  = 60
	maxErrorWidth = 160
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("212"))
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Width(16)
	valueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
	boxStyle   = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("63")).
			Padding(0, 1)
	warnStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("214"))
)

func kv(label, value string) string {
	return lipgloss.JoinHorizontal(lipgloss.Top, labelStyle.Render(label), valueStyle.Render(value))
}

func renderBanner(cfg appconfig.Config, force bool) string {
	mode := "incremental"
	if force {
		mode = "full (force)"
	}
	lines := []string{
		titleStyle.Render("docindex"),
		kv("Docs", cfg.DocsDir),
		kv("Embedding", fmt.Sprintf("%s (%d dims)", cfg.EmbeddingModel, cfg.EmbeddingDimension)),
		kv("Qdrant", cfg.QdrantURL+" / "+cfg.Collection),
		kv("Mode", mode),
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func statusText(s ingest.Status) string {
	switch s {
	case ingest.StatusBootstrapped:
		return "docs directory created"
	case ingest.StatusNoFiles:
		return "no files found"
	case ingest.StatusUpToDate:
		return "up to date"
	case ingest.StatusIndexed:
		return "indexed"
	}
	return string(s)
}

func renderSummary(s *ingest.Summary) string {
	lines := []string{
		titleStyle.Render("Ingestion summary"),
		kv("Status", statusText(s.Status)),
		kv("Files found", fmt.Sprint(s.FilesFound)),
		kv("Files selected", fmt.Sprint(s.FilesSelected)),
		kv("Files indexed", fmt.Sprint(s.FilesIndexed)),
		kv("Chunks", fmt.Sprint(s.Chunks)),
	}
	if s.Collection != "" {
		lines = append(lines, kv("Collection", s.Collection))
	}
	lines = append(lines, kv("Duration", s.Duration.Truncate(time.Millisecond).String()))
	if s.FilesFailed > 0 {
		lines = append(lines, warnStyle.Render(fmt.Sprintf("%d files failed and will be retried next run", s.FilesFailed)))
	}
	return boxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

func renderLedger(ledger *ingest.Ledger) string {
	rows := make([][]string, 0, len(ledger.Files))
	for _, e := range ledger.Entries() {
		indexed := "-"
		if !e.IndexedAt.IsZero() {
			indexed = e.IndexedAt.Local().Format("2006-01-02 15:04:05")
		}
		rows = append(rows, []string{util.TruncateMiddle(e.Path, maxPathWidth), fmt.Sprint(e.Chunks), indexed, shortHash(e.Hash)})
	}
	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(lipgloss.Color("240"))).
		Headers("FILE", "CHUNKS", "INDEXED AT", "HASH").
		Rows(rows...)

	last := "never"
	if ledger.LastIngestion != nil {
		last = ledger.LastIngestion.Local().Format(time.RFC1123)
	}
	footer := strings.Join([]string{
		kv("Files", fmt.Sprint(len(ledger.Files))),
		kv("Chunks", fmt.Sprint(ledger.TotalChunks())),
		kv("Last ingestion", last),
	}, "\n")
	return t.String() + "\n" + footer
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}
