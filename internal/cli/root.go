// internal/cli/root.go
package docindex

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/mwiater/docindex/internal/appconfig"
	"github.com/mwiater/docindex/internal/embedding"
	"github.com/mwiater/docindex/internal/ingest"
	"github.com/mwiater/docindex/internal/logging"
	"github.com/mwiater/docindex/internal/splitter"
	"github.com/mwiater/docindex/internal/vectorstore"
)

var (
	cfgFile       string
	force         bool
	currentConfig *appconfig.Config
	logger        = slog.Default()
	appVersion    = "dev"
	appCommit     = "none"
	appDate       = "unknown"
)

// newStore builds the embedding and vector store backends for a run.
var newStore = func(cfg appconfig.Config, log *slog.Logger) (ingest.DocumentStore, error) {
	embedder, err := embedding.NewOllama(embedding.OllamaConfig{
		BaseURL:   cfg.OllamaURL,
		Model:     cfg.EmbeddingModel,
		Dimension: cfg.EmbeddingDimension,
		Timeout:   cfg.RequestTimeout(),
		CacheSize: cfg.EmbeddingCacheSize,
		Logger:    log,
	})
	if err != nil {
		return nil, err
	}
	client, err := vectorstore.NewQdrantClient(vectorstore.QdrantConfig{
		URL:        cfg.QdrantURL,
		Collection: cfg.Collection,
		Timeout:    cfg.RequestTimeout(),
		BatchSize:  cfg.UpsertBatchSize,
	})
	if err != nil {
		return nil, err
	}
	return vectorstore.NewDocumentIndexer(client, embedder, log), nil
}

// rootCmd runs one ingestion pass when called without a subcommand.
var rootCmd = &cobra.Command{
	Use:   "docindex",
	Short: "Incremental documentation ingestion into Qdrant",
	Long: `docindex scans the docs directory, splits changed files into chunks, embeds them
with Ollama and upserts them into a Qdrant collection. Unchanged files are skipped
using the ingestion ledger.`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := ensureConfigLoaded(); err != nil {
			return err
		}

		if !cmd.Flags().Changed("debug") {
			_ = cmd.Flags().Set("debug", strconv.FormatBool(viper.GetBool("debug")))
		}

		cfg, err := appconfig.FromViper(viper.GetViper())
		if err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return fmt.Errorf("invalid configuration: %w", err)
		}
		currentConfig = &cfg

		l, err := logging.Init(cfg.LogFilePath(), cfg.Debug)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}
		logger = l
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runIngest(cmd.Context(), cmd.OutOrStdout(), *currentConfig, force)
	},
}

func runIngest(ctx context.Context, out io.Writer, cfg appconfig.Config, force bool) error {
	store, err := newStore(cfg, logger)
	if err != nil {
		return err
	}

	fmt.Fprintln(out, renderBanner(cfg, force))
	orch := ingest.NewOrchestrator(cfg.DocsDir, cfg.LedgerPath, splitter.New(), store,
		ingest.WithReporter(newConsoleReporter(out)),
		ingest.WithLogger(logger),
	)
	logger.Info("ingestion started", "docs", cfg.DocsDir, "collection", cfg.Collection, "force", force)
	summary, err := orch.Run(ctx, ingest.Options{Force: force})
	if err != nil {
		logger.Error("ingestion failed", "error", err)
		return err
	}
	summary.Collection = cfg.Collection
	fmt.Fprintln(out, renderSummary(summary))
	return nil
}

// Execute runs the root command. It is called by main.main().
func Execute() {
	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", appVersion, appCommit, appDate)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	_ = logging.Close()
	if err != nil {
		fmt.Fprintln(os.Stderr, errorText(err))
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	appconfig.SetDefaults(viper.GetViper())

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file (default: ./docindex.yaml or ./config/docindex.yaml if present)")
	rootCmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	rootCmd.Flags().BoolVarP(&force, "force", "f", false, "re-ingest every file and recreate the collection")

	_ = viper.BindPFlag("debug", rootCmd.PersistentFlags().Lookup("debug"))
}

// initConfig points viper at the config file, or at the default search paths.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
		return
	}
	viper.SetConfigName("docindex")
	viper.AddConfigPath(".")
	viper.AddConfigPath("config")
}

// ensureConfigLoaded reads the config file. A missing file is only an error when it was named explicitly.
func ensureConfigLoaded() error {
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("failed to load config: %w", err)
	}
	return nil
}

// GetConfig returns the loaded application configuration for other packages.
func GetConfig() *appconfig.Config {
	return currentConfig
}

// DebugEnabled returns true if debug mode is enabled.
func DebugEnabled() bool { return viper.GetBool("debug") }

// SetVersionInfo allows the main package to inject build-time variables.
func SetVersionInfo(version, commit, date string) {
	appVersion = version
	appCommit = commit
	appDate = date
}
