// Package appconfig loads docindex settings from defaults, a config file, the environment and flags.
package appconfig

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment override, e.g. DOCINDEX_QDRANTURL.
const EnvPrefix = "DOCINDEX"

const (
	defaultDocsDir            = "docs"
	defaultLedgerPath         = "data/ingestion_metadata.json"
	defaultOllamaURL          = "http://localhost:11434"
	defaultEmbeddingModel     = "nomic-embed-text"
	defaultEmbeddingDimension = 768
	defaultQdrantURL          = "http://localhost:6333"
	defaultCollection         = "devops_docs"
	defaultTimeoutSeconds     = 120
	defaultUpsertBatchSize    = 64
	defaultEmbeddingCacheSize = 4096
	defaultLogFile            = "docindex.log"
)

// Config holds every runtime setting.
type Config struct {
	DocsDir            string `mapstructure:"docsDir"`
	LedgerPath         string `mapstructure:"ledgerPath"`
	OllamaURL          string `mapstructure:"ollamaURL"`
	EmbeddingModel     string `mapstructure:"embeddingModel"`
	EmbeddingDimension int    `mapstructure:"embeddingDimension"`
	QdrantURL          string `mapstructure:"qdrantURL"`
	Collection         string `mapstructure:"collection"`
	TimeoutSeconds     int    `mapstructure:"timeout"`
	UpsertBatchSize    int    `mapstructure:"upsertBatchSize"`
	EmbeddingCacheSize int    `mapstructure:"embeddingCacheSize"`
	LogFile            string `mapstructure:"logFile"`
	Debug              bool   `mapstructure:"debug"`
	ConfigPath         string `mapstructure:"-"`
}

// Defaults returns the configuration used when nothing overrides it.
func Defaults() Config {
	return Config{
		DocsDir:            defaultDocsDir,
		LedgerPath:         defaultLedgerPath,
		OllamaURL:          defaultOllamaURL,
		EmbeddingModel:     defaultEmbeddingModel,
		EmbeddingDimension: defaultEmbeddingDimension,
		QdrantURL:          defaultQdrantURL,
		Collection:         defaultCollection,
		TimeoutSeconds:     defaultTimeoutSeconds,
		UpsertBatchSize:    defaultUpsertBatchSize,
		EmbeddingCacheSize: defaultEmbeddingCacheSize,
		LogFile:            defaultLogFile,
	}
}

// SetDefaults registers every key with v and enables DOCINDEX_* environment overrides.
func SetDefaults(v *viper.Viper) {
	d := Defaults()
	v.SetDefault("docsDir", d.DocsDir)
	v.SetDefault("ledgerPath", d.LedgerPath)
	v.SetDefault("ollamaURL", d.OllamaURL)
	v.SetDefault("embeddingModel", d.EmbeddingModel)
	v.SetDefault("embeddingDimension", d.EmbeddingDimension)
	v.SetDefault("qdrantURL", d.QdrantURL)
	v.SetDefault("collection", d.Collection)
	v.SetDefault("timeout", d.TimeoutSeconds)
	v.SetDefault("upsertBatchSize", d.UpsertBatchSize)
	v.SetDefault("embeddingCacheSize", d.EmbeddingCacheSize)
	v.SetDefault("logFile", d.LogFile)
	v.SetDefault("debug", d.Debug)

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
}

// FromViper decodes the merged settings of v.
func FromViper(v *viper.Viper) (Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	cfg.ConfigPath = v.ConfigFileUsed()
	return cfg, nil
}

// Load reads the config file at path, if any, on top of the defaults.
func Load(path string) (Config, error) {
	v := viper.New()
	SetDefaults(v)
	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %q: %w", path, err)
		}
	}
	cfg, err := FromViper(v)
	if err != nil {
		return Config{}, err
	}
	return cfg, cfg.Validate()
}

// Validate reports the first setting that cannot work.
func (c Config) Validate() error {
	required := []struct {
		key, value string
	}{
		{"docsDir", c.DocsDir},
		{"ledgerPath", c.LedgerPath},
		{"ollamaURL", c.OllamaURL},
		{"embeddingModel", c.EmbeddingModel},
		{"qdrantURL", c.QdrantURL},
		{"collection", c.Collection},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return fmt.Errorf("%s is required", r.key)
		}
	}
	if c.EmbeddingDimension <= 0 {
		return fmt.Errorf("embeddingDimension must be greater than zero")
	}
	if c.UpsertBatchSize < 0 {
		return fmt.Errorf("upsertBatchSize must be zero or greater")
	}
	return nil
}

// RequestTimeout returns the HTTP timeout for service calls.
func (c Config) RequestTimeout() time.Duration {
	if c.TimeoutSeconds <= 0 {
		return defaultTimeoutSeconds * time.Second
	}
	return time.Duration(c.TimeoutSeconds) * time.Second
}

// LogFilePath returns the log file path, applying a default if not set.
func (c Config) LogFilePath() string {
	if path := c.LogFile; strings.TrimSpace(path) != "" {
		return path
	}
	return defaultLogFile
}
