package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// Config is the full application configuration.
type Config struct {
	Storage    StorageConfig    `koanf:"storage"`
	Vectors    VectorsConfig    `koanf:"vectors"`
	Embeddings EmbeddingsConfig `koanf:"embeddings"`
	Generation GenerationConfig `koanf:"generation"`
	Chunking   ChunkingConfig   `koanf:"chunking"`
	Retrieval  RetrievalConfig  `koanf:"retrieval"`
	Upload     UploadConfig     `koanf:"upload"`
	Logging    LoggingConfig    `koanf:"logging"`
}

// StorageConfig selects and locates the metadata backend.
type StorageConfig struct {
	// Backend is "sqlite" or "memory".
	Backend string `koanf:"backend"`
	DataDir string `koanf:"data_dir"`
}

// VectorsConfig locates the on-disk vector index.
type VectorsConfig struct {
	Path     string `koanf:"path"`
	Compress bool   `koanf:"compress"`
}

// EmbeddingsConfig configures the embedding provider.
type EmbeddingsConfig struct {
	BaseURL     string        `koanf:"base_url"`
	APIKey      string        `koanf:"api_key"`
	Model       string        `koanf:"model"`
	Timeout     time.Duration `koanf:"timeout"`
	BatchSize   int           `koanf:"batch_size"`
	Concurrency int           `koanf:"concurrency"`
	Dimension   int           `koanf:"dimension"`
}

// GenerationConfig configures the chat-completion provider.
type GenerationConfig struct {
	BaseURL       string        `koanf:"base_url"`
	APIKey        string        `koanf:"api_key"`
	Model         string        `koanf:"model"`
	Timeout       time.Duration `koanf:"timeout"`
	MaxTokens     int           `koanf:"max_tokens"`
	Temperature   float64       `koanf:"temperature"`
	ContextBudget int           `koanf:"context_budget"`
}

// ChunkingConfig sets the chunk window geometry.
type ChunkingConfig struct {
	ChunkSize int `koanf:"chunk_size"`
	Overlap   int `koanf:"overlap"`
}

// RetrievalConfig sets how many chunks a question retrieves.
type RetrievalConfig struct {
	TopK int `koanf:"top_k"`
}

// UploadConfig bounds incoming files.
type UploadConfig struct {
	MaxBytes int64 `koanf:"max_bytes"`
}

// LoggingConfig controls the zap logger.
type LoggingConfig struct {
	// Level is one of debug, info, warn, error.
	Level string `koanf:"level"`
	// Format is "json" or "console".
	Format string `koanf:"format"`
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".pdfquery"
	}
	return filepath.Join(home, ".pdfquery")
}

func applyDefaults(cfg *Config) {
	if cfg.Storage.Backend == "" {
		cfg.Storage.Backend = "sqlite"
	}
	if cfg.Storage.DataDir == "" {
		cfg.Storage.DataDir = defaultDataDir()
	}
	if cfg.Vectors.Path == "" {
		cfg.Vectors.Path = filepath.Join(cfg.Storage.DataDir, "vectors")
	}

	if cfg.Embeddings.APIKey == "" {
		cfg.Embeddings.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if cfg.Embeddings.Model == "" {
		cfg.Embeddings.Model = "text-embedding-3-small"
	}
	if cfg.Embeddings.Timeout <= 0 {
		cfg.Embeddings.Timeout = 60 * time.Second
	}
	if cfg.Embeddings.BatchSize <= 0 {
		cfg.Embeddings.BatchSize = 64
	}
	if cfg.Embeddings.Concurrency <= 0 {
		cfg.Embeddings.Concurrency = 4
	}

	if cfg.Generation.APIKey == "" {
		cfg.Generation.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if cfg.Generation.Model == "" {
		cfg.Generation.Model = "gpt-4o-mini"
	}
	if cfg.Generation.Timeout <= 0 {
		cfg.Generation.Timeout = 60 * time.Second
	}
	if cfg.Generation.MaxTokens <= 0 {
		cfg.Generation.MaxTokens = 512
	}
	if cfg.Generation.ContextBudget <= 0 {
		cfg.Generation.ContextBudget = 6000
	}

	if cfg.Chunking.ChunkSize <= 0 {
		cfg.Chunking.ChunkSize = 1000
	}
	if cfg.Chunking.Overlap <= 0 {
		cfg.Chunking.Overlap = 200
	}

	if cfg.Retrieval.TopK <= 0 {
		cfg.Retrieval.TopK = 4
	}
	if cfg.Upload.MaxBytes <= 0 {
		cfg.Upload.MaxBytes = 10 << 20
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "console"
	}
}

// Validate reports the first configuration problem found.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case "sqlite", "memory":
	default:
		return fmt.Errorf("storage.backend must be sqlite or memory, got %q", c.Storage.Backend)
	}

	if c.Chunking.ChunkSize <= 0 {
		return fmt.Errorf("chunking.chunk_size must be positive, got %d", c.Chunking.ChunkSize)
	}
	if c.Chunking.Overlap >= c.Chunking.ChunkSize {
		return fmt.Errorf("chunking.overlap (%d) must be smaller than chunk_size (%d)",
			c.Chunking.Overlap, c.Chunking.ChunkSize)
	}
	if c.Retrieval.TopK <= 0 {
		return fmt.Errorf("retrieval.top_k must be positive, got %d", c.Retrieval.TopK)
	}
	if c.Upload.MaxBytes <= 0 {
		return fmt.Errorf("upload.max_bytes must be positive, got %d", c.Upload.MaxBytes)
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be debug, info, warn or error, got %q", c.Logging.Level)
	}
	switch c.Logging.Format {
	case "json", "console":
	default:
		return fmt.Errorf("logging.format must be json or console, got %q", c.Logging.Format)
	}
	return nil
}
