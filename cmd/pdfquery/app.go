package main

import (
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/Divyansh-Atri/pdf-query/internal/chunker"
	"github.com/Divyansh-Atri/pdf-query/internal/config"
	"github.com/Divyansh-Atri/pdf-query/internal/embeddings"
	"github.com/Divyansh-Atri/pdf-query/internal/engine"
	"github.com/Divyansh-Atri/pdf-query/internal/extractor"
	"github.com/Divyansh-Atri/pdf-query/internal/generation"
	"github.com/Divyansh-Atri/pdf-query/internal/lifecycle"
	"github.com/Divyansh-Atri/pdf-query/internal/logging"
	"github.com/Divyansh-Atri/pdf-query/internal/pipeline"
	"github.com/Divyansh-Atri/pdf-query/internal/rag"
	"github.com/Divyansh-Atri/pdf-query/internal/storage"
	"github.com/Divyansh-Atri/pdf-query/internal/storage/memory"
	"github.com/Divyansh-Atri/pdf-query/internal/storage/sqlite"
	"github.com/Divyansh-Atri/pdf-query/internal/vectorstore"
)

// app holds the wired service and its resources for one CLI invocation.
type app struct {
	service *rag.Service
	store   storage.Store
	logger  *zap.Logger
	cfg     *config.Config
}

func defaultConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "pdfquery", "config.yaml")
}

func newApp() (*app, error) {
	path := configPath
	if path == "" {
		path = defaultConfigPath()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	logger, err := logging.New(cfg.Logging.Level, cfg.Logging.Format)
	if err != nil {
		return nil, err
	}

	var store storage.Store
	switch cfg.Storage.Backend {
	case "memory":
		store = memory.NewStore()
	default:
		store, err = sqlite.NewStore(cfg.Storage.DataDir)
		if err != nil {
			return nil, fmt.Errorf("opening storage: %w", err)
		}
	}

	embedder := embeddings.NewService(embeddings.Config{
		BaseURL:     cfg.Embeddings.BaseURL,
		APIKey:      cfg.Embeddings.APIKey,
		Model:       cfg.Embeddings.Model,
		Timeout:     cfg.Embeddings.Timeout,
		BatchSize:   cfg.Embeddings.BatchSize,
		Concurrency: cfg.Embeddings.Concurrency,
		Dimension:   cfg.Embeddings.Dimension,
	}, logger)

	index, err := vectorstore.NewIndex(vectorstore.Config{
		Path:       cfg.Vectors.Path,
		Compress:   cfg.Vectors.Compress,
		VectorSize: embedder.Dimension(),
	}, logger)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("opening vector index: %w", err)
	}

	generator, err := generation.New(generation.Config{
		BaseURL:       cfg.Generation.BaseURL,
		APIKey:        cfg.Generation.APIKey,
		Model:         cfg.Generation.Model,
		Timeout:       cfg.Generation.Timeout,
		MaxTokens:     cfg.Generation.MaxTokens,
		Temperature:   cfg.Generation.Temperature,
		ContextBudget: cfg.Generation.ContextBudget,
	}, logger)
	if err != nil {
		store.Close()
		return nil, fmt.Errorf("creating generator: %w", err)
	}

	split := chunker.New(
		chunker.WithChunkSize(cfg.Chunking.ChunkSize),
		chunker.WithOverlap(cfg.Chunking.Overlap),
	)

	pipe := pipeline.New(extractor.New(logger), split, embedder, index, store.Documents(), logger)
	eng := engine.New(embedder, index, generator, store.Documents(), cfg.Retrieval.TopK, logger)
	manager := lifecycle.New(index, store.Documents(), store.History(), logger)

	service := rag.NewService(pipe, eng, manager, store.Documents(), store.History(), cfg.Upload.MaxBytes, logger)

	return &app{
		service: service,
		store:   store,
		logger:  logger,
		cfg:     cfg,
	}, nil
}

func (a *app) close() {
	if err := a.store.Close(); err != nil {
		a.logger.Warn("closing storage", zap.Error(err))
	}
	_ = a.logger.Sync()
}
