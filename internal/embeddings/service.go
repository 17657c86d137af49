package embeddings

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/Divyansh-Atri/pdf-query/internal/domain"
)

// Default configuration values.
const (
	DefaultBaseURL     = "https://api.openai.com/v1"
	DefaultModel       = "text-embedding-3-small"
	DefaultTimeout     = 60 * time.Second
	DefaultBatchSize   = 64
	DefaultConcurrency = 4
	DefaultRateLimit   = 10 // requests per second
)

// modelDimensions maps known embedding models to their output dimension.
var modelDimensions = map[string]int{
	"text-embedding-3-small": 1536,
	"text-embedding-3-large": 3072,
	"text-embedding-ada-002": 1536,
}

// Config holds configuration for the embedding service.
type Config struct {
	// BaseURL is the API base URL. Any OpenAI-compatible endpoint works.
	BaseURL string

	// APIKey authenticates requests. Optional for local endpoints.
	APIKey string

	// Model is the embedding model identifier.
	Model string

	// Timeout bounds each provider call so a stuck provider yields an
	// embedding error instead of a hang.
	Timeout time.Duration

	// BatchSize is the maximum number of texts per request.
	BatchSize int

	// Concurrency is the maximum number of in-flight batch requests.
	Concurrency int

	// Dimension overrides the dimension inferred from the model name.
	Dimension int
}

// ApplyDefaults sets default values for unset fields.
func (c *Config) ApplyDefaults() {
	if c.BaseURL == "" {
		c.BaseURL = DefaultBaseURL
	}
	if c.Model == "" {
		c.Model = DefaultModel
	}
	if c.Timeout <= 0 {
		c.Timeout = DefaultTimeout
	}
	if c.BatchSize <= 0 {
		c.BatchSize = DefaultBatchSize
	}
	if c.Concurrency <= 0 {
		c.Concurrency = DefaultConcurrency
	}
	if c.Dimension <= 0 {
		if dim, ok := modelDimensions[c.Model]; ok {
			c.Dimension = dim
		} else {
			c.Dimension = modelDimensions[DefaultModel]
		}
	}
}

// Service generates embeddings via an OpenAI-compatible /embeddings endpoint.
//
// Large inputs are split into batches that run with bounded concurrency;
// the returned vectors are always in input order.
type Service struct {
	config  Config
	client  *http.Client
	limiter *rate.Limiter
	logger  *zap.Logger
}

// NewService creates an embedding service with the given configuration.
func NewService(config Config, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	config.ApplyDefaults()

	return &Service{
		config:  config,
		client:  &http.Client{Timeout: config.Timeout},
		limiter: rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultConcurrency),
		logger:  logger,
	}
}

// embeddingRequest is the OpenAI /embeddings request format.
type embeddingRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

// embeddingResponse is the OpenAI /embeddings response format.
type embeddingResponse struct {
	Data []struct {
		Embedding []float32 `json:"embedding"`
		Index     int       `json:"index"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// EmbedDocuments generates embeddings for multiple texts, one vector per
// input in input order.
func (s *Service) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, fmt.Errorf("%w: no texts to embed", domain.ErrInvalidInput)
	}

	start := time.Now()
	vectors := make([][]float32, len(texts))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.config.Concurrency)

	for offset := 0; offset < len(texts); offset += s.config.BatchSize {
		end := offset + s.config.BatchSize
		if end > len(texts) {
			end = len(texts)
		}
		batch := texts[offset:end]
		base := offset

		g.Go(func() error {
			batchVectors, err := s.embedBatch(gctx, batch)
			if err != nil {
				return err
			}
			copy(vectors[base:base+len(batchVectors)], batchVectors)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	s.logger.Debug("embedded documents",
		zap.String("model", s.config.Model),
		zap.Int("count", len(texts)),
		zap.Duration("elapsed", time.Since(start)),
	)

	return vectors, nil
}

// EmbedQuery generates an embedding for a single query string.
func (s *Service) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, fmt.Errorf("%w: empty query text", domain.ErrInvalidInput)
	}

	vectors, err := s.embedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// Dimension returns the embedding dimension for the configured model.
func (s *Service) Dimension() int {
	return s.config.Dimension
}

// embedBatch performs one provider call for a batch of texts.
func (s *Service) embedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrEmbedding, err)
	}

	body, err := json.Marshal(embeddingRequest{
		Model: s.config.Model,
		Input: texts,
	})
	if err != nil {
		return nil, fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.config.BaseURL+"/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+s.config.APIKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrEmbedding, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: reading response: %v", domain.ErrEmbedding, err)
	}

	var parsed embeddingResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("%w: decoding response: %v", domain.ErrEmbedding, err)
	}
	if parsed.Error != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrEmbedding, parsed.Error.Message)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d: %s", domain.ErrEmbedding, resp.StatusCode, string(respBody))
	}
	if len(parsed.Data) != len(texts) {
		return nil, fmt.Errorf("%w: got %d vectors for %d inputs", domain.ErrEmbedding, len(parsed.Data), len(texts))
	}

	// The provider reports an index per vector; order by it rather than
	// trusting response order.
	vectors := make([][]float32, len(texts))
	for _, item := range parsed.Data {
		if item.Index < 0 || item.Index >= len(texts) {
			return nil, fmt.Errorf("%w: vector index %d out of range", domain.ErrEmbedding, item.Index)
		}
		vectors[item.Index] = item.Embedding
	}
	return vectors, nil
}

// Ensure Service implements Embedder.
var _ Embedder = (*Service)(nil)
