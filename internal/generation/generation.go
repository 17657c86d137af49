// Package generation turns a question and its retrieved context into a
// grounded natural-language answer via a chat-completion model.
package generation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/Divyansh-Atri/pdf-query/internal/domain"
)

var tracer = otel.Tracer("pdfquery.generation")

// Generator produces an answer for a question given its retrieved chunks.
type Generator interface {
	Generate(ctx context.Context, question string, chunks []domain.ScoredChunk) (string, error)
}

// Config holds chat-completion provider settings.
type Config struct {
	BaseURL     string
	APIKey      string
	Model       string
	Timeout     time.Duration
	MaxTokens   int
	Temperature float64
	// ContextBudget caps the total characters of chunk text included in
	// the prompt. Chunks are added in ranked order until the budget is
	// exhausted; the chunk that crosses it is cut at the boundary.
	ContextBudget int
}

// ApplyDefaults fills unset fields with production defaults.
func (c *Config) ApplyDefaults() {
	if c.Model == "" {
		c.Model = "gpt-4o-mini"
	}
	if c.Timeout <= 0 {
		c.Timeout = 60 * time.Second
	}
	if c.MaxTokens <= 0 {
		c.MaxTokens = 512
	}
	if c.ContextBudget <= 0 {
		c.ContextBudget = 6000
	}
}

// LLMGenerator answers questions through an OpenAI-compatible chat model.
type LLMGenerator struct {
	model   llms.Model
	config  Config
	logger  *zap.Logger
	limiter *rate.Limiter
}

// New creates a generator backed by the configured provider.
func New(config Config, logger *zap.Logger) (*LLMGenerator, error) {
	config.ApplyDefaults()
	if config.APIKey == "" {
		return nil, fmt.Errorf("%w: api key required", domain.ErrInvalidInput)
	}

	opts := []openai.Option{
		openai.WithToken(config.APIKey),
		openai.WithModel(config.Model),
	}
	if config.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(config.BaseURL))
	}
	model, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("create llm client: %w", err)
	}
	return NewWithModel(model, config, logger), nil
}

// NewWithModel creates a generator around an existing model client.
func NewWithModel(model llms.Model, config Config, logger *zap.Logger) *LLMGenerator {
	config.ApplyDefaults()
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LLMGenerator{
		model:   model,
		config:  config,
		logger:  logger,
		limiter: rate.NewLimiter(rate.Limit(5), 2),
	}
}

// Generate builds a grounded prompt from the ranked chunks and asks the
// model for an answer. A single attempt is made; provider failures are
// reported to the caller rather than retried.
func (g *LLMGenerator) Generate(ctx context.Context, question string, chunks []domain.ScoredChunk) (string, error) {
	ctx, span := tracer.Start(ctx, "generation.Generate")
	defer span.End()
	span.SetAttributes(
		attribute.Int("chunks", len(chunks)),
		attribute.String("model", g.config.Model),
	)

	if strings.TrimSpace(question) == "" {
		return "", fmt.Errorf("%w: question is empty", domain.ErrInvalidInput)
	}

	if err := g.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("%w: rate limit wait: %v", domain.ErrGeneration, err)
	}

	ctx, cancel := context.WithTimeout(ctx, g.config.Timeout)
	defer cancel()

	prompt := g.buildPrompt(question, chunks)
	answer, err := llms.GenerateFromSinglePrompt(ctx, g.model, prompt,
		llms.WithMaxTokens(g.config.MaxTokens),
		llms.WithTemperature(g.config.Temperature),
	)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "completion failed")
		return "", fmt.Errorf("%w: %v", domain.ErrGeneration, err)
	}

	answer = strings.TrimSpace(answer)
	g.logger.Debug("answer generated",
		zap.Int("prompt_chars", len(prompt)),
		zap.Int("answer_chars", len(answer)))
	return answer, nil
}

func (g *LLMGenerator) buildPrompt(question string, chunks []domain.ScoredChunk) string {
	var b strings.Builder
	b.WriteString("You are a helpful assistant answering questions about a PDF document.\n")
	b.WriteString("Answer using only the provided context. If the context does not contain the answer, say so.\n\n")

	context := g.assembleContext(chunks)
	if context == "" {
		b.WriteString("No relevant context was found in the document.\n\n")
	} else {
		b.WriteString("Context:\n")
		b.WriteString(context)
		b.WriteString("\n")
	}

	b.WriteString("Question: ")
	b.WriteString(question)
	b.WriteString("\nAnswer:")
	return b.String()
}

// assembleContext concatenates chunk texts in ranked order up to the
// character budget. Ranking order is preserved so truncation always
// drops the least relevant material.
func (g *LLMGenerator) assembleContext(chunks []domain.ScoredChunk) string {
	var b strings.Builder
	remaining := g.config.ContextBudget
	for _, chunk := range chunks {
		if remaining <= 0 {
			break
		}
		text := chunk.Text
		if len(text) > remaining {
			text = text[:remaining]
		}
		if b.Len() > 0 {
			b.WriteString("\n---\n")
		}
		fmt.Fprintf(&b, "[page %d] %s", chunk.Page, text)
		remaining -= len(text)
	}
	return b.String()
}
