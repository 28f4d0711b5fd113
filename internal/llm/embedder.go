// Package llm provides embedding and text-generation services built on
// langchaingo, including the two-stage tool-calling answer generator.
package llm

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"

	"github.com/lecternhq/lectern/internal/config"
	"github.com/lecternhq/lectern/internal/metrics"
)

// Embedder wraps langchaingo embeddings with dimension validation. The
// same embedder must be used at indexing and query time so vectors live
// in one space.
type Embedder struct {
	model     embeddings.Embedder
	dimension int
	modelName string
	collector *metrics.Collector
}

// NewEmbedder creates an embedder based on configuration.
func NewEmbedder(cfg config.Config, collector *metrics.Collector) (*Embedder, error) {
	var model embeddings.Embedder
	var err error

	switch cfg.EmbedProvider {
	case config.ProviderOllama:
		llm, ollamaErr := ollama.New(
			ollama.WithModel(cfg.EmbedModel),
			ollama.WithServerURL(cfg.OllamaHost),
		)
		if ollamaErr != nil {
			return nil, fmt.Errorf("create ollama client: %w", ollamaErr)
		}
		model, err = embeddings.NewEmbedder(llm)
		if err != nil {
			return nil, fmt.Errorf("create ollama embedder: %w", err)
		}

	case config.ProviderOpenAI:
		if cfg.OpenAIAPIKey == "" {
			return nil, fmt.Errorf("OpenAI API key required")
		}
		llm, openaiErr := openai.New(
			openai.WithToken(cfg.OpenAIAPIKey),
			openai.WithEmbeddingModel(cfg.EmbedModel),
		)
		if openaiErr != nil {
			return nil, fmt.Errorf("create openai client: %w", openaiErr)
		}
		model, err = embeddings.NewEmbedder(llm)
		if err != nil {
			return nil, fmt.Errorf("create openai embedder: %w", err)
		}

	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", cfg.EmbedProvider)
	}

	return &Embedder{
		model:     model,
		dimension: cfg.EmbedDimension,
		modelName: cfg.EmbedModel,
		collector: collector,
	}, nil
}

// Embed generates an embedding vector for a single text.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	start := time.Now()
	vector, err := e.model.EmbedQuery(ctx, text)
	e.collector.Record(metrics.OpEmbedding, time.Since(start))

	if err != nil {
		slog.Warn("embedding failed", "model", e.modelName, "text_len", len(text), "error", err)
		return nil, fmt.Errorf("embed: %w", err)
	}
	if err := e.checkDimension(vector); err != nil {
		return nil, err
	}
	return vector, nil
}

// EmbedBatch generates embeddings for multiple texts. More efficient than
// repeated Embed calls for bulk indexing.
func (e *Embedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	start := time.Now()
	vectors, err := e.model.EmbedDocuments(ctx, texts)
	e.collector.Record(metrics.OpEmbedding, time.Since(start))

	if err != nil {
		return nil, fmt.Errorf("embed batch: %w", err)
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("embedding count mismatch: got %d, want %d", len(vectors), len(texts))
	}
	for i, v := range vectors {
		if err := e.checkDimension(v); err != nil {
			return nil, fmt.Errorf("embedding %d: %w", i, err)
		}
	}
	return vectors, nil
}

// Model returns the embedding model name.
func (e *Embedder) Model() string {
	return e.modelName
}

// Dimension returns the expected embedding dimension.
func (e *Embedder) Dimension() int {
	return e.dimension
}

func (e *Embedder) checkDimension(vector []float32) error {
	if e.dimension > 0 && len(vector) != e.dimension {
		return fmt.Errorf("dimension mismatch: got %d, want %d (model: %s)",
			len(vector), e.dimension, e.modelName)
	}
	return nil
}
