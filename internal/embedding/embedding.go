package embedding

import (
	"context"
	"fmt"
	"math"
	"sync"

	"github.com/tmc/langchaingo/embeddings"
	"github.com/tmc/langchaingo/llms/ollama"

	"finbot/internal/config"
)

// Embedder generates fixed-dimension embedding vectors for texts. The
// underlying model client is created lazily on first use and reused for the
// process lifetime.
type Embedder struct {
	cfg *config.EmbeddingConfig

	mu     sync.Mutex
	client *embeddings.EmbedderImpl
}

func New(cfg *config.EmbeddingConfig) *Embedder {
	return &Embedder{cfg: cfg}
}

// Embed returns one L2-normalized vector per input text, in input order.
// Empty input returns an empty result without touching the model.
func (e *Embedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return [][]float32{}, nil
	}

	client, err := e.getClient()
	if err != nil {
		return nil, err
	}

	vectors, err := client.EmbedDocuments(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embedding %d texts: %w", len(texts), err)
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("embedding count mismatch: got %d vectors for %d texts", len(vectors), len(texts))
	}

	for i, v := range vectors {
		if len(v) != e.cfg.Dimension {
			return nil, fmt.Errorf("embedding dimension mismatch: got %d, want %d", len(v), e.cfg.Dimension)
		}
		Normalize(v)
		vectors[i] = v
	}
	return vectors, nil
}

// EmbedQuery embeds a single text.
func (e *Embedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.Embed(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// Reset drops the cached model client so the next call recreates it.
// Intended for tests.
func (e *Embedder) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.client = nil
}

func (e *Embedder) getClient() (*embeddings.EmbedderImpl, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.client != nil {
		return e.client, nil
	}

	llm, err := ollama.New(
		ollama.WithServerURL(e.cfg.BaseURL),
		ollama.WithModel(e.cfg.Model),
	)
	if err != nil {
		return nil, fmt.Errorf("initializing embedding model %s: %w", e.cfg.Model, err)
	}
	client, err := embeddings.NewEmbedder(llm)
	if err != nil {
		return nil, fmt.Errorf("creating embedder: %w", err)
	}
	e.client = client
	return e.client, nil
}

// Normalize scales v to unit L2 norm in place. Zero vectors are left as is.
func Normalize(v []float32) {
	var sum float64
	for _, x := range v {
		sum += float64(x) * float64(x)
	}
	if sum == 0 {
		return
	}
	norm := float32(math.Sqrt(sum))
	for i := range v {
		v[i] /= norm
	}
}
