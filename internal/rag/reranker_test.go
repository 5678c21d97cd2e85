package rag_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"finbot/internal/models"
	"finbot/internal/rag"
)

// scripted backend that replies with a fixed ranking
type rankingBackend struct {
	reply   string
	prompts []string
}

func (b *rankingBackend) Stream(ctx context.Context, prompt string) <-chan string {
	b.prompts = append(b.prompts, prompt)
	out := make(chan string)
	go func() {
		defer close(out)
		select {
		case out <- b.reply:
		case <-ctx.Done():
		}
	}()
	return out
}

func candidates(texts ...string) []models.RetrievalResult {
	results := make([]models.RetrievalResult, len(texts))
	for i, text := range texts {
		results[i] = models.RetrievalResult{
			Chunk:    models.Chunk{Source: "doc.pdf", Text: text},
			Distance: float64(i) * 0.1,
		}
	}
	return results
}

func TestRerankReordersByReply(t *testing.T) {
	backend := &rankingBackend{reply: "3, 1, 2"}
	r := rag.NewReranker(backend)

	out := r.Rerank(context.Background(), "q", candidates("one", "two", "three"), 3)
	require.Len(t, out, 3)
	require.Equal(t, "three", out[0].Text)
	require.Equal(t, "one", out[1].Text)
	require.Equal(t, "two", out[2].Text)

	require.Len(t, backend.prompts, 1)
	require.Contains(t, backend.prompts[0], "1. one")
	require.Contains(t, backend.prompts[0], "3. three")
}

func TestRerankCapsAtTopK(t *testing.T) {
	backend := &rankingBackend{reply: "2, 3, 1"}
	r := rag.NewReranker(backend)

	out := r.Rerank(context.Background(), "q", candidates("one", "two", "three"), 2)
	require.Len(t, out, 2)
	require.Equal(t, "two", out[0].Text)
	require.Equal(t, "three", out[1].Text)
}

func TestRerankDropsOutOfRangeAndRepeats(t *testing.T) {
	backend := &rankingBackend{reply: "7, 2, 0, 2, 1"}
	r := rag.NewReranker(backend)

	out := r.Rerank(context.Background(), "q", candidates("one", "two", "three"), 3)
	require.Len(t, out, 2)
	require.Equal(t, "two", out[0].Text)
	require.Equal(t, "one", out[1].Text)
}

func TestRerankFreeTextReply(t *testing.T) {
	backend := &rankingBackend{reply: "The most relevant passages are 2 and then 3."}
	r := rag.NewReranker(backend)

	out := r.Rerank(context.Background(), "q", candidates("one", "two", "three"), 3)
	require.Len(t, out, 2)
	require.Equal(t, "two", out[0].Text)
	require.Equal(t, "three", out[1].Text)
}

func TestRerankUnparseableReplyKeepsOriginalOrder(t *testing.T) {
	backend := &rankingBackend{reply: "I cannot rank these passages."}
	r := rag.NewReranker(backend)

	out := r.Rerank(context.Background(), "q", candidates("one", "two", "three"), 2)
	require.Len(t, out, 2)
	require.Equal(t, "one", out[0].Text)
	require.Equal(t, "two", out[1].Text)
}

func TestRerankEmptyCandidates(t *testing.T) {
	backend := &rankingBackend{reply: "1"}
	r := rag.NewReranker(backend)

	require.Nil(t, r.Rerank(context.Background(), "q", nil, 3))
	require.Empty(t, backend.prompts)
}
