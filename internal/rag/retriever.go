package rag

import (
	"context"

	"finbot/internal/models"
)

// ChunkStore is what the pipeline needs from a vector store. Both the
// postgres and the chromem stores satisfy it.
type ChunkStore interface {
	Upsert(ctx context.Context, chunks []models.Chunk, vectors [][]float32) error
	QueryNearest(ctx context.Context, vector []float32, k int) []models.RetrievalResult
}

// Retriever answers nearest-neighbor queries against a chunk store.
type Retriever struct {
	store ChunkStore
}

func NewRetriever(store ChunkStore) *Retriever {
	return &Retriever{store: store}
}

// RetrieveSimilar returns the topK stored chunks closest to the query
// vector, ascending by cosine distance.
func (r *Retriever) RetrieveSimilar(ctx context.Context, vector []float32, topK int) []models.RetrievalResult {
	return r.store.QueryNearest(ctx, vector, topK)
}
