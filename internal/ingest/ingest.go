package ingest

import (
	"context"
	"fmt"
	"strconv"

	"github.com/rs/zerolog/log"

	"finbot/internal/config"
	"finbot/internal/models"
	"finbot/internal/parser"
	"finbot/internal/rag"
)

// Embedder is what ingestion needs from the embedding component.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
}

// Run loads documents from dir, chunks them, embeds every chunk and stores
// the batch. Embedding and storage failures propagate: ingestion is expected
// to be re-run, not partially retried.
func Run(ctx context.Context, dir string, embedder Embedder, store rag.ChunkStore, cfg *config.Config) error {
	log.Info().Str("dir", dir).Msg("Loading documents")
	sources := parser.LoadSources(dir)
	if len(sources) == 0 {
		log.Info().Msg("No documents found in the source directory")
		return nil
	}

	log.Info().Int("documents", len(sources)).Msg("Chunking documents")
	var chunks []models.Chunk
	var texts []string
	for _, src := range sources {
		for i, text := range parser.ChunkText(src.Text, cfg.RAG.ChunkSize, cfg.RAG.ChunkOverlap) {
			chunks = append(chunks, models.Chunk{
				Source:   src.Path,
				Text:     text,
				Metadata: map[string]string{"chunk": strconv.Itoa(i + 1)},
			})
			texts = append(texts, text)
		}
	}
	if len(chunks) == 0 {
		log.Info().Msg("No text chunks generated from documents")
		return nil
	}

	log.Info().Int("chunks", len(chunks)).Msg("Generating embeddings")
	vectors, err := embedder.Embed(ctx, texts)
	if err != nil {
		return fmt.Errorf("embedding chunks: %w", err)
	}

	log.Info().Msg("Storing chunks and embeddings")
	if err := store.Upsert(ctx, chunks, vectors); err != nil {
		return fmt.Errorf("storing chunks: %w", err)
	}

	log.Info().Int("chunks", len(chunks)).Int("documents", len(sources)).Msg("Ingestion complete")
	return nil
}
