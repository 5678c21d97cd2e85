package chromemdb

import (
	"context"
	"fmt"
	"runtime"

	"github.com/philippgille/chromem-go"
	"github.com/rs/zerolog/log"

	"finbot/internal/config"
	"finbot/internal/helper"
	"finbot/internal/models"
)

const collectionName = "documents"

// Store is the embedded chromem-go chunk store. It is an alternative to the
// postgres store for running without a database server.
type Store struct {
	db         *chromem.DB
	collection *chromem.Collection
}

// NewStore opens (or creates) the chromem database and its single collection.
func NewStore(cfg *config.StoreConfig) (*Store, error) {
	var db *chromem.DB
	var err error
	if cfg.InMemory {
		db = chromem.NewDB()
	} else {
		db, err = chromem.NewPersistentDB(cfg.Path, false)
		if err != nil {
			return nil, fmt.Errorf("opening chromem database at %s: %w", cfg.Path, err)
		}
	}

	collection, err := db.GetOrCreateCollection(collectionName, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("creating collection %s: %w", collectionName, err)
	}
	return &Store{db: db, collection: collection}, nil
}

// Upsert adds chunks with their embeddings to the collection. chromem has no
// transactions, so a failed batch may leave earlier documents behind; the
// postgres store is the backend of record for atomic ingestion.
func (s *Store) Upsert(ctx context.Context, chunks []models.Chunk, vectors [][]float32) error {
	if len(chunks) == 0 {
		return fmt.Errorf("no chunks provided for insertion")
	}
	if len(chunks) != len(vectors) {
		return fmt.Errorf("chunk/vector count mismatch: %d != %d", len(chunks), len(vectors))
	}

	docs := make([]chromem.Document, len(chunks))
	for i, c := range chunks {
		id, err := helper.GenerateUUID()
		if err != nil {
			return err
		}
		meta := map[string]string{"source": c.Source}
		for k, v := range c.Metadata {
			meta[k] = v
		}
		docs[i] = chromem.Document{
			ID:        id,
			Content:   c.Text,
			Metadata:  meta,
			Embedding: vectors[i],
		}
	}

	if err := s.collection.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return fmt.Errorf("adding %d documents: %w", len(docs), err)
	}
	return nil
}

// QueryNearest returns up to k chunks ordered by ascending cosine distance.
// Like the postgres store, errors degrade to an empty result.
func (s *Store) QueryNearest(ctx context.Context, vector []float32, k int) []models.RetrievalResult {
	if len(vector) == 0 || k <= 0 {
		return nil
	}
	// chromem rejects queries asking for more results than stored documents
	if count := s.collection.Count(); count < k {
		if count == 0 {
			return nil
		}
		k = count
	}

	found, err := s.collection.QueryEmbedding(ctx, vector, k, nil, nil)
	if err != nil {
		log.Warn().Err(err).Msg("similarity query failed, returning no results")
		return nil
	}

	// results come back ordered by descending similarity, which is ascending
	// cosine distance
	results := make([]models.RetrievalResult, 0, len(found))
	for _, r := range found {
		meta := make(map[string]string, len(r.Metadata))
		for key, v := range r.Metadata {
			if key == "source" {
				continue
			}
			meta[key] = v
		}
		results = append(results, models.RetrievalResult{
			Chunk: models.Chunk{
				Source:   r.Metadata["source"],
				Text:     r.Content,
				Metadata: meta,
			},
			Distance: 1 - float64(r.Similarity),
		})
	}
	return results
}
