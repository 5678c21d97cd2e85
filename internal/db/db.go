package db

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pgvector/pgvector-go"
	"github.com/rs/zerolog/log"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/extra/bundebug"

	"finbot/internal/config"
	"finbot/internal/models"
)

type Document struct {
	bun.BaseModel `bun:"table:documents,alias:d"`
	ID            int64             `bun:"id,pk,autoincrement"`
	Source        string            `bun:"source,notnull"`
	Chunk         string            `bun:"chunk,notnull"`
	Metadata      map[string]string `bun:"metadata,type:jsonb"`
	Embedding     pgvector.Vector   `bun:"embedding"`
	Distance      float64           `bun:"distance,scanonly"`
}

// Store is the pgvector-backed chunk store.
type Store struct {
	db  *bun.DB
	dim int
}

// Connect opens the database and wraps it with bun.
func Connect(cfg *config.Config) (*Store, error) {
	sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(cfg.Database.URL)))
	db := bun.NewDB(sqldb, pgdialect.New())
	if cfg.Database.Debug {
		db.AddQueryHook(bundebug.NewQueryHook(bundebug.WithVerbose(true)))
	}
	return &Store{db: db, dim: cfg.Embedding.Dimension}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Init creates the pgvector extension, the documents table and the cosine
// similarity index.
func (s *Store) Init(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "CREATE EXTENSION IF NOT EXISTS vector"); err != nil {
		return fmt.Errorf("creating vector extension: %w", err)
	}
	ddl := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS documents (
		id BIGSERIAL PRIMARY KEY,
		source TEXT NOT NULL,
		chunk TEXT NOT NULL,
		metadata JSONB DEFAULT '{}',
		embedding vector(%d)
	)`, s.dim)
	if _, err := s.db.ExecContext(ctx, ddl); err != nil {
		return fmt.Errorf("creating documents table: %w", err)
	}
	idx := `CREATE INDEX IF NOT EXISTS idx_embedding
		ON documents USING ivfflat (embedding vector_cosine_ops)
		WITH (lists = 100)`
	if _, err := s.db.ExecContext(ctx, idx); err != nil {
		return fmt.Errorf("creating similarity index: %w", err)
	}
	return nil
}

// Drop removes the documents table.
func (s *Store) Drop(ctx context.Context) error {
	_, err := s.db.NewDropTable().Model((*Document)(nil)).IfExists().Exec(ctx)
	return err
}

// Upsert stores chunks and their embeddings in one transaction. The batch is
// all-or-nothing: any failure rolls back every row of the call.
func (s *Store) Upsert(ctx context.Context, chunks []models.Chunk, vectors [][]float32) error {
	if len(chunks) == 0 {
		return fmt.Errorf("no chunks provided for insertion")
	}
	if len(chunks) != len(vectors) {
		return fmt.Errorf("chunk/vector count mismatch: %d != %d", len(chunks), len(vectors))
	}

	docs := make([]Document, len(chunks))
	for i, c := range chunks {
		meta := c.Metadata
		if meta == nil {
			meta = map[string]string{}
		}
		docs[i] = Document{
			Source:    c.Source,
			Chunk:     c.Text,
			Metadata:  meta,
			Embedding: pgvector.NewVector(vectors[i]),
		}
	}

	return s.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		_, err := tx.NewInsert().Model(&docs).Exec(ctx)
		return err
	})
}

// QueryNearest returns up to k stored chunks ordered by ascending cosine
// distance to vector. Errors degrade to an empty result: a failed retrieval
// should mean "no context", not a dead session.
func (s *Store) QueryNearest(ctx context.Context, vector []float32, k int) []models.RetrievalResult {
	if len(vector) == 0 || k <= 0 {
		return nil
	}

	qv := pgvector.NewVector(vector)
	var docs []Document
	err := s.db.NewSelect().
		Model(&docs).
		Column("source", "chunk", "metadata").
		ColumnExpr("embedding <=> ? AS distance", qv).
		OrderExpr("embedding <=> ?", qv).
		Limit(k).
		Scan(ctx)
	if err != nil {
		log.Warn().Err(err).Msg("similarity query failed, returning no results")
		return nil
	}

	results := make([]models.RetrievalResult, 0, len(docs))
	for _, d := range docs {
		results = append(results, models.RetrievalResult{
			Chunk: models.Chunk{
				Source:   d.Source,
				Text:     d.Chunk,
				Metadata: d.Metadata,
			},
			Distance: d.Distance,
		})
	}
	return results
}
