package ingest_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"finbot/internal/config"
	"finbot/internal/ingest"
	"finbot/internal/models"
)

type fakeEmbedder struct {
	err   error
	calls [][]string
}

func (f *fakeEmbedder) Embed(ctx context.Context, texts []string) ([][]float32, error) {
	f.calls = append(f.calls, texts)
	if f.err != nil {
		return nil, f.err
	}
	vectors := make([][]float32, len(texts))
	for i := range vectors {
		vectors[i] = []float32{1, 0, 0}
	}
	return vectors, nil
}

type fakeStore struct {
	err     error
	chunks  []models.Chunk
	vectors [][]float32
	calls   int
}

func (f *fakeStore) Upsert(ctx context.Context, chunks []models.Chunk, vectors [][]float32) error {
	f.calls++
	if f.err != nil {
		return f.err
	}
	f.chunks = chunks
	f.vectors = vectors
	return nil
}

func (f *fakeStore) QueryNearest(ctx context.Context, vector []float32, k int) []models.RetrievalResult {
	return nil
}

func ingestConfig() *config.Config {
	cfg := config.Default()
	cfg.RAG.ChunkSize = 5
	cfg.RAG.ChunkOverlap = 1
	return cfg
}

func TestRunIngestsDocuments(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.txt")
	require.NoError(t, os.WriteFile(path, []byte(strings.Repeat("word ", 12)), 0o644))

	embedder := &fakeEmbedder{}
	store := &fakeStore{}
	require.NoError(t, ingest.Run(context.Background(), dir, embedder, store, ingestConfig()))

	// 12 words, size 5, overlap 1 -> windows at 0, 4, 8
	require.Len(t, store.chunks, 3)
	require.Len(t, store.vectors, 3)
	for i, c := range store.chunks {
		require.Equal(t, path, c.Source)
		require.NotEmpty(t, c.Text)
		require.Equal(t, map[string]string{"chunk": strconv.Itoa(i + 1)}, c.Metadata)
	}
	require.Len(t, embedder.calls, 1)
	require.Len(t, embedder.calls[0], 3)
}

func TestRunEmptyDirectoryIsNotAnError(t *testing.T) {
	store := &fakeStore{}
	require.NoError(t, ingest.Run(context.Background(), t.TempDir(), &fakeEmbedder{}, store, ingestConfig()))
	require.Zero(t, store.calls)
}

func TestRunPropagatesEmbeddingFailure(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "doc.txt"), []byte("some words here"), 0o644))

	store := &fakeStore{}
	err := ingest.Run(context.Background(), dir, &fakeEmbedder{err: errors.New("model down")}, store, ingestConfig())
	require.ErrorContains(t, err, "model down")
	require.Zero(t, store.calls)
}

func TestRunPropagatesStoreFailure(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "doc.txt"), []byte("some words here"), 0o644))

	err := ingest.Run(context.Background(), dir, &fakeEmbedder{}, &fakeStore{err: errors.New("insert failed")}, ingestConfig())
	require.ErrorContains(t, err, "insert failed")
}
