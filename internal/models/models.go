package models

// Chunk is a unit of retrievable text with its provenance. Embeddings travel
// alongside chunks, keyed by position, not inside them.
type Chunk struct {
	Source   string
	Text     string
	Metadata map[string]string
}

// RetrievalResult is a chunk plus its cosine distance to the query vector.
// Lower distance means more similar.
type RetrievalResult struct {
	Chunk
	Distance float64
}

// Source is a loaded document before chunking.
type Source struct {
	Path string
	Text string
}
