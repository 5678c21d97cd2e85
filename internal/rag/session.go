package rag

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"finbot/internal/config"
	"finbot/internal/llm"
	"finbot/internal/prompt"
)

// QueryEmbedder is what the session needs from the embedding component.
type QueryEmbedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// Session drives the interactive loop: embed the query, retrieve context,
// optionally rerank it, build the prompt, stream the answer and report
// source and latency. One turn at a time, and no turn failure ever ends the
// session.
type Session struct {
	embedder  QueryEmbedder
	retriever *Retriever
	reranker  *Reranker // nil when reranking is not worth a round-trip
	backend   llm.Backend
	cfg       *config.Config
	in        io.Reader
	out       io.Writer
}

func NewSession(embedder QueryEmbedder, store ChunkStore, backend llm.Backend, reranker *Reranker, cfg *config.Config, in io.Reader, out io.Writer) *Session {
	return &Session{
		embedder:  embedder,
		retriever: NewRetriever(store),
		reranker:  reranker,
		backend:   backend,
		cfg:       cfg,
		in:        in,
		out:       out,
	}
}

// Run reads queries until an exit keyword, empty input, EOF or context
// cancellation.
func (s *Session) Run(ctx context.Context) error {
	fmt.Fprintln(s.out, "FinBot ready > Ask questions about Canadian finance")

	scanner := bufio.NewScanner(s.in)
	for {
		if ctx.Err() != nil {
			fmt.Fprintln(s.out, "\nInterrupted")
			return nil
		}
		fmt.Fprint(s.out, "\nQuery (or 'exit'): ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		query := strings.TrimSpace(scanner.Text())
		if query == "" || strings.EqualFold(query, "exit") || strings.EqualFold(query, "quit") {
			return nil
		}
		s.turn(ctx, query)
	}
}

func (s *Session) turn(ctx context.Context, query string) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("Turn failed")
			fmt.Fprintf(s.out, "\nError: %v\n", r)
		}
	}()

	retrievalStart := time.Now()
	vector, err := s.embedder.EmbedQuery(ctx, query)
	if err != nil {
		fmt.Fprintf(s.out, "Error embedding query: %s\n", err)
		return
	}

	candidates := s.retriever.RetrieveSimilar(ctx, vector, s.cfg.RAG.TopK)
	if len(candidates) == 0 {
		fmt.Fprintln(s.out, "No relevant documents found for your question.")
		return
	}
	if s.reranker != nil {
		candidates = s.reranker.Rerank(ctx, query, candidates, s.cfg.RAG.TopK)
	}
	retrievalElapsed := time.Since(retrievalStart)

	p := prompt.Build(query, candidates, "")

	fmt.Fprintln(s.out, "\nAnswer:")
	generationStart := time.Now()
	streamCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	// client-side circuit breaker: not every backend honors stop-length
	// hints, so the word count is enforced here
	words := 0
	for token := range s.backend.Stream(streamCtx, p) {
		fmt.Fprint(s.out, token)
		words += len(strings.Fields(token))
		if words > s.cfg.RAG.MaxResponseWords {
			fmt.Fprint(s.out, "\n...(response truncated)")
			cancel()
			break
		}
	}
	generationElapsed := time.Since(generationStart)

	source := "Unknown"
	if len(candidates) > 0 && candidates[0].Source != "" {
		source = candidates[0].Source
	}
	fmt.Fprintf(s.out, "\n\nSource: %s\n", source)
	fmt.Fprintf(s.out, "(retrieval %s, generation %s)\n",
		retrievalElapsed.Round(time.Millisecond), generationElapsed.Round(time.Millisecond))
	fmt.Fprintln(s.out, strings.Repeat("-", 50))
}
