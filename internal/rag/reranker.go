package rag

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"finbot/internal/llm"
	"finbot/internal/models"
)

const rerankTemplate = `You are ranking passages by relevance to a question.

Question: %s

Passages:
%s
Reply with the numbers of the %d most relevant passages in descending order of relevance, as a comma-separated list and nothing else.`

var numberRe = regexp.MustCompile(`\d+`)

// Reranker reorders retrieval candidates by asking a generation backend for
// a relevance ranking. Only worth the round-trip for backends that already
// make one per answer.
type Reranker struct {
	backend llm.Backend
}

func NewReranker(backend llm.Backend) *Reranker {
	return &Reranker{backend: backend}
}

// Rerank returns up to topK candidates in the order the model ranked them.
// The reply is parsed best-effort: every integer in order of first
// appearance, out-of-range and repeated indices dropped. A reply with no
// usable indices falls back to the original candidate order rather than
// discarding the context.
func (r *Reranker) Rerank(ctx context.Context, query string, candidates []models.RetrievalResult, topK int) []models.RetrievalResult {
	if len(candidates) == 0 || topK <= 0 {
		return nil
	}

	var listing strings.Builder
	for i, c := range candidates {
		fmt.Fprintf(&listing, "%d. %s\n", i+1, strings.TrimSpace(c.Text))
	}
	prompt := fmt.Sprintf(rerankTemplate, query, listing.String(), topK)

	var reply strings.Builder
	for token := range r.backend.Stream(ctx, prompt) {
		reply.WriteString(token)
	}

	ranked := r.parse(reply.String(), candidates, topK)
	if len(ranked) == 0 {
		log.Warn().Str("reply", reply.String()).Msg("No usable indices in rerank reply, keeping original order")
		if len(candidates) > topK {
			return candidates[:topK]
		}
		return candidates
	}
	return ranked
}

func (r *Reranker) parse(reply string, candidates []models.RetrievalResult, topK int) []models.RetrievalResult {
	seen := make(map[int]bool)
	var ranked []models.RetrievalResult
	for _, m := range numberRe.FindAllString(reply, -1) {
		idx, err := strconv.Atoi(m)
		if err != nil || idx < 1 || idx > len(candidates) || seen[idx] {
			continue
		}
		seen[idx] = true
		ranked = append(ranked, candidates[idx-1])
		if len(ranked) == topK {
			break
		}
	}
	return ranked
}
