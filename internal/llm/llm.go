// Package llm provides the generation backends behind a single streaming
// capability. Errors during generation surface as a final "Error: ..."
// fragment on the stream instead of crashing the caller; the concatenation of
// all fragments is the model's answer, with no guarantee about fragment
// granularity across backends.
package llm

import (
	"context"
	"fmt"

	"finbot/internal/config"
)

// Backend produces a lazy sequence of text fragments for a prompt. The
// channel is closed when generation finishes, hits a stop condition, or the
// context is cancelled.
type Backend interface {
	Stream(ctx context.Context, prompt string) <-chan string
}

// New selects the backend from configuration. The choice is made once at
// session start; there is no runtime switching.
func New(cfg *config.LLMConfig) (Backend, error) {
	switch cfg.Backend {
	case config.BackendOpenAI:
		return NewOpenAI(cfg)
	case config.BackendHF:
		return NewHF(cfg)
	case config.BackendLocal:
		return NewLocal(cfg)
	default:
		return nil, fmt.Errorf("unknown llm backend: %s", cfg.Backend)
	}
}

// emit sends a fragment unless the context is already cancelled.
func emit(ctx context.Context, out chan<- string, token string) bool {
	select {
	case out <- token:
		return true
	case <-ctx.Done():
		return false
	}
}
