package llm

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/huggingface"

	"finbot/internal/config"
)

// HF runs a named hosted model through the Hugging Face inference API. It has
// no incremental streaming: the whole completion is generated synchronously
// and yielded as one fragment.
type HF struct {
	llm *huggingface.LLM
	cfg *config.LLMConfig
}

func NewHF(cfg *config.LLMConfig) (*HF, error) {
	if cfg.HF.Model == "" {
		return nil, fmt.Errorf("llm.hf.model is required for the hf backend")
	}
	token := os.Getenv("HF_TOKEN")
	if token == "" {
		return nil, fmt.Errorf("HF_TOKEN environment variable is required")
	}

	client, err := huggingface.New(
		huggingface.WithToken(token),
		huggingface.WithModel(cfg.HF.Model),
	)
	if err != nil {
		return nil, fmt.Errorf("initializing hugging face client: %w", err)
	}
	return &HF{llm: client, cfg: cfg}, nil
}

// Stream yields the full completion as a single fragment, with the echoed
// prompt prefix stripped when the model returns it.
func (h *HF) Stream(ctx context.Context, prompt string) <-chan string {
	out := make(chan string)
	go func() {
		defer close(out)
		completion, err := llms.GenerateFromSinglePrompt(ctx, h.llm, prompt,
			llms.WithTemperature(h.cfg.Temperature),
			llms.WithMaxTokens(h.cfg.MaxTokens),
		)
		if err != nil {
			if ctx.Err() == nil {
				emit(ctx, out, fmt.Sprintf("Error: %s", err))
			}
			return
		}
		emit(ctx, out, strings.TrimPrefix(completion, prompt))
	}()
	return out
}
