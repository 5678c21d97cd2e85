package llm

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"finbot/internal/config"
)

// OpenAI streams completions from the OpenAI chat API (or any compatible
// endpoint when llm.openai.base_url is set).
type OpenAI struct {
	llm *openai.LLM
	cfg *config.LLMConfig
}

func NewOpenAI(cfg *config.LLMConfig) (*OpenAI, error) {
	key := os.Getenv("OPENAI_API_KEY")
	if key == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY environment variable is required")
	}

	opts := []openai.Option{
		openai.WithToken(strings.TrimPrefix(key, "Bearer ")),
		openai.WithModel(cfg.OpenAI.Model),
	}
	if cfg.OpenAI.BaseURL != "" {
		opts = append(opts, openai.WithBaseURL(cfg.OpenAI.BaseURL))
	}

	client, err := openai.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("initializing openai client: %w", err)
	}
	return &OpenAI{llm: client, cfg: cfg}, nil
}

// Stream yields incremental content deltas from the completion stream,
// skipping empty ones. A request failure ends the stream with a single
// "Error: ..." fragment after whatever deltas already arrived.
func (o *OpenAI) Stream(ctx context.Context, prompt string) <-chan string {
	out := make(chan string)
	go func() {
		defer close(out)
		_, err := llms.GenerateFromSinglePrompt(ctx, o.llm, prompt,
			llms.WithTemperature(o.cfg.Temperature),
			llms.WithMaxTokens(o.cfg.MaxTokens),
			llms.WithStopWords(o.cfg.Stop),
			llms.WithStreamingFunc(func(ctx context.Context, chunk []byte) error {
				if len(chunk) == 0 {
					return nil
				}
				if !emit(ctx, out, string(chunk)) {
					return ctx.Err()
				}
				return nil
			}),
		)
		if err != nil && ctx.Err() == nil {
			emit(ctx, out, fmt.Sprintf("Error: %s", err))
		}
	}()
	return out
}
