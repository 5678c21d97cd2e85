package llm

import (
	"context"
	"fmt"
	"os"

	llama "github.com/go-skynet/go-llama.cpp"

	"finbot/internal/config"
)

// Local runs a GGUF model in process through llama.cpp. The model is loaded
// once at construction and reused for every call.
type Local struct {
	model *llama.LLama
	cfg   *config.LLMConfig
}

func NewLocal(cfg *config.LLMConfig) (*Local, error) {
	path := cfg.Local.ModelPath
	if path == "" {
		return nil, fmt.Errorf("llm.local.model_path is required for the local backend")
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("model path not found: %s", path)
	}

	model, err := llama.New(path,
		llama.SetContext(2048),
		llama.SetNBatch(512),
	)
	if err != nil {
		return nil, fmt.Errorf("loading model %s: %w", path, err)
	}
	return &Local{model: model, cfg: cfg}, nil
}

// Stream yields tokens as the decoder produces them. A generation failure
// ends the stream with a single "Error: ..." fragment.
func (l *Local) Stream(ctx context.Context, prompt string) <-chan string {
	out := make(chan string)
	go func() {
		defer close(out)
		_, err := l.model.Predict(prompt,
			llama.SetThreads(4),
			llama.SetTokens(l.cfg.MaxTokens),
			llama.SetTemperature(float32(l.cfg.Temperature)),
			llama.SetTopK(40),
			llama.SetTopP(0.9),
			llama.SetPenalty(1.1),
			llama.SetStopWords(l.cfg.Stop...),
			llama.SetTokenCallback(func(token string) bool {
				return emit(ctx, out, token)
			}),
		)
		if err != nil && ctx.Err() == nil {
			emit(ctx, out, fmt.Sprintf("Error: %s", err))
		}
	}()
	return out
}

// Close frees the loaded model.
func (l *Local) Close() {
	l.model.Free()
}
