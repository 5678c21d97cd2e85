package llm_test

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"finbot/internal/config"
	"finbot/internal/llm"
)

func TestNewLocalMissingModelPath(t *testing.T) {
	cfg := &config.Default().LLM
	cfg.Local.ModelPath = ""
	_, err := llm.NewLocal(cfg)
	require.ErrorContains(t, err, "model_path is required")
}

func TestNewLocalModelFileDoesNotExist(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "model.gguf")
	cfg := &config.Default().LLM
	cfg.Local.ModelPath = missing

	_, err := llm.NewLocal(cfg)
	require.ErrorContains(t, err, missing)
}

func TestLocalExposesModelCleanup(t *testing.T) {
	// the session entry point frees any backend exposing Close on shutdown
	require.Implements(t, (*interface{ Close() })(nil), (*llm.Local)(nil))
}

func TestNewHFMissingModel(t *testing.T) {
	t.Setenv("HF_TOKEN", "hf-test")
	cfg := &config.Default().LLM
	cfg.Backend = config.BackendHF
	_, err := llm.NewHF(cfg)
	require.ErrorContains(t, err, "llm.hf.model is required")
}

func TestNewHFMissingToken(t *testing.T) {
	t.Setenv("HF_TOKEN", "")
	cfg := &config.Default().LLM
	cfg.Backend = config.BackendHF
	cfg.HF.Model = "meta-llama/Meta-Llama-3-8B-Instruct"
	_, err := llm.NewHF(cfg)
	require.ErrorContains(t, err, "HF_TOKEN")
}

func TestFactorySelectsByConfig(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "test-key")

	cfg := &config.Default().LLM
	cfg.Backend = config.BackendOpenAI
	backend, err := llm.New(cfg)
	require.NoError(t, err)
	require.IsType(t, &llm.OpenAI{}, backend)

	cfg = &config.Default().LLM
	cfg.Backend = "unknown"
	_, err = llm.New(cfg)
	require.ErrorContains(t, err, "unknown llm backend")
}
