package config

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Database  DatabaseConfig  `yaml:"database"`
	Store     StoreConfig     `yaml:"store"`
	Embedding EmbeddingConfig `yaml:"embedding"`
	LLM       LLMConfig       `yaml:"llm"`
	RAG       RAGConfig       `yaml:"rag"`
}

type DatabaseConfig struct {
	URL   string `yaml:"url"`
	Debug bool   `yaml:"debug"`
}

type StoreConfig struct {
	Backend  string `yaml:"backend"` // postgres | chromem
	Path     string `yaml:"path"`
	InMemory bool   `yaml:"in_memory"`
}

type EmbeddingConfig struct {
	BaseURL   string `yaml:"base_url"`
	Model     string `yaml:"model"`
	Dimension int    `yaml:"dimension"`
}

type LLMConfig struct {
	Backend     string       `yaml:"backend"` // local | openai | hf
	Local       LocalConfig  `yaml:"local"`
	OpenAI      OpenAIConfig `yaml:"openai"`
	HF          HFConfig     `yaml:"hf"`
	Temperature float64      `yaml:"temperature"`
	MaxTokens   int          `yaml:"max_tokens"`
	Stop        []string     `yaml:"stop"`
}

type LocalConfig struct {
	ModelPath string `yaml:"model_path"`
}

type OpenAIConfig struct {
	BaseURL string `yaml:"base_url"`
	Model   string `yaml:"model"`
}

type HFConfig struct {
	Model string `yaml:"model"`
}

type RAGConfig struct {
	ChunkSize        int `yaml:"chunk_size"`
	ChunkOverlap     int `yaml:"chunk_overlap"`
	TopK             int `yaml:"top_k"`
	MaxResponseWords int `yaml:"max_response_words"`
}

const (
	BackendLocal  = "local"
	BackendOpenAI = "openai"
	BackendHF     = "hf"

	StorePostgres = "postgres"
	StoreChromem  = "chromem"
)

// Default returns the full default configuration. Every field can be
// overridden from the yaml file; secrets only ever come from the environment.
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{
			URL: "postgres://localhost:5432/finbot?sslmode=disable",
		},
		Store: StoreConfig{
			Backend: StorePostgres,
			Path:    "./chromemdb",
		},
		Embedding: EmbeddingConfig{
			BaseURL:   "http://localhost:11434",
			Model:     "all-minilm",
			Dimension: 384,
		},
		LLM: LLMConfig{
			Backend: BackendLocal,
			OpenAI: OpenAIConfig{
				Model: "gpt-4o-mini",
			},
			Temperature: 0.3,
			MaxTokens:   128,
			Stop:        []string{"### Question", "### Answer", "\n\n---", "Source:", "<|eot_id|>", "</s>"},
		},
		RAG: RAGConfig{
			ChunkSize:        200,
			ChunkOverlap:     50,
			TopK:             4,
			MaxResponseWords: 128,
		},
	}
}

// Load reads the yaml config at path on top of the defaults. A missing file
// is not an error; the defaults are used as is.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks the configuration for the selected backends and reports
// every violation at once, not just the first.
func (c *Config) Validate() error {
	var errs []error

	switch c.Store.Backend {
	case StorePostgres:
		if c.Database.URL == "" {
			errs = append(errs, errors.New("database.url is required for the postgres store"))
		}
	case StoreChromem:
		if !c.Store.InMemory && c.Store.Path == "" {
			errs = append(errs, errors.New("store.path is required for the persistent chromem store"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown store backend: %s", c.Store.Backend))
	}

	if c.Embedding.Model == "" {
		errs = append(errs, errors.New("embedding.model is required"))
	}
	if c.Embedding.Dimension <= 0 {
		errs = append(errs, errors.New("embedding.dimension must be positive"))
	}

	switch c.LLM.Backend {
	case BackendLocal:
		if c.LLM.Local.ModelPath == "" {
			errs = append(errs, errors.New("llm.local.model_path is required when using the local backend"))
		} else if _, err := os.Stat(c.LLM.Local.ModelPath); err != nil {
			errs = append(errs, fmt.Errorf("llm.local.model_path file does not exist: %s", c.LLM.Local.ModelPath))
		}
	case BackendOpenAI:
		if os.Getenv("OPENAI_API_KEY") == "" {
			errs = append(errs, errors.New("OPENAI_API_KEY is required when using the openai backend"))
		}
		if c.LLM.OpenAI.Model == "" {
			errs = append(errs, errors.New("llm.openai.model is required when using the openai backend"))
		}
	case BackendHF:
		if c.LLM.HF.Model == "" {
			errs = append(errs, errors.New("llm.hf.model is required when using the hf backend"))
		}
		if os.Getenv("HF_TOKEN") == "" {
			errs = append(errs, errors.New("HF_TOKEN is required when using the hf backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown llm backend: %s", c.LLM.Backend))
	}

	if c.RAG.ChunkSize <= 0 {
		errs = append(errs, errors.New("rag.chunk_size must be positive"))
	}
	if c.RAG.ChunkOverlap < 0 {
		errs = append(errs, errors.New("rag.chunk_overlap must not be negative"))
	}
	if c.RAG.TopK <= 0 {
		errs = append(errs, errors.New("rag.top_k must be positive"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration validation failed:\n%w", errors.Join(errs...))
	}
	return nil
}
