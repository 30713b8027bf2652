package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"scirag/internal/classifier"
	"scirag/internal/config"
	"scirag/internal/converter"
	"scirag/internal/domain"
	"scirag/internal/embeddings"
	"scirag/internal/ingest"
	"scirag/internal/ledger"
	"scirag/internal/llm"
	"scirag/internal/metadata"
	"scirag/internal/progress"
	"scirag/internal/retrieval"
	"scirag/internal/vectordb"
)

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// app bundles the fully wired components shared by the commands.
type app struct {
	cfg      *config.Config
	registry *domain.Registry
	engine   *retrieval.Engine
	pipeline *ingest.Pipeline
	ledger   *ledger.Ledger
}

func buildApp(cfg *config.Config) (*app, error) {
	registry, err := domain.Builtin(cfg.DataDir)
	if err != nil {
		return nil, err
	}

	provider, err := llm.NewProvider(string(cfg.Provider), cfg.Model, cfg.BaseURL)
	if err != nil {
		return nil, err
	}
	retrying := llm.NewRetryProvider(provider, cfg.Retries)

	factory, err := buildEmbedderFactory(cfg)
	if err != nil {
		return nil, err
	}

	db, err := vectordb.Open(filepath.Join(cfg.DataDir, "vectors"))
	if err != nil {
		return nil, err
	}

	lg, err := ledger.Open(filepath.Join(cfg.DataDir, "ledger.db"))
	if err != nil {
		return nil, err
	}

	conv := converter.NewDoclingClient(cfg.DoclingURL)
	clf := classifier.New(retrying, cfg.Model, registry, conv)
	extractor := metadata.NewExtractor(retrying, cfg.Model)

	engine := retrieval.NewEngine(retrieval.Options{
		Registry:   registry,
		Classifier: clf,
		Extractor:  extractor,
		Provider:   retrying,
		Embedders:  factory,
		Store:      db,
		ChatModel:  cfg.Model,
	})

	pipeline := ingest.NewPipeline(ingest.Options{
		Converter:  conv,
		Classifier: clf,
		Extractor:  extractor,
		Provider:   retrying,
		Embedders:  factory,
		Store:      db,
		Registry:   registry,
		Ledger:     lg,
		Reporter:   progress.NewReporter(),
		ChatModel:  cfg.Model,
		ChunkSize:  cfg.ChunkSize,
	})

	return &app{
		cfg:      cfg,
		registry: registry,
		engine:   engine,
		pipeline: pipeline,
		ledger:   lg,
	}, nil
}

func buildEmbedderFactory(cfg *config.Config) (embeddings.Factory, error) {
	provider := cfg.EmbeddingProvider
	if provider == "" {
		provider = cfg.Provider
	}
	switch provider {
	case config.ProviderOpenAI:
		apiKey := os.Getenv("OPENAI_API_KEY")
		if apiKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY environment variable is not set")
		}
		return embeddings.NewOpenAIFactory(apiKey, cfg.BaseURL), nil
	case config.ProviderOllama:
		return embeddings.NewOllamaFactory(cfg.BaseURL), nil
	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", provider)
	}
}
