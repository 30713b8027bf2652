package config

// DefaultConfig returns the configuration used when no file or overrides
// are present.
func DefaultConfig() *Config {
	return &Config{
		Provider:          ProviderOpenAI,
		Model:             "gpt-4o-mini",
		EmbeddingProvider: ProviderOpenAI,
		DoclingURL:        "http://localhost:5001",
		DataDir:           ".scirag",
		ChunkSize:         1500,
		TopK:              3,
		Retries:           3,
		Server: ServerConfig{
			Port: 8080,
		},
	}
}
