package config

// ProviderType identifies an LLM or embedding provider.
type ProviderType string

const (
	ProviderOpenAI ProviderType = "openai"
	ProviderOllama ProviderType = "ollama"
)

// Config is the top-level scirag configuration, corresponding to .scirag.yml.
type Config struct {
	Provider          ProviderType `yaml:"provider" koanf:"provider"`
	Model             string       `yaml:"model" koanf:"model"`
	EmbeddingProvider ProviderType `yaml:"embedding_provider" koanf:"embedding_provider"`
	BaseURL           string       `yaml:"base_url" koanf:"base_url"`
	DoclingURL        string       `yaml:"docling_url" koanf:"docling_url"`
	DataDir           string       `yaml:"data_dir" koanf:"data_dir"`
	ChunkSize         int          `yaml:"chunk_size" koanf:"chunk_size"`
	TopK              int          `yaml:"top_k" koanf:"top_k"`
	Retries           int          `yaml:"retries" koanf:"retries"`
	Server            ServerConfig `yaml:"server" koanf:"server"`
}

// ServerConfig holds HTTP API settings.
type ServerConfig struct {
	Port     int  `yaml:"port" koanf:"port"`
	AllowAll bool `yaml:"allow_all" koanf:"allow_all"`
}
