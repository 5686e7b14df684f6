package cmd

import (
	"fmt"
	"os"

	"github.com/purposenavigator/self-analyzation/internal/config"
	"github.com/purposenavigator/self-analyzation/internal/llm"
	"github.com/purposenavigator/self-analyzation/internal/searchindex"
)

// loadConfig loads and validates the config, providing a user-friendly error.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w\nRun `selfanalyze init` to create a config file", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// createProviderFromConfig creates the completion provider, wrapped in the
// configured rate limit.
func createProviderFromConfig(cfg *config.Config) (llm.Provider, error) {
	provider, err := llm.NewProvider(string(cfg.Provider), cfg.Model)
	if err != nil {
		return nil, err
	}
	if cfg.MaxRequestsPerMin > 0 {
		provider = llm.NewRateLimitedProvider(provider, cfg.MaxRequestsPerMin)
	}
	return provider, nil
}

// createEmbedderFromConfig creates a searchindex.Embedder based on config.
func createEmbedderFromConfig(cfg *config.Config) (searchindex.Embedder, error) {
	provider := cfg.EmbeddingProvider
	if provider == "" {
		provider = cfg.Provider
	}
	model := cfg.EmbeddingModel

	switch provider {
	case config.ProviderOllama:
		return searchindex.NewOllamaEmbedder(model, 768, ""), nil
	default:
		// Everything else embeds through OpenAI.
		apiKey := os.Getenv(config.APIKeyEnvVar(config.ProviderOpenAI))
		if apiKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY is required (used for embeddings when provider is %s)", provider)
		}
		return searchindex.NewOpenAIEmbedder(apiKey, searchindex.OpenAIModel(model)), nil
	}
}
