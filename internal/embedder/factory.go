package embedder

import (
	"fmt"
	"os"
	"strings"
)

// Environment variables consulted by NewFromEnv.
const (
	EnvProvider = "EASYREASY_EMBEDDING_PROVIDER"
	EnvBaseURL  = "EASYREASY_EMBEDDING_BASE_URL"
	EnvModel    = "EASYREASY_EMBEDDING_MODEL"
	EnvAPIKey   = "EASYREASY_EMBEDDING_API_KEY"

	EnvOpenAIAPIKey = "OPENAI_API_KEY"
	EnvJinaAPIKey   = "JINA_API_KEY"
)

// Config holds embedder configuration.
type Config struct {
	Provider          string
	BaseURL           string
	APIKey            string
	Model             string
	Dimension         int
	CacheSize         int
	RequestsPerSecond float64
}

// New creates an embedder with explicit configuration.
func New(cfg Config) (Embedder, error) {
	var cache *Cache
	if cfg.CacheSize > 0 {
		cache = NewCache(cfg.CacheSize)
	}

	switch strings.ToLower(cfg.Provider) {
	case ProviderOpenAI:
		return NewHTTPProvider(HTTPConfig{
			Name:              ProviderOpenAI,
			BaseURL:           cfg.BaseURL,
			APIKey:            cfg.APIKey,
			Model:             cfg.Model,
			Dimension:         cfg.Dimension,
			RequestsPerSecond: cfg.RequestsPerSecond,
			Cache:             cache,
		})
	case ProviderJina:
		return NewHTTPProvider(HTTPConfig{
			Name:              ProviderJina,
			BaseURL:           defaultString(cfg.BaseURL, DefaultJinaBaseURL),
			APIKey:            cfg.APIKey,
			Model:             defaultString(cfg.Model, DefaultJinaModel),
			Dimension:         defaultInt(cfg.Dimension, JinaDimension),
			RequestsPerSecond: cfg.RequestsPerSecond,
			Cache:             cache,
		})
	case ProviderLocal:
		return NewLocalProvider(cfg.Dimension, cache), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedProvider, cfg.Provider)
	}
}

// NewFromEnv creates an embedder from environment variables.
//
// Selection order:
//  1. EASYREASY_EMBEDDING_PROVIDER names the provider explicitly.
//  2. OPENAI_API_KEY set selects the OpenAI provider.
//  3. JINA_API_KEY set selects the Jina provider.
//  4. Otherwise the offline local provider is used.
func NewFromEnv() (Embedder, error) {
	cfg := Config{
		Provider:  DetectProvider(),
		BaseURL:   os.Getenv(EnvBaseURL),
		APIKey:    os.Getenv(EnvAPIKey),
		Model:     os.Getenv(EnvModel),
		CacheSize: DefaultCacheSize,
	}

	if cfg.APIKey == "" {
		switch cfg.Provider {
		case ProviderOpenAI:
			cfg.APIKey = os.Getenv(EnvOpenAIAPIKey)
		case ProviderJina:
			cfg.APIKey = os.Getenv(EnvJinaAPIKey)
		}
	}

	return New(cfg)
}

// DetectProvider returns the provider NewFromEnv would pick with the
// current environment.
func DetectProvider() string {
	if provider := os.Getenv(EnvProvider); provider != "" {
		return strings.ToLower(provider)
	}

	if os.Getenv(EnvOpenAIAPIKey) != "" {
		return ProviderOpenAI
	}
	if os.Getenv(EnvJinaAPIKey) != "" {
		return ProviderJina
	}

	return ProviderLocal
}

func defaultString(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}

func defaultInt(value, fallback int) int {
	if value <= 0 {
		return fallback
	}
	return value
}
