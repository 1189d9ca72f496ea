package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"github.com/AdamTovatt/easy-reasy-knowledge-base-sub000/internal/embedder"
	"github.com/AdamTovatt/easy-reasy-knowledge-base-sub000/internal/sectioner"
)

// Environment variables consulted by Load, on top of the embedder's
// EASYREASY_EMBEDDING_* set.
const (
	EnvConfigPath   = "EASYREASY_CONFIG"
	EnvDatabasePath = "EASYREASY_DB_PATH"
	EnvWorkers      = "EASYREASY_WORKERS"
	EnvChunkSize    = "EASYREASY_CHUNK_SIZE"
	EnvChunkOverlap = "EASYREASY_CHUNK_OVERLAP"
)

const (
	dirName    = ".easyreasy"
	configName = "config.toml"
	dbName     = "knowledge.db"

	// DefaultDebounceMillis is how long the watcher waits after the last
	// filesystem event before reindexing a file.
	DefaultDebounceMillis = 500
)

// DefaultExtensions lists the file extensions indexed when the config
// does not name any.
var DefaultExtensions = []string{".md", ".markdown"}

// Config is the full application configuration. Values resolve in
// layers: built-in defaults, then the TOML file, then EASYREASY_*
// environment variables.
type Config struct {
	Database  Database  `toml:"database"`
	Embedding Embedding `toml:"embedding"`
	Chunking  Chunking  `toml:"chunking"`
	Indexing  Indexing  `toml:"indexing"`
	Watch     Watch     `toml:"watch"`
}

// Database selects where the knowledge base lives.
type Database struct {
	Path string `toml:"path"`
}

// Embedding configures the embedding provider.
type Embedding struct {
	Provider          string  `toml:"provider"`
	BaseURL           string  `toml:"base_url"`
	Model             string  `toml:"model"`
	APIKey            string  `toml:"api_key"`
	Dimension         int     `toml:"dimension"`
	CacheSize         int     `toml:"cache_size"`
	RequestsPerSecond float64 `toml:"requests_per_second"`
}

// Chunking controls how documents are split into sections and chunks.
type Chunking struct {
	MaxSection   int `toml:"max_section"`
	ChunkSize    int `toml:"chunk_size"`
	ChunkOverlap int `toml:"chunk_overlap"`
	MinChunk     int `toml:"min_chunk"`
}

// Indexing controls the indexing pipeline.
type Indexing struct {
	Workers    int      `toml:"workers"`
	Extensions []string `toml:"extensions"`
}

// Watch controls watch mode.
type Watch struct {
	DebounceMillis int `toml:"debounce_ms"`
}

// Default returns the configuration used when no file and no
// environment overrides are present.
func Default() *Config {
	chunking := sectioner.DefaultConfig()

	return &Config{
		Embedding: Embedding{
			CacheSize:         embedder.DefaultCacheSize,
			RequestsPerSecond: embedder.DefaultRequestsPerSecond,
		},
		Chunking: Chunking{
			MaxSection:   chunking.MaxSection,
			ChunkSize:    chunking.ChunkSize,
			ChunkOverlap: chunking.ChunkOverlap,
			MinChunk:     chunking.MinChunk,
		},
		Indexing: Indexing{
			Extensions: append([]string(nil), DefaultExtensions...),
		},
		Watch: Watch{
			DebounceMillis: DefaultDebounceMillis,
		},
	}
}

// Dir returns the application directory, ~/.easyreasy.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return filepath.Join(home, dirName), nil
}

// DefaultPath returns the default config file location,
// ~/.easyreasy/config.toml.
func DefaultPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, configName), nil
}

// Load reads configuration from the given path. An empty path falls
// back to EASYREASY_CONFIG and then the default location. A missing
// file is not an error; defaults and environment overrides still apply.
func Load(path string) (*Config, error) {
	cfg := Default()

	path, err := ResolvePath(path)
	if err != nil {
		return nil, err
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	case os.IsNotExist(err):
		// No config file yet. Defaults apply.
	default:
		return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
	}

	cfg.applyEnv()
	cfg.normalize()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Save writes the configuration as TOML. An empty path resolves the
// same way Load does. The directory is created with owner-only access.
func (c *Config) Save(path string) error {
	path, err := ResolvePath(path)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file %s: %w", path, err)
	}

	return nil
}

// Validate reports configuration combinations that cannot work.
func (c *Config) Validate() error {
	if c.Chunking.ChunkSize > 0 && c.Chunking.ChunkOverlap >= c.Chunking.ChunkSize {
		return fmt.Errorf("chunk_overlap (%d) must be smaller than chunk_size (%d)",
			c.Chunking.ChunkOverlap, c.Chunking.ChunkSize)
	}

	switch strings.ToLower(c.Embedding.Provider) {
	case "", embedder.ProviderOpenAI, embedder.ProviderJina, embedder.ProviderLocal:
	default:
		return fmt.Errorf("unknown embedding provider %q", c.Embedding.Provider)
	}

	return nil
}

// DatabasePath returns the configured database path, or the default
// ~/.easyreasy/knowledge.db.
func (c *Config) DatabasePath() (string, error) {
	if c.Database.Path != "" {
		return c.Database.Path, nil
	}

	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, dbName), nil
}

// EmbedderConfig maps the embedding section onto the embedder factory
// configuration, filling the provider and API key from the environment
// when the file leaves them unset.
func (c *Config) EmbedderConfig() embedder.Config {
	provider := strings.ToLower(c.Embedding.Provider)
	if provider == "" {
		provider = embedder.DetectProvider()
	}

	apiKey := c.Embedding.APIKey
	if apiKey == "" {
		switch provider {
		case embedder.ProviderOpenAI:
			apiKey = os.Getenv(embedder.EnvOpenAIAPIKey)
		case embedder.ProviderJina:
			apiKey = os.Getenv(embedder.EnvJinaAPIKey)
		}
	}

	return embedder.Config{
		Provider:          provider,
		BaseURL:           c.Embedding.BaseURL,
		APIKey:            apiKey,
		Model:             c.Embedding.Model,
		Dimension:         c.Embedding.Dimension,
		CacheSize:         c.Embedding.CacheSize,
		RequestsPerSecond: c.Embedding.RequestsPerSecond,
	}
}

// SectionerConfig maps the chunking section onto the sectioner
// configuration.
func (c *Config) SectionerConfig() sectioner.Config {
	return sectioner.Config{
		MaxSection:   c.Chunking.MaxSection,
		ChunkSize:    c.Chunking.ChunkSize,
		ChunkOverlap: c.Chunking.ChunkOverlap,
		MinChunk:     c.Chunking.MinChunk,
	}
}

// ResolvePath picks the config file location the way Load does:
// explicit argument, then EASYREASY_CONFIG, then the default path.
func ResolvePath(path string) (string, error) {
	if path != "" {
		return path, nil
	}
	if env := os.Getenv(EnvConfigPath); env != "" {
		return env, nil
	}
	return DefaultPath()
}

func (c *Config) applyEnv() {
	c.Database.Path = envOr(EnvDatabasePath, c.Database.Path)

	c.Embedding.Provider = envOr(embedder.EnvProvider, c.Embedding.Provider)
	c.Embedding.BaseURL = envOr(embedder.EnvBaseURL, c.Embedding.BaseURL)
	c.Embedding.Model = envOr(embedder.EnvModel, c.Embedding.Model)
	c.Embedding.APIKey = envOr(embedder.EnvAPIKey, c.Embedding.APIKey)

	c.Indexing.Workers = envInt(EnvWorkers, c.Indexing.Workers)
	c.Chunking.ChunkSize = envInt(EnvChunkSize, c.Chunking.ChunkSize)
	c.Chunking.ChunkOverlap = envInt(EnvChunkOverlap, c.Chunking.ChunkOverlap)
}

// normalize replaces unusable values with defaults after all layers
// have been applied. Chunking fields are left alone; the sectioner
// applies its own fallbacks.
func (c *Config) normalize() {
	if c.Embedding.CacheSize < 0 {
		c.Embedding.CacheSize = 0
	}
	if c.Embedding.RequestsPerSecond <= 0 {
		c.Embedding.RequestsPerSecond = embedder.DefaultRequestsPerSecond
	}
	if c.Indexing.Workers < 0 {
		c.Indexing.Workers = 0
	}
	if len(c.Indexing.Extensions) == 0 {
		c.Indexing.Extensions = append([]string(nil), DefaultExtensions...)
	}
	if c.Watch.DebounceMillis <= 0 {
		c.Watch.DebounceMillis = DefaultDebounceMillis
	}
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}
