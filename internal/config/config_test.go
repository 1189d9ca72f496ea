package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AdamTovatt/easy-reasy-knowledge-base-sub000/internal/embedder"
)

// clearEnv blanks every variable Load consults so tests are isolated
// from the developer's environment.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		EnvConfigPath,
		EnvDatabasePath,
		EnvWorkers,
		EnvChunkSize,
		EnvChunkOverlap,
		embedder.EnvProvider,
		embedder.EnvBaseURL,
		embedder.EnvModel,
		embedder.EnvAPIKey,
		embedder.EnvOpenAIAPIKey,
		embedder.EnvJinaAPIKey,
	} {
		t.Setenv(key, "")
	}
}

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestDefaultValues(t *testing.T) {
	cfg := Default()

	assert.Empty(t, cfg.Database.Path)
	assert.Equal(t, 6000, cfg.Chunking.MaxSection)
	assert.Equal(t, 1500, cfg.Chunking.ChunkSize)
	assert.Equal(t, 200, cfg.Chunking.ChunkOverlap)
	assert.Equal(t, 100, cfg.Chunking.MinChunk)
	assert.Equal(t, []string{".md", ".markdown"}, cfg.Indexing.Extensions)
	assert.Equal(t, 0, cfg.Indexing.Workers)
	assert.Equal(t, DefaultDebounceMillis, cfg.Watch.DebounceMillis)
	assert.Equal(t, embedder.DefaultCacheSize, cfg.Embedding.CacheSize)
}

func TestLoadMissingFile(t *testing.T) {
	clearEnv(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)
	assert.Equal(t, Default().Chunking, cfg.Chunking)
}

func TestLoadFromFile(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
[database]
path = "/tmp/test-knowledge.db"

[embedding]
provider = "local"
dimension = 256

[chunking]
chunk_size = 800
chunk_overlap = 80
min_chunk = 40

[indexing]
workers = 2
extensions = [".md", ".txt"]

[watch]
debounce_ms = 250
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/test-knowledge.db", cfg.Database.Path)
	assert.Equal(t, "local", cfg.Embedding.Provider)
	assert.Equal(t, 256, cfg.Embedding.Dimension)
	assert.Equal(t, 800, cfg.Chunking.ChunkSize)
	assert.Equal(t, 80, cfg.Chunking.ChunkOverlap)
	assert.Equal(t, 40, cfg.Chunking.MinChunk)
	assert.Equal(t, 2, cfg.Indexing.Workers)
	assert.Equal(t, []string{".md", ".txt"}, cfg.Indexing.Extensions)
	assert.Equal(t, 250, cfg.Watch.DebounceMillis)
}

func TestLoadPartialFileKeepsDefaults(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
[database]
path = "/tmp/partial.db"
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/partial.db", cfg.Database.Path)
	assert.Equal(t, 1500, cfg.Chunking.ChunkSize)
	assert.Equal(t, []string{".md", ".markdown"}, cfg.Indexing.Extensions)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
[database]
path = "/tmp/from-file.db"

[chunking]
chunk_size = 800
`)

	t.Setenv(EnvDatabasePath, "/tmp/from-env.db")
	t.Setenv(EnvChunkSize, "1200")
	t.Setenv(embedder.EnvProvider, "local")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/from-env.db", cfg.Database.Path)
	assert.Equal(t, 1200, cfg.Chunking.ChunkSize)
	assert.Equal(t, "local", cfg.Embedding.Provider)
}

func TestLoadInvalidTOML(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `[database
path = what`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse config file")
}

func TestLoadRejectsOverlapNotBelowChunkSize(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
[chunking]
chunk_size = 100
chunk_overlap = 100
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "chunk_overlap")
}

func TestLoadRejectsUnknownProvider(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
[embedding]
provider = "cohere"
`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown embedding provider")
}

func TestLoadNormalizesValues(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
[embedding]
requests_per_second = -1.0

[indexing]
workers = -3
extensions = []

[watch]
debounce_ms = -5
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, float64(embedder.DefaultRequestsPerSecond), cfg.Embedding.RequestsPerSecond)
	assert.Equal(t, 0, cfg.Indexing.Workers)
	assert.Equal(t, []string{".md", ".markdown"}, cfg.Indexing.Extensions)
	assert.Equal(t, DefaultDebounceMillis, cfg.Watch.DebounceMillis)
}

func TestLoadRespectsConfigPathEnv(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
[database]
path = "/tmp/env-located.db"
`)
	t.Setenv(EnvConfigPath, path)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/env-located.db", cfg.Database.Path)
}

func TestSaveRoundTrip(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "nested", "config.toml")

	cfg := Default()
	cfg.Database.Path = "/tmp/saved.db"
	cfg.Embedding.Provider = "local"
	cfg.Indexing.Workers = 3
	require.NoError(t, cfg.Save(path))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg.Database.Path, loaded.Database.Path)
	assert.Equal(t, cfg.Embedding.Provider, loaded.Embedding.Provider)
	assert.Equal(t, cfg.Indexing.Workers, loaded.Indexing.Workers)
	assert.Equal(t, cfg.Chunking, loaded.Chunking)
}

func TestDatabasePathExplicit(t *testing.T) {
	cfg := Default()
	cfg.Database.Path = "/tmp/explicit.db"

	path, err := cfg.DatabasePath()
	require.NoError(t, err)
	assert.Equal(t, "/tmp/explicit.db", path)
}

func TestDatabasePathDefault(t *testing.T) {
	cfg := Default()

	path, err := cfg.DatabasePath()
	require.NoError(t, err)
	assert.Equal(t, dbName, filepath.Base(path))
	assert.Equal(t, dirName, filepath.Base(filepath.Dir(path)))
}

func TestEmbedderConfigDetectsProvider(t *testing.T) {
	clearEnv(t)
	t.Setenv(embedder.EnvOpenAIAPIKey, "sk-test")

	cfg := Default()
	embCfg := cfg.EmbedderConfig()

	assert.Equal(t, embedder.ProviderOpenAI, embCfg.Provider)
	assert.Equal(t, "sk-test", embCfg.APIKey)
	assert.Equal(t, embedder.DefaultCacheSize, embCfg.CacheSize)
}

func TestEmbedderConfigExplicitWins(t *testing.T) {
	clearEnv(t)
	t.Setenv(embedder.EnvOpenAIAPIKey, "sk-test")

	cfg := Default()
	cfg.Embedding.Provider = "Local"
	embCfg := cfg.EmbedderConfig()

	assert.Equal(t, embedder.ProviderLocal, embCfg.Provider)
}

func TestSectionerConfig(t *testing.T) {
	cfg := Default()
	cfg.Chunking = Chunking{MaxSection: 4500, ChunkSize: 900, ChunkOverlap: 90, MinChunk: 45}

	sc := cfg.SectionerConfig()
	assert.Equal(t, 4500, sc.MaxSection)
	assert.Equal(t, 900, sc.ChunkSize)
	assert.Equal(t, 90, sc.ChunkOverlap)
	assert.Equal(t, 45, sc.MinChunk)
}
