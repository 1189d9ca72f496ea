package embedder

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"
)

// Provider names and their defaults.
const (
	ProviderOpenAI = "openai"
	ProviderJina   = "jina"
	ProviderLocal  = "local"

	DefaultOpenAIBaseURL = "https://api.openai.com/v1"
	DefaultJinaBaseURL   = "https://api.jina.ai/v1"

	DefaultOpenAIModel = "text-embedding-3-small"
	DefaultJinaModel   = "jina-embeddings-v3"

	OpenAIDimension = 1536
	JinaDimension   = 1024
	LocalDimension  = 384

	// MaxBatchSize bounds a single EmbedBatch call.
	MaxBatchSize = 100

	// DefaultRequestsPerSecond throttles API calls when no explicit rate
	// is configured.
	DefaultRequestsPerSecond = 5
)

const requestTimeout = 30 * time.Second

// HTTPProvider talks to any OpenAI-compatible embeddings endpoint. The
// hosted OpenAI and Jina APIs both speak this format, as do local servers
// such as Ollama and LM Studio.
type HTTPProvider struct {
	name       string
	baseURL    string
	apiKey     string
	model      string
	dimension  int
	httpClient *http.Client
	limiter    *rate.Limiter
	cache      *Cache
}

// HTTPConfig configures an HTTPProvider.
type HTTPConfig struct {
	Name              string  // Provider name reported on embeddings.
	BaseURL           string  // API root, without the /embeddings suffix.
	APIKey            string
	Model             string
	Dimension         int
	RequestsPerSecond float64 // Zero means DefaultRequestsPerSecond.
	Cache             *Cache  // Optional.
}

// NewHTTPProvider creates a provider for an OpenAI-compatible API.
func NewHTTPProvider(cfg HTTPConfig) (*HTTPProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w for provider %q", ErrMissingAPIKey, cfg.Name)
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultOpenAIBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultOpenAIModel
	}
	if cfg.Dimension <= 0 {
		cfg.Dimension = OpenAIDimension
	}
	if cfg.Name == "" {
		cfg.Name = ProviderOpenAI
	}

	rps := cfg.RequestsPerSecond
	if rps <= 0 {
		rps = DefaultRequestsPerSecond
	}
	burst := int(rps)
	if burst < 1 {
		burst = 1
	}

	return &HTTPProvider{
		name:      cfg.Name,
		baseURL:   strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:    cfg.APIKey,
		model:     cfg.Model,
		dimension: cfg.Dimension,
		httpClient: &http.Client{
			Timeout: requestTimeout,
		},
		limiter: rate.NewLimiter(rate.Limit(rps), burst),
		cache:   cfg.Cache,
	}, nil
}

func (p *HTTPProvider) Embed(ctx context.Context, text string) (*Embedding, error) {
	if text == "" {
		return nil, ErrEmptyText
	}

	hash := ComputeHash(text)
	if p.cache != nil {
		if emb, ok := p.cache.Get(hash); ok {
			return emb, nil
		}
	}

	embeddings, err := p.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return embeddings[0], nil
}

func (p *HTTPProvider) EmbedBatch(ctx context.Context, texts []string) ([]*Embedding, error) {
	if err := validateTexts(texts); err != nil {
		return nil, err
	}
	if len(texts) > MaxBatchSize {
		return nil, fmt.Errorf("%w: max %d texts allowed", ErrBatchTooLarge, MaxBatchSize)
	}

	cfg := defaultRetryConfig()
	embeddings, err := retry(ctx, cfg, func(ctx context.Context) ([]*Embedding, error) {
		if err := p.limiter.Wait(ctx); err != nil {
			return nil, err
		}
		return p.callAPI(ctx, texts)
	})
	if err != nil {
		return nil, fmt.Errorf("%w after %d attempts: %v", ErrProviderFailed, cfg.attempts, err)
	}

	if p.cache != nil {
		for i, emb := range embeddings {
			hash := ComputeHash(texts[i])
			emb.Hash = hash
			p.cache.Set(hash, emb)
		}
	}

	return embeddings, nil
}

func (p *HTTPProvider) callAPI(ctx context.Context, texts []string) ([]*Embedding, error) {
	reqBody := map[string]interface{}{
		"input": texts,
		"model": p.model,
	}

	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", p.baseURL+"/embeddings", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+p.apiKey)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("api call: %w", err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		bodyBytes, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("api error %d: %s", resp.StatusCode, string(bodyBytes))
	}

	var apiResp struct {
		Data []struct {
			Embedding []float32 `json:"embedding"`
			Index     int       `json:"index"`
		} `json:"data"`
		Model string `json:"model"`
	}

	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}

	if len(apiResp.Data) != len(texts) {
		return nil, fmt.Errorf("api returned %d embeddings for %d inputs", len(apiResp.Data), len(texts))
	}

	model := apiResp.Model
	if model == "" {
		model = p.model
	}

	// The response carries an index per item; respect it rather than
	// assuming response order matches input order.
	embeddings := make([]*Embedding, len(texts))
	for i, data := range apiResp.Data {
		pos := data.Index
		if pos < 0 || pos >= len(embeddings) || embeddings[pos] != nil {
			pos = i
		}
		embeddings[pos] = &Embedding{
			Vector:    data.Embedding,
			Dimension: len(data.Embedding),
			Provider:  p.name,
			Model:     model,
		}
	}

	return embeddings, nil
}

func (p *HTTPProvider) Dimension() int {
	return p.dimension
}

func (p *HTTPProvider) Provider() string {
	return p.name
}

func (p *HTTPProvider) Model() string {
	return p.model
}

func (p *HTTPProvider) Close() error {
	p.httpClient.CloseIdleConnections()
	return nil
}

// LocalProvider produces deterministic offline embeddings derived from a
// SHA-256 chain over the text. The vectors carry no semantic signal, but
// identical text always embeds identically, which keeps indexing and
// search runnable without network access or API keys.
type LocalProvider struct {
	model     string
	dimension int
	cache     *Cache
}

// NewLocalProvider creates a local embedder.
func NewLocalProvider(dimension int, cache *Cache) *LocalProvider {
	if dimension <= 0 {
		dimension = LocalDimension
	}
	return &LocalProvider{
		model:     "local-deterministic",
		dimension: dimension,
		cache:     cache,
	}
}

func (l *LocalProvider) Embed(ctx context.Context, text string) (*Embedding, error) {
	if text == "" {
		return nil, ErrEmptyText
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	hash := ComputeHash(text)
	if l.cache != nil {
		if emb, ok := l.cache.Get(hash); ok {
			return emb, nil
		}
	}

	emb := &Embedding{
		Vector:    deterministicVector(text, l.dimension),
		Dimension: l.dimension,
		Provider:  ProviderLocal,
		Model:     l.model,
		Hash:      hash,
	}

	if l.cache != nil {
		l.cache.Set(hash, emb)
	}

	return emb, nil
}

func (l *LocalProvider) EmbedBatch(ctx context.Context, texts []string) ([]*Embedding, error) {
	if err := validateTexts(texts); err != nil {
		return nil, err
	}

	embeddings := make([]*Embedding, len(texts))
	for i, text := range texts {
		emb, err := l.Embed(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("embedding text %d: %w", i, err)
		}
		embeddings[i] = emb
	}

	return embeddings, nil
}

func (l *LocalProvider) Dimension() int {
	return l.dimension
}

func (l *LocalProvider) Provider() string {
	return ProviderLocal
}

func (l *LocalProvider) Model() string {
	return l.model
}

func (l *LocalProvider) Close() error {
	return nil
}

// deterministicVector expands a SHA-256 chain over the text into a unit
// vector of the requested dimension. Each 32-byte block is rehashed to
// produce the next, so all dimensions carry hash-derived values.
func deterministicVector(text string, dimension int) []float32 {
	vector := make([]float32, dimension)
	block := sha256.Sum256([]byte(text))

	for i := 0; i < dimension; i++ {
		if i > 0 && i%sha256.Size == 0 {
			block = sha256.Sum256(block[:])
		}
		// Map bytes to [-1, 1].
		vector[i] = float32(block[i%sha256.Size])/127.5 - 1
	}

	return NormalizeVector(vector)
}

// NormalizeVector scales a vector to unit length. Zero vectors are
// returned unchanged.
func NormalizeVector(v []float32) []float32 {
	var sum float64
	for _, val := range v {
		sum += float64(val) * float64(val)
	}

	if sum == 0 {
		return v
	}

	norm := float32(math.Sqrt(sum))
	result := make([]float32, len(v))
	for i, val := range v {
		result[i] = val / norm
	}

	return result
}
