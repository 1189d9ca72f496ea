// Package embedder generates vector embeddings for document chunks.
//
// Two provider families are supported: any OpenAI-compatible HTTP API
// (the hosted OpenAI and Jina endpoints, or local servers speaking the
// same format) and a deterministic offline local provider.
//
// # Basic Usage
//
//	// Create an embedder from the environment.
//	emb, err := embedder.NewFromEnv()
//	if err != nil {
//	    return err
//	}
//	defer emb.Close()
//
//	result, err := emb.Embed(ctx, chunk.Content)
//	fmt.Printf("dimension: %d\n", result.Dimension)
//
// # Batch Processing
//
// Indexing embeds chunks in batches to cut API round trips:
//
//	embeddings, err := emb.EmbedBatch(ctx, texts)
//	for i, e := range embeddings {
//	    chunks[i].Embedding = e.Vector
//	}
//
// Batches are capped at MaxBatchSize texts per call.
//
// # Provider Selection
//
// NewFromEnv picks a provider from environment variables:
//
//  1. If EASYREASY_EMBEDDING_PROVIDER is set, use that provider.
//  2. Else if OPENAI_API_KEY is set, use OpenAI.
//  3. Else if JINA_API_KEY is set, use Jina.
//  4. Else fall back to the local provider (offline mode).
//
// The base URL, model, and API key can be overridden with
// EASYREASY_EMBEDDING_BASE_URL, EASYREASY_EMBEDDING_MODEL, and
// EASYREASY_EMBEDDING_API_KEY, which makes any OpenAI-compatible server
// usable:
//
//	EASYREASY_EMBEDDING_PROVIDER=openai
//	EASYREASY_EMBEDDING_BASE_URL=http://localhost:11434/v1
//	EASYREASY_EMBEDDING_MODEL=nomic-embed-text
//
// # Caching and Retry
//
// Providers share an LRU cache keyed by the SHA-256 of the text, so
// re-indexing unchanged content never repeats an API call. HTTP calls are
// rate limited and retried with exponential backoff; failures after the
// final attempt surface as ErrProviderFailed.
//
// The local provider derives vectors from a SHA-256 chain over the text.
// They carry no semantic signal but are deterministic and unit-length,
// which keeps the full pipeline runnable in tests and offline setups.
package embedder
