package indexer

import (
	"context"
	"strings"
)

// Summarizer produces a short summary for a section's content.
type Summarizer interface {
	Summarize(ctx context.Context, text string) (string, error)
}

// HeuristicSummarizer derives a summary from the leading sentence of the
// text. It never calls out to a model, so it is safe as a default.
type HeuristicSummarizer struct {
	MaxLength int // Maximum summary length in bytes (default: 160).
}

func (h HeuristicSummarizer) Summarize(_ context.Context, text string) (string, error) {
	maxLen := h.MaxLength
	if maxLen <= 0 {
		maxLen = 160
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return "", nil
	}

	// First line wins, then the first sentence within it.
	if i := strings.IndexByte(text, '\n'); i >= 0 {
		text = strings.TrimSpace(text[:i])
	}
	if i := strings.Index(text, ". "); i >= 0 {
		text = text[:i+1]
	}

	if len(text) > maxLen {
		cut := text[:maxLen]
		if i := strings.LastIndexByte(cut, ' '); i > 0 {
			cut = cut[:i]
		}
		text = cut + "..."
	}

	return text, nil
}
