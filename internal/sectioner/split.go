package sectioner

import "strings"

// charsPerToken is the chars-per-token heuristic used for sizing chunks.
const charsPerToken = 4

// estimateTokens gives a rough token count for sizing purposes. Exact
// tokenization is not required here.
func estimateTokens(text string) int {
	if text == "" {
		return 0
	}
	tokens := len(text) / charsPerToken
	if tokens < 1 {
		tokens = 1
	}
	return tokens
}

// splitText breaks text into parts of approximately targetTokens, carrying
// overlapTokens of trailing text into each following part. Text that fits
// in a single part is returned as-is regardless of minTokens; when
// splitting is needed, fragments below minTokens are discarded.
func splitText(text string, targetTokens, overlapTokens, minTokens int) []string {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if estimateTokens(text) <= targetTokens {
		return []string{text}
	}

	paragraphs := splitParagraphs(text)

	var parts []string
	var current strings.Builder
	currentTokens := 0

	flush := func() {
		if currentTokens == 0 {
			return
		}
		part := current.String()
		if estimateTokens(part) >= minTokens {
			parts = append(parts, part)
		}
		current.Reset()
		currentTokens = 0
	}

	for _, para := range paragraphs {
		paraTokens := estimateTokens(para)

		// A single paragraph above the target is split on sentences.
		if paraTokens > targetTokens {
			flush()
			for _, sub := range splitSentences(para, targetTokens, overlapTokens) {
				if estimateTokens(sub) >= minTokens {
					parts = append(parts, sub)
				}
			}
			continue
		}

		if currentTokens+paraTokens > targetTokens && currentTokens > 0 {
			emitted := current.String()
			flush()
			if tail := overlapTail(emitted, overlapTokens); tail != "" {
				current.WriteString(tail)
				currentTokens = estimateTokens(tail)
			}
		}

		if current.Len() > 0 {
			current.WriteString("\n\n")
		}
		current.WriteString(para)
		currentTokens += paraTokens
	}
	flush()

	return parts
}

// splitParagraphs splits on blank lines, dropping empty entries.
func splitParagraphs(text string) []string {
	var out []string
	for _, p := range strings.Split(text, "\n\n") {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// splitSentences accumulates sentences up to targetTokens per part, with
// overlap between consecutive parts.
func splitSentences(text string, targetTokens, overlapTokens int) []string {
	sentences := scanSentences(text)

	var parts []string
	var current strings.Builder
	currentTokens := 0

	for _, sent := range sentences {
		sentTokens := estimateTokens(sent)

		if currentTokens+sentTokens > targetTokens && currentTokens > 0 {
			emitted := current.String()
			parts = append(parts, emitted)
			current.Reset()
			currentTokens = 0
			if tail := overlapTail(emitted, overlapTokens); tail != "" {
				current.WriteString(tail)
				currentTokens = estimateTokens(tail)
			}
		}

		if current.Len() > 0 {
			current.WriteString(" ")
		}
		current.WriteString(sent)
		currentTokens += sentTokens
	}
	if currentTokens > 0 {
		parts = append(parts, current.String())
	}

	return parts
}

// scanSentences does basic sentence splitting on terminal punctuation
// followed by a space.
func scanSentences(text string) []string {
	var sentences []string
	var current strings.Builder

	for i, r := range text {
		current.WriteRune(r)
		if (r == '.' || r == '!' || r == '?') && i+1 < len(text) && text[i+1] == ' ' {
			sentences = append(sentences, strings.TrimSpace(current.String()))
			current.Reset()
		}
	}
	if current.Len() > 0 {
		sentences = append(sentences, strings.TrimSpace(current.String()))
	}

	return sentences
}

// overlapTail returns roughly the last overlapTokens worth of text, cut at
// a word boundary. Returns "" when the text is not longer than the overlap.
func overlapTail(text string, overlapTokens int) string {
	if overlapTokens <= 0 {
		return ""
	}
	window := overlapTokens * charsPerToken
	if len(text) <= window {
		return ""
	}
	tail := text[len(text)-window:]
	if i := strings.IndexByte(tail, ' '); i >= 0 && i+1 < len(tail) {
		tail = tail[i+1:]
	}
	return strings.TrimSpace(tail)
}
