// Package sectioner splits markdown documents into heading-scoped sections
// and size-bounded chunks ready for embedding.
package sectioner

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"github.com/AdamTovatt/easy-reasy-knowledge-base-sub000/pkg/knowledge"
	"github.com/google/uuid"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

// Config controls how documents are split.
type Config struct {
	MaxSection   int // Upper bound on section size in tokens.
	ChunkSize    int // Target chunk size in tokens.
	ChunkOverlap int // Overlap carried into the next chunk in tokens.
	MinChunk     int // Minimum size for chunks produced by splitting.
}

// DefaultConfig returns the defaults used by the indexing pipeline.
func DefaultConfig() Config {
	return Config{
		MaxSection:   6000,
		ChunkSize:    1500,
		ChunkOverlap: 200,
		MinChunk:     100,
	}
}

// Sectioner turns markdown source into sections of chunks.
type Sectioner struct {
	cfg Config
}

// New creates a Sectioner. Zero or negative config values fall back to
// the defaults; a max section smaller than the chunk size is raised to it.
func New(cfg Config) *Sectioner {
	def := DefaultConfig()
	if cfg.MaxSection <= 0 {
		cfg.MaxSection = def.MaxSection
	}
	if cfg.ChunkSize <= 0 {
		cfg.ChunkSize = def.ChunkSize
	}
	if cfg.ChunkOverlap <= 0 {
		cfg.ChunkOverlap = def.ChunkOverlap
	}
	if cfg.MinChunk <= 0 {
		cfg.MinChunk = def.MinChunk
	}
	if cfg.MaxSection < cfg.ChunkSize {
		cfg.MaxSection = cfg.ChunkSize
	}
	return &Sectioner{cfg: cfg}
}

// segment is a run of body text under one heading path, in document order.
type segment struct {
	breadcrumb []string
	text       string
}

// Split reads markdown from r and produces sections owned by fileID.
func (s *Sectioner) Split(r io.Reader, fileID uuid.UUID) ([]*knowledge.Section, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read document: %w", err)
	}
	return s.SplitBytes(src, fileID), nil
}

// SplitBytes parses markdown source and produces sections owned by fileID.
// Sections are indexed in document order starting at zero. Each segment's
// heading path is recorded on its sections as additional context. A segment
// whose chunks exceed the max section size spills into further sections, so
// a long heading-less document still yields bounded sections.
func (s *Sectioner) SplitBytes(src []byte, fileID uuid.UUID) []*knowledge.Section {
	segments := collectSegments(src)

	sections := make([]*knowledge.Section, 0)
	for _, seg := range segments {
		parts := splitText(seg.text, s.cfg.ChunkSize, s.cfg.ChunkOverlap, s.cfg.MinChunk)

		for _, group := range groupParts(parts, s.cfg.MaxSection) {
			chunks := make([]*knowledge.Chunk, 0, len(group))
			for _, part := range group {
				chunks = append(chunks, knowledge.NewChunk(part))
			}

			section := knowledge.NewSection(fileID, len(sections), chunks)
			if len(seg.breadcrumb) > 0 {
				path := strings.Join(seg.breadcrumb, " > ")
				section.AdditionalContext = &path
			}
			sections = append(sections, section)
		}
	}

	return sections
}

// groupParts packs consecutive parts into groups of at most maxTokens,
// keeping document order. A single oversized part still forms a group of
// its own.
func groupParts(parts []string, maxTokens int) [][]string {
	var groups [][]string
	var current []string
	currentTokens := 0

	for _, part := range parts {
		partTokens := estimateTokens(part)
		if currentTokens+partTokens > maxTokens && len(current) > 0 {
			groups = append(groups, current)
			current = nil
			currentTokens = 0
		}
		current = append(current, part)
		currentTokens += partTokens
	}
	if len(current) > 0 {
		groups = append(groups, current)
	}
	return groups
}

// collectSegments walks the goldmark AST and gathers body text per heading
// path. A stack tracks the current heading nesting so an h3 under an h1
// yields the full path for its text.
func collectSegments(src []byte) []segment {
	md := goldmark.New()
	doc := md.Parser().Parse(text.NewReader(src))

	var segments []segment
	var breadcrumb []string
	var body bytes.Buffer

	flush := func() {
		t := strings.TrimSpace(body.String())
		if t != "" {
			segments = append(segments, segment{
				breadcrumb: copyPath(breadcrumb),
				text:       t,
			})
		}
		body.Reset()
	}

	// Heading levels currently on the stack, parallel to breadcrumb.
	var levels []int

	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		switch node := n.(type) {
		case *ast.Heading:
			flush()
			title := string(node.Text(src))

			// Pop deeper or equal headings before pushing this one.
			for len(levels) > 0 && levels[len(levels)-1] >= node.Level {
				levels = levels[:len(levels)-1]
				breadcrumb = breadcrumb[:len(breadcrumb)-1]
			}
			levels = append(levels, node.Level)
			breadcrumb = append(breadcrumb, title)

		default:
			t := extractText(n, src)
			if t != "" {
				if body.Len() > 0 {
					body.WriteString("\n\n")
				}
				body.WriteString(t)
			}
		}
	}
	flush()

	return segments
}

// extractText returns the source text of a block node. Leaf blocks carry
// their own lines; container blocks such as lists and blockquotes are
// flattened by recursing into their children.
func extractText(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	if n.Type() == ast.TypeBlock && n.Lines().Len() > 0 {
		lines := n.Lines()
		for i := 0; i < lines.Len(); i++ {
			line := lines.At(i)
			buf.Write(line.Value(src))
		}
		return strings.TrimSpace(buf.String())
	}
	for c := n.FirstChild(); c != nil; c = c.NextSibling() {
		t := extractText(c, src)
		if t == "" {
			continue
		}
		if buf.Len() > 0 {
			buf.WriteByte('\n')
		}
		buf.WriteString(t)
	}
	return strings.TrimSpace(buf.String())
}

func copyPath(path []string) []string {
	if len(path) == 0 {
		return nil
	}
	out := make([]string, len(path))
	copy(out, path)
	return out
}
