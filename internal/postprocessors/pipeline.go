package postprocessors

import (
	"sort"
	"strings"
	"sync"

	"github.com/Vortex-Labs-xyz/email-agent-v1/internal/core/ports/driven"
)

var _ driven.PostProcessorPipeline = (*Pipeline)(nil)

// Pipeline runs content through an ordered chain of post-processors,
// turning a document into chunks ready for embedding.
type Pipeline struct {
	mu         sync.RWMutex
	processors []driven.PostProcessor
}

// NewPipeline creates an empty pipeline.
func NewPipeline() *Pipeline {
	return &Pipeline{}
}

// Add inserts a processor, keeping the chain sorted by Order.
func (p *Pipeline) Add(processor driven.PostProcessor) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.processors = append(p.processors, processor)
	sort.SliceStable(p.processors, func(i, j int) bool {
		return p.processors[i].Order() < p.processors[j].Order()
	})
}

// Process feeds the raw content through every processor in order. The
// chain starts from a single chunk spanning the whole document.
func (p *Pipeline) Process(content string) []driven.Chunk {
	p.mu.RLock()
	processors := make([]driven.PostProcessor, len(p.processors))
	copy(processors, p.processors)
	p.mu.RUnlock()

	chunks := []driven.Chunk{
		{Content: content, Position: 0, StartOffset: 0, EndOffset: len(content)},
	}
	for _, proc := range processors {
		chunks = proc.Process(chunks)
	}
	return chunks
}

// List returns processor names in execution order.
func (p *Pipeline) List() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	names := make([]string, len(p.processors))
	for i, proc := range p.processors {
		names[i] = proc.Name()
	}
	return names
}

// DefaultPipeline is the chain used for knowledge documents: whitespace
// cleanup of the full content, then fixed-window chunking. Cleanup runs
// before the chunker so chunk boundaries are computed on the text that
// actually gets indexed.
func DefaultPipeline() *Pipeline {
	p := NewPipeline()
	p.Add(NewWhitespaceNormalizer())
	p.Add(NewChunker(DefaultChunkConfig()))
	return p
}

// RefreshPipeline is the chain used when email threads are fed back
// into the knowledge base. Quoted replies repeat earlier content, so a
// dedup stage follows the chunker.
func RefreshPipeline() *Pipeline {
	p := NewPipeline()
	p.Add(NewWhitespaceNormalizer())
	p.Add(NewChunker(DefaultChunkConfig()))
	p.Add(NewDeduplicator(DefaultDeduplicatorConfig()))
	return p
}

// ChunkConfig configures the chunker windows.
type ChunkConfig struct {
	// MaxChunkSize is the maximum characters per chunk.
	MaxChunkSize int

	// Overlap is the exact character overlap between consecutive
	// chunks. Must be smaller than MaxChunkSize.
	Overlap int
}

// DefaultChunkConfig returns the defaults used for knowledge documents.
func DefaultChunkConfig() ChunkConfig {
	return ChunkConfig{
		MaxChunkSize: 1000,
		Overlap:      100,
	}
}

var _ driven.PostProcessor = (*Chunker)(nil)

// Chunker splits content into fixed-size windows with exact overlap:
// every chunk is at most MaxChunkSize characters, consecutive chunks
// share exactly Overlap characters, and only the final chunk may be
// shorter. Characters means runes, so multi-byte text never splits
// mid-character.
type Chunker struct {
	config ChunkConfig
}

// NewChunker creates a chunker. A non-positive size falls back to the
// default; an overlap that is negative or >= size is clamped so the
// window always advances.
func NewChunker(config ChunkConfig) *Chunker {
	if config.MaxChunkSize <= 0 {
		config.MaxChunkSize = DefaultChunkConfig().MaxChunkSize
	}
	if config.Overlap < 0 {
		config.Overlap = 0
	}
	if config.Overlap >= config.MaxChunkSize {
		config.Overlap = config.MaxChunkSize - 1
	}
	return &Chunker{config: config}
}

// Process replaces each incoming chunk with its windowed pieces,
// numbering positions across the whole result.
func (c *Chunker) Process(chunks []driven.Chunk) []driven.Chunk {
	var result []driven.Chunk
	position := 0
	for _, chunk := range chunks {
		result = append(result, c.window(chunk.Content, chunk.StartOffset, &position)...)
	}
	return result
}

func (c *Chunker) Name() string { return "chunker" }

// Order returns 0; processors that rewrite full content run before this.
func (c *Chunker) Order() int { return 0 }

func (c *Chunker) window(content string, baseOffset int, position *int) []driven.Chunk {
	if content == "" {
		return nil
	}

	runes := []rune(content)
	size := c.config.MaxChunkSize
	step := size - c.config.Overlap

	var chunks []driven.Chunk
	for start := 0; ; start += step {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}

		chunks = append(chunks, driven.Chunk{
			Content:     string(runes[start:end]),
			Position:    *position,
			StartOffset: baseOffset + start,
			EndOffset:   baseOffset + end,
		})
		*position++

		if end == len(runes) {
			return chunks
		}
	}
}

// DeduplicatorConfig configures duplicate removal.
type DeduplicatorConfig struct {
	// MinDuplicateLength is the shortest chunk worth deduplicating.
	// Short chunks (signatures, greetings) repeat legitimately.
	MinDuplicateLength int
}

// DefaultDeduplicatorConfig returns sensible defaults.
func DefaultDeduplicatorConfig() DeduplicatorConfig {
	return DeduplicatorConfig{MinDuplicateLength: 50}
}

var _ driven.PostProcessor = (*Deduplicator)(nil)

// Deduplicator drops chunks whose content already appeared, compared
// case- and space-insensitively.
type Deduplicator struct {
	config DeduplicatorConfig
}

// NewDeduplicator creates a deduplicator.
func NewDeduplicator(config DeduplicatorConfig) *Deduplicator {
	return &Deduplicator{config: config}
}

func dedupKey(content string) string {
	return strings.TrimSpace(strings.ToLower(content))
}

// Process filters out repeated chunks, keeping the first occurrence.
func (d *Deduplicator) Process(chunks []driven.Chunk) []driven.Chunk {
	if len(chunks) <= 1 {
		return chunks
	}

	seen := make(map[string]struct{}, len(chunks))
	result := chunks[:0:0]

	for _, chunk := range chunks {
		if len(chunk.Content) < d.config.MinDuplicateLength {
			result = append(result, chunk)
			continue
		}

		key := dedupKey(chunk.Content)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		result = append(result, chunk)
	}
	return result
}

func (d *Deduplicator) Name() string { return "deduplicator" }

// Order returns 10; dedup runs on the chunker's output.
func (d *Deduplicator) Order() int { return 10 }

var _ driven.PostProcessor = (*WhitespaceNormalizer)(nil)

// WhitespaceNormalizer cleans up whitespace: CRLF to LF, runs of spaces
// collapsed within lines, trailing space trimmed, and at most one blank
// line in a row. Chunks left empty after cleanup are dropped.
type WhitespaceNormalizer struct{}

// NewWhitespaceNormalizer creates a whitespace normalizer.
func NewWhitespaceNormalizer() *WhitespaceNormalizer {
	return &WhitespaceNormalizer{}
}

// Process rewrites each chunk's content in place.
func (w *WhitespaceNormalizer) Process(chunks []driven.Chunk) []driven.Chunk {
	result := make([]driven.Chunk, 0, len(chunks))
	for _, chunk := range chunks {
		cleaned := normalizeWhitespace(chunk.Content)
		if cleaned == "" {
			continue
		}
		chunk.Content = cleaned
		result = append(result, chunk)
	}
	return result
}

func normalizeWhitespace(content string) string {
	content = strings.ReplaceAll(content, "\r\n", "\n")
	content = strings.ReplaceAll(content, "\r", "\n")

	lines := strings.Split(content, "\n")
	for i, line := range lines {
		lines[i] = strings.Join(strings.Fields(line), " ")
	}
	content = strings.Join(lines, "\n")

	for strings.Contains(content, "\n\n\n") {
		content = strings.ReplaceAll(content, "\n\n\n", "\n\n")
	}
	return strings.TrimSpace(content)
}

func (w *WhitespaceNormalizer) Name() string { return "whitespace-normalizer" }

// Order returns -10; whitespace cleanup sees the full content before
// chunking.
func (w *WhitespaceNormalizer) Order() int { return -10 }
