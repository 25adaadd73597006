package driven

// Normaliser cleans one kind of raw email body into plain text.
type Normaliser interface {
	Normalise(content string, contentType string) string

	// SupportedTypes lists the content types this normaliser handles.
	// Entries may carry a subtype wildcard ("text/*") or be the
	// universal "*/*".
	SupportedTypes() []string

	// Priority orders normalisers, most specific first. Provider
	// payload normalisers sit at 90+, format cleanup (HTML, quoted
	// replies) at 50-89, and the plain-text fallback at the bottom.
	Priority() int
}

// NormaliserRegistry selects normalisers by content type. Ties go to
// the highest priority.
type NormaliserRegistry interface {
	// Get returns the best match for a content type, or nil when
	// nothing is registered for it.
	Get(contentType string) Normaliser

	// GetAll returns every match, highest priority first.
	GetAll(contentType string) []Normaliser

	Register(normaliser Normaliser)

	// List returns the union of registered content types.
	List() []string
}

// Chunker splits document content into indexable chunks.
type Chunker interface {
	Chunk(content string, opts ChunkOptions) []ChunkResult
}

// ChunkOptions sets the chunk window in characters.
type ChunkOptions struct {
	MaxChunkSize int
	Overlap      int // carried between consecutive chunks
}

// ChunkResult is one chunk with its position in the source document.
type ChunkResult struct {
	Content   string
	StartChar int
	EndChar   int
	Position  int
}

// DefaultChunkOptions returns the window used for knowledge documents.
func DefaultChunkOptions() ChunkOptions {
	return ChunkOptions{
		MaxChunkSize: 1000,
		Overlap:      100,
	}
}

// PostProcessor is one stage of the document pipeline. The first stage
// receives the whole document as a single chunk; later stages receive
// the previous stage's output.
type PostProcessor interface {
	Process(chunks []Chunk) []Chunk

	// Name identifies the processor in logs.
	Name() string

	// Order places the processor in the pipeline, lower first. The
	// chunker runs at 0.
	Order() int
}

// Chunk is a piece of document content moving through the pipeline.
// Offsets are character positions in the original document.
type Chunk struct {
	Content     string
	Position    int
	StartOffset int
	EndOffset   int
	Metadata    map[string]string
}

// PostProcessorPipeline runs the registered processors in Order over a
// raw document, producing chunks ready for embedding.
type PostProcessorPipeline interface {
	Process(content string) []Chunk
	Add(processor PostProcessor)

	// List returns processor names in execution order.
	List() []string
}
