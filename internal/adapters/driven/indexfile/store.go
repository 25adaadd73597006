// Package indexfile persists the knowledge vector index and its chunk
// metadata as a pair of binary artifacts on disk.
package indexfile

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/Vortex-Labs-xyz/email-agent-v1/internal/core/domain"
	"github.com/Vortex-Labs-xyz/email-agent-v1/internal/core/ports/driven"
	"github.com/Vortex-Labs-xyz/email-agent-v1/internal/vector"
)

// Verify interface compliance
var _ driven.KnowledgeIndex = (*Store)(nil)

const (
	indexFile = "index.bin"
	metaFile  = "metadata.bin"
)

// Store implements KnowledgeIndex backed by a flat L2 index and two files
// under a directory. Every mutation persists both artifacts; writes go to a
// temp file first and are renamed into place, so a crash mid-save leaves the
// previous pair intact.
type Store struct {
	mu    sync.RWMutex
	dir   string
	index *vector.Flat
	metas []*domain.ChunkMeta
}

// Open loads the index pair from dir, creating an empty index of the given
// dimension if no artifacts exist yet. A readable pair whose vector count
// and metadata count diverge is rejected with ErrCountMismatch rather than
// silently returning mispaired results.
func Open(dir string, dimension int) (*Store, error) {
	if dimension <= 0 {
		return nil, fmt.Errorf("index dimension must be positive: %w", domain.ErrInvalidInput)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create index dir: %w", err)
	}

	s := &Store{
		dir:   dir,
		index: vector.NewFlat(dimension),
	}

	indexData, indexErr := os.ReadFile(filepath.Join(dir, indexFile))
	metaData, metaErr := os.ReadFile(filepath.Join(dir, metaFile))

	switch {
	case os.IsNotExist(indexErr) && os.IsNotExist(metaErr):
		// Fresh start
		return s, nil
	case indexErr != nil:
		return nil, fmt.Errorf("read index artifact: %w", indexErr)
	case metaErr != nil:
		return nil, fmt.Errorf("read metadata artifact: %w", metaErr)
	}

	idx, err := vector.UnmarshalIndex(indexData)
	if err != nil {
		return nil, err
	}
	metas, err := vector.UnmarshalMetadata(metaData)
	if err != nil {
		return nil, err
	}
	if idx.Count() != len(metas) {
		return nil, fmt.Errorf("%d vectors vs %d metadata entries: %w",
			idx.Count(), len(metas), domain.ErrCountMismatch)
	}
	if idx.Dimension() != dimension {
		return nil, fmt.Errorf("stored dimension %d, configured %d: %w",
			idx.Dimension(), dimension, domain.ErrDimensionMismatch)
	}

	s.index = idx
	s.metas = metas
	return s, nil
}

// Add appends vectors with their chunk metadata and persists the pair.
func (s *Store) Add(ctx context.Context, vectors [][]float32, metas []*domain.ChunkMeta) error {
	if len(vectors) != len(metas) {
		return fmt.Errorf("%d vectors vs %d metadata entries: %w",
			len(vectors), len(metas), domain.ErrCountMismatch)
	}
	if len(vectors) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.index.Add(vectors); err != nil {
		return err
	}
	s.metas = append(s.metas, metas...)

	return s.persist()
}

// Search returns the k nearest chunks to the query, closest first.
func (s *Store) Search(ctx context.Context, query []float32, k int) ([]*domain.SearchHit, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	matches, err := s.index.Search(query, k)
	if err != nil {
		return nil, err
	}

	hits := make([]*domain.SearchHit, 0, len(matches))
	for _, m := range matches {
		hits = append(hits, &domain.SearchHit{
			Chunk:    s.metas[m.Position],
			Distance: m.Distance,
		})
	}
	return hits, nil
}

// Reset discards all vectors and metadata and persists the empty pair.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.index.Reset()
	s.metas = nil
	return s.persist()
}

// Count returns the number of indexed chunks
func (s *Store) Count(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.Count(), nil
}

// Dimension returns the embedding dimension the index was created with
func (s *Store) Dimension() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.index.Dimension()
}

// HealthCheck verifies the index directory is writable
func (s *Store) HealthCheck(ctx context.Context) error {
	probe := filepath.Join(s.dir, ".probe")
	if err := os.WriteFile(probe, []byte("ok"), 0o644); err != nil {
		return fmt.Errorf("index dir not writable: %w", err)
	}
	return os.Remove(probe)
}

// Close persists current state
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.persist()
}

// persist writes both artifacts atomically. Caller holds the write lock.
func (s *Store) persist() error {
	if err := writeAtomic(filepath.Join(s.dir, indexFile), vector.MarshalIndex(s.index)); err != nil {
		return fmt.Errorf("persist index: %w", err)
	}
	if err := writeAtomic(filepath.Join(s.dir, metaFile), vector.MarshalMetadata(s.metas)); err != nil {
		return fmt.Errorf("persist metadata: %w", err)
	}
	return nil
}

// writeAtomic writes data to a temp file in the target directory and
// renames it over the destination.
func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".tmp-*")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	return os.Rename(tmpName, path)
}
