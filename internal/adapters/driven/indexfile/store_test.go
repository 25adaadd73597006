package indexfile

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Vortex-Labs-xyz/email-agent-v1/internal/core/domain"
	"github.com/Vortex-Labs-xyz/email-agent-v1/internal/vector"
)

func meta(id, docID, content string, pos int) *domain.ChunkMeta {
	return &domain.ChunkMeta{
		ID:         id,
		DocumentID: docID,
		Title:      "Doc " + docID,
		Content:    content,
		Position:   pos,
	}
}

func TestOpen_FreshDirectory(t *testing.T) {
	s, err := Open(t.TempDir(), 4)
	require.NoError(t, err)

	count, err := s.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, count)
	assert.Equal(t, 4, s.Dimension())
}

func TestOpen_InvalidDimension(t *testing.T) {
	_, err := Open(t.TempDir(), 0)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestStore_AddAndSearch(t *testing.T) {
	ctx := context.Background()
	s, err := Open(t.TempDir(), 2)
	require.NoError(t, err)

	err = s.Add(ctx,
		[][]float32{{0, 0}, {10, 10}},
		[]*domain.ChunkMeta{
			meta("c1", "d1", "near content", 0),
			meta("c2", "d1", "far content", 1),
		})
	require.NoError(t, err)

	hits, err := s.Search(ctx, []float32{1, 1}, 2)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "c1", hits[0].Chunk.ID)
	assert.Equal(t, "c2", hits[1].Chunk.ID)
	assert.Less(t, hits[0].Distance, hits[1].Distance)
}

func TestStore_Add_CountMismatch(t *testing.T) {
	ctx := context.Background()
	s, err := Open(t.TempDir(), 2)
	require.NoError(t, err)

	err = s.Add(ctx,
		[][]float32{{0, 0}, {1, 1}},
		[]*domain.ChunkMeta{meta("c1", "d1", "x", 0)})
	assert.ErrorIs(t, err, domain.ErrCountMismatch)

	count, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestStore_Add_DimensionMismatch(t *testing.T) {
	ctx := context.Background()
	s, err := Open(t.TempDir(), 3)
	require.NoError(t, err)

	err = s.Add(ctx,
		[][]float32{{0, 0}},
		[]*domain.ChunkMeta{meta("c1", "d1", "x", 0)})
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
}

func TestStore_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	s, err := Open(dir, 2)
	require.NoError(t, err)
	require.NoError(t, s.Add(ctx,
		[][]float32{{1, 2}, {3, 4}},
		[]*domain.ChunkMeta{
			meta("c1", "d1", "first", 0),
			meta("c2", "d1", "second", 1),
		}))
	require.NoError(t, s.Close())

	reopened, err := Open(dir, 2)
	require.NoError(t, err)

	count, err := reopened.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, count)

	hits, err := reopened.Search(ctx, []float32{1, 2}, 1)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "c1", hits[0].Chunk.ID)
	assert.Equal(t, "first", hits[0].Chunk.Content)
}

func TestOpen_RejectsMispairedArtifacts(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	s, err := Open(dir, 2)
	require.NoError(t, err)
	require.NoError(t, s.Add(ctx,
		[][]float32{{1, 2}},
		[]*domain.ChunkMeta{meta("c1", "d1", "x", 0)}))

	// Overwrite the metadata artifact with an empty list so the counts diverge
	require.NoError(t, os.WriteFile(filepath.Join(dir, metaFile), vector.MarshalMetadata(nil), 0o644))

	_, err = Open(dir, 2)
	assert.ErrorIs(t, err, domain.ErrCountMismatch)
}

func TestOpen_RejectsCorruptIndex(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	s, err := Open(dir, 2)
	require.NoError(t, err)
	require.NoError(t, s.Add(ctx,
		[][]float32{{1, 2}},
		[]*domain.ChunkMeta{meta("c1", "d1", "x", 0)}))

	data, err := os.ReadFile(filepath.Join(dir, indexFile))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, indexFile), data[:len(data)-3], 0o644))

	_, err = Open(dir, 2)
	assert.ErrorIs(t, err, domain.ErrIndexCorrupt)
}

func TestOpen_RejectsDimensionChange(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	s, err := Open(dir, 2)
	require.NoError(t, err)
	require.NoError(t, s.Add(ctx,
		[][]float32{{1, 2}},
		[]*domain.ChunkMeta{meta("c1", "d1", "x", 0)}))

	_, err = Open(dir, 3)
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
}

func TestStore_Reset(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()

	s, err := Open(dir, 2)
	require.NoError(t, err)
	require.NoError(t, s.Add(ctx,
		[][]float32{{1, 2}},
		[]*domain.ChunkMeta{meta("c1", "d1", "x", 0)}))

	require.NoError(t, s.Reset(ctx))

	count, err := s.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)

	// Reset must be persisted too
	reopened, err := Open(dir, 2)
	require.NoError(t, err)
	count, err = reopened.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, count)
}

func TestStore_HealthCheck(t *testing.T) {
	s, err := Open(t.TempDir(), 2)
	require.NoError(t, err)
	assert.NoError(t, s.HealthCheck(context.Background()))
}
