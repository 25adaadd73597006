package vector

import (
	"fmt"
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/raw"
	"github.com/mus-format/mus-go/varint"

	"github.com/Vortex-Labs-xyz/email-agent-v1/internal/core/domain"
)

// FormatVersion is the current on-disk format version. Both artifacts carry
// it; readers reject versions they do not know.
const FormatVersion = 1

// MarshalIndex serializes a Flat index to bytes
func MarshalIndex(f *Flat) []byte {
	count := f.Count()
	size := varint.Int.Size(FormatVersion) +
		varint.Int.Size(f.dim) +
		varint.Int.Size(count) +
		len(f.data)*raw.Float32.Size(0)

	bs := make([]byte, size)
	n := varint.Int.Marshal(FormatVersion, bs)
	n += varint.Int.Marshal(f.dim, bs[n:])
	n += varint.Int.Marshal(count, bs[n:])
	for _, v := range f.data {
		n += raw.Float32.Marshal(v, bs[n:])
	}
	return bs
}

// UnmarshalIndex deserializes a Flat index from bytes.
// Returns ErrIndexCorrupt for truncated data or an unknown format version.
func UnmarshalIndex(bs []byte) (*Flat, error) {
	version, n, err := varint.Int.Unmarshal(bs)
	if err != nil {
		return nil, fmt.Errorf("index header: %w", domain.ErrIndexCorrupt)
	}
	if version != FormatVersion {
		return nil, fmt.Errorf("unsupported index format version %d: %w", version, domain.ErrIndexCorrupt)
	}

	dim, m, err := varint.Int.Unmarshal(bs[n:])
	if err != nil || dim <= 0 {
		return nil, fmt.Errorf("index dimension: %w", domain.ErrIndexCorrupt)
	}
	n += m

	count, m, err := varint.Int.Unmarshal(bs[n:])
	if err != nil || count < 0 {
		return nil, fmt.Errorf("index count: %w", domain.ErrIndexCorrupt)
	}
	n += m

	f := &Flat{dim: dim, data: make([]float32, 0, count*dim)}
	for i := 0; i < count*dim; i++ {
		v, m, err := raw.Float32.Unmarshal(bs[n:])
		if err != nil {
			return nil, fmt.Errorf("index vector data: %w", domain.ErrIndexCorrupt)
		}
		n += m
		f.data = append(f.data, v)
	}
	return f, nil
}

func chunkMetaSize(c *domain.ChunkMeta) int {
	return ord.String.Size(c.ID) +
		ord.String.Size(c.DocumentID) +
		ord.String.Size(c.Title) +
		ord.String.Size(c.Content) +
		varint.Int.Size(c.Position) +
		varint.Int64.Size(c.CreatedAt.UnixMicro())
}

func marshalChunkMeta(c *domain.ChunkMeta, bs []byte) int {
	n := ord.String.Marshal(c.ID, bs)
	n += ord.String.Marshal(c.DocumentID, bs[n:])
	n += ord.String.Marshal(c.Title, bs[n:])
	n += ord.String.Marshal(c.Content, bs[n:])
	n += varint.Int.Marshal(c.Position, bs[n:])
	n += varint.Int64.Marshal(c.CreatedAt.UnixMicro(), bs[n:])
	return n
}

func unmarshalChunkMeta(bs []byte) (*domain.ChunkMeta, int, error) {
	c := &domain.ChunkMeta{}
	var (
		n, m   int
		err    error
		micros int64
	)
	if c.ID, n, err = ord.String.Unmarshal(bs); err != nil {
		return nil, 0, err
	}
	if c.DocumentID, m, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return nil, 0, err
	}
	n += m
	if c.Title, m, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return nil, 0, err
	}
	n += m
	if c.Content, m, err = ord.String.Unmarshal(bs[n:]); err != nil {
		return nil, 0, err
	}
	n += m
	if c.Position, m, err = varint.Int.Unmarshal(bs[n:]); err != nil {
		return nil, 0, err
	}
	n += m
	if micros, m, err = varint.Int64.Unmarshal(bs[n:]); err != nil {
		return nil, 0, err
	}
	n += m
	c.CreatedAt = time.UnixMicro(micros).UTC()
	return c, n, nil
}

// MarshalMetadata serializes the chunk metadata list to bytes
func MarshalMetadata(metas []*domain.ChunkMeta) []byte {
	size := varint.Int.Size(FormatVersion) + varint.Int.Size(len(metas))
	for _, c := range metas {
		size += chunkMetaSize(c)
	}

	bs := make([]byte, size)
	n := varint.Int.Marshal(FormatVersion, bs)
	n += varint.Int.Marshal(len(metas), bs[n:])
	for _, c := range metas {
		n += marshalChunkMeta(c, bs[n:])
	}
	return bs
}

// UnmarshalMetadata deserializes the chunk metadata list from bytes.
// Returns ErrIndexCorrupt for truncated data or an unknown format version.
func UnmarshalMetadata(bs []byte) ([]*domain.ChunkMeta, error) {
	version, n, err := varint.Int.Unmarshal(bs)
	if err != nil {
		return nil, fmt.Errorf("metadata header: %w", domain.ErrIndexCorrupt)
	}
	if version != FormatVersion {
		return nil, fmt.Errorf("unsupported metadata format version %d: %w", version, domain.ErrIndexCorrupt)
	}

	count, m, err := varint.Int.Unmarshal(bs[n:])
	if err != nil || count < 0 {
		return nil, fmt.Errorf("metadata count: %w", domain.ErrIndexCorrupt)
	}
	n += m

	metas := make([]*domain.ChunkMeta, 0, count)
	for i := 0; i < count; i++ {
		c, m, err := unmarshalChunkMeta(bs[n:])
		if err != nil {
			return nil, fmt.Errorf("metadata entry %d: %w", i, domain.ErrIndexCorrupt)
		}
		n += m
		metas = append(metas, c)
	}
	return metas, nil
}
