// Package filestats implements the ComputeFileStats provider contract
// (§6): a fixed-size-chunked content hash over a file, grounded on the
// pack's xxhash-based file-identity implementations (chunked buffered
// reads feeding a running digest rather than loading the whole file).
package filestats

import (
	"context"
	"io"
	"os"

	"github.com/cespare/xxhash/v2"

	"github.com/sylphlab/mediadedup/internal/dederr"
	"github.com/sylphlab/mediadedup/internal/models"
)

// Hasher computes file identity via chunked xxhash.
type Hasher struct{}

// NewHasher constructs a Hasher.
func NewHasher() *Hasher { return &Hasher{} }

// ComputeFileStats reads path in maxChunkSize chunks, feeding each into a
// running xxhash digest, and returns the resulting FileStats.
func (h *Hasher) ComputeFileStats(ctx context.Context, path string, maxChunkSize int64) (models.FileStats, error) {
	f, err := os.Open(path)
	if err != nil {
		return models.FileStats{}, dederr.New(dederr.FileSystem, "filestats.ComputeFileStats: open", err).WithPath(path)
	}
	defer f.Close()

	fi, err := f.Stat()
	if err != nil {
		return models.FileStats{}, dederr.New(dederr.FileSystem, "filestats.ComputeFileStats: stat", err).WithPath(path)
	}

	if maxChunkSize <= 0 {
		maxChunkSize = 1 << 20
	}
	digest := xxhash.New()
	buf := make([]byte, maxChunkSize)
	for {
		select {
		case <-ctx.Done():
			return models.FileStats{}, dederr.New(dederr.FileSystem, "filestats.ComputeFileStats: cancelled", ctx.Err()).WithPath(path)
		default:
		}
		n, err := f.Read(buf)
		if n > 0 {
			digest.Write(buf[:n])
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return models.FileStats{}, dederr.New(dederr.FileSystem, "filestats.ComputeFileStats: read", err).WithPath(path)
		}
	}

	return models.FileStats{
		ContentHash: formatDigest(digest.Sum64()),
		Size:        fi.Size(),
		CreatedAt:   fi.ModTime(),
		ModifiedAt:  fi.ModTime(),
	}, nil
}

func formatDigest(v uint64) string {
	const hex = "0123456789abcdef"
	buf := make([]byte, 16)
	for i := 15; i >= 0; i-- {
		buf[i] = hex[v&0xf]
		v >>= 4
	}
	return string(buf)
}
