// Package pipeline implements the orchestrator (§4.7): it sequences
// discovery, per-file artifact computation through external providers,
// VP-tree construction, DBSCAN clustering and representative selection
// into one DeduplicationResult. It is the only CORE component allowed to
// block on I/O or coordinate concurrency (§5).
package pipeline

import (
	"context"

	"github.com/sylphlab/mediadedup/internal/models"
)

// FrameConfig bounds how ExtractFrames samples a file: resolution is the
// luminance block side length fed to the DCT hasher, targetFps and the
// min/max frame counts bound video sampling density, and
// sceneChangeThreshold gates which frames count as scene changes.
type FrameConfig struct {
	Resolution           int
	TargetFPS            float64
	MinFrames            int
	MaxSceneFrames       int
	SceneChangeThreshold float64
}

// Discoverer enumerates files under roots, grouped by extension.
type Discoverer interface {
	DiscoverFiles(ctx context.Context, roots []string, concurrency int) (map[string][]string, error)
}

// MetadataExtractor pulls EXIF-derived metadata from a file.
type MetadataExtractor interface {
	ExtractMetadata(ctx context.Context, path string) (models.Metadata, error)
}

// FrameExtractor samples perceptual-hash frames from a file: exactly one
// frame at t=0 for an image, or scene-change-sampled frames for a video.
type FrameExtractor interface {
	ExtractFrames(ctx context.Context, path string, cfg FrameConfig) (models.MediaInfo, error)
}

// FileStatter computes the content-hash identity of a file.
type FileStatter interface {
	ComputeFileStats(ctx context.Context, path string, maxChunkSize int64) (models.FileStats, error)
}

// Cache persists computed FileInfo keyed by (path, size, contentHash).
type Cache interface {
	Get(ctx context.Context, key models.CacheKey) (models.FileInfo, bool, error)
	Put(ctx context.Context, key models.CacheKey, info models.FileInfo) error
}
