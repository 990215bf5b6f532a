// Package models defines the data model of the deduplication engine: the
// per-file artifacts produced by the external providers, and the cluster/
// result shapes produced by the CORE pipeline.
package models

import (
	"time"

	"github.com/google/uuid"
)

// FrameInfo is one sampled frame of a file: its perceptual hash and the
// timestamp (seconds) it was taken at. Immutable after construction.
type FrameInfo struct {
	Hash      []byte  `json:"hash"`
	Timestamp float64 `json:"timestamp"`
}

// MediaInfo is the ordered frame sequence extracted from a file. A still
// image has exactly one frame at timestamp 0 and Duration == 0; a video has
// one or more frames at non-decreasing timestamps and Duration > 0.
type MediaInfo struct {
	Frames   []FrameInfo `json:"frames"`
	Duration float64     `json:"duration"`
}

// IsVideo reports whether m represents a video rather than a still image.
func (m MediaInfo) IsVideo() bool {
	return m.Duration > 0
}

// HashBytes returns the hash length shared by every frame in m, or 0 if m
// has no frames.
func (m MediaInfo) HashBytes() int {
	if len(m.Frames) == 0 {
		return 0
	}
	return len(m.Frames[0].Hash)
}

// Metadata is the EXIF-derived metadata of a file.
type Metadata struct {
	Width        int        `json:"width"`
	Height       int        `json:"height"`
	GPSLatitude  *float64   `json:"gpsLatitude,omitempty"`
	GPSLongitude *float64   `json:"gpsLongitude,omitempty"`
	CameraModel  string     `json:"cameraModel,omitempty"`
	ImageDate    *time.Time `json:"imageDate,omitempty"`
}

// HasGPS reports whether both GPS coordinates are present.
func (m Metadata) HasGPS() bool {
	return m.GPSLatitude != nil && m.GPSLongitude != nil
}

// FileStats is the content-addressable identity of a file on disk.
type FileStats struct {
	ContentHash string    `json:"contentHash"`
	Size        int64     `json:"size"`
	CreatedAt   time.Time `json:"createdAt"`
	ModifiedAt  time.Time `json:"modifiedAt"`
}

// FileInfo aggregates everything the CORE knows about one discovered file.
// It exclusively owns its Media and its frames' hash buffers.
type FileInfo struct {
	Path      string    `json:"path"`
	Media     MediaInfo `json:"media"`
	Metadata  Metadata  `json:"metadata"`
	FileStats FileStats `json:"fileStats"`
}

// CacheKey is the identity under which a FileInfo is cached: path, size and
// content hash must all match for a cache hit to be valid.
type CacheKey struct {
	Path        string
	Size        int64
	ContentHash string
}

// Cluster is a set of file identifiers produced by the selector: a
// distinguished bestFile, a set of representatives that always contains
// bestFile, and the remaining duplicates.
type Cluster struct {
	ID              uuid.UUID `json:"id"`
	Members         []string  `json:"members"`
	BestFile        string    `json:"bestFile"`
	Representatives []string  `json:"representatives"`
	Duplicates      []string  `json:"duplicates"`
}

// Size returns the number of members in the cluster.
func (c Cluster) Size() int { return len(c.Members) }

// DeduplicationResult is the terminal output of one orchestrator run: every
// file whose artifacts were computed and whose first frame hash is not
// degenerate appears in exactly one of UniqueFiles or one DuplicateSet.
// Files that failed are listed in Errors only; files with a degenerate
// hash appear in none of the three lists.
type DeduplicationResult struct {
	UniqueFiles   []string  `json:"uniqueFiles"`
	DuplicateSets []Cluster `json:"duplicateSets"`
	Errors        []FileError `json:"errors,omitempty"`
}

// FileError records a per-file failure isolated by the orchestrator; the
// file is excluded from clustering but the run continues.
type FileError struct {
	Path    string `json:"path"`
	Message string `json:"message"`
}
