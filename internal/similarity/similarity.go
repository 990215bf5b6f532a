// Package similarity computes image-image, image-video and video-video
// similarity from perceptual-hash frame sequences, generalizing the
// reference engine's single-frame Hamming-normalized similarity to full
// sequences via Dynamic Time Warping.
package similarity

import (
	"github.com/sylphlab/mediadedup/internal/hashops"
	"github.com/sylphlab/mediadedup/internal/models"
)

// Thresholds holds the three adaptive-threshold configuration values used
// by DBSCAN's neighbor oracle (§4.3, §4.5).
type Thresholds struct {
	ImageSimilarityThreshold      float64
	ImageVideoSimilarityThreshold float64
	VideoSimilarityThreshold      float64
}

// ImageSimilarity computes 1 - hamming(f1,f2)/(8*hashBytes), clamped to
// [0,1]. An empty hash on either side yields 0; a zero-length hash on both
// sides (hashBytes == 0) yields 1.
func ImageSimilarity(f1, f2 models.FrameInfo) float64 {
	if len(f1.Hash) == 0 && len(f2.Hash) == 0 {
		return 1
	}
	if len(f1.Hash) == 0 || len(f2.Hash) == 0 {
		return 0
	}
	hashBytes := len(f1.Hash)
	if len(f2.Hash) > hashBytes {
		hashBytes = len(f2.Hash)
	}
	dist := hashops.HammingDistance(f1.Hash, f2.Hash)
	sim := 1 - float64(dist)/float64(8*hashBytes)
	return clamp01(sim)
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// ImageVideoSimilarity scans all frames of video and returns the maximum
// ImageSimilarity against image's single frame, exiting early on an exact
// match. An empty frame list on either side yields 0.
func ImageVideoSimilarity(image, video models.MediaInfo) float64 {
	if len(image.Frames) == 0 || len(video.Frames) == 0 {
		return 0
	}
	imgFrame := image.Frames[0]
	best := 0.0
	for _, vf := range video.Frames {
		sim := ImageSimilarity(imgFrame, vf)
		if sim > best {
			best = sim
		}
		if best >= 1.0 {
			return 1.0
		}
	}
	return best
}

// SequenceSimilarityDTW computes classical Dynamic Time Warping between
// two frame hash sequences, with per-cell cost max(0, 1-ImageSimilarity),
// a 3-neighborhood recurrence, and a single-row rolling buffer. Both
// sequences empty yields 1; exactly one empty yields 0.
func SequenceSimilarityDTW(seq1, seq2 []models.FrameInfo) float64 {
	m, n := len(seq1), len(seq2)
	if m == 0 && n == 0 {
		return 1
	}
	if m == 0 || n == 0 {
		return 0
	}

	const inf = 1e18
	prev := make([]float64, n+1)
	cur := make([]float64, n+1)
	prev[0] = 0
	for j := 1; j <= n; j++ {
		prev[j] = inf
	}

	for i := 1; i <= m; i++ {
		cur[0] = inf
		for j := 1; j <= n; j++ {
			cost := 1 - ImageSimilarity(seq1[i-1], seq2[j-1])
			if cost < 0 {
				cost = 0
			}
			best := prev[j-1] // diag
			if prev[j] < best {
				best = prev[j] // up
			}
			if cur[j-1] < best {
				best = cur[j-1] // left
			}
			cur[j] = cost + best
		}
		prev, cur = cur, prev
	}

	dtw := prev[n]
	maxLen := m
	if n > maxLen {
		maxLen = n
	}
	result := 1 - dtw/float64(maxLen)
	if result < 0 {
		return 0
	}
	return result
}

// AdaptiveThreshold picks the similarity threshold for the pair (m1, m2)
// based on whether each is an image or a video: image-image uses
// ImageSimilarityThreshold, exactly-one-is-video uses
// ImageVideoSimilarityThreshold, and both-video uses
// VideoSimilarityThreshold.
func AdaptiveThreshold(m1, m2 models.MediaInfo, cfg Thresholds) float64 {
	v1, v2 := m1.IsVideo(), m2.IsVideo()
	switch {
	case !v1 && !v2:
		return cfg.ImageSimilarityThreshold
	case v1 != v2:
		return cfg.ImageVideoSimilarityThreshold
	default:
		return cfg.VideoSimilarityThreshold
	}
}

// Similarity computes the overall similarity between two media items,
// dispatching to ImageSimilarity, ImageVideoSimilarity or
// SequenceSimilarityDTW depending on which side is a video.
func Similarity(m1, m2 models.MediaInfo) float64 {
	v1, v2 := m1.IsVideo(), m2.IsVideo()
	switch {
	case !v1 && !v2:
		if len(m1.Frames) == 0 || len(m2.Frames) == 0 {
			return 0
		}
		return ImageSimilarity(m1.Frames[0], m2.Frames[0])
	case v1 && !v2:
		return ImageVideoSimilarity(m2, m1)
	case !v1 && v2:
		return ImageVideoSimilarity(m1, m2)
	default:
		return SequenceSimilarityDTW(m1.Frames, m2.Frames)
	}
}

// Distance is the VP-tree metric: 1 - Similarity(m1, m2).
func Distance(m1, m2 models.MediaInfo) float64 {
	return 1 - Similarity(m1, m2)
}
