package pipeline

import (
	"time"

	"github.com/sylphlab/mediadedup/internal/similarity"
)

// Config holds every tunable of one orchestrator run, mirroring the CLI
// surface in §6.
type Config struct {
	Concurrency          int
	Resolution           int
	HashSize             int
	WindowSize           int
	StepSize             int
	MaxChunkSize         int64
	MinFrames            int
	MaxSceneFrames       int
	TargetFPS            float64
	SceneChangeThreshold float64
	Thresholds           similarity.Thresholds
	PerFileTimeout       time.Duration
	MinPts               int
	Shards               int
}

// DefaultConfig returns the engine's out-of-the-box tuning.
func DefaultConfig() Config {
	return Config{
		Concurrency:          8,
		Resolution:           32,
		HashSize:             8,
		WindowSize:           5,
		StepSize:             1,
		MaxChunkSize:         1 << 20,
		MinFrames:            1,
		MaxSceneFrames:       64,
		TargetFPS:            1,
		SceneChangeThreshold: 0.3,
		Thresholds: similarity.Thresholds{
			ImageSimilarityThreshold:      0.9,
			ImageVideoSimilarityThreshold: 0.85,
			VideoSimilarityThreshold:      0.8,
		},
		PerFileTimeout: 30 * time.Second,
		MinPts:         2,
		Shards:         1,
	}
}

func (c Config) frameConfig() FrameConfig {
	return FrameConfig{
		Resolution:           c.Resolution,
		TargetFPS:            c.TargetFPS,
		MinFrames:            c.MinFrames,
		MaxSceneFrames:       c.MaxSceneFrames,
		SceneChangeThreshold: c.SceneChangeThreshold,
	}
}

// epsilon is the upper-bound VP-tree query radius: 1 minus the minimum of
// the three adaptive thresholds (§4.7 step 4).
func (c Config) epsilon() float64 {
	min := c.Thresholds.ImageSimilarityThreshold
	if c.Thresholds.ImageVideoSimilarityThreshold < min {
		min = c.Thresholds.ImageVideoSimilarityThreshold
	}
	if c.Thresholds.VideoSimilarityThreshold < min {
		min = c.Thresholds.VideoSimilarityThreshold
	}
	return 1 - min
}
