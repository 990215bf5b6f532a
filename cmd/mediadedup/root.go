package main

import (
	"log"

	"github.com/spf13/cobra"

	"github.com/sylphlab/mediadedup/internal/pipeline"
	"github.com/sylphlab/mediadedup/internal/version"
)

// Exit codes per the CLI surface (§6).
const (
	exitSuccess        = 0
	exitUnexpected     = 1
	exitConfigError    = 2
	exitPartialFailure = 3
)

var rootCmd = &cobra.Command{
	Use:           "mediadedup",
	Short:         "Perceptual deduplication engine for image and video libraries",
	Version:       version.Load().Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// pipelineFlags holds the CORE tunables shared by every flag-parsing
// subcommand, mirroring the reference engine's per-subcommand flag
// struct pattern.
type pipelineFlags struct {
	concurrency          int
	resolution           int
	windowSize           int
	stepSize             int
	maxChunkSize         int64
	minFrames            int
	maxSceneFrames       int
	targetFPS            float64
	sceneChangeThreshold float64

	imageSimilarityThreshold      float64
	imageVideoSimilarityThreshold float64
	videoSimilarityThreshold      float64

	move          bool
	format        string
	errorPath     string
	duplicatePath string
	debugPath     string
}

func (f *pipelineFlags) register(cmd *cobra.Command) {
	d := pipeline.DefaultConfig()
	cmd.Flags().IntVar(&f.concurrency, "concurrency", d.Concurrency, "number of files processed concurrently")
	cmd.Flags().BoolVar(&f.move, "move", false, "move duplicates to --duplicate instead of only reporting them")
	cmd.Flags().IntVar(&f.resolution, "resolution", d.Resolution, "luminance block side length fed to the DCT hasher")
	cmd.Flags().StringVar(&f.format, "format", "text", "result output format: text or json")
	cmd.Flags().IntVar(&f.windowSize, "window-size", d.WindowSize, "window size stored in the pipeline config (DTW comparison does not use a window)")
	cmd.Flags().IntVar(&f.stepSize, "step-size", d.StepSize, "step size stored in the pipeline config (frame sampling does not read it)")
	cmd.Flags().Int64Var(&f.maxChunkSize, "max-chunk-size", d.MaxChunkSize, "max bytes read per chunk when hashing file content")
	cmd.Flags().IntVar(&f.minFrames, "min-frames", d.MinFrames, "minimum frames sampled per video")
	cmd.Flags().IntVar(&f.maxSceneFrames, "max-scene-frames", d.MaxSceneFrames, "maximum scene-change frames sampled per video")
	cmd.Flags().Float64Var(&f.targetFPS, "target-fps", d.TargetFPS, "target frame sampling rate for videos")
	cmd.Flags().Float64Var(&f.sceneChangeThreshold, "scene-change-threshold", d.SceneChangeThreshold, "ffmpeg scene detection sensitivity")
	cmd.Flags().Float64Var(&f.imageSimilarityThreshold, "image-similarity-threshold", d.Thresholds.ImageSimilarityThreshold, "similarity threshold for image-image comparisons")
	cmd.Flags().Float64Var(&f.imageVideoSimilarityThreshold, "image-video-similarity-threshold", d.Thresholds.ImageVideoSimilarityThreshold, "similarity threshold for image-video comparisons")
	cmd.Flags().Float64Var(&f.videoSimilarityThreshold, "video-similarity-threshold", d.Thresholds.VideoSimilarityThreshold, "similarity threshold for video-video comparisons")
	cmd.Flags().StringVar(&f.errorPath, "error", "", "path files that errored during processing are moved to")
	cmd.Flags().StringVar(&f.duplicatePath, "duplicate", "", "path non-representative duplicates are moved to when --move is set")
	cmd.Flags().StringVar(&f.debugPath, "debug", "", "path a detailed JSON debug report is written to")
}

func (f *pipelineFlags) pipelineConfig() pipeline.Config {
	cfg := pipeline.DefaultConfig()
	cfg.Concurrency = f.concurrency
	cfg.Resolution = f.resolution
	cfg.WindowSize = f.windowSize
	cfg.StepSize = f.stepSize
	cfg.MaxChunkSize = f.maxChunkSize
	cfg.MinFrames = f.minFrames
	cfg.MaxSceneFrames = f.maxSceneFrames
	cfg.TargetFPS = f.targetFPS
	cfg.SceneChangeThreshold = f.sceneChangeThreshold
	cfg.Thresholds.ImageSimilarityThreshold = f.imageSimilarityThreshold
	cfg.Thresholds.ImageVideoSimilarityThreshold = f.imageVideoSimilarityThreshold
	cfg.Thresholds.VideoSimilarityThreshold = f.videoSimilarityThreshold
	return cfg
}

// Execute runs the root command and maps its outcome to a process exit
// code, following the reference engine's Execute() int pattern.
func Execute() int {
	rootCmd.AddCommand(scanCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(workerCmd)

	if err := rootCmd.Execute(); err != nil {
		if code, ok := err.(exitCodeError); ok {
			return int(code)
		}
		log.Printf("mediadedup: %v", err)
		return exitUnexpected
	}
	return exitSuccess
}

// exitCodeError lets a subcommand's RunE signal a specific exit code
// (configuration error or partial failure) without main needing to know
// the reason, the way cobra's SilenceErrors pattern is meant to be used.
type exitCodeError int

func (e exitCodeError) Error() string { return "exit" }
