package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/sylphlab/mediadedup/internal/dederr"
	"github.com/sylphlab/mediadedup/internal/pipeline"
	"github.com/sylphlab/mediadedup/internal/providers/cache"
	"github.com/sylphlab/mediadedup/internal/providers/discover"
	"github.com/sylphlab/mediadedup/internal/providers/filestats"
	"github.com/sylphlab/mediadedup/internal/providers/frames"
	"github.com/sylphlab/mediadedup/internal/providers/metadata"
)

var scanFlags pipelineFlags

var scanCmd = &cobra.Command{
	Use:   "scan ROOT [ROOT...]",
	Short: "Run a one-shot deduplication pass over one or more library roots",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runScan,
}

func init() {
	scanFlags.register(scanCmd)
}

func runScan(cmd *cobra.Command, args []string) error {
	if scanFlags.move && scanFlags.duplicatePath == "" {
		return exitCodeError(exitConfigError)
	}

	walker := discover.NewWalker()
	metaExtractor := metadata.NewExtractor()
	frameExtractor, err := frames.NewExtractor(scanFlags.resolution, pipeline.DefaultConfig().HashSize)
	if err != nil {
		log.Printf("mediadedup: invalid frame extractor config: %v", err)
		return exitCodeError(exitConfigError)
	}
	statter := filestats.NewHasher()

	store, err := openCache()
	if err != nil {
		log.Printf("mediadedup: %v", err)
		return exitCodeError(exitConfigError)
	}

	orchestrator := pipeline.NewOrchestrator(walker, metaExtractor, frameExtractor, statter, store, scanFlags.pipelineConfig())

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	result, err := orchestrator.Run(ctx, args, func(processed, total int) {
		fmt.Fprintf(os.Stderr, "\rscanning: %d/%d", processed, total)
	})
	fmt.Fprintln(os.Stderr)
	if err != nil {
		log.Printf("mediadedup: scan failed: %v", err)
		var derr *dederr.Error
		if errors.As(err, &derr) && derr.Kind == dederr.Config {
			return exitCodeError(exitConfigError)
		}
		return exitCodeError(exitUnexpected)
	}

	if err := writeResult(result, scanFlags.format); err != nil {
		log.Printf("mediadedup: failed to write result: %v", err)
		return exitCodeError(exitUnexpected)
	}

	if scanFlags.debugPath != "" {
		if err := writeDebugReport(result, scanFlags.debugPath); err != nil {
			log.Printf("mediadedup: failed to write debug report: %v", err)
		}
	}

	if err := applyResolution(result, scanFlags); err != nil {
		log.Printf("mediadedup: failed to apply resolution: %v", err)
		return exitCodeError(exitPartialFailure)
	}

	if len(result.Errors) > 0 {
		return exitCodeError(exitPartialFailure)
	}
	return nil
}

// openCache connects to Postgres if DATABASE_URL is set, falling back to
// an in-process cache for ad-hoc scans.
func openCache() (pipeline.Cache, error) {
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		return cache.NewMemoryStore(), nil
	}
	store, err := cache.Connect(url)
	if err != nil {
		log.Printf("mediadedup: cache unavailable, continuing without persistence: %v", err)
		return cache.NewMemoryStore(), nil
	}
	return store, nil
}

