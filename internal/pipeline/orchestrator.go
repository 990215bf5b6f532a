package pipeline

import (
	"context"
	"log"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/sylphlab/mediadedup/internal/cluster"
	"github.com/sylphlab/mediadedup/internal/dcthash"
	"github.com/sylphlab/mediadedup/internal/dederr"
	"github.com/sylphlab/mediadedup/internal/models"
	"github.com/sylphlab/mediadedup/internal/selector"
	"github.com/sylphlab/mediadedup/internal/similarity"
	"github.com/sylphlab/mediadedup/internal/vptree"
)

// Orchestrator wires together the external providers and the CORE
// algorithms into one end-to-end deduplication run.
type Orchestrator struct {
	Discoverer        Discoverer
	MetadataExtractor MetadataExtractor
	FrameExtractor    FrameExtractor
	FileStatter       FileStatter
	Cache             Cache
	Config            Config

	// limiter caps how fast files start their external-provider calls (at
	// most Concurrency per second, with a burst of Concurrency); how many
	// run at once is bounded by the worker pool in computeFileInfos.
	limiter *rate.Limiter
}

// NewOrchestrator builds an Orchestrator from its provider set and config.
func NewOrchestrator(discoverer Discoverer, metadata MetadataExtractor, frames FrameExtractor, stats FileStatter, cache Cache, cfg Config) *Orchestrator {
	burst := cfg.Concurrency
	if burst < 1 {
		burst = 1
	}
	return &Orchestrator{
		Discoverer:        discoverer,
		MetadataExtractor: metadata,
		FrameExtractor:    frames,
		FileStatter:       stats,
		Cache:             cache,
		Config:            cfg,
		limiter:           rate.NewLimiter(rate.Limit(cfg.Concurrency), burst),
	}
}

// ProgressFunc reports the orchestrator's progress through the
// file-artifact phase; it may be called from multiple goroutines.
type ProgressFunc func(processed, total int)

// Run executes one full pipeline over roots: discovery, per-file artifact
// computation, VP-tree build, clustering, selection and result assembly.
func (o *Orchestrator) Run(ctx context.Context, roots []string, onProgress ProgressFunc) (models.DeduplicationResult, error) {
	byExt, err := o.Discoverer.DiscoverFiles(ctx, roots, o.Config.Concurrency)
	if err != nil {
		return models.DeduplicationResult{}, dederr.New(dederr.FileSystem, "pipeline.Run: discover", err)
	}

	var paths []string
	for _, group := range byExt {
		paths = append(paths, group...)
	}
	sort.Strings(paths)

	infos, fileErrors := o.computeFileInfos(ctx, paths, onProgress)

	pathList := make([]string, 0, len(infos))
	for p := range infos {
		pathList = append(pathList, p)
	}
	sort.Strings(pathList)

	lookup := func(p string) models.FileInfo { return infos[p] }
	tree := vptree.Build(pathList, func(a, b string) float64 {
		return similarity.Distance(lookup(a).Media, lookup(b).Media)
	})

	eps := o.Config.epsilon()
	neighborFn := func(p string) ([]string, error) {
		candidates := tree.NeighborsWithin(p, eps)
		pMedia := lookup(p).Media
		var accepted []string
		for _, c := range candidates {
			cMedia := lookup(c).Media
			if !durationsCompatible(pMedia.Duration, cMedia.Duration) {
				continue
			}
			threshold := similarity.AdaptiveThreshold(pMedia, cMedia, o.Config.Thresholds)
			if similarity.Similarity(pMedia, cMedia) >= threshold {
				accepted = append(accepted, c)
			}
		}
		return accepted, nil
	}

	var dbResults []cluster.Result
	if o.Config.Shards > 1 {
		dbResults = cluster.RunSharded(pathList, o.Config.MinPts, o.Config.Shards, neighborFn)
	} else {
		dbResults = cluster.Run(pathList, o.Config.MinPts, neighborFn)
	}

	clustered := make(map[string]bool, len(pathList))
	var duplicateSets []models.Cluster
	for _, r := range dbResults {
		sel := selector.Select(r.Points, lookup, o.Config.Thresholds)
		for _, p := range r.Points {
			clustered[p] = true
		}
		duplicateSets = append(duplicateSets, models.Cluster{
			Members:         sortedCopy(r.Points),
			BestFile:        sel.BestFile,
			Representatives: sel.Representatives,
			Duplicates:      sortedCopy(sel.Duplicates),
		})
	}

	sort.Slice(duplicateSets, func(i, j int) bool {
		if len(duplicateSets[i].Members) != len(duplicateSets[j].Members) {
			return len(duplicateSets[i].Members) > len(duplicateSets[j].Members)
		}
		return duplicateSets[i].BestFile < duplicateSets[j].BestFile
	})

	var unique []string
	for _, p := range pathList {
		if !clustered[p] {
			unique = append(unique, p)
		}
	}
	sort.Strings(unique)

	return models.DeduplicationResult{
		UniqueFiles:   unique,
		DuplicateSets: duplicateSets,
		Errors:        fileErrors,
	}, nil
}

// durationsCompatible rejects a comparison up front when two files'
// durations differ by more than 5%, the same cheap pre-filter the
// reference engine applies before computing phash similarity. Two stills
// (duration 0) are always compatible.
func durationsCompatible(a, b float64) bool {
	if a == 0 || b == 0 {
		return true
	}
	longer, shorter := a, b
	if shorter > longer {
		longer, shorter = shorter, longer
	}
	return (longer-shorter)/longer <= 0.05
}

func sortedCopy(s []string) []string {
	cp := make([]string, len(s))
	copy(cp, s)
	sort.Strings(cp)
	return cp
}

// computeFileInfos runs the FileInfo phase over paths using a bounded
// worker pool (channel-fed, fixed worker count) with atomic progress
// counters and cooperative cancellation checked between files, the same
// shape as the reference engine's PhashLibraryHandler.ProcessTask.
func (o *Orchestrator) computeFileInfos(ctx context.Context, paths []string, onProgress ProgressFunc) (map[string]models.FileInfo, []models.FileError) {
	results := make(map[string]models.FileInfo, len(paths))
	var mu sync.Mutex
	var fileErrors []models.FileError

	work := make(chan string, len(paths))
	for _, p := range paths {
		work <- p
	}
	close(work)

	var processed int64
	total := len(paths)

	var progressWG sync.WaitGroup
	progressDone := make(chan struct{})
	if onProgress != nil && total > 0 {
		progressWG.Add(1)
		go func() {
			defer progressWG.Done()
			ticker := time.NewTicker(500 * time.Millisecond)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					onProgress(int(atomic.LoadInt64(&processed)), total)
				case <-progressDone:
					onProgress(int(atomic.LoadInt64(&processed)), total)
					return
				}
			}
		}()
	}

	workers := o.Config.Concurrency
	if workers < 1 {
		workers = 1
	}
	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for path := range work {
				select {
				case <-ctx.Done():
					atomic.AddInt64(&processed, 1)
					continue
				default:
				}

				info, err := o.computeOneFileInfo(ctx, path)
				atomic.AddInt64(&processed, 1)
				if err != nil {
					log.Printf("pipeline: excluding %q after error: %v", path, err)
					mu.Lock()
					fileErrors = append(fileErrors, models.FileError{Path: path, Message: err.Error()})
					mu.Unlock()
					continue
				}
				if dcthash.IsDegenerate(firstHash(info)) {
					log.Printf("pipeline: excluding %q, degenerate hash", path)
					continue
				}
				mu.Lock()
				results[path] = info
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	close(progressDone)
	progressWG.Wait()

	return results, fileErrors
}

func firstHash(info models.FileInfo) []byte {
	if len(info.Media.Frames) == 0 {
		return nil
	}
	return info.Media.Frames[0].Hash
}

// computeOneFileInfo computes (or retrieves from cache) the FileInfo for
// one file, bounded by the per-file timeout and the shared rate limiter.
func (o *Orchestrator) computeOneFileInfo(ctx context.Context, path string) (models.FileInfo, error) {
	fctx := ctx
	var cancel context.CancelFunc
	if o.Config.PerFileTimeout > 0 {
		fctx, cancel = context.WithTimeout(ctx, o.Config.PerFileTimeout)
		defer cancel()
	}

	if err := o.limiter.Wait(fctx); err != nil {
		return models.FileInfo{}, dederr.New(dederr.ExternalTool, "rate limiter wait", err).WithPath(path)
	}

	stats, err := o.FileStatter.ComputeFileStats(fctx, path, o.Config.MaxChunkSize)
	if err != nil {
		return models.FileInfo{}, dederr.New(dederr.FileSystem, "ComputeFileStats", err).WithPath(path)
	}

	key := models.CacheKey{Path: path, Size: stats.Size, ContentHash: stats.ContentHash}
	if o.Cache != nil {
		if cached, ok, err := o.Cache.Get(fctx, key); err == nil && ok {
			return cached, nil
		}
	}

	metadata, err := o.MetadataExtractor.ExtractMetadata(fctx, path)
	if err != nil {
		return models.FileInfo{}, dederr.New(dederr.ExternalTool, "ExtractMetadata", err).WithPath(path)
	}

	media, err := o.FrameExtractor.ExtractFrames(fctx, path, o.Config.frameConfig())
	if err != nil {
		return models.FileInfo{}, dederr.New(dederr.ExternalTool, "ExtractFrames", err).WithPath(path)
	}

	info := models.FileInfo{Path: path, Media: media, Metadata: metadata, FileStats: stats}

	if o.Cache != nil {
		if err := o.Cache.Put(fctx, key, info); err != nil {
			log.Printf("pipeline: cache put failed for %q: %v", path, err)
		}
	}

	return info, nil
}
