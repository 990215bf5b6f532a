// Package discover implements the DiscoverFiles provider contract (§6): a
// concurrent recursive walk of a set of root directories, grouping
// discovered files by extension.
package discover

import (
	"context"
	"io/fs"
	"path/filepath"
	"strings"
	"sync"

	"github.com/sylphlab/mediadedup/internal/dederr"
)

var supportedExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".bmp": true, ".webp": true, ".heic": true,
	".mp4": true, ".mkv": true, ".mov": true, ".avi": true, ".webm": true, ".m4v": true,
}

// Walker discovers media files under a set of root directories.
type Walker struct{}

// NewWalker constructs a Walker.
func NewWalker() *Walker { return &Walker{} }

// DiscoverFiles walks each root concurrently (bounded by concurrency) and
// returns the discovered files grouped by lowercase extension.
func (w *Walker) DiscoverFiles(ctx context.Context, roots []string, concurrency int) (map[string][]string, error) {
	if concurrency < 1 {
		concurrency = 1
	}
	type found struct {
		ext  string
		path string
	}
	resultsCh := make(chan found, 256)
	sem := make(chan struct{}, concurrency)
	var wg sync.WaitGroup
	var walkErr error
	var mu sync.Mutex

	for _, root := range roots {
		wg.Add(1)
		sem <- struct{}{}
		go func(root string) {
			defer wg.Done()
			defer func() { <-sem }()
			err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
				if err != nil {
					return nil // skip unreadable entries, don't abort the whole walk
				}
				select {
				case <-ctx.Done():
					return ctx.Err()
				default:
				}
				if d.IsDir() {
					return nil
				}
				ext := strings.ToLower(filepath.Ext(path))
				if !supportedExtensions[ext] {
					return nil
				}
				resultsCh <- found{ext: ext, path: path}
				return nil
			})
			if err != nil {
				mu.Lock()
				walkErr = dederr.New(dederr.FileSystem, "discover.DiscoverFiles", err).WithPath(root)
				mu.Unlock()
			}
		}(root)
	}

	go func() {
		wg.Wait()
		close(resultsCh)
	}()

	byExt := make(map[string][]string)
	for f := range resultsCh {
		byExt[f.ext] = append(byExt[f.ext], f.path)
	}

	mu.Lock()
	defer mu.Unlock()
	if walkErr != nil {
		return byExt, walkErr
	}
	return byExt, nil
}
