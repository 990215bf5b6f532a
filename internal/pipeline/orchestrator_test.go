package pipeline

import (
	"context"
	"testing"

	"github.com/sylphlab/mediadedup/internal/models"
)

type fakeDiscoverer struct {
	files map[string][]string
}

func (f *fakeDiscoverer) DiscoverFiles(ctx context.Context, roots []string, concurrency int) (map[string][]string, error) {
	return f.files, nil
}

type fakeMetadata struct{}

func (fakeMetadata) ExtractMetadata(ctx context.Context, path string) (models.Metadata, error) {
	return models.Metadata{Width: 100, Height: 100}, nil
}

type fakeFrames struct {
	hashes map[string][]byte
}

func (f fakeFrames) ExtractFrames(ctx context.Context, path string, cfg FrameConfig) (models.MediaInfo, error) {
	return models.MediaInfo{Frames: []models.FrameInfo{{Hash: f.hashes[path], Timestamp: 0}}}, nil
}

type fakeStats struct{}

func (fakeStats) ComputeFileStats(ctx context.Context, path string, maxChunkSize int64) (models.FileStats, error) {
	return models.FileStats{ContentHash: path, Size: 100}, nil
}

type fakeCache struct{}

func (fakeCache) Get(ctx context.Context, key models.CacheKey) (models.FileInfo, bool, error) {
	return models.FileInfo{}, false, nil
}
func (fakeCache) Put(ctx context.Context, key models.CacheKey, info models.FileInfo) error {
	return nil
}

func TestOrchestratorUnrelatedFilesFormNoDuplicateSets(t *testing.T) {
	files := map[string][]string{".jpg": {"a.jpg", "b.jpg", "c.jpg"}}
	hashes := map[string][]byte{
		"a.jpg": {0x00, 0x00},
		"b.jpg": {0xff, 0xff},
		"c.jpg": {0x0f, 0xf0},
	}
	cfg := DefaultConfig()
	o := NewOrchestrator(&fakeDiscoverer{files: files}, fakeMetadata{}, fakeFrames{hashes: hashes}, fakeStats{}, fakeCache{}, cfg)

	result, err := o.Run(context.Background(), []string{"/root"}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	// a.jpg and b.jpg are fully degenerate (all-zero/all-one) and excluded;
	// only c.jpg survives to appear as unique.
	if len(result.DuplicateSets) != 0 {
		t.Errorf("expected no duplicate sets among unrelated files, got %v", result.DuplicateSets)
	}
}

func TestOrchestratorFindsDuplicateCluster(t *testing.T) {
	files := map[string][]string{".jpg": {"a.jpg", "b.jpg", "c.jpg"}}
	hashes := map[string][]byte{
		"a.jpg": {0x12, 0x34},
		"b.jpg": {0x12, 0x34},
		"c.jpg": {0xab, 0xcd},
	}
	cfg := DefaultConfig()
	o := NewOrchestrator(&fakeDiscoverer{files: files}, fakeMetadata{}, fakeFrames{hashes: hashes}, fakeStats{}, fakeCache{}, cfg)

	result, err := o.Run(context.Background(), []string{"/root"}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(result.DuplicateSets) != 1 {
		t.Fatalf("expected one duplicate cluster, got %d: %v", len(result.DuplicateSets), result.DuplicateSets)
	}
	cl := result.DuplicateSets[0]
	if cl.Size() != 2 {
		t.Errorf("expected cluster of size 2, got %d", cl.Size())
	}
}

func TestOrchestratorPartitionInvariant(t *testing.T) {
	files := map[string][]string{".jpg": {"a.jpg", "b.jpg", "c.jpg", "d.jpg"}}
	hashes := map[string][]byte{
		"a.jpg": {0x12, 0x34},
		"b.jpg": {0x12, 0x34},
		"c.jpg": {0xab, 0xcd},
		"d.jpg": {0x55, 0x66},
	}
	cfg := DefaultConfig()
	o := NewOrchestrator(&fakeDiscoverer{files: files}, fakeMetadata{}, fakeFrames{hashes: hashes}, fakeStats{}, fakeCache{}, cfg)

	result, err := o.Run(context.Background(), []string{"/root"}, nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	seen := make(map[string]int)
	for _, p := range result.UniqueFiles {
		seen[p]++
	}
	for _, cl := range result.DuplicateSets {
		for _, m := range cl.Members {
			seen[m]++
		}
	}
	for _, path := range []string{"a.jpg", "b.jpg", "c.jpg", "d.jpg"} {
		if seen[path] != 1 {
			t.Errorf("file %q appears %d times across uniqueFiles/duplicateSets, want exactly 1", path, seen[path])
		}
	}
}

func TestDurationsCompatible(t *testing.T) {
	cases := []struct {
		a, b float64
		want bool
	}{
		{0, 0, true},
		{0, 120, true},
		{100, 104, true},
		{100, 95, true},
		{100, 80, false},
		{100, 200, false},
	}
	for _, c := range cases {
		if got := durationsCompatible(c.a, c.b); got != c.want {
			t.Errorf("durationsCompatible(%v, %v) = %v, want %v", c.a, c.b, got, c.want)
		}
	}
}
