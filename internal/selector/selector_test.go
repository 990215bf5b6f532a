package selector

import (
	"testing"
	"time"

	"github.com/sylphlab/mediadedup/internal/models"
	"github.com/sylphlab/mediadedup/internal/similarity"
)

func img(size int64, w, h int, dated bool, hash []byte) models.FileInfo {
	var date *time.Time
	if dated {
		t := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
		date = &t
	}
	return models.FileInfo{
		Media:     models.MediaInfo{Frames: []models.FrameInfo{{Hash: hash, Timestamp: 0}}, Duration: 0},
		Metadata:  models.Metadata{Width: w, Height: h, ImageDate: date},
		FileStats: models.FileStats{Size: size},
	}
}

func video(duration float64, w, h int, hashes ...[]byte) models.FileInfo {
	var frames []models.FrameInfo
	for i, h := range hashes {
		frames = append(frames, models.FrameInfo{Hash: h, Timestamp: float64(i)})
	}
	return models.FileInfo{
		Media:     models.MediaInfo{Frames: frames, Duration: duration},
		Metadata:  models.Metadata{Width: w, Height: h},
		FileStats: models.FileStats{Size: 1000},
	}
}

func TestScoreVideoBeatsImage(t *testing.T) {
	i := img(1000, 1920, 1080, true, []byte{0x01})
	v := video(30, 1920, 1080, []byte{0x01})
	if Score(v) <= Score(i) {
		t.Errorf("video score %v should exceed image score %v", Score(v), Score(i))
	}
}

func TestSelectTieBreaksByPath(t *testing.T) {
	a := img(1000, 1920, 1080, true, []byte{0x01})
	b := img(1000, 1920, 1080, true, []byte{0x01})
	lookup := map[string]models.FileInfo{"b.jpg": b, "a.jpg": a}
	sel := Select([]string{"b.jpg", "a.jpg"}, func(p string) models.FileInfo { return lookup[p] }, similarity.Thresholds{ImageSimilarityThreshold: 0.9})
	if sel.BestFile != "a.jpg" {
		t.Errorf("BestFile = %q, want a.jpg (lexicographically smaller on tie)", sel.BestFile)
	}
}

func TestSelectImageRepresentativeAlone(t *testing.T) {
	best := img(5000, 1920, 1080, true, []byte{0xff, 0xff})
	worse := img(1000, 640, 480, false, []byte{0x00, 0x00})
	lookup := map[string]models.FileInfo{"best.jpg": best, "worse.jpg": worse}
	sel := Select([]string{"best.jpg", "worse.jpg"}, func(p string) models.FileInfo { return lookup[p] }, similarity.Thresholds{ImageSimilarityThreshold: 0.9})
	if sel.BestFile != "best.jpg" {
		t.Fatalf("BestFile = %q, want best.jpg", sel.BestFile)
	}
	if len(sel.Representatives) != 1 || sel.Representatives[0] != "best.jpg" {
		t.Errorf("expected single representative, got %v", sel.Representatives)
	}
	if len(sel.Duplicates) != 1 || sel.Duplicates[0] != "worse.jpg" {
		t.Errorf("expected worse.jpg as duplicate, got %v", sel.Duplicates)
	}
}

func TestSelectVideoWithDistinctStills(t *testing.T) {
	v := video(30, 1920, 1080, []byte{0xff, 0x00})
	still1 := img(2000, 1920, 1080, false, []byte{0x00, 0xff}) // dissimilar to video frame
	still2 := img(2000, 1920, 1080, false, []byte{0x00, 0xff}) // identical to still1: should not both be admitted
	lookup := map[string]models.FileInfo{"v.mp4": v, "s1.jpg": still1, "s2.jpg": still2}
	sel := Select([]string{"v.mp4", "s1.jpg", "s2.jpg"}, func(p string) models.FileInfo { return lookup[p] }, similarity.Thresholds{ImageSimilarityThreshold: 0.9})
	if sel.BestFile != "v.mp4" {
		t.Fatalf("BestFile = %q, want v.mp4", sel.BestFile)
	}
	if len(sel.Representatives) != 2 {
		t.Errorf("expected video + exactly one distinct still as representatives, got %v", sel.Representatives)
	}
}

func TestSelectVideoRejectsLowerResolutionStill(t *testing.T) {
	v := video(30, 1920, 1080, []byte{0xff, 0x00})
	smallStill := img(2000, 640, 480, false, []byte{0x00, 0xff})
	lookup := map[string]models.FileInfo{"v.mp4": v, "small.jpg": smallStill}
	sel := Select([]string{"v.mp4", "small.jpg"}, func(p string) models.FileInfo { return lookup[p] }, similarity.Thresholds{ImageSimilarityThreshold: 0.9})
	if len(sel.Representatives) != 1 {
		t.Errorf("expected lower-resolution still to be rejected, representatives = %v", sel.Representatives)
	}
}
