package similarity

import (
	"math"
	"testing"

	"github.com/sylphlab/mediadedup/internal/models"
)

func frame(hash []byte, ts float64) models.FrameInfo {
	return models.FrameInfo{Hash: hash, Timestamp: ts}
}

func TestImageSimilaritySelfIsOne(t *testing.T) {
	f := frame([]byte{0xde, 0xad, 0xbe, 0xef}, 0)
	if got := ImageSimilarity(f, f); got != 1 {
		t.Errorf("ImageSimilarity(f,f) = %v, want 1", got)
	}
}

func TestImageSimilarityEmptyHash(t *testing.T) {
	f1 := frame([]byte{0x01}, 0)
	f2 := frame(nil, 0)
	if got := ImageSimilarity(f1, f2); got != 0 {
		t.Errorf("ImageSimilarity with empty hash = %v, want 0", got)
	}
	if got := ImageSimilarity(frame(nil, 0), frame(nil, 0)); got != 1 {
		t.Errorf("ImageSimilarity(empty,empty) = %v, want 1", got)
	}
}

func TestImageVideoSimilarityEmptyVideo(t *testing.T) {
	img := models.MediaInfo{Frames: []models.FrameInfo{frame([]byte{0x01}, 0)}}
	video := models.MediaInfo{Frames: nil, Duration: 10}
	if got := ImageVideoSimilarity(img, video); got != 0 {
		t.Errorf("ImageVideoSimilarity(img,emptyVideo) = %v, want 0", got)
	}
}

func TestSequenceSimilarityDTWSelfIsOne(t *testing.T) {
	seq := []models.FrameInfo{
		frame([]byte{0x00, 0x00}, 0),
		frame([]byte{0xff, 0x00}, 1),
		frame([]byte{0xff, 0xff}, 2),
	}
	if got := SequenceSimilarityDTW(seq, seq); math.Abs(got-1) > 1e-9 {
		t.Errorf("SequenceSimilarityDTW(seq,seq) = %v, want 1", got)
	}
}

func TestSequenceSimilarityDTWBothEmpty(t *testing.T) {
	if got := SequenceSimilarityDTW(nil, nil); got != 1 {
		t.Errorf("DTW([],[]) = %v, want 1", got)
	}
}

func TestSequenceSimilarityDTWOneEmpty(t *testing.T) {
	seq := []models.FrameInfo{frame([]byte{0x01}, 0)}
	if got := SequenceSimilarityDTW(seq, nil); got != 0 {
		t.Errorf("DTW(seq,[]) = %v, want 0", got)
	}
}

func TestAdaptiveThreshold(t *testing.T) {
	cfg := Thresholds{
		ImageSimilarityThreshold:      0.9,
		ImageVideoSimilarityThreshold: 0.8,
		VideoSimilarityThreshold:      0.85,
	}
	img := models.MediaInfo{Duration: 0}
	vid := models.MediaInfo{Duration: 30}
	if got := AdaptiveThreshold(img, img, cfg); got != 0.9 {
		t.Errorf("image-image threshold = %v, want 0.9", got)
	}
	if got := AdaptiveThreshold(img, vid, cfg); got != 0.8 {
		t.Errorf("image-video threshold = %v, want 0.8", got)
	}
	if got := AdaptiveThreshold(vid, vid, cfg); got != 0.85 {
		t.Errorf("video-video threshold = %v, want 0.85", got)
	}
}
