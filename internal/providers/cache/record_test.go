package cache

import (
	"testing"
	"time"

	"github.com/sylphlab/mediadedup/internal/models"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	lat, lon := 37.7749, -122.4194
	date := time.Unix(1700000000, 0).UTC()
	info := models.FileInfo{
		Path: "/photos/a.jpg",
		Media: models.MediaInfo{
			Frames: []models.FrameInfo{
				{Hash: []byte{0x01, 0x02, 0xff}, Timestamp: 0},
				{Hash: []byte{0xaa, 0xbb}, Timestamp: 1.5},
			},
			Duration: 12.5,
		},
		Metadata: models.Metadata{
			Width: 1920, Height: 1080,
			GPSLatitude: &lat, GPSLongitude: &lon,
			CameraModel: "Pixel 7",
			ImageDate:   &date,
		},
		FileStats: models.FileStats{
			ContentHash: "deadbeef",
			Size:        123456,
			CreatedAt:   date,
			ModifiedAt:  date,
		},
	}

	payload := EncodeFileInfo(info)
	got, err := DecodeFileInfo(payload)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}

	if got.Path != info.Path {
		t.Errorf("Path = %q, want %q", got.Path, info.Path)
	}
	if got.Media.Duration != info.Media.Duration {
		t.Errorf("Duration = %v, want %v", got.Media.Duration, info.Media.Duration)
	}
	if len(got.Media.Frames) != len(info.Media.Frames) {
		t.Fatalf("Frames length = %d, want %d", len(got.Media.Frames), len(info.Media.Frames))
	}
	for i, f := range got.Media.Frames {
		if string(f.Hash) != string(info.Media.Frames[i].Hash) {
			t.Errorf("frame %d hash = %v, want %v", i, f.Hash, info.Media.Frames[i].Hash)
		}
		if f.Timestamp != info.Media.Frames[i].Timestamp {
			t.Errorf("frame %d timestamp = %v, want %v", i, f.Timestamp, info.Media.Frames[i].Timestamp)
		}
	}
	if got.Metadata.Width != 1920 || got.Metadata.Height != 1080 {
		t.Errorf("dimensions = %dx%d, want 1920x1080", got.Metadata.Width, got.Metadata.Height)
	}
	if got.Metadata.GPSLatitude == nil || *got.Metadata.GPSLatitude != lat {
		t.Errorf("GPSLatitude mismatch: %v", got.Metadata.GPSLatitude)
	}
	if got.Metadata.CameraModel != "Pixel 7" {
		t.Errorf("CameraModel = %q, want Pixel 7", got.Metadata.CameraModel)
	}
	if got.FileStats.ContentHash != "deadbeef" || got.FileStats.Size != 123456 {
		t.Errorf("FileStats mismatch: %+v", got.FileStats)
	}
}

func TestDecodeRejectsVersionMismatch(t *testing.T) {
	payload := EncodeFileInfo(models.FileInfo{Path: "x"})
	payload[0] = recordVersion + 1
	if _, err := DecodeFileInfo(payload); err == nil {
		t.Error("expected version mismatch error")
	}
}

func TestDecodeRejectsEmptyPayload(t *testing.T) {
	if _, err := DecodeFileInfo(nil); err == nil {
		t.Error("expected error on empty payload")
	}
}
