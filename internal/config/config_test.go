package config

import (
	"os"
	"testing"
)

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	cfg := Load()
	if cfg.Port != 8080 {
		t.Errorf("Port = %d, want 8080", cfg.Port)
	}
	if cfg.Move {
		t.Error("Move default = true, want false")
	}
	if cfg.Format != "text" {
		t.Errorf("Format = %q, want text", cfg.Format)
	}
}

func TestLoadOverridesFromEnv(t *testing.T) {
	clearEnv(t)
	os.Setenv("PORT", "9090")
	os.Setenv("MOVE", "true")
	os.Setenv("DUPLICATE_PATH", "/library/.dupes")
	defer clearEnv(t)

	cfg := Load()
	if cfg.Port != 9090 {
		t.Errorf("Port = %d, want 9090", cfg.Port)
	}
	if !cfg.Move {
		t.Error("Move = false, want true")
	}
	if cfg.DuplicatePath != "/library/.dupes" {
		t.Errorf("DuplicatePath = %q, want /library/.dupes", cfg.DuplicatePath)
	}
}

func TestPipelineConfigProjection(t *testing.T) {
	clearEnv(t)
	cfg := Load()
	pc := cfg.PipelineConfig()
	if pc.Concurrency != cfg.Concurrency || pc.Resolution != cfg.Resolution {
		t.Errorf("PipelineConfig did not project Concurrency/Resolution: %+v", pc)
	}
	if pc.Thresholds.ImageSimilarityThreshold != cfg.ImageSimilarityThreshold {
		t.Errorf("PipelineConfig did not project similarity thresholds: %+v", pc.Thresholds)
	}
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PORT", "DATABASE_URL", "REDIS_ADDR", "JWT_SECRET", "DATA_DIR",
		"CONCURRENCY", "RESOLUTION", "HASH_SIZE", "WINDOW_SIZE", "STEP_SIZE",
		"MAX_CHUNK_SIZE", "MIN_FRAMES", "MAX_SCENE_FRAMES", "TARGET_FPS",
		"SCENE_CHANGE_THRESHOLD", "IMAGE_SIMILARITY_THRESHOLD",
		"IMAGE_VIDEO_SIMILARITY_THRESHOLD", "VIDEO_SIMILARITY_THRESHOLD",
		"PER_FILE_TIMEOUT_SECONDS", "MOVE", "ERROR_PATH", "DUPLICATE_PATH",
		"DEBUG_PATH", "FORMAT",
	} {
		os.Unsetenv(key)
	}
}
