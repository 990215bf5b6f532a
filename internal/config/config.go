// Package config loads the engine's configuration from the environment,
// CLI flags and (in service mode) persisted settings, following the
// reference engine's env()/envInt() + MergeFromDB pattern, generalized to
// arbitrary numeric/bool overrides via spf13/cast.
package config

import (
	"database/sql"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/spf13/cast"

	"github.com/sylphlab/mediadedup/internal/pipeline"
	"github.com/sylphlab/mediadedup/internal/similarity"
)

// Config is the full set of tunables for one engine run, whether invoked
// as a one-shot CLI scan or as the long-running service.
type Config struct {
	// Service mode.
	Port        int
	DatabaseURL string
	RedisAddr   string
	JWTSecret   string
	DataDir     string

	// CORE pipeline.
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

	ImageSimilarityThreshold      float64
	ImageVideoSimilarityThreshold float64
	VideoSimilarityThreshold      float64

	PerFileTimeoutSeconds int

	Move          bool
	ErrorPath     string
	DuplicatePath string
	DebugPath     string
	Format        string
}

// Load builds a Config from the environment, matching the reference's
// Config.Load pattern.
func Load() *Config {
	return &Config{
		Port:        envInt("PORT", 8080),
		DatabaseURL: env("DATABASE_URL", "postgres://mediadedup:mediadedup@db:5432/mediadedup?sslmode=disable"),
		RedisAddr:   env("REDIS_ADDR", "redis:6379"),
		JWTSecret:   env("JWT_SECRET", "change-me-in-production"),
		DataDir:     env("DATA_DIR", "/data"),

		Concurrency:          envInt("CONCURRENCY", 8),
		Resolution:           envInt("RESOLUTION", 32),
		HashSize:             envInt("HASH_SIZE", 8),
		WindowSize:           envInt("WINDOW_SIZE", 5),
		StepSize:             envInt("STEP_SIZE", 1),
		MaxChunkSize:         int64(envInt("MAX_CHUNK_SIZE", 1<<20)),
		MinFrames:            envInt("MIN_FRAMES", 1),
		MaxSceneFrames:       envInt("MAX_SCENE_FRAMES", 64),
		TargetFPS:            envFloat("TARGET_FPS", 1),
		SceneChangeThreshold: envFloat("SCENE_CHANGE_THRESHOLD", 0.3),

		ImageSimilarityThreshold:      envFloat("IMAGE_SIMILARITY_THRESHOLD", 0.9),
		ImageVideoSimilarityThreshold: envFloat("IMAGE_VIDEO_SIMILARITY_THRESHOLD", 0.85),
		VideoSimilarityThreshold:      envFloat("VIDEO_SIMILARITY_THRESHOLD", 0.8),

		PerFileTimeoutSeconds: envInt("PER_FILE_TIMEOUT_SECONDS", 30),

		Move:          envBool("MOVE", false),
		ErrorPath:     env("ERROR_PATH", ""),
		DuplicatePath: env("DUPLICATE_PATH", ""),
		DebugPath:     env("DEBUG_PATH", ""),
		Format:        env("FORMAT", "text"),
	}
}

// PipelineConfig projects Config into the pipeline.Config the
// orchestrator consumes.
func (c *Config) PipelineConfig() pipeline.Config {
	return pipeline.Config{
		Concurrency:          c.Concurrency,
		Resolution:           c.Resolution,
		HashSize:             c.HashSize,
		WindowSize:           c.WindowSize,
		StepSize:             c.StepSize,
		MaxChunkSize:         c.MaxChunkSize,
		MinFrames:            c.MinFrames,
		MaxSceneFrames:       c.MaxSceneFrames,
		TargetFPS:            c.TargetFPS,
		SceneChangeThreshold: c.SceneChangeThreshold,
		Thresholds: similarity.Thresholds{
			ImageSimilarityThreshold:      c.ImageSimilarityThreshold,
			ImageVideoSimilarityThreshold: c.ImageVideoSimilarityThreshold,
			VideoSimilarityThreshold:      c.VideoSimilarityThreshold,
		},
		PerFileTimeout: time.Duration(c.PerFileTimeoutSeconds) * time.Second,
		MinPts:         2,
		Shards:         1,
	}
}

// MergeFromSettings overlays values persisted in the service's settings
// table, using cast for flexible type coercion so a setting stored as
// text, int or bool in Postgres all parse correctly — generalizing the
// reference engine's per-key strconv.Atoi switch.
func (c *Config) MergeFromSettings(db *sql.DB) {
	rows, err := db.Query("SELECT key, value FROM settings")
	if err != nil {
		log.Printf("config: skipping settings merge: %v", err)
		return
	}
	defer rows.Close()

	for rows.Next() {
		var key, value string
		if err := rows.Scan(&key, &value); err != nil {
			continue
		}
		switch key {
		case "concurrency":
			c.Concurrency = cast.ToInt(value)
		case "image_similarity_threshold":
			c.ImageSimilarityThreshold = cast.ToFloat64(value)
		case "image_video_similarity_threshold":
			c.ImageVideoSimilarityThreshold = cast.ToFloat64(value)
		case "video_similarity_threshold":
			c.VideoSimilarityThreshold = cast.ToFloat64(value)
		case "move":
			c.Move = cast.ToBool(value)
		case "duplicate_path":
			c.DuplicatePath = value
		case "error_path":
			c.ErrorPath = value
		case "target_fps":
			c.TargetFPS = cast.ToFloat64(value)
		case "scene_change_threshold":
			c.SceneChangeThreshold = cast.ToFloat64(value)
		case "per_file_timeout_seconds":
			c.PerFileTimeoutSeconds = cast.ToInt(value)
		}
	}
}

func env(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}

func envFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func envBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}
