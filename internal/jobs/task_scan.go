package jobs

import (
	"context"
	"encoding/json"
	"log"

	"github.com/hibiken/asynq"
	"github.com/google/uuid"

	"github.com/sylphlab/mediadedup/internal/models"
	"github.com/sylphlab/mediadedup/internal/pipeline"
)

// ScanPayload is the asynq task payload for TaskDedupScan and
// TaskIncrementalScan.
type ScanPayload struct {
	ScanID uuid.UUID `json:"scanId"`
	Roots  []string  `json:"roots"`
}

// ResultStore persists a completed scan's result and progress, so the
// HTTP API can serve GET /api/v1/scans/{id} independently of the worker
// that produced it.
type ResultStore interface {
	SaveResult(scanID uuid.UUID, result models.DeduplicationResult) error
	SaveProgress(scanID uuid.UUID, processed, total int)
}

// ScanHandler runs the orchestrator for a scan task, broadcasting
// progress the same way the reference engine's PhashLibraryHandler does:
// a bounded worker pool inside the orchestrator itself, with progress
// surfaced via a callback rather than a second worker-pool layer here.
type ScanHandler struct {
	Orchestrator *pipeline.Orchestrator
	Results      ResultStore
	Notify       func(scanID uuid.UUID, processed, total int)

	// Resolve, when set, is applied to a completed scan's result before it
	// is persisted — the service-mode equivalent of the CLI's --move flag,
	// driven by config.Config's Move/DuplicatePath/ErrorPath instead.
	Resolve func(result models.DeduplicationResult) error
}

// ProcessTask implements asynq.Handler.
func (h *ScanHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload ScanPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return err
	}

	log.Printf("jobs: starting scan %s over %d roots", payload.ScanID, len(payload.Roots))

	result, err := h.Orchestrator.Run(ctx, payload.Roots, func(processed, total int) {
		if h.Results != nil {
			h.Results.SaveProgress(payload.ScanID, processed, total)
		}
		if h.Notify != nil {
			h.Notify(payload.ScanID, processed, total)
		}
	})
	if err != nil {
		log.Printf("jobs: scan %s failed: %v", payload.ScanID, err)
		return err
	}

	if h.Resolve != nil {
		if err := h.Resolve(result); err != nil {
			log.Printf("jobs: scan %s: resolution failed: %v", payload.ScanID, err)
		}
	}

	if h.Results != nil {
		if err := h.Results.SaveResult(payload.ScanID, result); err != nil {
			log.Printf("jobs: failed to persist result for scan %s: %v", payload.ScanID, err)
			return err
		}
	}

	log.Printf("jobs: scan %s complete: %d unique, %d duplicate sets", payload.ScanID, len(result.UniqueFiles), len(result.DuplicateSets))
	return nil
}
