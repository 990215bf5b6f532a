package cache

import (
	"database/sql"
	"encoding/json"

	"github.com/google/uuid"

	"github.com/sylphlab/mediadedup/internal/dederr"
	"github.com/sylphlab/mediadedup/internal/models"
)

const scansSchema = `
CREATE TABLE IF NOT EXISTS scans (
	id          UUID PRIMARY KEY,
	processed   INT NOT NULL DEFAULT 0,
	total       INT NOT NULL DEFAULT 0,
	result      JSONB,
	resolutions JSONB NOT NULL DEFAULT '{}',
	updated_at  TIMESTAMPTZ NOT NULL DEFAULT now()
)`

// ScanStore persists scan progress and results, implementing both
// jobs.ResultStore (written by the worker) and api.ScanStore (read by the
// HTTP API), so a single Postgres table backs both sides of the service.
type ScanStore struct {
	db *sql.DB
}

// NewScanStore wraps an existing *sql.DB (typically the same connection
// pool as a Store's) and ensures the scans table exists.
func NewScanStore(db *sql.DB) (*ScanStore, error) {
	if _, err := db.Exec(scansSchema); err != nil {
		return nil, dederr.New(dederr.Cache, "cache.NewScanStore: migrate", err)
	}
	return &ScanStore{db: db}, nil
}

// SaveProgress implements jobs.ResultStore.
func (s *ScanStore) SaveProgress(scanID uuid.UUID, processed, total int) {
	_, _ = s.db.Exec(
		`INSERT INTO scans (id, processed, total) VALUES ($1, $2, $3)
		 ON CONFLICT (id) DO UPDATE SET processed = EXCLUDED.processed, total = EXCLUDED.total, updated_at = now()`,
		scanID, processed, total,
	)
}

// SaveResult implements jobs.ResultStore.
func (s *ScanStore) SaveResult(scanID uuid.UUID, result models.DeduplicationResult) error {
	payload, err := json.Marshal(result)
	if err != nil {
		return dederr.New(dederr.Cache, "ScanStore.SaveResult: marshal", err)
	}
	_, err = s.db.Exec(
		`INSERT INTO scans (id, result) VALUES ($1, $2)
		 ON CONFLICT (id) DO UPDATE SET result = EXCLUDED.result, updated_at = now()`,
		scanID, payload,
	)
	if err != nil {
		return dederr.New(dederr.Cache, "ScanStore.SaveResult: insert", err)
	}
	return nil
}

// GetResult implements api.ScanStore.
func (s *ScanStore) GetResult(scanID uuid.UUID) (models.DeduplicationResult, bool, error) {
	var payload []byte
	err := s.db.QueryRow(`SELECT result FROM scans WHERE id = $1`, scanID).Scan(&payload)
	if err == sql.ErrNoRows || payload == nil {
		return models.DeduplicationResult{}, false, nil
	}
	if err != nil {
		return models.DeduplicationResult{}, false, dederr.New(dederr.Cache, "ScanStore.GetResult", err)
	}
	var result models.DeduplicationResult
	if err := json.Unmarshal(payload, &result); err != nil {
		return models.DeduplicationResult{}, false, dederr.New(dederr.Cache, "ScanStore.GetResult: unmarshal", err)
	}
	return result, true, nil
}

// GetProgress implements api.ScanStore.
func (s *ScanStore) GetProgress(scanID uuid.UUID) (processed, total int, ok bool) {
	err := s.db.QueryRow(`SELECT processed, total FROM scans WHERE id = $1`, scanID).Scan(&processed, &total)
	if err != nil {
		return 0, 0, false
	}
	return processed, total, true
}

// SaveResolution implements api.ScanStore: it records the caller's keep/
// move/delete decision for one cluster against a scan, keyed by cluster ID,
// merging into the scan's resolutions JSONB map.
func (s *ScanStore) SaveResolution(scanID uuid.UUID, clusterID, action string) error {
	_, err := s.db.Exec(
		`UPDATE scans SET resolutions = resolutions || jsonb_build_object($2::text, $3::text), updated_at = now()
		 WHERE id = $1`,
		scanID, clusterID, action,
	)
	if err != nil {
		return dederr.New(dederr.Cache, "ScanStore.SaveResolution", err)
	}
	return nil
}
