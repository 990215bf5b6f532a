// Package api implements the optional HTTP service mode (§C.1): enqueueing
// scans, fetching results, resolving duplicate clusters and a websocket
// progress stream, in the reference engine's plain net/http.ServeMux style.
package api

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/sylphlab/mediadedup/internal/auth"
	"github.com/sylphlab/mediadedup/internal/config"
	"github.com/sylphlab/mediadedup/internal/httputil"
	"github.com/sylphlab/mediadedup/internal/jobs"
	"github.com/sylphlab/mediadedup/internal/models"
)

// ScanStore is the persistence boundary the API handlers need: enough to
// enqueue a scan, fetch its result, and record a resolution decision.
// A service-mode composition root wires this to the Postgres-backed
// implementation in internal/providers/cache or a dedicated scans table.
type ScanStore interface {
	jobs.ResultStore
	GetResult(scanID uuid.UUID) (models.DeduplicationResult, bool, error)
	GetProgress(scanID uuid.UUID) (processed, total int, ok bool)
	SaveResolution(scanID uuid.UUID, clusterID, action string) error
}

// Server is the HTTP service mode composition root.
type Server struct {
	config *config.Config
	auth   *auth.Auth
	queue  *jobs.Queue
	store  ScanStore
	wsHub  *WSHub
	router *http.ServeMux
}

// NewServer builds a Server wired to its dependencies and registers
// routes.
func NewServer(cfg *config.Config, authSvc *auth.Auth, queue *jobs.Queue, store ScanStore) *Server {
	s := &Server{
		config: cfg,
		auth:   authSvc,
		queue:  queue,
		store:  store,
		wsHub:  NewWSHub(),
		router: http.NewServeMux(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.router.HandleFunc("/api/v1/scans", s.requireAuth(s.handleScans))
	s.router.HandleFunc("/api/v1/scans/", s.requireAuth(s.handleScanByID))
	s.router.HandleFunc("/api/v1/ws", s.handleWebSocket)
	s.router.HandleFunc("/healthz", s.handleHealth)
}

// Start listens and serves on the configured port.
func (s *Server) Start() error {
	return http.ListenAndServe(":"+itoa(s.config.Port), s.router)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// BroadcastProgress pushes a scan's progress to every connected websocket
// client, for ScanHandler's Notify callback to call as a scan runs.
func (s *Server) BroadcastProgress(scanID uuid.UUID, processed, total int) {
	s.wsHub.Broadcast("scan:progress", map[string]interface{}{
		"scanId":    scanID.String(),
		"processed": processed,
		"total":     total,
	})
}

func (s *Server) handleScans(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.handleEnqueueScan(w, r)
	default:
		httputil.WriteError(w, http.StatusMethodNotAllowed, "method_not_allowed", "use POST")
	}
}

type enqueueScanRequest struct {
	Roots []string `json:"roots"`
}

func (s *Server) handleEnqueueScan(w http.ResponseWriter, r *http.Request) {
	var req enqueueScanRequest
	if err := httputil.ReadJSON(r, &req); err != nil || len(req.Roots) == 0 {
		httputil.WriteError(w, http.StatusBadRequest, "invalid_request", "roots is required")
		return
	}

	scanID := uuid.New()
	payload := jobs.ScanPayload{ScanID: scanID, Roots: req.Roots}
	uniqueID := "scan:" + uniqueKeyForRoots(req.Roots)
	if _, err := s.queue.EnqueueOnDemandScan(payload, uniqueID); err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "enqueue_failed", err.Error())
		return
	}

	httputil.WriteJSON(w, http.StatusAccepted, map[string]string{"scanId": scanID.String()})
}

func (s *Server) handleScanByID(w http.ResponseWriter, r *http.Request) {
	id, rest, err := parseScanPath(r.URL.Path)
	if err != nil {
		httputil.WriteError(w, http.StatusBadRequest, "invalid_scan_id", err.Error())
		return
	}

	switch {
	case rest == "" && r.Method == http.MethodGet:
		s.handleGetResult(w, r, id)
	case rest == "duplicates" && r.Method == http.MethodGet:
		s.handleGetDuplicates(w, r, id)
	case rest == "resolve" && r.Method == http.MethodPost:
		s.handleResolve(w, r, id)
	default:
		httputil.WriteError(w, http.StatusNotFound, "not_found", "unknown scan route")
	}
}

func (s *Server) handleGetResult(w http.ResponseWriter, r *http.Request, scanID uuid.UUID) {
	result, ok, err := s.store.GetResult(scanID)
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "lookup_failed", err.Error())
		return
	}
	if !ok {
		if processed, total, ok := s.store.GetProgress(scanID); ok {
			httputil.WriteJSON(w, http.StatusAccepted, map[string]interface{}{
				"status":    "running",
				"processed": processed,
				"total":     total,
			})
			return
		}
		httputil.WriteError(w, http.StatusNotFound, "not_found", "scan not found")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}

func (s *Server) handleGetDuplicates(w http.ResponseWriter, r *http.Request, scanID uuid.UUID) {
	result, ok, err := s.store.GetResult(scanID)
	if err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "lookup_failed", err.Error())
		return
	}
	if !ok {
		httputil.WriteError(w, http.StatusNotFound, "not_found", "scan not found or still running")
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result.DuplicateSets)
}

type resolveRequest struct {
	ClusterID string `json:"clusterId"`
	Action    string `json:"action"` // keep | move | delete
}

func (s *Server) handleResolve(w http.ResponseWriter, r *http.Request, scanID uuid.UUID) {
	var req resolveRequest
	if err := httputil.ReadJSON(r, &req); err != nil || req.ClusterID == "" {
		httputil.WriteError(w, http.StatusBadRequest, "invalid_request", "clusterId is required")
		return
	}
	switch req.Action {
	case "keep", "move", "delete":
	default:
		httputil.WriteError(w, http.StatusBadRequest, "invalid_action", "action must be keep, move or delete")
		return
	}
	// Persisting the decision is as far as this handler goes: nothing reads
	// the recorded decision back, and no code path deletes files. Files are
	// moved only by resolve.Apply (called by the CLI's applyResolution and
	// by jobs.ScanHandler), which follows the configured Move/DuplicatePath/
	// ErrorPath settings, not these per-cluster decisions.
	if err := s.store.SaveResolution(scanID, req.ClusterID, req.Action); err != nil {
		httputil.WriteError(w, http.StatusInternalServerError, "resolve_failed", err.Error())
		return
	}
	httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "accepted"})
}

func (s *Server) requireAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := bearerToken(r)
		if token == "" {
			httputil.WriteError(w, http.StatusUnauthorized, "unauthorized", "missing bearer token")
			return
		}
		if _, err := s.auth.ValidateToken(token); err != nil {
			httputil.WriteError(w, http.StatusUnauthorized, "unauthorized", "invalid token")
			return
		}
		next(w, r)
	}
}
