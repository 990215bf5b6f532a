package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	"github.com/hibiken/asynq"
)

const (
	// TaskDedupScan runs a full deduplication pass over a set of library
	// roots and persists a DeduplicationResult.
	TaskDedupScan = "dedup:scan"
	// TaskIncrementalScan re-scans the watched root in which a change was
	// seen, enqueued by the filesystem watcher (§C.2).
	TaskIncrementalScan = "dedup:incremental_scan"
)

// Queue priorities. On-demand scans (the HTTP API) run at
// QueueCritical so they never wait behind background work; scheduled cron
// and filesystem-watch rescans run at QueueLow so a backlog of them never
// starves a user waiting on a result.
const (
	QueueCritical = "critical"
	QueueDefault  = "default"
	QueueLow      = "low"
)

// Queue wraps an asynq client/server pair around the three scan priority
// queues, plus the deterministic-ID dedup trick EnqueueUnique needs to
// make re-submitting the same root set a no-op.
type Queue struct {
	client     *asynq.Client
	server     *asynq.Server
	mux        *asynq.ServeMux
	inspector  *asynq.Inspector
	queueNames []string
}

func NewQueue(redisAddr string) *Queue {
	redisOpt := asynq.RedisClientOpt{Addr: redisAddr}
	priorities := map[string]int{
		QueueCritical: 6,
		QueueDefault:  3,
		QueueLow:      1,
	}
	server := asynq.NewServer(redisOpt, asynq.Config{Concurrency: 2, Queues: priorities})

	names := make([]string, 0, len(priorities))
	for name := range priorities {
		names = append(names, name)
	}

	return &Queue{
		client:     asynq.NewClient(redisOpt),
		server:     server,
		mux:        asynq.NewServeMux(),
		inspector:  asynq.NewInspector(redisOpt),
		queueNames: names,
	}
}

// EnqueueOnDemandScan enqueues a scan triggered directly by a caller (the
// HTTP API's POST /api/v1/scans), deduplicated on uniqueKey so resubmitting
// the same root set while a scan is in flight is a no-op.
func (q *Queue) EnqueueOnDemandScan(payload ScanPayload, uniqueKey string) (string, error) {
	return q.EnqueueUnique(TaskDedupScan, payload, uniqueKey, asynq.Queue(QueueCritical), asynq.MaxRetry(1))
}

// EnqueueBackgroundScan enqueues a scan triggered by the cron scheduler or
// the filesystem watcher rather than a caller waiting on the result,
// running it at low priority under the given task type (TaskDedupScan for
// scheduled rescans, TaskIncrementalScan for watch-triggered ones).
func (q *Queue) EnqueueBackgroundScan(taskType string, payload ScanPayload, uniqueKey string) (string, error) {
	return q.EnqueueUnique(taskType, payload, uniqueKey, asynq.Queue(QueueLow))
}

// isTaskConflict checks whether the error indicates a task ID conflict,
// using errors.Is for unwrapped sentinel values and a string fallback.
func isTaskConflict(err error) bool {
	if errors.Is(err, asynq.ErrDuplicateTask) || errors.Is(err, asynq.ErrTaskIDConflict) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "task ID conflicts") || strings.Contains(msg, "duplicate task")
}

// EnqueueUnique enqueues a task with a deterministic TaskID to prevent
// duplicate scans of the same root set. If a task with the same ID is
// already pending or active, the enqueue is silently skipped. If a
// completed/archived task with the same ID is lingering in Redis, it is
// deleted first so the new task can be enqueued.
func (q *Queue) EnqueueUnique(taskType string, payload interface{}, uniqueID string, opts ...asynq.Option) (string, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("marshal payload: %w", err)
	}
	opts = append(opts, asynq.TaskID(uniqueID))
	task := asynq.NewTask(taskType, data, opts...)
	info, err := q.client.Enqueue(task)
	if err == nil {
		return info.ID, nil
	}

	if !isTaskConflict(err) {
		return "", fmt.Errorf("enqueue: %w", err)
	}

	cleared := false
	for _, queueName := range q.queueNames {
		if delErr := q.inspector.DeleteTask(queueName, uniqueID); delErr == nil {
			log.Printf("jobs: cleared completed/archived scan %s from queue %s", uniqueID, queueName)
			cleared = true
			break
		}
	}

	if cleared {
		info, err = q.client.Enqueue(task)
		if err == nil {
			return info.ID, nil
		}
	}

	if isTaskConflict(err) {
		log.Printf("jobs: scan %s (%s) is already active, skipping", taskType, uniqueID)
		return uniqueID, nil
	}
	return "", fmt.Errorf("enqueue: %w", err)
}

func (q *Queue) RegisterHandler(taskType string, handler asynq.Handler) {
	q.mux.Handle(taskType, handler)
}

func (q *Queue) Start(ctx context.Context) error {
	log.Println("jobs: queue worker starting")
	return q.server.Start(q.mux)
}

func (q *Queue) Stop() {
	q.server.Shutdown()
	q.client.Close()
	q.inspector.Close()
}
