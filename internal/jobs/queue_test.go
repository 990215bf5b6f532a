package jobs

import (
	"errors"
	"testing"

	"github.com/hibiken/asynq"
)

func TestIsTaskConflict(t *testing.T) {
	if !isTaskConflict(asynq.ErrDuplicateTask) {
		t.Error("isTaskConflict(ErrDuplicateTask) = false, want true")
	}
	if !isTaskConflict(asynq.ErrTaskIDConflict) {
		t.Error("isTaskConflict(ErrTaskIDConflict) = false, want true")
	}
	if !isTaskConflict(errors.New("task ID conflicts with an existing one")) {
		t.Error("isTaskConflict(string fallback) = false, want true")
	}
	if isTaskConflict(errors.New("connection refused")) {
		t.Error("isTaskConflict(unrelated error) = true, want false")
	}
}

func TestNewQueueRegistersAllThreePriorities(t *testing.T) {
	q := NewQueue("127.0.0.1:6379")
	if len(q.queueNames) != 3 {
		t.Fatalf("queueNames = %v, want 3 entries", q.queueNames)
	}
	seen := make(map[string]bool, len(q.queueNames))
	for _, n := range q.queueNames {
		seen[n] = true
	}
	for _, want := range []string{QueueCritical, QueueDefault, QueueLow} {
		if !seen[want] {
			t.Errorf("queueNames missing %q: %v", want, q.queueNames)
		}
	}
}
