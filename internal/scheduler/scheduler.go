// Package scheduler runs periodic rescans of configured library roots on
// a cron schedule, upgrading the reference engine's hand-rolled ticker
// loop to the cron library its own go.mod already declared but never
// wired up.
package scheduler

import (
	"log"

	"github.com/robfig/cron/v3"
)

// OnScanDue is invoked when a set of roots is due for a scheduled
// rescan.
type OnScanDue func(roots []string)

// Scheduler fires OnScanDue for each configured root set on its own cron
// expression.
type Scheduler struct {
	cron     *cron.Cron
	callback OnScanDue
}

// New creates a Scheduler. callback is invoked on a cron worker goroutine;
// callers enqueueing a job must do so non-blockingly (e.g. via
// jobs.Queue.EnqueueUnique).
func New(cb OnScanDue) *Scheduler {
	return &Scheduler{
		cron:     cron.New(),
		callback: cb,
	}
}

// Schedule registers roots to be rescanned on the given standard 5-field
// cron expression (e.g. "0 3 * * *" for daily at 03:00).
func (s *Scheduler) Schedule(spec string, roots []string) error {
	_, err := s.cron.AddFunc(spec, func() {
		log.Printf("scheduler: roots %v are due for a scheduled rescan", roots)
		s.callback(roots)
	})
	return err
}

// Start begins running scheduled entries in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
	log.Println("scheduler: cron scheduler started")
}

// Stop halts the scheduler, waiting for any running job to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	log.Println("scheduler: cron scheduler stopped")
}
