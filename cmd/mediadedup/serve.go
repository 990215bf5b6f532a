package main

import (
	"context"
	"database/sql"
	"log"
	"time"

	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/spf13/cobra"

	"github.com/sylphlab/mediadedup/internal/api"
	"github.com/sylphlab/mediadedup/internal/auth"
	"github.com/sylphlab/mediadedup/internal/config"
	"github.com/sylphlab/mediadedup/internal/jobs"
	"github.com/sylphlab/mediadedup/internal/models"
	"github.com/sylphlab/mediadedup/internal/pipeline"
	"github.com/sylphlab/mediadedup/internal/providers/cache"
	"github.com/sylphlab/mediadedup/internal/providers/discover"
	"github.com/sylphlab/mediadedup/internal/providers/filestats"
	"github.com/sylphlab/mediadedup/internal/providers/frames"
	"github.com/sylphlab/mediadedup/internal/providers/metadata"
	"github.com/sylphlab/mediadedup/internal/resolve"
	"github.com/sylphlab/mediadedup/internal/scheduler"
	"github.com/sylphlab/mediadedup/internal/watcher"
)

var cronSpec string
var watchEnabled bool

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API, enqueueing scans onto the job queue",
	RunE:  runServe,
}

var workerCmd = &cobra.Command{
	Use:   "worker",
	Short: "Run the background worker that executes enqueued scans",
	RunE:  runWorker,
}

func init() {
	serveCmd.Flags().StringVar(&cronSpec, "cron", "", "cron expression for a default scheduled rescan of --root")
	serveCmd.Flags().StringSliceVar(&scheduledRoots, "root", nil, "library root to rescan on --cron's schedule and/or --watch (repeatable)")
	serveCmd.Flags().BoolVar(&watchEnabled, "watch", false, "incrementally re-scan --root directories as files change")
}

var scheduledRoots []string

func buildComposition(cfg *config.Config) (*pipeline.Orchestrator, *jobs.Queue, *cache.ScanStore, *sql.DB, error) {
	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	if err := db.Ping(); err != nil {
		return nil, nil, nil, nil, err
	}
	cfg.MergeFromSettings(db)

	store, err := cache.Connect(cfg.DatabaseURL)
	if err != nil {
		return nil, nil, nil, nil, err
	}
	scanStore, err := cache.NewScanStore(db)
	if err != nil {
		return nil, nil, nil, nil, err
	}

	frameExtractor, err := frames.NewExtractor(cfg.Resolution, cfg.HashSize)
	if err != nil {
		return nil, nil, nil, nil, err
	}

	orchestrator := pipeline.NewOrchestrator(
		discover.NewWalker(),
		metadata.NewExtractor(),
		frameExtractor,
		filestats.NewHasher(),
		store,
		cfg.PipelineConfig(),
	)

	queue := jobs.NewQueue(cfg.RedisAddr)
	return orchestrator, queue, scanStore, db, nil
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	orchestrator, queue, scanStore, db, err := buildComposition(cfg)
	if err != nil {
		log.Printf("mediadedup: serve: %v", err)
		return exitCodeError(exitConfigError)
	}
	defer db.Close()

	authSvc := auth.New(cfg.JWTSecret, 24*time.Hour)
	server := api.NewServer(cfg, authSvc, queue, scanStore)

	// serve runs its own in-process worker, so a single binary can expose
	// the API and execute scans; the separate `worker` subcommand exists
	// for scaling workers out independently of the API.
	resolver := func(result models.DeduplicationResult) error {
		return resolve.Apply(result, cfg.Move, cfg.DuplicatePath, cfg.ErrorPath)
	}
	queue.RegisterHandler(jobs.TaskDedupScan, &jobs.ScanHandler{
		Orchestrator: orchestrator,
		Results:      scanStore,
		Notify:       server.BroadcastProgress,
		Resolve:      resolver,
	})
	queue.RegisterHandler(jobs.TaskIncrementalScan, &jobs.ScanHandler{
		Orchestrator: orchestrator,
		Results:      scanStore,
		Notify:       server.BroadcastProgress,
		Resolve:      resolver,
	})
	go func() {
		if err := queue.Start(context.Background()); err != nil {
			log.Printf("mediadedup: in-process worker error: %v", err)
		}
	}()
	defer queue.Stop()

	if cronSpec != "" && len(scheduledRoots) > 0 {
		sched := scheduler.New(func(roots []string) {
			payload := jobs.ScanPayload{ScanID: uuid.New(), Roots: roots}
			if _, err := queue.EnqueueBackgroundScan(jobs.TaskDedupScan, payload, "scheduled:"+cronSpec); err != nil {
				log.Printf("mediadedup: scheduled enqueue failed: %v", err)
			}
		})
		if err := sched.Schedule(cronSpec, scheduledRoots); err != nil {
			log.Printf("mediadedup: invalid --cron expression: %v", err)
			return exitCodeError(exitConfigError)
		}
		sched.Start()
		defer sched.Stop()
	}

	if watchEnabled && len(scheduledRoots) > 0 {
		fsWatcher, err := watcher.New(scheduledRoots, func(root string) {
			payload := jobs.ScanPayload{ScanID: uuid.New(), Roots: []string{root}}
			if _, err := queue.EnqueueBackgroundScan(jobs.TaskIncrementalScan, payload, "watch:"+root); err != nil {
				log.Printf("mediadedup: incremental scan enqueue failed: %v", err)
			}
		})
		if err != nil {
			log.Printf("mediadedup: filesystem watcher failed to start: %v", err)
		} else {
			fsWatcher.Start()
			defer fsWatcher.Stop()
		}
	}

	log.Printf("mediadedup: serving on :%d", cfg.Port)
	if err := server.Start(); err != nil {
		log.Printf("mediadedup: server error: %v", err)
		return exitCodeError(exitUnexpected)
	}
	return nil
}

func runWorker(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	orchestrator, queue, scanStore, db, err := buildComposition(cfg)
	if err != nil {
		log.Printf("mediadedup: worker: %v", err)
		return exitCodeError(exitConfigError)
	}
	defer db.Close()

	resolver := func(result models.DeduplicationResult) error {
		return resolve.Apply(result, cfg.Move, cfg.DuplicatePath, cfg.ErrorPath)
	}
	queue.RegisterHandler(jobs.TaskDedupScan, &jobs.ScanHandler{
		Orchestrator: orchestrator,
		Results:      scanStore,
		Resolve:      resolver,
	})
	queue.RegisterHandler(jobs.TaskIncrementalScan, &jobs.ScanHandler{
		Orchestrator: orchestrator,
		Results:      scanStore,
		Resolve:      resolver,
	})

	log.Println("mediadedup: worker starting")
	if err := queue.Start(context.Background()); err != nil {
		log.Printf("mediadedup: worker error: %v", err)
		return exitCodeError(exitUnexpected)
	}
	return nil
}
