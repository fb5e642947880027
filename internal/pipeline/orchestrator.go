package pipeline

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// OrchestratorConfig sizes the run queue.
type OrchestratorConfig struct {
	Workers   int
	QueueSize int
	RunTTL    time.Duration
}

// Orchestrator builds submitted runs on a pool of workers. Every run shares
// the same comment index.
type Orchestrator struct {
	runs     *RunStore
	builds   *Latency
	queue    chan *Run
	comments Comments
	opts     Options
	log      *slog.Logger
	cfg      OrchestratorConfig

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewOrchestrator creates the pipeline. opts supplies the image settings for
// every run; the title comes from each run.
func NewOrchestrator(cfg OrchestratorConfig, comments Comments, opts Options, log *slog.Logger) *Orchestrator {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 16
	}
	if cfg.RunTTL <= 0 {
		cfg.RunTTL = time.Hour
	}
	opts.Log = log
	return &Orchestrator{
		runs:     NewRunStore(cfg.RunTTL),
		builds:   NewLatency(cfg.RunTTL),
		queue:    make(chan *Run, cfg.QueueSize),
		comments: comments,
		opts:     opts,
		log:      log,
		cfg:      cfg,
	}
}

// Start launches worker goroutines.
func (o *Orchestrator) Start(ctx context.Context) {
	workerCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel

	for range o.cfg.Workers {
		o.wg.Add(1)
		go func() {
			defer o.wg.Done()
			for {
				select {
				case <-workerCtx.Done():
					return
				case run, ok := <-o.queue:
					if !ok {
						return
					}
					o.process(workerCtx, run)
				}
			}
		}()
	}

	// Start run store cleanup.
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		ticker := time.NewTicker(5 * time.Minute)
		defer ticker.Stop()
		for {
			select {
			case <-workerCtx.Done():
				return
			case <-ticker.C:
				o.runs.Cleanup()
			}
		}
	}()
}

// Stop gracefully shuts down the pipeline.
func (o *Orchestrator) Stop() {
	if o.cancel != nil {
		o.cancel()
	}
	close(o.queue)
	o.wg.Wait()
}

// Submit queues a run for processing.
func (o *Orchestrator) Submit(run *Run) error {
	o.runs.Put(run)
	select {
	case o.queue <- run:
		return nil
	default:
		run.SetStatus(StatusFailed, "queue_full")
		return fmt.Errorf("run queue is full (%d)", o.cfg.QueueSize)
	}
}

// GetRun returns a run by ID.
func (o *Orchestrator) GetRun(id string) *Run {
	return o.runs.Get(id)
}

// BuildLatency summarizes how long recent runs took to build.
func (o *Orchestrator) BuildLatency() LatencySnapshot {
	return o.builds.Snapshot()
}

// QueueDepth returns current queue depth.
func (o *Orchestrator) QueueDepth() int {
	return len(o.queue)
}

func (o *Orchestrator) process(ctx context.Context, run *Run) {
	log := o.log.With("run_id", run.ID)

	if prev := o.runs.Completed(run.ContentHash, run.Title, run.ID); prev != nil {
		log.Info("duplicate run, reusing result", "duplicate_of", prev.ID)
		run.MarkDuplicate(prev)
		run.SetStatus(StatusCompleted, "dedup")
		return
	}

	run.SetStatus(StatusCollecting, "collecting")
	opts := o.opts
	opts.Title = run.Title
	opts.Log = log
	start := time.Now()
	tree, stats, err := BuildWith(ctx, bytes.NewReader(run.Events()), o.comments, opts)
	o.builds.Record(time.Since(start))
	if err != nil {
		log.Error("run failed", "error", err)
		run.AddError(err.Error())
		run.SetStatus(StatusFailed, "collecting")
		return
	}

	run.SetResult(tree, stats)
	if len(stats.Errors) > 0 {
		run.SetStatus(StatusPartial, "done")
		return
	}
	run.SetStatus(StatusCompleted, "done")
}
