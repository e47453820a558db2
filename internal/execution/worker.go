package execution

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"pfpp/internal/config"
	"pfpp/internal/domain"
	"pfpp/internal/ui"
)

// errStopped ends the pool early after a failure in fail-fast mode.
var errStopped = errors.New("stopped after first failure")

var _ Executor = (*WorkerPool)(nil)

// WorkerPool translates sources in parallel. Each file is still translated
// by a single goroutine from start to finish.
type WorkerPool struct {
	config    *config.Config
	runner    *Runner
	scheduler Scheduler
	progress  *ui.ProgressBar
	failFast  bool
}

// NewWorkerPool creates a new WorkerPool
func NewWorkerPool(cfg *config.Config, runner *Runner, scheduler Scheduler) *WorkerPool {
	return &WorkerPool{
		config:    cfg,
		runner:    runner,
		scheduler: scheduler,
		failFast:  cfg.Flags.FailFast,
	}
}

// SetProgress sets the progress bar for the worker pool
func (wp *WorkerPool) SetProgress(progress *ui.ProgressBar) {
	wp.progress = progress
}

// SetFailFast stops scheduling new files after the first failure.
func (wp *WorkerPool) SetFailFast(failFast bool) {
	wp.failFast = failFast
}

// Execute translates all sources and returns their results sorted by source path.
// In fail-fast mode the results stop at the first failure and err is nil; err
// is only set when ctx is cancelled.
func (wp *WorkerPool) Execute(ctx context.Context, sources []string) ([]domain.TranslationResult, time.Duration, error) {
	if len(sources) == 0 {
		return nil, 0, nil
	}

	startTime := time.Now()
	workerCount := wp.config.Processors
	if workerCount <= 0 {
		workerCount = 1
	}

	var (
		mu        sync.Mutex
		results   = make([]domain.TranslationResult, 0, len(sources))
		succeeded int
		failed    int
	)

	g, gctx := errgroup.WithContext(ctx)
	for i, batch := range wp.scheduler.Schedule(sources, workerCount) {
		workerID := i + 1
		batch := batch
		g.Go(func() error {
			for _, source := range batch {
				if err := gctx.Err(); err != nil {
					return err
				}
				result := wp.runner.Run(source, workerID)

				mu.Lock()
				results = append(results, result)
				if result.Success {
					succeeded++
				} else {
					failed++
				}
				if wp.progress != nil {
					wp.progress.Update(succeeded, failed)
				}
				mu.Unlock()

				if wp.failFast && !result.Success {
					return errStopped
				}
			}
			return nil
		})
	}

	err := g.Wait()
	if wp.progress != nil {
		wp.progress.Finish()
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].Source < results[j].Source
	})

	if errors.Is(err, errStopped) {
		err = nil
	}
	return results, time.Since(startTime), err
}
