package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/semaphore"
)

// Default sizing of the process-wide training gate.
const (
	DefaultMaxConcurrentTrainings = 2
	DefaultQueueCapacity          = 20
)

// TrainFunc is one unit of training work submitted to the runner.
type TrainFunc func() (*TrainingOutput, error)

// jobResult is the tagged outcome delivered through a job's private channel:
// either an output or the original error, never a generic "job failed".
type jobResult struct {
	output *TrainingOutput
	err    error
}

type job struct {
	run    TrainFunc
	result chan jobResult
}

// JobRunner bounds training concurrency across all requests. A counting
// semaphore of capacity K gates admission, a bounded queue holds pending
// jobs while the semaphore is saturated, and a single background worker
// executes jobs serially, releasing a slot as each job finishes. This is
// the process's only backpressure mechanism: no code path may start a
// training outside of Submit.
//
// Known limitation: a caller that stops waiting (context timeout or cancel)
// does not stop the underlying training. The job keeps its slot until it
// finishes and its result is discarded.
type JobRunner struct {
	sem   *semaphore.Weighted
	queue chan job
}

// NewJobRunner constructs the runner and starts its worker goroutine.
// One runner is constructed at startup and shared by reference; the
// semaphore and queue are deliberately process-wide, not per-user.
func NewJobRunner(maxConcurrent, queueCapacity int) *JobRunner {
	if maxConcurrent <= 0 {
		maxConcurrent = DefaultMaxConcurrentTrainings
	}
	if queueCapacity <= 0 {
		queueCapacity = DefaultQueueCapacity
	}
	r := &JobRunner{
		sem:   semaphore.NewWeighted(int64(maxConcurrent)),
		queue: make(chan job, queueCapacity),
	}
	go r.work()
	return r
}

// Submit enqueues a training job and blocks until its result arrives or ctx
// is done. It fails fast with ErrServerBusy when no slot is free and with
// ErrQueueFull when the backlog is also saturated; neither leaves a job
// behind. A ctx expiry abandons the wait but not the job: the slot stays
// consumed until the trainer finishes.
func (r *JobRunner) Submit(ctx context.Context, run TrainFunc) (*TrainingOutput, error) {
	if !r.sem.TryAcquire(1) {
		return nil, ErrServerBusy
	}

	j := job{run: run, result: make(chan jobResult, 1)}
	select {
	case r.queue <- j:
	default:
		r.sem.Release(1)
		return nil, ErrQueueFull
	}
	slog.Info("training job queued", "backlog", len(r.queue))

	select {
	case res := <-j.result:
		return res.output, res.err
	case <-ctx.Done():
		slog.Warn("training caller gave up waiting; job continues to completion", "error", ctx.Err())
		return nil, ctx.Err()
	}
}

// work is the single background worker. It executes jobs one at a time and
// releases the job's semaphore slot whether the trainer succeeded, failed
// or panicked.
func (r *JobRunner) work() {
	for j := range r.queue {
		res := r.execute(j.run)
		// The result channel is buffered, so delivery never blocks even
		// when the caller has stopped waiting.
		j.result <- res
		r.sem.Release(1)
	}
}

func (r *JobRunner) execute(run TrainFunc) (res jobResult) {
	defer func() {
		if rec := recover(); rec != nil {
			res = jobResult{err: fmt.Errorf("training panicked: %v", rec)}
		}
	}()
	out, err := run()
	return jobResult{output: out, err: err}
}
