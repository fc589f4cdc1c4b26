// Package worker runs sample jobs on a fixed set of goroutines.
package worker

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strconv"
	"time"

	"github.com/llpbakery/effmap/internal/adapters/mq/queue"
	"github.com/llpbakery/effmap/pkg/logger"
	"github.com/llpbakery/effmap/pkg/metrics"
)

// ErrPanic wraps a panic raised while processing a job.
var ErrPanic = errors.New("job panicked")

// Processor handles one job.
type Processor interface {
	Process(ctx context.Context, job queue.Job) error
}

// ProcessorFunc adapts a function to Processor.
type ProcessorFunc func(ctx context.Context, job queue.Job) error

// Process calls f.
func (f ProcessorFunc) Process(ctx context.Context, job queue.Job) error {
	return f(ctx, job)
}

// Queue defines how workers receive jobs.
type Queue interface {
	Dequeue(ctx context.Context) <-chan queue.Job
}

// Result is the terminal state of one job.
type Result struct {
	Job      queue.Job
	Worker   string
	Err      error
	Duration time.Duration
}

// OK reports whether the job succeeded.
func (r Result) OK() bool {
	return r.Err == nil
}

// InMemoryWorker pulls jobs off a shared channel until it is closed.
type InMemoryWorker struct {
	jobs      <-chan queue.Job
	processor Processor
	results   chan<- Result
	name      string
	done      chan struct{}
	logger    logger.Logger
}

// NewInMemoryWorker creates a new worker with configuration options. Workers
// of one pool share jobs, so a job is only taken by a worker that is free.
func NewInMemoryWorker(jobs <-chan queue.Job, p Processor, results chan<- Result, opts ...Option) *InMemoryWorker {
	w := &InMemoryWorker{
		jobs:      jobs,
		processor: p,
		results:   results,
		name:      "worker",
		done:      make(chan struct{}),
		logger:    logger.Get().Named("worker"),
	}

	for _, opt := range opts {
		opt(w)
	}

	if w.name != "worker" {
		w.logger = w.logger.Named(w.name)
	}

	return w
}

// Run processes jobs until the channel is drained or ctx is cancelled.
func (w *InMemoryWorker) Run(ctx context.Context) {
	defer close(w.done)

	for {
		select {
		case <-ctx.Done():
			return
		case job, ok := <-w.jobs:
			if !ok {
				return
			}
			res := w.processJob(ctx, job)
			select {
			case w.results <- res:
			case <-ctx.Done():
				return
			}
		}
	}
}

// Done is closed once Run returns.
func (w *InMemoryWorker) Done() <-chan struct{} {
	return w.done
}

// processJob runs the processor and turns a panic into a failed result.
func (w *InMemoryWorker) processJob(ctx context.Context, job queue.Job) (res Result) {
	start := time.Now()
	res = Result{Job: job, Worker: w.name}

	defer func() {
		if r := recover(); r != nil {
			metrics.RecordWorkerPanic()
			res.Err = fmt.Errorf("%w: %v", ErrPanic, r)
			w.logger.Error(ctx, "recovered from panic",
				logger.String("sample", job.Path),
				logger.Any("panic", r),
			)
		}
		res.Duration = time.Since(start)
		metrics.RecordWorkerProcessingLatency(float64(res.Duration.Milliseconds()))
	}()

	w.logger.Debug(ctx, "processing job",
		logger.String("job_id", job.ID.String()),
		logger.String("sample", job.Path),
	)
	res.Err = w.processor.Process(ctx, job)
	return res
}

// Pool manages workers reading one queue and writing one result channel.
type Pool struct {
	queue     Queue
	processor Processor
	size      int
	opts      []Option
	results   chan Result
	logger    logger.Logger
}

// NewPool creates a pool of workerCount workers. A count below one means
// one worker per CPU.
func NewPool(workerCount int, q Queue, p Processor, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = runtime.NumCPU()
	}

	return &Pool{
		queue:     q,
		processor: p,
		size:      workerCount,
		opts:      opts,
		results:   make(chan Result, workerCount),
		logger:    logger.Get().Named("worker-pool"),
	}
}

// Size returns the number of workers.
func (p *Pool) Size() int {
	return p.size
}

// Start dequeues once and starts every worker on that channel. The results
// channel is closed once every worker has returned.
func (p *Pool) Start(ctx context.Context) <-chan Result {
	metrics.UpdateWorkerActiveCount(p.size)
	p.logger.Debug(ctx, "starting workers", logger.Int("workers", p.size))

	jobs := p.queue.Dequeue(ctx)
	workers := make([]*InMemoryWorker, p.size)
	for i := range workers {
		wopts := append([]Option{WithName("worker-" + strconv.Itoa(i))}, p.opts...)
		workers[i] = NewInMemoryWorker(jobs, p.processor, p.results, wopts...)
		go workers[i].Run(ctx)
	}

	go func() {
		for _, w := range workers {
			<-w.Done()
		}
		metrics.UpdateWorkerActiveCount(0)
		close(p.results)
	}()

	return p.results
}

// Collect starts the pool and gathers every result until the queue is
// drained. Results are in completion order.
func (p *Pool) Collect(ctx context.Context) []Result {
	var out []Result
	for res := range p.Start(ctx) {
		out = append(out, res)
	}
	return out
}
