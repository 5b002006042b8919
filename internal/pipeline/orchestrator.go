package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/dgallion1/paperreview/internal/config"
	"github.com/dgallion1/paperreview/internal/parser"
	"github.com/dgallion1/paperreview/internal/report"
	"github.com/dgallion1/paperreview/internal/review"
	"github.com/dgallion1/paperreview/internal/sectioner"
)

// Orchestrator manages the review pipeline.
type Orchestrator struct {
	jobs  *JobStore
	queue chan *Job
	llm   review.Provider
	store ResultStore
	log   *slog.Logger
	cfg   config.Config
	wcfg  WorkerConfig

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// WorkerConfigFrom derives worker settings from the service config.
func WorkerConfigFrom(cfg config.Config, log *slog.Logger) WorkerConfig {
	return WorkerConfig{
		Conference:          cfg.Conference,
		FirstPass:           cfg.FirstPassEnabled,
		MaxConcurrentReview: cfg.MaxConcurrentReview,
		MaxSectionTokens:    cfg.MaxSectionTokens,
		Parser:              parser.Options{PDFFallback: cfg.PDFFallbackPdftotext, Logger: log},
		Sectioner:           sectioner.DefaultConfig(),
		Report:              report.Options{OmitSkipped: cfg.OmitSkippedSections()},
	}
}

// NewOrchestrator creates the pipeline. store may be nil.
func NewOrchestrator(cfg config.Config, llm review.Provider, store ResultStore, log *slog.Logger) *Orchestrator {
	return &Orchestrator{
		jobs:  NewJobStore(cfg.JobTTL),
		queue: make(chan *Job, cfg.MaxQueueSize),
		llm:   llm,
		store: store,
		log:   log,
		cfg:   cfg,
		wcfg:  WorkerConfigFrom(cfg, log),
	}
}

// Start launches worker goroutines.
func (o *Orchestrator) Start(ctx context.Context) {
	workerCtx, cancel := context.WithCancel(ctx)
	o.cancel = cancel

	for range o.cfg.WorkerCount {
		o.wg.Add(1)
		go func() {
			defer o.wg.Done()
			w := NewWorker(o.llm, o.store, o.log, o.wcfg)
			for {
				select {
				case <-workerCtx.Done():
					return
				case job, ok := <-o.queue:
					if !ok {
						return
					}
					w.Process(workerCtx, job)
				}
			}
		}()
	}

	// Start job store cleanup.
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
				o.jobs.Cleanup()
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

// Submit queues a new job for processing.
func (o *Orchestrator) Submit(job *Job) error {
	o.jobs.Put(job)
	select {
	case o.queue <- job:
		return nil
	default:
		job.AddError("queue_full")
		job.SetStatus(StatusFailed, "queue_full")
		return fmt.Errorf("job queue is full (%d)", o.cfg.MaxQueueSize)
	}
}

// SubmitBatch groups jobs under a new batch and queues each of them. Jobs
// that do not fit in the queue are marked failed; the batch is still
// returned with every job in it, along with the first queueing error.
func (o *Orchestrator) SubmitBatch(jobs []*Job) (*Batch, error) {
	b := &Batch{ID: generateULID(), CreatedAt: time.Now()}
	for _, j := range jobs {
		j.BatchID = b.ID
		b.JobIDs = append(b.JobIDs, j.ID)
	}
	o.jobs.PutBatch(b)

	var firstErr error
	for _, j := range jobs {
		if err := o.Submit(j); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return b, firstErr
}

// GetJob returns a job by ID.
func (o *Orchestrator) GetJob(id string) *Job {
	return o.jobs.Get(id)
}

// GetBatch returns a batch and those of its jobs still held in memory.
func (o *Orchestrator) GetBatch(id string) (*Batch, []*Job) {
	b := o.jobs.GetBatch(id)
	if b == nil {
		return nil, nil
	}
	jobs := make([]*Job, 0, len(b.JobIDs))
	for _, jid := range b.JobIDs {
		if j := o.jobs.Get(jid); j != nil {
			jobs = append(jobs, j)
		}
	}
	return b, jobs
}

// QueueDepth returns current queue depth.
func (o *Orchestrator) QueueDepth() int {
	return len(o.queue)
}

// Store returns the configured result store, or nil.
func (o *Orchestrator) Store() ResultStore {
	return o.store
}

// WorkerConfig returns the settings workers run with.
func (o *Orchestrator) WorkerConfig() WorkerConfig {
	return o.wcfg
}
