// Package worker provides background processing for metadata prefetching.
package worker

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/ewilliams-labs/melodimatch/internal/core/ports"
	"github.com/ewilliams-labs/melodimatch/internal/metrics"
)

// DefaultJobTimeout bounds a single prefetch.
const DefaultJobTimeout = 15 * time.Second

// Job is a batch of track ids whose metadata should be warmed.
type Job struct {
	IDs []string
}

// Pool manages background workers for async jobs.
type Pool struct {
	fetcher ports.MetadataFetcher
	metrics *metrics.Metrics
	timeout time.Duration
	jobs    chan Job
	wg      sync.WaitGroup
}

// compile-time interface assertion
var _ ports.Prefetcher = (*Pool)(nil)

// NewPool creates a worker pool with the given queue size.
func NewPool(fetcher ports.MetadataFetcher, m *metrics.Metrics, queueSize int) *Pool {
	if queueSize < 1 {
		queueSize = 1
	}
	return &Pool{
		fetcher: fetcher,
		metrics: m,
		timeout: DefaultJobTimeout,
		jobs:    make(chan Job, queueSize),
	}
}

// Start launches the worker goroutines.
func (p *Pool) Start(workers int) {
	if workers < 1 {
		workers = 1
	}
	for i := 0; i < workers; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for job := range p.jobs {
				p.processJob(job)
			}
		}()
	}
}

// Stop waits for workers to finish after closing the queue.
func (p *Pool) Stop() {
	close(p.jobs)
	p.wg.Wait()
}

// Submit queues a batch without blocking.
func (p *Pool) Submit(ids []string) {
	job := Job{IDs: append([]string(nil), ids...)}
	select {
	case p.jobs <- job:
	default:
		p.metrics.PrefetchDropped()
		log.Printf("WARN worker: dropping prefetch of %d tracks", len(ids))
	}
}

func (p *Pool) processJob(job Job) {
	if len(job.IDs) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
	defer cancel()

	records := p.fetcher.Fetch(ctx, job.IDs)
	absent := 0
	for _, r := range records {
		if r == nil {
			absent++
		}
	}
	if absent > 0 {
		log.Printf("WARN worker: prefetch left %d of %d tracks unresolved", absent, len(job.IDs))
		return
	}
	log.Printf("DEBUG worker: prefetched %d tracks", len(job.IDs))
}
