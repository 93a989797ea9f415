package worker

import (
	"context"
	"log"
	"sync"
)

// Job is one unit of blocking work (a capture or a submission). It should
// post its outcome back to its owner itself.
type Job func(ctx context.Context)

// Pool is a fixed-size worker pool with a 1-slot input queue (strict back-pressure).
type Pool struct {
	jobs chan job
	wg   sync.WaitGroup
}

type job struct {
	ctx  context.Context
	name string
	run  Job
}

// New creates a worker pool. Size defaults to 1 when size<=0. Queue is 1 slot.
func New(size int) *Pool {
	if size <= 0 {
		size = 1
	}
	p := &Pool{jobs: make(chan job, 1)}
	p.start(size)
	return p
}

func (p *Pool) start(n int) {
	for i := 0; i < n; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for j := range p.jobs {
				p.runJob(j)
			}
		}()
	}
}

func (p *Pool) runJob(j job) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Worker: PANIC in job %s: %v", j.name, r)
		}
	}()
	log.Printf("Worker: starting %s", j.name)
	j.run(j.ctx)
	log.Printf("Worker: finished %s", j.name)
}

// Submit enqueues a job if the single-slot queue is free. Returns false if dropped.
func (p *Pool) Submit(ctx context.Context, name string, run Job) bool {
	select {
	case p.jobs <- job{ctx: ctx, name: name, run: run}:
		return true
	default:
		return false
	}
}

// Close stops the pool after draining current work.
func (p *Pool) Close() {
	close(p.jobs)
	p.wg.Wait()
}
