package worker

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"
)

// Task is one unit of work run on a pool worker.
type Task func(ctx context.Context) error

// ResultCallback is invoked on task completion (from a worker goroutine).
// The event loop should pass a closure that posts back into the event loop safely.
type ResultCallback func(err error)

// Pool is a fixed-size worker pool with a 1-slot input queue (strict back-pressure).
type Pool struct {
	jobs chan job
	wg   sync.WaitGroup
}

type job struct {
	ctx  context.Context
	name string
	task Task
	cb   ResultCallback
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
				log.Printf("Worker: starting %s", j.name)
				err := run(j)
				log.Printf("Worker: %s finished, err=%v", j.name, err)
				if j.cb != nil {
					j.cb(err)
				}
			}
		}()
	}
}

// run converts a panicking task into an error so one bad job cannot stop the pool.
func run(j job) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s panicked: %v", j.name, r)
		}
	}()
	if err := j.ctx.Err(); err != nil {
		return err
	}
	return j.task(j.ctx)
}

// Submit enqueues a job if the single-slot queue is free. Returns false if dropped.
func (p *Pool) Submit(ctx context.Context, name string, task Task, cb ResultCallback) bool {
	select {
	case p.jobs <- job{ctx: ctx, name: name, task: task, cb: cb}:
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

// CloseTimeout stops the pool and waits at most d for running work. It
// reports whether every worker finished; stragglers are abandoned.
func (p *Pool) CloseTimeout(d time.Duration) bool {
	close(p.jobs)
	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()
	if d <= 0 {
		select {
		case <-done:
			return true
		default:
			return false
		}
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-done:
		return true
	case <-t.C:
		return false
	}
}
