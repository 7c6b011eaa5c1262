// Package parallel provides the worker pool that executes admitted tiles.
//
// The pool distributes tile jobs across a fixed set of workers, each with
// its own queue. Workers steal from other queues when their own runs dry,
// which balances load when some tiles are slower than others (compression
// cost is data-dependent, and super-sample calls wait on a network
// service). The pool bounds simultaneous goroutines; it does not bound
// admission — budget and in-flight limits are the scheduler's job.
//
// Thread safety: Pool is safe for concurrent use.
package parallel

import (
	"runtime"
	"sync"
	"sync/atomic"
)

// Job is one unit of tile work.
type Job func()

// Pool is a fixed-size pool of tile workers with work stealing.
type Pool struct {
	workers int

	// queues holds one buffered job queue per worker. A worker pulls
	// from its own queue first and steals from the others when idle.
	queues []chan Job

	done chan struct{}
	wg   sync.WaitGroup

	// running gates Submit; flipped once by Close.
	running atomic.Bool
}

// NewPool creates a pool with the given worker count and starts it.
// A non-positive count means GOMAXPROCS.
func NewPool(workers int) *Pool {
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}

	// A few slots of slack per worker keeps submission from blocking on
	// momentary imbalance.
	depth := workers * 4
	if depth < 8 {
		depth = 8
	}

	p := &Pool{
		workers: workers,
		queues:  make([]chan Job, workers),
		done:    make(chan struct{}),
	}
	for i := 0; i < workers; i++ {
		p.queues[i] = make(chan Job, depth)
	}
	p.running.Store(true)

	p.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go p.run(i)
	}
	return p
}

// run is the worker loop: own queue first, then steal, then block.
func (p *Pool) run(id int) {
	defer p.wg.Done()
	own := p.queues[id]

	for {
		select {
		case <-p.done:
			p.drain(own)
			return
		case job := <-own:
			if job != nil {
				job()
			}
		default:
			if stolen := p.steal(id); stolen != nil {
				stolen()
				continue
			}
			select {
			case <-p.done:
				p.drain(own)
				return
			case job := <-own:
				if job != nil {
					job()
				}
			}
		}
	}
}

// drain runs whatever is left in a queue during shutdown so that no
// admitted tile is silently dropped.
func (p *Pool) drain(queue chan Job) {
	for {
		select {
		case job := <-queue:
			if job != nil {
				job()
			}
		default:
			return
		}
	}
}

// steal takes one job from another worker's queue, or returns nil.
func (p *Pool) steal(self int) Job {
	for i := 0; i < p.workers; i++ {
		if i == self {
			continue
		}
		select {
		case job := <-p.queues[i]:
			return job
		default:
		}
	}
	return nil
}

// Submit enqueues a job on the shortest queue. It blocks when every queue
// is full, which is the pool's backpressure on the scheduler. Submitting
// to a closed pool is a no-op.
func (p *Pool) Submit(job Job) {
	if job == nil || !p.running.Load() {
		return
	}

	shortest := 0
	for i := 1; i < p.workers; i++ {
		if len(p.queues[i]) < len(p.queues[shortest]) {
			shortest = i
		}
	}

	select {
	case p.queues[shortest] <- job:
	case <-p.done:
	}
}

// Close stops accepting jobs, lets queued jobs finish, and waits for all
// workers to exit. Safe to call more than once.
func (p *Pool) Close() {
	if !p.running.CompareAndSwap(true, false) {
		return
	}
	close(p.done)
	p.wg.Wait()
}

// Workers returns the pool's worker count.
func (p *Pool) Workers() int {
	return p.workers
}

// Running reports whether the pool still accepts jobs.
func (p *Pool) Running() bool {
	return p.running.Load()
}
