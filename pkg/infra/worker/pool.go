// Package worker runs the detached side-effect tasks scheduled by the
// matching path.
package worker

import (
	"sync"

	"go.uber.org/zap"
)

// Pool is a fixed-size task pool. Submit never blocks: when the queue is
// full the task is dropped with a warning, because a stalled cache or bus
// must not stall matching.
type Pool struct {
	tasks    chan func()
	stopping chan struct{}
	wg       sync.WaitGroup
	log      *zap.SugaredLogger

	mu      sync.Mutex
	stopped bool
}

func NewPool(size, queueSize int, log *zap.SugaredLogger) *Pool {
	p := &Pool{
		tasks:    make(chan func(), queueSize),
		stopping: make(chan struct{}),
		log:      log,
	}
	for i := 0; i < size; i++ {
		p.wg.Add(1)
		go p.worker()
	}
	return p
}

// Submit queues a task for execution. Dropped when the pool is stopping or
// the queue is full. The stopped check and the send happen under one lock
// so Stop cannot slip in between them.
func (p *Pool) Submit(task func()) {
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		p.log.Warnw("task_rejected", "reason", "pool stopping")
		return
	}
	select {
	case p.tasks <- task:
		p.mu.Unlock()
	default:
		p.mu.Unlock()
		p.log.Warnw("task_dropped", "reason", "queue full", "capacity", cap(p.tasks))
	}
}

// Stop drains queued tasks and waits for the workers to finish. The task
// channel is never closed: workers exit on the stopping signal instead,
// so a Submit racing Stop drops its task rather than panicking.
func (p *Pool) Stop() {
	p.mu.Lock()
	if !p.stopped {
		p.stopped = true
		close(p.stopping)
	}
	p.mu.Unlock()
	p.wg.Wait()
}

func (p *Pool) worker() {
	defer p.wg.Done()
	for {
		select {
		case task := <-p.tasks:
			p.run(task)
		case <-p.stopping:
			for {
				select {
				case task := <-p.tasks:
					p.run(task)
				default:
					return
				}
			}
		}
	}
}

func (p *Pool) run(task func()) {
	defer func() {
		if r := recover(); r != nil {
			p.log.Errorw("task_panic", "panic", r)
		}
	}()
	task()
}
