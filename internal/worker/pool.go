package worker

import (
	"sync"

	"github.com/amankumarsingh77/cloud-transcript-service/pkg/logger"
)

// Pool runs background acquisition jobs on a fixed set of goroutines.
type Pool struct {
	jobs   chan func()
	wg     sync.WaitGroup
	logger logger.Logger
	once   sync.Once

	mu     sync.RWMutex
	closed bool
}

func NewPool(size int, logger logger.Logger) *Pool {
	if size <= 0 {
		size = 1
	}
	p := &Pool{
		jobs:   make(chan func(), size*4),
		logger: logger,
	}
	for i := 0; i < size; i++ {
		p.wg.Add(1)
		go p.run(i)
	}
	return p
}

func (p *Pool) run(id int) {
	defer p.wg.Done()
	for job := range p.jobs {
		func() {
			defer func() {
				if r := recover(); r != nil {
					p.logger.Errorf("worker %d: recovered from panic: %v", id, r)
				}
			}()
			job()
		}()
	}
}

// Submit blocks when all workers are busy and the backlog is full. A job
// submitted after Stop is dropped; requests racing shutdown must not crash
// the process.
func (p *Pool) Submit(job func()) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		p.logger.Warnf("worker pool is stopped, dropping job")
		return
	}
	p.jobs <- job
}

// Stop closes the queue and waits for in-flight jobs to finish.
func (p *Pool) Stop() {
	p.once.Do(func() {
		p.mu.Lock()
		p.closed = true
		close(p.jobs)
		p.mu.Unlock()
	})
	p.wg.Wait()
}
