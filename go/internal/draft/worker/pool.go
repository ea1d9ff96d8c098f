package worker

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// Pool runs tasks on a fixed set of workers. Submit never blocks the caller.
type Pool struct {
	instanceID string
	numWorkers int
	workCh     chan func()

	mu      sync.Mutex
	running bool
	stopped bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewPool creates a worker pool. Call Start before submitting work.
func NewPool(numWorkers, queueSize int) *Pool {
	if numWorkers <= 0 {
		numWorkers = 1
	}
	if queueSize < numWorkers {
		queueSize = numWorkers * 2
	}
	return &Pool{
		instanceID: uuid.New().String()[:8],
		numWorkers: numWorkers,
		workCh:     make(chan func(), queueSize),
	}
}

// Start launches the workers. They exit when ctx is cancelled or Stop is called.
func (p *Pool) Start(ctx context.Context) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.running || p.stopped {
		return
	}
	p.running = true

	workerCtx, cancel := context.WithCancel(ctx)
	p.cancel = cancel

	for i := 0; i < p.numWorkers; i++ {
		p.wg.Add(1)
		go p.worker(workerCtx, i)
	}

	log.Info().Str("instance", p.instanceID).Int("workers", p.numWorkers).Msg("worker pool started")
}

// Submit queues a task. When the queue is full, or the pool is not running,
// the task runs on its own goroutine instead.
func (p *Pool) Submit(task func()) {
	p.mu.Lock()
	if p.running {
		select {
		case p.workCh <- task:
			p.mu.Unlock()
			return
		default:
			log.Warn().Str("instance", p.instanceID).Msg("work channel full, running task on dedicated goroutine")
		}
	}
	p.mu.Unlock()
	go p.run(task, -1)
}

// Stop cancels the workers and waits for in-flight tasks to finish.
func (p *Pool) Stop() {
	p.mu.Lock()
	if !p.running {
		p.stopped = true
		p.mu.Unlock()
		return
	}
	p.running = false
	p.stopped = true
	cancel := p.cancel
	p.mu.Unlock()

	log.Info().Str("instance", p.instanceID).Msg("shutting down workers")
	cancel()
	p.wg.Wait()
	log.Info().Str("instance", p.instanceID).Msg("all workers shut down")
}

func (p *Pool) worker(ctx context.Context, workerID int) {
	defer p.wg.Done()

	log.Debug().
		Str("instance", p.instanceID).
		Int("worker_id", workerID).
		Msg("worker started")

	for {
		select {
		case <-ctx.Done():
			// drain what was already accepted so submitted work is not lost
			for {
				select {
				case task := <-p.workCh:
					p.run(task, workerID)
				default:
					log.Debug().
						Str("instance", p.instanceID).
						Int("worker_id", workerID).
						Msg("worker shutting down")
					return
				}
			}
		case task := <-p.workCh:
			p.run(task, workerID)
		}
	}
}

func (p *Pool) run(task func(), workerID int) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().
				Interface("panic", r).
				Str("instance", p.instanceID).
				Int("worker_id", workerID).
				Msg("worker task panicked")
		}
	}()
	task()
}
