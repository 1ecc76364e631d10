package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

// MaxConcurrency is the default number of tasks allowed in flight.
const MaxConcurrency = 2

// Task is a unit of asynchronous work.
type Task func(ctx context.Context) error

// Stats is a snapshot of the scheduler queue.
type Stats struct {
	Queued   int `json:"queued"`
	InFlight int `json:"in_flight"`
}

// Config holds scheduler settings.
type Config struct {
	MaxConcurrency int
	// OnError receives every task error or recovered panic.
	OnError func(error)
	// OnChange receives queue stats after every enqueue, start and completion.
	OnChange func(Stats)
}

// Scheduler is a FIFO queue drained by at most MaxConcurrency goroutines.
// Start order follows enqueue order; completion order is not guaranteed.
type Scheduler struct {
	cfg Config
	ctx context.Context
	log *slog.Logger

	mu       sync.Mutex
	queue    []Task
	inFlight int
	idle     *sync.Cond
}

// New creates a scheduler whose tasks run with ctx.
func New(ctx context.Context, cfg Config) *Scheduler {
	if cfg.MaxConcurrency <= 0 {
		cfg.MaxConcurrency = MaxConcurrency
	}
	s := &Scheduler{
		cfg: cfg,
		ctx: ctx,
		log: slog.Default().With("component", "scheduler"),
	}
	s.idle = sync.NewCond(&s.mu)
	return s
}

// Enqueue appends task to the queue and triggers draining.
func (s *Scheduler) Enqueue(task Task) {
	if task == nil {
		return
	}
	s.mu.Lock()
	s.queue = append(s.queue, task)
	s.mu.Unlock()
	s.notify()
	s.drain()
}

// drain starts queued tasks until the concurrency limit is reached.
// Calling it while at capacity is a no-op.
func (s *Scheduler) drain() {
	for {
		s.mu.Lock()
		if s.inFlight >= s.cfg.MaxConcurrency || len(s.queue) == 0 {
			s.mu.Unlock()
			return
		}
		task := s.queue[0]
		s.queue[0] = nil
		s.queue = s.queue[1:]
		s.inFlight++
		s.mu.Unlock()
		s.notify()

		go s.run(task)
	}
}

func (s *Scheduler) run(task Task) {
	defer func() {
		s.mu.Lock()
		s.inFlight--
		if s.inFlight == 0 && len(s.queue) == 0 {
			s.idle.Broadcast()
		}
		s.mu.Unlock()
		s.notify()
		s.drain()
	}()

	if err := s.execute(task); err != nil {
		s.log.Debug("Task failed", "error", err)
		if s.cfg.OnError != nil {
			s.cfg.OnError(err)
		}
	}
}

func (s *Scheduler) execute(task Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("task panicked: %v", r)
		}
	}()
	return task(s.ctx)
}

func (s *Scheduler) notify() {
	if s.cfg.OnChange != nil {
		s.cfg.OnChange(s.Stats())
	}
}

// Stats returns the current queue depth and in-flight count.
func (s *Scheduler) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Stats{Queued: len(s.queue), InFlight: s.inFlight}
}

// Wait blocks until the queue is empty and no task is in flight.
func (s *Scheduler) Wait() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for s.inFlight > 0 || len(s.queue) > 0 {
		s.idle.Wait()
	}
}
