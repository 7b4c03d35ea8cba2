package freshness

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/stillhq/still/internal/forum"
)

const (
	// batchPageSize bounds one batch to a single listing page.
	batchPageSize = 100
	// threadDelay paces requests against the content store between threads.
	threadDelay = 100 * time.Millisecond
)

// Scheduler periodically sweeps every thread through the engine's batch
// reconciliation. One instance per process; Start/Stop transitions are
// serialized, and Stop never cancels a batch already in flight.
type Scheduler struct {
	engine *Engine
	store  forum.Store

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}

	pageSize int
	delay    time.Duration
}

// NewScheduler creates a stopped Scheduler.
func NewScheduler(engine *Engine, store forum.Store) *Scheduler {
	return &Scheduler{
		engine:   engine,
		store:    store,
		pageSize: batchPageSize,
		delay:    threadDelay,
	}
}

// Start transitions Stopped→Running: runs one batch immediately, then at the
// given interval. Calling Start while running is a no-op.
func (s *Scheduler) Start(intervalMinutes int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		log.Printf("scheduler: already running")
		return
	}
	if intervalMinutes <= 0 {
		intervalMinutes = 60
	}

	log.Printf("scheduler: starting (interval: %dm)", intervalMinutes)
	s.running = true
	s.stopCh = make(chan struct{})

	go func(stopCh chan struct{}) {
		s.runBatch(context.Background())

		ticker := time.NewTicker(time.Duration(intervalMinutes) * time.Minute)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				s.runBatch(context.Background())
			case <-stopCh:
				return
			}
		}
	}(s.stopCh)
}

// Stop cancels future scheduled runs. Idempotent; an in-flight batch runs to
// completion.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}
	close(s.stopCh)
	s.stopCh = nil
	s.running = false
	log.Printf("scheduler: stopped")
}

// Running reports whether the scheduler timer is armed.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// TriggerManual runs one batch synchronously, outside the timer cadence.
func (s *Scheduler) TriggerManual(ctx context.Context) error {
	log.Printf("scheduler: manual recalculation triggered")
	return s.runBatch(ctx)
}

// runBatch walks one page of threads and reconciles each in listed order. A
// single thread's failure is logged and the batch continues; only the listing
// failure propagates.
func (s *Scheduler) runBatch(ctx context.Context) error {
	threads, err := s.store.ListThreads(ctx, 1, s.pageSize)
	if err != nil {
		log.Printf("scheduler: list threads: %v", err)
		return err
	}

	log.Printf("scheduler: recalculating %d threads", len(threads))
	for i := range threads {
		if err := s.engine.RecalculateThreadFreshness(ctx, threads[i].ID); err != nil {
			log.Printf("scheduler: thread %s: %v", threads[i].ID, err)
		}
		if i < len(threads)-1 {
			time.Sleep(s.delay)
		}
	}

	log.Printf("scheduler: batch complete")
	return nil
}
