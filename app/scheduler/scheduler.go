package scheduler

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/wanderpress/wanderpress/app/aggregator"
)

// Scheduler runs the aggregation pipeline on a fixed interval. Runs are
// serialized: a tick that arrives while a pass is still going is skipped.
type Scheduler struct {
	pipeline *aggregator.Pipeline
	interval time.Duration

	// onSummary is invoked after every scheduled pass. Optional.
	onSummary func(aggregator.RunSummary)

	ctx     context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running sync.Mutex
}

func New(pipeline *aggregator.Pipeline, interval time.Duration, onSummary func(aggregator.RunSummary)) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())

	return &Scheduler{
		pipeline:  pipeline,
		interval:  interval,
		onSummary: onSummary,
		ctx:       ctx,
		cancel:    cancel,
	}
}

func (s *Scheduler) Start() {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		ticker := time.NewTicker(s.interval)
		defer ticker.Stop()

		slog.Info("Scheduler started", "interval", s.interval)

		for {
			select {
			case <-s.ctx.Done():
				return
			case <-ticker.C:
				s.runOnce()
			}
		}
	}()
}

// Stop halts the ticker and waits for an in-flight pass to finish.
func (s *Scheduler) Stop() {
	s.cancel()
	s.wg.Wait()
	slog.Info("Scheduler stopped")
}

func (s *Scheduler) runOnce() {
	if !s.running.TryLock() {
		slog.Warn("Previous aggregation pass still running, skipping tick")
		return
	}
	defer s.running.Unlock()

	summary := s.pipeline.Run(s.ctx)
	if s.onSummary != nil {
		s.onSummary(summary)
	}
}
