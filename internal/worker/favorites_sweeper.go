// Package worker runs the background maintenance jobs of the service.
package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/terrain-ouvert/datahub/internal/pkg/logger"
)

// Sweeper removes favorites pointing at deleted publications
type Sweeper interface {
	Sweep(ctx context.Context) (int64, error)
}

// FavoritesSweeper runs a Sweeper on a cron schedule
type FavoritesSweeper struct {
	sweeper Sweeper
	spec    string
	timeout time.Duration
	logger  *logger.Logger

	mu        sync.Mutex
	scheduler *cron.Cron
}

// NewFavoritesSweeper creates a sweeper worker. spec accepts standard five
// field expressions and descriptors such as "@every 1h".
func NewFavoritesSweeper(sweeper Sweeper, spec string, log *logger.Logger) *FavoritesSweeper {
	return &FavoritesSweeper{
		sweeper: sweeper,
		spec:    spec,
		timeout: 5 * time.Minute,
		logger:  log,
	}
}

// Start schedules the sweep and returns. The schedule stops when ctx is
// done or Stop is called.
func (s *FavoritesSweeper) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.scheduler != nil {
		return fmt.Errorf("favorites sweeper is already running")
	}

	schedule, err := cron.ParseStandard(s.spec)
	if err != nil {
		return fmt.Errorf("invalid favorites sweep schedule %q: %w", s.spec, err)
	}

	scheduler := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	scheduler.Schedule(schedule, cron.FuncJob(func() {
		s.RunOnce(context.WithoutCancel(ctx))
	}))
	scheduler.Start()
	s.scheduler = scheduler

	s.logger.With("schedule", s.spec).Info("Favorites sweeper started")

	go func() {
		<-ctx.Done()
		s.Stop()
	}()
	return nil
}

// Stop cancels the schedule and waits for a running sweep to finish
func (s *FavoritesSweeper) Stop() {
	s.mu.Lock()
	scheduler := s.scheduler
	s.scheduler = nil
	s.mu.Unlock()

	if scheduler == nil {
		return
	}
	<-scheduler.Stop().Done()
	s.logger.Info("Favorites sweeper stopped")
}

// RunOnce sweeps immediately and returns the number of removed favorites
func (s *FavoritesSweeper) RunOnce(ctx context.Context) int64 {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	n, err := s.sweeper.Sweep(ctx)
	if err != nil {
		s.logger.ErrorWithErr(err, "Favorites sweep failed")
		return 0
	}

	s.logger.WithFields(map[string]interface{}{
		"removed":  n,
		"duration": time.Since(start).Milliseconds(),
	}).Debug("Favorites sweep completed")
	return n
}
