// Package scheduler keeps the reference data fresh by reloading it on a
// cron schedule. A failed reload logs and keeps the last good snapshot.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
)

// Reloader is the interface the scheduler drives. Satisfied by
// *refdata.Registry (avoids an import the other way around).
type Reloader interface {
	Reload() error
}

// tickInterval is how often the loop checks whether the schedule is due.
const tickInterval = 30 * time.Second

// ReloadScheduler periodically reloads reference data.
type ReloadScheduler struct {
	reloader Reloader
	schedule cron.Schedule
	spec     string
	logger   *slog.Logger

	mu     sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
	next   time.Time
}

// NewReloadScheduler creates a scheduler for the given cron spec
// (standard five-field format). The spec is validated up front.
func NewReloadScheduler(reloader Reloader, spec string, logger *slog.Logger) (*ReloadScheduler, error) {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)
	schedule, err := parser.Parse(spec)
	if err != nil {
		return nil, fmt.Errorf("parse cron expression %q: %w", spec, err)
	}
	return &ReloadScheduler{
		reloader: reloader,
		schedule: schedule,
		spec:     spec,
		logger:   logger,
	}, nil
}

// Start launches the background reload loop.
func (s *ReloadScheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.done != nil {
		s.mu.Unlock()
		return fmt.Errorf("reload scheduler already started")
	}

	schedCtx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})
	s.next = s.schedule.Next(time.Now().UTC())
	s.mu.Unlock()

	go s.loop(schedCtx)
	s.logger.Info("refdata reload scheduler started", slog.String("cron", s.spec))
	return nil
}

func (s *ReloadScheduler) loop(ctx context.Context) {
	defer close(s.done)

	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.tick()
		}
	}
}

// tick reloads when the schedule is due and advances the next run time.
func (s *ReloadScheduler) tick() {
	now := time.Now().UTC()

	s.mu.Lock()
	due := !now.Before(s.next)
	if due {
		s.next = s.schedule.Next(now)
	}
	s.mu.Unlock()

	if !due {
		return
	}

	if err := s.reloader.Reload(); err != nil {
		s.logger.Error("scheduled refdata reload failed, keeping previous snapshot",
			slog.String("error", err.Error()))
		return
	}
	s.logger.Info("reference data reloaded")
}

// NextRun returns the next scheduled reload time.
func (s *ReloadScheduler) NextRun() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.next
}

// Stop gracefully shuts down the scheduler.
func (s *ReloadScheduler) Stop() error {
	s.mu.Lock()
	cancel := s.cancel
	done := s.done
	s.cancel = nil
	s.done = nil
	s.mu.Unlock()

	if cancel == nil {
		return nil
	}

	cancel()
	<-done
	s.logger.Info("refdata reload scheduler stopped")
	return nil
}
