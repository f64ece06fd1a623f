package app

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"
)

// Supervisor runs fire-and-forget background tasks. Task failures are logged
// and never reach the caller that started them.
type Supervisor struct {
	ctx    context.Context
	cancel context.CancelFunc
	group  errgroup.Group
	logger *slog.Logger
}

// NewSupervisor allows at most limit concurrent tasks; limit <= 0 means unlimited.
func NewSupervisor(limit int, logger *slog.Logger) *Supervisor {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Supervisor{ctx: ctx, cancel: cancel, logger: logger}
	if limit > 0 {
		s.group.SetLimit(limit)
	}
	return s
}

// Go starts task unless the concurrency limit is reached or the supervisor is shut down.
func (s *Supervisor) Go(name string, task func(ctx context.Context) error) bool {
	if s.ctx.Err() != nil {
		return false
	}
	started := s.group.TryGo(func() error {
		defer func() {
			if r := recover(); r != nil {
				s.logger.Error("background task panicked", "task", name, "panic", fmt.Sprint(r))
			}
		}()
		if err := task(s.ctx); err != nil {
			s.logger.Warn("background task failed", "task", name, "err", err)
			return nil
		}
		s.logger.Debug("background task finished", "task", name)
		return nil
	})
	if !started {
		s.logger.Debug("background task skipped, limit reached", "task", name)
	}
	return started
}

// Shutdown cancels running tasks and waits for them until ctx expires.
func (s *Supervisor) Shutdown(ctx context.Context) error {
	s.cancel()
	done := make(chan struct{})
	go func() {
		_ = s.group.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Wait blocks until every started task has returned.
func (s *Supervisor) Wait() {
	_ = s.group.Wait()
}
