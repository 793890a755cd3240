// Package worker hosts the background sweeper that drives time-based
// lifecycle transitions: expiring stale requests, activating confirmed
// reservations at their start time and completing active ones at their end.
package worker

import (
	"context"
	"log/slog"
	"time"

	"gearshare/internal/pkg/clock"
	"gearshare/internal/usecase/commands"
)

type Sweeper struct {
	commands commands.ReservationCommands
	clock    clock.Clock
	interval time.Duration
	logger   *slog.Logger
}

func NewSweeper(
	cmds commands.ReservationCommands,
	clk clock.Clock,
	interval time.Duration,
	logger *slog.Logger,
) *Sweeper {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Sweeper{
		commands: cmds,
		clock:    clk,
		interval: interval,
		logger:   logger,
	}
}

// Run blocks until ctx is cancelled. One sweep failure never stops the loop;
// missed work is picked up on the next tick.
func (s *Sweeper) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("reservation sweeper started", "interval", s.interval.String())

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("reservation sweeper stopped")
			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep runs one pass of all three clock-driven transitions. Exported so
// tests can drive passes without the ticker.
func (s *Sweeper) Sweep(ctx context.Context) {
	now := s.clock.Now()

	expired, err := s.commands.ExpireDue(ctx, now)
	if err != nil {
		s.logger.Error("expiration sweep failed", "error", err)
	}

	activated, err := s.commands.ActivateDue(ctx, now)
	if err != nil {
		s.logger.Error("activation sweep failed", "error", err)
	}

	completed, err := s.commands.CompleteDue(ctx, now)
	if err != nil {
		s.logger.Error("completion sweep failed", "error", err)
	}

	if expired+activated+completed > 0 {
		s.logger.Info("sweep pass finished",
			"expired", expired,
			"activated", activated,
			"completed", completed,
		)
	}
}
