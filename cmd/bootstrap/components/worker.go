package components

import (
	"context"
	"log/slog"

	"gearshare/internal/pkg/clock"
	"gearshare/internal/pkg/config"
	"gearshare/internal/usecase/commands"
	"gearshare/internal/worker"

	"go.uber.org/fx"
)

var WorkerModule = fx.Module("worker",
	fx.Provide(
		NewSweeper,
	),
	fx.Invoke(StartSweeper),
)

func NewSweeper(cmds commands.ReservationCommands, clk clock.Clock, cfg config.Config, logger *slog.Logger) *worker.Sweeper {
	return worker.NewSweeper(cmds, clk, cfg.Engine.SweepInterval, logger)
}

func StartSweeper(lc fx.Lifecycle, sweeper *worker.Sweeper) {
	ctx, cancel := context.WithCancel(context.Background())

	lc.Append(fx.Hook{
		OnStart: func(_ context.Context) error {
			go sweeper.Run(ctx)
			return nil
		},
		OnStop: func(_ context.Context) error {
			cancel()
			return nil
		},
	})
}
