package components

import (
	"gearshare/internal/domain/reservation"
	"gearshare/internal/pkg/clock"
	"gearshare/internal/pkg/config"
	"gearshare/internal/usecase/commands"
	"gearshare/internal/usecase/queries"

	"go.uber.org/fx"
)

var UseCaseModule = fx.Module("usecase",
	usecaseBaseOption,
	usecaseCommandsModule,
	usecaseQueriesModule,
)

var usecaseBaseOption = fx.Provide(
	clock.NewRealClock,
	NewCommandConfig,
	NewOverlapPolicy,
)

var usecaseCommandsModule = fx.Module("usecase/commands",
	fx.Provide(
		commands.NewReservationCommands,
		commands.NewResourceCommands,
	),
)

var usecaseQueriesModule = fx.Module("usecase/queries",
	fx.Provide(
		queries.NewReservationQueries,
		queries.NewAvailabilityQueries,
	),
)

func NewOverlapPolicy(cfg config.Config) (reservation.OverlapPolicy, error) {
	return reservation.ParseOverlapPolicy(cfg.Engine.OverlapPolicy)
}

func NewCommandConfig(cfg config.Config, policy reservation.OverlapPolicy) commands.Config {
	return commands.Config{
		ApprovalWindow: cfg.Engine.ApprovalWindow,
		SweepBatchSize: cfg.Engine.SweepBatchSize,
		OverlapPolicy:  policy,
	}
}
