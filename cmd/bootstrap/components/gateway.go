package components

import (
	"gearshare/internal/infra/fees"
	"gearshare/internal/infra/notify"
	"gearshare/internal/infra/payment"
	"gearshare/internal/pkg/config"
	"gearshare/internal/usecase/commands"

	"go.uber.org/fx"
)

var GatewayModule = fx.Module("gateway",
	fx.Provide(
		fx.Annotate(
			NewPaymentClient,
			fx.As(new(commands.PaymentGateway)),
		),
		fx.Annotate(
			NewNotifyClient,
			fx.As(new(commands.Notifier)),
		),
		fx.Annotate(
			NewFeeSchedule,
			fx.As(new(commands.FeePolicy)),
		),
	),
)

func NewPaymentClient(cfg config.Config) *payment.Client {
	return payment.NewClient(cfg.Payment)
}

func NewNotifyClient(cfg config.Config) *notify.Client {
	return notify.NewClient(cfg.Notify)
}

func NewFeeSchedule(cfg config.Config) *fees.Schedule {
	return fees.NewSchedule(cfg.Engine)
}
