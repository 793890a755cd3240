package fees

import (
	"gearshare/internal/domain/money"
	"gearshare/internal/pkg/config"
)

// Schedule computes platform charges as flat percentages of the base rental
// amount. Rates come from configuration so deployments can adjust them
// without a release.
type Schedule struct {
	serviceFeeRate float64
	taxRate        float64
}

func NewSchedule(cfg config.EngineConfig) *Schedule {
	return &Schedule{
		serviceFeeRate: cfg.ServiceFeeRate,
		taxRate:        cfg.TaxRate,
	}
}

func (s *Schedule) ServiceFee(base money.Money) money.Money {
	return base.MulFloat(s.serviceFeeRate).Round2()
}

func (s *Schedule) Taxes(base money.Money) money.Money {
	return base.MulFloat(s.taxRate).Round2()
}
