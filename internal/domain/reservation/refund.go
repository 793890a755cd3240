package reservation

import (
	"time"

	"gearshare/internal/domain/money"
)

// Renter-initiated cancellation breakpoints, boundary-inclusive on the
// greater-or-equal side.
const (
	fullNoticeHours = 48
	lateNoticeHours = 24
)

type RefundQuote struct {
	Percentage       float64
	Amount           money.Money
	ServiceFeeRefund money.Money
}

// ComputeRefund is pure: it inspects the pricing snapshot and the time until
// start, and never mutates the reservation. Owners always refund in full;
// renters are on a sliding scale. The service fee is refunded in full
// whenever any refund applies, never pro-rated.
func ComputeRefund(pricing PriceBreakdown, start, now time.Time, cancelledBy Actor) RefundQuote {
	percentage := 0.0

	if cancelledBy == ActorOwner {
		percentage = 1.0
	} else {
		hoursUntilStart := start.Sub(now).Hours()
		switch {
		case hoursUntilStart >= fullNoticeHours:
			percentage = 0.9
		case hoursUntilStart >= lateNoticeHours:
			percentage = 0.5
		}
	}

	serviceFeeRefund := money.Zero()
	if percentage > 0 {
		serviceFeeRefund = pricing.ServiceFee
	}

	return RefundQuote{
		Percentage:       percentage,
		Amount:           pricing.Total.MulFloat(percentage).Round2(),
		ServiceFeeRefund: serviceFeeRefund,
	}
}
