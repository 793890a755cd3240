package reservation

import (
	"errors"

	"gearshare/internal/domain/money"
	"gearshare/internal/domain/resource"
)

// ErrNoApplicableTier means the resource has no tier that can price the
// requested duration; the request must be rejected.
var ErrNoApplicableTier = errors.New("no applicable pricing tier for requested duration")

const (
	hoursPerDay   = 24
	hoursPerWeek  = 7 * hoursPerDay
	hoursPerMonth = 30 * hoursPerDay
)

// PriceBreakdown is the monetary snapshot stored on a reservation at
// creation. It is never recomputed afterwards, so later tier changes cannot
// reprice an accepted booking.
type PriceBreakdown struct {
	BaseAmount  money.Money
	Deposit     money.Money
	ServiceFee  money.Money
	DeliveryFee money.Money
	Taxes       money.Money
	Total       money.Money
	Currency    string
}

// ComputeBase selects the unit rate by fixed bucket order, not by minimum
// cost: daily covers up to 24h, weekly up to 168h, monthly up to 720h, then
// hourly billing, then a per-day fallback. A 3-day rental on a
// daily+weekly resource therefore costs the weekly rate; that is intended.
func ComputeBase(tiers resource.PricingTiers, slot TimeSlot) (money.Money, error) {
	hours := slot.Hours()

	switch {
	case hours <= hoursPerDay && tiers.Daily != nil:
		return tiers.Daily.Round2(), nil
	case hours <= hoursPerWeek && tiers.Weekly != nil:
		return tiers.Weekly.Round2(), nil
	case hours <= hoursPerMonth && tiers.Monthly != nil:
		return tiers.Monthly.Round2(), nil
	case tiers.Hourly != nil:
		return tiers.Hourly.MulInt(hours).Round2(), nil
	case tiers.Daily != nil:
		days := hours / hoursPerDay
		if hours%hoursPerDay != 0 {
			days++
		}
		return tiers.Daily.MulInt(days).Round2(), nil
	default:
		return money.Money{}, ErrNoApplicableTier
	}
}

// DeliveryCharge applies only when the renter asked for delivery and the
// resource offers it.
func DeliveryCharge(terms resource.DeliveryTerms, requested bool) money.Money {
	if requested && terms.Available {
		return terms.Fee.Round2()
	}
	return money.Zero()
}

// NewBreakdown sums the components under the engine rounding rule. Service
// fee and taxes come from the platform fee schedule; the breakdown only
// guarantees the summation contract.
func NewBreakdown(base, deposit, serviceFee, deliveryFee, taxes money.Money, currency string) PriceBreakdown {
	base = base.Round2()
	deposit = deposit.Round2()
	serviceFee = serviceFee.Round2()
	deliveryFee = deliveryFee.Round2()
	taxes = taxes.Round2()

	return PriceBreakdown{
		BaseAmount:  base,
		Deposit:     deposit,
		ServiceFee:  serviceFee,
		DeliveryFee: deliveryFee,
		Taxes:       taxes,
		Total:       base.Add(deposit).Add(serviceFee).Add(deliveryFee).Add(taxes).Round2(),
		Currency:    currency,
	}
}
