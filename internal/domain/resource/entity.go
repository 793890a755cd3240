package resource

import (
	"errors"
	"strings"
	"time"

	"gearshare/internal/domain/money"

	"github.com/google/uuid"
)

var (
	ErrEmptyTitle    = errors.New("resource title is required")
	ErrNoPricingTier = errors.New("bookable resource requires at least one pricing tier")
	ErrNegativeRate  = errors.New("pricing rate cannot be negative")
)

type Status string

const (
	StatusActive  Status = "active"
	StatusDeleted Status = "deleted"
)

func (s Status) String() string {
	return string(s)
}

// PricingTiers are the optional unit rates an owner configures. Tier
// selection order at quote time is fixed and lives in the reservation
// package; the resource only stores the rates.
type PricingTiers struct {
	Hourly   *money.Money
	Daily    *money.Money
	Weekly   *money.Money
	Monthly  *money.Money
	Deposit  money.Money
	Currency string
}

func (t PricingTiers) HasAnyRate() bool {
	return t.Hourly != nil || t.Daily != nil || t.Weekly != nil || t.Monthly != nil
}

type DeliveryTerms struct {
	Available bool
	Fee       money.Money
}

type Resource struct {
	id          uuid.UUID
	ownerID     uuid.UUID
	title       string
	description string
	tiers       PricingTiers
	delivery    DeliveryTerms
	status      Status
	createdAt   time.Time
	updatedAt   time.Time
}

func NewResource(
	ownerID uuid.UUID,
	title, description string,
	tiers PricingTiers,
	delivery DeliveryTerms,
	now time.Time,
) (*Resource, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, ErrEmptyTitle
	}
	if !tiers.HasAnyRate() {
		return nil, ErrNoPricingTier
	}
	for _, rate := range []*money.Money{tiers.Hourly, tiers.Daily, tiers.Weekly, tiers.Monthly} {
		if rate != nil && rate.IsNegative() {
			return nil, ErrNegativeRate
		}
	}
	if tiers.Deposit.IsNegative() || delivery.Fee.IsNegative() {
		return nil, ErrNegativeRate
	}
	if tiers.Currency == "" {
		tiers.Currency = "USD"
	}

	return &Resource{
		id:          uuid.New(),
		ownerID:     ownerID,
		title:       title,
		description: description,
		tiers:       tiers,
		delivery:    delivery,
		status:      StatusActive,
		createdAt:   now,
		updatedAt:   now,
	}, nil
}

func Reconstruct(
	id, ownerID uuid.UUID,
	title, description string,
	tiers PricingTiers,
	delivery DeliveryTerms,
	status Status,
	createdAt, updatedAt time.Time,
) *Resource {
	return &Resource{
		id:          id,
		ownerID:     ownerID,
		title:       title,
		description: description,
		tiers:       tiers,
		delivery:    delivery,
		status:      status,
		createdAt:   createdAt,
		updatedAt:   updatedAt,
	}
}

// UpdateTiers replaces the pricing tiers. Owner-only enforcement happens in
// the usecase layer; existing reservations keep their pricing snapshot.
func (r *Resource) UpdateTiers(tiers PricingTiers, now time.Time) error {
	if !tiers.HasAnyRate() {
		return ErrNoPricingTier
	}
	if tiers.Currency == "" {
		tiers.Currency = r.tiers.Currency
	}
	r.tiers = tiers
	r.updatedAt = now
	return nil
}

// SoftDelete retires the resource from new bookings. Rows are never removed
// while reservations reference them.
func (r *Resource) SoftDelete(now time.Time) {
	r.status = StatusDeleted
	r.updatedAt = now
}

func (r *Resource) IsDeleted() bool {
	return r.status == StatusDeleted
}

func (r *Resource) ID() uuid.UUID           { return r.id }
func (r *Resource) OwnerID() uuid.UUID      { return r.ownerID }
func (r *Resource) Title() string           { return r.title }
func (r *Resource) Description() string     { return r.description }
func (r *Resource) Tiers() PricingTiers     { return r.tiers }
func (r *Resource) Delivery() DeliveryTerms { return r.delivery }
func (r *Resource) Status() Status          { return r.status }
func (r *Resource) CreatedAt() time.Time    { return r.createdAt }
func (r *Resource) UpdatedAt() time.Time    { return r.updatedAt }
