package commands

import (
	"context"

	"gearshare/internal/domain/money"
	"gearshare/internal/domain/resource"
	"gearshare/internal/infra"
	"gearshare/internal/pkg/clock"
	"gearshare/internal/pkg/errs"

	"github.com/google/uuid"
)

type CreateResourceCommand struct {
	OwnerID     uuid.UUID
	Title       string
	Description string
	Hourly      *float64
	Daily       *float64
	Weekly      *float64
	Monthly     *float64
	Deposit     float64
	Currency    string
	Delivery    bool
	DeliveryFee float64
}

type UpdateTiersCommand struct {
	ResourceID uuid.UUID
	ActorID    uuid.UUID
	Hourly     *float64
	Daily      *float64
	Weekly     *float64
	Monthly    *float64
	Deposit    float64
	Currency   string
}

type ResourceCommands interface {
	Create(ctx context.Context, cmd CreateResourceCommand) (*resource.Resource, error)
	UpdateTiers(ctx context.Context, cmd UpdateTiersCommand) error
	Delete(ctx context.Context, resourceID, actorID uuid.UUID) error
}

type resourceCommands struct {
	resources ResourceRepository
	clock     clock.Clock
}

func NewResourceCommands(resources ResourceRepository, clk clock.Clock) ResourceCommands {
	return &resourceCommands{resources: resources, clock: clk}
}

func (c *resourceCommands) Create(ctx context.Context, cmd CreateResourceCommand) (*resource.Resource, error) {
	tiers := resource.PricingTiers{
		Hourly:   rate(cmd.Hourly),
		Daily:    rate(cmd.Daily),
		Weekly:   rate(cmd.Weekly),
		Monthly:  rate(cmd.Monthly),
		Deposit:  money.FromFloat(cmd.Deposit),
		Currency: cmd.Currency,
	}
	delivery := resource.DeliveryTerms{
		Available: cmd.Delivery,
		Fee:       money.FromFloat(cmd.DeliveryFee),
	}

	entity, err := resource.NewResource(cmd.OwnerID, cmd.Title, cmd.Description, tiers, delivery, c.clock.Now())
	if err != nil {
		return nil, err
	}

	if err := c.resources.Create(ctx, entity); err != nil {
		return nil, errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}
	return entity, nil
}

// UpdateTiers changes the advertised rates. Existing reservations keep their
// pricing snapshot; only future quotes see the new tiers.
func (c *resourceCommands) UpdateTiers(ctx context.Context, cmd UpdateTiersCommand) error {
	entity, err := c.find(ctx, cmd.ResourceID)
	if err != nil {
		return err
	}
	if entity.OwnerID() != cmd.ActorID {
		return errs.ErrNotAllowed
	}

	tiers := resource.PricingTiers{
		Hourly:   rate(cmd.Hourly),
		Daily:    rate(cmd.Daily),
		Weekly:   rate(cmd.Weekly),
		Monthly:  rate(cmd.Monthly),
		Deposit:  money.FromFloat(cmd.Deposit),
		Currency: cmd.Currency,
	}
	if err := entity.UpdateTiers(tiers, c.clock.Now()); err != nil {
		return err
	}

	if err := c.resources.Update(ctx, entity); err != nil {
		return errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}
	return nil
}

// Delete soft-deletes: the row survives for the reservations referencing it,
// but no new bookings are accepted.
func (c *resourceCommands) Delete(ctx context.Context, resourceID, actorID uuid.UUID) error {
	entity, err := c.find(ctx, resourceID)
	if err != nil {
		return err
	}
	if entity.OwnerID() != actorID {
		return errs.ErrNotAllowed
	}
	if entity.IsDeleted() {
		return nil
	}

	entity.SoftDelete(c.clock.Now())
	if err := c.resources.Update(ctx, entity); err != nil {
		return errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}
	return nil
}

func (c *resourceCommands) find(ctx context.Context, id uuid.UUID) (*resource.Resource, error) {
	entity, err := c.resources.FindByID(ctx, id)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, errs.Mark(err, errs.ErrResourceNotFound)
		}
		return nil, errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}
	return entity, nil
}

func rate(v *float64) *money.Money {
	if v == nil {
		return nil
	}
	m := money.FromFloat(*v)
	return &m
}
