package commands

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"gearshare/internal/domain/money"
	"gearshare/internal/domain/reservation"
	"gearshare/internal/infra"
	"gearshare/internal/pkg/clock"
	"gearshare/internal/pkg/errs"

	"github.com/google/uuid"
)

const cancelReasonDispute = "dispute_resolution"

type CreateReservationCommand struct {
	ResourceID        uuid.UUID
	RenterID          uuid.UUID
	Start             time.Time
	End               time.Time
	DeliveryRequested bool
}

type ResolveDisputeCommand struct {
	ReservationID uuid.UUID
	Outcome       reservation.ResolutionOutcome
	// RefundPercentage is the mediator's decision, 0..1. Applied only when
	// the outcome is cancellation.
	RefundPercentage float64
	Reason           string
}

// ReservationCommands is the lifecycle state machine's command surface: the
// five external events from the transition table plus creation and the
// sweep-driven clock transitions.
type ReservationCommands interface {
	Create(ctx context.Context, cmd CreateReservationCommand) (*reservation.Reservation, error)
	Approve(ctx context.Context, reservationID, actorID uuid.UUID) error
	Reject(ctx context.Context, reservationID, actorID uuid.UUID) error
	Cancel(ctx context.Context, reservationID, actorID uuid.UUID, reason string) error
	Dispute(ctx context.Context, reservationID, actorID uuid.UUID, reason string) error
	ResolveDispute(ctx context.Context, cmd ResolveDisputeCommand) error

	ExpireDue(ctx context.Context, now time.Time) (int, error)
	ActivateDue(ctx context.Context, now time.Time) (int, error)
	CompleteDue(ctx context.Context, now time.Time) (int, error)
}

type Config struct {
	ApprovalWindow time.Duration
	SweepBatchSize int
	OverlapPolicy  reservation.OverlapPolicy
}

type reservationCommands struct {
	reservations ReservationRepository
	resources    ResourceRepository
	gateway      PaymentGateway
	notifier     Notifier
	fees         FeePolicy
	clock        clock.Clock
	cfg          Config
	logger       *slog.Logger
}

func NewReservationCommands(
	reservations ReservationRepository,
	resources ResourceRepository,
	gateway PaymentGateway,
	notifier Notifier,
	fees FeePolicy,
	clk clock.Clock,
	cfg Config,
	logger *slog.Logger,
) ReservationCommands {
	if cfg.SweepBatchSize <= 0 {
		cfg.SweepBatchSize = 100
	}
	if cfg.OverlapPolicy == "" {
		cfg.OverlapPolicy = reservation.OverlapHalfOpen
	}
	return &reservationCommands{
		reservations: reservations,
		resources:    resources,
		gateway:      gateway,
		notifier:     notifier,
		fees:         fees,
		clock:        clk,
		cfg:          cfg,
		logger:       logger,
	}
}

func (c *reservationCommands) Create(ctx context.Context, cmd CreateReservationCommand) (*reservation.Reservation, error) {
	now := c.clock.Now()

	slot, err := reservation.NewTimeSlot(cmd.Start, cmd.End, now)
	if err != nil {
		return nil, errs.Mark(err, errs.ErrInvalidInterval)
	}

	res, err := c.resources.FindByID(ctx, cmd.ResourceID)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, errs.Mark(err, errs.ErrResourceNotFound)
		}
		return nil, errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}
	if res.IsDeleted() {
		return nil, errs.ErrResourceDeleted
	}

	base, err := reservation.ComputeBase(res.Tiers(), slot)
	if err != nil {
		return nil, errs.Mark(err, errs.ErrNotPriceable)
	}

	pricing := reservation.NewBreakdown(
		base,
		res.Tiers().Deposit,
		c.fees.ServiceFee(base),
		reservation.DeliveryCharge(res.Delivery(), cmd.DeliveryRequested),
		c.fees.Taxes(base),
		res.Tiers().Currency,
	)

	entity, err := reservation.NewReservation(res, cmd.RenterID, slot, pricing, cmd.DeliveryRequested, now)
	if err != nil {
		if errors.Is(err, reservation.ErrSelfBooking) {
			return nil, errs.Mark(err, errs.ErrSelfBooking)
		}
		return nil, err
	}

	// Pending requests participate in the creation guard so two concurrent
	// overlapping requests cannot both be accepted.
	err = c.reservations.CheckAndCreate(ctx, entity, reservation.CreationGuardStatuses(), c.cfg.OverlapPolicy)
	if err != nil {
		if infra.IsKind(err, infra.KindConflict) {
			return nil, errs.Mark(err, errs.ErrReservationConflict)
		}
		return nil, errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}

	c.publish(ctx, EventReservationRequested, entity, now)
	return entity, nil
}

func (c *reservationCommands) Approve(ctx context.Context, reservationID, actorID uuid.UUID) error {
	now := c.clock.Now()

	entity, err := c.load(ctx, reservationID)
	if err != nil {
		return err
	}
	if entity.OwnerID() != actorID {
		return errs.ErrNotAllowed
	}
	if entity.Status() == reservation.StatusConfirmed {
		return nil
	}
	if _, guardErr := reservation.DryRun(entity.Status(), reservation.EventApprove); guardErr != nil {
		return guardErr
	}

	// Payment capture is the approval guard: the transition happens only
	// after the charge succeeds.
	pricing := entity.Pricing()
	paymentRef, err := c.gateway.Authorize(ctx, pricing.Total, pricing.Currency, entity.RenterID())
	if err != nil {
		return errs.Mark(err, errs.ErrPaymentFailed)
	}
	if err := c.gateway.Capture(ctx, paymentRef); err != nil {
		return errs.Mark(err, errs.ErrPaymentFailed)
	}

	changed, err := entity.Approve(now)
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}
	entity.AttachPaymentIntent(paymentRef)
	entity.MarkPaid(now)

	if err := c.reservations.Update(ctx, entity); err != nil {
		// The hold was rejected after capture (another booking took the
		// interval, or a concurrent writer advanced the row). Give the
		// money back before surfacing the failure.
		if refundErr := c.refundCaptured(ctx, paymentRef, pricing.Total); refundErr != nil {
			c.logger.Error("failed to refund after rejected approval",
				"reservation_id", reservationID, "error", refundErr)
		}
		if infra.IsKind(err, infra.KindConflict) {
			return errs.Mark(err, errs.ErrReservationConflict)
		}
		if infra.IsKind(err, infra.KindStale) {
			return errs.Mark(err, errs.ErrStaleReservation)
		}
		return errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}

	c.publish(ctx, EventReservationConfirmed, entity, now)
	return nil
}

func (c *reservationCommands) Reject(ctx context.Context, reservationID, actorID uuid.UUID) error {
	now := c.clock.Now()

	entity, err := c.load(ctx, reservationID)
	if err != nil {
		return err
	}
	if entity.OwnerID() != actorID {
		return errs.ErrNotAllowed
	}

	changed, err := entity.Reject(now)
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}

	if err := c.update(ctx, entity); err != nil {
		return err
	}
	c.publish(ctx, EventReservationCancelled, entity, now)
	return nil
}

func (c *reservationCommands) Cancel(ctx context.Context, reservationID, actorID uuid.UUID, reason string) error {
	now := c.clock.Now()

	entity, err := c.load(ctx, reservationID)
	if err != nil {
		return err
	}
	actor, isParty := entity.ActorFor(actorID)
	if !isParty {
		return errs.ErrNotAllowed
	}

	wasHeld := entity.HoldsInterval()
	quote := reservation.ComputeRefund(entity.Pricing(), entity.Slot().Start(), now, actor)

	changed, err := entity.Cancel(now)
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}

	// Pending cancellations carry no charge; nothing was captured yet.
	if wasHeld && quote.Percentage > 0 && entity.Payment().IntentRef != "" {
		if _, err := c.gateway.Refund(ctx, entity.Payment().IntentRef, quote.Amount, refundKey(entity.ID())); err != nil {
			return errs.Mark(err, errs.ErrPaymentFailed)
		}
		entity.RecordRefund(reason, quote, now)
	}

	if err := c.update(ctx, entity); err != nil {
		return err
	}
	c.publish(ctx, EventReservationCancelled, entity, now)
	return nil
}

func (c *reservationCommands) Dispute(ctx context.Context, reservationID, actorID uuid.UUID, reason string) error {
	now := c.clock.Now()

	entity, err := c.load(ctx, reservationID)
	if err != nil {
		return err
	}
	if _, isParty := entity.ActorFor(actorID); !isParty {
		return errs.ErrNotAllowed
	}

	changed, err := entity.OpenDispute(reason, actorID, now)
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}

	if err := c.update(ctx, entity); err != nil {
		return err
	}
	c.publish(ctx, EventReservationDisputed, entity, now)
	return nil
}

// ResolveDispute applies the external mediator's decision as a normal
// transition. The resolution policy itself lives outside the engine.
func (c *reservationCommands) ResolveDispute(ctx context.Context, cmd ResolveDisputeCommand) error {
	now := c.clock.Now()

	entity, err := c.load(ctx, cmd.ReservationID)
	if err != nil {
		return err
	}

	changed, err := entity.Resolve(cmd.Outcome, now)
	if err != nil {
		return err
	}
	if !changed {
		return nil
	}

	if cmd.Outcome == reservation.ResolutionCancelled && cmd.RefundPercentage > 0 && entity.Payment().IntentRef != "" {
		quote := reservation.RefundQuote{
			Percentage:       cmd.RefundPercentage,
			Amount:           entity.Pricing().Total.MulFloat(cmd.RefundPercentage).Round2(),
			ServiceFeeRefund: entity.Pricing().ServiceFee,
		}
		if _, err := c.gateway.Refund(ctx, entity.Payment().IntentRef, quote.Amount, refundKey(entity.ID())); err != nil {
			return errs.Mark(err, errs.ErrPaymentFailed)
		}
		reason := cmd.Reason
		if reason == "" {
			reason = cancelReasonDispute
		}
		entity.RecordRefund(reason, quote, now)
	}

	if err := c.update(ctx, entity); err != nil {
		return err
	}

	kind := EventReservationCompleted
	if cmd.Outcome == reservation.ResolutionCancelled {
		kind = EventReservationCancelled
	}
	c.publish(ctx, kind, entity, now)
	return nil
}

// ExpireDue advances pending requests whose approval window has elapsed.
// Called by the periodic sweep; safe to run concurrently with interactive
// requests because each row is guarded by its version.
func (c *reservationCommands) ExpireDue(ctx context.Context, now time.Time) (int, error) {
	ids, err := c.reservations.DueExpirations(ctx, now.Add(-c.cfg.ApprovalWindow), c.cfg.SweepBatchSize)
	if err != nil {
		return 0, errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}
	return c.advance(ctx, ids, func(r *reservation.Reservation) (bool, error) {
		if !r.ShouldExpire(now, c.cfg.ApprovalWindow) {
			return false, nil
		}
		return r.Expire(now)
	}, EventReservationExpired, now), nil
}

// ActivateDue advances confirmed reservations whose start time has been
// reached. No owner action is required; the transition is clock driven.
func (c *reservationCommands) ActivateDue(ctx context.Context, now time.Time) (int, error) {
	ids, err := c.reservations.DueActivations(ctx, now, c.cfg.SweepBatchSize)
	if err != nil {
		return 0, errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}
	return c.advance(ctx, ids, func(r *reservation.Reservation) (bool, error) {
		if !r.DueToStart(now) {
			return false, nil
		}
		return r.Start(now)
	}, "", now), nil
}

// CompleteDue finishes active reservations past their end time. Disputed
// reservations are frozen and never selected.
func (c *reservationCommands) CompleteDue(ctx context.Context, now time.Time) (int, error) {
	ids, err := c.reservations.DueCompletions(ctx, now, c.cfg.SweepBatchSize)
	if err != nil {
		return 0, errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}
	return c.advance(ctx, ids, func(r *reservation.Reservation) (bool, error) {
		if !r.DueToComplete(now) {
			return false, nil
		}
		return r.Complete(now)
	}, EventReservationCompleted, now), nil
}

// advance reloads each candidate and re-checks its guard before writing, so
// a row that moved between the scan and the update is skipped rather than
// corrupted. Per-row failures are logged and do not abort the batch.
func (c *reservationCommands) advance(
	ctx context.Context,
	ids []uuid.UUID,
	transition func(*reservation.Reservation) (bool, error),
	eventKind string,
	now time.Time,
) int {
	advanced := 0
	for _, id := range ids {
		entity, err := c.load(ctx, id)
		if err != nil {
			c.logger.Warn("sweep: failed to load reservation", "reservation_id", id, "error", err)
			continue
		}

		changed, err := transition(entity)
		if err != nil || !changed {
			continue
		}

		if err := c.reservations.Update(ctx, entity); err != nil {
			if infra.IsKind(err, infra.KindStale) {
				continue
			}
			c.logger.Warn("sweep: failed to update reservation", "reservation_id", id, "error", err)
			continue
		}

		if eventKind != "" {
			c.publish(ctx, eventKind, entity, now)
		}
		advanced++
	}
	return advanced
}

func (c *reservationCommands) load(ctx context.Context, id uuid.UUID) (*reservation.Reservation, error) {
	entity, err := c.reservations.FindByID(ctx, id)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, errs.Mark(err, errs.ErrReservationNotFound)
		}
		return nil, errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}
	return entity, nil
}

func (c *reservationCommands) update(ctx context.Context, entity *reservation.Reservation) error {
	if err := c.reservations.Update(ctx, entity); err != nil {
		if infra.IsKind(err, infra.KindStale) {
			return errs.Mark(err, errs.ErrStaleReservation)
		}
		if infra.IsKind(err, infra.KindConflict) {
			return errs.Mark(err, errs.ErrReservationConflict)
		}
		return errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}
	return nil
}

func (c *reservationCommands) refundCaptured(ctx context.Context, paymentRef string, amount money.Money) error {
	_, err := c.gateway.Refund(ctx, paymentRef, amount, "revert-"+paymentRef)
	return err
}

// refundKey is stable across retries of the same cancellation, letting the
// processor deduplicate when a stale persistence failure forces a retry.
// A reservation's capture is refunded at most once, so one key per
// reservation suffices for both cancellation and dispute resolution.
func refundKey(id uuid.UUID) string {
	return "refund-" + id.String()
}

func (c *reservationCommands) publish(ctx context.Context, kind string, r *reservation.Reservation, now time.Time) {
	c.notifier.Publish(ctx, LifecycleEvent{
		Kind:          kind,
		ReservationID: r.ID(),
		Reference:     r.Reference(),
		ResourceID:    r.ResourceID(),
		RenterID:      r.RenterID(),
		OwnerID:       r.OwnerID(),
		OccurredAt:    now,
	})
}
