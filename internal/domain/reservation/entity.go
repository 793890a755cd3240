package reservation

import (
	"errors"
	"time"

	"gearshare/internal/domain/money"
	"gearshare/internal/domain/resource"

	"github.com/google/uuid"
)

var (
	ErrSelfBooking     = errors.New("renter cannot be the resource owner")
	ErrNotDisputed     = errors.New("reservation is not under dispute")
	ErrUnknownOutcome  = errors.New("unknown dispute resolution outcome")
	ErrMissingPricing  = errors.New("reservation requires a pricing snapshot")
	ErrNegativePricing = errors.New("pricing snapshot cannot be negative")
)

type PaymentInfo struct {
	IntentRef string
	Status    PaymentStatus
	PaidAt    *time.Time
}

// RefundRecord is present only after a refund has been issued.
type RefundRecord struct {
	Reason           string
	Percentage       float64
	Amount           money.Money
	ServiceFeeRefund money.Money
	ProcessedAt      time.Time
}

type DisputeRecord struct {
	Reason   string
	RaisedBy uuid.UUID
	RaisedAt time.Time
}

// Reservation is the unit the engine allocates. Lifecycle timestamps are set
// exactly once, on first entry to the corresponding status. Rows are never
// physically deleted; terminal states are retained for audit.
type Reservation struct {
	id          uuid.UUID
	reference   string
	resourceID  uuid.UUID
	renterID    uuid.UUID
	ownerID     uuid.UUID
	slot        TimeSlot
	status      Status
	pricing     PriceBreakdown
	delivery    bool
	payment     PaymentInfo
	refund      *RefundRecord
	dispute     *DisputeRecord
	requestedAt time.Time
	confirmedAt *time.Time
	cancelledAt *time.Time
	completedAt *time.Time
	version     int64
	updatedAt   time.Time
}

// NewReservation builds a pending request. The conflict check against the
// store happens in the usecase layer before persisting; interval validity is
// enforced by NewTimeSlot.
func NewReservation(
	res *resource.Resource,
	renterID uuid.UUID,
	slot TimeSlot,
	pricing PriceBreakdown,
	deliveryRequested bool,
	now time.Time,
) (*Reservation, error) {
	if renterID == res.OwnerID() {
		return nil, ErrSelfBooking
	}
	if pricing.Total.IsZero() && pricing.BaseAmount.IsZero() {
		return nil, ErrMissingPricing
	}
	if pricing.Total.IsNegative() || pricing.BaseAmount.IsNegative() {
		return nil, ErrNegativePricing
	}

	return &Reservation{
		id:          uuid.New(),
		reference:   NewReferenceCode(now),
		resourceID:  res.ID(),
		renterID:    renterID,
		ownerID:     res.OwnerID(),
		slot:        slot,
		status:      StatusPending,
		pricing:     pricing,
		delivery:    deliveryRequested,
		payment:     PaymentInfo{Status: PaymentPending},
		requestedAt: now,
		version:     1,
		updatedAt:   now,
	}, nil
}

func Reconstruct(
	id uuid.UUID,
	reference string,
	resourceID, renterID, ownerID uuid.UUID,
	slot TimeSlot,
	status Status,
	pricing PriceBreakdown,
	deliveryRequested bool,
	payment PaymentInfo,
	refund *RefundRecord,
	dispute *DisputeRecord,
	requestedAt time.Time,
	confirmedAt, cancelledAt, completedAt *time.Time,
	version int64,
	updatedAt time.Time,
) *Reservation {
	return &Reservation{
		id:          id,
		reference:   reference,
		resourceID:  resourceID,
		renterID:    renterID,
		ownerID:     ownerID,
		slot:        slot,
		status:      status,
		pricing:     pricing,
		delivery:    deliveryRequested,
		payment:     payment,
		refund:      refund,
		dispute:     dispute,
		requestedAt: requestedAt,
		confirmedAt: confirmedAt,
		cancelledAt: cancelledAt,
		completedAt: completedAt,
		version:     version,
		updatedAt:   updatedAt,
	}
}

// apply runs one table-driven transition. The boolean result distinguishes a
// real transition from an idempotent repeat.
func (r *Reservation) apply(ev Event, now time.Time) (bool, error) {
	to, noop, err := guard(r.status, ev)
	if err != nil {
		return false, err
	}
	if noop {
		return false, nil
	}

	r.status = to
	r.stamp(to, now)
	r.updatedAt = now
	return true, nil
}

// stamp sets the lifecycle timestamp on first entry to a status. An expiry
// records its moment in cancelledAt, the closest audit equivalent.
func (r *Reservation) stamp(s Status, now time.Time) {
	switch s {
	case StatusConfirmed:
		if r.confirmedAt == nil {
			t := now
			r.confirmedAt = &t
		}
	case StatusCancelled, StatusExpired:
		if r.cancelledAt == nil {
			t := now
			r.cancelledAt = &t
		}
	case StatusCompleted:
		if r.completedAt == nil {
			t := now
			r.completedAt = &t
		}
	}
}

func (r *Reservation) Approve(now time.Time) (bool, error) {
	return r.apply(EventApprove, now)
}

func (r *Reservation) Reject(now time.Time) (bool, error) {
	return r.apply(EventReject, now)
}

func (r *Reservation) Cancel(now time.Time) (bool, error) {
	return r.apply(EventCancel, now)
}

func (r *Reservation) Expire(now time.Time) (bool, error) {
	return r.apply(EventExpire, now)
}

func (r *Reservation) Start(now time.Time) (bool, error) {
	return r.apply(EventStart, now)
}

func (r *Reservation) Complete(now time.Time) (bool, error) {
	return r.apply(EventComplete, now)
}

func (r *Reservation) OpenDispute(reason string, raisedBy uuid.UUID, now time.Time) (bool, error) {
	changed, err := r.apply(EventDispute, now)
	if err != nil || !changed {
		return changed, err
	}
	r.dispute = &DisputeRecord{Reason: reason, RaisedBy: raisedBy, RaisedAt: now}
	return true, nil
}

// Resolve applies the mediator's outcome. It is the only transition not in
// the table because its target depends on the decision.
func (r *Reservation) Resolve(outcome ResolutionOutcome, now time.Time) (bool, error) {
	var target Status
	switch outcome {
	case ResolutionCompleted:
		target = StatusCompleted
	case ResolutionCancelled:
		target = StatusCancelled
	default:
		return false, ErrUnknownOutcome
	}

	if r.status == target {
		return false, nil
	}
	if r.status != StatusDisputed {
		return false, &StateTransitionError{From: r.status, Requested: target, Event: EventResolveDispute}
	}

	r.status = target
	r.stamp(target, now)
	r.updatedAt = now
	return true, nil
}

func (r *Reservation) AttachPaymentIntent(ref string) {
	r.payment.IntentRef = ref
}

func (r *Reservation) MarkPaid(now time.Time) {
	r.payment.Status = PaymentPaid
	t := now
	r.payment.PaidAt = &t
}

func (r *Reservation) MarkPaymentFailed() {
	r.payment.Status = PaymentFailed
}

// RecordRefund stores the refund outcome and flips the payment status.
// Nothing is recorded for a zero-percentage cancellation.
func (r *Reservation) RecordRefund(reason string, quote RefundQuote, now time.Time) {
	if quote.Percentage <= 0 {
		return
	}
	r.refund = &RefundRecord{
		Reason:           reason,
		Percentage:       quote.Percentage,
		Amount:           quote.Amount,
		ServiceFeeRefund: quote.ServiceFeeRefund,
		ProcessedAt:      now,
	}
	if quote.Percentage >= 1.0 {
		r.payment.Status = PaymentRefunded
	} else {
		r.payment.Status = PaymentPartiallyRefunded
	}
}

// ActorFor reports which side of the booking the given user is on.
func (r *Reservation) ActorFor(userID uuid.UUID) (Actor, bool) {
	switch userID {
	case r.renterID:
		return ActorRenter, true
	case r.ownerID:
		return ActorOwner, true
	default:
		return "", false
	}
}

// ShouldExpire reports whether a pending request has outlived the approval
// window.
func (r *Reservation) ShouldExpire(now time.Time, window time.Duration) bool {
	return r.status == StatusPending && now.After(r.requestedAt.Add(window))
}

// DueToStart reports whether a confirmed reservation's start time has been
// reached.
func (r *Reservation) DueToStart(now time.Time) bool {
	return r.status == StatusConfirmed && !r.slot.Start().After(now)
}

// DueToComplete reports whether an active reservation's end time has been
// reached. Disputed reservations are frozen and never reported here.
func (r *Reservation) DueToComplete(now time.Time) bool {
	return r.status == StatusActive && !r.slot.End().After(now)
}

func (r *Reservation) HoldsInterval() bool {
	return r.status == StatusConfirmed || r.status == StatusActive
}

func (r *Reservation) ID() uuid.UUID           { return r.id }
func (r *Reservation) Reference() string       { return r.reference }
func (r *Reservation) ResourceID() uuid.UUID   { return r.resourceID }
func (r *Reservation) RenterID() uuid.UUID     { return r.renterID }
func (r *Reservation) OwnerID() uuid.UUID      { return r.ownerID }
func (r *Reservation) Slot() TimeSlot          { return r.slot }
func (r *Reservation) Status() Status          { return r.status }
func (r *Reservation) Pricing() PriceBreakdown { return r.pricing }
func (r *Reservation) DeliveryRequested() bool { return r.delivery }
func (r *Reservation) Payment() PaymentInfo    { return r.payment }
func (r *Reservation) Refund() *RefundRecord   { return r.refund }
func (r *Reservation) Dispute() *DisputeRecord { return r.dispute }
func (r *Reservation) RequestedAt() time.Time  { return r.requestedAt }
func (r *Reservation) ConfirmedAt() *time.Time { return r.confirmedAt }
func (r *Reservation) CancelledAt() *time.Time { return r.cancelledAt }
func (r *Reservation) CompletedAt() *time.Time { return r.completedAt }
func (r *Reservation) Version() int64          { return r.version }
func (r *Reservation) UpdatedAt() time.Time    { return r.updatedAt }

// SetVersion is for store implementations reloading optimistic state.
func (r *Reservation) SetVersion(v int64) { r.version = v }
