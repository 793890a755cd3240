package commands

import (
	"context"
	"time"

	"gearshare/internal/domain/money"
	"gearshare/internal/domain/reservation"
	"gearshare/internal/domain/resource"

	"github.com/google/uuid"
)

// ResourceRepository is the catalog boundary. The engine reads tiers,
// delivery terms and owner id, and must observe soft deletion.
type ResourceRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*resource.Resource, error)
	Create(ctx context.Context, res *resource.Resource) error
	Update(ctx context.Context, res *resource.Resource) error
}

// ReservationRepository is the engine's persistence boundary.
//
// CheckAndCreate must be atomic with respect to other creation attempts on
// the same resource: the conflict check and the insert run under a
// per-resource exclusive section (advisory lock in Postgres, mutex in the
// in-memory store). FindConflicts is the read-only availability predicate.
// Update applies optimistic concurrency on the version column and fails with
// a stale-kind error when the row moved underneath the caller.
type ReservationRepository interface {
	CheckAndCreate(ctx context.Context, res *reservation.Reservation, guard []reservation.Status, policy reservation.OverlapPolicy) error
	FindByID(ctx context.Context, id uuid.UUID) (*reservation.Reservation, error)
	Update(ctx context.Context, res *reservation.Reservation) error
	FindConflicts(ctx context.Context, resourceID uuid.UUID, start, end time.Time, statuses []reservation.Status, excludeID *uuid.UUID, policy reservation.OverlapPolicy) ([]*reservation.Reservation, error)
	DueExpirations(ctx context.Context, requestedBefore time.Time, limit int) ([]uuid.UUID, error)
	DueActivations(ctx context.Context, now time.Time, limit int) ([]uuid.UUID, error)
	DueCompletions(ctx context.Context, now time.Time, limit int) ([]uuid.UUID, error)
}

// PaymentGateway wraps the external processor. All calls are slow and
// fallible; implementations carry timeouts. Refund carries an idempotency
// key the processor deduplicates on, so a command retried after a stale
// persistence failure cannot refund the same capture twice.
type PaymentGateway interface {
	Authorize(ctx context.Context, amount money.Money, currency string, payerID uuid.UUID) (string, error)
	Capture(ctx context.Context, paymentRef string) error
	Refund(ctx context.Context, paymentRef string, amount money.Money, idempotencyKey string) (string, error)
}

// LifecycleEvent is emitted on reservation state changes. Delivery is
// fire-and-forget; a failed publish never rolls back the transition.
type LifecycleEvent struct {
	Kind          string    `json:"kind"`
	ReservationID uuid.UUID `json:"reservation_id"`
	Reference     string    `json:"reference"`
	ResourceID    uuid.UUID `json:"resource_id"`
	RenterID      uuid.UUID `json:"renter_id"`
	OwnerID       uuid.UUID `json:"owner_id"`
	OccurredAt    time.Time `json:"occurred_at"`
}

const (
	EventReservationRequested = "reservation_requested"
	EventReservationConfirmed = "reservation_confirmed"
	EventReservationCancelled = "reservation_cancelled"
	EventReservationCompleted = "reservation_completed"
	EventReservationExpired   = "reservation_expired"
	EventReservationDisputed  = "reservation_disputed"
)

type Notifier interface {
	Publish(ctx context.Context, event LifecycleEvent)
}

// FeePolicy is the platform fee schedule, external to the pricing
// calculator; the calculator only sums whatever the policy returns.
type FeePolicy interface {
	ServiceFee(base money.Money) money.Money
	Taxes(base money.Money) money.Money
}
