package queries

import (
	"context"
	"time"

	"gearshare/internal/domain/reservation"
	"gearshare/internal/infra"
	"gearshare/internal/pkg/errs"
	"gearshare/internal/usecase/commands"

	"github.com/google/uuid"
)

// AvailabilityQueries answers "is this interval free" against the currently
// held reservations. Read-only; the creation-time guard lives in the
// command path.
type AvailabilityQueries interface {
	FindConflicts(ctx context.Context, resourceID uuid.UUID, start, end time.Time, excludeID *uuid.UUID) ([]ConflictWindow, error)
}

type availabilityQueries struct {
	reservations commands.ReservationRepository
	resources    commands.ResourceRepository
	policy       reservation.OverlapPolicy
}

func NewAvailabilityQueries(
	reservations commands.ReservationRepository,
	resources commands.ResourceRepository,
	policy reservation.OverlapPolicy,
) AvailabilityQueries {
	if policy == "" {
		policy = reservation.OverlapHalfOpen
	}
	return &availabilityQueries{
		reservations: reservations,
		resources:    resources,
		policy:       policy,
	}
}

func (q *availabilityQueries) FindConflicts(
	ctx context.Context,
	resourceID uuid.UUID,
	start, end time.Time,
	excludeID *uuid.UUID,
) ([]ConflictWindow, error) {
	if !end.After(start) {
		return nil, errs.Mark(reservation.ErrEndNotAfterStart, errs.ErrInvalidInterval)
	}

	// Unknown resources surface NotFound rather than an empty answer.
	if _, err := q.resources.FindByID(ctx, resourceID); err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, errs.Mark(err, errs.ErrResourceNotFound)
		}
		return nil, errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}

	conflicts, err := q.reservations.FindConflicts(ctx, resourceID, start, end, reservation.HoldStatuses(), excludeID, q.policy)
	if err != nil {
		return nil, errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}

	windows := make([]ConflictWindow, len(conflicts))
	for i, c := range conflicts {
		windows[i] = ConflictWindow{
			Start:  c.Slot().Start(),
			End:    c.Slot().End(),
			Status: c.Status().String(),
		}
	}
	return windows, nil
}
