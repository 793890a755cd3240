package queries

import (
	"context"

	"gearshare/internal/infra"
	"gearshare/internal/pkg/errs"

	"github.com/google/uuid"
)

// ReservationReadStore is the read-side persistence port.
type ReservationReadStore interface {
	FindByID(ctx context.Context, id uuid.UUID) (*ReservationView, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*ReservationListItem, error)
}

type ReservationQueries interface {
	GetByID(ctx context.Context, id, requesterID uuid.UUID) (*ReservationView, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]*ReservationListItem, error)
}

type reservationQueries struct {
	store ReservationReadStore
}

func NewReservationQueries(store ReservationReadStore) ReservationQueries {
	return &reservationQueries{store: store}
}

// GetByID returns the reservation only to its renter or owner.
func (q *reservationQueries) GetByID(ctx context.Context, id, requesterID uuid.UUID) (*ReservationView, error) {
	view, err := q.store.FindByID(ctx, id)
	if err != nil {
		if infra.IsKind(err, infra.KindNotFound) {
			return nil, errs.Mark(err, errs.ErrReservationNotFound)
		}
		return nil, errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}

	if view.RenterID != requesterID && view.OwnerID != requesterID {
		return nil, errs.ErrNotAllowed
	}
	return view, nil
}

func (q *reservationQueries) ListForUser(ctx context.Context, userID uuid.UUID) ([]*ReservationListItem, error) {
	items, err := q.store.ListByUser(ctx, userID)
	if err != nil {
		return nil, errs.Mark(err, errs.ErrDatabaseOperationFailed)
	}
	return items, nil
}
