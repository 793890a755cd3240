package readstore

import (
	"context"
	"errors"

	"gearshare/internal/infra"
	"gearshare/internal/usecase/queries"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ReservationReadStore serves denormalized read models straight from SQL,
// bypassing the aggregate.
type ReservationReadStore struct {
	pool *pgxpool.Pool
}

func NewReservationReadStore(pool *pgxpool.Pool) *ReservationReadStore {
	return &ReservationReadStore{pool: pool}
}

func (s *ReservationReadStore) FindByID(ctx context.Context, id uuid.UUID) (*queries.ReservationView, error) {
	var view queries.ReservationView
	err := s.pool.QueryRow(ctx, `
		SELECT r.id, r.reference, r.resource_id, res.title,
		       r.renter_id, r.owner_id,
		       r.start_time, r.end_time, r.status,
		       r.base_amount::text, r.deposit::text, r.service_fee::text,
		       r.delivery_fee::text, r.taxes::text, r.total_amount::text,
		       r.currency, r.payment_status, r.refund_amount::text,
		       r.requested_at, r.confirmed_at, r.cancelled_at, r.completed_at
		FROM reservations r
		JOIN resources res ON res.id = r.resource_id
		WHERE r.id = $1`, id,
	).Scan(
		&view.ID, &view.Reference, &view.ResourceID, &view.ResourceTitle,
		&view.RenterID, &view.OwnerID,
		&view.Start, &view.End, &view.Status,
		&view.BaseAmount, &view.Deposit, &view.ServiceFee,
		&view.DeliveryFee, &view.Taxes, &view.TotalAmount,
		&view.Currency, &view.PaymentStatus, &view.RefundAmount,
		&view.RequestedAt, &view.ConfirmedAt, &view.CancelledAt, &view.CompletedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, infra.WrapRepoErr("reservation not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to load reservation view", err)
	}
	return &view, nil
}

func (s *ReservationReadStore) ListByUser(ctx context.Context, userID uuid.UUID) ([]*queries.ReservationListItem, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT r.id, r.reference, r.resource_id, res.title,
		       r.start_time, r.end_time, r.status,
		       r.total_amount::text, r.currency, r.requested_at
		FROM reservations r
		JOIN resources res ON res.id = r.resource_id
		WHERE r.renter_id = $1 OR r.owner_id = $1
		ORDER BY r.requested_at DESC`, userID)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to list reservations", err)
	}
	defer rows.Close()

	var items []*queries.ReservationListItem
	for rows.Next() {
		var item queries.ReservationListItem
		if err := rows.Scan(
			&item.ID, &item.Reference, &item.ResourceID, &item.ResourceTitle,
			&item.Start, &item.End, &item.Status,
			&item.TotalAmount, &item.Currency, &item.RequestedAt,
		); err != nil {
			return nil, infra.WrapRepoErr("failed to scan reservation row", err)
		}
		items = append(items, &item)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to read reservation rows", err)
	}
	return items, nil
}
