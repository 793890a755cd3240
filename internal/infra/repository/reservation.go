package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gearshare/internal/domain/money"
	"gearshare/internal/domain/reservation"
	"gearshare/internal/infra"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const reservationColumns = `
	id, reference, resource_id, renter_id, owner_id,
	start_time, end_time, status,
	base_amount::text, deposit::text, service_fee::text, delivery_fee::text,
	taxes::text, total_amount::text, currency, delivery_requested,
	payment_ref, payment_status, paid_at,
	refund_reason, refund_percentage, refund_amount::text, refund_service_fee::text, refund_processed_at,
	dispute_reason, dispute_raised_by, dispute_raised_at,
	requested_at, confirmed_at, cancelled_at, completed_at,
	version, updated_at`

type ReservationRepository struct {
	pool *pgxpool.Pool
}

func NewReservationRepository(pool *pgxpool.Pool) *ReservationRepository {
	return &ReservationRepository{pool: pool}
}

// CheckAndCreate runs the conflict check and the insert in one transaction,
// serialized per resource with an advisory lock so two concurrent requests
// for the same resource cannot interleave between check and write.
func (r *ReservationRepository) CheckAndCreate(
	ctx context.Context,
	res *reservation.Reservation,
	guard []reservation.Status,
	policy reservation.OverlapPolicy,
) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return infra.WrapRepoErr("failed to begin transaction", err)
	}
	defer func() {
		if rollbackErr := tx.Rollback(ctx); rollbackErr != nil && !errors.Is(rollbackErr, pgx.ErrTxClosed) {
			_ = rollbackErr
		}
	}()

	_, err = tx.Exec(ctx,
		`SELECT pg_advisory_xact_lock(hashtextextended($1::text, 0))`,
		res.ResourceID(),
	)
	if err != nil {
		return infra.WrapRepoErr("failed to acquire resource lock", err)
	}

	var count int
	query := fmt.Sprintf(
		`SELECT count(*) FROM reservations
		 WHERE resource_id = $1 AND status = ANY($2) AND %s`,
		overlapPredicate(policy),
	)
	err = tx.QueryRow(ctx, query, res.ResourceID(), statusStrings(guard), res.Slot().End(), res.Slot().Start()).Scan(&count)
	if err != nil {
		return infra.WrapRepoErr("failed to check conflicts", err)
	}
	if count > 0 {
		return infra.WrapRepoErr("interval already reserved", nil, infra.KindConflict)
	}

	if err := insertReservation(ctx, tx, res); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return infra.WrapRepoErr("failed to commit transaction", err)
	}
	return nil
}

// overlapPredicate builds the interval test with the candidate end as $3 and
// start as $4. Half-open treats [start, end) so touching boundaries pass;
// inclusive reproduces the legacy closed-bound behavior.
func overlapPredicate(policy reservation.OverlapPolicy) string {
	if policy == reservation.OverlapInclusive {
		return `(start_time <= $3 AND end_time >= $4)`
	}
	return `(start_time < $3 AND end_time > $4)`
}

func insertReservation(ctx context.Context, tx pgx.Tx, res *reservation.Reservation) error {
	p := res.Pricing()
	_, err := tx.Exec(ctx, `
		INSERT INTO reservations (
			id, reference, resource_id, renter_id, owner_id,
			start_time, end_time, status,
			base_amount, deposit, service_fee, delivery_fee, taxes, total_amount,
			currency, delivery_requested, payment_status,
			requested_at, version, updated_at
		) VALUES (
			$1, $2, $3, $4, $5,
			$6, $7, $8,
			$9, $10, $11, $12, $13, $14,
			$15, $16, $17,
			$18, $19, $20
		)`,
		res.ID(), res.Reference(), res.ResourceID(), res.RenterID(), res.OwnerID(),
		res.Slot().Start(), res.Slot().End(), res.Status().String(),
		p.BaseAmount.String(), p.Deposit.String(), p.ServiceFee.String(), p.DeliveryFee.String(),
		p.Taxes.String(), p.Total.String(),
		p.Currency, res.DeliveryRequested(), string(res.Payment().Status),
		res.RequestedAt(), res.Version(), res.UpdatedAt(),
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case pgerrcode.ExclusionViolation, pgerrcode.UniqueViolation:
				return infra.WrapRepoErr("reservation conflicts with existing booking", err, infra.KindConflict)
			}
		}
		return infra.WrapRepoErr("failed to insert reservation", err)
	}
	return nil
}

func (r *ReservationRepository) FindByID(ctx context.Context, id uuid.UUID) (*reservation.Reservation, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+reservationColumns+` FROM reservations WHERE id = $1`, id)

	entity, err := scanReservation(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, infra.WrapRepoErr("reservation not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to find reservation", err)
	}
	return entity, nil
}

// Update persists the full mutable state under optimistic concurrency. The
// exclusion constraint fires here when a transition into confirmed/active
// would double-book the interval.
func (r *ReservationRepository) Update(ctx context.Context, res *reservation.Reservation) error {
	p := res.Pricing()
	var (
		refundReason, refundAmount, refundServiceFee *string
		refundPercentage                             *float64
		refundProcessedAt                            *time.Time
	)
	if ref := res.Refund(); ref != nil {
		reason := ref.Reason
		amount := ref.Amount.String()
		serviceFee := ref.ServiceFeeRefund.String()
		pct := ref.Percentage
		processedAt := ref.ProcessedAt
		refundReason, refundAmount, refundServiceFee = &reason, &amount, &serviceFee
		refundPercentage, refundProcessedAt = &pct, &processedAt
	}

	var (
		disputeReason   *string
		disputeRaisedBy *uuid.UUID
		disputeRaisedAt *time.Time
	)
	if d := res.Dispute(); d != nil {
		reason := d.Reason
		raisedBy := d.RaisedBy
		raisedAt := d.RaisedAt
		disputeReason, disputeRaisedBy, disputeRaisedAt = &reason, &raisedBy, &raisedAt
	}

	tag, err := r.pool.Exec(ctx, `
		UPDATE reservations SET
			status = $1,
			payment_ref = $2, payment_status = $3, paid_at = $4,
			refund_reason = $5, refund_percentage = $6, refund_amount = $7,
			refund_service_fee = $8, refund_processed_at = $9,
			dispute_reason = $10, dispute_raised_by = $11, dispute_raised_at = $12,
			confirmed_at = $13, cancelled_at = $14, completed_at = $15,
			total_amount = $16,
			version = version + 1, updated_at = $17
		WHERE id = $18 AND version = $19`,
		res.Status().String(),
		res.Payment().IntentRef, string(res.Payment().Status), res.Payment().PaidAt,
		refundReason, refundPercentage, refundAmount,
		refundServiceFee, refundProcessedAt,
		disputeReason, disputeRaisedBy, disputeRaisedAt,
		res.ConfirmedAt(), res.CancelledAt(), res.CompletedAt(),
		p.Total.String(),
		res.UpdatedAt(),
		res.ID(), res.Version(),
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.ExclusionViolation {
			return infra.WrapRepoErr("interval already held by another reservation", err, infra.KindConflict)
		}
		return infra.WrapRepoErr("failed to update reservation", err)
	}
	if tag.RowsAffected() == 0 {
		return infra.WrapRepoErr("reservation version conflict", nil, infra.KindStale)
	}

	res.SetVersion(res.Version() + 1)
	return nil
}

func (r *ReservationRepository) FindConflicts(
	ctx context.Context,
	resourceID uuid.UUID,
	start, end time.Time,
	statuses []reservation.Status,
	excludeID *uuid.UUID,
	policy reservation.OverlapPolicy,
) ([]*reservation.Reservation, error) {
	query := fmt.Sprintf(
		`SELECT %s FROM reservations
		 WHERE resource_id = $1 AND status = ANY($2) AND %s`,
		reservationColumns, overlapPredicate(policy),
	)
	args := []any{resourceID, statusStrings(statuses), end, start}
	if excludeID != nil {
		query += ` AND id <> $5`
		args = append(args, *excludeID)
	}
	query += ` ORDER BY start_time`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to query conflicts", err)
	}
	defer rows.Close()

	var result []*reservation.Reservation
	for rows.Next() {
		entity, err := scanReservation(rows)
		if err != nil {
			return nil, infra.WrapRepoErr("failed to scan conflict row", err)
		}
		result = append(result, entity)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to read conflict rows", err)
	}
	return result, nil
}

func (r *ReservationRepository) DueExpirations(ctx context.Context, requestedBefore time.Time, limit int) ([]uuid.UUID, error) {
	return r.dueIDs(ctx,
		`SELECT id FROM reservations
		 WHERE status = 'pending' AND requested_at < $1
		 ORDER BY requested_at LIMIT $2`,
		requestedBefore, limit)
}

func (r *ReservationRepository) DueActivations(ctx context.Context, now time.Time, limit int) ([]uuid.UUID, error) {
	return r.dueIDs(ctx,
		`SELECT id FROM reservations
		 WHERE status = 'confirmed' AND start_time <= $1
		 ORDER BY start_time LIMIT $2`,
		now, limit)
}

func (r *ReservationRepository) DueCompletions(ctx context.Context, now time.Time, limit int) ([]uuid.UUID, error) {
	return r.dueIDs(ctx,
		`SELECT id FROM reservations
		 WHERE status = 'active' AND end_time <= $1
		 ORDER BY end_time LIMIT $2`,
		now, limit)
}

func (r *ReservationRepository) dueIDs(ctx context.Context, query string, cutoff time.Time, limit int) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx, query, cutoff, limit)
	if err != nil {
		return nil, infra.WrapRepoErr("failed to query due reservations", err)
	}
	defer rows.Close()

	var ids []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, infra.WrapRepoErr("failed to scan reservation id", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, infra.WrapRepoErr("failed to read due rows", err)
	}
	return ids, nil
}

func statusStrings(statuses []reservation.Status) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = s.String()
	}
	return out
}

func scanReservation(row pgx.Row) (*reservation.Reservation, error) {
	var (
		id, resourceID, renterID, ownerID            uuid.UUID
		reference, status, currency, paymentStatus   string
		startTime, endTime, requestedAt, updatedAt   time.Time
		baseAmount, deposit, serviceFee, deliveryFee string
		taxes, totalAmount                           string
		deliveryRequested                            bool
		paymentRef                                   string
		paidAt                                       *time.Time
		refundReason, refundAmount, refundServiceFee *string
		refundPercentage                             *float64
		refundProcessedAt                            *time.Time
		disputeReason                                *string
		disputeRaisedBy                              *uuid.UUID
		disputeRaisedAt                              *time.Time
		confirmedAt, cancelledAt, completedAt        *time.Time
		version                                      int64
	)

	err := row.Scan(
		&id, &reference, &resourceID, &renterID, &ownerID,
		&startTime, &endTime, &status,
		&baseAmount, &deposit, &serviceFee, &deliveryFee,
		&taxes, &totalAmount, &currency, &deliveryRequested,
		&paymentRef, &paymentStatus, &paidAt,
		&refundReason, &refundPercentage, &refundAmount, &refundServiceFee, &refundProcessedAt,
		&disputeReason, &disputeRaisedBy, &disputeRaisedAt,
		&requestedAt, &confirmedAt, &cancelledAt, &completedAt,
		&version, &updatedAt,
	)
	if err != nil {
		return nil, err
	}

	pricing := reservation.PriceBreakdown{Currency: currency}
	for _, col := range []struct {
		dst  *money.Money
		raw  string
		name string
	}{
		{&pricing.BaseAmount, baseAmount, "base_amount"},
		{&pricing.Deposit, deposit, "deposit"},
		{&pricing.ServiceFee, serviceFee, "service_fee"},
		{&pricing.DeliveryFee, deliveryFee, "delivery_fee"},
		{&pricing.Taxes, taxes, "taxes"},
		{&pricing.Total, totalAmount, "total_amount"},
	} {
		m, perr := parseMoney(col.raw, col.name)
		if perr != nil {
			return nil, perr
		}
		*col.dst = m
	}

	payment := reservation.PaymentInfo{
		IntentRef: paymentRef,
		Status:    reservation.PaymentStatus(paymentStatus),
		PaidAt:    paidAt,
	}

	var refund *reservation.RefundRecord
	if refundAmount != nil && refundPercentage != nil && refundProcessedAt != nil {
		amount, perr := parseMoney(*refundAmount, "refund_amount")
		if perr != nil {
			return nil, perr
		}
		feeRefund, perr := parseMoney(derefOr(refundServiceFee, "0"), "refund_service_fee")
		if perr != nil {
			return nil, perr
		}
		refund = &reservation.RefundRecord{
			Reason:           deref(refundReason),
			Percentage:       *refundPercentage,
			Amount:           amount,
			ServiceFeeRefund: feeRefund,
			ProcessedAt:      *refundProcessedAt,
		}
	}

	var dispute *reservation.DisputeRecord
	if disputeRaisedAt != nil {
		dispute = &reservation.DisputeRecord{
			Reason:   deref(disputeReason),
			RaisedAt: *disputeRaisedAt,
		}
		if disputeRaisedBy != nil {
			dispute.RaisedBy = *disputeRaisedBy
		}
	}

	return reservation.Reconstruct(
		id, reference, resourceID, renterID, ownerID,
		reservation.ReconstructTimeSlot(startTime, endTime),
		reservation.Status(status),
		pricing, deliveryRequested, payment, refund, dispute,
		requestedAt, confirmedAt, cancelledAt, completedAt,
		version, updatedAt,
	), nil
}

func parseMoney(raw, column string) (money.Money, error) {
	m, err := money.Parse(raw)
	if err != nil {
		return money.Money{}, infra.WrapRepoErr("invalid numeric value in "+column, err)
	}
	return m, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func derefOr(s *string, fallback string) string {
	if s == nil {
		return fallback
	}
	return *s
}
