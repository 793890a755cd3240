package repository

import (
	"context"
	"errors"
	"time"

	"gearshare/internal/domain/money"
	"gearshare/internal/domain/resource"
	"gearshare/internal/infra"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type ResourceRepository struct {
	pool *pgxpool.Pool
}

func NewResourceRepository(pool *pgxpool.Pool) *ResourceRepository {
	return &ResourceRepository{pool: pool}
}

func (r *ResourceRepository) FindByID(ctx context.Context, id uuid.UUID) (*resource.Resource, error) {
	var (
		ownerID                                 uuid.UUID
		title, description, currency, status    string
		hourly, daily, weekly, monthly, deposit *string
		deliveryAvailable                       bool
		deliveryFee                             *string
		createdAt, updatedAt                    time.Time
	)

	err := r.pool.QueryRow(ctx, `
		SELECT owner_id, title, description,
		       hourly_rate::text, daily_rate::text, weekly_rate::text, monthly_rate::text,
		       deposit::text, currency,
		       delivery_available, delivery_fee::text,
		       status, created_at, updated_at
		FROM resources WHERE id = $1`, id,
	).Scan(
		&ownerID, &title, &description,
		&hourly, &daily, &weekly, &monthly,
		&deposit, &currency,
		&deliveryAvailable, &deliveryFee,
		&status, &createdAt, &updatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, infra.WrapRepoErr("resource not found", err, infra.KindNotFound)
		}
		return nil, infra.WrapRepoErr("failed to find resource", err)
	}

	tiers := resource.PricingTiers{Currency: currency}
	for _, col := range []struct {
		dst  **money.Money
		raw  *string
		name string
	}{
		{&tiers.Hourly, hourly, "hourly_rate"},
		{&tiers.Daily, daily, "daily_rate"},
		{&tiers.Weekly, weekly, "weekly_rate"},
		{&tiers.Monthly, monthly, "monthly_rate"},
	} {
		m, perr := optMoney(col.raw, col.name)
		if perr != nil {
			return nil, perr
		}
		*col.dst = m
	}
	tiers.Deposit, err = valMoney(deposit, "deposit")
	if err != nil {
		return nil, err
	}
	fee, err := valMoney(deliveryFee, "delivery_fee")
	if err != nil {
		return nil, err
	}
	delivery := resource.DeliveryTerms{
		Available: deliveryAvailable,
		Fee:       fee,
	}

	return resource.Reconstruct(
		id, ownerID, title, description,
		tiers, delivery,
		resource.Status(status),
		createdAt, updatedAt,
	), nil
}

func (r *ResourceRepository) Create(ctx context.Context, res *resource.Resource) error {
	tiers := res.Tiers()
	delivery := res.Delivery()

	_, err := r.pool.Exec(ctx, `
		INSERT INTO resources (
			id, owner_id, title, description,
			hourly_rate, daily_rate, weekly_rate, monthly_rate,
			deposit, currency, delivery_available, delivery_fee,
			status, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`,
		res.ID(), res.OwnerID(), res.Title(), res.Description(),
		moneyArg(tiers.Hourly), moneyArg(tiers.Daily), moneyArg(tiers.Weekly), moneyArg(tiers.Monthly),
		tiers.Deposit.String(), tiers.Currency,
		delivery.Available, delivery.Fee.String(),
		res.Status().String(), res.CreatedAt(), res.UpdatedAt(),
	)
	if err != nil {
		return infra.WrapRepoErr("failed to insert resource", err)
	}
	return nil
}

func (r *ResourceRepository) Update(ctx context.Context, res *resource.Resource) error {
	tiers := res.Tiers()
	delivery := res.Delivery()

	tag, err := r.pool.Exec(ctx, `
		UPDATE resources SET
			title = $1, description = $2,
			hourly_rate = $3, daily_rate = $4, weekly_rate = $5, monthly_rate = $6,
			deposit = $7, currency = $8,
			delivery_available = $9, delivery_fee = $10,
			status = $11, updated_at = $12
		WHERE id = $13`,
		res.Title(), res.Description(),
		moneyArg(tiers.Hourly), moneyArg(tiers.Daily), moneyArg(tiers.Weekly), moneyArg(tiers.Monthly),
		tiers.Deposit.String(), tiers.Currency,
		delivery.Available, delivery.Fee.String(),
		res.Status().String(), res.UpdatedAt(),
		res.ID(),
	)
	if err != nil {
		return infra.WrapRepoErr("failed to update resource", err)
	}
	if tag.RowsAffected() == 0 {
		return infra.WrapRepoErr("resource not found", nil, infra.KindNotFound)
	}
	return nil
}

func optMoney(s *string, column string) (*money.Money, error) {
	if s == nil {
		return nil, nil
	}
	m, err := parseMoney(*s, column)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func valMoney(s *string, column string) (money.Money, error) {
	if s == nil {
		return money.Zero(), nil
	}
	return parseMoney(*s, column)
}

func moneyArg(m *money.Money) *string {
	if m == nil {
		return nil
	}
	s := m.String()
	return &s
}
