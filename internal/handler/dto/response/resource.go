package response

import (
	"time"

	"gearshare/internal/domain/money"
	"gearshare/internal/domain/resource"

	"github.com/google/uuid"
)

type ResourceResponse struct {
	ID          uuid.UUID `json:"id"`
	OwnerID     uuid.UUID `json:"owner_id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	HourlyRate  *string   `json:"hourly_rate,omitempty"`
	DailyRate   *string   `json:"daily_rate,omitempty"`
	WeeklyRate  *string   `json:"weekly_rate,omitempty"`
	MonthlyRate *string   `json:"monthly_rate,omitempty"`
	Deposit     string    `json:"deposit"`
	Currency    string    `json:"currency"`
	Delivery    bool      `json:"delivery_available"`
	DeliveryFee string    `json:"delivery_fee"`
	Status      string    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
}

func FromResource(res *resource.Resource) *ResourceResponse {
	tiers := res.Tiers()
	delivery := res.Delivery()

	return &ResourceResponse{
		ID:          res.ID(),
		OwnerID:     res.OwnerID(),
		Title:       res.Title(),
		Description: res.Description(),
		HourlyRate:  rateString(tiers.Hourly),
		DailyRate:   rateString(tiers.Daily),
		WeeklyRate:  rateString(tiers.Weekly),
		MonthlyRate: rateString(tiers.Monthly),
		Deposit:     tiers.Deposit.String(),
		Currency:    tiers.Currency,
		Delivery:    delivery.Available,
		DeliveryFee: delivery.Fee.String(),
		Status:      res.Status().String(),
		CreatedAt:   res.CreatedAt(),
	}
}

func rateString(m *money.Money) *string {
	if m == nil {
		return nil
	}
	s := m.String()
	return &s
}
