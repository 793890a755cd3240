package queries

import (
	"time"

	"github.com/google/uuid"
)

// ReservationView is the read model returned to API callers. Monetary
// fields are formatted strings with two decimal places.
type ReservationView struct {
	ID            uuid.UUID  `json:"id"`
	Reference     string     `json:"reference"`
	ResourceID    uuid.UUID  `json:"resource_id"`
	ResourceTitle string     `json:"resource_title"`
	RenterID      uuid.UUID  `json:"renter_id"`
	OwnerID       uuid.UUID  `json:"owner_id"`
	Start         time.Time  `json:"start"`
	End           time.Time  `json:"end"`
	Status        string     `json:"status"`
	BaseAmount    string     `json:"base_amount"`
	Deposit       string     `json:"deposit"`
	ServiceFee    string     `json:"service_fee"`
	DeliveryFee   string     `json:"delivery_fee"`
	Taxes         string     `json:"taxes"`
	TotalAmount   string     `json:"total_amount"`
	Currency      string     `json:"currency"`
	PaymentStatus string     `json:"payment_status"`
	RefundAmount  *string    `json:"refund_amount,omitempty"`
	RequestedAt   time.Time  `json:"requested_at"`
	ConfirmedAt   *time.Time `json:"confirmed_at,omitempty"`
	CancelledAt   *time.Time `json:"cancelled_at,omitempty"`
	CompletedAt   *time.Time `json:"completed_at,omitempty"`
}

type ReservationListItem struct {
	ID            uuid.UUID `json:"id"`
	Reference     string    `json:"reference"`
	ResourceID    uuid.UUID `json:"resource_id"`
	ResourceTitle string    `json:"resource_title"`
	Start         time.Time `json:"start"`
	End           time.Time `json:"end"`
	Status        string    `json:"status"`
	TotalAmount   string    `json:"total_amount"`
	Currency      string    `json:"currency"`
	RequestedAt   time.Time `json:"requested_at"`
}

// ConflictWindow is one occupied interval returned by the availability
// query. Reservation identities are withheld from requesters who are not a
// party to them.
type ConflictWindow struct {
	Start  time.Time `json:"start"`
	End    time.Time `json:"end"`
	Status string    `json:"status"`
}
