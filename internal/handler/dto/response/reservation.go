package response

import (
	"time"

	"gearshare/internal/domain/reservation"
	"gearshare/internal/usecase/queries"

	"github.com/google/uuid"
	"github.com/jinzhu/copier"
)

type ReservationResponse struct {
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

type ReservationListResponse struct {
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

// CreatedReservationResponse is the creation acknowledgement, built from the
// aggregate before any read model exists.
type CreatedReservationResponse struct {
	ID          uuid.UUID `json:"id"`
	Reference   string    `json:"reference"`
	ResourceID  uuid.UUID `json:"resource_id"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	Status      string    `json:"status"`
	TotalAmount string    `json:"total_amount"`
	Currency    string    `json:"currency"`
	RequestedAt time.Time `json:"requested_at"`
}

type AvailabilityResponse struct {
	Available bool             `json:"available"`
	Conflicts []ConflictWindow `json:"conflicts"`
}

type ConflictWindow struct {
	Start  time.Time `json:"start"`
	End    time.Time `json:"end"`
	Status string    `json:"status"`
}

func FromReservationView(view *queries.ReservationView) *ReservationResponse {
	var resp ReservationResponse
	_ = copier.Copy(&resp, view)
	return &resp
}

func FromReservationListItem(item *queries.ReservationListItem) *ReservationListResponse {
	var resp ReservationListResponse
	_ = copier.Copy(&resp, item)
	return &resp
}

func FromCreatedReservation(res *reservation.Reservation) *CreatedReservationResponse {
	return &CreatedReservationResponse{
		ID:          res.ID(),
		Reference:   res.Reference(),
		ResourceID:  res.ResourceID(),
		Start:       res.Slot().Start(),
		End:         res.Slot().End(),
		Status:      res.Status().String(),
		TotalAmount: res.Pricing().Total.String(),
		Currency:    res.Pricing().Currency,
		RequestedAt: res.RequestedAt(),
	}
}

func FromConflictWindows(windows []queries.ConflictWindow) *AvailabilityResponse {
	conflicts := make([]ConflictWindow, len(windows))
	for i, w := range windows {
		conflicts[i] = ConflictWindow{Start: w.Start, End: w.End, Status: w.Status}
	}
	return &AvailabilityResponse{
		Available: len(conflicts) == 0,
		Conflicts: conflicts,
	}
}
