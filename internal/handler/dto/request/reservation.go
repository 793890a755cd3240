package request

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

type CreateReservationRequest struct {
	ResourceID        uuid.UUID `json:"resource_id" binding:"required"`
	Start             time.Time `json:"start" binding:"required"`
	End               time.Time `json:"end" binding:"required"`
	DeliveryRequested bool      `json:"delivery_requested"`
}

type CancelReservationRequest struct {
	Reason string `json:"reason"`
}

func (r CancelReservationRequest) TrimmedReason() string {
	return strings.TrimSpace(r.Reason)
}

type DisputeReservationRequest struct {
	Reason string `json:"reason" binding:"required"`
}

type ResolveDisputeRequest struct {
	// Outcome is "completed" or "cancelled".
	Outcome string `json:"outcome" binding:"required"`
	// RefundPercentage is the mediator's decision, 0 to 1. Only meaningful
	// with a cancelled outcome.
	RefundPercentage float64 `json:"refund_percentage" binding:"min=0,max=1"`
	Reason           string  `json:"reason"`
}

type AvailabilityRequest struct {
	Start   time.Time `form:"start" binding:"required"`
	End     time.Time `form:"end" binding:"required"`
	Exclude *string   `form:"exclude"`
}
