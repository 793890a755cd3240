package reservation

type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusActive    Status = "active"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
	StatusDisputed  Status = "disputed"
	StatusExpired   Status = "expired"
)

func (s Status) String() string {
	return string(s)
}

func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusActive, StatusCompleted,
		StatusCancelled, StatusDisputed, StatusExpired:
		return true
	default:
		return false
	}
}

func (s Status) IsTerminal() bool {
	switch s {
	case StatusCompleted, StatusCancelled, StatusExpired:
		return true
	default:
		return false
	}
}

// HoldStatuses are the statuses whose intervals block other bookings.
func HoldStatuses() []Status {
	return []Status{StatusConfirmed, StatusActive}
}

// CreationGuardStatuses additionally include pending requests so two
// concurrent overlapping requests cannot both be accepted.
func CreationGuardStatuses() []Status {
	return []Status{StatusPending, StatusConfirmed, StatusActive}
}

type PaymentStatus string

const (
	PaymentPending           PaymentStatus = "pending"
	PaymentPaid              PaymentStatus = "paid"
	PaymentFailed            PaymentStatus = "failed"
	PaymentRefunded          PaymentStatus = "refunded"
	PaymentPartiallyRefunded PaymentStatus = "partially_refunded"
)

// Actor identifies which party performs an action on a reservation.
type Actor string

const (
	ActorRenter Actor = "renter"
	ActorOwner  Actor = "owner"
)

// Event is one of the external commands driving the lifecycle, plus the
// clock-driven transitions applied by the sweep.
type Event string

const (
	EventApprove        Event = "approve"
	EventReject         Event = "reject"
	EventCancel         Event = "cancel"
	EventDispute        Event = "dispute"
	EventResolveDispute Event = "resolve_dispute"
	EventExpire         Event = "expire"
	EventStart          Event = "start"
	EventComplete       Event = "complete"
)

// ResolutionOutcome is the decision an external dispute mediator hands back.
type ResolutionOutcome string

const (
	ResolutionCompleted ResolutionOutcome = "completed"
	ResolutionCancelled ResolutionOutcome = "cancelled"
)
