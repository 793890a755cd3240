package errs

import "errors"

// Sentinel errors shared across usecase layers. Infra errors are marked with
// these via Mark so handlers can switch on errors.Is.
var (
	// Resource errors
	ErrResourceNotFound = errors.New("resource not found")
	ErrResourceDeleted  = errors.New("resource no longer available")

	// Reservation errors
	ErrReservationNotFound = errors.New("reservation not found")
	ErrReservationConflict = errors.New("reservation conflict")
	ErrInvalidInterval     = errors.New("invalid reservation interval")
	ErrSelfBooking         = errors.New("renter cannot book their own resource")
	ErrNotPriceable        = errors.New("no applicable pricing tier for duration")

	// Actor errors
	ErrNotAllowed = errors.New("actor not allowed to perform this action")

	// Payment errors
	ErrPaymentFailed = errors.New("payment operation failed")

	// Concurrency errors
	ErrStaleReservation = errors.New("reservation was modified concurrently")

	// Operation errors
	ErrDatabaseOperationFailed = errors.New("database operation failed")
)
