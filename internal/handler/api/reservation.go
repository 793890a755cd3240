package api

import (
	"errors"
	"net/http"

	"gearshare/internal/domain/reservation"
	reqdto "gearshare/internal/handler/dto/request"
	resdto "gearshare/internal/handler/dto/response"
	"gearshare/internal/handler/httperr"
	"gearshare/internal/handler/middleware"
	"gearshare/internal/pkg/errs"
	"gearshare/internal/usecase/commands"
	"gearshare/internal/usecase/queries"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type ReservationHandler struct {
	commands commands.ReservationCommands
	queries  queries.ReservationQueries
}

func NewReservationHandler(cmds commands.ReservationCommands, qrs queries.ReservationQueries) *ReservationHandler {
	return &ReservationHandler{
		commands: cmds,
		queries:  qrs,
	}
}

// @Summary Create reservation
// @Description Request a time slot on a resource; the request stays pending until the owner approves
// @Tags reservations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body reqdto.CreateReservationRequest true "Reservation request"
// @Success 201 {object} resdto.CreatedReservationResponse
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Failure 422 {object} map[string]string
// @Router /reservations [post]
func (h *ReservationHandler) CreateReservation(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Internal server error",
		})
		return
	}

	var req reqdto.CreateReservationRequest
	if bindErr := c.ShouldBindJSON(&req); bindErr != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request format",
		})
		return
	}

	created, err := h.commands.Create(c.Request.Context(), commands.CreateReservationCommand{
		ResourceID:        req.ResourceID,
		RenterID:          userID,
		Start:             req.Start,
		End:               req.End,
		DeliveryRequested: req.DeliveryRequested,
	})
	if err != nil {
		h.writeCommandError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resdto.FromCreatedReservation(created))
}

// @Summary Get reservation
// @Description Get reservation by ID; only the renter or owner may view it
// @Tags reservations
// @Produce json
// @Security BearerAuth
// @Param id path string true "Reservation ID"
// @Success 200 {object} resdto.ReservationResponse
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /reservations/{id} [get]
func (h *ReservationHandler) GetReservation(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Internal server error",
		})
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid reservation ID format",
		})
		return
	}

	view, err := h.queries.GetByID(c.Request.Context(), id, userID)
	if err != nil {
		h.writeCommandError(c, err)
		return
	}

	c.JSON(http.StatusOK, resdto.FromReservationView(view))
}

// @Summary Get user reservations
// @Description Get all reservations where the current user is renter or owner
// @Tags reservations
// @Produce json
// @Security BearerAuth
// @Success 200 {array} resdto.ReservationListResponse
// @Failure 401 {object} map[string]string
// @Router /reservations [get]
func (h *ReservationHandler) GetUserReservations(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Internal server error",
		})
		return
	}

	items, err := h.queries.ListForUser(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Internal server error",
		})
		return
	}

	response := make([]*resdto.ReservationListResponse, len(items))
	for i, item := range items {
		response[i] = resdto.FromReservationListItem(item)
	}

	c.JSON(http.StatusOK, response)
}

// @Summary Approve reservation
// @Description Owner approves a pending reservation; payment is captured before confirmation
// @Tags reservations
// @Produce json
// @Security BearerAuth
// @Param id path string true "Reservation ID"
// @Success 204
// @Failure 400 {object} map[string]string
// @Failure 402 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /reservations/{id}/approve [post]
func (h *ReservationHandler) ApproveReservation(c *gin.Context) {
	h.lifecycleAction(c, func(id, userID uuid.UUID) error {
		return h.commands.Approve(c.Request.Context(), id, userID)
	})
}

// @Summary Reject reservation
// @Description Owner rejects a pending reservation
// @Tags reservations
// @Produce json
// @Security BearerAuth
// @Param id path string true "Reservation ID"
// @Success 204
// @Failure 400 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /reservations/{id}/reject [post]
func (h *ReservationHandler) RejectReservation(c *gin.Context) {
	h.lifecycleAction(c, func(id, userID uuid.UUID) error {
		return h.commands.Reject(c.Request.Context(), id, userID)
	})
}

// @Summary Cancel reservation
// @Description Either party cancels; the refund follows the notice-based policy
// @Tags reservations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Reservation ID"
// @Param request body reqdto.CancelReservationRequest false "Cancellation reason"
// @Success 204
// @Failure 400 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /reservations/{id}/cancel [post]
func (h *ReservationHandler) CancelReservation(c *gin.Context) {
	var req reqdto.CancelReservationRequest
	// Body is optional for cancellations.
	_ = c.ShouldBindJSON(&req)

	h.lifecycleAction(c, func(id, userID uuid.UUID) error {
		return h.commands.Cancel(c.Request.Context(), id, userID, req.TrimmedReason())
	})
}

// @Summary Dispute reservation
// @Description Either party freezes a confirmed or active reservation pending mediation
// @Tags reservations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Reservation ID"
// @Param request body reqdto.DisputeReservationRequest true "Dispute reason"
// @Success 204
// @Failure 400 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /reservations/{id}/dispute [post]
func (h *ReservationHandler) DisputeReservation(c *gin.Context) {
	var req reqdto.DisputeReservationRequest
	if bindErr := c.ShouldBindJSON(&req); bindErr != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request format",
		})
		return
	}

	h.lifecycleAction(c, func(id, userID uuid.UUID) error {
		return h.commands.Dispute(c.Request.Context(), id, userID, req.Reason)
	})
}

// @Summary Resolve dispute
// @Description Apply the mediation outcome to a disputed reservation
// @Tags reservations
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Reservation ID"
// @Param request body reqdto.ResolveDisputeRequest true "Resolution outcome"
// @Success 204
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /reservations/{id}/resolve [post]
func (h *ReservationHandler) ResolveDispute(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid reservation ID format",
		})
		return
	}

	var req reqdto.ResolveDisputeRequest
	if bindErr := c.ShouldBindJSON(&req); bindErr != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request format",
		})
		return
	}

	outcome := reservation.ResolutionOutcome(req.Outcome)
	if outcome != reservation.ResolutionCompleted && outcome != reservation.ResolutionCancelled {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Outcome must be completed or cancelled",
		})
		return
	}

	err = h.commands.ResolveDispute(c.Request.Context(), commands.ResolveDisputeCommand{
		ReservationID:    id,
		Outcome:          outcome,
		RefundPercentage: req.RefundPercentage,
		Reason:           req.Reason,
	})
	if err != nil {
		h.writeCommandError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *ReservationHandler) lifecycleAction(c *gin.Context, action func(id, userID uuid.UUID) error) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Internal server error",
		})
		return
	}

	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid reservation ID format",
		})
		return
	}

	if err := action(id, userID); err != nil {
		h.writeCommandError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *ReservationHandler) writeCommandError(c *gin.Context, err error) {
	var transitionErr *reservation.StateTransitionError

	switch {
	case errors.Is(err, errs.ErrResourceNotFound):
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Resource not found",
		})
	case errors.Is(err, errs.ErrReservationNotFound):
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Reservation not found",
		})
	case errors.Is(err, errs.ErrResourceDeleted):
		c.JSON(http.StatusGone, gin.H{
			"error": "Resource is no longer available",
		})
	case errors.Is(err, errs.ErrInvalidInterval):
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid reservation interval",
		})
	case errors.Is(err, errs.ErrSelfBooking):
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error": "Cannot reserve your own resource",
		})
	case errors.Is(err, errs.ErrNotPriceable):
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error": "No pricing tier covers the requested duration",
		})
	case errors.Is(err, errs.ErrNotAllowed):
		c.JSON(http.StatusForbidden, gin.H{
			"error": "Not allowed to perform this action",
		})
	case errors.Is(err, errs.ErrReservationConflict):
		c.JSON(http.StatusConflict, gin.H{
			"error": "Time slot is already reserved",
		})
	case errors.Is(err, errs.ErrStaleReservation):
		c.JSON(http.StatusConflict, gin.H{
			"error": "Reservation was modified concurrently, retry the request",
		})
	case errors.Is(err, errs.ErrPaymentFailed):
		c.JSON(http.StatusPaymentRequired, gin.H{
			"error": "Payment could not be processed",
		})
	case errors.As(err, &transitionErr):
		c.JSON(http.StatusConflict, gin.H{
			"error": "Invalid state transition: " + transitionErr.Error(),
		})
	default:
		httperr.AbortWithError(c, http.StatusInternalServerError, err, "Internal server error", nil)
	}
}
