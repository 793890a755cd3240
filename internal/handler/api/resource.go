package api

import (
	"errors"
	"net/http"

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

type ResourceHandler struct {
	commands     commands.ResourceCommands
	availability queries.AvailabilityQueries
}

func NewResourceHandler(cmds commands.ResourceCommands, availability queries.AvailabilityQueries) *ResourceHandler {
	return &ResourceHandler{
		commands:     cmds,
		availability: availability,
	}
}

// @Summary Create resource
// @Description Register a bookable resource with at least one pricing tier
// @Tags resources
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body reqdto.CreateResourceRequest true "Resource definition"
// @Success 201 {object} resdto.ResourceResponse
// @Failure 400 {object} map[string]string
// @Failure 401 {object} map[string]string
// @Failure 422 {object} map[string]string
// @Router /resources [post]
func (h *ResourceHandler) CreateResource(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusInternalServerError, gin.H{
			"error": "Internal server error",
		})
		return
	}

	var req reqdto.CreateResourceRequest
	if bindErr := c.ShouldBindJSON(&req); bindErr != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request format",
		})
		return
	}

	created, err := h.commands.Create(c.Request.Context(), commands.CreateResourceCommand{
		OwnerID:     userID,
		Title:       req.Title,
		Description: req.Description,
		Hourly:      req.HourlyRate,
		Daily:       req.DailyRate,
		Weekly:      req.WeeklyRate,
		Monthly:     req.MonthlyRate,
		Deposit:     req.Deposit,
		Currency:    req.Currency,
		Delivery:    req.Delivery,
		DeliveryFee: req.DeliveryFee,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, resdto.FromResource(created))
}

// @Summary Update pricing tiers
// @Description Replace the resource's pricing tiers; existing reservations keep their snapshot
// @Tags resources
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Resource ID"
// @Param request body reqdto.UpdateTiersRequest true "New tiers"
// @Success 204
// @Failure 400 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 422 {object} map[string]string
// @Router /resources/{id}/tiers [put]
func (h *ResourceHandler) UpdateTiers(c *gin.Context) {
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
			"error": "Invalid resource ID format",
		})
		return
	}

	var req reqdto.UpdateTiersRequest
	if bindErr := c.ShouldBindJSON(&req); bindErr != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid request format",
		})
		return
	}

	err = h.commands.UpdateTiers(c.Request.Context(), commands.UpdateTiersCommand{
		ResourceID: id,
		ActorID:    userID,
		Hourly:     req.HourlyRate,
		Daily:      req.DailyRate,
		Weekly:     req.WeeklyRate,
		Monthly:    req.MonthlyRate,
		Deposit:    req.Deposit,
		Currency:   req.Currency,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// @Summary Delete resource
// @Description Soft-delete a resource; existing reservations are unaffected
// @Tags resources
// @Produce json
// @Security BearerAuth
// @Param id path string true "Resource ID"
// @Success 204
// @Failure 400 {object} map[string]string
// @Failure 403 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /resources/{id} [delete]
func (h *ResourceHandler) DeleteResource(c *gin.Context) {
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
			"error": "Invalid resource ID format",
		})
		return
	}

	if err := h.commands.Delete(c.Request.Context(), id, userID); err != nil {
		h.writeError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// @Summary Check availability
// @Description List reservations holding any part of the requested interval
// @Tags resources
// @Produce json
// @Security BearerAuth
// @Param id path string true "Resource ID"
// @Param start query string true "Interval start (RFC 3339)"
// @Param end query string true "Interval end (RFC 3339)"
// @Param exclude query string false "Reservation ID to exclude"
// @Success 200 {object} resdto.AvailabilityResponse
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /resources/{id}/availability [get]
func (h *ResourceHandler) GetAvailability(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid resource ID format",
		})
		return
	}

	var req reqdto.AvailabilityRequest
	if bindErr := c.ShouldBindQuery(&req); bindErr != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "start and end query parameters are required",
		})
		return
	}

	var excludeID *uuid.UUID
	if req.Exclude != nil {
		parsed, parseErr := uuid.Parse(*req.Exclude)
		if parseErr != nil {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": "Invalid exclude ID format",
			})
			return
		}
		excludeID = &parsed
	}

	windows, err := h.availability.FindConflicts(c.Request.Context(), id, req.Start, req.End, excludeID)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, resdto.FromConflictWindows(windows))
}

func (h *ResourceHandler) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, errs.ErrResourceNotFound):
		c.JSON(http.StatusNotFound, gin.H{
			"error": "Resource not found",
		})
	case errors.Is(err, errs.ErrResourceDeleted):
		c.JSON(http.StatusGone, gin.H{
			"error": "Resource is no longer available",
		})
	case errors.Is(err, errs.ErrInvalidInterval):
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Invalid interval",
		})
	case errors.Is(err, errs.ErrNotAllowed):
		c.JSON(http.StatusForbidden, gin.H{
			"error": "Not allowed to perform this action",
		})
	case errors.Is(err, errs.ErrNotPriceable):
		c.JSON(http.StatusUnprocessableEntity, gin.H{
			"error": "Resource requires at least one valid pricing tier",
		})
	default:
		httperr.AbortWithError(c, http.StatusInternalServerError, err, "Internal server error", nil)
	}
}
