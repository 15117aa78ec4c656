package schedule

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"treinopp/internal/api"
	"treinopp/internal/apperr"
	"treinopp/internal/auth"
	"treinopp/internal/availability"
)

type ConflictChecker interface {
	CheckConflict(ctx context.Context, tenantID, trainerID string, candidate CandidateWindow) (*ConflictResult, error)
	ListBookableSlots(ctx context.Context, tenantID, trainerID string, now time.Time) ([]availability.Slot, error)
}

type SlotManager interface {
	List(ctx context.Context, caller auth.Identity, trainerID string) ([]availability.Slot, error)
	Create(ctx context.Context, caller auth.Identity, trainerID string, in SlotInput) (*availability.Slot, error)
	Reschedule(ctx context.Context, caller auth.Identity, trainerID, slotID string, in SlotInput) (*availability.Slot, error)
	Delete(ctx context.Context, caller auth.Identity, trainerID, slotID string) error
}

type Handler struct {
	checker ConflictChecker
	slots   SlotManager
	now     func() time.Time
}

func NewHandler(checker ConflictChecker, slots SlotManager) *Handler {
	return &Handler{checker: checker, slots: slots, now: time.Now}
}

// ValidateSchedule godoc
// @Summary      Validate schedule window
// @Description  Checks whether a candidate window collides with active bookings on the trainer's slots.
// @Tags         schedule
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        trainerId  path      string           true  "Trainer profile ID"
// @Param        request    body      ScheduleRequest  true  "Candidate window"
// @Success      200        {object}  ConflictResult
// @Failure      400        {object}  api.ErrorResponse
// @Failure      401        {object}  api.ErrorResponse
// @Failure      403        {object}  api.ErrorResponse
// @Failure      404        {object}  api.ErrorResponse
// @Failure      409        {object}  ConflictResult
// @Failure      502        {object}  api.ErrorResponse
// @Router       /trainers/{trainerId}/validate-schedule [post]
func (h *Handler) ValidateSchedule(c *gin.Context) {
	caller, ok := auth.GetIdentity(c)
	if !ok {
		api.RespondError(c, apperr.ErrUnauthorized)
		return
	}

	var req ScheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.RespondBindError(c, err)
		return
	}

	window, err := ParseWindow(req.Start, req.End, req.ExcludeSlotID)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	result, err := h.checker.CheckConflict(c.Request.Context(), caller.TenantID, c.Param("trainerId"), window)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	if result.HasConflict {
		c.JSON(http.StatusConflict, result)
		return
	}
	c.JSON(http.StatusOK, result)
}

// BookableSlots godoc
// @Summary      List bookable slots
// @Description  Future slots of the trainer that hold no active booking.
// @Tags         schedule
// @Security     BearerAuth
// @Produce      json
// @Param        trainerId  path      string  true  "Trainer profile ID"
// @Success      200        {object}  SlotsResponse
// @Failure      403        {object}  api.ErrorResponse
// @Failure      404        {object}  api.ErrorResponse
// @Failure      502        {object}  api.ErrorResponse
// @Router       /trainers/{trainerId}/bookable-slots [get]
func (h *Handler) BookableSlots(c *gin.Context) {
	caller, ok := auth.GetIdentity(c)
	if !ok {
		api.RespondError(c, apperr.ErrUnauthorized)
		return
	}

	slots, err := h.checker.ListBookableSlots(c.Request.Context(), caller.TenantID, c.Param("trainerId"), h.now())
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, SlotsResponse{Slots: slots})
}

// ListSlots godoc
// @Summary      List trainer slots
// @Tags         slots
// @Security     BearerAuth
// @Produce      json
// @Param        trainerId  path      string  true  "Trainer profile ID"
// @Success      200        {object}  SlotsResponse
// @Failure      502        {object}  api.ErrorResponse
// @Router       /trainers/{trainerId}/slots [get]
func (h *Handler) ListSlots(c *gin.Context) {
	caller, ok := auth.GetIdentity(c)
	if !ok {
		api.RespondError(c, apperr.ErrUnauthorized)
		return
	}

	slots, err := h.slots.List(c.Request.Context(), caller, c.Param("trainerId"))
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, SlotsResponse{Slots: slots})
}

// CreateSlot godoc
// @Summary      Create slot
// @Description  Adds an availability slot. Rejected with 409 when it overlaps an actively booked slot.
// @Tags         slots
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        trainerId  path      string                    true  "Trainer profile ID"
// @Param        request    body      availability.SlotRequest  true  "Slot window"
// @Success      201        {object}  availability.Slot
// @Failure      400        {object}  api.ErrorResponse
// @Failure      403        {object}  api.ErrorResponse
// @Failure      409        {object}  ConflictResult
// @Router       /trainers/{trainerId}/slots [post]
func (h *Handler) CreateSlot(c *gin.Context) {
	caller, in, ok := h.bindSlot(c)
	if !ok {
		return
	}

	slot, err := h.slots.Create(c.Request.Context(), caller, c.Param("trainerId"), in)
	if err != nil {
		respondWriteError(c, err)
		return
	}

	c.JSON(http.StatusCreated, slot)
}

// RescheduleSlot godoc
// @Summary      Reschedule slot
// @Tags         slots
// @Security     BearerAuth
// @Accept       json
// @Produce      json
// @Param        trainerId  path      string                    true  "Trainer profile ID"
// @Param        slotId     path      string                    true  "Slot ID"
// @Param        request    body      availability.SlotRequest  true  "New window"
// @Success      200        {object}  availability.Slot
// @Failure      400        {object}  api.ErrorResponse
// @Failure      403        {object}  api.ErrorResponse
// @Failure      404        {object}  api.ErrorResponse
// @Failure      409        {object}  ConflictResult
// @Router       /trainers/{trainerId}/slots/{slotId} [put]
func (h *Handler) RescheduleSlot(c *gin.Context) {
	caller, in, ok := h.bindSlot(c)
	if !ok {
		return
	}

	slot, err := h.slots.Reschedule(c.Request.Context(), caller, c.Param("trainerId"), c.Param("slotId"), in)
	if err != nil {
		respondWriteError(c, err)
		return
	}

	c.JSON(http.StatusOK, slot)
}

// DeleteSlot godoc
// @Summary      Delete slot
// @Tags         slots
// @Security     BearerAuth
// @Produce      json
// @Param        trainerId  path      string  true  "Trainer profile ID"
// @Param        slotId     path      string  true  "Slot ID"
// @Success      200        {object}  api.MessageResponse
// @Failure      403        {object}  api.ErrorResponse
// @Failure      404        {object}  api.ErrorResponse
// @Failure      409        {object}  api.ErrorResponse
// @Router       /trainers/{trainerId}/slots/{slotId} [delete]
func (h *Handler) DeleteSlot(c *gin.Context) {
	caller, ok := auth.GetIdentity(c)
	if !ok {
		api.RespondError(c, apperr.ErrUnauthorized)
		return
	}

	if err := h.slots.Delete(c.Request.Context(), caller, c.Param("trainerId"), c.Param("slotId")); err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, api.MessageResponse{Message: "Slot deleted successfully"})
}

func (h *Handler) bindSlot(c *gin.Context) (auth.Identity, SlotInput, bool) {
	caller, ok := auth.GetIdentity(c)
	if !ok {
		api.RespondError(c, apperr.ErrUnauthorized)
		return auth.Identity{}, SlotInput{}, false
	}

	var req availability.SlotRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.RespondBindError(c, err)
		return auth.Identity{}, SlotInput{}, false
	}

	window, err := ParseWindow(req.Start, req.End, "")
	if err != nil {
		api.RespondError(c, err)
		return auth.Identity{}, SlotInput{}, false
	}

	return caller, SlotInput{Window: window, Location: req.Location}, true
}

func respondWriteError(c *gin.Context, err error) {
	var conflict *ConflictError
	if errors.As(err, &conflict) {
		c.JSON(http.StatusConflict, conflict.Result)
		return
	}
	api.RespondError(c, err)
}
