package booking

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"treinopp/internal/api"
	"treinopp/internal/apperr"
	"treinopp/internal/auth"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// BookSlot godoc
// @Summary      Book slot
// @Description  Reserves an availability slot for the authenticated member.
// @Tags         bookings
// @Security     BearerAuth
// @Produce      json
// @Param        slotId  path      string  true  "Slot ID"
// @Success      201     {object}  Booking
// @Failure      400     {object}  api.ErrorResponse
// @Failure      404     {object}  api.ErrorResponse
// @Failure      409     {object}  api.ErrorResponse
// @Failure      502     {object}  api.ErrorResponse
// @Router       /slots/{slotId}/book [post]
func (h *Handler) BookSlot(c *gin.Context) {
	caller, ok := auth.GetIdentity(c)
	if !ok {
		api.RespondError(c, apperr.ErrUnauthorized)
		return
	}

	b, err := h.service.Book(c.Request.Context(), caller, c.Param("slotId"))
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, b)
}

// CancelBooking godoc
// @Summary      Cancel booking
// @Description  Cancels a booking. Members cancel their own; trainers and owners cancel any on their schedule.
// @Tags         bookings
// @Security     BearerAuth
// @Produce      json
// @Param        bookingId  path      string  true  "Booking ID"
// @Success      200        {object}  api.MessageResponse
// @Failure      403        {object}  api.ErrorResponse
// @Failure      404        {object}  api.ErrorResponse
// @Failure      409        {object}  api.ErrorResponse
// @Router       /bookings/{bookingId}/cancel [post]
func (h *Handler) CancelBooking(c *gin.Context) {
	caller, ok := auth.GetIdentity(c)
	if !ok {
		api.RespondError(c, apperr.ErrUnauthorized)
		return
	}

	if err := h.service.Cancel(c.Request.Context(), caller, c.Param("bookingId")); err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, api.MessageResponse{Message: "Booking cancelled successfully"})
}

// MarkAttended godoc
// @Summary      Mark attendance
// @Tags         bookings
// @Security     BearerAuth
// @Produce      json
// @Param        bookingId  path      string  true  "Booking ID"
// @Success      200        {object}  api.MessageResponse
// @Failure      403        {object}  api.ErrorResponse
// @Failure      404        {object}  api.ErrorResponse
// @Failure      409        {object}  api.ErrorResponse
// @Router       /bookings/{bookingId}/attend [post]
func (h *Handler) MarkAttended(c *gin.Context) {
	caller, ok := auth.GetIdentity(c)
	if !ok {
		api.RespondError(c, apperr.ErrUnauthorized)
		return
	}

	if err := h.service.MarkAttended(c.Request.Context(), caller, c.Param("bookingId")); err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, api.MessageResponse{Message: "Attendance recorded"})
}

// ListMyBookings godoc
// @Summary      List my bookings
// @Tags         bookings
// @Security     BearerAuth
// @Produce      json
// @Success      200  {array}   BookingWithDetails
// @Failure      502  {object}  api.ErrorResponse
// @Router       /bookings [get]
func (h *Handler) ListMyBookings(c *gin.Context) {
	caller, ok := auth.GetIdentity(c)
	if !ok {
		api.RespondError(c, apperr.ErrUnauthorized)
		return
	}

	bookings, err := h.service.ListMine(c.Request.Context(), caller)
	if err != nil {
		api.RespondError(c, err)
		return
	}

	c.JSON(http.StatusOK, bookings)
}
