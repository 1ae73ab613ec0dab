package booking

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"classbook/internal/api"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	service Service
}

func NewHandler(service Service) *Handler {
	return &Handler{service: service}
}

// @Summary      Book a class session
// @Description  Reserves one spot for a guest. The returned confirmation code is the guest's only handle on the booking.
// @Tags         bookings
// @Accept       json
// @Produce      json
// @Param        sessionID path int true "Session ID"
// @Param        request body booking.CreateBookingRequest true "Guest details"
// @Success      201 {object} booking.ClassBooking
// @Failure      400 {object} api.ErrorResponse
// @Failure      404 {object} api.ErrorResponse
// @Failure      409 {object} api.ErrorResponse
// @Router       /sessions/{sessionID}/bookings [post]
func (h *Handler) CreateBooking(c *gin.Context) {
	sessionID, err := strconv.Atoi(c.Param("sessionID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Invalid session ID"})
		return
	}

	var req CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}

	b, err := h.service.CreateBooking(c.Request.Context(), sessionID, &req)
	if err != nil {
		switch {
		case errors.Is(err, ErrSessionNotFound):
			c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "Session not found"})
		case errors.Is(err, ErrCapacityExceeded), errors.Is(err, ErrSessionCancelled), errors.Is(err, ErrDuplicateBooking):
			c.JSON(http.StatusConflict, api.ErrorResponse{Error: err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to create booking"})
		}
		return
	}

	c.JSON(http.StatusCreated, b)
}

// @Summary      Look up a booking
// @Tags         bookings
// @Produce      json
// @Param        code path string true "Confirmation code"
// @Success      200 {object} booking.BookingWithSession
// @Failure      404 {object} api.ErrorResponse
// @Router       /bookings/{code} [get]
func (h *Handler) GetBooking(c *gin.Context) {
	b, err := h.service.GetBookingByCode(c.Request.Context(), c.Param("code"))
	if err != nil {
		if errors.Is(err, ErrBookingNotFound) {
			c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "Booking not found"})
			return
		}
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to fetch booking"})
		return
	}

	c.JSON(http.StatusOK, b)
}

// @Summary      Cancel a booking
// @Description  Guests cancel with their confirmation code plus the email used to book.
// @Tags         bookings
// @Accept       json
// @Produce      json
// @Param        code path string true "Confirmation code"
// @Param        request body booking.CancelBookingRequest true "Guest email"
// @Success      200 {object} booking.ClassBooking
// @Failure      403 {object} api.ErrorResponse
// @Failure      404 {object} api.ErrorResponse
// @Failure      409 {object} api.ErrorResponse
// @Router       /bookings/{code}/cancel [post]
func (h *Handler) CancelBooking(c *gin.Context) {
	var req CancelBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}

	b, err := h.service.CancelBookingByCode(c.Request.Context(), c.Param("code"), req.GuestEmail)
	if err != nil {
		switch {
		case errors.Is(err, ErrBookingNotFound):
			c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "Booking not found"})
		case errors.Is(err, ErrEmailMismatch):
			c.JSON(http.StatusForbidden, api.ErrorResponse{Error: err.Error()})
		case errors.Is(err, ErrNotCancellable):
			c.JSON(http.StatusConflict, api.ErrorResponse{Error: err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to cancel booking"})
		}
		return
	}

	c.JSON(http.StatusOK, b)
}

// @Summary      List bookings
// @Tags         bookings
// @Produce      json
// @Security     BearerAuth
// @Param        session_id query int false "Filter by session"
// @Param        status query string false "Filter by status"
// @Param        guest_email query string false "Filter by guest email"
// @Success      200 {array} booking.ClassBooking
// @Router       /admin/bookings [get]
func (h *Handler) ListBookings(c *gin.Context) {
	var f BookingFilter

	if raw := c.Query("session_id"); raw != "" {
		id, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Invalid session_id"})
			return
		}
		f.SessionID = &id
	}
	if raw := c.Query("status"); raw != "" {
		f.Status = &raw
	}
	if raw := c.Query("guest_email"); raw != "" {
		f.GuestEmail = &raw
	}

	bookings, err := h.service.ListBookings(c.Request.Context(), f)
	if err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to list bookings"})
		return
	}

	c.JSON(http.StatusOK, bookings)
}

// @Summary      Update booking status
// @Description  Staff move a confirmed booking to cancelled, no_show, or completed. Terminal states cannot change.
// @Tags         bookings
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        bookingID path int true "Booking ID"
// @Param        request body booking.UpdateStatusRequest true "New status"
// @Success      200 {object} booking.ClassBooking
// @Failure      404 {object} api.ErrorResponse
// @Failure      409 {object} api.ErrorResponse
// @Router       /admin/bookings/{bookingID}/status [put]
func (h *Handler) UpdateStatus(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("bookingID"))
	if err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "Invalid booking ID"})
		return
	}

	var req UpdateStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: err.Error()})
		return
	}

	b, err := h.service.UpdateStatus(c.Request.Context(), id, req.Status)
	if err != nil {
		switch {
		case errors.Is(err, ErrBookingNotFound):
			c.JSON(http.StatusNotFound, api.ErrorResponse{Error: "Booking not found"})
		case errors.Is(err, ErrStatusTransition):
			c.JSON(http.StatusConflict, api.ErrorResponse{Error: err.Error()})
		default:
			c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to update booking"})
		}
		return
	}

	c.JSON(http.StatusOK, b)
}

// @Summary      Booking stats
// @Tags         bookings
// @Produce      json
// @Security     BearerAuth
// @Param        from query string false "RFC3339 lower bound on created_at"
// @Param        to query string false "RFC3339 upper bound on created_at"
// @Success      200 {object} booking.BookingStats
// @Router       /admin/bookings/stats [get]
func (h *Handler) GetStats(c *gin.Context) {
	var from, to *time.Time
	if raw := c.Query("from"); raw != "" {
		v, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "from must be RFC3339"})
			return
		}
		from = &v
	}
	if raw := c.Query("to"); raw != "" {
		v, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, api.ErrorResponse{Error: "to must be RFC3339"})
			return
		}
		to = &v
	}

	stats, err := h.service.GetStats(c.Request.Context(), from, to)
	if err != nil {
		c.JSON(http.StatusInternalServerError, api.ErrorResponse{Error: "Failed to fetch stats"})
		return
	}

	c.JSON(http.StatusOK, stats)
}
