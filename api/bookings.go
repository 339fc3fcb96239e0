package api

import (
	"context"
	"net/http"

	"github.com/Domenick1991/rideshare/internal/domain"
	"github.com/Domenick1991/rideshare/internal/service/booking"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type BookingHandler struct {
	service booking.BookingUseCase
}

type bookingOp func(ctx context.Context, id, userID uuid.UUID) (*domain.Booking, error)

type createBookingRequest struct {
	RideID uuid.UUID `json:"ride_id"`
}

func NewBookingHandler(service booking.BookingUseCase) *BookingHandler {
	return &BookingHandler{service: service}
}

func (h *BookingHandler) Register(router *gin.RouterGroup) {
	router.POST("/bookings", h.create)
	router.GET("/bookings", h.list)
	router.GET("/bookings/:id", h.get)
	router.DELETE("/bookings/:id", h.cancel)
	router.PATCH("/bookings/:id/confirm", h.confirm)
}

func (h *BookingHandler) create(c *gin.Context) {
	id, ok := mustIdentity(c)
	if !ok {
		return
	}
	var req createBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	if req.RideID == uuid.Nil {
		paramMissing(c, "ride_id")
		return
	}

	b, err := h.service.CreateBooking(c.Request.Context(), id.UserID, req.RideID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, b)
}

func (h *BookingHandler) list(c *gin.Context) {
	id, ok := mustIdentity(c)
	if !ok {
		return
	}
	list, err := h.service.ListMyBookings(c.Request.Context(), id.UserID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *BookingHandler) get(c *gin.Context) {
	h.withBooking(c, h.service.GetBooking)
}

func (h *BookingHandler) confirm(c *gin.Context) {
	h.withBooking(c, h.service.ConfirmBooking)
}

func (h *BookingHandler) cancel(c *gin.Context) {
	h.withBooking(c, h.service.CancelBooking)
}

func (h *BookingHandler) withBooking(c *gin.Context, op bookingOp) {
	id, ok := mustIdentity(c)
	if !ok {
		return
	}
	bookingID, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	b, err := op(c.Request.Context(), bookingID, id.UserID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, b)
}
