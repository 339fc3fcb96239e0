package api

import (
	"net/http"

	"github.com/Domenick1991/rideshare/internal/service/booking"
	"github.com/Domenick1991/rideshare/internal/service/rides"
	"github.com/gin-gonic/gin"
)

type RideHandler struct {
	service  rides.RideUseCase
	bookings booking.BookingUseCase
}

func NewRideHandler(service rides.RideUseCase, bookings booking.BookingUseCase) *RideHandler {
	return &RideHandler{service: service, bookings: bookings}
}

// Register mounts read-only routes on public and everything else on private,
// which must carry Authenticate.
func (h *RideHandler) Register(public, private *gin.RouterGroup) {
	public.GET("/rides", h.search)
	public.GET("/rides/:id", h.get)

	private.POST("/rides", RequireDriver(), h.create)
	private.GET("/rides/mine", h.mine)
	private.DELETE("/rides/:id", h.delete)
	private.GET("/rides/:id/bookings", h.rideBookings)
}

func (h *RideHandler) create(c *gin.Context) {
	id, ok := mustIdentity(c)
	if !ok {
		return
	}
	var req rides.CreateRideInput
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	ride, err := h.service.CreateRide(c.Request.Context(), id.UserID, id.Role, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, ride)
}

func (h *RideHandler) search(c *gin.Context) {
	var q rides.SearchInput
	if err := c.ShouldBindQuery(&q); err != nil {
		bindError(c, err)
		return
	}

	list, err := h.service.SearchRides(c.Request.Context(), q)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *RideHandler) get(c *gin.Context) {
	rideID, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	ride, err := h.service.GetRide(c.Request.Context(), rideID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, ride)
}

func (h *RideHandler) mine(c *gin.Context) {
	id, ok := mustIdentity(c)
	if !ok {
		return
	}
	list, err := h.service.ListMyRides(c.Request.Context(), id.UserID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h *RideHandler) delete(c *gin.Context) {
	id, ok := mustIdentity(c)
	if !ok {
		return
	}
	rideID, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	if err := h.service.DeleteRide(c.Request.Context(), rideID, id.UserID); err != nil {
		writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *RideHandler) rideBookings(c *gin.Context) {
	id, ok := mustIdentity(c)
	if !ok {
		return
	}
	rideID, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	list, err := h.bookings.ListRideBookings(c.Request.Context(), rideID, id.UserID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}
