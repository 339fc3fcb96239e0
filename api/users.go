package api

import (
	"net/http"

	"github.com/Domenick1991/rideshare/internal/service/users"
	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	service users.UserUseCase
}

func NewUserHandler(service users.UserUseCase) *UserHandler {
	return &UserHandler{service: service}
}

func (h *UserHandler) Register(public, private *gin.RouterGroup) {
	public.GET("/users/:id", h.publicProfile)
	private.GET("/me", h.me)
	private.PATCH("/me", h.updateMe)
}

func (h *UserHandler) updateMe(c *gin.Context) {
	id, ok := mustIdentity(c)
	if !ok {
		return
	}
	var req users.UpdateProfileInput
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	u, err := h.service.UpdateProfile(c.Request.Context(), id.UserID, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

func (h *UserHandler) me(c *gin.Context) {
	id, ok := mustIdentity(c)
	if !ok {
		return
	}
	u, err := h.service.GetProfile(c.Request.Context(), id.UserID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

func (h *UserHandler) publicProfile(c *gin.Context) {
	userID, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	p, err := h.service.GetPublicProfile(c.Request.Context(), userID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}
