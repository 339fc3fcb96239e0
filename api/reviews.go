package api

import (
	"net/http"

	"github.com/Domenick1991/rideshare/internal/service/reviews"
	"github.com/gin-gonic/gin"
)

type ReviewHandler struct {
	service reviews.ReviewUseCase
}

func NewReviewHandler(service reviews.ReviewUseCase) *ReviewHandler {
	return &ReviewHandler{service: service}
}

// Register mounts the listing on public, which should carry OptionalAuth so
// viewers see their own hidden reviews.
func (h *ReviewHandler) Register(public, private *gin.RouterGroup) {
	public.GET("/reviews/user/:id", h.listForUser)
	private.POST("/reviews", h.create)
}

func (h *ReviewHandler) create(c *gin.Context) {
	id, ok := mustIdentity(c)
	if !ok {
		return
	}
	var req reviews.CreateReviewInput
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}

	review, err := h.service.CreateReview(c.Request.Context(), id.UserID, req)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, review)
}

func (h *ReviewHandler) listForUser(c *gin.Context) {
	subjectID, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	list, err := h.service.ListUserReviews(c.Request.Context(), subjectID, viewer(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}
