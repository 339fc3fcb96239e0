package api

import (
	"net/http"

	"github.com/Domenick1991/rideshare/internal/service/notify"
	"github.com/gin-gonic/gin"
)

type NotificationHandler struct {
	service notify.NotificationUseCase
}

type pageQuery struct {
	Page     int `form:"page,default=1"`
	PageSize int `form:"page_size,default=20"`
}

func NewNotificationHandler(service notify.NotificationUseCase) *NotificationHandler {
	return &NotificationHandler{service: service}
}

func (h *NotificationHandler) Register(router *gin.RouterGroup) {
	router.GET("/notifications", h.list)
	router.GET("/notifications/unread-count", h.unreadCount)
	router.PATCH("/notifications/read-all", h.markAllRead)
	router.PATCH("/notifications/:id/read", h.markRead)
}

func (h *NotificationHandler) list(c *gin.Context) {
	id, ok := mustIdentity(c)
	if !ok {
		return
	}
	var q pageQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		bindError(c, err)
		return
	}

	page, err := h.service.List(c.Request.Context(), id.UserID, q.Page, q.PageSize)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func (h *NotificationHandler) unreadCount(c *gin.Context) {
	id, ok := mustIdentity(c)
	if !ok {
		return
	}
	n, err := h.service.UnreadCount(c.Request.Context(), id.UserID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"unread_count": n})
}

func (h *NotificationHandler) markRead(c *gin.Context) {
	id, ok := mustIdentity(c)
	if !ok {
		return
	}
	notificationID, ok := paramUUID(c, "id")
	if !ok {
		return
	}
	n, err := h.service.MarkRead(c.Request.Context(), notificationID, id.UserID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, n)
}

func (h *NotificationHandler) markAllRead(c *gin.Context) {
	id, ok := mustIdentity(c)
	if !ok {
		return
	}
	updated, err := h.service.MarkAllRead(c.Request.Context(), id.UserID)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"updated_count": updated})
}
