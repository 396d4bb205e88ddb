package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/fieldvantageai/fieldvantage/internal/dto"
	apierrors "github.com/fieldvantageai/fieldvantage/internal/errors"
	"github.com/fieldvantageai/fieldvantage/internal/middleware"
	"github.com/fieldvantageai/fieldvantage/internal/services"
	"github.com/fieldvantageai/fieldvantage/internal/utils"
)

// NotificationHandler coordinates inbox HTTP handlers.
type NotificationHandler struct {
	notificationService *services.NotificationService
}

// NewNotificationHandler creates a new NotificationHandler.
func NewNotificationHandler(notificationService *services.NotificationService) *NotificationHandler {
	return &NotificationHandler{
		notificationService: notificationService,
	}
}

// ListInbox returns the caller's actionable invite notifications.
func (h *NotificationHandler) ListInbox(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	params := utils.GetPaginationParams(c)
	items, err := h.notificationService.ListInbox(userID, params)
	if err != nil {
		respondNotificationError(c, err)
		return
	}

	itemDTOs := make([]dto.InboxItemDTO, len(items))
	for i, item := range items {
		itemDTOs[i] = dto.ToInboxItemDTO(item)
	}

	c.JSON(http.StatusOK, gin.H{
		"notifications": itemDTOs,
	})
}

// UnreadCount returns the number of unread actionable notifications.
func (h *NotificationHandler) UnreadCount(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	count, err := h.notificationService.UnreadCount(userID)
	if err != nil {
		respondNotificationError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"unread_count": count,
	})
}

// MarkRead marks the caller's notification as read.
func (h *NotificationHandler) MarkRead(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	notificationID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid notification ID")
		return
	}

	if err := h.notificationService.MarkRead(notificationID, userID); err != nil {
		respondNotificationError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Notification marked as read",
	})
}

// Decline declines the invite behind the caller's notification.
func (h *NotificationHandler) Decline(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	notificationID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid notification ID")
		return
	}

	invite, err := h.notificationService.DeclineByNotification(notificationID, userID)
	if err != nil {
		respondNotificationError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToInviteDTO(*invite))
}

func respondNotificationError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrNotificationNotFound):
		apierrors.NotFound(c, err.Error())
	case errors.Is(err, services.ErrInviteNotPending):
		apierrors.Gone(c, "Invite is no longer available")
	case errors.Is(err, services.ErrInviteRecordMissing):
		apierrors.InternalError(c, "Notification state is inconsistent")
	default:
		apierrors.InternalError(c, "Internal server error")
	}
}
