package services

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/fieldvantageai/fieldvantage/internal/models"
	"github.com/fieldvantageai/fieldvantage/internal/repository"
	"github.com/fieldvantageai/fieldvantage/internal/utils"
)

var (
	ErrNotificationNotFound = errors.New("notification not found")
	// ErrInviteRecordMissing signals a notification whose invite row is
	// gone. Invites are never hard-deleted by policy, so a dangling
	// reference is a store failure, not a silent drop.
	ErrInviteRecordMissing = errors.New("notification references a missing invite")
)

// InboxItem pairs a notification with the live state of its invite.
type InboxItem struct {
	Notification models.Notification
	Invite       models.Invite
}

// NotificationService maintains the per-user inbox of pending-invite
// notifications. The inbox is a view over live invite state, not a
// snapshot: actionability is derived at read time.
type NotificationService struct {
	notificationRepo repository.NotificationRepository
	inviteRepo       repository.InviteRepository
	inviteService    *InviteService
}

// NewNotificationService creates a new NotificationService.
func NewNotificationService(
	notificationRepo repository.NotificationRepository,
	inviteRepo repository.InviteRepository,
	inviteService *InviteService,
) *NotificationService {
	return &NotificationService{
		notificationRepo: notificationRepo,
		inviteRepo:       inviteRepo,
		inviteService:    inviteService,
	}
}

// ListInbox returns the user's actionable invite notifications, newest
// first. Only notifications whose invite is effectively pending are
// included; a stored-pending invite past its deadline gets its expiry
// persisted and is filtered out.
func (s *NotificationService) ListInbox(userID uint64, params utils.PaginationParams) ([]InboxItem, error) {
	notifications, err := s.notificationRepo.ListByUser(userID, params)
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}

	now := s.inviteService.now()
	items := make([]InboxItem, 0, len(notifications))
	for _, n := range notifications {
		if n.Invite.ID == 0 {
			return nil, fmt.Errorf("%w: notification %d", ErrInviteRecordMissing, n.ID)
		}

		invite := n.Invite
		if invite.EffectiveStatus(now) == models.InviteStatusExpired && invite.Status == models.InviteStatusPending {
			if err := s.inviteRepo.MarkExpired(invite.ID, invite.EmployeeID); err != nil {
				return nil, fmt.Errorf("failed to expire invite: %w", err)
			}
			continue
		}
		if invite.Status != models.InviteStatusPending {
			continue
		}

		items = append(items, InboxItem{Notification: n, Invite: invite})
	}

	return items, nil
}

// UnreadCount returns the number of unread actionable notifications.
func (s *NotificationService) UnreadCount(userID uint64) (int64, error) {
	count, err := s.notificationRepo.CountUnreadActionable(userID, s.inviteService.now())
	if err != nil {
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}
	return count, nil
}

// MarkRead marks the user's own notification read; a no-op if already
// read. A notification owned by someone else reads as not found.
func (s *NotificationService) MarkRead(notificationID, userID uint64) error {
	notification, err := s.findOwned(notificationID, userID)
	if err != nil {
		return err
	}
	if notification.IsRead() {
		return nil
	}

	if err := s.notificationRepo.MarkRead(notification.ID, s.inviteService.now()); err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}
	return nil
}

// DeclineByNotification composes the ownership check, the invite
// decline transition, and the read marker as one logical unit. It never
// revokes an invite whose notification does not belong to the caller.
func (s *NotificationService) DeclineByNotification(notificationID, userID uint64) (*models.Invite, error) {
	notification, err := s.findOwned(notificationID, userID)
	if err != nil {
		return nil, err
	}

	invite, err := s.inviteService.Decline(notification.InviteID, notification.ID)
	if err != nil {
		if errors.Is(err, ErrInviteNotFound) {
			return nil, fmt.Errorf("%w: notification %d", ErrInviteRecordMissing, notification.ID)
		}
		return nil, err
	}
	return invite, nil
}

func (s *NotificationService) findOwned(notificationID, userID uint64) (*models.Notification, error) {
	notification, err := s.notificationRepo.FindByID(notificationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotificationNotFound
		}
		return nil, fmt.Errorf("failed to find notification: %w", err)
	}
	if notification.UserID != userID {
		return nil, ErrNotificationNotFound
	}
	return notification, nil
}
