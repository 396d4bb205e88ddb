package repository

import (
	"time"

	"github.com/fieldvantageai/fieldvantage/internal/constants"
	"github.com/fieldvantageai/fieldvantage/internal/database"
	"github.com/fieldvantageai/fieldvantage/internal/models"
	"github.com/fieldvantageai/fieldvantage/internal/utils"
	"gorm.io/gorm"
)

// GormNotificationRepository is a GORM implementation of NotificationRepository
type GormNotificationRepository struct {
	db *gorm.DB
}

// NewNotificationRepository creates a new NotificationRepository
func NewNotificationRepository(db *gorm.DB) NotificationRepository {
	return &GormNotificationRepository{db: db}
}

// Create creates a new notification
func (r *GormNotificationRepository) Create(notification *models.Notification) error {
	return r.db.Create(notification).Error
}

// FindByID finds a notification by ID
func (r *GormNotificationRepository) FindByID(id uint64) (*models.Notification, error) {
	var notification models.Notification
	if err := r.db.First(&notification, id).Error; err != nil {
		return nil, err
	}
	return &notification, nil
}

// ListByUser lists a user's notifications newest first with the invite
// preloaded. Terminal invites are filtered in the query so pagination
// counts only live entries; rows whose invite is missing entirely are
// kept so callers can surface the broken reference.
func (r *GormNotificationRepository) ListByUser(userID uint64, params utils.PaginationParams) ([]models.Notification, error) {
	var notifications []models.Notification
	if err := r.db.Preload("Invite").Preload("Company").
		Joins("LEFT JOIN invites ON invites.id = user_notifications.invite_id").
		Where("user_notifications.user_id = ? AND user_notifications.type = ?", userID, constants.NotificationTypeCompanyInvite).
		Where("invites.status = ? OR invites.id IS NULL", models.InviteStatusPending).
		Order("user_notifications.created_at DESC").
		Scopes(database.Paginate(params)).
		Find(&notifications).Error; err != nil {
		return nil, err
	}
	return notifications, nil
}

// MarkRead sets the read marker; already-read rows are left untouched
func (r *GormNotificationRepository) MarkRead(notificationID uint64, at time.Time) error {
	return r.db.Model(&models.Notification{}).
		Where("id = ? AND read_at IS NULL", notificationID).
		Update("read_at", at).Error
}

// CountUnreadActionable counts unread notifications backed by an invite
// that is still pending and unexpired as of now. Lazy expiry is applied
// in the query so the count never includes a dead invite, even before
// the write-back lands.
func (r *GormNotificationRepository) CountUnreadActionable(userID uint64, now time.Time) (int64, error) {
	var count int64
	err := r.db.Model(&models.Notification{}).
		Joins("JOIN invites ON invites.id = user_notifications.invite_id").
		Where("user_notifications.user_id = ? AND user_notifications.read_at IS NULL", userID).
		Where("invites.status = ? AND invites.expires_at > ?", models.InviteStatusPending, now).
		Count(&count).Error
	return count, err
}

// ExistsForInvite reports whether the user already has a notification for the invite
func (r *GormNotificationRepository) ExistsForInvite(inviteID, userID uint64) (bool, error) {
	var count int64
	err := r.db.Model(&models.Notification{}).
		Where("invite_id = ? AND user_id = ?", inviteID, userID).
		Count(&count).Error
	return count > 0, err
}
