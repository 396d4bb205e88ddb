package repository

import (
	"errors"
	"fmt"
	"time"

	"github.com/fieldvantageai/fieldvantage/internal/models"
	"gorm.io/gorm"
)

var (
	// ErrInviteNotPending is returned when a guarded transition matched
	// no row because the invite already left the pending state.
	ErrInviteNotPending = errors.New("invite repository: invite is no longer pending")
	// ErrCreateInviteMembership is returned when the accept transaction fails to write the membership.
	ErrCreateInviteMembership = errors.New("invite repository: write membership failed")
	// ErrLinkEmployee is returned when the accept transaction fails to update the employee record.
	ErrLinkEmployee = errors.New("invite repository: link employee failed")
	// ErrInviteEmailBound is returned when the guarded bind matched no
	// row because another writer already bound an email to the invite.
	ErrInviteEmailBound = errors.New("invite repository: email already bound")
)

// GormInviteRepository is a GORM implementation of InviteRepository
type GormInviteRepository struct {
	db *gorm.DB
}

// NewInviteRepository creates a new InviteRepository
func NewInviteRepository(db *gorm.DB) InviteRepository {
	return &GormInviteRepository{db: db}
}

// Create creates a new invite
func (r *GormInviteRepository) Create(invite *models.Invite) error {
	return r.db.Create(invite).Error
}

// FindByID finds an invite by ID
func (r *GormInviteRepository) FindByID(id uint64) (*models.Invite, error) {
	var invite models.Invite
	if err := r.db.First(&invite, id).Error; err != nil {
		return nil, err
	}
	return &invite, nil
}

// FindByTokenHash finds an invite by its token hash
func (r *GormInviteRepository) FindByTokenHash(hash string) (*models.Invite, error) {
	var invite models.Invite
	if err := r.db.Where("token_hash = ?", hash).First(&invite).Error; err != nil {
		return nil, err
	}
	return &invite, nil
}

// FindPendingByEmployee finds the stored-pending invite for an employee
func (r *GormInviteRepository) FindPendingByEmployee(employeeID uint64) (*models.Invite, error) {
	var invite models.Invite
	if err := r.db.Where("employee_id = ? AND status = ?", employeeID, models.InviteStatusPending).
		First(&invite).Error; err != nil {
		return nil, err
	}
	return &invite, nil
}

// BindEmail binds an email to the invite and its employee atomically.
// The invite-side update is guarded on the email still being unbound,
// so two racing binds see exactly one winner; the loser gets
// ErrInviteEmailBound and the pair never diverges.
func (r *GormInviteRepository) BindEmail(invite *models.Invite, email string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Invite{}).
			Where("id = ? AND (email IS NULL OR email = '')", invite.ID).
			Update("email", email)
		if res.Error != nil {
			return fmt.Errorf("bind invite email: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrInviteEmailBound
		}

		if err := tx.Model(&models.Employee{}).
			Where("id = ? AND (email IS NULL OR email = '')", invite.EmployeeID).
			Update("email", email).Error; err != nil {
			return fmt.Errorf("bind employee email: %w", err)
		}

		return nil
	})
}

// MarkExpired persists the lazy-expiry write-back for a pending invite
func (r *GormInviteRepository) MarkExpired(inviteID, employeeID uint64) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Invite{}).
			Where("id = ? AND status = ?", inviteID, models.InviteStatusPending).
			Update("status", models.InviteStatusExpired)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			// Another writer already reached a terminal state.
			return nil
		}

		return mirrorEmployeeStatus(tx, employeeID, models.InviteStatusExpired)
	})
}

// Revoke transitions pending -> revoked and mirrors the employee status
func (r *GormInviteRepository) Revoke(inviteID, employeeID uint64, at time.Time) (bool, error) {
	transitioned := false
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var err error
		transitioned, err = revokeInvite(tx, inviteID, employeeID, at)
		return err
	})
	return transitioned, err
}

// Decline is Revoke composed with marking the owning notification read
func (r *GormInviteRepository) Decline(inviteID, employeeID, notificationID uint64, at time.Time) (bool, error) {
	transitioned := false
	err := r.db.Transaction(func(tx *gorm.DB) error {
		var err error
		transitioned, err = revokeInvite(tx, inviteID, employeeID, at)
		if err != nil {
			return err
		}

		return tx.Model(&models.Notification{}).
			Where("id = ? AND read_at IS NULL", notificationID).
			Update("read_at", at).Error
	})
	return transitioned, err
}

// Accept transitions pending -> accepted with all side effects applied
// atomically. Two concurrent accepts see exactly one success; the loser
// observes the terminal status through ErrInviteNotPending.
func (r *GormInviteRepository) Accept(invite *models.Invite, userID uint64, at time.Time) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Invite{}).
			Where("id = ? AND status = ?", invite.ID, models.InviteStatusPending).
			Update("status", models.InviteStatusAccepted)
		if res.Error != nil {
			return fmt.Errorf("accept invite: %w", res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrInviteNotPending
		}

		if err := upsertMembership(tx, invite.CompanyID, userID, invite.Role, at); err != nil {
			return fmt.Errorf("%w: %v", ErrCreateInviteMembership, err)
		}

		if err := tx.Model(&models.Employee{}).
			Where("id = ?", invite.EmployeeID).
			Updates(map[string]interface{}{
				"user_id":           userID,
				"invitation_status": models.InviteStatusAccepted,
			}).Error; err != nil {
			return fmt.Errorf("%w: %v", ErrLinkEmployee, err)
		}

		return tx.Model(&models.Notification{}).
			Where("invite_id = ? AND user_id = ? AND read_at IS NULL", invite.ID, userID).
			Update("read_at", at).Error
	})
}

func revokeInvite(tx *gorm.DB, inviteID, employeeID uint64, at time.Time) (bool, error) {
	res := tx.Model(&models.Invite{}).
		Where("id = ? AND status = ?", inviteID, models.InviteStatusPending).
		Updates(map[string]interface{}{
			"status":     models.InviteStatusRevoked,
			"revoked_at": at,
		})
	if res.Error != nil {
		return false, fmt.Errorf("revoke invite: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return false, nil
	}

	if err := mirrorEmployeeStatus(tx, employeeID, models.InviteStatusRevoked); err != nil {
		return false, err
	}
	return true, nil
}

func mirrorEmployeeStatus(tx *gorm.DB, employeeID uint64, status models.InviteStatus) error {
	return tx.Model(&models.Employee{}).
		Where("id = ?", employeeID).
		Update("invitation_status", status).Error
}

func upsertMembership(tx *gorm.DB, companyID, userID uint64, role models.MembershipRole, at time.Time) error {
	var existing models.Membership
	err := tx.Where("company_id = ? AND user_id = ?", companyID, userID).First(&existing).Error
	switch {
	case err == nil:
		return tx.Model(&models.Membership{}).
			Where("company_id = ? AND user_id = ?", companyID, userID).
			Updates(map[string]interface{}{
				"role":      role,
				"status":    models.MembershipActive,
				"joined_at": at,
			}).Error
	case errors.Is(err, gorm.ErrRecordNotFound):
		return tx.Create(&models.Membership{
			CompanyID: companyID,
			UserID:    userID,
			Role:      role,
			Status:    models.MembershipActive,
			JoinedAt:  at,
		}).Error
	default:
		return err
	}
}
