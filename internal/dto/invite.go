package dto

import (
	"time"

	"github.com/fieldvantageai/fieldvantage/internal/models"
	"github.com/fieldvantageai/fieldvantage/internal/services"
)

// InviteDTO represents an invite in API responses. The raw token never
// appears here; it is returned exactly once at creation.
type InviteDTO struct {
	ID         uint64                `json:"id"`
	CompanyID  uint64                `json:"company_id"`
	EmployeeID uint64                `json:"employee_id"`
	Email      string                `json:"email,omitempty"`
	Role       models.MembershipRole `json:"role"`
	Status     models.InviteStatus   `json:"status"`
	ExpiresAt  time.Time             `json:"expires_at"`
	CreatedAt  time.Time             `json:"created_at"`
}

// CreatedInviteDTO carries the one-time raw token alongside the invite
type CreatedInviteDTO struct {
	Invite InviteDTO `json:"invite"`
	Token  string    `json:"token"`
}

// InboxItemDTO represents an actionable invite notification
type InboxItemDTO struct {
	ID        uint64      `json:"id"`
	Type      string      `json:"type"`
	CompanyID uint64      `json:"company_id"`
	Company   *CompanyDTO `json:"company,omitempty"`
	Invite    InviteDTO   `json:"invite"`
	ReadAt    *time.Time  `json:"read_at,omitempty"`
	CreatedAt time.Time   `json:"created_at"`
}

// ToInviteDTO converts an invite to DTO
func ToInviteDTO(invite models.Invite) InviteDTO {
	return InviteDTO{
		ID:         invite.ID,
		CompanyID:  invite.CompanyID,
		EmployeeID: invite.EmployeeID,
		Email:      invite.Email,
		Role:       invite.Role,
		Status:     invite.Status,
		ExpiresAt:  invite.ExpiresAt,
		CreatedAt:  invite.CreatedAt,
	}
}

// ToCreatedInviteDTO pairs a freshly issued invite with its raw token
func ToCreatedInviteDTO(invite models.Invite, token string) CreatedInviteDTO {
	return CreatedInviteDTO{
		Invite: ToInviteDTO(invite),
		Token:  token,
	}
}

// ToInboxItemDTO converts an inbox item to DTO
func ToInboxItemDTO(item services.InboxItem) InboxItemDTO {
	dto := InboxItemDTO{
		ID:        item.Notification.ID,
		Type:      item.Notification.Type,
		CompanyID: item.Notification.CompanyID,
		Invite:    ToInviteDTO(item.Invite),
		ReadAt:    item.Notification.ReadAt,
		CreatedAt: item.Notification.CreatedAt,
	}
	if item.Notification.Company.ID != 0 {
		company := ToCompanyDTO(item.Notification.Company)
		dto.Company = &company
	}
	return dto
}
