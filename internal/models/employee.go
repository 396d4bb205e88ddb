package models

import (
	"time"

	"gorm.io/gorm"
)

// Employee is a company-owned staff record. UserID stays null until the
// linked invite is accepted; InvitationStatus mirrors the invite status
// and is updated in the same transaction to avoid divergence.
type Employee struct {
	ID               uint64         `gorm:"primarykey" json:"id"`
	CompanyID        uint64         `gorm:"not null;index" json:"company_id"`
	UserID           *uint64        `gorm:"index" json:"user_id,omitempty"`
	Name             string         `gorm:"type:varchar(255);not null" json:"name"`
	Email            string         `gorm:"type:varchar(255);index" json:"email"`
	Role             MembershipRole `gorm:"type:varchar(20);not null;default:'member'" json:"role"`
	InvitationStatus InviteStatus   `gorm:"type:varchar(20);default:''" json:"invitation_status,omitempty"`
	IsActive         bool           `gorm:"default:true" json:"is_active"`
	CreatedAt        time.Time      `json:"created_at"`
	UpdatedAt        time.Time      `json:"updated_at"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	Company Company `gorm:"foreignKey:CompanyID" json:"company,omitempty"`
	User    *User   `gorm:"foreignKey:UserID" json:"user,omitempty"`
}
