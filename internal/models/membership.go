package models

import "time"

type MembershipRole string

const (
	RoleOwner  MembershipRole = "owner"
	RoleAdmin  MembershipRole = "admin"
	RoleMember MembershipRole = "member"
)

// CanManageCompany reports whether the role may issue invites, revoke
// them, or manage members.
func (r MembershipRole) CanManageCompany() bool {
	return r == RoleOwner || r == RoleAdmin
}

type MembershipStatus string

const (
	MembershipActive  MembershipStatus = "active"
	MembershipRemoved MembershipStatus = "removed"
)

// Membership grants a user a role within a company. Rows are never
// deleted; removal flips the status so audit history survives.
type Membership struct {
	CompanyID uint64           `gorm:"primarykey" json:"company_id"`
	UserID    uint64           `gorm:"primarykey" json:"user_id"`
	Role      MembershipRole   `gorm:"type:varchar(20);not null" json:"role"`
	Status    MembershipStatus `gorm:"type:varchar(20);not null;default:'active'" json:"status"`
	JoinedAt  time.Time        `json:"joined_at"`
	UpdatedAt time.Time        `json:"updated_at"`

	// Relations
	Company Company `gorm:"foreignKey:CompanyID" json:"company,omitempty"`
	User    User    `gorm:"foreignKey:UserID" json:"user,omitempty"`
}

// IsActive reports whether the membership currently grants access.
func (m Membership) IsActive() bool {
	return m.Status == MembershipActive
}
