package models

import "time"

type InviteStatus string

const (
	InviteStatusPending  InviteStatus = "pending"
	InviteStatusAccepted InviteStatus = "accepted"
	InviteStatusRevoked  InviteStatus = "revoked"
	InviteStatusExpired  InviteStatus = "expired"
)

// IsTerminal reports whether no further transition is permitted.
func (s InviteStatus) IsTerminal() bool {
	return s == InviteStatusAccepted || s == InviteStatusRevoked || s == InviteStatusExpired
}

// Invite is a pending grant of company access tied to an employee
// record. Only the one-way hash of the token is persisted; the raw
// token is transmitted once out of band.
type Invite struct {
	ID         uint64         `gorm:"primarykey" json:"id"`
	CompanyID  uint64         `gorm:"not null;index" json:"company_id"`
	EmployeeID uint64         `gorm:"not null;index" json:"employee_id"`
	Email      string         `gorm:"type:varchar(255);index" json:"email"`
	Role       MembershipRole `gorm:"type:varchar(20);not null" json:"role"`
	TokenHash  string         `gorm:"type:varchar(64);uniqueIndex;not null" json:"-"`
	Status     InviteStatus   `gorm:"type:varchar(20);not null;default:'pending'" json:"status"`
	ExpiresAt  time.Time      `gorm:"not null" json:"expires_at"`
	RevokedAt  *time.Time     `json:"revoked_at,omitempty"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`

	// Relations
	Company  Company  `gorm:"foreignKey:CompanyID" json:"company,omitempty"`
	Employee Employee `gorm:"foreignKey:EmployeeID" json:"employee,omitempty"`
}

// EffectiveStatus evaluates lazy expiry: a stored pending status past
// its deadline reads as expired even before the write-back lands.
func (i Invite) EffectiveStatus(now time.Time) InviteStatus {
	if i.Status == InviteStatusPending && now.After(i.ExpiresAt) {
		return InviteStatusExpired
	}
	return i.Status
}
