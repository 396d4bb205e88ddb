package models

import "time"

// Notification is a delivery record for a user's inbox. Whether an
// entry is actionable is derived at read time from the referenced
// invite, never stored here.
type Notification struct {
	ID        uint64     `gorm:"primarykey" json:"id"`
	UserID    uint64     `gorm:"not null;index" json:"user_id"`
	Type      string     `gorm:"type:varchar(64);not null" json:"type"`
	InviteID  uint64     `gorm:"not null;index" json:"invite_id"`
	CompanyID uint64     `gorm:"not null" json:"company_id"`
	ReadAt    *time.Time `json:"read_at,omitempty"`
	CreatedAt time.Time  `json:"created_at"`

	// Relations
	Invite  Invite  `gorm:"foreignKey:InviteID" json:"invite,omitempty"`
	Company Company `gorm:"foreignKey:CompanyID" json:"company,omitempty"`
	User    User    `gorm:"foreignKey:UserID" json:"-"`
}

// TableName keeps the historical table name.
func (Notification) TableName() string {
	return "user_notifications"
}

// IsRead reports whether the notification was already marked read.
func (n Notification) IsRead() bool {
	return n.ReadAt != nil
}
