package models

import (
	"time"

	"gorm.io/gorm"
)

type Company struct {
	ID        uint64         `gorm:"primarykey" json:"id"`
	Name      string         `gorm:"type:varchar(255);not null" json:"name"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Relations
	Memberships []Membership `gorm:"foreignKey:CompanyID" json:"memberships,omitempty"`
	Employees   []Employee   `gorm:"foreignKey:CompanyID" json:"employees,omitempty"`
}
