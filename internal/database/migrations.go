package database

import (
	"fmt"

	"github.com/fieldvantageai/fieldvantage/internal/models"
	"gorm.io/gorm"
)

// AddIndexes adds composite indexes for the hot lookup paths that
// AutoMigrate's single-column tags do not cover.
func AddIndexes(db *gorm.DB) error {
	indexes := []struct {
		model   interface{}
		name    string
		table   string
		columns string
	}{
		// Context resolution loads active memberships per user.
		{&models.Membership{}, "idx_memberships_user_status", "memberships", "user_id, status"},

		// At-most-one pending invite per employee.
		{&models.Invite{}, "idx_invites_employee_status", "invites", "employee_id, status"},

		// Inbox listing is per user, newest first.
		{&models.Notification{}, "idx_user_notifications_user_created", "user_notifications", "user_id, created_at"},

		// Invite email binding resolves accounts by employee email.
		{&models.Employee{}, "idx_employees_company_email", "employees", "company_id, email"},
	}

	for _, idx := range indexes {
		if db.Migrator().HasIndex(idx.model, idx.name) {
			continue
		}

		sql := fmt.Sprintf("CREATE INDEX %s ON %s (%s)", idx.name, idx.table, idx.columns)
		if err := db.Exec(sql).Error; err != nil {
			return fmt.Errorf("failed to create index %s: %w", idx.name, err)
		}
	}

	return nil
}
