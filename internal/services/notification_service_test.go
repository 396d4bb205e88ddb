package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/fieldvantageai/fieldvantage/internal/constants"
	"github.com/fieldvantageai/fieldvantage/internal/models"
	"github.com/fieldvantageai/fieldvantage/internal/utils"
)

func defaultPage() utils.PaginationParams {
	return utils.PaginationParams{Page: 1, Limit: constants.DefaultPageSize, Offset: 0}
}

func TestNotificationService_ListInbox(t *testing.T) {
	env := setupServiceTestEnv(t)

	company := createTestCompany(t, env.db, "Acme")
	user := createTestUser(t, env.db, "dana@example.com")
	employee := createTestEmployee(t, env.db, company.ID, "Dana", "dana@example.com")

	invite, _, err := env.inviteService.CreateInvite(CreateInviteInput{
		CompanyID:  company.ID,
		ActorRole:  models.RoleOwner,
		EmployeeID: employee.ID,
	})
	require.NoError(t, err)

	items, err := env.notificationSvc.ListInbox(user.ID, defaultPage())
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, invite.ID, items[0].Invite.ID)
	require.Equal(t, models.InviteStatusPending, items[0].Invite.Status)
	require.False(t, items[0].Notification.IsRead())
}

func TestNotificationService_ListInbox_HidesTerminalInvites(t *testing.T) {
	env := setupServiceTestEnv(t)

	company := createTestCompany(t, env.db, "Acme")
	user := createTestUser(t, env.db, "dana@example.com")
	employee := createTestEmployee(t, env.db, company.ID, "Dana", "dana@example.com")

	invite, _, err := env.inviteService.CreateInvite(CreateInviteInput{
		CompanyID:  company.ID,
		ActorRole:  models.RoleOwner,
		EmployeeID: employee.ID,
	})
	require.NoError(t, err)

	_, err = env.inviteService.Revoke(invite.ID, models.RoleOwner)
	require.NoError(t, err)

	items, err := env.notificationSvc.ListInbox(user.ID, defaultPage())
	require.NoError(t, err)
	require.Empty(t, items)
}

func TestNotificationService_ListInbox_PersistsLazyExpiry(t *testing.T) {
	env := setupServiceTestEnv(t)

	company := createTestCompany(t, env.db, "Acme")
	user := createTestUser(t, env.db, "dana@example.com")
	employee := createTestEmployee(t, env.db, company.ID, "Dana", "dana@example.com")

	invite, _, err := env.inviteService.CreateInvite(CreateInviteInput{
		CompanyID:  company.ID,
		ActorRole:  models.RoleOwner,
		EmployeeID: employee.ID,
	})
	require.NoError(t, err)

	env.clock.Advance(90 * time.Hour)

	items, err := env.notificationSvc.ListInbox(user.ID, defaultPage())
	require.NoError(t, err)
	require.Empty(t, items)

	// Reading the inbox wrote the expiry back.
	var stored models.Invite
	require.NoError(t, env.db.First(&stored, invite.ID).Error)
	require.Equal(t, models.InviteStatusExpired, stored.Status)
}

func TestNotificationService_ListInbox_PaginatesOverLiveEntriesOnly(t *testing.T) {
	env := setupServiceTestEnv(t)

	company := createTestCompany(t, env.db, "Acme")
	user := createTestUser(t, env.db, "dana@example.com")
	first := createTestEmployee(t, env.db, company.ID, "Dana One", "dana@example.com")
	second := createTestEmployee(t, env.db, company.ID, "Dana Two", "dana@example.com")

	older, _, err := env.inviteService.CreateInvite(CreateInviteInput{
		CompanyID:  company.ID,
		ActorRole:  models.RoleOwner,
		EmployeeID: first.ID,
	})
	require.NoError(t, err)

	newer, _, err := env.inviteService.CreateInvite(CreateInviteInput{
		CompanyID:  company.ID,
		ActorRole:  models.RoleOwner,
		EmployeeID: second.ID,
	})
	require.NoError(t, err)

	// Pin the ordering so the revoked entry is the newest.
	require.NoError(t, env.db.Model(&models.Notification{}).
		Where("invite_id = ?", newer.ID).
		Update("created_at", env.clock.Now().Add(time.Hour)).Error)

	_, err = env.inviteService.Revoke(newer.ID, models.RoleOwner)
	require.NoError(t, err)

	// A one-entry page must surface the live invite, not come back
	// empty because a terminal entry consumed the slot.
	items, err := env.notificationSvc.ListInbox(user.ID, utils.PaginationParams{Page: 1, Limit: 1, Offset: 0})
	require.NoError(t, err)
	require.Len(t, items, 1)
	require.Equal(t, older.ID, items[0].Invite.ID)
}

func TestNotificationService_ListInbox_DanglingInvite(t *testing.T) {
	env := setupServiceTestEnv(t)

	company := createTestCompany(t, env.db, "Acme")
	user := createTestUser(t, env.db, "dana@example.com")

	// Invites are never hard-deleted; a notification pointing at a
	// missing row means the store is broken and the read must fail
	// loudly rather than silently drop the entry.
	orphan := &models.Notification{
		UserID:    user.ID,
		Type:      constants.NotificationTypeCompanyInvite,
		InviteID:  424242,
		CompanyID: company.ID,
	}
	require.NoError(t, env.db.Create(orphan).Error)

	_, err := env.notificationSvc.ListInbox(user.ID, defaultPage())
	require.ErrorIs(t, err, ErrInviteRecordMissing)
}

func TestNotificationService_UnreadCount(t *testing.T) {
	env := setupServiceTestEnv(t)

	company := createTestCompany(t, env.db, "Acme")
	user := createTestUser(t, env.db, "dana@example.com")
	first := createTestEmployee(t, env.db, company.ID, "Dana One", "dana@example.com")

	invite, _, err := env.inviteService.CreateInvite(CreateInviteInput{
		CompanyID:  company.ID,
		ActorRole:  models.RoleOwner,
		EmployeeID: first.ID,
	})
	require.NoError(t, err)

	count, err := env.notificationSvc.UnreadCount(user.ID)
	require.NoError(t, err)
	require.EqualValues(t, 1, count)

	// A revoked invite no longer counts.
	_, err = env.inviteService.Revoke(invite.ID, models.RoleOwner)
	require.NoError(t, err)

	count, err = env.notificationSvc.UnreadCount(user.ID)
	require.NoError(t, err)
	require.EqualValues(t, 0, count)
}

func TestNotificationService_MarkRead(t *testing.T) {
	env := setupServiceTestEnv(t)

	company := createTestCompany(t, env.db, "Acme")
	user := createTestUser(t, env.db, "dana@example.com")
	employee := createTestEmployee(t, env.db, company.ID, "Dana", "dana@example.com")

	invite, _, err := env.inviteService.CreateInvite(CreateInviteInput{
		CompanyID:  company.ID,
		ActorRole:  models.RoleOwner,
		EmployeeID: employee.ID,
	})
	require.NoError(t, err)

	var notification models.Notification
	require.NoError(t, env.db.Where("invite_id = ?", invite.ID).First(&notification).Error)

	require.NoError(t, env.notificationSvc.MarkRead(notification.ID, user.ID))

	require.NoError(t, env.db.First(&notification, notification.ID).Error)
	require.NotNil(t, notification.ReadAt)

	// Already read: a no-op, not an error.
	require.NoError(t, env.notificationSvc.MarkRead(notification.ID, user.ID))
}

func TestNotificationService_MarkRead_ForeignNotification(t *testing.T) {
	env := setupServiceTestEnv(t)

	company := createTestCompany(t, env.db, "Acme")
	owner := createTestUser(t, env.db, "dana@example.com")
	intruder := createTestUser(t, env.db, "intruder@example.com")
	employee := createTestEmployee(t, env.db, company.ID, "Dana", "dana@example.com")

	invite, _, err := env.inviteService.CreateInvite(CreateInviteInput{
		CompanyID:  company.ID,
		ActorRole:  models.RoleOwner,
		EmployeeID: employee.ID,
	})
	require.NoError(t, err)

	var notification models.Notification
	require.NoError(t, env.db.Where("invite_id = ? AND user_id = ?", invite.ID, owner.ID).First(&notification).Error)

	err = env.notificationSvc.MarkRead(notification.ID, intruder.ID)
	require.ErrorIs(t, err, ErrNotificationNotFound)
}

func TestNotificationService_DeclineByNotification(t *testing.T) {
	env := setupServiceTestEnv(t)

	company := createTestCompany(t, env.db, "Acme")
	user := createTestUser(t, env.db, "dana@example.com")
	employee := createTestEmployee(t, env.db, company.ID, "Dana", "dana@example.com")

	invite, _, err := env.inviteService.CreateInvite(CreateInviteInput{
		CompanyID:  company.ID,
		ActorRole:  models.RoleOwner,
		EmployeeID: employee.ID,
	})
	require.NoError(t, err)

	var notification models.Notification
	require.NoError(t, env.db.Where("invite_id = ?", invite.ID).First(&notification).Error)

	declined, err := env.notificationSvc.DeclineByNotification(notification.ID, user.ID)
	require.NoError(t, err)
	require.Equal(t, models.InviteStatusRevoked, declined.Status)

	// Decline retires the inbox entry in the same transaction.
	require.NoError(t, env.db.First(&notification, notification.ID).Error)
	require.NotNil(t, notification.ReadAt)

	var storedEmployee models.Employee
	require.NoError(t, env.db.First(&storedEmployee, employee.ID).Error)
	require.Equal(t, models.InviteStatusRevoked, storedEmployee.InvitationStatus)
}

func TestNotificationService_DeclineByNotification_Ownership(t *testing.T) {
	env := setupServiceTestEnv(t)

	company := createTestCompany(t, env.db, "Acme")
	owner := createTestUser(t, env.db, "dana@example.com")
	intruder := createTestUser(t, env.db, "intruder@example.com")
	employee := createTestEmployee(t, env.db, company.ID, "Dana", "dana@example.com")

	invite, _, err := env.inviteService.CreateInvite(CreateInviteInput{
		CompanyID:  company.ID,
		ActorRole:  models.RoleOwner,
		EmployeeID: employee.ID,
	})
	require.NoError(t, err)

	var notification models.Notification
	require.NoError(t, env.db.Where("invite_id = ? AND user_id = ?", invite.ID, owner.ID).First(&notification).Error)

	_, err = env.notificationSvc.DeclineByNotification(notification.ID, intruder.ID)
	require.ErrorIs(t, err, ErrNotificationNotFound)

	// The invite is untouched by the denied attempt.
	var stored models.Invite
	require.NoError(t, env.db.First(&stored, invite.ID).Error)
	require.Equal(t, models.InviteStatusPending, stored.Status)
}
