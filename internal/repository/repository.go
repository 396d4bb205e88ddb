package repository

import (
	"time"

	"github.com/fieldvantageai/fieldvantage/internal/models"
	"github.com/fieldvantageai/fieldvantage/internal/utils"
)

// UserRepository defines the interface for user data access
type UserRepository interface {
	// Create creates a new user
	Create(user *models.User) error

	// FindByID finds a user by ID
	FindByID(id uint64) (*models.User, error)

	// FindByEmail finds a user by email
	FindByEmail(email string) (*models.User, error)

	// SetLastActiveCompany records the user's most recent explicit
	// company selection. Best-effort; callers may ignore failures.
	SetLastActiveCompany(userID, companyID uint64) error
}

// CompanyRepository defines the interface for company and membership data access
type CompanyRepository interface {
	// CreateWithOwner creates a company and its first owner membership
	// within a single transaction.
	CreateWithOwner(company *models.Company, owner *models.Membership) error

	// FindByID finds a company by ID
	FindByID(id uint64) (*models.Company, error)

	// FindMembership finds a membership row regardless of status
	FindMembership(companyID, userID uint64) (*models.Membership, error)

	// ListActiveMembershipsByUser lists active memberships for a user
	ListActiveMembershipsByUser(userID uint64) ([]models.Membership, error)

	// ListMembers lists all memberships of a company
	ListMembers(companyID uint64) ([]models.Membership, error)

	// CountActiveByRole counts active memberships with the given role
	CountActiveByRole(companyID uint64, role models.MembershipRole) (int64, error)

	// SetMembershipStatus updates the status of a membership row
	SetMembershipStatus(companyID, userID uint64, status models.MembershipStatus) error
}

// EmployeeRepository defines the interface for employee data access
type EmployeeRepository interface {
	// Create creates a new employee
	Create(employee *models.Employee) error

	// FindByID finds an employee by ID
	FindByID(id uint64) (*models.Employee, error)

	// ListByCompany lists employees of a company with pagination
	ListByCompany(companyID uint64, params utils.PaginationParams) ([]models.Employee, int64, error)
}

// InviteRepository defines the interface for invite data access.
// Every transition method is a guarded update: the invite row only
// changes when its stored status is still pending, so concurrent
// writers converge with exactly one winner.
type InviteRepository interface {
	// Create creates a new invite
	Create(invite *models.Invite) error

	// FindByID finds an invite by ID
	FindByID(id uint64) (*models.Invite, error)

	// FindByTokenHash finds an invite by its token hash
	FindByTokenHash(hash string) (*models.Invite, error)

	// FindPendingByEmployee finds the stored-pending invite for an employee
	FindPendingByEmployee(employeeID uint64) (*models.Invite, error)

	// BindEmail binds an email to the invite and its employee atomically.
	// Guarded on the invite's email still being unbound; a lost race
	// returns ErrInviteEmailBound with neither row changed.
	BindEmail(invite *models.Invite, email string) error

	// MarkExpired persists the lazy-expiry write-back for a pending invite.
	// A row already past pending is left untouched.
	MarkExpired(inviteID, employeeID uint64) error

	// Revoke transitions pending -> revoked and mirrors the employee
	// status. Returns false when the invite was no longer pending.
	Revoke(inviteID, employeeID uint64, at time.Time) (bool, error)

	// Decline is Revoke composed with marking the owning notification
	// read, as one transaction. The read marker is applied even when
	// the transition itself lost a race, so the inbox converges.
	Decline(inviteID, employeeID, notificationID uint64, at time.Time) (bool, error)

	// Accept transitions pending -> accepted and applies all side
	// effects in one transaction: membership created or reactivated,
	// employee linked and mirrored, notification marked read. Returns
	// ErrInviteNotPending when the guarded update matched no row.
	Accept(invite *models.Invite, userID uint64, at time.Time) error
}

// NotificationRepository defines the interface for notification data access
type NotificationRepository interface {
	// Create creates a new notification
	Create(notification *models.Notification) error

	// FindByID finds a notification by ID
	FindByID(id uint64) (*models.Notification, error)

	// ListByUser lists a user's notifications with the referenced
	// invite preloaded, newest first. Notifications whose invite
	// reached a terminal state are excluded before pagination;
	// notifications whose invite row is missing are returned so the
	// caller can fail on the broken reference.
	ListByUser(userID uint64, params utils.PaginationParams) ([]models.Notification, error)

	// MarkRead sets the read marker; a no-op if already read
	MarkRead(notificationID uint64, at time.Time) error

	// CountUnreadActionable counts unread notifications whose invite is
	// still pending and unexpired as of now
	CountUnreadActionable(userID uint64, now time.Time) (int64, error)

	// ExistsForInvite reports whether the user already has a
	// notification for the invite
	ExistsForInvite(inviteID, userID uint64) (bool, error)
}
