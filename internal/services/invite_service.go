package services

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/fieldvantageai/fieldvantage/internal/constants"
	"github.com/fieldvantageai/fieldvantage/internal/models"
	"github.com/fieldvantageai/fieldvantage/internal/repository"
	"github.com/fieldvantageai/fieldvantage/internal/utils"
)

const (
	defaultInviteExpiry     = 72 * time.Hour
	defaultInviteTokenBytes = 48
)

var (
	ErrInviteNotFound         = errors.New("invite not found")
	ErrInviteNotPending       = errors.New("invite is no longer pending")
	ErrInviteEmailMismatch    = errors.New("invite is bound to a different email")
	ErrInviteEmailRequired    = errors.New("email is required")
	ErrInviteRoleForbidden    = errors.New("only owners and admins can manage invites")
	ErrEmployeeNotFound       = errors.New("employee not found")
	ErrEmployeeAlreadyLinked  = errors.New("employee is already linked to a user")
	ErrDuplicatePendingInvite = errors.New("employee already has a pending invite")
)

// InviteOption customises InviteService behaviour.
type InviteOption func(*InviteService)

// WithInviteExpiry overrides the invite token lifetime.
func WithInviteExpiry(d time.Duration) InviteOption {
	return func(s *InviteService) {
		if d > 0 {
			s.expiry = d
		}
	}
}

// WithInviteTokenSize adjusts the random token length in bytes.
func WithInviteTokenSize(size int) InviteOption {
	return func(s *InviteService) {
		if size > 0 {
			s.tokenLength = size
		}
	}
}

// WithInviteClock injects a custom clock primarily for testing.
func WithInviteClock(clock func() time.Time) InviteOption {
	return func(s *InviteService) {
		if clock != nil {
			s.now = clock
		}
	}
}

// InviteService owns the invitation state machine. The status column is
// the single authority; employee records mirror it and notifications
// are reconciled against it, all inside repository transactions.
type InviteService struct {
	inviteRepo       repository.InviteRepository
	employeeRepo     repository.EmployeeRepository
	userRepo         repository.UserRepository
	notificationRepo repository.NotificationRepository
	expiry           time.Duration
	tokenLength      int
	now              func() time.Time
}

// NewInviteService creates a new InviteService.
func NewInviteService(
	inviteRepo repository.InviteRepository,
	employeeRepo repository.EmployeeRepository,
	userRepo repository.UserRepository,
	notificationRepo repository.NotificationRepository,
	opts ...InviteOption,
) *InviteService {
	s := &InviteService{
		inviteRepo:       inviteRepo,
		employeeRepo:     employeeRepo,
		userRepo:         userRepo,
		notificationRepo: notificationRepo,
		expiry:           defaultInviteExpiry,
		tokenLength:      defaultInviteTokenBytes,
		now:              time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// CreateInviteInput represents parameters to create a new invite.
type CreateInviteInput struct {
	CompanyID  uint64
	ActorRole  models.MembershipRole
	EmployeeID uint64
	Role       models.MembershipRole
}

// CreateInvite issues a pending invite for an employee with no linked
// user. The raw token is returned exactly once and never persisted.
func (s *InviteService) CreateInvite(input CreateInviteInput) (*models.Invite, string, error) {
	if !input.ActorRole.CanManageCompany() {
		return nil, "", ErrInviteRoleForbidden
	}

	employee, err := s.employeeRepo.FindByID(input.EmployeeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", ErrEmployeeNotFound
		}
		return nil, "", fmt.Errorf("failed to find employee: %w", err)
	}
	if employee.CompanyID != input.CompanyID {
		return nil, "", ErrEmployeeNotFound
	}
	if employee.UserID != nil {
		return nil, "", ErrEmployeeAlreadyLinked
	}

	now := s.now()
	if existing, err := s.inviteRepo.FindPendingByEmployee(employee.ID); err == nil {
		if existing.EffectiveStatus(now) == models.InviteStatusPending {
			return nil, "", ErrDuplicatePendingInvite
		}
		// Stored-pending but past its deadline: persist the expiry so
		// the new invite becomes the only live one.
		if err := s.inviteRepo.MarkExpired(existing.ID, existing.EmployeeID); err != nil {
			return nil, "", fmt.Errorf("failed to expire stale invite: %w", err)
		}
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, "", fmt.Errorf("failed to check existing invites: %w", err)
	}

	rawToken, err := utils.GenerateToken(s.tokenLength)
	if err != nil {
		return nil, "", fmt.Errorf("failed to generate invite token: %w", err)
	}

	role := input.Role
	if role == "" {
		role = employee.Role
	}

	invite := &models.Invite{
		CompanyID:  input.CompanyID,
		EmployeeID: employee.ID,
		Email:      normalizeEmail(employee.Email),
		Role:       role,
		TokenHash:  tokenHash(rawToken),
		Status:     models.InviteStatusPending,
		ExpiresAt:  now.Add(s.expiry),
	}

	if err := s.inviteRepo.Create(invite); err != nil {
		return nil, "", fmt.Errorf("failed to create invite: %w", err)
	}

	// The inbox entry exists only once the email maps to a known
	// account; until then the invite is reachable solely via the token.
	if invite.Email != "" {
		if err := s.ensureNotification(invite); err != nil {
			return nil, "", err
		}
	}

	return invite, rawToken, nil
}

// ResolveByToken verifies a raw token and binds the provided email to
// the invite and its employee when not yet bound. Re-submitting the
// bound email is a no-op success; rebinding a different one is
// rejected.
func (s *InviteService) ResolveByToken(token, email string) (*models.Invite, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, ErrInviteNotFound
	}
	email = normalizeEmail(email)
	if email == "" {
		return nil, ErrInviteEmailRequired
	}

	invite, err := s.inviteRepo.FindByTokenHash(tokenHash(token))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInviteNotFound
		}
		return nil, fmt.Errorf("failed to find invite: %w", err)
	}

	if err := s.requirePending(invite); err != nil {
		return nil, err
	}

	switch invite.Email {
	case "":
		if err := s.inviteRepo.BindEmail(invite, email); err != nil {
			if !errors.Is(err, repository.ErrInviteEmailBound) {
				return nil, fmt.Errorf("failed to bind email: %w", err)
			}
			// A concurrent resolve bound first; re-read and apply the
			// idempotent/mismatch rules against the winner's email.
			invite, err = s.findInvite(invite.ID)
			if err != nil {
				return nil, err
			}
			if invite.Email != email {
				return nil, ErrInviteEmailMismatch
			}
		} else {
			invite.Email = email
		}
	case email:
		// Idempotent re-submission of the already-bound email.
	default:
		return nil, ErrInviteEmailMismatch
	}

	if err := s.ensureNotification(invite); err != nil {
		return nil, err
	}

	return invite, nil
}

// Accept transitions the invite to accepted and applies the membership,
// employee, and notification side effects atomically. The accepting
// principal's email must match the invite's bound email. Accepting a
// non-pending invite is rejected; the side effects must not
// double-apply.
func (s *InviteService) Accept(inviteID uint64, principal *models.User) (*models.Invite, error) {
	invite, err := s.findInvite(inviteID)
	if err != nil {
		return nil, err
	}

	if err := s.requirePending(invite); err != nil {
		return nil, err
	}

	if invite.Email == "" || invite.Email != normalizeEmail(principal.Email) {
		return nil, ErrInviteEmailMismatch
	}

	if err := s.inviteRepo.Accept(invite, principal.ID, s.now()); err != nil {
		if errors.Is(err, repository.ErrInviteNotPending) {
			// Lost the race against a concurrent transition.
			return nil, ErrInviteNotPending
		}
		return nil, fmt.Errorf("failed to accept invite: %w", err)
	}

	return s.findInvite(inviteID)
}

// Revoke transitions a pending invite to revoked. Revoking an invite
// that is already revoked or expired is a safe no-op returning the
// current state; an accepted invite was consumed and cannot be
// un-granted here, so revoke fails as no longer pending.
func (s *InviteService) Revoke(inviteID uint64, actorRole models.MembershipRole) (*models.Invite, error) {
	if !actorRole.CanManageCompany() {
		return nil, ErrInviteRoleForbidden
	}

	invite, err := s.findInvite(inviteID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if invite.EffectiveStatus(now) == models.InviteStatusExpired && invite.Status == models.InviteStatusPending {
		if err := s.inviteRepo.MarkExpired(invite.ID, invite.EmployeeID); err != nil {
			return nil, fmt.Errorf("failed to expire invite: %w", err)
		}
		return s.findInvite(inviteID)
	}
	if invite.Status == models.InviteStatusAccepted {
		return nil, ErrInviteNotPending
	}
	if invite.Status.IsTerminal() {
		return invite, nil
	}

	transitioned, err := s.inviteRepo.Revoke(invite.ID, invite.EmployeeID, now)
	if err != nil {
		return nil, fmt.Errorf("failed to revoke invite: %w", err)
	}

	invite, err = s.findInvite(inviteID)
	if err != nil {
		return nil, err
	}
	// Losing the race to a concurrent accept means the grant landed;
	// the revoker must see a failure, not a quiet success.
	if !transitioned && invite.Status == models.InviteStatusAccepted {
		return nil, ErrInviteNotPending
	}
	return invite, nil
}

// Decline revokes a pending invite through its notification and marks
// the notification read in the same transaction. Converging with a
// concurrent revoke is success; accepted and expired invites fail as
// no longer pending.
func (s *InviteService) Decline(inviteID, notificationID uint64) (*models.Invite, error) {
	invite, err := s.findInvite(inviteID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if invite.EffectiveStatus(now) == models.InviteStatusExpired && invite.Status == models.InviteStatusPending {
		if err := s.inviteRepo.MarkExpired(invite.ID, invite.EmployeeID); err != nil {
			return nil, fmt.Errorf("failed to expire invite: %w", err)
		}
		return nil, ErrInviteNotPending
	}
	if invite.Status == models.InviteStatusAccepted {
		return nil, ErrInviteNotPending
	}

	transitioned, err := s.inviteRepo.Decline(invite.ID, invite.EmployeeID, notificationID, now)
	if err != nil {
		return nil, fmt.Errorf("failed to decline invite: %w", err)
	}

	invite, err = s.findInvite(inviteID)
	if err != nil {
		return nil, err
	}
	if !transitioned && invite.Status == models.InviteStatusAccepted {
		return nil, ErrInviteNotPending
	}
	return invite, nil
}

// GetInvite returns the invite with lazy expiry persisted if due.
func (s *InviteService) GetInvite(inviteID uint64) (*models.Invite, error) {
	invite, err := s.findInvite(inviteID)
	if err != nil {
		return nil, err
	}

	if invite.EffectiveStatus(s.now()) == models.InviteStatusExpired && invite.Status == models.InviteStatusPending {
		if err := s.inviteRepo.MarkExpired(invite.ID, invite.EmployeeID); err != nil {
			return nil, fmt.Errorf("failed to expire invite: %w", err)
		}
		return s.findInvite(inviteID)
	}

	return invite, nil
}

func (s *InviteService) findInvite(inviteID uint64) (*models.Invite, error) {
	invite, err := s.inviteRepo.FindByID(inviteID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrInviteNotFound
		}
		return nil, fmt.Errorf("failed to find invite: %w", err)
	}
	return invite, nil
}

// requirePending rejects non-pending invites, persisting lazy expiry
// first so subsequent reads are consistent without recomputation.
func (s *InviteService) requirePending(invite *models.Invite) error {
	now := s.now()
	effective := invite.EffectiveStatus(now)
	if effective == models.InviteStatusExpired && invite.Status == models.InviteStatusPending {
		if err := s.inviteRepo.MarkExpired(invite.ID, invite.EmployeeID); err != nil {
			return fmt.Errorf("failed to expire invite: %w", err)
		}
		invite.Status = models.InviteStatusExpired
	}
	if effective != models.InviteStatusPending {
		return ErrInviteNotPending
	}
	return nil
}

// ensureNotification creates the inbox entry for the invite's bound
// email when that email maps to a known account and no entry exists.
func (s *InviteService) ensureNotification(invite *models.Invite) error {
	if invite.Email == "" {
		return nil
	}

	user, err := s.userRepo.FindByEmail(invite.Email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil
		}
		return fmt.Errorf("failed to resolve invite email: %w", err)
	}

	exists, err := s.notificationRepo.ExistsForInvite(invite.ID, user.ID)
	if err != nil {
		return fmt.Errorf("failed to check notification: %w", err)
	}
	if exists {
		return nil
	}

	notification := &models.Notification{
		UserID:    user.ID,
		Type:      constants.NotificationTypeCompanyInvite,
		InviteID:  invite.ID,
		CompanyID: invite.CompanyID,
	}
	if err := s.notificationRepo.Create(notification); err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func tokenHash(token string) string {
	checksum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(checksum[:])
}
