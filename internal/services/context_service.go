package services

import (
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/fieldvantageai/fieldvantage/internal/logger"
	"github.com/fieldvantageai/fieldvantage/internal/models"
	"github.com/fieldvantageai/fieldvantage/internal/repository"
)

var (
	ErrNoActiveContext     = errors.New("no active company context")
	ErrCompanyAccessDenied = errors.New("user has no active membership in this company")
)

// ActiveContext is the company and role a request operates under. It is
// derived fresh per request from membership rows plus the sticky hint;
// nothing is cached process-wide.
type ActiveContext struct {
	CompanyID uint64
	Role      models.MembershipRole
}

// ContextService resolves which company a principal is acting within.
type ContextService struct {
	companyRepo repository.CompanyRepository
	userRepo    repository.UserRepository
}

// NewContextService creates a new ContextService.
func NewContextService(companyRepo repository.CompanyRepository, userRepo repository.UserRepository) *ContextService {
	return &ContextService{
		companyRepo: companyRepo,
		userRepo:    userRepo,
	}
}

// ResolveContext computes the single company the session is scoped to.
// A user with exactly one active membership resolves to it regardless
// of the hint. With several, the hint must name one of them; ambiguity
// is never resolved by picking an arbitrary company.
func (s *ContextService) ResolveContext(userID uint64, hint *uint64) (*ActiveContext, error) {
	memberships, err := s.companyRepo.ListActiveMembershipsByUser(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load memberships: %w", err)
	}

	switch len(memberships) {
	case 0:
		return nil, ErrNoActiveContext
	case 1:
		m := memberships[0]
		return &ActiveContext{CompanyID: m.CompanyID, Role: m.Role}, nil
	}

	if hint == nil {
		return nil, ErrNoActiveContext
	}
	for _, m := range memberships {
		if m.CompanyID == *hint {
			return &ActiveContext{CompanyID: m.CompanyID, Role: m.Role}, nil
		}
	}
	return nil, ErrNoActiveContext
}

// SelectCompany validates an explicit company selection. Selecting a
// company without an active membership is rejected, never silently
// substituted. The last-active marker is recorded best-effort.
func (s *ContextService) SelectCompany(userID, companyID uint64) (*ActiveContext, error) {
	membership, err := s.companyRepo.FindMembership(companyID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrCompanyAccessDenied
		}
		return nil, fmt.Errorf("failed to find membership: %w", err)
	}
	if !membership.IsActive() {
		return nil, ErrCompanyAccessDenied
	}

	if err := s.userRepo.SetLastActiveCompany(userID, companyID); err != nil {
		logger.WithModule("context").Warn("failed to record last active company",
			zap.Uint64("user_id", userID),
			zap.Uint64("company_id", companyID),
			zap.Error(err),
		)
	}

	return &ActiveContext{CompanyID: membership.CompanyID, Role: membership.Role}, nil
}

// ListCompaniesForUser returns the user's active memberships with
// companies preloaded.
func (s *ContextService) ListCompaniesForUser(userID uint64) ([]models.Membership, error) {
	memberships, err := s.companyRepo.ListActiveMembershipsByUser(userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list companies: %w", err)
	}
	return memberships, nil
}
