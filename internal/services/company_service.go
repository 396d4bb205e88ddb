package services

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/gorm"

	"github.com/fieldvantageai/fieldvantage/internal/models"
	"github.com/fieldvantageai/fieldvantage/internal/repository"
	"github.com/fieldvantageai/fieldvantage/internal/utils"
)

var (
	ErrCompanyNotFound      = errors.New("company not found")
	ErrInvalidCompanyName   = errors.New("company name cannot be empty")
	ErrCannotRemoveYourself = errors.New("cannot remove yourself from the company")
	ErrMemberNotFound       = errors.New("company member not found")
	ErrLastOwner            = errors.New("cannot remove the last owner of a company")
	ErrInvalidEmployeeName  = errors.New("employee name cannot be empty")
)

// CompanyService provides business logic for company, membership, and
// employee directory operations.
type CompanyService struct {
	companyRepo  repository.CompanyRepository
	employeeRepo repository.EmployeeRepository
}

// NewCompanyService creates a new CompanyService.
func NewCompanyService(companyRepo repository.CompanyRepository, employeeRepo repository.EmployeeRepository) *CompanyService {
	return &CompanyService{
		companyRepo:  companyRepo,
		employeeRepo: employeeRepo,
	}
}

// RegisterCompanyInput represents parameters to register a new company.
type RegisterCompanyInput struct {
	Name    string
	OwnerID uint64
}

// RegisterCompany creates a company and its first membership
// (owner, active) in one transaction. This is the only membership
// created without an invite.
func (s *CompanyService) RegisterCompany(input RegisterCompanyInput) (*models.Company, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, ErrInvalidCompanyName
	}

	company := &models.Company{
		Name: input.Name,
	}

	owner := &models.Membership{
		UserID:   input.OwnerID,
		Role:     models.RoleOwner,
		Status:   models.MembershipActive,
		JoinedAt: time.Now(),
	}

	if err := s.companyRepo.CreateWithOwner(company, owner); err != nil {
		return nil, fmt.Errorf("failed to register company: %w", err)
	}

	return company, nil
}

// GetCompanyWithMembers returns a company and all of its memberships.
func (s *CompanyService) GetCompanyWithMembers(companyID uint64) (*models.Company, []models.Membership, error) {
	company, err := s.companyRepo.FindByID(companyID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, ErrCompanyNotFound
		}
		return nil, nil, fmt.Errorf("failed to find company: %w", err)
	}

	members, err := s.companyRepo.ListMembers(companyID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list company members: %w", err)
	}

	return company, members, nil
}

// RemoveMember flips a membership to removed. The row survives for
// audit history. Removing the last active owner is rejected.
func (s *CompanyService) RemoveMember(companyID, actorID, targetID uint64) error {
	if targetID == actorID {
		return ErrCannotRemoveYourself
	}

	membership, err := s.companyRepo.FindMembership(companyID, targetID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrMemberNotFound
		}
		return fmt.Errorf("failed to find company member: %w", err)
	}
	if !membership.IsActive() {
		return ErrMemberNotFound
	}

	if membership.Role == models.RoleOwner {
		owners, err := s.companyRepo.CountActiveByRole(companyID, models.RoleOwner)
		if err != nil {
			return fmt.Errorf("failed to count owners: %w", err)
		}
		if owners <= 1 {
			return ErrLastOwner
		}
	}

	if err := s.companyRepo.SetMembershipStatus(companyID, targetID, models.MembershipRemoved); err != nil {
		return fmt.Errorf("failed to remove member: %w", err)
	}

	return nil
}

// CreateEmployeeInput represents parameters to create an employee record.
type CreateEmployeeInput struct {
	CompanyID uint64
	Name      string
	Email     string
	Role      models.MembershipRole
}

// CreateEmployee adds an employee record to the company directory. The
// record is the target of a later invite; it carries no user link yet.
func (s *CompanyService) CreateEmployee(input CreateEmployeeInput) (*models.Employee, error) {
	if strings.TrimSpace(input.Name) == "" {
		return nil, ErrInvalidEmployeeName
	}

	role := input.Role
	if role == "" {
		role = models.RoleMember
	}

	employee := &models.Employee{
		CompanyID: input.CompanyID,
		Name:      strings.TrimSpace(input.Name),
		Email:     strings.ToLower(strings.TrimSpace(input.Email)),
		Role:      role,
		IsActive:  true,
	}

	if err := s.employeeRepo.Create(employee); err != nil {
		return nil, fmt.Errorf("failed to create employee: %w", err)
	}

	return employee, nil
}

// ListEmployees returns the company's employee directory.
func (s *CompanyService) ListEmployees(companyID uint64, params utils.PaginationParams) ([]models.Employee, int64, error) {
	employees, total, err := s.employeeRepo.ListByCompany(companyID, params)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list employees: %w", err)
	}
	return employees, total, nil
}
