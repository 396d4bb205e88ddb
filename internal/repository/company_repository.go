package repository

import (
	"errors"
	"fmt"

	"github.com/fieldvantageai/fieldvantage/internal/models"
	"gorm.io/gorm"
)

var (
	// ErrCreateCompany is returned when creating a company fails inside the registration transaction.
	ErrCreateCompany = errors.New("company repository: create company failed")
	// ErrCreateMembership is returned when creating the owner membership fails inside the registration transaction.
	ErrCreateMembership = errors.New("company repository: create membership failed")
)

// GormCompanyRepository is a GORM implementation of CompanyRepository
type GormCompanyRepository struct {
	db *gorm.DB
}

// NewCompanyRepository creates a new CompanyRepository
func NewCompanyRepository(db *gorm.DB) CompanyRepository {
	return &GormCompanyRepository{db: db}
}

// CreateWithOwner creates a company and its first owner membership atomically.
func (r *GormCompanyRepository) CreateWithOwner(company *models.Company, owner *models.Membership) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(company).Error; err != nil {
			return fmt.Errorf("%w: %v", ErrCreateCompany, err)
		}

		owner.CompanyID = company.ID

		if err := tx.Create(owner).Error; err != nil {
			return fmt.Errorf("%w: %v", ErrCreateMembership, err)
		}

		return nil
	})
}

// FindByID finds a company by ID
func (r *GormCompanyRepository) FindByID(id uint64) (*models.Company, error) {
	var company models.Company
	if err := r.db.First(&company, id).Error; err != nil {
		return nil, err
	}
	return &company, nil
}

// FindMembership finds a membership row regardless of status
func (r *GormCompanyRepository) FindMembership(companyID, userID uint64) (*models.Membership, error) {
	var member models.Membership
	if err := r.db.Where("company_id = ? AND user_id = ?", companyID, userID).
		First(&member).Error; err != nil {
		return nil, err
	}
	return &member, nil
}

// ListActiveMembershipsByUser lists active memberships for a user
func (r *GormCompanyRepository) ListActiveMembershipsByUser(userID uint64) ([]models.Membership, error) {
	var memberships []models.Membership
	if err := r.db.Preload("Company").
		Where("user_id = ? AND status = ?", userID, models.MembershipActive).
		Find(&memberships).Error; err != nil {
		return nil, err
	}
	return memberships, nil
}

// ListMembers lists all memberships of a company
func (r *GormCompanyRepository) ListMembers(companyID uint64) ([]models.Membership, error) {
	var members []models.Membership
	if err := r.db.Preload("User").
		Where("company_id = ?", companyID).
		Find(&members).Error; err != nil {
		return nil, err
	}
	return members, nil
}

// CountActiveByRole counts active memberships with the given role
func (r *GormCompanyRepository) CountActiveByRole(companyID uint64, role models.MembershipRole) (int64, error) {
	var count int64
	err := r.db.Model(&models.Membership{}).
		Where("company_id = ? AND role = ? AND status = ?", companyID, role, models.MembershipActive).
		Count(&count).Error
	return count, err
}

// SetMembershipStatus updates the status of a membership row
func (r *GormCompanyRepository) SetMembershipStatus(companyID, userID uint64, status models.MembershipStatus) error {
	return r.db.Model(&models.Membership{}).
		Where("company_id = ? AND user_id = ?", companyID, userID).
		Update("status", status).Error
}
