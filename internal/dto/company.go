package dto

import (
	"time"

	"github.com/fieldvantageai/fieldvantage/internal/models"
	"github.com/fieldvantageai/fieldvantage/internal/services"
)

// CompanyDTO represents a company in API responses
type CompanyDTO struct {
	ID   uint64 `json:"id"`
	Name string `json:"name"`
}

// CompanyWithRoleDTO represents a company with the user's role
type CompanyWithRoleDTO struct {
	CompanyDTO
	Role models.MembershipRole `json:"role"`
}

// MemberDTO represents a member in a company
type MemberDTO struct {
	User     UserDTO                 `json:"user"`
	Role     models.MembershipRole   `json:"role"`
	Status   models.MembershipStatus `json:"status"`
	JoinedAt time.Time               `json:"joined_at"`
}

// ActiveContextDTO represents the resolved company scope of a session
type ActiveContextDTO struct {
	CompanyID uint64                `json:"company_id"`
	Role      models.MembershipRole `json:"role"`
}

// EmployeeDTO represents an employee directory entry
type EmployeeDTO struct {
	ID               uint64                `json:"id"`
	CompanyID        uint64                `json:"company_id"`
	UserID           *uint64               `json:"user_id,omitempty"`
	Name             string                `json:"name"`
	Email            string                `json:"email,omitempty"`
	Role             models.MembershipRole `json:"role"`
	InvitationStatus models.InviteStatus   `json:"invitation_status,omitempty"`
	IsActive         bool                  `json:"is_active"`
}

// ToCompanyDTO converts a company to DTO
func ToCompanyDTO(company models.Company) CompanyDTO {
	return CompanyDTO{
		ID:   company.ID,
		Name: company.Name,
	}
}

// ToCompanyWithRoleDTO converts a membership to a company DTO with role
func ToCompanyWithRoleDTO(membership models.Membership) CompanyWithRoleDTO {
	return CompanyWithRoleDTO{
		CompanyDTO: ToCompanyDTO(membership.Company),
		Role:       membership.Role,
	}
}

// ToMemberDTO converts a membership to DTO
func ToMemberDTO(membership models.Membership) MemberDTO {
	return MemberDTO{
		User:     ToUserDTO(membership.User),
		Role:     membership.Role,
		Status:   membership.Status,
		JoinedAt: membership.JoinedAt,
	}
}

// ToActiveContextDTO converts a resolved context to DTO
func ToActiveContextDTO(ctx services.ActiveContext) ActiveContextDTO {
	return ActiveContextDTO{
		CompanyID: ctx.CompanyID,
		Role:      ctx.Role,
	}
}

// ToEmployeeDTO converts an employee to DTO
func ToEmployeeDTO(employee models.Employee) EmployeeDTO {
	return EmployeeDTO{
		ID:               employee.ID,
		CompanyID:        employee.CompanyID,
		UserID:           employee.UserID,
		Name:             employee.Name,
		Email:            employee.Email,
		Role:             employee.Role,
		InvitationStatus: employee.InvitationStatus,
		IsActive:         employee.IsActive,
	}
}
