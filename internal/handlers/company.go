package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/fieldvantageai/fieldvantage/internal/dto"
	apierrors "github.com/fieldvantageai/fieldvantage/internal/errors"
	"github.com/fieldvantageai/fieldvantage/internal/middleware"
	"github.com/fieldvantageai/fieldvantage/internal/models"
	"github.com/fieldvantageai/fieldvantage/internal/services"
	"github.com/fieldvantageai/fieldvantage/internal/utils"
)

// CompanyHandler coordinates company, membership, and employee handlers.
type CompanyHandler struct {
	companyService *services.CompanyService
	contextService *services.ContextService
}

// NewCompanyHandler creates a new CompanyHandler.
func NewCompanyHandler(companyService *services.CompanyService, contextService *services.ContextService) *CompanyHandler {
	return &CompanyHandler{
		companyService: companyService,
		contextService: contextService,
	}
}

// RegisterCompany creates a company with the caller as its first owner.
func (h *CompanyHandler) RegisterCompany(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	type RegisterRequest struct {
		Name string `json:"name" binding:"required"`
	}

	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	company, err := h.companyService.RegisterCompany(services.RegisterCompanyInput{
		Name:    req.Name,
		OwnerID: userID,
	})
	if err != nil {
		respondCompanyError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToCompanyDTO(*company))
}

// ListCompanies returns all companies the user holds an active membership in.
func (h *CompanyHandler) ListCompanies(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	memberships, err := h.contextService.ListCompaniesForUser(userID)
	if err != nil {
		apierrors.InternalError(c, "Failed to fetch companies")
		return
	}

	companies := make([]dto.CompanyWithRoleDTO, len(memberships))
	for i, m := range memberships {
		companies[i] = dto.ToCompanyWithRoleDTO(m)
	}

	c.JSON(http.StatusOK, gin.H{
		"companies": companies,
	})
}

// SelectCompany records an explicit active-company selection and
// persists the sticky hint.
func (h *CompanyHandler) SelectCompany(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	type SelectRequest struct {
		CompanyID uint64 `json:"company_id" binding:"required"`
	}

	var req SelectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	ctx, err := h.contextService.SelectCompany(userID, req.CompanyID)
	if err != nil {
		respondCompanyError(c, err)
		return
	}

	if err := middleware.SetStickyCompanyHint(c, ctx.CompanyID); err != nil {
		apierrors.InternalError(c, "Failed to save company selection")
		return
	}

	c.JSON(http.StatusOK, dto.ToActiveContextDTO(*ctx))
}

// GetActiveContext returns the company the session currently resolves to.
func (h *CompanyHandler) GetActiveContext(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	ctx, err := h.contextService.ResolveContext(userID, middleware.StickyCompanyHint(c))
	if err != nil {
		if errors.Is(err, services.ErrNoActiveContext) {
			apierrors.NoActiveContext(c)
			return
		}
		apierrors.InternalError(c, "Failed to resolve company context")
		return
	}

	c.JSON(http.StatusOK, dto.ToActiveContextDTO(*ctx))
}

// ListMembers returns the members of a company.
func (h *CompanyHandler) ListMembers(c *gin.Context) {
	companyInterface, _ := c.Get("company")
	company := companyInterface.(models.Company)

	_, members, err := h.companyService.GetCompanyWithMembers(company.ID)
	if err != nil {
		respondCompanyError(c, err)
		return
	}

	memberDTOs := make([]dto.MemberDTO, len(members))
	for i, m := range members {
		memberDTOs[i] = dto.ToMemberDTO(m)
	}

	c.JSON(http.StatusOK, gin.H{
		"company": dto.ToCompanyDTO(company),
		"members": memberDTOs,
	})
}

// RemoveMember flips a member's status to removed.
func (h *CompanyHandler) RemoveMember(c *gin.Context) {
	companyInterface, _ := c.Get("company")
	company := companyInterface.(models.Company)

	targetID, err := strconv.ParseUint(c.Param("user_id"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid user ID")
		return
	}

	actorID, _ := middleware.GetUserID(c)

	if err := h.companyService.RemoveMember(company.ID, actorID, targetID); err != nil {
		respondCompanyError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Member removed successfully",
	})
}

// CreateEmployee adds an employee record to the company directory.
func (h *CompanyHandler) CreateEmployee(c *gin.Context) {
	companyInterface, _ := c.Get("company")
	company := companyInterface.(models.Company)

	type CreateEmployeeRequest struct {
		Name  string                `json:"name" binding:"required"`
		Email string                `json:"email" binding:"omitempty,email"`
		Role  models.MembershipRole `json:"role" binding:"omitempty,oneof=owner admin member"`
	}

	var req CreateEmployeeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	employee, err := h.companyService.CreateEmployee(services.CreateEmployeeInput{
		CompanyID: company.ID,
		Name:      req.Name,
		Email:     req.Email,
		Role:      req.Role,
	})
	if err != nil {
		respondCompanyError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToEmployeeDTO(*employee))
}

// ListEmployees returns the company's employee directory.
func (h *CompanyHandler) ListEmployees(c *gin.Context) {
	companyInterface, _ := c.Get("company")
	company := companyInterface.(models.Company)

	params := utils.GetPaginationParams(c)
	employees, total, err := h.companyService.ListEmployees(company.ID, params)
	if err != nil {
		respondCompanyError(c, err)
		return
	}

	employeeDTOs := make([]dto.EmployeeDTO, len(employees))
	for i, e := range employees {
		employeeDTOs[i] = dto.ToEmployeeDTO(e)
	}

	c.JSON(http.StatusOK, gin.H{
		"employees": employeeDTOs,
		"pagination": utils.PaginationResponse{
			Page:  params.Page,
			Limit: params.Limit,
			Total: total,
		},
	})
}

func respondCompanyError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrInvalidCompanyName),
		errors.Is(err, services.ErrInvalidEmployeeName),
		errors.Is(err, services.ErrCannotRemoveYourself):
		apierrors.BadRequest(c, err.Error())
	case errors.Is(err, services.ErrCompanyAccessDenied):
		apierrors.Forbidden(c, err.Error())
	case errors.Is(err, services.ErrLastOwner):
		apierrors.Conflict(c, err.Error())
	case errors.Is(err, services.ErrCompanyNotFound),
		errors.Is(err, services.ErrMemberNotFound):
		apierrors.NotFound(c, err.Error())
	default:
		apierrors.InternalError(c, "Internal server error")
	}
}
