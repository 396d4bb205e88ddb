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
)

// InviteHandler coordinates invite lifecycle HTTP handlers.
type InviteHandler struct {
	inviteService *services.InviteService
	authService   *services.AuthService
}

// NewInviteHandler creates a new InviteHandler.
func NewInviteHandler(inviteService *services.InviteService, authService *services.AuthService) *InviteHandler {
	return &InviteHandler{
		inviteService: inviteService,
		authService:   authService,
	}
}

// CreateInvite issues a pending invite within the active company
// context. The response carries the raw token exactly once.
func (h *InviteHandler) CreateInvite(c *gin.Context) {
	companyID, role, exists := middleware.GetActiveContext(c)
	if !exists {
		apierrors.NoActiveContext(c)
		return
	}

	type CreateInviteRequest struct {
		EmployeeID uint64                `json:"employee_id" binding:"required"`
		Role       models.MembershipRole `json:"role" binding:"omitempty,oneof=owner admin member"`
	}

	var req CreateInviteRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	invite, token, err := h.inviteService.CreateInvite(services.CreateInviteInput{
		CompanyID:  companyID,
		ActorRole:  role,
		EmployeeID: req.EmployeeID,
		Role:       req.Role,
	})
	if err != nil {
		respondInviteError(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.ToCreatedInviteDTO(*invite, token))
}

// ResolveByToken verifies a raw invite token and binds the provided
// email. Reachable without authentication: the invitee may not have an
// account yet.
func (h *InviteHandler) ResolveByToken(c *gin.Context) {
	type ResolveRequest struct {
		Token string `json:"token" binding:"required"`
		Email string `json:"email" binding:"required,email"`
	}

	var req ResolveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}

	invite, err := h.inviteService.ResolveByToken(req.Token, req.Email)
	if err != nil {
		respondInviteError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToInviteDTO(*invite))
}

// AcceptInvite accepts a pending invite as the authenticated principal.
func (h *InviteHandler) AcceptInvite(c *gin.Context) {
	userID, exists := middleware.GetUserID(c)
	if !exists {
		apierrors.Unauthorized(c, "Not authenticated")
		return
	}

	inviteID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid invite ID")
		return
	}

	principal, err := h.authService.GetUser(userID)
	if err != nil {
		respondAuthError(c, err)
		return
	}

	invite, err := h.inviteService.Accept(inviteID, principal)
	if err != nil {
		respondInviteError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToInviteDTO(*invite))
}

// RevokeInvite revokes a pending invite within the active company
// context. Revoking an already-terminal invite is a no-op success.
func (h *InviteHandler) RevokeInvite(c *gin.Context) {
	companyID, role, exists := middleware.GetActiveContext(c)
	if !exists {
		apierrors.NoActiveContext(c)
		return
	}

	inviteID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		apierrors.BadRequest(c, "Invalid invite ID")
		return
	}

	invite, err := h.inviteService.GetInvite(inviteID)
	if err != nil {
		respondInviteError(c, err)
		return
	}
	if invite.CompanyID != companyID {
		apierrors.NotFound(c, "Invite not found")
		return
	}

	invite, err = h.inviteService.Revoke(inviteID, role)
	if err != nil {
		respondInviteError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToInviteDTO(*invite))
}

func respondInviteError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, services.ErrInviteEmailRequired):
		apierrors.BadRequest(c, err.Error())
	case errors.Is(err, services.ErrInviteRoleForbidden),
		errors.Is(err, services.ErrInviteEmailMismatch):
		apierrors.Forbidden(c, err.Error())
	case errors.Is(err, services.ErrInviteNotFound),
		errors.Is(err, services.ErrEmployeeNotFound):
		apierrors.NotFound(c, err.Error())
	case errors.Is(err, services.ErrInviteNotPending):
		apierrors.Gone(c, "Invite is no longer available")
	case errors.Is(err, services.ErrDuplicatePendingInvite),
		errors.Is(err, services.ErrEmployeeAlreadyLinked):
		apierrors.Conflict(c, err.Error())
	default:
		apierrors.InternalError(c, "Internal server error")
	}
}
