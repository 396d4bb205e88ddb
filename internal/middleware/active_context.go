package middleware

import (
	"errors"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"

	"github.com/fieldvantageai/fieldvantage/internal/constants"
	apierrors "github.com/fieldvantageai/fieldvantage/internal/errors"
	"github.com/fieldvantageai/fieldvantage/internal/models"
	"github.com/fieldvantageai/fieldvantage/internal/services"
)

// RequireActiveContext resolves the company the session is scoped to
// from membership rows plus the sticky hint and stores it in the gin
// context. Ambiguity aborts with a selection prompt rather than
// guessing.
func RequireActiveContext(contextService *services.ContextService) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID, exists := GetUserID(c)
		if !exists {
			apierrors.Unauthorized(c, "")
			c.Abort()
			return
		}

		ctx, err := contextService.ResolveContext(userID, StickyCompanyHint(c))
		if err != nil {
			if errors.Is(err, services.ErrNoActiveContext) {
				apierrors.NoActiveContext(c)
			} else {
				apierrors.InternalError(c, "Failed to resolve company context")
			}
			c.Abort()
			return
		}

		c.Set(constants.ContextKeyCompanyID, ctx.CompanyID)
		c.Set(constants.ContextKeyCompanyRole, ctx.Role)
		c.Next()
	}
}

// StickyCompanyHint reads the sticky company selection from the company
// session, if any. The hint only disambiguates; it never authorizes.
func StickyCompanyHint(c *gin.Context) *uint64 {
	session := sessions.DefaultMany(c, constants.SessionCompany)
	raw := session.Get(constants.SessionKeyCompanyID)
	if raw == nil {
		return nil
	}

	switch v := raw.(type) {
	case uint64:
		return &v
	case int64:
		if v < 0 {
			return nil
		}
		u := uint64(v)
		return &u
	case int:
		if v < 0 {
			return nil
		}
		u := uint64(v)
		return &u
	default:
		return nil
	}
}

// SetStickyCompanyHint persists the explicit company selection.
func SetStickyCompanyHint(c *gin.Context, companyID uint64) error {
	session := sessions.DefaultMany(c, constants.SessionCompany)
	session.Set(constants.SessionKeyCompanyID, companyID)
	return session.Save()
}

// GetActiveContext retrieves the resolved company context from the gin context.
func GetActiveContext(c *gin.Context) (uint64, models.MembershipRole, bool) {
	companyID, exists := c.Get(constants.ContextKeyCompanyID)
	if !exists {
		return 0, "", false
	}
	role, exists := c.Get(constants.ContextKeyCompanyRole)
	if !exists {
		return 0, "", false
	}

	id, ok := companyID.(uint64)
	if !ok {
		return 0, "", false
	}
	r, ok := role.(models.MembershipRole)
	if !ok {
		return 0, "", false
	}
	return id, r, true
}
