package middleware

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/fieldvantageai/fieldvantage/internal/constants"
	"github.com/fieldvantageai/fieldvantage/internal/database"
	apierrors "github.com/fieldvantageai/fieldvantage/internal/errors"
	"github.com/fieldvantageai/fieldvantage/internal/models"
)

// RequireCompanyAccess checks that the user holds an active membership
// in the company named by the :id URL parameter.
func RequireCompanyAccess() gin.HandlerFunc {
	return func(c *gin.Context) {
		companyIDStr := c.Param("id")
		companyID, err := strconv.ParseUint(companyIDStr, 10, 64)
		if err != nil {
			apierrors.BadRequest(c, "Invalid company ID")
			c.Abort()
			return
		}

		userID, exists := GetUserID(c)
		if !exists {
			apierrors.Unauthorized(c, "")
			c.Abort()
			return
		}

		var company models.Company
		if err := database.GetDB().First(&company, companyID).Error; err != nil {
			// Return 404 instead of 403 to avoid leaking company existence
			apierrors.NotFound(c, "Company not found")
			c.Abort()
			return
		}

		var member models.Membership
		err = database.GetDB().
			Where("company_id = ? AND user_id = ? AND status = ?", companyID, userID, models.MembershipActive).
			First(&member).Error
		if err != nil {
			apierrors.NotFound(c, "Company not found")
			c.Abort()
			return
		}

		c.Set("company", company)
		c.Set("company_membership", member)
		c.Set(constants.ContextKeyCompanyID, companyID)
		c.Set(constants.ContextKeyCompanyRole, member.Role)
		c.Next()
	}
}

// RequireCompanyManager checks that the resolved membership can manage
// the company (owner or admin).
func RequireCompanyManager() gin.HandlerFunc {
	return func(c *gin.Context) {
		memberInterface, exists := c.Get("company_membership")
		if !exists {
			apierrors.Forbidden(c, "Company access required")
			c.Abort()
			return
		}

		member, ok := memberInterface.(models.Membership)
		if !ok {
			apierrors.InternalError(c, "Invalid company membership data")
			c.Abort()
			return
		}

		if !member.Role.CanManageCompany() {
			apierrors.Forbidden(c, "Only company owners and admins can perform this action")
			c.Abort()
			return
		}

		c.Next()
	}
}
