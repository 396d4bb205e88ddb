package constants

// Session names registered with the sessions middleware. The auth
// session carries the principal; the company session carries the sticky
// active-company hint and is written only on explicit selection.
const (
	SessionAuth    = "fieldvantage_session"
	SessionCompany = "fieldvantage_company"
)

// Session value keys.
const (
	SessionKeyUserID    = "user_id"
	SessionKeyCompanyID = "active_company_id"
)

// Gin context keys.
const (
	ContextKeyUserID      = "user_id"
	ContextKeyCompanyID   = "company_id"
	ContextKeyCompanyRole = "company_role"
	ContextKeyRequestID   = "request_id"
)

// NotificationTypeCompanyInvite marks inbox entries backed by an invite.
const NotificationTypeCompanyInvite = "company_invite"

// MinPasswordLength is the minimum accepted password length at signup.
const MinPasswordLength = 8

// Pagination bounds.
const (
	MinPageSize     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100
)
