package services

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/fieldvantageai/fieldvantage/internal/models"
)

func TestContextService_ResolveContext_NoMemberships(t *testing.T) {
	env := setupServiceTestEnv(t)

	user := createTestUser(t, env.db, "solo@example.com")

	_, err := env.contextService.ResolveContext(user.ID, nil)
	require.ErrorIs(t, err, ErrNoActiveContext)
}

func TestContextService_ResolveContext_SingleMembership(t *testing.T) {
	env := setupServiceTestEnv(t)

	user := createTestUser(t, env.db, "solo@example.com")
	company := createTestCompany(t, env.db, "Acme")
	createTestMembership(t, env.db, company.ID, user.ID, models.RoleAdmin, models.MembershipActive)

	// A stale hint pointing at a company the user never joined does not
	// matter when only one membership exists.
	stale := uint64(9999)
	ctx, err := env.contextService.ResolveContext(user.ID, &stale)
	require.NoError(t, err)
	require.Equal(t, company.ID, ctx.CompanyID)
	require.Equal(t, models.RoleAdmin, ctx.Role)
}

func TestContextService_ResolveContext_MultipleMemberships(t *testing.T) {
	env := setupServiceTestEnv(t)

	user := createTestUser(t, env.db, "multi@example.com")
	first := createTestCompany(t, env.db, "First")
	second := createTestCompany(t, env.db, "Second")
	createTestMembership(t, env.db, first.ID, user.ID, models.RoleOwner, models.MembershipActive)
	createTestMembership(t, env.db, second.ID, user.ID, models.RoleMember, models.MembershipActive)

	// Ambiguity without a hint is an error, never an arbitrary pick.
	_, err := env.contextService.ResolveContext(user.ID, nil)
	require.ErrorIs(t, err, ErrNoActiveContext)

	hint := second.ID
	ctx, err := env.contextService.ResolveContext(user.ID, &hint)
	require.NoError(t, err)
	require.Equal(t, second.ID, ctx.CompanyID)
	require.Equal(t, models.RoleMember, ctx.Role)

	// A hint naming a company outside the membership set never grants
	// access.
	outsider := uint64(9999)
	_, err = env.contextService.ResolveContext(user.ID, &outsider)
	require.ErrorIs(t, err, ErrNoActiveContext)
}

func TestContextService_ResolveContext_IgnoresRemovedMemberships(t *testing.T) {
	env := setupServiceTestEnv(t)

	user := createTestUser(t, env.db, "removed@example.com")
	kept := createTestCompany(t, env.db, "Kept")
	left := createTestCompany(t, env.db, "Left")
	createTestMembership(t, env.db, kept.ID, user.ID, models.RoleMember, models.MembershipActive)
	createTestMembership(t, env.db, left.ID, user.ID, models.RoleOwner, models.MembershipRemoved)

	// The removed membership does not count, so resolution collapses to
	// the single remaining company.
	ctx, err := env.contextService.ResolveContext(user.ID, nil)
	require.NoError(t, err)
	require.Equal(t, kept.ID, ctx.CompanyID)
}

func TestContextService_SelectCompany(t *testing.T) {
	env := setupServiceTestEnv(t)

	user := createTestUser(t, env.db, "picker@example.com")
	company := createTestCompany(t, env.db, "Acme")
	createTestMembership(t, env.db, company.ID, user.ID, models.RoleOwner, models.MembershipActive)

	ctx, err := env.contextService.SelectCompany(user.ID, company.ID)
	require.NoError(t, err)
	require.Equal(t, company.ID, ctx.CompanyID)
	require.Equal(t, models.RoleOwner, ctx.Role)

	var stored models.User
	require.NoError(t, env.db.First(&stored, user.ID).Error)
	require.NotNil(t, stored.LastActiveCompanyID)
	require.Equal(t, company.ID, *stored.LastActiveCompanyID)
}

func TestContextService_SelectCompany_Denied(t *testing.T) {
	env := setupServiceTestEnv(t)

	user := createTestUser(t, env.db, "picker@example.com")
	company := createTestCompany(t, env.db, "Acme")

	// No membership at all.
	_, err := env.contextService.SelectCompany(user.ID, company.ID)
	require.ErrorIs(t, err, ErrCompanyAccessDenied)

	// A removed membership is just as dead.
	createTestMembership(t, env.db, company.ID, user.ID, models.RoleMember, models.MembershipRemoved)
	_, err = env.contextService.SelectCompany(user.ID, company.ID)
	require.ErrorIs(t, err, ErrCompanyAccessDenied)
}
