package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/fieldvantageai/fieldvantage/internal/database"
	"github.com/fieldvantageai/fieldvantage/internal/dto"
	"github.com/fieldvantageai/fieldvantage/internal/middleware"
	"github.com/fieldvantageai/fieldvantage/internal/models"
	"github.com/fieldvantageai/fieldvantage/internal/repository"
	"github.com/fieldvantageai/fieldvantage/internal/services"
)

type companyTestEnv struct {
	db             *gorm.DB
	router         *gin.Engine
	authService    *services.AuthService
	companyService *services.CompanyService
}

// setupCompanyTestEnv wires the real router the way production does,
// with a cookie store standing in for Redis.
func setupCompanyTestEnv(t *testing.T) companyTestEnv {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(
		&models.User{},
		&models.Company{},
		&models.Membership{},
		&models.Employee{},
		&models.Invite{},
		&models.Notification{},
	)
	require.NoError(t, err)

	database.SetDB(db)

	userRepo := repository.NewUserRepository(db)
	companyRepo := repository.NewCompanyRepository(db)
	employeeRepo := repository.NewEmployeeRepository(db)

	authService := services.NewAuthService(userRepo)
	contextService := services.NewContextService(companyRepo, userRepo)
	companyService := services.NewCompanyService(companyRepo, employeeRepo)

	authHandler := NewAuthHandler(authService)
	companyHandler := NewCompanyHandler(companyService, contextService)

	r := sessionRouter()
	r.POST("/api/auth/login", authHandler.Login)

	companies := r.Group("/api/companies")
	companies.Use(middleware.RequireAuth())
	{
		companies.POST("", companyHandler.RegisterCompany)
		companies.GET("", companyHandler.ListCompanies)
		companies.POST("/select", companyHandler.SelectCompany)
		companies.GET("/current", companyHandler.GetActiveContext)
		companies.GET("/:id/members", middleware.RequireCompanyAccess(), companyHandler.ListMembers)
		companies.DELETE("/:id/members/:user_id", middleware.RequireCompanyAccess(), middleware.RequireCompanyManager(), companyHandler.RemoveMember)
		companies.POST("/:id/employees", middleware.RequireCompanyAccess(), middleware.RequireCompanyManager(), companyHandler.CreateEmployee)
		companies.GET("/:id/employees", middleware.RequireCompanyAccess(), companyHandler.ListEmployees)
	}

	sqlDB, err := db.DB()
	require.NoError(t, err)
	t.Cleanup(func() {
		sqlDB.Close()
	})

	return companyTestEnv{
		db:             db,
		router:         r,
		authService:    authService,
		companyService: companyService,
	}
}

// signupAndLogin creates an account and returns its session cookies.
func signupAndLogin(t *testing.T, env companyTestEnv, email string) (*models.User, []*http.Cookie) {
	t.Helper()

	user, err := env.authService.Signup(services.SignupInput{
		Email:    email,
		Password: "supersecret",
	})
	require.NoError(t, err)

	payload := map[string]string{
		"email":    email,
		"password": "supersecret",
	}
	body, err := json.Marshal(payload)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	env.router.ServeHTTP(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	return user, w.Result().Cookies()
}

func doJSON(t *testing.T, env companyTestEnv, method, url string, payload interface{}, cookies []*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	var body []byte
	if payload != nil {
		var err error
		body, err = json.Marshal(payload)
		require.NoError(t, err)
	}

	req := httptest.NewRequest(method, url, bytes.NewReader(body))
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	w := httptest.NewRecorder()

	env.router.ServeHTTP(w, req)
	return w
}

// mergeCookies overlays freshly set cookies on top of the existing jar.
func mergeCookies(existing, fresh []*http.Cookie) []*http.Cookie {
	byName := make(map[string]*http.Cookie, len(existing))
	for _, c := range existing {
		byName[c.Name] = c
	}
	for _, c := range fresh {
		byName[c.Name] = c
	}
	merged := make([]*http.Cookie, 0, len(byName))
	for _, c := range byName {
		merged = append(merged, c)
	}
	return merged
}

func TestCompanyHandler_RegisterCompany(t *testing.T) {
	env := setupCompanyTestEnv(t)

	user, cookies := signupAndLogin(t, env, "founder@example.com")

	w := doJSON(t, env, http.MethodPost, "/api/companies", map[string]string{"name": "Acme Field Services"}, cookies)
	require.Equal(t, http.StatusCreated, w.Code)

	var response dto.CompanyDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.Equal(t, "Acme Field Services", response.Name)

	// The founder holds the first owner membership.
	var membership models.Membership
	require.NoError(t, env.db.Where("company_id = ? AND user_id = ?", response.ID, user.ID).First(&membership).Error)
	require.Equal(t, models.RoleOwner, membership.Role)
	require.Equal(t, models.MembershipActive, membership.Status)
}

func TestCompanyHandler_ActiveContext_SingleMembership(t *testing.T) {
	env := setupCompanyTestEnv(t)

	_, cookies := signupAndLogin(t, env, "solo@example.com")

	w := doJSON(t, env, http.MethodPost, "/api/companies", map[string]string{"name": "Only One"}, cookies)
	require.Equal(t, http.StatusCreated, w.Code)

	// One membership resolves without any explicit selection.
	w = doJSON(t, env, http.MethodGet, "/api/companies/current", nil, cookies)
	require.Equal(t, http.StatusOK, w.Code)

	var ctx dto.ActiveContextDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &ctx))
	require.Equal(t, models.RoleOwner, ctx.Role)
}

func TestCompanyHandler_ActiveContext_StickySelection(t *testing.T) {
	env := setupCompanyTestEnv(t)

	user, cookies := signupAndLogin(t, env, "multi@example.com")

	w := doJSON(t, env, http.MethodPost, "/api/companies", map[string]string{"name": "First Co"}, cookies)
	require.Equal(t, http.StatusCreated, w.Code)
	var first dto.CompanyDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &first))

	w = doJSON(t, env, http.MethodPost, "/api/companies", map[string]string{"name": "Second Co"}, cookies)
	require.Equal(t, http.StatusCreated, w.Code)
	var second dto.CompanyDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &second))

	// Two memberships and no selection yet: the context is ambiguous.
	w = doJSON(t, env, http.MethodGet, "/api/companies/current", nil, cookies)
	require.Equal(t, http.StatusForbidden, w.Code)

	// Explicit selection persists the sticky hint.
	w = doJSON(t, env, http.MethodPost, "/api/companies/select", map[string]uint64{"company_id": second.ID}, cookies)
	require.Equal(t, http.StatusOK, w.Code)
	cookies = mergeCookies(cookies, w.Result().Cookies())

	w = doJSON(t, env, http.MethodGet, "/api/companies/current", nil, cookies)
	require.Equal(t, http.StatusOK, w.Code)

	var ctx dto.ActiveContextDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &ctx))
	require.Equal(t, second.ID, ctx.CompanyID)

	// The selection survives across requests without re-selecting.
	w = doJSON(t, env, http.MethodGet, "/api/companies/current", nil, cookies)
	require.Equal(t, http.StatusOK, w.Code)

	// Losing the hinted membership must not grant access through the
	// stale hint; resolution falls back to the one remaining company.
	require.NoError(t, env.db.Model(&models.Membership{}).
		Where("company_id = ? AND user_id = ?", second.ID, user.ID).
		Update("status", models.MembershipRemoved).Error)

	w = doJSON(t, env, http.MethodGet, "/api/companies/current", nil, cookies)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &ctx))
	require.Equal(t, first.ID, ctx.CompanyID)
}

func TestCompanyHandler_SelectCompany_Denied(t *testing.T) {
	env := setupCompanyTestEnv(t)

	_, cookies := signupAndLogin(t, env, "outsider@example.com")

	company := &models.Company{Name: "Not Yours"}
	require.NoError(t, env.db.Create(company).Error)

	w := doJSON(t, env, http.MethodPost, "/api/companies/select", map[string]uint64{"company_id": company.ID}, cookies)
	require.Equal(t, http.StatusForbidden, w.Code)
}

func TestCompanyHandler_RemoveMember_LastOwner(t *testing.T) {
	env := setupCompanyTestEnv(t)

	owner, cookies := signupAndLogin(t, env, "owner@example.com")

	w := doJSON(t, env, http.MethodPost, "/api/companies", map[string]string{"name": "Acme"}, cookies)
	require.Equal(t, http.StatusCreated, w.Code)
	var company dto.CompanyDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &company))

	// An admin may remove ordinary members but never the sole owner.
	admin, adminCookies := signupAndLogin(t, env, "admin@example.com")
	require.NoError(t, env.db.Create(&models.Membership{
		CompanyID: company.ID,
		UserID:    admin.ID,
		Role:      models.RoleAdmin,
		Status:    models.MembershipActive,
		JoinedAt:  time.Now(),
	}).Error)

	url := fmt.Sprintf("/api/companies/%d/members/%d", company.ID, owner.ID)
	w = doJSON(t, env, http.MethodDelete, url, nil, adminCookies)
	require.Equal(t, http.StatusConflict, w.Code)

	// The owner removing the admin is fine; the row survives as removed.
	url = fmt.Sprintf("/api/companies/%d/members/%d", company.ID, admin.ID)
	w = doJSON(t, env, http.MethodDelete, url, nil, cookies)
	require.Equal(t, http.StatusOK, w.Code)

	var membership models.Membership
	require.NoError(t, env.db.Where("company_id = ? AND user_id = ?", company.ID, admin.ID).First(&membership).Error)
	require.Equal(t, models.MembershipRemoved, membership.Status)
}

func TestCompanyHandler_Employees(t *testing.T) {
	env := setupCompanyTestEnv(t)

	_, cookies := signupAndLogin(t, env, "owner@example.com")

	w := doJSON(t, env, http.MethodPost, "/api/companies", map[string]string{"name": "Acme"}, cookies)
	require.Equal(t, http.StatusCreated, w.Code)
	var company dto.CompanyDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &company))

	url := fmt.Sprintf("/api/companies/%d/employees", company.ID)
	w = doJSON(t, env, http.MethodPost, url, map[string]string{
		"name":  "Dana",
		"email": "dana@example.com",
	}, cookies)
	require.Equal(t, http.StatusCreated, w.Code)

	var employee dto.EmployeeDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &employee))
	require.Equal(t, "Dana", employee.Name)
	require.Equal(t, models.RoleMember, employee.Role)
	require.Nil(t, employee.UserID)

	w = doJSON(t, env, http.MethodGet, url, nil, cookies)
	require.Equal(t, http.StatusOK, w.Code)

	var response struct {
		Employees []dto.EmployeeDTO `json:"employees"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &response))
	require.Len(t, response.Employees, 1)
}

func TestCompanyHandler_MemberAccess_NotLeaked(t *testing.T) {
	env := setupCompanyTestEnv(t)

	_, ownerCookies := signupAndLogin(t, env, "owner@example.com")

	w := doJSON(t, env, http.MethodPost, "/api/companies", map[string]string{"name": "Private Co"}, ownerCookies)
	require.Equal(t, http.StatusCreated, w.Code)
	var company dto.CompanyDTO
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &company))

	// Outsiders see 404, not 403, so company existence stays hidden.
	_, outsiderCookies := signupAndLogin(t, env, "outsider@example.com")
	url := fmt.Sprintf("/api/companies/%d/members", company.ID)
	w = doJSON(t, env, http.MethodGet, url, nil, outsiderCookies)
	require.Equal(t, http.StatusNotFound, w.Code)
}
