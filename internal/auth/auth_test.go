package auth

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harsh17045/IssueTracker-sub000/internal/domain"
	apperrors "github.com/harsh17045/IssueTracker-sub000/pkg/util/errorutil"
)

var employee = &domain.Principal{
	ID:             "E",
	Role:           domain.RoleEmployee,
	DepartmentName: "Accounts",
	Location:       &domain.Location{BuildingID: "B1", FloorNumber: 2, Lab: "L5"},
}

func TestTokenRoundTrip(t *testing.T) {
	tm := NewTokenManager("secret", 5)
	token, expiresAt, err := tm.GenerateToken(employee)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(5*time.Minute), expiresAt, 5*time.Second)

	claims, err := tm.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, employee, claims.Principal())
}

func TestParseTokenRejects(t *testing.T) {
	tm := NewTokenManager("secret", 1)
	token, _, err := tm.GenerateToken(&domain.Principal{ID: "S1", Role: domain.RoleStaff, DepartmentID: "fac"})
	require.NoError(t, err)

	_, err = NewTokenManager("other", 1).ParseToken(token)
	assert.Error(t, err)

	expired := NewTokenManager("secret", 1)
	expired.now = func() time.Time { return time.Now().Add(2 * time.Minute) }
	_, err = expired.ParseToken(token)
	assert.Error(t, err)

	_, _, err = tm.GenerateToken(&domain.Principal{ID: "x", Role: "guest"})
	assert.Error(t, err)
}

func newApp(tm *TokenManager, handlers ...fiber.Handler) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			domainErr := apperrors.ToDomainError(err)
			return c.Status(domainErr.HTTPStatus).JSON(fiber.Map{"code": domainErr.Code})
		},
	})
	chain := append([]fiber.Handler{NewAuthMiddleware(tm).Handle}, handlers...)
	chain = append(chain, func(c *fiber.Ctx) error {
		principal, _ := PrincipalFromContext(c)
		return c.JSON(fiber.Map{"id": principal.ID, "role": principal.Role})
	})
	app.Get("/me", chain...)
	return app
}

func call(t *testing.T, app *fiber.App, target, token string) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return resp.StatusCode, body
}

func TestAuthMiddleware(t *testing.T) {
	tm := NewTokenManager("secret", 5)
	token, _, err := tm.GenerateToken(employee)
	require.NoError(t, err)
	app := newApp(tm)

	status, body := call(t, app, "/me", token)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "E", body["id"])

	status, body = call(t, app, "/me?"+TokenQueryParam+"="+token, "")
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "employee", body["role"])

	status, body = call(t, app, "/me", "")
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, apperrors.CodeUnauthorized, body["code"])

	status, _ = call(t, app, "/me", "garbage")
	assert.Equal(t, http.StatusUnauthorized, status)
}

func TestRequireRole(t *testing.T) {
	tm := NewTokenManager("secret", 5)
	employeeToken, _, err := tm.GenerateToken(employee)
	require.NoError(t, err)
	leadToken, _, err := tm.GenerateToken(&domain.Principal{ID: "FL", Role: domain.RoleDepartmentAdmin, DepartmentID: "fac"})
	require.NoError(t, err)
	app := newApp(tm, RequireStaff())

	status, body := call(t, app, "/me", employeeToken)
	assert.Equal(t, http.StatusForbidden, status)
	assert.Equal(t, apperrors.CodeForbidden, body["code"])

	status, _ = call(t, app, "/me", leadToken)
	assert.Equal(t, http.StatusOK, status)
}

func TestRateLimiter(t *testing.T) {
	tm := NewTokenManager("secret", 5)
	token, _, err := tm.GenerateToken(employee)
	require.NoError(t, err)
	other, _, err := tm.GenerateToken(&domain.Principal{ID: "E2", Role: domain.RoleEmployee})
	require.NoError(t, err)
	app := newApp(tm, NewRateLimiter(0.001, 2, time.Minute).Handle)

	for i := 0; i < 2; i++ {
		status, _ := call(t, app, "/me", token)
		require.Equal(t, http.StatusOK, status)
	}
	status, body := call(t, app, "/me", token)
	assert.Equal(t, http.StatusTooManyRequests, status)
	assert.Equal(t, apperrors.CodeRateLimited, body["code"])

	status, _ = call(t, app, "/me", other)
	assert.Equal(t, http.StatusOK, status)
}
