package handler

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	internalmiddleware "github.com/noah-isme/timetable-portal-api/internal/middleware"
	"github.com/noah-isme/timetable-portal-api/internal/models"
	appErrors "github.com/noah-isme/timetable-portal-api/pkg/errors"
)

type authMock struct {
	studentReq models.StudentLoginRequest
	adminReq   models.AdminLoginRequest
	loginErr   error
	loggedOut  []string
}

func (m *authMock) StudentLogin(ctx context.Context, req models.StudentLoginRequest) (*models.LoginResponse, error) {
	m.studentReq = req
	if m.loginErr != nil {
		return nil, m.loginErr
	}
	return &models.LoginResponse{
		AccessToken: "token",
		Subject:     models.AuthInfo{ID: "C1001", FullName: "Aditi Sharma", Role: models.RoleStudent},
	}, nil
}

func (m *authMock) AdminLogin(ctx context.Context, req models.AdminLoginRequest) (*models.LoginResponse, error) {
	m.adminReq = req
	return &models.LoginResponse{
		AccessToken: "token",
		Subject:     models.AuthInfo{ID: "admin-1", Role: models.RoleAdmin},
	}, nil
}

func (m *authMock) RefreshToken(ctx context.Context, req models.RefreshTokenRequest) (*models.LoginResponse, error) {
	return &models.LoginResponse{AccessToken: "fresh"}, nil
}

func (m *authMock) Logout(ctx context.Context, refreshToken, subjectID string) error {
	m.loggedOut = append(m.loggedOut, refreshToken)
	return nil
}

func TestStudentLoginRoute(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &authMock{}
	handler := &AuthHandler{service: mockSvc}

	body := []byte(`{"name":"aditi","rollNo":"1001"}`)
	req, _ := http.NewRequest(http.MethodPost, "/auth/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req

	handler.StudentLogin(c)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "aditi", mockSvc.studentReq.Name)
	require.Equal(t, "1001", mockSvc.studentReq.RollNo)
}

func TestStudentLoginInvalidCredentials(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &authMock{loginErr: appErrors.ErrInvalidCredentials}
	handler := &AuthHandler{service: mockSvc}

	body := []byte(`{"name":"nobody","rollNo":"9999"}`)
	req, _ := http.NewRequest(http.MethodPost, "/auth/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req

	handler.StudentLogin(c)

	require.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestStudentLoginMalformedBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := &AuthHandler{service: &authMock{}}

	req, _ := http.NewRequest(http.MethodPost, "/auth/login", bytes.NewReader([]byte(`{"name":`)))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req

	handler.StudentLogin(c)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAdminLoginRoute(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &authMock{}
	handler := &AuthHandler{service: mockSvc}

	body := []byte(`{"email":"admin@school.edu","password":"s3cret"}`)
	req, _ := http.NewRequest(http.MethodPost, "/auth/admin/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = req

	handler.AdminLogin(c)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, "admin@school.edu", mockSvc.adminReq.Email)
}

func TestLogoutRoute(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mockSvc := &authMock{}
	handler := &AuthHandler{service: mockSvc}
	router := gin.New()
	router.Use(func(c *gin.Context) {
		c.Set(internalmiddleware.ContextUserKey, &models.JWTClaims{SubjectID: "C1001", Role: models.RoleStudent})
		c.Next()
	})
	router.POST("/auth/logout", handler.Logout)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/auth/logout", bytes.NewReader([]byte(`{"refresh_token":"abc"}`)))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusNoContent, w.Code)
	require.Equal(t, []string{"abc"}, mockSvc.loggedOut)
}

func TestMeRequiresClaims(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := &AuthHandler{service: &authMock{}}
	router := gin.New()
	router.GET("/auth/me", handler.Me)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/auth/me", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusUnauthorized, w.Code)
}
