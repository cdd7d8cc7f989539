package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/noah-isme/timetable-portal-api/internal/models"
	appErrors "github.com/noah-isme/timetable-portal-api/pkg/errors"
)

type stubStudentMatcher struct {
	enrollment *models.Enrollment
	err        error
}

func (s *stubStudentMatcher) MatchStudent(ctx context.Context, rollNo, name string) (*models.Enrollment, error) {
	return s.enrollment, s.err
}

type stubUserRepo struct {
	user          *models.User
	findErr       error
	refreshTokens map[string]*models.RefreshToken
	created       []*models.RefreshToken
	revoked       []string
}

func newStubUserRepo() *stubUserRepo {
	return &stubUserRepo{refreshTokens: map[string]*models.RefreshToken{}}
}

func (s *stubUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if s.findErr != nil {
		return nil, s.findErr
	}
	if s.user == nil || s.user.Email != email {
		return nil, sql.ErrNoRows
	}
	return s.user, nil
}

func (s *stubUserRepo) UpdateLastLogin(ctx context.Context, id string, ts time.Time) error {
	return nil
}

func (s *stubUserRepo) CreateRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	s.created = append(s.created, token)
	s.refreshTokens[token.Token] = token
	return nil
}

func (s *stubUserRepo) FindRefreshToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	stored, ok := s.refreshTokens[token]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return stored, nil
}

func (s *stubUserRepo) RevokeRefreshToken(ctx context.Context, id string, revokedAt time.Time) error {
	s.revoked = append(s.revoked, id)
	for _, stored := range s.refreshTokens {
		if stored.ID == id {
			stored.Revoked = true
			stored.RevokedAt = &revokedAt
		}
	}
	return nil
}

func (s *stubUserRepo) RevokeSubjectRefreshTokens(ctx context.Context, subjectID string) error {
	return nil
}

func testAuthConfig() AuthConfig {
	return AuthConfig{
		AccessTokenSecret:  "test-secret",
		AccessTokenExpiry:  15 * time.Minute,
		RefreshTokenExpiry: 24 * time.Hour,
		Issuer:             "timetable-portal",
	}
}

func TestStudentLoginMatchesRoster(t *testing.T) {
	matcher := &stubStudentMatcher{enrollment: &models.Enrollment{
		StudentID:   "C1001",
		StudentName: "Aditi Sharma",
		Subject:     "Data Structures",
	}}
	users := newStubUserRepo()
	svc := NewAuthService(matcher, users, validator.New(), nil, testAuthConfig())

	resp, err := svc.StudentLogin(context.Background(), models.StudentLoginRequest{
		Name:   "aditi",
		RollNo: "1001",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.NotEmpty(t, resp.RefreshToken)
	assert.Equal(t, "C1001", resp.Subject.ID)
	assert.Equal(t, models.RoleStudent, resp.Subject.Role)
	require.Len(t, users.created, 1)
}

func TestStudentLoginUnknownStudent(t *testing.T) {
	matcher := &stubStudentMatcher{err: sql.ErrNoRows}
	svc := NewAuthService(matcher, newStubUserRepo(), validator.New(), nil, testAuthConfig())

	_, err := svc.StudentLogin(context.Background(), models.StudentLoginRequest{
		Name:   "nobody",
		RollNo: "9999",
	})
	require.Error(t, err)
	appErr := appErrors.FromError(err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErr.Code)
}

func TestStudentLoginValidation(t *testing.T) {
	svc := NewAuthService(&stubStudentMatcher{}, newStubUserRepo(), validator.New(), nil, testAuthConfig())

	_, err := svc.StudentLogin(context.Background(), models.StudentLoginRequest{Name: "only name"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestAdminLoginSuccess(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)

	users := newStubUserRepo()
	users.user = &models.User{
		ID:           "admin-1",
		Email:        "admin@school.edu",
		PasswordHash: string(hash),
		FullName:     "Portal Admin",
		Role:         models.RoleAdmin,
		Active:       true,
	}
	svc := NewAuthService(&stubStudentMatcher{}, users, validator.New(), nil, testAuthConfig())

	resp, err := svc.AdminLogin(context.Background(), models.AdminLoginRequest{
		Email:    "admin@school.edu",
		Password: "s3cret",
	})
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, resp.Subject.Role)

	claims, err := svc.ValidateToken(resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, "admin-1", claims.SubjectID)
	assert.Equal(t, models.RoleAdmin, claims.Role)
}

func TestAdminLoginWrongPassword(t *testing.T) {
	hash, err := bcrypt.GenerateFromPassword([]byte("s3cret"), bcrypt.MinCost)
	require.NoError(t, err)

	users := newStubUserRepo()
	users.user = &models.User{
		ID:           "admin-1",
		Email:        "admin@school.edu",
		PasswordHash: string(hash),
		Role:         models.RoleAdmin,
		Active:       true,
	}
	svc := NewAuthService(&stubStudentMatcher{}, users, validator.New(), nil, testAuthConfig())

	_, err = svc.AdminLogin(context.Background(), models.AdminLoginRequest{
		Email:    "admin@school.edu",
		Password: "wrong",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrInvalidCredentials.Code, appErrors.FromError(err).Code)
}

func TestAdminLoginInactiveAccount(t *testing.T) {
	users := newStubUserRepo()
	users.user = &models.User{
		ID:     "admin-1",
		Email:  "admin@school.edu",
		Role:   models.RoleAdmin,
		Active: false,
	}
	svc := NewAuthService(&stubStudentMatcher{}, users, validator.New(), nil, testAuthConfig())

	_, err := svc.AdminLogin(context.Background(), models.AdminLoginRequest{
		Email:    "admin@school.edu",
		Password: "anything",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestRefreshTokenRotation(t *testing.T) {
	matcher := &stubStudentMatcher{enrollment: &models.Enrollment{
		StudentID:   "C1001",
		StudentName: "Aditi Sharma",
	}}
	users := newStubUserRepo()
	svc := NewAuthService(matcher, users, validator.New(), nil, testAuthConfig())

	login, err := svc.StudentLogin(context.Background(), models.StudentLoginRequest{
		Name:   "aditi",
		RollNo: "1001",
	})
	require.NoError(t, err)

	refreshed, err := svc.RefreshToken(context.Background(), models.RefreshTokenRequest{
		RefreshToken: login.RefreshToken,
	})
	require.NoError(t, err)
	assert.NotEqual(t, login.RefreshToken, refreshed.RefreshToken)
	assert.NotEmpty(t, users.revoked)

	// The original token is revoked after rotation.
	_, err = svc.RefreshToken(context.Background(), models.RefreshTokenRequest{
		RefreshToken: login.RefreshToken,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}

func TestLogoutRevokesToken(t *testing.T) {
	matcher := &stubStudentMatcher{enrollment: &models.Enrollment{
		StudentID:   "C1001",
		StudentName: "Aditi Sharma",
	}}
	users := newStubUserRepo()
	svc := NewAuthService(matcher, users, validator.New(), nil, testAuthConfig())

	login, err := svc.StudentLogin(context.Background(), models.StudentLoginRequest{
		Name:   "aditi",
		RollNo: "1001",
	})
	require.NoError(t, err)

	require.NoError(t, svc.Logout(context.Background(), login.RefreshToken, "C1001"))
	assert.True(t, users.refreshTokens[login.RefreshToken].Revoked)
}

func TestLogoutForeignToken(t *testing.T) {
	matcher := &stubStudentMatcher{enrollment: &models.Enrollment{
		StudentID:   "C1001",
		StudentName: "Aditi Sharma",
	}}
	users := newStubUserRepo()
	svc := NewAuthService(matcher, users, validator.New(), nil, testAuthConfig())

	login, err := svc.StudentLogin(context.Background(), models.StudentLoginRequest{
		Name:   "aditi",
		RollNo: "1001",
	})
	require.NoError(t, err)

	err = svc.Logout(context.Background(), login.RefreshToken, "C2002")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestValidateTokenRejectsGarbage(t *testing.T) {
	svc := NewAuthService(&stubStudentMatcher{}, newStubUserRepo(), validator.New(), nil, testAuthConfig())

	_, err := svc.ValidateToken("not-a-jwt")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnauthorized.Code, appErrors.FromError(err).Code)
}
