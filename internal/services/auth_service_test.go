// internal/services/auth_service_test.go
package services

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/suite"
	"gorm.io/gorm"

	"github.com/openshelf/shop-backend/internal/config"
	"github.com/openshelf/shop-backend/internal/models"
	"github.com/openshelf/shop-backend/internal/utils"
)

type AuthServiceTestSuite struct {
	suite.Suite
	db  *gorm.DB
	svc *AuthService
}

func (s *AuthServiceTestSuite) SetupTest() {
	s.db = newTestDB(s.T())
	utils.SetJWTSecret("test-secret")
	s.svc = NewAuthService(s.db, &config.Config{
		JWT: config.JWTConfig{
			SecretKey:       "test-secret",
			AccessTokenTTL:  1,
			RefreshTokenTTL: 24,
		},
	})
}

func (s *AuthServiceTestSuite) register(username, email string) *AuthResponse {
	resp, err := s.svc.Register(&RegisterRequest{
		Username: username,
		Email:    email,
		Password: "TestPass123!",
	})
	s.Require().NoError(err)
	return resp
}

func (s *AuthServiceTestSuite) TestRegisterIssuesTokens() {
	resp := s.register("alice", "alice@example.com")

	s.Equal("alice", resp.User.Username)
	s.Equal(models.UserRoleCustomer, resp.User.Role)
	s.NotEmpty(resp.AccessToken)
	s.NotEmpty(resp.RefreshToken)
	s.Equal("Bearer", resp.TokenType)

	claims, err := utils.ValidateJWT(resp.AccessToken)
	s.Require().NoError(err)
	s.Equal(resp.User.ID.String(), claims.UserID)
	s.Equal("customer", claims.Role)
}

func (s *AuthServiceTestSuite) TestRegisterDuplicateEmail() {
	s.register("alice", "alice@example.com")

	_, err := s.svc.Register(&RegisterRequest{
		Username: "alice2",
		Email:    "alice@example.com",
		Password: "TestPass123!",
	})
	s.ErrorIs(err, ErrEmailTaken)
}

func (s *AuthServiceTestSuite) TestRegisterDuplicateUsername() {
	s.register("alice", "alice@example.com")

	_, err := s.svc.Register(&RegisterRequest{
		Username: "alice",
		Email:    "other@example.com",
		Password: "TestPass123!",
	})
	s.ErrorIs(err, ErrUsernameTaken)
}

func (s *AuthServiceTestSuite) TestRegisterWeakPassword() {
	_, err := s.svc.Register(&RegisterRequest{
		Username: "alice",
		Email:    "alice@example.com",
		Password: "password",
	})
	s.Error(err)
}

func (s *AuthServiceTestSuite) TestLogin() {
	s.register("alice", "alice@example.com")

	resp, err := s.svc.Login(&LoginRequest{
		Email:    "alice@example.com",
		Password: "TestPass123!",
	})
	s.Require().NoError(err)
	s.NotEmpty(resp.AccessToken)
	s.NotNil(resp.User.LastLoginAt)
}

func (s *AuthServiceTestSuite) TestLoginWrongPassword() {
	s.register("alice", "alice@example.com")

	_, err := s.svc.Login(&LoginRequest{
		Email:    "alice@example.com",
		Password: "WrongPass123!",
	})
	s.ErrorIs(err, ErrInvalidCredentials)
}

func (s *AuthServiceTestSuite) TestLoginUnknownEmail() {
	_, err := s.svc.Login(&LoginRequest{
		Email:    "nobody@example.com",
		Password: "TestPass123!",
	})
	s.ErrorIs(err, ErrInvalidCredentials)
}

func (s *AuthServiceTestSuite) TestLoginSuspendedAccount() {
	resp := s.register("alice", "alice@example.com")
	s.Require().NoError(s.db.Model(&models.User{}).
		Where("id = ?", resp.User.ID).
		Update("status", models.UserStatusSuspended).Error)

	_, err := s.svc.Login(&LoginRequest{
		Email:    "alice@example.com",
		Password: "TestPass123!",
	})
	s.ErrorIs(err, ErrAccountSuspended)
}

func (s *AuthServiceTestSuite) TestRefreshTokenIssuesNewPair() {
	registered := s.register("alice", "alice@example.com")

	resp, err := s.svc.RefreshToken(registered.RefreshToken)
	s.Require().NoError(err)

	s.Equal(registered.User.ID, resp.User.ID)
	s.NotEmpty(resp.AccessToken)
	s.NotEmpty(resp.RefreshToken)

	claims, err := utils.ValidateJWT(resp.AccessToken)
	s.Require().NoError(err)
	s.Equal(registered.User.ID.String(), claims.UserID)
}

func (s *AuthServiceTestSuite) TestRefreshTokenRejectsGarbage() {
	_, err := s.svc.RefreshToken("not-a-token")
	s.ErrorIs(err, ErrInvalidRefreshToken)
}

func (s *AuthServiceTestSuite) TestRefreshTokenUnknownUser() {
	token, err := utils.GenerateRefreshToken(uuid.New(), 1)
	s.Require().NoError(err)

	_, err = s.svc.RefreshToken(token)
	s.ErrorIs(err, ErrUserNotFound)
}

func (s *AuthServiceTestSuite) TestRefreshTokenSuspendedAccount() {
	registered := s.register("alice", "alice@example.com")
	s.Require().NoError(s.db.Model(&models.User{}).
		Where("id = ?", registered.User.ID).
		Update("status", models.UserStatusSuspended).Error)

	_, err := s.svc.RefreshToken(registered.RefreshToken)
	s.ErrorIs(err, ErrAccountSuspended)
}

func (s *AuthServiceTestSuite) TestGetProfile() {
	resp := s.register("alice", "alice@example.com")

	user, err := s.svc.GetProfile(resp.User.ID)
	s.Require().NoError(err)
	s.Equal("alice", user.Username)
}

func TestAuthServiceSuite(t *testing.T) {
	suite.Run(t, new(AuthServiceTestSuite))
}
