package services

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/villarent/reservation-api/internal/database"
	"github.com/villarent/reservation-api/internal/models"
	"github.com/villarent/reservation-api/pkg/jwt"
	"golang.org/x/crypto/bcrypt"
)

// UserStore persists accounts
type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
}

// AuthService handles registration and email/password login
type AuthService struct {
	users      UserStore
	jwtService *jwt.Service
	bcryptCost int
	logger     *logrus.Logger
}

// NewAuthService creates a new auth service
func NewAuthService(users UserStore, jwtService *jwt.Service, bcryptCost int, logger *logrus.Logger) *AuthService {
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		bcryptCost = bcrypt.DefaultCost
	}
	return &AuthService{
		users:      users,
		jwtService: jwtService,
		bcryptCost: bcryptCost,
		logger:     logger,
	}
}

// Register creates a guest account and signs it in
func (s *AuthService) Register(ctx context.Context, req *models.RegisterRequest) (*models.TokenResponse, error) {
	if len(req.Password) < 8 {
		return nil, newError(KindInvalidInput, "Password must be at least 8 characters", nil)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.bcryptCost)
	if err != nil {
		return nil, err
	}

	user := &models.User{
		Email:        req.Email,
		PasswordHash: string(hash),
		FullName:     strings.TrimSpace(req.FullName),
		Roles:        models.StringArray{models.RoleGuest},
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, database.ErrEmailTaken) {
			return nil, newError(KindConflict, "An account with this email already exists", err)
		}
		return nil, err
	}

	s.logger.WithField("user_id", user.ID).Info("User registered")
	return s.issueTokens(user)
}

// Login verifies credentials and returns a token pair
func (s *AuthService) Login(ctx context.Context, req *models.LoginRequest) (*models.User, *models.TokenResponse, error) {
	user, err := s.users.GetUserByEmail(ctx, req.Email)
	if err != nil {
		return nil, nil, err
	}
	if user == nil {
		return nil, nil, newError(KindUnauthorized, "Invalid email or password", nil)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return user, nil, newError(KindUnauthorized, "Invalid email or password", nil)
	}

	tokens, err := s.issueTokens(user)
	if err != nil {
		return user, nil, err
	}
	return user, tokens, nil
}

// Refresh exchanges a valid refresh token for a new access token.
// Roles are reloaded so promotions take effect without a new login.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*models.TokenResponse, error) {
	claims, err := s.jwtService.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, newError(KindUnauthorized, "Invalid or expired refresh token", err)
	}

	user, err := s.users.GetUserByID(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, newError(KindUnauthorized, "Account no longer exists", nil)
	}

	access, err := s.jwtService.GenerateAccessToken(user.ID, user.Email, user.Roles)
	if err != nil {
		return nil, err
	}

	return &models.TokenResponse{
		AccessToken: access,
		TokenType:   "Bearer",
		ExpiresIn:   int64(s.jwtService.AccessTokenExpiry().Seconds()),
	}, nil
}

func (s *AuthService) issueTokens(user *models.User) (*models.TokenResponse, error) {
	access, err := s.jwtService.GenerateAccessToken(user.ID, user.Email, user.Roles)
	if err != nil {
		return nil, err
	}
	refresh, err := s.jwtService.GenerateRefreshToken(user.ID, user.Email)
	if err != nil {
		return nil, err
	}

	return &models.TokenResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		ExpiresIn:    int64(s.jwtService.AccessTokenExpiry().Seconds()),
		User:         user,
	}, nil
}
