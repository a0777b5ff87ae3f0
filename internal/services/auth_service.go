package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"foodfront/internal/models"
	"foodfront/internal/repositories"

	"github.com/dgrijalva/jwt-go"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// Token types carried in the token_type claim.
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidToken       = errors.New("token is invalid or expired")
)

// AuthService handles account registration, login and token issuing for the
// reference backend.
type AuthService struct {
	userRepo   repositories.UserRepository
	jwtSecret  []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	validate   *validator.Validate
	logger     *zap.Logger
}

// NewAuthService creates a new AuthService.
func NewAuthService(userRepo repositories.UserRepository, jwtSecret string, logger *zap.Logger) *AuthService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuthService{
		userRepo:   userRepo,
		jwtSecret:  []byte(jwtSecret),
		accessTTL:  time.Hour,
		refreshTTL: 7 * 24 * time.Hour,
		validate:   NewValidator(),
		logger:     logger,
	}
}

// SetTokenLifetimes overrides the access and refresh token lifetimes.
func (s *AuthService) SetTokenLifetimes(access, refresh time.Duration) {
	s.accessTTL = access
	s.refreshTTL = refresh
}

// Register creates an account and returns it with a fresh token pair.
func (s *AuthService) Register(ctx context.Context, in models.RegisterInput) (*models.User, models.AuthTokens, error) {
	in.Email = strings.ToLower(strings.TrimSpace(in.Email))
	if err := ValidateStruct(s.validate, in); err != nil {
		return nil, models.AuthTokens{}, err
	}

	if _, err := s.userRepo.GetByEmail(ctx, in.Email); err == nil {
		return nil, models.AuthTokens{}, fieldError("email", "A user with this email already exists.")
	} else if !errors.Is(err, repositories.ErrNotFound) {
		return nil, models.AuthTokens{}, fmt.Errorf("failed to check email: %w", err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, models.AuthTokens{}, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Email:        in.Email,
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		PhoneNumber:  in.PhoneNumber,
		Role:         in.Role,
		PasswordHash: string(hashedPassword),
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, models.AuthTokens{}, fmt.Errorf("failed to register user: %w", err)
	}

	tokens, err := s.issue(user)
	if err != nil {
		return nil, models.AuthTokens{}, err
	}
	s.logger.Info("user registered", zap.Int64("user_id", user.ID), zap.String("role", string(user.Role)))
	return withFullName(user), tokens, nil
}

// Login authenticates by email and password and returns a fresh token pair.
func (s *AuthService) Login(ctx context.Context, in models.LoginInput) (*models.User, models.AuthTokens, error) {
	if err := ValidateStruct(s.validate, in); err != nil {
		return nil, models.AuthTokens{}, err
	}
	user, err := s.userRepo.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(in.Email)))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, models.AuthTokens{}, ErrInvalidCredentials
		}
		return nil, models.AuthTokens{}, fmt.Errorf("failed to load user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)); err != nil {
		return nil, models.AuthTokens{}, ErrInvalidCredentials
	}

	tokens, err := s.issue(user)
	if err != nil {
		return nil, models.AuthTokens{}, err
	}
	return withFullName(user), tokens, nil
}

// Refresh exchanges a valid refresh token for a new access token.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (string, error) {
	claims, err := s.ValidateToken(refreshToken, TokenTypeRefresh)
	if err != nil {
		return "", err
	}
	userID, err := ClaimsUserID(claims)
	if err != nil {
		return "", err
	}
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return "", ErrInvalidToken
		}
		return "", fmt.Errorf("failed to load user: %w", err)
	}
	return s.sign(user, TokenTypeAccess, s.accessTTL)
}

// ValidateToken parses and validates a JWT token of the given type,
// returning its claims if valid.
func (s *AuthService) ValidateToken(tokenString, tokenType string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.jwtSecret, nil
	})
	if err != nil {
		s.logger.Debug("token validation error", zap.Error(err))
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims["token_type"] != tokenType {
		return nil, fmt.Errorf("%w: expected %s token", ErrInvalidToken, tokenType)
	}
	return claims, nil
}

// Profile returns the account with the given ID.
func (s *AuthService) Profile(ctx context.Context, userID int64) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return withFullName(user), nil
}

// UpdateProfile applies the non-nil fields of patch.
func (s *AuthService) UpdateProfile(ctx context.Context, userID int64, patch models.ProfilePatch) (*models.User, error) {
	if err := ValidateStruct(s.validate, patch); err != nil {
		return nil, err
	}
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if patch.FirstName != nil {
		user.FirstName = *patch.FirstName
	}
	if patch.LastName != nil {
		user.LastName = *patch.LastName
	}
	if patch.PhoneNumber != nil {
		user.PhoneNumber = *patch.PhoneNumber
	}
	if err := s.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return withFullName(user), nil
}

// ChangePassword replaces the password after verifying the old one.
func (s *AuthService) ChangePassword(ctx context.Context, userID int64, in models.PasswordChange) error {
	if err := ValidateStruct(s.validate, in); err != nil {
		return err
	}
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.OldPassword)); err != nil {
		return fieldError("old_password", "Old password is incorrect.")
	}
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(in.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	user.PasswordHash = string(hashedPassword)
	return s.userRepo.Update(ctx, user)
}

func (s *AuthService) issue(user *models.User) (models.AuthTokens, error) {
	access, err := s.sign(user, TokenTypeAccess, s.accessTTL)
	if err != nil {
		return models.AuthTokens{}, err
	}
	refresh, err := s.sign(user, TokenTypeRefresh, s.refreshTTL)
	if err != nil {
		return models.AuthTokens{}, err
	}
	return models.AuthTokens{Access: access, Refresh: refresh}, nil
}

func (s *AuthService) sign(user *models.User, tokenType string, ttl time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id":    user.ID,
		"email":      user.Email,
		"role":       string(user.Role),
		"token_type": tokenType,
		"jti":        uuid.NewString(),
		"exp":        now.Add(ttl).Unix(),
		"iat":        now.Unix(),
	})
	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return tokenString, nil
}

// ClaimsUserID extracts the numeric user_id claim.
func ClaimsUserID(claims jwt.MapClaims) (int64, error) {
	switch v := claims["user_id"].(type) {
	case float64:
		return int64(v), nil
	case int64:
		return v, nil
	}
	return 0, fmt.Errorf("%w: missing user_id claim", ErrInvalidToken)
}

func withFullName(u *models.User) *models.User {
	u.FullName = u.Name()
	return u
}
