package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/vetroai/vetro/config"
	"github.com/vetroai/vetro/internal/core/domain"
	"github.com/vetroai/vetro/internal/core/ports"
	"github.com/vetroai/vetro/internal/logger"
)

var (
	// ErrInvalidCredentials is returned when email or password is wrong
	ErrInvalidCredentials = errors.New("invalid email or password")

	// ErrInvalidToken is returned for expired or malformed tokens
	ErrInvalidToken = errors.New("invalid or expired token")
)

// AuthService handles signup, login and bearer-token validation
type AuthService struct {
	users  ports.UserRepositoryPort
	config *config.AuthConfig
	logger logger.Logger
}

// NewAuthService creates a new AuthService
func NewAuthService(users ports.UserRepositoryPort, cfg *config.AuthConfig, log logger.Logger) *AuthService {
	return &AuthService{
		users:  users,
		config: cfg,
		logger: log,
	}
}

// Signup creates an account and returns a bearer token
func (s *AuthService) Signup(ctx context.Context, email, password string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return "", errors.New("a valid email is required")
	}
	if len(password) < 6 {
		return "", errors.New("password must be at least 6 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}

	user := &domain.User{
		ID:           domain.NewID(),
		Email:        email,
		PasswordHash: string(hash),
		CreatedAt:    time.Now(),
	}

	if err := s.users.CreateUser(ctx, user); err != nil {
		s.logger.Warn("Signup failed", "email", email, "error", err)
		return "", err
	}

	s.logger.Info("Account created", "user_id", user.ID)
	return s.issueToken(user.ID)
}

// Login verifies credentials and returns a bearer token
func (s *AuthService) Login(ctx context.Context, email, password string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		return "", ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	s.logger.Info("Login successful", "user_id", user.ID)
	return s.issueToken(user.ID)
}

// ValidateToken returns the user ID carried by a valid token
func (s *AuthService) ValidateToken(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(s.config.JWTSecret), nil
	})
	if err != nil || !token.Valid {
		return "", ErrInvalidToken
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return "", ErrInvalidToken
	}
	sub, err := claims.GetSubject()
	if err != nil || sub == "" {
		return "", ErrInvalidToken
	}
	return sub, nil
}

func (s *AuthService) issueToken(userID string) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": userID,
		"iat": now.Unix(),
		"exp": now.Add(s.config.TokenTTL).Unix(),
	})
	signed, err := token.SignedString([]byte(s.config.JWTSecret))
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}
