package services

import (
	"context"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/dailybuddy/core/internal/domain/entities"
	"github.com/dailybuddy/core/internal/infrastructure/config"
	"github.com/dailybuddy/core/internal/infrastructure/logger"
	"github.com/dailybuddy/core/internal/ports"
)

const passwordHashKey = "password_hash"

// AuthService implements the single-user API auth: one operator password,
// exchanged for a bearer token. There are no accounts; the subject is
// always the device owner.
type AuthService struct {
	settingsRepo ports.SettingsRepository
	config       config.AuthConfig
	logger       *logger.Logger
}

// NewAuthService creates a new auth service
func NewAuthService(settingsRepo ports.SettingsRepository, cfg config.AuthConfig, logger *logger.Logger) *AuthService {
	return &AuthService{
		settingsRepo: settingsRepo,
		config:       cfg,
		logger:       logger,
	}
}

// SetPassword hashes and stores the operator password. Used by the CLI.
func (s *AuthService) SetPassword(ctx context.Context, password string) error {
	if len(password) < 8 {
		return fmt.Errorf("password must be at least 8 characters")
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	if err := s.settingsRepo.Set(ctx, passwordHashKey, string(hash)); err != nil {
		return fmt.Errorf("failed to store password hash: %w", err)
	}

	s.logger.Info("Operator password updated")
	return nil
}

// Login verifies the password and issues an access token.
func (s *AuthService) Login(ctx context.Context, req ports.LoginRequest) (*ports.AuthResponse, error) {
	hash, err := s.settingsRepo.Get(ctx, passwordHashKey)
	if err != nil {
		return nil, entities.ErrPasswordNotSet
	}

	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(req.Password)); err != nil {
		return nil, entities.ErrUnauthorized
	}

	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   "owner",
		Issuer:    s.config.Issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.config.ExpiresIn)),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.config.JWTSecret))
	if err != nil {
		return nil, fmt.Errorf("failed to sign token: %w", err)
	}

	return &ports.AuthResponse{
		AccessToken: signed,
		TokenType:   "Bearer",
		ExpiresIn:   int64(s.config.ExpiresIn.Seconds()),
	}, nil
}

// ValidateToken checks a bearer token's signature, issuer, and expiry.
func (s *AuthService) ValidateToken(tokenString string) error {
	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(s.config.JWTSecret), nil
	}, jwt.WithIssuer(s.config.Issuer), jwt.WithExpirationRequired())
	if err != nil {
		return entities.ErrUnauthorized
	}
	if !token.Valid {
		return entities.ErrUnauthorized
	}
	return nil
}
