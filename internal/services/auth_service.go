package services

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/tofa/academy-backend/internal/database"
	"github.com/tofa/academy-backend/internal/models"
	"github.com/tofa/academy-backend/pkg/jwt"
)

// ErrInvalidCredentials is returned for a wrong email/password pair and for
// disabled accounts, indistinguishably.
var ErrInvalidCredentials = fmt.Errorf("invalid email or password")

// AuthService owns login, token refresh and logout. Refresh tokens are
// stored hashed; the raw token only ever lives on the client.
type AuthService struct {
	userRepo      *database.UserRepository
	tokenRepo     *database.RefreshTokenRepository
	jwtService    *jwt.Service
	audit         *AuditService
	refreshExpiry time.Duration
}

// NewAuthService creates a new auth service
func NewAuthService(
	userRepo *database.UserRepository,
	tokenRepo *database.RefreshTokenRepository,
	jwtService *jwt.Service,
	audit *AuditService,
	refreshExpiry time.Duration,
) *AuthService {
	return &AuthService{
		userRepo:      userRepo,
		tokenRepo:     tokenRepo,
		jwtService:    jwtService,
		audit:         audit,
		refreshExpiry: refreshExpiry,
	}
}

// TokenPair is what a successful login or refresh returns.
type TokenPair struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	TokenType    string       `json:"token_type"`
	User         *models.User `json:"user"`
}

// Login verifies credentials and issues a token pair.
func (s *AuthService) Login(email, password, ipAddress, userAgent string) (*TokenPair, error) {
	user, err := s.userRepo.GetByEmail(email)
	if err != nil {
		return nil, err
	}
	if user == nil || !user.Active {
		s.audit.LogLoginFailed(email, ipAddress, userAgent)
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		s.audit.LogLoginFailed(email, ipAddress, userAgent)
		return nil, ErrInvalidCredentials
	}

	pair, err := s.issueTokens(user, ipAddress, userAgent)
	if err != nil {
		return nil, err
	}

	if err := s.userRepo.UpdateLastLogin(user.ID); err != nil {
		logrus.WithField("error", err.Error()).Warn("failed to stamp last login")
	}
	s.audit.LogLogin(user.ID, email, ipAddress, userAgent)

	return pair, nil
}

// Refresh rotates a refresh token: the presented token is revoked and a new
// pair is issued.
func (s *AuthService) Refresh(refreshToken, ipAddress, userAgent string) (*TokenPair, error) {
	claims, err := s.jwtService.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, fmt.Errorf("invalid refresh token: %w", err)
	}

	stored, err := s.tokenRepo.GetByHash(hashToken(refreshToken))
	if err != nil {
		return nil, err
	}
	if stored == nil {
		return nil, fmt.Errorf("refresh token is revoked or expired")
	}

	user, err := s.userRepo.GetByID(claims.UserID)
	if err != nil {
		return nil, err
	}
	if user == nil || !user.Active {
		return nil, ErrInvalidCredentials
	}

	if err := s.tokenRepo.Revoke(stored.ID); err != nil {
		return nil, err
	}

	return s.issueTokens(user, ipAddress, userAgent)
}

// Logout revokes the presented refresh token. With everywhere set, every
// live session of the user is revoked.
func (s *AuthService) Logout(refreshToken string, everywhere bool) error {
	stored, err := s.tokenRepo.GetByHash(hashToken(refreshToken))
	if err != nil {
		return err
	}
	if stored == nil {
		return nil // already gone
	}

	if everywhere {
		return s.tokenRepo.RevokeAllForUser(stored.UserID)
	}
	return s.tokenRepo.Revoke(stored.ID)
}

func (s *AuthService) issueTokens(user *models.User, ipAddress, userAgent string) (*TokenPair, error) {
	access, err := s.jwtService.GenerateAccessToken(user.ID, user.Email, user.Role, user.CenterIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}
	refresh, err := s.jwtService.GenerateRefreshToken(user.ID, user.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	expiresAt := time.Now().Add(s.refreshExpiry)
	if err := s.tokenRepo.Store(user.ID, hashToken(refresh), ipAddress, userAgent, expiresAt); err != nil {
		return nil, err
	}

	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "Bearer",
		User:         user,
	}, nil
}

func hashToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
