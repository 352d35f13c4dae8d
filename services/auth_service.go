package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"github.com/Dosada05/x1-arena/repositories"
	"github.com/Dosada05/x1-arena/utils"
)

type Role string

const (
	RoleAdmin  Role = "admin"
	RolePlayer Role = "player"
)

// TokenTTL is how long issued tokens stay valid.
const TokenTTL = 24 * time.Hour

var ErrInvalidToken = errors.New("invalid or expired token")

// Claims is the token payload. PlayerID is empty for admin tokens.
type Claims struct {
	Role     Role   `json:"role"`
	PlayerID string `json:"player_id,omitempty"`
	jwt.RegisteredClaims
}

type PlayerLoginInput struct {
	ExternalID string `json:"external_id"`
	Password   string `json:"password"`
}

type AuthService interface {
	AdminLogin(ctx context.Context, password string) (string, error)
	PlayerLogin(ctx context.Context, input PlayerLoginInput) (string, error)
	ParseToken(token string) (*Claims, error)
}

type authService struct {
	repo              repositories.StateRepository
	adminPasswordHash string
	secret            []byte
	logger            *slog.Logger
	now               func() time.Time
}

func NewAuthService(repo repositories.StateRepository, adminPasswordHash, jwtSecret string, logger *slog.Logger) AuthService {
	return &authService{
		repo:              repo,
		adminPasswordHash: adminPasswordHash,
		secret:            []byte(jwtSecret),
		logger:            logger,
		now:               time.Now,
	}
}

func (s *authService) AdminLogin(_ context.Context, password string) (string, error) {
	if !utils.CheckPasswordHash(password, s.adminPasswordHash) {
		s.logger.Warn("admin login rejected")
		return "", ErrInvalidCredentials
	}
	return s.issue(RoleAdmin, "")
}

// PlayerLogin accepts only players that registered with a password.
func (s *authService) PlayerLogin(ctx context.Context, input PlayerLoginInput) (string, error) {
	externalID := strings.TrimSpace(input.ExternalID)
	if externalID == "" || input.Password == "" {
		return "", ErrInvalidCredentials
	}

	state, err := s.repo.Load(ctx)
	if err != nil {
		return "", fmt.Errorf("failed to load tournament state: %w", err)
	}
	player, ok := state.FindByExternalID(externalID)
	if !ok || !utils.CheckPasswordHash(input.Password, player.PasswordHash) {
		s.logger.Warn("player login rejected", slog.String("external_id", externalID))
		return "", ErrInvalidCredentials
	}
	return s.issue(RolePlayer, player.ID)
}

func (s *authService) issue(role Role, playerID string) (string, error) {
	now := s.now()
	claims := Claims{
		Role:     role,
		PlayerID: playerID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(TokenTTL)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

func (s *authService) ParseToken(token string) (*Claims, error) {
	claims := &Claims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return s.secret, nil
	})
	if err != nil || !parsed.Valid {
		return nil, ErrInvalidToken
	}
	switch claims.Role {
	case RoleAdmin:
	case RolePlayer:
		if claims.PlayerID == "" {
			return nil, ErrInvalidToken
		}
	default:
		return nil, ErrInvalidToken
	}
	return claims, nil
}
