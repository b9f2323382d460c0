package util

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"

	"github.com/CleanAfricaNow/civic-service/internal/config"
	"github.com/CleanAfricaNow/civic-service/internal/models"
)

// TokenType distinguishes access from refresh tokens.
type TokenType string

const (
	AccessToken  TokenType = "access"
	RefreshToken TokenType = "refresh"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrWrongType    = errors.New("unexpected token type")
)

// SessionClaims are the JWT claims carried by every issued token: the
// identity plus its role snapshot at issue time.
type SessionClaims struct {
	UserID    uuid.UUID     `json:"user_id"`
	Email     string        `json:"email"`
	Roles     []models.Role `json:"roles"`
	TokenType TokenType     `json:"token_type"`
	SessionID string        `json:"session_id"`

	jwt.RegisteredClaims
}

// JWTManager signs and validates session tokens with an HS256 secret from
// config (optionally sourced from Secrets Manager at boot).
type JWTManager struct {
	cfg config.JWTConfig
	key []byte
}

// NewJWTManager validates the signing key and applies duration defaults.
func NewJWTManager(cfg config.JWTConfig) (*JWTManager, error) {
	if cfg.SigningKey == "" {
		return nil, errors.New("jwt signing key is required")
	}
	if cfg.AccessDuration == 0 {
		cfg.AccessDuration = 15 * time.Minute
	}
	if cfg.RefreshDuration == 0 {
		cfg.RefreshDuration = 7 * 24 * time.Hour
	}
	if cfg.Issuer == "" {
		cfg.Issuer = "cleanafricanow"
	}
	return &JWTManager{cfg: cfg, key: []byte(cfg.SigningKey)}, nil
}

// IssueTokens mints an access and a refresh token sharing one session id.
func (m *JWTManager) IssueTokens(user *models.User, roles []models.Role) (access, refresh, sessionID string, err error) {
	sessionID, err = generateTokenID()
	if err != nil {
		return "", "", "", fmt.Errorf("generate session id: %w", err)
	}

	access, err = m.sign(user, roles, AccessToken, sessionID, m.cfg.AccessDuration)
	if err != nil {
		return "", "", "", err
	}
	refresh, err = m.sign(user, roles, RefreshToken, sessionID, m.cfg.RefreshDuration)
	if err != nil {
		return "", "", "", err
	}
	return access, refresh, sessionID, nil
}

func (m *JWTManager) sign(user *models.User, roles []models.Role, tt TokenType, sessionID string, d time.Duration) (string, error) {
	now := time.Now()
	tokenID, err := generateTokenID()
	if err != nil {
		return "", fmt.Errorf("generate token id: %w", err)
	}

	claims := SessionClaims{
		UserID:    user.ID,
		Email:     user.Email,
		Roles:     roles,
		TokenType: tt,
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        tokenID,
			Subject:   user.ID.String(),
			Issuer:    m.cfg.Issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(d)),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.key)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// ValidateToken parses and verifies a token of the expected type.
func (m *JWTManager) ValidateToken(raw string, expected TokenType) (*SessionClaims, error) {
	claims := &SessionClaims{}
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return m.key, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.TokenType != expected {
		return nil, ErrWrongType
	}
	return claims, nil
}

// AccessDuration exposes the configured access-token lifetime for response
// bodies.
func (m *JWTManager) AccessDuration() time.Duration { return m.cfg.AccessDuration }

func generateTokenID() (string, error) {
	b := make([]byte, 24)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
