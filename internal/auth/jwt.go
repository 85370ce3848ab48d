// Package auth issues and validates the tokens chat bridges use to call the
// service.
package auth

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken   = errors.New("invalid or expired token")
	ErrMissingToken   = errors.New("authorization token required")
	ErrChatNotAllowed = errors.New("chat not allowed for this bridge")
)

// JWTManager handles JWT token generation and validation.
type JWTManager struct {
	secretKey     []byte
	tokenDuration time.Duration
}

// Claims identify a chat bridge, e.g. a WhatsApp or Telegram relay.
type Claims struct {
	Bridge string `json:"bridge"`

	// Chats restricts the bridge to these chat IDs. Empty means any chat.
	Chats []string `json:"chats,omitempty"`
	jwt.RegisteredClaims
}

// AllowsChat reports whether the bridge may act for chatID.
func (c *Claims) AllowsChat(chatID string) bool {
	return len(c.Chats) == 0 || slices.Contains(c.Chats, chatID)
}

// NewJWTManager signs with secretKey. A non-positive tokenDuration issues
// tokens that never expire.
func NewJWTManager(secretKey string, tokenDuration time.Duration) *JWTManager {
	return &JWTManager{
		secretKey:     []byte(secretKey),
		tokenDuration: tokenDuration,
	}
}

// Generate creates a new JWT token for the named bridge.
func (m *JWTManager) Generate(bridge string, chats ...string) (string, error) {
	if bridge == "" {
		return "", errors.New("bridge name is required")
	}
	now := time.Now()
	claims := &Claims{
		Bridge: bridge,
		Chats:  chats,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   bridge,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}
	if m.tokenDuration > 0 {
		claims.ExpiresAt = jwt.NewNumericDate(now.Add(m.tokenDuration))
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secretKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Validate checks the signature, expiry and bridge name of a token.
func (m *JWTManager) Validate(tokenString string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims,
		func(*jwt.Token) (any, error) { return m.secretKey, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	if claims.Bridge == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
