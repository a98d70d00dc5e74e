package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"catalog-service/internal/models"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrWrongUse     = errors.New("token used for wrong purpose")
)

const (
	tokenUseAccess  = "access"
	tokenUseRefresh = "refresh"
)

// TokenPair is an access/refresh token pair issued at login, registration
// and refresh
type TokenPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// Claims carried by both token kinds. JTI identifies refresh tokens for
// blacklisting on logout.
type Claims struct {
	UserID   int64  `json:"user_id"`
	Email    string `json:"email"`
	IsVendor bool   `json:"is_vendor"`
	IsStaff  bool   `json:"is_staff"`
	Use      string `json:"use"`
	jwt.RegisteredClaims
}

// Manager signs and verifies HS256 token pairs
type Manager struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

// NewManager creates a token manager
func NewManager(secret string, accessTTL, refreshTTL time.Duration) *Manager {
	return &Manager{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

// IssuePair issues a fresh access/refresh pair for a user
func (m *Manager) IssuePair(user *models.User) (*TokenPair, error) {
	access, err := m.sign(user, tokenUseAccess, m.accessTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to sign access token: %w", err)
	}

	refresh, err := m.sign(user, tokenUseRefresh, m.refreshTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to sign refresh token: %w", err)
	}

	return &TokenPair{Access: access, Refresh: refresh}, nil
}

func (m *Manager) sign(user *models.User, use string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID:   user.ID,
		Email:    user.Email,
		IsVendor: user.IsVendor,
		IsStaff:  user.IsStaff,
		Use:      use,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// ParseAccess verifies an access token and returns the caller identity
func (m *Manager) ParseAccess(tokenString string) (*Identity, error) {
	claims, err := m.parse(tokenString, tokenUseAccess)
	if err != nil {
		return nil, err
	}
	return &Identity{
		UserID:   claims.UserID,
		Email:    claims.Email,
		IsVendor: claims.IsVendor,
		IsStaff:  claims.IsStaff,
	}, nil
}

// ParseRefresh verifies a refresh token and returns its claims, including
// the JTI used for blacklisting
func (m *Manager) ParseRefresh(tokenString string) (*Claims, error) {
	return m.parse(tokenString, tokenUseRefresh)
}

func (m *Manager) parse(tokenString, expectedUse string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.Use != expectedUse {
		return nil, ErrWrongUse
	}
	return claims, nil
}
