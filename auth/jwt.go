package auth

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"fireops/models"

	"github.com/golang-jwt/jwt/v5"
)

const issuer = "fireops-api"

// TokenKind distinguishes access tokens from refresh tokens.
type TokenKind string

const (
	AccessToken  TokenKind = "access"
	RefreshToken TokenKind = "refresh"
)

var ErrWrongTokenKind = errors.New("wrong token kind")

// Claims represents the JWT claims
type Claims struct {
	UserID   string          `json:"user_id"`
	Username string          `json:"username"`
	Role     models.UserRole `json:"role"`
	Kind     TokenKind       `json:"kind"`
	jwt.RegisteredClaims
}

// JWTManager signs and validates HS256 tokens.
type JWTManager struct {
	secretKey              []byte
	tokenExpiration        time.Duration
	refreshTokenExpiration time.Duration
	now                    func() time.Time
}

func NewJWTManager(secretKey string, tokenExpiration, refreshTokenExpiration time.Duration) *JWTManager {
	return &JWTManager{
		secretKey:              []byte(secretKey),
		tokenExpiration:        tokenExpiration,
		refreshTokenExpiration: refreshTokenExpiration,
		now:                    time.Now,
	}
}

// GenerateToken issues a short-lived access token.
func (m *JWTManager) GenerateToken(user *models.User) (string, error) {
	return m.sign(user, AccessToken, m.tokenExpiration)
}

// GenerateRefreshToken issues a refresh token with longer expiration.
func (m *JWTManager) GenerateRefreshToken(user *models.User) (string, error) {
	return m.sign(user, RefreshToken, m.refreshTokenExpiration)
}

// TokenExpiration is the lifetime of access tokens.
func (m *JWTManager) TokenExpiration() time.Duration { return m.tokenExpiration }

func (m *JWTManager) sign(user *models.User, kind TokenKind, ttl time.Duration) (string, error) {
	if user == nil || user.UserID == "" {
		return "", errors.New("user id is required")
	}
	now := m.now()
	claims := Claims{
		UserID:   user.UserID,
		Username: user.Username,
		Role:     user.Role,
		Kind:     kind,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    issuer,
			Subject:   user.UserID,
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secretKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign %s token: %w", kind, err)
	}
	return signed, nil
}

// ValidateToken parses an access token.
func (m *JWTManager) ValidateToken(tokenString string) (*Claims, error) {
	return m.validate(tokenString, AccessToken)
}

// ValidateRefreshToken parses a refresh token.
func (m *JWTManager) ValidateRefreshToken(tokenString string) (*Claims, error) {
	return m.validate(tokenString, RefreshToken)
}

func (m *JWTManager) validate(tokenString string, want TokenKind) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secretKey, nil
	}, jwt.WithIssuer(issuer), jwt.WithTimeFunc(m.now))
	if err != nil {
		return nil, fmt.Errorf("failed to parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("invalid token")
	}
	if claims.Kind != want {
		return nil, fmt.Errorf("%w: got %q, want %q", ErrWrongTokenKind, claims.Kind, want)
	}
	return claims, nil
}

// ExtractToken extracts the token from the Authorization header
// Expected format: "Bearer <token>"
func ExtractToken(authHeader string) (string, error) {
	if authHeader == "" {
		return "", errors.New("authorization header is empty")
	}
	token, ok := strings.CutPrefix(authHeader, "Bearer ")
	if !ok || strings.TrimSpace(token) == "" {
		return "", errors.New("invalid authorization header format")
	}
	return strings.TrimSpace(token), nil
}
