package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/voxnote/voxnote/internal/pkg/env"
)

var (
	// ErrInvalidToken is returned when a token is malformed, unsigned by us
	// or otherwise untrustworthy. Any verification failure is total rejection.
	ErrInvalidToken = errors.New("invalid token")
	// ErrExpiredToken is returned when a token's encoded expiry has passed
	ErrExpiredToken = errors.New("token has expired")
)

// Claims carried by a session token: the subject email plus registered claims.
type Claims struct {
	Email string `json:"email"`
	jwt.RegisteredClaims
}

// Service issues and validates signed session tokens. It deals only in
// opaque token strings; cookie vs. header transport is the caller's concern.
type Service struct {
	secret     []byte
	expiration time.Duration
	issuer     string
}

// NewService creates a token service with the given signing secret.
func NewService(secret string, expiration time.Duration) *Service {
	return &Service{
		secret:     []byte(secret),
		expiration: expiration,
		issuer:     "voxnote",
	}
}

// NewServiceFromEnv builds the service from JWT_SECRET_KEY and
// JWT_EXPIRE_MINUTES (default 60).
func NewServiceFromEnv() *Service {
	secret := env.GetEnv("JWT_SECRET_KEY", "")
	if secret == "" {
		panic("JWT_SECRET_KEY is not set")
	}
	minutes := env.GetEnvInt("JWT_EXPIRE_MINUTES", 60)
	return NewService(secret, time.Duration(minutes)*time.Minute)
}

// Generate creates a signed token asserting the given identity.
func (s *Service) Generate(email string) (string, error) {
	now := time.Now()
	claims := Claims{
		Email: email,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Subject:   email,
			ID:        uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.expiration)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, nil
}

// Validate checks signature, shape and expiry and returns the claims.
func (s *Service) Validate(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return s.secret, nil
	})

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}

	if claims.Issuer != s.issuer {
		return nil, ErrInvalidToken
	}

	return claims, nil
}

// GetExpiration returns the token expiration duration
func (s *Service) GetExpiration() time.Duration {
	return s.expiration
}
