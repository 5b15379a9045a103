// Package token issues and validates the HMAC-signed access tokens used by
// the HTTP surface. Identity itself (signup, login) lives in an external
// provider; this service only needs to trust the user_id claim.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"employee-compass/internal/platform/middleware"
	id "employee-compass/pkg/domain"
)

const (
	defaultIssuer   = "employee-compass"
	defaultAudience = "employee-compass-api"
)

// Claims represents the JWT claims for access tokens.
type Claims struct {
	UserID string `json:"user_id"`
	jwt.RegisteredClaims
}

// Service handles JWT creation and validation.
type Service struct {
	signingKey []byte
	issuer     string
	audience   string
}

// New constructs a token service with the given HMAC signing key.
func New(signingKey string) *Service {
	return &Service{
		signingKey: []byte(signingKey),
		issuer:     defaultIssuer,
		audience:   defaultAudience,
	}
}

// GenerateAccessToken mints a signed token for the user.
func (s *Service) GenerateAccessToken(userID id.UserID, expiresIn time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID: userID.String(),
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    s.issuer,
			Audience:  jwt.ClaimStrings{s.audience},
			Subject:   userID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(expiresIn)),
			ID:        uuid.NewString(),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.signingKey)
	if err != nil {
		return "", fmt.Errorf("sign access token: %w", err)
	}
	return signed, nil
}

// ValidateToken parses and verifies a token, returning the claims the
// middleware cares about.
func (s *Service) ValidateToken(tokenString string) (*middleware.JWTClaims, error) {
	parsed, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.signingKey, nil
	}, jwt.WithIssuer(s.issuer), jwt.WithAudience(s.audience), jwt.WithExpirationRequired())
	if err != nil {
		return nil, fmt.Errorf("parse access token: %w", err)
	}

	claims, ok := parsed.Claims.(*Claims)
	if !ok || !parsed.Valid {
		return nil, errors.New("invalid access token")
	}
	if claims.UserID == "" {
		return nil, errors.New("access token missing user_id claim")
	}

	return &middleware.JWTClaims{
		UserID: claims.UserID,
		JTI:    claims.ID,
	}, nil
}
