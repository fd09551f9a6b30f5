// Package jwttoken issues and verifies the HS256 access tokens accepted by
// the authenticated routes.
package jwttoken

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	id "provenance/pkg/domain"
	dErrors "provenance/pkg/domain-errors"
)

// clockSkew tolerates small clock drift between issuer and server.
const clockSkew = 5 * time.Second

// Claims identify the account only. Roles are read from storage on every
// request and are never embedded in a token.
type Claims struct {
	AccountID string `json:"account_id"`
	jwt.RegisteredClaims
}

type Service struct {
	key      []byte
	issuer   string
	audience string
	parser   *jwt.Parser
}

func NewService(signingKey, issuer, audience string) *Service {
	return &Service{
		key:      []byte(signingKey),
		issuer:   issuer,
		audience: audience,
		parser: jwt.NewParser(
			jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
			jwt.WithIssuer(issuer),
			jwt.WithAudience(audience),
			jwt.WithExpirationRequired(),
			jwt.WithLeeway(clockSkew),
		),
	}
}

// GenerateAccessToken signs a token for accountID valid from now for ttl.
func (s *Service) GenerateAccessToken(accountID id.AccountID, now time.Time, ttl time.Duration) (string, error) {
	subject := accountID.String()
	claims := Claims{
		AccountID: subject,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   subject,
			Issuer:    s.issuer,
			Audience:  jwt.ClaimStrings{s.audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.key)
}

// ValidateToken verifies signature, algorithm, issuer, audience and expiry.
// Every failure is reported as unauthorized.
func (s *Service) ValidateToken(raw string) (*Claims, error) {
	claims := &Claims{}
	_, err := s.parser.ParseWithClaims(raw, claims, func(*jwt.Token) (any, error) {
		return s.key, nil
	})
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return nil, dErrors.Wrap(err, dErrors.CodeUnauthorized, "token has expired")
	case err != nil:
		return nil, dErrors.Wrap(err, dErrors.CodeUnauthorized, "invalid token")
	case claims.Subject != claims.AccountID:
		return nil, dErrors.New(dErrors.CodeUnauthorized, "token subject mismatch")
	}
	return claims, nil
}
