package jwttoken

import (
	"provenance/internal/platform/middleware"
	id "provenance/pkg/domain"
	dErrors "provenance/pkg/domain-errors"
)

// Adapter exposes Service as a middleware.JWTValidator.
type Adapter struct {
	service *Service
}

func NewAdapter(service *Service) *Adapter {
	return &Adapter{service: service}
}

func (a *Adapter) ValidateToken(tokenString string) (*middleware.JWTClaims, error) {
	claims, err := a.service.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	accountID, err := id.ParseAccountID(claims.AccountID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnauthorized, "invalid token subject")
	}
	return &middleware.JWTClaims{AccountID: accountID, JTI: claims.ID}, nil
}
