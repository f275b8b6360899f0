package jwttoken

import (
	"namereg/pkg/domain"
	dErrors "namereg/pkg/domain-errors"
	authmw "namereg/pkg/platform/middleware/auth"
)

// ToMiddlewareClaims converts validated claims into the shape RequireAuth consumes.
func ToMiddlewareClaims(claims *Claims) (*authmw.JWTClaims, error) {
	account, err := domain.ParseAccount(claims.Account)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeUnauthorized, "invalid token claims")
	}
	return &authmw.JWTClaims{
		Account: account,
		JTI:     claims.ID,
	}, nil
}

type JWTServiceAdapter struct {
	service *JWTService
}

func NewJWTServiceAdapter(service *JWTService) *JWTServiceAdapter {
	return &JWTServiceAdapter{service: service}
}

func (a *JWTServiceAdapter) ValidateToken(tokenString string) (*authmw.JWTClaims, error) {
	claims, err := a.service.ValidateToken(tokenString)
	if err != nil {
		return nil, err
	}
	return ToMiddlewareClaims(claims)
}
