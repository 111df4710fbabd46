package auth

import (
	"chat-relay/domain"
	"chat-relay/errors"
	"context"
	"strings"
)

// JWTAuthenticator turns a bearer token into a principal.
type JWTAuthenticator struct {
	issuer *TokenIssuer
}

func NewJWTAuthenticator(issuer *TokenIssuer) *JWTAuthenticator {
	return &JWTAuthenticator{issuer: issuer}
}

// Verify accepts the raw token or the "Bearer <token>" form.
func (a *JWTAuthenticator) Verify(_ context.Context, credential string) (domain.Principal, error) {
	token := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(credential), "Bearer "))
	if token == "" {
		return domain.Principal{}, errors.ErrMissingToken
	}
	claims, err := a.issuer.Validate(token)
	if err != nil {
		return domain.Principal{}, err
	}
	return domain.Principal{
		Identity: domain.Identity(claims.Username),
		Name:     claims.Username,
		Roles:    claims.Roles,
	}, nil
}
