package auth

import (
	"chat-relay/contract"
	"chat-relay/domain"
	"chat-relay/errors"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"
)

type contextKey string

const principalKey contextKey = "principal"

// TokenQueryParam carries the token for clients that cannot set headers on
// a WebSocket upgrade (browsers).
const TokenQueryParam = "token"

// BearerCredential extracts the credential from the Authorization header,
// falling back to the token query parameter.
func BearerCredential(r *http.Request) (string, error) {
	if header := r.Header.Get("Authorization"); header != "" {
		if !strings.HasPrefix(header, "Bearer ") {
			return "", errors.ErrInvalidHandshake
		}
		return strings.TrimPrefix(header, "Bearer "), nil
	}
	if token := r.URL.Query().Get(TokenQueryParam); token != "" {
		return token, nil
	}
	return "", errors.ErrMissingToken
}

// Interceptor rejects unauthenticated requests with a 401 JSON body before
// they reach next, and injects the principal into the request context.
func Interceptor(authenticator contract.Authenticator, log *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		credential, err := BearerCredential(r)
		if err == nil {
			var principal domain.Principal
			principal, err = authenticator.Verify(r.Context(), credential)
			if err == nil {
				next.ServeHTTP(w, r.WithContext(WithPrincipal(r.Context(), principal)))
				return
			}
		}
		log.Warn("Connection rejected", "remote", r.RemoteAddr, "error", err)
		writeUnauthorized(w, err)
	})
}

func WithPrincipal(ctx context.Context, principal domain.Principal) context.Context {
	return context.WithValue(ctx, principalKey, principal)
}

func PrincipalFromContext(ctx context.Context) (domain.Principal, bool) {
	principal, ok := ctx.Value(principalKey).(domain.Principal)
	return principal, ok
}

func writeUnauthorized(w http.ResponseWriter, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"code":  errors.Code(err),
		"error": err.Error(),
	})
}
