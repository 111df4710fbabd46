package auth_test

import (
	"chat-relay/auth"
	"chat-relay/domain"
	"chat-relay/errors"
	"chat-relay/mocks"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
)

func TestInterceptor(t *testing.T) {
	var reached domain.Principal
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached, _ = auth.PrincipalFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	})

	t.Run("should reject when token is missing", func(t *testing.T) {
		req := require.New(t)
		ctrl := gomock.NewController(t)
		authenticator := mocks.NewMockAuthenticator(ctrl)

		rec := httptest.NewRecorder()
		auth.Interceptor(authenticator, slog.Default(), next).
			ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ws", nil))

		req.Equal(http.StatusUnauthorized, rec.Code)
		var body map[string]string
		req.NoError(json.NewDecoder(rec.Body).Decode(&body))
		req.Equal("unauthenticated", body["code"])
	})

	t.Run("should reject a non bearer authorization header", func(t *testing.T) {
		req := require.New(t)
		ctrl := gomock.NewController(t)
		authenticator := mocks.NewMockAuthenticator(ctrl)

		r := httptest.NewRequest(http.MethodGet, "/ws", nil)
		r.Header.Set("Authorization", "Basic YWxpY2U6cHdk")
		rec := httptest.NewRecorder()
		auth.Interceptor(authenticator, slog.Default(), next).ServeHTTP(rec, r)

		req.Equal(http.StatusUnauthorized, rec.Code)
	})

	t.Run("should reject an invalid token", func(t *testing.T) {
		req := require.New(t)
		ctrl := gomock.NewController(t)
		authenticator := mocks.NewMockAuthenticator(ctrl)
		authenticator.EXPECT().Verify(gomock.Any(), "bad").Return(domain.Principal{}, errors.ErrInvalidToken)

		r := httptest.NewRequest(http.MethodGet, "/ws", nil)
		r.Header.Set("Authorization", "Bearer bad")
		rec := httptest.NewRecorder()
		auth.Interceptor(authenticator, slog.Default(), next).ServeHTTP(rec, r)

		req.Equal(http.StatusUnauthorized, rec.Code)
		req.Contains(rec.Body.String(), "invalid or expired token")
	})

	t.Run("should inject the principal from the query token", func(t *testing.T) {
		req := require.New(t)
		ctrl := gomock.NewController(t)
		authenticator := mocks.NewMockAuthenticator(ctrl)
		authenticator.EXPECT().Verify(gomock.Any(), "good").
			Return(domain.Principal{Identity: "alice", Name: "alice"}, nil)

		rec := httptest.NewRecorder()
		auth.Interceptor(authenticator, slog.Default(), next).
			ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/ws?token=good", nil))

		req.Equal(http.StatusNoContent, rec.Code)
		req.Equal(domain.Identity("alice"), reached.Identity)
	})
}
