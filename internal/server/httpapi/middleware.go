package httpapi

import (
	"context"
	"net/http"
	"strings"

	"github.com/gezielcarvalho/ascauth/internal/server/models"
)

type ctxKey string

const tokenKey ctxKey = "token"

// authenticate resolves the Authorization bearer header through the token
// service before admitting the request. Every token-lifecycle failure is
// reported to the client as the same generic unauthorized outcome.
func (s *Server) authenticate(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		bearer, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || bearer == "" {
			writeUnauthorized(w)
			return
		}

		token, err := s.tokens.Validate(r.Context(), bearer)
		if err != nil {
			if isAuthFailure(err) {
				s.logger.Debug(r.Context(), "rejected bearer token", "reason", err)
				writeUnauthorized(w)
				return
			}
			s.logger.Error(r.Context(), "token validation failed", "error", err)
			writeServerError(w)
			return
		}

		ctx := context.WithValue(r.Context(), tokenKey, token)
		next.ServeHTTP(w, r.WithContext(ctx))
	}
}

// tokenFromContext returns the validated token stored by authenticate.
func tokenFromContext(ctx context.Context) (*models.Token, bool) {
	token, ok := ctx.Value(tokenKey).(*models.Token)
	return token, ok
}
