package middleware

import (
	"net/http"
	"strings"

	"github.com/haguru/notedly/internal/auth"
	"github.com/haguru/notedly/internal/interfaces"
)

const bearerPrefix = "bearer "

// IdentityMiddleware resolves the Authorization header into a user id on the
// request context. The header may hold the raw token or "Bearer <token>".
// Requests without a valid token continue anonymously.
func IdentityMiddleware(tokens interfaces.TokenManager, logger interfaces.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := tokenFromHeader(r.Header.Get("Authorization"))
			if token == "" {
				next.ServeHTTP(w, r)
				return
			}

			userID, err := tokens.VerifyToken(token)
			if err != nil {
				logger.Warn("Invalid session token", "path", r.URL.Path, "client", ClientIP(r), "error", err)
				next.ServeHTTP(w, r)
				return
			}
			next.ServeHTTP(w, r.WithContext(auth.WithUserID(r.Context(), userID)))
		})
	}
}

func tokenFromHeader(header string) string {
	header = strings.TrimSpace(header)
	if len(header) >= len(bearerPrefix) && strings.EqualFold(header[:len(bearerPrefix)], bearerPrefix) {
		header = strings.TrimSpace(header[len(bearerPrefix):])
	}
	return header
}
