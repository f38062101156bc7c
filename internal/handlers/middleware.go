package handlers

import (
	"errors"
	"net/http"
	"strings"

	"github.com/scpnet/authserver/internal/auth"
)

// RequireAuth verifies the bearer token and injects its claims into the
// request context. Each rejection kind keeps its own status so clients
// can tell "log in again" from "hard deny": missing token and expired
// token answer 401, a forged or malformed token answers 403.
func RequireAuth(codec *auth.TokenCodec) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString, err := bearerToken(r)
			if err != nil {
				writeError(w, http.StatusUnauthorized, "Access denied. No token provided.")
				return
			}

			claims, err := codec.Verify(tokenString)
			if err != nil {
				if errors.Is(err, auth.ErrTokenExpired) {
					writeError(w, http.StatusUnauthorized, "Token expired. Please log in again.")
					return
				}
				writeError(w, http.StatusForbidden, "Invalid token.")
				return
			}

			next.ServeHTTP(w, r.WithContext(withClaims(r.Context(), claims)))
		})
	}
}

// RequireAccessLevel gates a route on an exact access level match.
// Must run after RequireAuth.
func RequireAccessLevel(level string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, ok := ClaimsFromContext(r.Context())
			if !ok {
				writeError(w, http.StatusUnauthorized, "Access denied. No token provided.")
				return
			}
			if claims.AccessLevel != level {
				writeError(w, http.StatusForbidden, "Access denied. Insufficient privileges.")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) (string, error) {
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	if header == "" {
		return "", auth.ErrNoToken
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", auth.ErrNoToken
	}
	token := strings.TrimSpace(parts[1])
	if token == "" {
		return "", auth.ErrNoToken
	}
	return token, nil
}
