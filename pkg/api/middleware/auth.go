package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	authproviders "github.com/hilltop-games/thegame/pkg/auth/providers"
	"github.com/hilltop-games/thegame/pkg/log"
)

type ContextKey int

const (
	// UserIDContextKey is the key used to store the verified user identity
	// in the request context
	UserIDContextKey ContextKey = iota
)

// UserID returns the verified identity stored by NewAuthMiddleware.
func UserID(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(UserIDContextKey).(string)
	return userID, ok
}

func NewAuthMiddleware(authProvider authproviders.AuthProvider) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			bearerToken, err := parseBearerToken(r)
			if err != nil {
				log.Debug("failed to parse bearer token: %v", err)
				http.Error(w, "failed to parse bearer token", http.StatusUnauthorized)
				return
			}

			token, err := authProvider.VerifyToken(r.Context(), bearerToken)
			if err != nil {
				log.Debug("failed to verify ID token: %v", err)
				http.Error(w, "failed to verify ID token", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), UserIDContextKey, token.UID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// parseBearerToken parses the bearer token from the Authorization header,
// falling back to the access_token query parameter for websocket upgrades,
// where clients cannot always set headers.
func parseBearerToken(r *http.Request) (string, error) {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		if token := r.URL.Query().Get("access_token"); token != "" {
			return token, nil
		}
		return "", fmt.Errorf("authorization header is missing")
	}

	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
		return "", fmt.Errorf("invalid Authorization header format")
	}

	return parts[1], nil
}
