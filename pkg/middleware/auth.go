package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/pbastos/bankroll/internal/auth"
	"github.com/pbastos/bankroll/pkg/response"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	// PlayerIDKey is the context key for the authenticated player ID
	PlayerIDKey ContextKey = "player_id"
	// NicknameKey is the context key for the authenticated player's nickname
	NicknameKey ContextKey = "nickname"
)

// RequireAuth validates the bearer token and places the player identity in
// the request context.
func RequireAuth(jwtManager *auth.JWTManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				response.Unauthorized(w, auth.ErrMissingToken.Error())
				return
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				response.Unauthorized(w, "Invalid authorization header format")
				return
			}

			claims, err := jwtManager.Validate(parts[1])
			if err != nil {
				response.Unauthorized(w, auth.ErrInvalidToken.Error())
				return
			}

			ctx := context.WithValue(r.Context(), PlayerIDKey, claims.PlayerID)
			ctx = context.WithValue(ctx, NicknameKey, claims.Nickname)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetPlayerID extracts the authenticated player ID from the request context
func GetPlayerID(ctx context.Context) (string, bool) {
	playerID, ok := ctx.Value(PlayerIDKey).(string)
	return playerID, ok && playerID != ""
}
