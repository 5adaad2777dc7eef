package middleware

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/vocadeck/vocadeck-api/auth"
	"github.com/vocadeck/vocadeck-api/services"
	"github.com/vocadeck/vocadeck-api/utils"
)

// RequireAuth verifies the bearer token, confirms the user still exists, and
// attaches the user to the request context. Missing/invalid/expired tokens
// and vanished users all produce 401.
func RequireAuth(tokens *auth.TokenManager, authSvc *services.AuthService) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			if header == "" || !strings.HasPrefix(header, "Bearer ") {
				writeUnauthorized(w, "missing or malformed authorization header")
				return
			}

			userID, err := tokens.ParseToken(strings.TrimPrefix(header, "Bearer "))
			if err != nil {
				writeUnauthorized(w, "invalid or expired token")
				return
			}

			user, err := authSvc.GetUser(r.Context(), userID)
			if err != nil {
				writeUnauthorized(w, "invalid or expired token")
				return
			}

			next.ServeHTTP(w, r.WithContext(utils.WithUser(r.Context(), user)))
		}
	}
}

func writeUnauthorized(w http.ResponseWriter, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"success": false,
		"message": message,
	})
}
