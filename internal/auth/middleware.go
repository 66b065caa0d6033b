package auth

import (
	"context"
	"fmt"
	"net/http"

	"dollmart/internal/models"
)

type contextKey string

const userKey contextKey = "current_user"

// Middleware verifies the bearer token, loads the account it names and
// stores it in the request context. Every protected route goes through it;
// handlers never reach for ambient session state.
func Middleware(svc *AuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := ExtractTokenFromRequest(r)
			if err != nil {
				http.Error(w, err.Error(), http.StatusUnauthorized)
				return
			}

			userID, err := svc.Tokens.Verify(token)
			if err != nil {
				http.Error(w, fmt.Sprintf("invalid token: %v", err), http.StatusUnauthorized)
				return
			}

			user, err := svc.GetUser(r.Context(), userID)
			if err != nil {
				http.Error(w, "account no longer exists", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), userKey, user)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireManager gates manager-only routes. It must run after Middleware.
func RequireManager(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := CurrentUser(r.Context())
		if user == nil || !user.IsManager() {
			http.Error(w, "manager access required", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// CurrentUser returns the authenticated user stored by Middleware, or nil.
func CurrentUser(ctx context.Context) *models.User {
	if user, ok := ctx.Value(userKey).(*models.User); ok {
		return user
	}
	return nil
}
