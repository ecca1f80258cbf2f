package middleware

import (
	"context"
	"net/http"
	"strings"
)

type contextKey string

const (
	UserKey  contextKey = "user_id"
	LoginKey contextKey = "login"
)

// TokenValidator is what we need from the user service; the interface keeps
// this package decoupled from it.
type TokenValidator interface {
	ValidateToken(tokenString string) (int, string, error)
}

// RoleChecker answers whether a user holds the admin role.
type RoleChecker interface {
	IsAdmin(ctx context.Context, userID int) bool
}

type AuthMiddleware struct {
	validator TokenValidator
	roles     RoleChecker
}

func NewAuthMiddleware(v TokenValidator, r RoleChecker) *AuthMiddleware {
	return &AuthMiddleware{validator: v, roles: r}
}

// Handle requires a valid bearer token and injects the caller's identity into
// the request context.
func (am *AuthMiddleware) Handle(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenString := ""

		authHeader := r.Header.Get("Authorization")
		if authHeader != "" {
			parts := strings.Split(authHeader, " ")
			if len(parts) == 2 {
				tokenString = parts[1]
			}
		}

		// Fallback for websocket clients that cannot set headers.
		if tokenString == "" {
			tokenString = r.URL.Query().Get("token")
		}

		if tokenString == "" {
			http.Error(w, "Missing authentication token", http.StatusUnauthorized)
			return
		}

		userID, login, err := am.validator.ValidateToken(tokenString)
		if err != nil {
			http.Error(w, "Invalid token", http.StatusUnauthorized)
			return
		}

		ctx := context.WithValue(r.Context(), UserKey, userID)
		ctx = context.WithValue(ctx, LoginKey, login)

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// HandleOptional injects the caller's identity when a valid token is present
// but lets anonymous requests through. Public listings use it so that admins
// and owners see more than visitors.
func (am *AuthMiddleware) HandleOptional(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tokenString := ""
		authHeader := r.Header.Get("Authorization")
		if authHeader != "" {
			parts := strings.Split(authHeader, " ")
			if len(parts) == 2 {
				tokenString = parts[1]
			}
		}

		if tokenString != "" {
			if userID, login, err := am.validator.ValidateToken(tokenString); err == nil {
				ctx := context.WithValue(r.Context(), UserKey, userID)
				ctx = context.WithValue(ctx, LoginKey, login)
				r = r.WithContext(ctx)
			}
		}

		next.ServeHTTP(w, r)
	})
}

// RequireAdmin gates a route on the admin role. It answers 404 rather than
// 403 so the existence of admin surfaces is not leaked.
func (am *AuthMiddleware) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, ok := r.Context().Value(UserKey).(int)
		if !ok || !am.roles.IsAdmin(r.Context(), userID) {
			http.NotFound(w, r)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// Identity pulls the authenticated user id and login out of the context.
func Identity(ctx context.Context) (int, string, bool) {
	userID, ok := ctx.Value(UserKey).(int)
	login, ok2 := ctx.Value(LoginKey).(string)
	return userID, login, ok && ok2
}
