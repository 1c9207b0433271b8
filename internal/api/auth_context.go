package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/danielgtaylor/huma/v2"

	"github.com/framemarkapp/framemark-server/internal/service"
)

// ctxKey is the type for context keys to avoid collisions.
type ctxKey string

// operatorIDKey is the context key for the authenticated operator ID.
const operatorIDKey ctxKey = "operatorID"

// GetOperatorID returns the authenticated operator ID from context.
// Returns a 401 error if the request is not authenticated.
func GetOperatorID(ctx context.Context) (string, error) {
	operatorID, ok := ctx.Value(operatorIDKey).(string)
	if !ok || operatorID == "" {
		return "", huma.Error401Unauthorized("Authentication required")
	}
	return operatorID, nil
}

// setOperatorID stores the operator ID in context.
func setOperatorID(ctx context.Context, operatorID string) context.Context {
	return context.WithValue(ctx, operatorIDKey, operatorID)
}

// authMiddleware returns a middleware that validates Bearer tokens and stores
// the operator ID in context. If no token is present or it is invalid, the
// request continues without an operator; handlers reject via GetOperatorID or
// authenticateRequest when auth is required.
func authMiddleware(auth *service.AuthService) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" || !strings.HasPrefix(authHeader, "Bearer ") {
				next.ServeHTTP(w, r)
				return
			}

			token := authHeader[7:]
			claims, err := auth.VerifyAccessToken(r.Context(), token)
			if err != nil {
				next.ServeHTTP(w, r)
				return
			}

			ctx := setOperatorID(r.Context(), claims.OperatorID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
