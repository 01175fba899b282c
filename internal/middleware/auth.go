package middleware

import (
	"context"
	"strings"

	"connectrpc.com/connect"

	"github.com/rahat-c2c/disburse/internal/auth"
)

// contextKey is a custom type for context keys to avoid collisions.
type contextKey string

// ServiceKey is the context key for the authenticated calling service.
const ServiceKey contextKey = "service"

// GetService extracts the calling service name from the context.
// Returns empty string if not found.
func GetService(ctx context.Context) string {
	service, _ := ctx.Value(ServiceKey).(string)
	return service
}

// RequireAuth returns an interceptor that validates JWT bearer tokens and
// puts the calling service name on the request context.
func RequireAuth(jwtManager *auth.JWTManager) connect.UnaryInterceptorFunc {
	return func(next connect.UnaryFunc) connect.UnaryFunc {
		return func(ctx context.Context, req connect.AnyRequest) (connect.AnyResponse, error) {
			authHeader := req.Header().Get("Authorization")
			if authHeader == "" {
				return nil, connect.NewError(connect.CodeUnauthenticated, auth.ErrMissingToken)
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				return nil, connect.NewError(connect.CodeUnauthenticated, auth.ErrInvalidToken)
			}

			claims, err := jwtManager.Validate(parts[1])
			if err != nil {
				return nil, connect.NewError(connect.CodeUnauthenticated, err)
			}

			ctx = context.WithValue(ctx, ServiceKey, claims.Service)
			return next(ctx, req)
		}
	}
}
