package authz

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/odyssey-erp/meatstock/internal/platform/httpx"
)

type identityKey struct{}

// WithIdentity stores the caller in ctx.
func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// FromContext returns the caller stored by Authenticate.
func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(identityKey{}).(Identity)
	return id, ok
}

// Validator checks raw bearer tokens.
type Validator interface {
	Validate(raw string) (Identity, error)
}

// Middleware wires bearer authentication for HTTP handlers.
type Middleware struct {
	Tokens Validator
	Logger *slog.Logger
}

// Authenticate requires a valid bearer token from an enabled, verified account.
func (m Middleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, ok := bearerToken(r.Header.Get("Authorization"))
		if !ok {
			httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "missing or malformed bearer token")
			return
		}
		id, err := m.Tokens.Validate(raw)
		if err != nil {
			m.logger().Warn("reject bearer token",
				slog.String("path", r.URL.Path),
				slog.String("method", r.Method),
				slog.Any("error", err))
			detail := "invalid token"
			if errors.Is(err, ErrExpiredToken) {
				detail = "token expired"
			}
			httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", detail)
			return
		}
		if err := id.Allowed(); err != nil {
			httpx.Problem(w, http.StatusForbidden, "Forbidden", err.Error())
			return
		}
		next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
	})
}

// RequireRole ensures the caller holds one of roles.
func (m Middleware) RequireRole(roles ...string) func(http.Handler) http.Handler {
	allowed := make(map[string]struct{}, len(roles))
	for _, role := range roles {
		allowed[strings.ToLower(strings.TrimSpace(role))] = struct{}{}
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := FromContext(r.Context())
			if !ok {
				httpx.Problem(w, http.StatusUnauthorized, "Unauthorized", "authentication required")
				return
			}
			if _, ok := allowed[id.Role]; !ok {
				httpx.Problem(w, http.StatusForbidden, "Forbidden", "Admin access required")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (m Middleware) logger() *slog.Logger {
	if m.Logger == nil {
		return slog.Default()
	}
	return m.Logger
}

func bearerToken(header string) (string, bool) {
	parts := strings.Split(header, " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", false
	}
	return parts[1], true
}
