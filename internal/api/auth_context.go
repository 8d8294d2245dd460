package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/bookhaven/bookhaven-server/internal/domain"
	"github.com/bookhaven/bookhaven-server/internal/service"
)

// ctxKey is the type for context keys to avoid collisions.
type ctxKey string

const (
	tokenKey ctxKey = "token"
	userKey  ctxKey = "user"
)

// extractToken returns the bearer token of r. The Authorization header wins
// over the session cookie.
func extractToken(r *http.Request, cookieName string) string {
	if header := r.Header.Get("Authorization"); header != "" {
		scheme, token, ok := strings.Cut(header, " ")
		if ok && strings.EqualFold(scheme, "Bearer") {
			if token = strings.TrimSpace(token); token != "" {
				return token
			}
		}
	}

	if cookie, err := r.Cookie(cookieName); err == nil {
		return cookie.Value
	}
	return ""
}

// tokenExtractor stores the request's token in the context. It never rejects
// a request; RequireUser and requireAuth decide what a missing token means.
func tokenExtractor(cookieName string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token := extractToken(r, cookieName); token != "" {
				r = r.WithContext(context.WithValue(r.Context(), tokenKey, token))
			}
			next.ServeHTTP(w, r)
		})
	}
}

func tokenFromContext(ctx context.Context) string {
	token, _ := ctx.Value(tokenKey).(string)
	return token
}

func setUser(ctx context.Context, user *domain.User) context.Context {
	return context.WithValue(ctx, userKey, user)
}

// userFromContext returns the user resolved by requireAuth, if any.
func userFromContext(ctx context.Context) *domain.User {
	user, _ := ctx.Value(userKey).(*domain.User)
	return user
}

// RequireUser resolves the authenticated user of the request.
func (s *Server) RequireUser(ctx context.Context) (*domain.User, error) {
	if user := userFromContext(ctx); user != nil {
		return user, nil
	}
	return s.services.Auth.Authenticate(ctx, tokenFromContext(ctx))
}

// RequireAdmin resolves the authenticated user and requires the admin flag.
func (s *Server) RequireAdmin(ctx context.Context) (*domain.User, error) {
	user, err := s.RequireUser(ctx)
	if err != nil {
		return nil, err
	}
	if err := service.RequireAdmin(user); err != nil {
		return nil, err
	}
	return user, nil
}
