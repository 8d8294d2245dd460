package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/bookhaven/bookhaven-server/internal/auth"
	"github.com/bookhaven/bookhaven-server/internal/domain"
	domainerrors "github.com/bookhaven/bookhaven-server/internal/errors"
	"github.com/bookhaven/bookhaven-server/internal/store"
)

// AuthService resolves bearer tokens to users.
type AuthService struct {
	store  *store.Store
	tokens *auth.TokenService
	logger *slog.Logger
}

// NewAuthService creates a new authentication service.
func NewAuthService(st *store.Store, tokens *auth.TokenService, logger *slog.Logger) *AuthService {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &AuthService{
		store:  st,
		tokens: tokens,
		logger: logger,
	}
}

// Authenticate verifies token and loads its user.
// An empty token yields ErrNoToken, an expired one ErrTokenExpired, any other
// verification failure ErrInvalidToken. A valid token whose user was deleted
// yields ErrUserNotFound; that lookup is the only revocation mechanism.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*domain.User, error) {
	if token == "" {
		return nil, domainerrors.ErrNoToken
	}

	claims, err := s.tokens.Verify(token)
	if err != nil {
		if errors.Is(err, auth.ErrTokenExpired) {
			s.logger.Debug("expired token presented")
			return nil, domainerrors.ErrTokenExpired
		}
		s.logger.Debug("token verification failed", "error", err)
		return nil, domainerrors.ErrInvalidToken
	}

	user, err := s.store.GetUser(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.logger.Debug("token for deleted user", "user_id", claims.UserID)
			return nil, domainerrors.ErrUserNotFound
		}
		return nil, fmt.Errorf("get user: %w", err)
	}

	user.PasswordHash = ""
	return user, nil
}

// IssueToken creates a bearer token for userID.
func (s *AuthService) IssueToken(userID string) (string, time.Time, error) {
	token, expires, err := s.tokens.Issue(userID)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("issue token: %w", err)
	}
	return token, expires, nil
}

// RequireAdmin fails with ErrAdminRequired unless user is an administrator.
func RequireAdmin(user *domain.User) error {
	if user == nil || !user.IsAdmin {
		return domainerrors.ErrAdminRequired
	}
	return nil
}
