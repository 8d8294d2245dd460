package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/bookhaven/bookhaven-server/internal/auth"
	"github.com/bookhaven/bookhaven-server/internal/domain"
	domainerrors "github.com/bookhaven/bookhaven-server/internal/errors"
	"github.com/bookhaven/bookhaven-server/internal/id"
	"github.com/bookhaven/bookhaven-server/internal/store"
)

var errUserNotFound = domainerrors.NotFound("User not found")

// UserService handles accounts: registration, login, profile and admin management.
type UserService struct {
	store  *store.Store
	auth   *AuthService
	logger *slog.Logger
	now    Clock
}

// NewUserService creates a new user service.
func NewUserService(st *store.Store, authService *AuthService, logger *slog.Logger) *UserService {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &UserService{
		store:  st,
		auth:   authService,
		logger: logger,
		now:    time.Now,
	}
}

// WithClock replaces the time source. Used by tests.
func (s *UserService) WithClock(now Clock) *UserService {
	s.now = now
	return s
}

// RegisterRequest contains the data for a new account.
type RegisterRequest struct {
	Name     string `json:"name" validate:"required,notblank,max=100"`
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,min=8,max=1024"`
}

// LoginRequest contains user credentials.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,max=1024"`
}

// AuthResult is a user together with a freshly issued token.
type AuthResult struct {
	User      domain.Public
	Token     string
	ExpiresAt time.Time
}

// Profile is what a user sees about their own account.
type Profile struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Email    string    `json:"email"`
	IsAdmin  bool      `json:"isAdmin"`
	JoinDate time.Time `json:"joinDate"`
}

// ProfileUpdate changes the caller's own account. Nil fields are untouched.
type ProfileUpdate struct {
	Name     *string `json:"name,omitempty" validate:"omitempty,max=100"`
	Email    *string `json:"email,omitempty" validate:"omitempty,email,max=254"`
	Password *string `json:"password,omitempty" validate:"omitempty,min=8,max=1024"`
}

// AdminUserUpdate changes another account. Nil fields are untouched.
type AdminUserUpdate struct {
	Name    *string `json:"name,omitempty" validate:"omitempty,max=100"`
	Email   *string `json:"email,omitempty" validate:"omitempty,email,max=254"`
	IsAdmin *bool   `json:"isAdmin,omitempty"`
}

// Register creates a customer account and signs it in.
func (s *UserService) Register(ctx context.Context, req RegisterRequest) (*AuthResult, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = store.NormalizeEmail(req.Email)
	if err := validate.Validate(req); err != nil {
		return nil, err
	}

	user, err := s.createUser(ctx, req.Name, req.Email, req.Password, false)
	if err != nil {
		return nil, err
	}

	s.logger.Info("user registered", "user_id", user.ID)

	return s.signIn(user)
}

// Login checks credentials and issues a token. Unknown emails and wrong
// passwords fail identically.
func (s *UserService) Login(ctx context.Context, req LoginRequest) (*AuthResult, error) {
	req.Email = store.NormalizeEmail(req.Email)
	if err := validate.Validate(req); err != nil {
		return nil, err
	}

	user, err := s.store.GetUserByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			auth.EqualizeTiming(req.Password)
			return nil, domainerrors.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	valid, err := auth.VerifyPassword(user.PasswordHash, req.Password)
	if err != nil {
		return nil, fmt.Errorf("verify password: %w", err)
	}
	if !valid {
		return nil, domainerrors.ErrInvalidCredentials
	}

	if auth.NeedsRehash(user.PasswordHash) {
		s.upgradeHash(ctx, user, req.Password)
	}

	s.logger.Info("user logged in", "user_id", user.ID)

	return s.signIn(user)
}

// upgradeHash replaces a legacy hash after a successful login. Failure is logged only.
func (s *UserService) upgradeHash(ctx context.Context, user *domain.User, password string) {
	hash, err := auth.HashPassword(password)
	if err != nil {
		s.logger.Warn("failed to rehash password", "user_id", user.ID, "error", err)
		return
	}

	user.PasswordHash = hash
	user.Touch(s.now())
	if err := s.store.UpdateUser(ctx, user); err != nil {
		s.logger.Warn("failed to store upgraded password hash", "user_id", user.ID, "error", err)
		return
	}
	s.logger.Info("upgraded legacy password hash", "user_id", user.ID)
}

// GetProfile returns the caller's own account.
func (s *UserService) GetProfile(ctx context.Context, userID string) (*Profile, error) {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, storeError(err, errUserNotFound, "get user")
	}
	return profileOf(user), nil
}

// UpdateProfile applies changes to the caller's own account and rotates the token.
func (s *UserService) UpdateProfile(ctx context.Context, userID string, req ProfileUpdate) (*AuthResult, error) {
	req.Email = normalizeEmailPtr(req.Email)
	if err := validate.Validate(req); err != nil {
		return nil, err
	}

	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, storeError(err, errUserNotFound, "get user")
	}

	if err := applyIdentity(user, req.Name, req.Email); err != nil {
		return nil, err
	}
	if req.Password != nil {
		hash, err := auth.HashPassword(*req.Password)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		user.PasswordHash = hash
	}

	user.Touch(s.now())
	if err := s.store.UpdateUser(ctx, user); err != nil {
		return nil, storeError(err, errUserNotFound, "update user")
	}

	s.logger.Info("profile updated", "user_id", user.ID, "password_changed", req.Password != nil)

	return s.signIn(user)
}

// ListUsers returns every account without credentials.
func (s *UserService) ListUsers(ctx context.Context) ([]domain.Public, error) {
	users, err := s.store.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}

	out := make([]domain.Public, len(users))
	for i, u := range users {
		out[i] = u.Public()
	}
	return out, nil
}

// GetUser returns one account. Admins may read any account, other users only their own.
func (s *UserService) GetUser(ctx context.Context, actor *domain.User, userID string) (*domain.Public, error) {
	if actor == nil {
		return nil, domainerrors.ErrNoToken
	}
	if !actor.IsAdmin && actor.ID != userID {
		return nil, domainerrors.ErrForbidden
	}

	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, storeError(err, errUserNotFound, "get user")
	}
	return ptr(user.Public()), nil
}

// UpdateUser lets an admin change another account. Admins cannot change
// their own admin flag this way; resubmitting the current value is allowed.
func (s *UserService) UpdateUser(ctx context.Context, actor *domain.User, userID string, req AdminUserUpdate) (*domain.Public, error) {
	if err := RequireAdmin(actor); err != nil {
		return nil, err
	}
	req.Email = normalizeEmailPtr(req.Email)
	if err := validate.Validate(req); err != nil {
		return nil, err
	}

	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, storeError(err, errUserNotFound, "get user")
	}

	if req.IsAdmin != nil && *req.IsAdmin != user.IsAdmin {
		if user.ID == actor.ID {
			return nil, domainerrors.ErrSelfAdminChangeForbidden
		}
		user.IsAdmin = *req.IsAdmin
	}
	if err := applyIdentity(user, req.Name, req.Email); err != nil {
		return nil, err
	}

	user.Touch(s.now())
	if err := s.store.UpdateUser(ctx, user); err != nil {
		return nil, storeError(err, errUserNotFound, "update user")
	}

	s.logger.Info("user updated by admin", "user_id", user.ID, "admin_id", actor.ID, "is_admin", user.IsAdmin)

	return ptr(user.Public()), nil
}

// DeleteUser lets an admin remove another account. Books listed by the user remain.
func (s *UserService) DeleteUser(ctx context.Context, actor *domain.User, userID string) error {
	if err := RequireAdmin(actor); err != nil {
		return err
	}

	if _, err := s.store.GetUser(ctx, userID); err != nil {
		return storeError(err, errUserNotFound, "get user")
	}
	if userID == actor.ID {
		return domainerrors.ErrSelfDeleteForbidden
	}

	if err := s.store.DeleteUser(ctx, userID); err != nil {
		return storeError(err, errUserNotFound, "delete user")
	}

	s.logger.Info("user deleted", "user_id", userID, "admin_id", actor.ID)
	return nil
}

// EnsureAdmin creates an administrator with the given credentials unless the
// email is already registered. It reports whether an account was created.
func (s *UserService) EnsureAdmin(ctx context.Context, name, email, password string) (bool, error) {
	email = store.NormalizeEmail(email)

	if _, err := s.store.GetUserByEmail(ctx, email); err == nil {
		return false, nil
	} else if !errors.Is(err, store.ErrNotFound) {
		return false, fmt.Errorf("lookup admin: %w", err)
	}

	req := RegisterRequest{Name: strings.TrimSpace(name), Email: email, Password: password}
	if err := validate.Validate(req); err != nil {
		return false, err
	}

	user, err := s.createUser(ctx, req.Name, req.Email, req.Password, true)
	if err != nil {
		return false, err
	}

	s.logger.Info("bootstrap admin created", "user_id", user.ID)
	return true, nil
}

// LegacyUser is an account exported from the previous deployment, with its
// bcrypt password hash.
type LegacyUser struct {
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"password"`
	IsAdmin      bool      `json:"isAdmin"`
	CreatedAt    time.Time `json:"createdAt"`
}

// ImportUser stores a legacy account as is. The hash is upgraded on first login.
func (s *UserService) ImportUser(ctx context.Context, lu LegacyUser) (*domain.Public, error) {
	email := store.NormalizeEmail(lu.Email)
	if strings.TrimSpace(lu.Name) == "" || email == "" || lu.PasswordHash == "" {
		return nil, domainerrors.Validationf("legacy user %q is incomplete", lu.Email)
	}

	userID, err := id.Generate(id.PrefixUser)
	if err != nil {
		return nil, fmt.Errorf("generate user ID: %w", err)
	}

	created := lu.CreatedAt
	if created.IsZero() {
		created = s.now()
	}

	user := &domain.User{
		Name:         strings.TrimSpace(lu.Name),
		Email:        email,
		PasswordHash: lu.PasswordHash,
		IsAdmin:      lu.IsAdmin,
	}
	user.ID = userID
	user.InitTimestamps(created)

	if err := s.store.CreateUser(ctx, user); err != nil {
		return nil, storeError(err, errUserNotFound, "create user")
	}
	return ptr(user.Public()), nil
}

func (s *UserService) createUser(ctx context.Context, name, email, password string, isAdmin bool) (*domain.User, error) {
	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	userID, err := id.Generate(id.PrefixUser)
	if err != nil {
		return nil, fmt.Errorf("generate user ID: %w", err)
	}

	user := &domain.User{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		IsAdmin:      isAdmin,
	}
	user.ID = userID
	user.InitTimestamps(s.now())

	if err := s.store.CreateUser(ctx, user); err != nil {
		return nil, storeError(err, errUserNotFound, "create user")
	}
	return user, nil
}

func (s *UserService) signIn(user *domain.User) (*AuthResult, error) {
	token, expires, err := s.auth.IssueToken(user.ID)
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: user.Public(), Token: token, ExpiresAt: expires}, nil
}

// applyIdentity sets name and email when present. Present values may not be blank.
func applyIdentity(user *domain.User, name, email *string) error {
	if name != nil {
		trimmed := strings.TrimSpace(*name)
		if trimmed == "" {
			return domainerrors.ValidationWithDetails("name is required", map[string]string{"name": "is required"})
		}
		user.Name = trimmed
	}
	if email != nil {
		normalized := store.NormalizeEmail(*email)
		if normalized == "" {
			return domainerrors.ValidationWithDetails("email is required", map[string]string{"email": "is required"})
		}
		user.Email = normalized
	}
	return nil
}

func normalizeEmailPtr(email *string) *string {
	if email == nil {
		return nil
	}
	return ptr(store.NormalizeEmail(*email))
}

func profileOf(user *domain.User) *Profile {
	return &Profile{
		ID:       user.ID,
		Name:     user.Name,
		Email:    user.Email,
		IsAdmin:  user.IsAdmin,
		JoinDate: user.CreatedAt,
	}
}
