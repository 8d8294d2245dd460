package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/bookhaven/bookhaven-server/internal/auth"
	domainerrors "github.com/bookhaven/bookhaven-server/internal/errors"
)

func TestUserService_Register(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	res, err := env.users.Register(ctx, RegisterRequest{Name: " Alice ", Email: " Alice@Example.com", Password: "password123"})
	require.NoError(t, err)

	assert.NotEmpty(t, res.Token)
	assert.Equal(t, "Alice", res.User.Name)
	assert.Equal(t, "alice@example.com", res.User.Email)
	assert.False(t, res.User.IsAdmin)
	assert.Equal(t, env.now.Add(720*time.Hour), res.ExpiresAt)

	stored := env.user(t, res.User.ID)
	assert.NotEqual(t, "password123", stored.PasswordHash)
	assert.Equal(t, env.now, stored.CreatedAt)
}

func TestUserService_Register_Failures(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	env.register(t, "Alice", "alice@example.com")

	tests := []struct {
		name string
		req  RegisterRequest
		code domainerrors.Code
	}{
		{"duplicate email any case", RegisterRequest{Name: "A", Email: "ALICE@example.com", Password: "password123"}, domainerrors.CodeEmailTaken},
		{"missing name", RegisterRequest{Email: "b@example.com", Password: "password123"}, domainerrors.CodeValidation},
		{"bad email", RegisterRequest{Name: "B", Email: "nope", Password: "password123"}, domainerrors.CodeValidation},
		{"short password", RegisterRequest{Name: "B", Email: "b@example.com", Password: "short"}, domainerrors.CodeValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.users.Register(ctx, tt.req)
			requireCode(t, err, tt.code)
		})
	}
}

func TestUserService_Login(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	reg := env.register(t, "Alice", "alice@example.com")

	res, err := env.users.Login(ctx, LoginRequest{Email: "ALICE@example.com", Password: "password123"})
	require.NoError(t, err)
	assert.Equal(t, reg.User.ID, res.User.ID)
	assert.NotEmpty(t, res.Token)

	_, err = env.users.Login(ctx, LoginRequest{Email: "alice@example.com", Password: "wrongpassword"})
	requireCode(t, err, domainerrors.CodeInvalidCredentials)

	_, err = env.users.Login(ctx, LoginRequest{Email: "nobody@example.com", Password: "password123"})
	requireCode(t, err, domainerrors.CodeInvalidCredentials)
}

func TestUserService_Login_UpgradesLegacyHash(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	legacy, err := bcrypt.GenerateFromPassword([]byte("legacypass"), bcrypt.MinCost)
	require.NoError(t, err)

	imported, err := env.users.ImportUser(ctx, LegacyUser{
		Name:         "Old Customer",
		Email:        "old@example.com",
		PasswordHash: string(legacy),
	})
	require.NoError(t, err)

	_, err = env.users.Login(ctx, LoginRequest{Email: "old@example.com", Password: "legacypass"})
	require.NoError(t, err)

	stored := env.user(t, imported.ID)
	assert.False(t, auth.NeedsRehash(stored.PasswordHash))

	// The upgraded hash still verifies.
	_, err = env.users.Login(ctx, LoginRequest{Email: "old@example.com", Password: "legacypass"})
	require.NoError(t, err)
}

func TestUserService_Profile(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	reg := env.register(t, "Alice", "alice@example.com")

	profile, err := env.users.GetProfile(ctx, reg.User.ID)
	require.NoError(t, err)
	assert.Equal(t, "Alice", profile.Name)
	assert.Equal(t, env.now, profile.JoinDate)

	_, err = env.users.GetProfile(ctx, "user-missing")
	requireCode(t, err, domainerrors.CodeNotFound)
}

func TestUserService_UpdateProfile(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	reg := env.register(t, "Alice", "alice@example.com")
	env.register(t, "Bob", "bob@example.com")

	env.now = env.now.Add(time.Minute)
	res, err := env.users.UpdateProfile(ctx, reg.User.ID, ProfileUpdate{
		Name:     ptr("Alice Smith"),
		Password: ptr("newpassword1"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Alice Smith", res.User.Name)
	assert.Equal(t, "alice@example.com", res.User.Email)
	assert.NotEqual(t, reg.Token, res.Token)

	_, err = env.users.Login(ctx, LoginRequest{Email: "alice@example.com", Password: "newpassword1"})
	require.NoError(t, err)

	_, err = env.users.UpdateProfile(ctx, reg.User.ID, ProfileUpdate{Email: ptr("BOB@example.com")})
	requireCode(t, err, domainerrors.CodeEmailTaken)

	_, err = env.users.UpdateProfile(ctx, reg.User.ID, ProfileUpdate{Name: ptr("   ")})
	requireCode(t, err, domainerrors.CodeValidation)

	_, err = env.users.UpdateProfile(ctx, reg.User.ID, ProfileUpdate{Password: ptr("short")})
	requireCode(t, err, domainerrors.CodeValidation)
}

func TestUserService_GetUser(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	admin := env.admin(t)
	alice := env.user(t, env.register(t, "Alice", "alice@example.com").User.ID)
	bob := env.user(t, env.register(t, "Bob", "bob@example.com").User.ID)

	got, err := env.users.GetUser(ctx, admin, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "Alice", got.Name)

	got, err = env.users.GetUser(ctx, alice, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, alice.ID, got.ID)

	_, err = env.users.GetUser(ctx, bob, alice.ID)
	requireCode(t, err, domainerrors.CodeForbidden)
	assert.ErrorIs(t, err, domainerrors.ErrForbidden)

	_, err = env.users.GetUser(ctx, nil, alice.ID)
	requireCode(t, err, domainerrors.CodeNoToken)

	_, err = env.users.GetUser(ctx, admin, "user-missing")
	requireCode(t, err, domainerrors.CodeNotFound)
}

func TestUserService_ListUsers(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	env.admin(t)
	env.now = env.now.Add(time.Second)
	env.register(t, "Alice", "alice@example.com")

	users, err := env.users.ListUsers(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)
	assert.Equal(t, "Admin", users[0].Name)
	assert.Equal(t, "Alice", users[1].Name)
}

func TestUserService_UpdateUser(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	admin := env.admin(t)
	alice := env.user(t, env.register(t, "Alice", "alice@example.com").User.ID)

	t.Run("promote another user", func(t *testing.T) {
		got, err := env.users.UpdateUser(ctx, admin, alice.ID, AdminUserUpdate{IsAdmin: ptr(true)})
		require.NoError(t, err)
		assert.True(t, got.IsAdmin)
	})

	t.Run("demote another user with explicit false", func(t *testing.T) {
		got, err := env.users.UpdateUser(ctx, admin, alice.ID, AdminUserUpdate{IsAdmin: ptr(false)})
		require.NoError(t, err)
		assert.False(t, got.IsAdmin)
	})

	t.Run("own flag change rejected", func(t *testing.T) {
		_, err := env.users.UpdateUser(ctx, admin, admin.ID, AdminUserUpdate{IsAdmin: ptr(false)})
		requireCode(t, err, domainerrors.CodeSelfAdminChangeForbidden)
		assert.True(t, env.user(t, admin.ID).IsAdmin)
	})

	t.Run("own flag unchanged is a no-op", func(t *testing.T) {
		got, err := env.users.UpdateUser(ctx, admin, admin.ID, AdminUserUpdate{IsAdmin: ptr(true), Name: ptr("Root")})
		require.NoError(t, err)
		assert.Equal(t, "Root", got.Name)
		assert.True(t, got.IsAdmin)
	})

	t.Run("non-admin actor", func(t *testing.T) {
		_, err := env.users.UpdateUser(ctx, alice, admin.ID, AdminUserUpdate{Name: ptr("x")})
		requireCode(t, err, domainerrors.CodeAdminRequired)
	})

	t.Run("missing user", func(t *testing.T) {
		_, err := env.users.UpdateUser(ctx, admin, "user-missing", AdminUserUpdate{Name: ptr("x")})
		requireCode(t, err, domainerrors.CodeNotFound)
	})
}

func TestUserService_DeleteUser(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	admin := env.admin(t)
	alice := env.register(t, "Alice", "alice@example.com")

	err := env.users.DeleteUser(ctx, admin, admin.ID)
	requireCode(t, err, domainerrors.CodeSelfDeleteForbidden)

	require.NoError(t, env.users.DeleteUser(ctx, admin, alice.User.ID))

	err = env.users.DeleteUser(ctx, admin, alice.User.ID)
	requireCode(t, err, domainerrors.CodeNotFound)

	_, err = env.auth.Authenticate(ctx, alice.Token)
	requireCode(t, err, domainerrors.CodeUserNotFound)
}

func TestUserService_EnsureAdmin_Idempotent(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	env.admin(t)

	created, err := env.users.EnsureAdmin(ctx, "Admin", "ADMIN@example.com", "whatever123")
	require.NoError(t, err)
	assert.False(t, created)
}
