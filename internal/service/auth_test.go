package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookhaven/bookhaven-server/internal/domain"
	domainerrors "github.com/bookhaven/bookhaven-server/internal/errors"
)

func TestAuthService_Authenticate(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	res := env.register(t, "Alice", "alice@example.com")

	user, err := env.auth.Authenticate(ctx, res.Token)
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, user.ID)
	assert.Empty(t, user.PasswordHash)
}

func TestAuthService_Authenticate_Failures(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	res := env.register(t, "Alice", "alice@example.com")

	t.Run("no token", func(t *testing.T) {
		_, err := env.auth.Authenticate(ctx, "")
		requireCode(t, err, domainerrors.CodeNoToken)
	})

	t.Run("garbage", func(t *testing.T) {
		_, err := env.auth.Authenticate(ctx, "v4.local.garbage")
		requireCode(t, err, domainerrors.CodeInvalidToken)
	})

	t.Run("expired", func(t *testing.T) {
		saved := env.now
		t.Cleanup(func() { env.now = saved })
		env.now = env.now.Add(721 * time.Hour)

		_, err := env.auth.Authenticate(ctx, res.Token)
		requireCode(t, err, domainerrors.CodeTokenExpired)

		domainErr, _ := domainerrors.Lookup(err)
		assert.True(t, domainErr.ShouldLogout)
	})

	t.Run("deleted user", func(t *testing.T) {
		require.NoError(t, env.store.DeleteUser(ctx, res.User.ID))

		_, err := env.auth.Authenticate(ctx, res.Token)
		requireCode(t, err, domainerrors.CodeUserNotFound)

		domainErr, _ := domainerrors.Lookup(err)
		assert.True(t, domainErr.ShouldLogout)
		assert.Equal(t, 401, domainErr.HTTPStatus())
	})
}

func TestRequireAdmin(t *testing.T) {
	requireCode(t, RequireAdmin(nil), domainerrors.CodeAdminRequired)
	requireCode(t, RequireAdmin(&domain.User{}), domainerrors.CodeAdminRequired)
	assert.NoError(t, RequireAdmin(&domain.User{IsAdmin: true}))
}
