package service

import (
	"bytes"
	"context"
	"crypto/rand"
	"image"
	"image/color"
	"image/png"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/bookhaven/bookhaven-server/internal/auth"
	"github.com/bookhaven/bookhaven-server/internal/domain"
	domainerrors "github.com/bookhaven/bookhaven-server/internal/errors"
	"github.com/bookhaven/bookhaven-server/internal/media/images"
	"github.com/bookhaven/bookhaven-server/internal/search"
	"github.com/bookhaven/bookhaven-server/internal/store"
)

const placeholder = "/images/sample.jpg"

type testEnv struct {
	store   *store.Store
	tokens  *auth.TokenService
	auth    *AuthService
	users   *UserService
	books   *BookService
	images  *images.Storage
	janitor *images.Janitor
	now     time.Time
}

// clock returns the environment's current test time.
func (e *testEnv) clock() time.Time {
	return e.now
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()

	st, err := store.New(t.TempDir(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	key := make([]byte, 32)
	_, err = rand.Read(key)
	require.NoError(t, err)

	env := &testEnv{
		store: st,
		now:   time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC),
	}

	env.tokens, err = auth.NewTokenService(key, 720*time.Hour)
	require.NoError(t, err)
	env.tokens.WithClock(env.clock)

	index, err := search.NewBookIndex(search.Options{InMemory: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = index.Close() })

	env.images, err = images.NewStorage(t.TempDir())
	require.NoError(t, err)
	env.janitor = images.NewJanitor(env.images, nil)

	env.auth = NewAuthService(st, env.tokens, nil)
	env.users = NewUserService(st, env.auth, nil).WithClock(env.clock)
	env.books = NewBookService(st, index, env.images, env.janitor, CatalogOptions{
		RequireImage:     true,
		PlaceholderImage: placeholder,
	}, nil).WithClock(env.clock)

	return env
}

func (e *testEnv) register(t *testing.T, name, email string) *AuthResult {
	t.Helper()
	res, err := e.users.Register(context.Background(), RegisterRequest{Name: name, Email: email, Password: "password123"})
	require.NoError(t, err)
	return res
}

func (e *testEnv) admin(t *testing.T) *domain.User {
	t.Helper()
	created, err := e.users.EnsureAdmin(context.Background(), "Admin", "admin@example.com", "adminpass123")
	require.NoError(t, err)
	require.True(t, created)

	u, err := e.store.GetUserByEmail(context.Background(), "admin@example.com")
	require.NoError(t, err)
	return u
}

func (e *testEnv) user(t *testing.T, id string) *domain.User {
	t.Helper()
	u, err := e.store.GetUser(context.Background(), id)
	require.NoError(t, err)
	return u
}

func requireCode(t *testing.T, err error, code domainerrors.Code) {
	t.Helper()
	require.Error(t, err)
	domainErr, ok := domainerrors.Lookup(err)
	require.True(t, ok, "expected domain error, got %v", err)
	require.Equal(t, code, domainErr.Code)
}

func pngUpload(t *testing.T) *ImageInput {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 20, 30))
	for y := range 30 {
		for x := range 20 {
			img.Set(x, y, color.RGBA{R: uint8(x * 10), G: uint8(y * 8), B: 90, A: 255})
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return &ImageInput{Data: buf.Bytes(), Ext: ".png"}
}
