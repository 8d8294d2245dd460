package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bookhaven/bookhaven-server/internal/domain"
	"github.com/bookhaven/bookhaven-server/internal/media/images"
)

func titles(books []domain.Book) []string {
	out := make([]string, 0, len(books))
	for _, b := range books {
		out = append(out, b.Title)
	}
	return out
}

func TestListBooks(t *testing.T) {
	ts := setupTestServer(t)
	admin := ts.adminToken(t)

	ts.createBook(t, admin, duneFields())
	ts.createBook(t, admin, map[string]string{
		"title": "Emma", "author": "Jane Austen", "description": "A matchmaker in Highbury.", "price": "5", "countInStock": "1", "category": "Classics",
	})

	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{name: "all", query: "", want: []string{"Dune", "Emma"}},
		{name: "keyword in author", query: "?keyword=austen", want: []string{"Emma"}},
		{name: "category by slug", query: "?category=science-fiction", want: []string{"Dune"}},
		{name: "category by name", query: "?category=Classics", want: []string{"Emma"}},
		{name: "both filters", query: "?keyword=dune&category=classics", want: []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := ts.request(t, http.MethodGet, "/api/books"+tt.query, nil, "")
			require.Equal(t, http.StatusOK, w.Code, w.Body.String())
			assert.ElementsMatch(t, tt.want, titles(decode[[]domain.Book](t, w)))
		})
	}

	t.Run("empty result is an array", func(t *testing.T) {
		w := ts.request(t, http.MethodGet, "/api/books?keyword=zzz", nil, "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.JSONEq(t, `[]`, w.Body.String())
	})
}

func TestNewReleasesAndBestSellers(t *testing.T) {
	ts := setupTestServer(t)
	admin := ts.adminToken(t)

	fresh := ts.createBook(t, admin, duneFields())

	old := duneFields()
	old["title"] = "Old Classic"
	old["releaseDate"] = "2001-02-03"
	oldBook := ts.createBook(t, admin, old)
	assert.Equal(t, 2001, oldBook.ReleaseDate.Year())

	draft := duneFields()
	draft["title"] = "Draft"
	draft["isPublished"] = "false"
	ts.createBook(t, admin, draft)

	w := ts.request(t, http.MethodGet, "/api/books/new-releases", nil, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, []string{"Dune"}, titles(decode[[]domain.Book](t, w)))

	oldBook.SalesCount = 50
	require.NoError(t, ts.store.UpdateBook(context.Background(), oldBook))
	fresh.SalesCount = 10
	require.NoError(t, ts.store.UpdateBook(context.Background(), fresh))

	w = ts.request(t, http.MethodGet, "/api/books/best-sellers", nil, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, []string{"Old Classic", "Dune"}, titles(decode[[]domain.Book](t, w)))
}

func TestCreateBook(t *testing.T) {
	ts := setupTestServer(t)
	admin := ts.adminToken(t)

	book := ts.createBook(t, admin, duneFields())
	assert.NotEmpty(t, book.ID)
	assert.True(t, strings.HasPrefix(book.Image, images.PublicPrefix))
	assert.NotEmpty(t, book.ImageBlurHash)
	assert.True(t, book.IsPublished)
	assert.Zero(t, book.SalesCount)
	assert.True(t, ts.storage.Exists(book.Image))
}

func TestCreateBook_ImageURL(t *testing.T) {
	ts := setupTestServer(t)
	admin := ts.adminToken(t)

	fields := duneFields()
	fields["imageUrl"] = "https://covers.example.com/dune.jpg"
	w := ts.sendBookForm(t, http.MethodPost, "/api/books", fields, nil, admin)

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "https://covers.example.com/dune.jpg", decode[domain.Book](t, w).Image)
}

func TestCreateBook_URLEncoded(t *testing.T) {
	ts := setupTestServer(t)
	admin := ts.adminToken(t)

	form := url.Values{}
	for k, v := range duneFields() {
		form.Set(k, v)
	}
	form.Set("imageUrl", "https://covers.example.com/dune.jpg")

	req := httptest.NewRequest(http.MethodPost, "/api/books", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", "Bearer "+admin)
	w := httptest.NewRecorder()
	ts.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "Dune", decode[domain.Book](t, w).Title)
}

func TestCreateBook_Errors(t *testing.T) {
	ts := setupTestServer(t)
	admin := ts.adminToken(t)
	customer := ts.register(t, "Carol", "carol@example.com")

	with := func(key, value string) map[string]string {
		f := duneFields()
		f[key] = value
		return f
	}
	without := func(key string) map[string]string {
		f := duneFields()
		delete(f, key)
		return f
	}

	tests := []struct {
		name   string
		fields map[string]string
		image  []byte
		token  string
		status int
		code   string
	}{
		{name: "no token", fields: duneFields(), image: testPNG(t), status: http.StatusUnauthorized, code: "NO_TOKEN"},
		{name: "customer", fields: duneFields(), image: testPNG(t), token: customer.Token, status: http.StatusForbidden, code: "ADMIN_REQUIRED"},
		{name: "no image", fields: duneFields(), token: admin, status: http.StatusBadRequest, code: "MISSING_IMAGE"},
		{name: "not an image", fields: duneFields(), image: []byte("plain text, not a png"), token: admin, status: http.StatusBadRequest, code: "INVALID_IMAGE"},
		{name: "price not a number", fields: with("price", "cheap"), image: testPNG(t), token: admin, status: http.StatusBadRequest, code: "VALIDATION"},
		{name: "price missing", fields: without("price"), image: testPNG(t), token: admin, status: http.StatusBadRequest, code: "VALIDATION"},
		{name: "negative stock", fields: with("countInStock", "-1"), image: testPNG(t), token: admin, status: http.StatusBadRequest, code: "VALIDATION"},
		{name: "bad release date", fields: with("releaseDate", "next tuesday"), image: testPNG(t), token: admin, status: http.StatusBadRequest, code: "VALIDATION"},
		{name: "blank title", fields: with("title", "  "), image: testPNG(t), token: admin, status: http.StatusBadRequest, code: "VALIDATION"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := ts.sendBookForm(t, http.MethodPost, "/api/books", tt.fields, tt.image, tt.token)
			body := errorBody(t, w, tt.status)
			assert.Equal(t, tt.code, body["code"])
		})
	}

	w := ts.request(t, http.MethodGet, "/api/books", nil, "")
	assert.JSONEq(t, `[]`, w.Body.String(), "rejected writes must not create books")
}

func TestCreateBook_FieldDetails(t *testing.T) {
	ts := setupTestServer(t)
	admin := ts.adminToken(t)

	fields := duneFields()
	fields["price"] = "cheap"
	w := ts.sendBookForm(t, http.MethodPost, "/api/books", fields, testPNG(t), admin)

	body := errorBody(t, w, http.StatusBadRequest)
	assert.Equal(t, map[string]any{"price": "must be a number"}, body["details"])
}

func TestCreateBook_ImageTooLarge(t *testing.T) {
	ts := setupTestServerWithConfig(t, Config{Upload: images.Policy{MaxBytes: 32}})
	admin := ts.adminToken(t)

	w := ts.sendBookForm(t, http.MethodPost, "/api/books", duneFields(), testPNG(t), admin)

	assert.Equal(t, "INVALID_IMAGE", errorBody(t, w, http.StatusBadRequest)["code"])
}

func TestUpdateBook(t *testing.T) {
	ts := setupTestServer(t)
	admin := ts.adminToken(t)
	book := ts.createBook(t, admin, duneFields())

	t.Run("only sent fields change", func(t *testing.T) {
		w := ts.sendBookForm(t, http.MethodPut, "/api/books/"+book.ID, map[string]string{
			"price":       "12.5",
			"isPublished": "false",
		}, nil, admin)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		got := decode[domain.Book](t, w)
		assert.InDelta(t, 12.5, got.Price, 0.0001)
		assert.False(t, got.IsPublished)
		assert.Equal(t, 3, got.CountInStock)
		assert.Equal(t, "Frank Herbert", got.Author)
		assert.Equal(t, book.Image, got.Image)
	})

	t.Run("new image replaces old file", func(t *testing.T) {
		w := ts.sendBookForm(t, http.MethodPut, "/api/books/"+book.ID, nil, testPNG(t), admin)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		got := decode[domain.Book](t, w)
		assert.NotEqual(t, book.Image, got.Image)
		assert.True(t, ts.storage.Exists(got.Image))

		ts.janitor.Wait()
		assert.False(t, ts.storage.Exists(book.Image))
	})

	t.Run("invalid value leaves book untouched", func(t *testing.T) {
		w := ts.sendBookForm(t, http.MethodPut, "/api/books/"+book.ID, map[string]string{
			"countInStock": "lots",
		}, nil, admin)
		assert.Equal(t, "VALIDATION", errorBody(t, w, http.StatusBadRequest)["code"])

		got := decode[domain.Book](t, ts.request(t, http.MethodGet, "/api/books/"+book.ID, nil, ""))
		assert.Equal(t, 3, got.CountInStock)
	})

	t.Run("missing book", func(t *testing.T) {
		w := ts.sendBookForm(t, http.MethodPut, "/api/books/nope", map[string]string{"price": "1"}, nil, admin)
		assert.Equal(t, "NOT_FOUND", errorBody(t, w, http.StatusNotFound)["code"])
	})
}

func TestDeleteBook(t *testing.T) {
	ts := setupTestServer(t)
	admin := ts.adminToken(t)
	customer := ts.register(t, "Carol", "carol@example.com")
	book := ts.createBook(t, admin, duneFields())

	w := ts.request(t, http.MethodDelete, "/api/books/"+book.ID, nil, customer.Token)
	assert.Equal(t, "ADMIN_REQUIRED", errorBody(t, w, http.StatusForbidden)["code"])

	w = ts.request(t, http.MethodDelete, "/api/books/"+book.ID, nil, "")
	assert.Equal(t, "NO_TOKEN", errorBody(t, w, http.StatusUnauthorized)["code"])

	w = ts.request(t, http.MethodDelete, "/api/books/"+book.ID, nil, admin)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	ts.janitor.Wait()
	assert.False(t, ts.storage.Exists(book.Image))

	w = ts.request(t, http.MethodDelete, "/api/books/"+book.ID, nil, admin)
	assert.Equal(t, http.StatusNotFound, w.Code)
}
