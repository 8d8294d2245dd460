package api

import (
	"context"
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/go-chi/chi/v5"

	"github.com/bookhaven/bookhaven-server/internal/domain"
	"github.com/bookhaven/bookhaven-server/internal/http/response"
	"github.com/bookhaven/bookhaven-server/internal/service"
)

func (s *Server) registerBookRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID: "listBooks",
		Method:      http.MethodGet,
		Path:        "/api/books",
		Summary:     "List books",
		Description: "Returns every book in store order, optionally filtered by keyword and category",
		Tags:        []string{"Books"},
	}, s.handleListBooks)

	huma.Register(s.api, huma.Operation{
		OperationID: "listNewReleases",
		Method:      http.MethodGet,
		Path:        "/api/books/new-releases",
		Summary:     "New releases",
		Description: "Published books released in the last 30 days, newest first",
		Tags:        []string{"Books"},
	}, s.handleNewReleases)

	huma.Register(s.api, huma.Operation{
		OperationID: "listBestSellers",
		Method:      http.MethodGet,
		Path:        "/api/books/best-sellers",
		Summary:     "Best sellers",
		Description: "Published books by sales, highest first",
		Tags:        []string{"Books"},
	}, s.handleBestSellers)

	huma.Register(s.api, huma.Operation{
		OperationID: "getBook",
		Method:      http.MethodGet,
		Path:        "/api/books/{id}",
		Summary:     "Get book",
		Tags:        []string{"Books"},
	}, s.handleGetBook)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteBook",
		Method:      http.MethodDelete,
		Path:        "/api/books/{id}",
		Summary:     "Delete book",
		Description: "Removes a listing and its uploaded image",
		Tags:        []string{"Books"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleDeleteBook)

	// Writes take multipart forms with an optional image file.
	s.router.With(s.requireAuth, s.requireAdmin).Post("/api/books", s.handleCreateBook)
	s.router.With(s.requireAuth, s.requireAdmin).Put("/api/books/{id}", s.handleUpdateBook)
}

// === DTOs ===

// ListBooksInput contains the optional list filters.
type ListBooksInput struct {
	Keyword  string `query:"keyword" doc:"Matches title, author, category or description"`
	Category string `query:"category" doc:"Category name or slug"`
}

// BooksOutput wraps a list of books for Huma.
type BooksOutput struct {
	Body []*domain.Book
}

// BookIDInput identifies a book by path.
type BookIDInput struct {
	ID string `path:"id" doc:"Book ID"`
}

// BookOutput wraps a book for Huma.
type BookOutput struct {
	Body *domain.Book
}

// booksOutput renders an empty result as [] rather than null.
func booksOutput(books []*domain.Book) *BooksOutput {
	if books == nil {
		books = []*domain.Book{}
	}
	return &BooksOutput{Body: books}
}

// === Handlers ===

func (s *Server) handleListBooks(ctx context.Context, input *ListBooksInput) (*BooksOutput, error) {
	books, err := s.services.Book.List(ctx, service.ListFilter{
		Keyword:  input.Keyword,
		Category: input.Category,
	})
	if err != nil {
		return nil, err
	}
	return booksOutput(books), nil
}

func (s *Server) handleNewReleases(ctx context.Context, _ *struct{}) (*BooksOutput, error) {
	books, err := s.services.Book.NewReleases(ctx)
	if err != nil {
		return nil, err
	}
	return booksOutput(books), nil
}

func (s *Server) handleBestSellers(ctx context.Context, _ *struct{}) (*BooksOutput, error) {
	books, err := s.services.Book.BestSellers(ctx)
	if err != nil {
		return nil, err
	}
	return booksOutput(books), nil
}

func (s *Server) handleGetBook(ctx context.Context, input *BookIDInput) (*BookOutput, error) {
	book, err := s.services.Book.Get(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	return &BookOutput{Body: book}, nil
}

func (s *Server) handleDeleteBook(ctx context.Context, input *BookIDInput) (*MessageOutput, error) {
	if _, err := s.RequireAdmin(ctx); err != nil {
		return nil, err
	}

	if err := s.services.Book.Delete(ctx, input.ID); err != nil {
		return nil, err
	}
	return &MessageOutput{Body: response.MessageBody{Message: msgBookRemoved}}, nil
}

// handleCreateBook creates a listing from a multipart form.
// POST /api/books
func (s *Server) handleCreateBook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	user := userFromContext(ctx)

	form, err := s.parseBookForm(w, r)
	if err != nil {
		response.Error(w, err, s.logger)
		return
	}
	defer form.cleanup()

	req, err := form.createRequest()
	if err != nil {
		response.Error(w, err, s.logger)
		return
	}

	book, err := s.services.Book.Create(ctx, user.ID, req, form.image)
	if err != nil {
		response.Error(w, err, s.logger)
		return
	}

	response.Created(w, book, s.logger)
}

// handleUpdateBook applies the fields present in a multipart form.
// PUT /api/books/{id}
func (s *Server) handleUpdateBook(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	bookID := chi.URLParam(r, "id")

	form, err := s.parseBookForm(w, r)
	if err != nil {
		response.Error(w, err, s.logger)
		return
	}
	defer form.cleanup()

	patch, err := form.patch()
	if err != nil {
		response.Error(w, err, s.logger)
		return
	}

	book, err := s.services.Book.Update(ctx, bookID, patch, form.image)
	if err != nil {
		response.Error(w, err, s.logger)
		return
	}

	response.Success(w, book, s.logger)
}
