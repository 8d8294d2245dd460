package api

import (
	"github.com/bookhaven/bookhaven-server/internal/search"
	"github.com/bookhaven/bookhaven-server/internal/service"
)

// Services groups the business logic used by the API server.
type Services struct {
	Auth   *service.AuthService
	User   *service.UserService
	Book   *service.BookService
	Search *search.BookIndex // optional, reported by the health check
}
