package api

import (
	"context"
	"net/http"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/bookhaven/bookhaven-server/internal/domain"
	"github.com/bookhaven/bookhaven-server/internal/http/response"
	"github.com/bookhaven/bookhaven-server/internal/service"
)

func (s *Server) registerUserRoutes() {
	huma.Register(s.api, huma.Operation{
		OperationID:   "registerUser",
		Method:        http.MethodPost,
		Path:          "/api/users/register",
		Summary:       "Register",
		Description:   "Creates a customer account, signs it in and sets the session cookie",
		Tags:          []string{"Users"},
		DefaultStatus: http.StatusCreated,
		Middlewares:   huma.Middlewares{s.rateLimited},
	}, s.handleRegister)

	huma.Register(s.api, huma.Operation{
		OperationID: "loginUser",
		Method:      http.MethodPost,
		Path:        "/api/users/login",
		Summary:     "Login",
		Description: "Checks credentials, returns a bearer token and sets the session cookie",
		Tags:        []string{"Users"},
		Middlewares: huma.Middlewares{s.rateLimited},
	}, s.handleLogin)

	huma.Register(s.api, huma.Operation{
		OperationID: "logoutUser",
		Method:      http.MethodPost,
		Path:        "/api/users/logout",
		Summary:     "Logout",
		Description: "Clears the session cookie. Bearer tokens stay valid until they expire.",
		Tags:        []string{"Users"},
	}, s.handleLogout)

	huma.Register(s.api, huma.Operation{
		OperationID: "getProfile",
		Method:      http.MethodGet,
		Path:        "/api/users/profile",
		Summary:     "Get own profile",
		Tags:        []string{"Users"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetProfile)

	huma.Register(s.api, huma.Operation{
		OperationID: "getCurrentUser",
		Method:      http.MethodGet,
		Path:        "/api/users/me",
		Summary:     "Get own profile",
		Tags:        []string{"Users"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetProfile)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateProfile",
		Method:      http.MethodPut,
		Path:        "/api/users/profile",
		Summary:     "Update own profile",
		Description: "Changes name, email or password and issues a fresh token",
		Tags:        []string{"Users"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleUpdateProfile)

	huma.Register(s.api, huma.Operation{
		OperationID: "listUsers",
		Method:      http.MethodGet,
		Path:        "/api/users",
		Summary:     "List users",
		Tags:        []string{"Users"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleListUsers)

	huma.Register(s.api, huma.Operation{
		OperationID: "getUser",
		Method:      http.MethodGet,
		Path:        "/api/users/{id}",
		Summary:     "Get user",
		Description: "Admins may read any account, other users only their own",
		Tags:        []string{"Users"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleGetUser)

	huma.Register(s.api, huma.Operation{
		OperationID: "updateUser",
		Method:      http.MethodPut,
		Path:        "/api/users/{id}",
		Summary:     "Update user",
		Tags:        []string{"Users"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleUpdateUser)

	huma.Register(s.api, huma.Operation{
		OperationID: "deleteUser",
		Method:      http.MethodDelete,
		Path:        "/api/users/{id}",
		Summary:     "Delete user",
		Description: "Removes an account. Books listed by the user are kept.",
		Tags:        []string{"Users"},
		Security:    []map[string][]string{{"bearer": {}}},
	}, s.handleDeleteUser)
}

// === DTOs ===

// RegisterInput wraps the registration request for Huma.
type RegisterInput struct {
	Body service.RegisterRequest
}

// LoginInput wraps the login request for Huma.
type LoginInput struct {
	Body service.LoginRequest
}

// AuthResponse is a signed-in user with its token.
type AuthResponse struct {
	ID      string `json:"id" doc:"User ID"`
	Name    string `json:"name" doc:"Display name"`
	Email   string `json:"email" doc:"Email address"`
	IsAdmin bool   `json:"isAdmin" doc:"Whether the user is an administrator"`
	Token   string `json:"token" doc:"PASETO bearer token"`
}

// AuthOutput wraps the auth response and session cookie for Huma.
type AuthOutput struct {
	SetCookie http.Cookie `header:"Set-Cookie"`
	Body      AuthResponse
}

// MessageOutput wraps a confirmation message for Huma.
type MessageOutput struct {
	Body response.MessageBody
}

// LogoutOutput clears the session cookie.
type LogoutOutput struct {
	SetCookie http.Cookie `header:"Set-Cookie"`
	Body      response.MessageBody
}

// ProfileOutput wraps the caller's profile for Huma.
type ProfileOutput struct {
	Body service.Profile
}

// UpdateProfileInput wraps a profile change for Huma.
type UpdateProfileInput struct {
	Body service.ProfileUpdate
}

// ProfileWithToken is the updated profile and its rotated token.
type ProfileWithToken struct {
	service.Profile
	Token string `json:"token" doc:"Fresh PASETO bearer token"`
}

// UpdateProfileOutput wraps the updated profile and session cookie for Huma.
type UpdateProfileOutput struct {
	SetCookie http.Cookie `header:"Set-Cookie"`
	Body      ProfileWithToken
}

// UserIDInput identifies a user by path.
type UserIDInput struct {
	ID string `path:"id" doc:"User ID"`
}

// UserOutput wraps a user projection for Huma.
type UserOutput struct {
	Body domain.Public
}

// UsersOutput wraps a list of users for Huma.
type UsersOutput struct {
	Body []domain.Public
}

// UpdateUserInput wraps an admin change to a user for Huma.
type UpdateUserInput struct {
	ID   string `path:"id" doc:"User ID"`
	Body service.AdminUserUpdate
}

// === Handlers ===

func (s *Server) handleRegister(ctx context.Context, input *RegisterInput) (*AuthOutput, error) {
	res, err := s.services.User.Register(ctx, input.Body)
	if err != nil {
		return nil, err
	}
	return s.authOutput(res), nil
}

func (s *Server) handleLogin(ctx context.Context, input *LoginInput) (*AuthOutput, error) {
	res, err := s.services.User.Login(ctx, input.Body)
	if err != nil {
		return nil, err
	}
	return s.authOutput(res), nil
}

func (s *Server) handleLogout(_ context.Context, _ *struct{}) (*LogoutOutput, error) {
	return &LogoutOutput{
		SetCookie: s.clearedCookie(),
		Body:      response.MessageBody{Message: msgLoggedOut},
	}, nil
}

func (s *Server) handleGetProfile(ctx context.Context, _ *struct{}) (*ProfileOutput, error) {
	user, err := s.RequireUser(ctx)
	if err != nil {
		return nil, err
	}

	profile, err := s.services.User.GetProfile(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	return &ProfileOutput{Body: *profile}, nil
}

func (s *Server) handleUpdateProfile(ctx context.Context, input *UpdateProfileInput) (*UpdateProfileOutput, error) {
	user, err := s.RequireUser(ctx)
	if err != nil {
		return nil, err
	}

	res, err := s.services.User.UpdateProfile(ctx, user.ID, input.Body)
	if err != nil {
		return nil, err
	}

	profile := service.Profile{
		ID:       res.User.ID,
		Name:     res.User.Name,
		Email:    res.User.Email,
		IsAdmin:  res.User.IsAdmin,
		JoinDate: res.User.CreatedAt,
	}

	return &UpdateProfileOutput{
		SetCookie: s.sessionCookie(res.Token, res.ExpiresAt),
		Body:      ProfileWithToken{Profile: profile, Token: res.Token},
	}, nil
}

func (s *Server) handleListUsers(ctx context.Context, _ *struct{}) (*UsersOutput, error) {
	if _, err := s.RequireAdmin(ctx); err != nil {
		return nil, err
	}

	users, err := s.services.User.ListUsers(ctx)
	if err != nil {
		return nil, err
	}
	if users == nil {
		users = []domain.Public{}
	}
	return &UsersOutput{Body: users}, nil
}

func (s *Server) handleGetUser(ctx context.Context, input *UserIDInput) (*UserOutput, error) {
	actor, err := s.RequireUser(ctx)
	if err != nil {
		return nil, err
	}

	user, err := s.services.User.GetUser(ctx, actor, input.ID)
	if err != nil {
		return nil, err
	}
	return &UserOutput{Body: *user}, nil
}

func (s *Server) handleUpdateUser(ctx context.Context, input *UpdateUserInput) (*UserOutput, error) {
	actor, err := s.RequireAdmin(ctx)
	if err != nil {
		return nil, err
	}

	user, err := s.services.User.UpdateUser(ctx, actor, input.ID, input.Body)
	if err != nil {
		return nil, err
	}
	return &UserOutput{Body: *user}, nil
}

func (s *Server) handleDeleteUser(ctx context.Context, input *UserIDInput) (*MessageOutput, error) {
	actor, err := s.RequireAdmin(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.services.User.DeleteUser(ctx, actor, input.ID); err != nil {
		return nil, err
	}
	return &MessageOutput{Body: response.MessageBody{Message: msgUserRemoved}}, nil
}

// === Helpers ===

func (s *Server) authOutput(res *service.AuthResult) *AuthOutput {
	return &AuthOutput{
		SetCookie: s.sessionCookie(res.Token, res.ExpiresAt),
		Body: AuthResponse{
			ID:      res.User.ID,
			Name:    res.User.Name,
			Email:   res.User.Email,
			IsAdmin: res.User.IsAdmin,
			Token:   res.Token,
		},
	}
}

// sessionCookie carries token for browser clients. It lives as long as the token.
func (s *Server) sessionCookie(token string, expires time.Time) http.Cookie {
	return http.Cookie{
		Name:     s.cfg.CookieName,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		MaxAge:   int(s.cfg.TokenTTL.Seconds()),
		HttpOnly: true,
		Secure:   s.cfg.CookieSecure,
		SameSite: http.SameSiteStrictMode,
	}
}

func (s *Server) clearedCookie() http.Cookie {
	return http.Cookie{
		Name:     s.cfg.CookieName,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.cfg.CookieSecure,
		SameSite: http.SameSiteStrictMode,
	}
}
