package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/bookhaven/bookhaven-server/internal/auth"
	"github.com/bookhaven/bookhaven-server/internal/config"
	"github.com/bookhaven/bookhaven-server/internal/logger"
	"github.com/bookhaven/bookhaven-server/internal/media/images"
	"github.com/bookhaven/bookhaven-server/internal/service"
)

// ProvideAuthService provides the token authentication service.
func ProvideAuthService(i do.Injector) (*service.AuthService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	tokenService := do.MustInvoke[*auth.TokenService](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewAuthService(storeHandle.Store, tokenService, log.Logger), nil
}

// ProvideUserService provides the account service.
func ProvideUserService(i do.Injector) (*service.UserService, error) {
	storeHandle := do.MustInvoke[*StoreHandle](i)
	authService := do.MustInvoke[*service.AuthService](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewUserService(storeHandle.Store, authService, log.Logger), nil
}

// ProvideBookService provides the catalog service.
func ProvideBookService(i do.Injector) (*service.BookService, error) {
	cfg := do.MustInvoke[*config.Config](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	searchHandle := do.MustInvoke[*SearchIndexHandle](i)
	storage := do.MustInvoke[*images.Storage](i)
	janitor := do.MustInvoke[*JanitorHandle](i)
	log := do.MustInvoke[*logger.Logger](i)

	return service.NewBookService(storeHandle.Store, searchHandle.BookIndex, storage, janitor.Janitor, service.CatalogOptions{
		RequireImage:     cfg.Catalog.RequireImage,
		PlaceholderImage: cfg.Catalog.PlaceholderImage,
	}, log.Logger), nil
}

// AdminBootstrap records whether startup created the configured admin account.
type AdminBootstrap struct {
	Created bool
}

// ProvideAdminBootstrap ensures the configured admin account exists.
// Nothing happens when ADMIN_EMAIL is unset.
func ProvideAdminBootstrap(i do.Injector) (*AdminBootstrap, error) {
	cfg := do.MustInvoke[*config.Config](i)
	users := do.MustInvoke[*service.UserService](i)
	log := do.MustInvoke[*logger.Logger](i)

	if cfg.Bootstrap.AdminEmail == "" {
		log.Debug("No bootstrap admin configured")
		return &AdminBootstrap{}, nil
	}

	created, err := users.EnsureAdmin(context.Background(),
		cfg.Bootstrap.AdminName, cfg.Bootstrap.AdminEmail, cfg.Bootstrap.AdminPassword)
	if err != nil {
		return nil, err
	}

	if created {
		log.Info("Bootstrap admin created", "email", cfg.Bootstrap.AdminEmail)
	}
	return &AdminBootstrap{Created: created}, nil
}
