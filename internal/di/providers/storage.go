package providers

import (
	"fmt"

	"github.com/samber/do/v2"

	"github.com/bookhaven/bookhaven-server/internal/config"
	"github.com/bookhaven/bookhaven-server/internal/logger"
	"github.com/bookhaven/bookhaven-server/internal/media/images"
)

// ProvideImageStorage provides the book image storage.
func ProvideImageStorage(i do.Injector) (*images.Storage, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	storage, err := images.NewStorage(cfg.Uploads.Root)
	if err != nil {
		return nil, fmt.Errorf("image storage: %w", err)
	}

	log.Info("Image storage initialized",
		"root", storage.Root(),
		"max_bytes", cfg.Uploads.MaxBytes,
		"allow_gif", cfg.Uploads.AllowGIF,
	)

	return storage, nil
}

// JanitorHandle wraps the image janitor with shutdown capability.
type JanitorHandle struct {
	*images.Janitor
}

// Shutdown implements do.Shutdownable. Pending deletions finish first.
func (h *JanitorHandle) Shutdown() error {
	return h.Janitor.Shutdown()
}

// ProvideImageJanitor provides the background remover of replaced images.
func ProvideImageJanitor(i do.Injector) (*JanitorHandle, error) {
	storage := do.MustInvoke[*images.Storage](i)
	log := do.MustInvoke[*logger.Logger](i)

	return &JanitorHandle{Janitor: images.NewJanitor(storage, log.Logger)}, nil
}
