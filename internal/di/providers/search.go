package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/bookhaven/bookhaven-server/internal/config"
	"github.com/bookhaven/bookhaven-server/internal/logger"
	"github.com/bookhaven/bookhaven-server/internal/search"
	"github.com/bookhaven/bookhaven-server/internal/service"
)

// SearchIndexHandle wraps the search index with shutdown capability.
type SearchIndexHandle struct {
	*search.BookIndex
}

// Shutdown implements do.Shutdownable.
func (h *SearchIndexHandle) Shutdown() error {
	return h.Close()
}

// ProvideSearchIndex provides the Bleve book index.
func ProvideSearchIndex(i do.Injector) (*SearchIndexHandle, error) {
	cfg := do.MustInvoke[*config.Config](i)
	log := do.MustInvoke[*logger.Logger](i)

	index, err := search.NewBookIndex(search.Options{
		DataPath: cfg.Storage.DataPath,
		Logger:   log.Logger,
	})
	if err != nil {
		return nil, err
	}

	docCount, _ := index.DocumentCount()
	log.Info("Search index initialized", "documents", docCount)

	return &SearchIndexHandle{BookIndex: index}, nil
}

// RebuildSearchIndex refills the index from the store. The store is the
// source of truth, so an index that missed writes before a crash catches up here.
func RebuildSearchIndex(i do.Injector) {
	log := do.MustInvoke[*logger.Logger](i)
	books := do.MustInvoke[*service.BookService](i)

	if err := books.RebuildIndex(context.Background()); err != nil {
		log.Error("Failed to rebuild search index", "error", err)
		return
	}

	handle := do.MustInvoke[*SearchIndexHandle](i)
	docCount, _ := handle.DocumentCount()
	log.Info("Search index rebuilt", "documents", docCount)
}
