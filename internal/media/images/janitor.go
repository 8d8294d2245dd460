package images

import (
	"log/slog"
	"sync"
)

// Janitor deletes replaced or orphaned images off the request path.
// Deletion is attempted once; failures are logged.
type Janitor struct {
	storage *Storage
	logger  *slog.Logger
	wg      sync.WaitGroup
}

// NewJanitor creates a janitor deleting from storage.
func NewJanitor(storage *Storage, logger *slog.Logger) *Janitor {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Janitor{storage: storage, logger: logger}
}

// Discard schedules deletion of ref. References that are not local uploads
// are ignored.
func (j *Janitor) Discard(ref string) {
	if _, ok := j.storage.Resolve(ref); !ok {
		return
	}

	j.wg.Go(func() {
		if err := j.storage.Delete(ref); err != nil {
			j.logger.Warn("failed to delete image", "ref", ref, "error", err)
			return
		}
		j.logger.Debug("deleted image", "ref", ref)
	})
}

// Wait blocks until every scheduled deletion has finished.
func (j *Janitor) Wait() {
	j.wg.Wait()
}

// Shutdown drains pending deletions. Satisfies do.Shutdowner.
func (j *Janitor) Shutdown() error {
	j.Wait()
	return nil
}
