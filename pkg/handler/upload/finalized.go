package upload

import (
	"context"
	"log/slog"
	"time"

	"github.com/entuziaz/csvup-server/pkg/cache"
	"github.com/entuziaz/csvup-server/pkg/domain/events"
	"github.com/entuziaz/csvup-server/pkg/eventbus"
	"github.com/entuziaz/csvup-server/pkg/repository"
)

// HandleFinalized warms the history cache with the finalized record so the
// first lookup after an upload does not hit storage.
func HandleFinalized(
	uow repository.UnitOfWork,
	historyCache cache.UploadCache,
	ttl time.Duration,
	logger *slog.Logger,
) eventbus.HandlerFunc {
	if logger == nil {
		logger = slog.Default()
	}
	return func(ctx context.Context, e events.Event) error {
		log := logger.With(
			"handler", "upload.HandleFinalized",
			"event_type", e.Type(),
		)
		var evt events.UploadFinalized
		switch v := e.(type) {
		case events.UploadFinalized:
			evt = v
		case *events.UploadFinalized:
			evt = *v
		default:
			log.Error("Skipping unexpected event type", "event", e)
			return nil
		}
		log = log.With("upload_id", evt.UploadID, "status", evt.Status)

		if historyCache == nil || !evt.Status.IsTerminal() {
			return nil
		}
		uploads, err := uow.UploadRepository()
		if err != nil {
			return err
		}
		record, err := uploads.Get(ctx, evt.UploadID)
		if err != nil {
			log.Warn("Finalized upload not readable", "error", err)
			return err
		}
		if !record.Status.IsTerminal() {
			return nil
		}
		if err := historyCache.Set(ctx, record, ttl); err != nil {
			log.Warn("Failed to cache finalized upload", "error", err)
			return err
		}
		log.Debug("Finalized upload cached")
		return nil
	}
}
