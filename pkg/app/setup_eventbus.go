// Package app wires services and registers event handlers on the event bus.
package app

import (
	"time"

	"github.com/entuziaz/csvup-server/pkg/domain/events"
	uploadhandler "github.com/entuziaz/csvup-server/pkg/handler/upload"
)

const defaultHistoryCacheTTL = 10 * time.Minute

// setupEventBus registers all event handlers with the event bus.
func (a *App) setupEventBus() {
	bus := a.Deps.EventBus
	if bus == nil {
		return
	}

	ttl := defaultHistoryCacheTTL
	if a.Config != nil && a.Config.HistoryCache != nil && a.Config.HistoryCache.TTL > 0 {
		ttl = a.Config.HistoryCache.TTL
	}

	if a.Deps.HistoryCache != nil {
		bus.Register(
			events.EventTypeUploadFinalized,
			uploadhandler.HandleFinalized(a.Deps.Uow, a.Deps.HistoryCache, ttl, a.Deps.Logger),
		)
	}
}
