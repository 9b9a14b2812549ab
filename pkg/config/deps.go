package config

import (
	"log/slog"

	"github.com/entuziaz/csvup-server/pkg/cache"
	"github.com/entuziaz/csvup-server/pkg/eventbus"
	"github.com/entuziaz/csvup-server/pkg/repository"
)

// Deps holds all infrastructure dependencies for building the app and services.
type Deps struct {
	Uow          repository.UnitOfWork
	HistoryCache cache.UploadCache
	EventBus     eventbus.Bus
	Logger       *slog.Logger
	Config       *App
}
