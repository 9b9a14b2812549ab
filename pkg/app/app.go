package app

import (
	"github.com/entuziaz/csvup-server/pkg/config"
	"github.com/entuziaz/csvup-server/pkg/service/upload"
)

// App holds the wired services of the application.
type App struct {
	Deps          config.Deps
	Config        *config.App
	UploadService *upload.Service
}

func New(deps config.Deps, cfg *config.App) *App {
	if deps.Config == nil {
		deps.Config = cfg
	}
	app := &App{
		Deps:   deps,
		Config: cfg,
	}
	app.setupEventBus()
	app.UploadService = upload.NewService(deps)
	return app
}
