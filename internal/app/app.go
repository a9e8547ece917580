package app

import (
	"context"

	"guardpost/config"
	"guardpost/internal/controllers"
	"guardpost/internal/database"
	"guardpost/internal/events"
	"guardpost/internal/handlers/middleware"
	"guardpost/internal/jobs"
	"guardpost/internal/logger"
	"guardpost/internal/repositories"
	"guardpost/internal/services"
	"guardpost/internal/websockets"
)

type App struct {
	Database     database.DB
	Middleware   middleware.Middleware
	Websocket    *websockets.Manager
	EventBus     *events.EventBus
	Config       config.Config
	Services     services.Service
	Repositories repositories.Repository
	Controllers  controllers.Controllers
}

func New() (*App, error) {
	log := logger.New("app").Function("New")

	config, err := config.InitConfig()
	if err != nil {
		return &App{}, log.Err("failed to initialize config", err)
	}

	db, err := database.New(config)
	if err != nil {
		return &App{}, log.Err("failed to create database", err)
	}

	eventBus := events.New(db.Cache.Events, config)

	repos := repositories.New(db)

	appServices, err := services.New(db, config, eventBus)
	if err != nil {
		return &App{}, log.Err("failed to create services", err)
	}

	websocket, err := websockets.New(db, eventBus, config)
	if err != nil {
		return &App{}, log.Err("failed to create websocket manager", err)
	}

	appMiddleware := middleware.New(db, eventBus, config, repos)
	appControllers := controllers.New(appServices, repos, eventBus, config, db)

	if config.SchedulerEnabled {
		if err := jobs.RegisterAllJobs(appServices.Scheduler, config, appServices, repos, db); err != nil {
			return &App{}, log.Err("failed to register jobs", err)
		}
		if err := appServices.Scheduler.Start(context.Background()); err != nil {
			return &App{}, log.Err("failed to start scheduler", err)
		}
	}

	app := &App{
		Database:     db,
		Config:       config,
		Middleware:   appMiddleware,
		Websocket:    websocket,
		EventBus:     eventBus,
		Services:     appServices,
		Repositories: repos,
		Controllers:  appControllers,
	}

	if err := app.validate(); err != nil {
		return &App{}, log.Err("failed to validate app", err)
	}

	return app, nil
}

func (a *App) validate() error {
	log := logger.New("app").Function("validate")
	if a.Database.SQL == nil {
		return log.ErrMsg("database is nil")
	}

	if a.Config == (config.Config{}) {
		return log.ErrMsg("config is nil")
	}

	nilChecks := []any{
		a.Websocket,
		a.EventBus,
		a.Services.Transaction,
		a.Services.Scheduler,
		a.Services.Notification,
		a.Services.Clock,
		a.Repositories.Order,
		a.Repositories.Shift,
		a.Repositories.Assignment,
		a.Repositories.ShiftChangeRequest,
		a.Repositories.Notification,
		a.Repositories.User,
		a.Controllers.Order,
		a.Controllers.Shift,
		a.Controllers.Assignment,
		a.Controllers.ShiftChange,
	}

	for _, check := range nilChecks {
		if check == nil {
			return log.ErrMsg("nil check failed")
		}
	}

	return nil
}

func (a *App) Close() (err error) {
	if a.EventBus != nil {
		if closeErr := a.EventBus.Close(); closeErr != nil {
			err = closeErr
		}
	}

	if a.Services.Scheduler != nil {
		if closeErr := a.Services.Scheduler.Stop(context.Background()); closeErr != nil {
			err = closeErr
		}
	}

	if dbErr := a.Database.Close(); dbErr != nil {
		err = dbErr
	}

	return err
}
