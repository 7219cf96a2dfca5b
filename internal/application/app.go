package application

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/agentdeck/agentdeck/internal/domain/repository"
	"github.com/agentdeck/agentdeck/internal/infrastructure/config"
	"github.com/agentdeck/agentdeck/internal/infrastructure/llm"
	"github.com/agentdeck/agentdeck/internal/infrastructure/llm/anthropic"
	"github.com/agentdeck/agentdeck/internal/infrastructure/persistence"
	httpServer "github.com/agentdeck/agentdeck/internal/interfaces/http"
	"github.com/agentdeck/agentdeck/internal/session"
	"github.com/agentdeck/agentdeck/internal/skills"
)

// App is the dependency injection container. Construction wires every
// layer; Start and Stop drive the long-running pieces.
type App struct {
	config *config.Config
	logger *zap.Logger
	db     *gorm.DB

	agentRepo     repository.AgentRepository
	skillRepo     repository.SkillRepository
	executionRepo repository.ExecutionRepository

	invoker       llm.Invoker
	skillService  *skills.Service
	skillWatcher  *skills.Watcher
	sessions      *session.Controller
	httpServer    *httpServer.Server
	watcherCancel context.CancelFunc
}

func NewApp(cfg *config.Config, logger *zap.Logger) (*App, error) {
	app := &App{
		config: cfg,
		logger: logger,
	}

	if err := app.initRepositories(); err != nil {
		return nil, fmt.Errorf("failed to init repositories: %w", err)
	}
	if err := app.initInfrastructure(); err != nil {
		return nil, fmt.Errorf("failed to init infrastructure: %w", err)
	}
	app.initInterfaces()

	return app, nil
}

func (app *App) initRepositories() error {
	app.logger.Info("Initializing repositories",
		zap.String("database", app.config.Database.Type),
	)

	db, err := persistence.NewDBConnection(&app.config.Database)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	app.db = db

	app.agentRepo = persistence.NewGormAgentRepository(db)
	app.skillRepo = persistence.NewGormSkillRepository(db)
	app.executionRepo = persistence.NewGormExecutionRepository(db)
	return nil
}

func (app *App) initInfrastructure() error {
	client := anthropic.New(anthropic.Config{
		APIKey:    app.config.Anthropic.APIKey,
		BaseURL:   app.config.Anthropic.BaseURL,
		Version:   app.config.Anthropic.Version,
		SkillBeta: app.config.Anthropic.SkillBeta,
	}, app.logger)
	app.invoker = client

	app.skillService = skills.NewService(app.skillRepo, app.agentRepo, client, app.logger)

	watcher, err := skills.NewWatcher(app.skillService, app.config.Skills.Dir, app.logger)
	if err != nil {
		return err
	}
	app.skillWatcher = watcher
	return nil
}

func (app *App) initInterfaces() {
	app.sessions = session.NewController(app.agentRepo, app.skillRepo, app.executionRepo, app.invoker, app.logger)

	app.httpServer = httpServer.NewServer(
		httpServer.Config{
			Host: app.config.Server.Host,
			Port: app.config.Server.Port,
			Mode: app.config.Server.Mode,
		},
		httpServer.Deps{
			Agents:     app.agentRepo,
			Skills:     app.skillRepo,
			Executions: app.executionRepo,
			Invoker:    app.invoker,
			SkillSvc:   app.skillService,
			Sessions:   app.sessions,
		},
		app.logger,
	)
}

// Start brings up the skills watcher and the HTTP server.
func (app *App) Start(ctx context.Context) error {
	watcherCtx, cancel := context.WithCancel(context.Background())
	app.watcherCancel = cancel
	if err := app.skillWatcher.Start(watcherCtx); err != nil {
		cancel()
		return fmt.Errorf("failed to start skills watcher: %w", err)
	}

	if err := app.httpServer.Start(ctx); err != nil {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}

	app.logger.Info("Application started",
		zap.String("host", app.config.Server.Host),
		zap.Int("port", app.config.Server.Port),
	)
	return nil
}

// Stop shuts everything down in reverse start order.
func (app *App) Stop(ctx context.Context) error {
	app.logger.Info("Stopping application")

	if err := app.httpServer.Stop(ctx); err != nil {
		app.logger.Error("Failed to stop HTTP server", zap.Error(err))
	}
	if app.watcherCancel != nil {
		app.watcherCancel()
	}
	if app.skillWatcher != nil {
		if err := app.skillWatcher.Close(); err != nil {
			app.logger.Error("Failed to close skills watcher", zap.Error(err))
		}
	}
	if app.db != nil {
		if sqlDB, err := app.db.DB(); err == nil {
			sqlDB.Close()
		}
	}

	app.logger.Info("Application stopped")
	return nil
}

// Logger exposes the process logger for interface adapters.
func (app *App) Logger() *zap.Logger {
	return app.logger
}

// SkillService exposes the skill registry for CLI commands.
func (app *App) SkillService() *skills.Service {
	return app.skillService
}
