// Package server initializes and runs the gateway server: database and
// migrations, the zone/user directory, transfer services and the HTTP
// endpoint, with graceful shutdown on SIGINT/SIGTERM.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/kachery/gateway/internal/logging"
	"github.com/kachery/gateway/internal/server/admission"
	"github.com/kachery/gateway/internal/server/config"
	"github.com/kachery/gateway/internal/server/directory"
	"github.com/kachery/gateway/internal/server/httpapi"
	"github.com/kachery/gateway/internal/server/identity"
	"github.com/kachery/gateway/internal/server/locator"
	"github.com/kachery/gateway/internal/server/objectstore"
	"github.com/kachery/gateway/internal/server/repositories/repomanager"
	"github.com/kachery/gateway/internal/server/services"
)

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB
	server *httpapi.Server
}

func NewApp(c *config.Config) (*App, error) {
	logger := logging.NewJSONLogger(os.Stdout)

	db, err := sql.Open("pgx", c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	repos := repomanager.NewPostgresRepositoryManager()
	if err := repos.RunMigrations(context.Background(), db); err != nil {
		return nil, fmt.Errorf("migration error: %w", err)
	}

	dir := directory.New(db, repos, directory.Options{
		ScratchZone:  c.ScratchZone,
		AdminUserIDs: c.AdminUserIDs,
	})
	loc := locator.New(objectstore.NewS3Store())

	handlers := httpapi.NewHandlers(
		dir,
		services.NewUploadService(db, repos, loc, nil),
		services.NewDownloadService(db, repos, loc, nil),
		services.NewUsageService(db, repos),
		identity.NewGitHubOracle(c.GitHubAPIBase),
		admission.New(c.WorkTokenDifficulty),
		logger,
	)

	srv := httpapi.NewServer(c.HTTPAddr, c.ShutdownTimeout, logger, handlers)

	return &App{config: c, logger: logger, db: db, server: srv}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) Run(ctx context.Context) {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	if err := app.server.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
	}

	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, err.Error())
	}
}
