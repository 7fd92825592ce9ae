// Package server wires the credential service together: configuration,
// logging, storage, domain services, and the HTTP API. It also owns
// graceful shutdown on OS signals.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/gezielcarvalho/ascauth/internal/logging"
	"github.com/gezielcarvalho/ascauth/internal/server/cache"
	"github.com/gezielcarvalho/ascauth/internal/server/config"
	"github.com/gezielcarvalho/ascauth/internal/server/httpapi"
	"github.com/gezielcarvalho/ascauth/internal/server/repositories/repomanager"
	"github.com/gezielcarvalho/ascauth/internal/server/services"
)

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB
	redis  *cache.Redis
	repos  repomanager.RepositoryManager
	server *httpapi.Server
}

func NewApp(cfg *config.Config) (*App, error) {

	logger := logging.NewSlogLogger(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	db, err := sql.Open("pgx", cfg.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	m := repomanager.NewPostgresRepositoryManager()
	registry := services.NewSessionRegistry(db, m)

	creds, err := services.NewCredentialService(db, m, registry, cfg)
	if err != nil {
		return nil, fmt.Errorf("credential service init error: %w", err)
	}
	tokens := services.NewTokenService(db, registry, cfg)

	// the profile cache is optional; without a redis address every lookup
	// goes straight to the database
	var profileCache cache.Cache
	var redisClient *cache.Redis
	if cfg.RedisAddr != "" {
		redisClient = cache.NewRedis(cfg.RedisAddr)
		profileCache = redisClient
	}

	srv := httpapi.NewServer(cfg.EndpointAddr, logger, creds, tokens, profileCache, db, cfg.MinPasswordLength)

	return &App{
		config: cfg,
		logger: logger,
		db:     db,
		redis:  redisClient,
		repos:  m,
		server: srv,
	}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {
	if err := app.server.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	if err := app.repos.RunMigrations(ctx, app.db); err != nil {
		app.logger.Error(ctx, "migrations failed", "error", err)
		return
	}

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	if app.redis != nil {
		if err := app.redis.Close(); err != nil {
			app.logger.Error(ctx, "closing redis", "error", err)
		}
	}
	if err := app.db.Close(); err != nil {
		app.logger.Error(ctx, "closing db", "error", err)
	}
}
