// Package server wires the user service together: configuration, storage,
// credential hashing, token issuing and the HTTP API, and runs it until an
// OS signal arrives.
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

	"github.com/dmitrijs2005/financa/internal/logging"
	"github.com/dmitrijs2005/financa/internal/server/auth"
	"github.com/dmitrijs2005/financa/internal/server/config"
	"github.com/dmitrijs2005/financa/internal/server/credentials"
	"github.com/dmitrijs2005/financa/internal/server/httpserver"
	"github.com/dmitrijs2005/financa/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/financa/internal/server/services"
	"github.com/gin-gonic/gin"
)

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB
	server *httpserver.Server
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {

	logger := logging.NewJSONLogger(os.Stdout, slog.LevelInfo)

	db, rm, err := openStore(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, err
	}

	hasher, err := credentials.NewManager(c.PasswordCost)
	if err != nil {
		closeDB(db)
		return nil, fmt.Errorf("credentials init error: %w", err)
	}

	issuer, err := auth.NewIssuer(auth.IssuerConfig{
		SigningKey: []byte(c.SecretKey),
		Issuer:     c.Issuer,
		Audience:   c.Audience,
		TTL:        c.TokenTTL,
		Leeway:     c.TokenLeeway,
	})
	if err != nil {
		closeDB(db)
		return nil, fmt.Errorf("token issuer init error: %w", err)
	}

	us, err := services.NewUserService(db, rm, hasher, issuer, logger)
	if err != nil {
		closeDB(db)
		return nil, fmt.Errorf("user service init error: %w", err)
	}

	logger.Info(ctx, "security settings", "bcrypt_cost", hasher.Cost(), "token_ttl", c.TokenTTL.String())

	gin.SetMode(gin.ReleaseMode)
	srv := httpserver.NewServer(c.HTTPAddr, logger, us, issuer)

	return &App{config: c, logger: logger, db: db, server: srv}, nil
}

// openStore returns the in-memory manager for MemoryDSN, otherwise connects
// to PostgreSQL and brings the schema up to date.
func openStore(ctx context.Context, dsn string) (*sql.DB, repomanager.RepositoryManager, error) {
	if dsn == repomanager.MemoryDSN {
		return nil, repomanager.NewInMemoryRepositoryManager(), nil
	}

	db, err := repomanager.Open(ctx, dsn)
	if err != nil {
		return nil, nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		closeDB(db)
		return nil, nil, fmt.Errorf("migrations error: %w", err)
	}
	return db, rm, nil
}

func closeDB(db *sql.DB) {
	if db != nil {
		_ = db.Close()
	}
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

	app.logger.Info(ctx, "Starting app...", "address", app.config.HTTPAddr)

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()

	closeDB(app.db)
	app.logger.Info(context.Background(), "App stopped")
}
