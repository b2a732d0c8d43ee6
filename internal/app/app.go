package app

import (
	"context"
	"fmt"

	"github.com/tnahs/hlts/internal/data/db"
	"github.com/tnahs/hlts/internal/http"
	"github.com/tnahs/hlts/internal/observability"
	"github.com/tnahs/hlts/internal/platform/logger"
)

type App struct {
	Log     *logger.Logger
	Cfg     Config
	Store   *db.Service
	Clients Clients
	Metrics *observability.Metrics
	Core    *Core
	Server  *http.Server
	cancel  context.CancelFunc
}

func New(log *logger.Logger) (*App, error) {
	log.Info("Loading environment variables...")
	cfg := LoadConfig(log)

	store, clients, err := Open(log, cfg)
	if err != nil {
		return nil, err
	}
	return Assemble(log, cfg, store, clients), nil
}

// Open connects the database, migrating it when DB_AUTO_MIGRATE is set, and
// the optional redis and neo4j clients.
func Open(log *logger.Logger, cfg Config) (*db.Service, Clients, error) {
	store, err := db.NewService(log)
	if err != nil {
		return nil, Clients{}, fmt.Errorf("init db: %w", err)
	}
	if cfg.AutoMigrate {
		if err := store.AutoMigrateAll(); err != nil {
			_ = store.Close()
			return nil, Clients{}, fmt.Errorf("db automigrate: %w", err)
		}
	}
	clients, err := wireClients(log)
	if err != nil {
		_ = store.Close()
		return nil, Clients{}, err
	}
	return store, clients, nil
}

// Assemble builds the full server on an already opened store.
func Assemble(log *logger.Logger, cfg Config, store *db.Service, clients Clients) *App {
	metrics := observability.Init(log)
	core := NewCore(log, store.DB(), cfg, clients, metrics)
	handlers := wireHandlers(log, core)
	middleware := wireMiddleware(log, core)
	server := wireServer(log, cfg, metrics, handlers, middleware)
	return &App{
		Log:     log,
		Cfg:     cfg,
		Store:   store,
		Clients: clients,
		Metrics: metrics,
		Core:    core,
		Server:  server,
	}
}

// Start launches the background collectors.
func (a *App) Start() {
	if a == nil || a.cancel != nil {
		return
	}
	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel

	a.Metrics.StartDBCollector(ctx, a.Log, a.Store.DB())
	a.Metrics.StartRedisCollector(ctx, a.Log, a.Clients.Redis)
}

// Run serves HTTP until ctx is cancelled.
func (a *App) Run(ctx context.Context) error {
	if a == nil || a.Server == nil {
		return fmt.Errorf("app not initialized")
	}
	a.Start()
	addr := ":" + a.Cfg.Port
	a.Log.Info("Server listening", "addr", addr)
	return a.Server.Run(ctx, addr)
}

func (a *App) Close(ctx context.Context) {
	if a == nil {
		return
	}
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	a.Clients.Close(ctx)
	if err := a.Store.Close(); err != nil {
		a.Log.Warn("db close failed", "error", err)
	}
	a.Log.Sync()
}
