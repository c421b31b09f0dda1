package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"gorm.io/gorm"

	"sharespend/internal/config"
	"sharespend/internal/db"
	expensesdomain "sharespend/internal/domain/expenses"
	groupsdomain "sharespend/internal/domain/groups"
	profiledomain "sharespend/internal/domain/profile"
	expensesrepo "sharespend/internal/repository/postgres/expenses"
	groupsrepo "sharespend/internal/repository/postgres/groups"
	profilerepo "sharespend/internal/repository/postgres/profile"
	"sharespend/internal/session"
	"sharespend/internal/transport/httpserver"
	"sharespend/internal/transport/httpserver/handler"
	"sharespend/pkg/logger"
)

const closeTimeout = 5 * time.Second

type App struct {
	cfg        config.Config
	log        logger.Logger
	httpServer *http.Server
	db         *gorm.DB
	sessions   *session.Registry

	stopEviction context.CancelFunc
	evictionDone chan struct{}
}

func New(log logger.Logger) (*App, error) {
	log.Info("app: loading config")
	cfg, err := config.Load(log)
	if err != nil {
		return nil, err
	}

	log.Info("app: initializing database", "driver", db.Dialect(cfg.DB))
	dbConn, err := db.Open(cfg.DB, log)
	if err != nil {
		return nil, err
	}

	if err := db.Migrate(dbConn, db.Dialect(cfg.DB)); err != nil {
		_ = db.Close(dbConn)
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return build(cfg, dbConn, log), nil
}

// build wires repositories, services, the session registry and the router on
// top of an open database.
func build(cfg config.Config, dbConn *gorm.DB, log logger.Logger) *App {
	profileService := profiledomain.NewService(profilerepo.NewPostgres(dbConn))
	groupsService := groupsdomain.NewService(groupsrepo.NewPostgres(dbConn), cfg.Session.MaxGroups)
	expensesService := expensesdomain.NewService(expensesrepo.NewPostgres(dbConn))

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics := session.NewMetrics(registry)

	store := session.NewRemoteStore(profileService, groupsService, expensesService, metrics)
	sessions := session.NewRegistry(store, cfg.Session.IdleTTL, session.Options{
		AutoSaveDelay: cfg.Session.AutoSaveDelay,
		MaxGroups:     groupsService.MaxGroups(),
		Logger:        log,
		Metrics:       metrics,
	})

	log.Info("app: initializing router")
	handlers := handler.New(sessions, log)
	router := httpserver.NewRouter(cfg, handlers, profileService, registry, log)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		sessions.Run(ctx, cfg.Session.IdleTTL/2)
	}()

	return &App{
		cfg:          cfg,
		log:          log,
		httpServer:   httpserver.New(cfg, router),
		db:           dbConn,
		sessions:     sessions,
		stopEviction: cancel,
		evictionDone: done,
	}
}

func (a *App) HTTPServer() *http.Server {
	return a.httpServer
}

// Close stops idle eviction, flushes every open session and closes the
// database. Call it after the HTTP server has shut down.
func (a *App) Close() error {
	a.stopEviction()
	<-a.evictionDone

	ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
	defer cancel()
	a.sessions.Close(ctx)
	a.log.Info("app: sessions flushed")

	if a.db == nil {
		return nil
	}
	return db.Close(a.db)
}
