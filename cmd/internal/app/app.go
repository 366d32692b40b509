// Package app wires the campus server runtime: config, logging, persistence, HTTP routes and metrics.
package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"campus/cmd/identity"
	"campus/cmd/internal/auth/api"
	"campus/cmd/internal/auth/session"
	"campus/cmd/internal/catalog"
	"campus/cmd/security/password"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
)

// App is the campus server runtime. It owns the database pool and the HTTP handler graph.
type App struct {
	cfg Config
	log Logger

	dbPool    *pgxpool.Pool
	dbEnabled bool

	registry *prometheus.Registry
	metrics  *HTTPMetrics

	auth    *api.Handler
	catalog *api.CatalogHandler
}

// stores groups the persistence backends chosen by newStores.
type stores struct {
	users   identity.Store
	revoked session.RevocationStore
	catalog catalog.Store
	pool    *pgxpool.Pool
}

// New constructs a fully wired App from config and logger.
//
// With an empty db.url every store is in memory and state is lost on restart.
func New(ctx context.Context, cfg Config, log Logger) (*App, error) {
	if log == nil {
		log = NewLogger(cfg.LogLevel, cfg.LogFormat)
	}

	if err := ValidateSecurityConfig(cfg); err != nil {
		return nil, err
	}

	st, err := newStores(ctx, cfg, log)
	if err != nil {
		return nil, err
	}

	a, err := build(cfg, log, st)
	if err != nil {
		if st.pool != nil {
			st.pool.Close()
		}
		return nil, err
	}
	return a, nil
}

func build(cfg Config, log Logger, st stores) (*App, error) {
	reg := newRegistry()

	hasher, err := password.FromEnv()
	if err != nil {
		return nil, fmt.Errorf("password config: %w", err)
	}

	sessCfg, err := session.LoadConfigFromEnv()
	if err != nil {
		return nil, fmt.Errorf("session config: %w", err)
	}

	sessions, err := session.NewService(sessCfg, st.users, hasher, st.revoked,
		session.WithMetrics(session.NewMetrics(reg)))
	if err != nil {
		return nil, err
	}

	apiCfg := api.Config{
		MaxBodyBytes:  cfg.MaxBodyBytes,
		PublicBaseURL: cfg.PublicBaseURL,
	}

	authHandler, err := api.NewHandler(log, apiCfg, st.users, sessions, hasher,
		api.WithEmailSender(newEmailSender(cfg, log)))
	if err != nil {
		return nil, err
	}

	catalogSvc, err := catalog.NewService(st.catalog)
	if err != nil {
		return nil, err
	}
	catalogHandler, err := api.NewCatalogHandler(log, apiCfg, catalogSvc)
	if err != nil {
		return nil, err
	}

	return &App{
		cfg:       cfg,
		log:       log,
		dbPool:    st.pool,
		dbEnabled: st.pool != nil,
		registry:  reg,
		metrics:   NewHTTPMetrics(reg),
		auth:      authHandler,
		catalog:   catalogHandler,
	}, nil
}

// newStores picks Postgres-backed persistence when db.url is set, in-memory otherwise.
func newStores(ctx context.Context, cfg Config, log Logger) (stores, error) {
	if cfg.DatabaseURL == "" {
		log.Info("db.disabled.inmemory_store")
		return stores{
			users:   identity.NewMemoryStore(),
			revoked: session.NewMemoryRevocationStore(),
			catalog: catalog.NewMemoryStore(),
		}, nil
	}

	if cfg.AutoMigrate {
		if err := migrateUp(cfg.DatabaseURL, log); err != nil {
			return stores{}, err
		}
	}

	pool, err := NewDBPool(ctx, cfg)
	if err != nil {
		return stores{}, err
	}

	log.Info("db.enabled.postgres_store")

	// The app owns the pool; store constructors only borrow it.
	users, err := identity.NewPostgresStore(pool)
	if err != nil {
		pool.Close()
		return stores{}, err
	}
	revoked, err := session.NewPostgresRevocationStore(pool, identity.DefaultSchema)
	if err != nil {
		pool.Close()
		return stores{}, err
	}
	cat, err := catalog.NewPostgresStore(pool)
	if err != nil {
		pool.Close()
		return stores{}, err
	}

	return stores{users: users, revoked: revoked, catalog: cat, pool: pool}, nil
}

func migrateUp(databaseURL string, log Logger) error {
	m, err := NewMigrator(databaseURL)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := m.Close(); cerr != nil {
			log.Warn("db.migrate.close_failed", "err", cerr)
		}
	}()

	if err := m.Up(); err != nil {
		return err
	}
	version, dirty, err := m.Version()
	if err != nil {
		return err
	}
	log.Info("db.migrate.done", "version", version, "dirty", dirty)
	return nil
}

func newEmailSender(cfg Config, log Logger) api.EmailSender {
	if cfg.SMTPHost == "" {
		log.Info("email.disabled.log_sender")
		return api.LogEmailSender{Log: log}
	}
	return api.SMTPEmailSender{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUsername,
		Password: cfg.SMTPPassword,
		From:     cfg.EmailSender,
	}
}

// Handler returns the full HTTP handler: routes wrapped in the middleware chain.
func (a *App) Handler() http.Handler {
	mux := http.NewServeMux()

	var db Pinger
	if a.dbPool != nil {
		db = poolPinger{pool: a.dbPool}
	}
	registerHTTP(mux, routes{
		log:       a.log,
		cfg:       a.cfg,
		db:        db,
		dbEnabled: a.dbEnabled,
		gatherer:  a.registry,
		auth:      a.auth,
		catalog:   a.catalog,
	})

	// Metrics sits directly on the mux so it sees the matched pattern.
	var h http.Handler = WithHTTPMetrics(mux, a.metrics)
	h = WithRequestLogging(h, a.log)
	h = WithRequestID(h)
	h = WithCORS(h, a.cfg, a.log)
	return WithSecurityHeaders(h)
}

// Close releases the database pool, if any.
func (a *App) Close() {
	if a.dbPool != nil {
		a.dbPool.Close()
	}
}

// Run starts the HTTP server and blocks until context cancellation or fatal server error.
func (a *App) Run(ctx context.Context) error {
	defer a.Close()

	srv := &http.Server{
		Addr:              a.cfg.HTTPAddr,
		Handler:           a.Handler(),
		ReadHeaderTimeout: nonZeroDuration(a.cfg.ReadHeaderTimeout, 5*time.Second),
		ReadTimeout:       nonZeroDuration(a.cfg.ReadTimeout, 15*time.Second),
		WriteTimeout:      nonZeroDuration(a.cfg.WriteTimeout, 15*time.Second),
		IdleTimeout:       nonZeroDuration(a.cfg.IdleTimeout, 60*time.Second),
		MaxHeaderBytes:    nonZeroInt(a.cfg.MaxHeaderBytes, 1<<20),
	}

	a.log.Info("server.start", "addr", a.cfg.HTTPAddr, "db_enabled", a.dbEnabled)

	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		a.log.Info("server.stop", "reason", "context_done")
	case err := <-errCh:
		a.log.Error("server.fail", "err", err)
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		a.log.Error("server.shutdown.fail", "err", err)
		return err
	}

	a.log.Info("server.stopped")
	return nil
}

func nonZeroDuration(v, def time.Duration) time.Duration {
	if v <= 0 {
		return def
	}
	return v
}

func nonZeroInt(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}
