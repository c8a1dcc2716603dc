package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/Simplici0/displayquote/internal/catalog"
	"github.com/Simplici0/displayquote/internal/config"
	"github.com/Simplici0/displayquote/internal/db"
	"github.com/Simplici0/displayquote/internal/logging"
	"github.com/Simplici0/displayquote/internal/metrics"
	"github.com/Simplici0/displayquote/internal/migrations"
	"github.com/Simplici0/displayquote/internal/quote"
	"github.com/Simplici0/displayquote/internal/seed"
	"github.com/Simplici0/displayquote/internal/session"
)

const (
	devSessionSecret = "displayquote-dev-secret"
	sessionMaxAge    = 24 * time.Hour
	purgeInterval    = time.Hour
	watchDebounce    = 500 * time.Millisecond
)

// catalogSource is the part of the registry the handlers use.
type catalogSource interface {
	Get(key string) (*catalog.Catalog, error)
	List() []catalog.Entry
}

type server struct {
	catalogs catalogSource
	sessions *session.Service
	engine   *quote.Engine
	cookies  *cookieSigner
	logger   *zap.Logger
}

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	flag.Parse()

	if err := run(*configPath); err != nil {
		fmt.Fprintf(os.Stderr, "displayquote: %v\n", err)
		os.Exit(1)
	}
}

func run(configPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if cfg.IsDev() {
		cfg.Log.Development = true
	}
	logger, err := logging.New(cfg.Log)
	if err != nil {
		return fmt.Errorf("create logger: %w", err)
	}
	defer logger.Sync() //nolint:errcheck

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		return err
	}
	defer database.Close()

	if err := migrations.Up(database, logger); err != nil {
		return err
	}

	if cfg.IsDev() {
		stats, err := seed.Run(seed.Config{CatalogDir: cfg.CatalogDir})
		if err != nil {
			return fmt.Errorf("seed sample catalogs: %w", err)
		}
		logger.Info("sample catalogs seeded", zap.Int("inserts", stats.Inserts), zap.Int("updates", stats.Updates))
	}

	registry := catalog.NewRegistry(cfg.CatalogDir, logger)
	if err := registry.Reload(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if cfg.WatchCatalogs {
		go func() {
			if err := registry.Watch(ctx, watchDebounce); err != nil {
				logger.Error("catalog watcher stopped", zap.Error(err))
			}
		}()
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	engine := quote.NewEngine(logger, metrics.NewRecorder(reg))

	secret := cfg.SessionSecret
	if secret == "" {
		logger.Warn("SESSION_SECRET not set, using development secret")
		secret = devSessionSecret
	}

	sessions := session.NewService(session.NewSQLStore(database), registry, engine, logger)
	go purgeSessions(ctx, sessions, logger)

	srv := &server{
		catalogs: registry,
		sessions: sessions,
		engine:   engine,
		cookies:  newCookieSigner(secret, !cfg.IsDev()),
		logger:   logger,
	}

	r := srv.routes()
	r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", httpServer.Addr), zap.String("env", cfg.Env))
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server stopped: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}

func (s *server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.logRequests)

	r.Get("/healthz", s.handleHealth)
	r.Get("/displays", s.handleDisplays)
	r.Get("/displays/*", s.handleDisplay)
	r.Post("/quote", s.handleQuote)

	r.Route("/session", func(r chi.Router) {
		r.Post("/", s.handleSessionStart)
		r.Group(func(r chi.Router) {
			r.Use(s.requireSession)
			r.Get("/", s.handleSessionGet)
			r.Delete("/", s.handleSessionEnd)
			r.Post("/display", s.handleSessionDisplay)
			r.Post("/fields", s.handleSessionField)
			r.Post("/matrix", s.handleSessionMatrix)
			r.Post("/reset", s.handleSessionReset)
		})
	})
	return r
}

func (s *server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.logger.Debug("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("request_id", middleware.GetReqID(r.Context())))
	})
}

func purgeSessions(ctx context.Context, sessions *session.Service, logger *zap.Logger) {
	ticker := time.NewTicker(purgeInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := sessions.Purge(sessionMaxAge); err != nil {
				logger.Error("purge sessions", zap.Error(err))
			}
		}
	}
}
