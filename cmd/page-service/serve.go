package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-logr/logr"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/team-pogie-react/page-service/internal/cache"
	"github.com/team-pogie-react/page-service/internal/config"
	"github.com/team-pogie-react/page-service/internal/core"
	"github.com/team-pogie-react/page-service/internal/logging"
	"github.com/team-pogie-react/page-service/internal/metrics"
	"github.com/team-pogie-react/page-service/internal/storage"
	"github.com/team-pogie-react/page-service/internal/upstream"
	"github.com/team-pogie-react/page-service/internal/web"
)

const warmTimeout = 10 * time.Second

var serveAddr string

func serveCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the page API server",
		Long: `Start the page API server.

Examples:
  page-service serve
  page-service serve --config page-service.yaml --addr :9090
  PAGESVC_BUDGET=1s page-service serve`,
		Args: cobra.NoArgs,
		RunE: runServe,
	}
	cmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (overrides server.addr)")
	return cmd
}

// app is the wired service.
type app struct {
	cfg     *config.Config
	zap     *zap.Logger
	log     logr.Logger
	metrics *metrics.Recorder
	store   *storage.SEOStore
	engine  *core.Engine
}

func newApp(cfg *config.Config) (*app, error) {
	z, log, err := logging.New(logging.Options{Level: cfg.Log.Level, Development: cfg.Log.Development})
	if err != nil {
		return nil, err
	}

	store, err := storage.NewSEOStore(cfg.SEO.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SEO store: %w", err)
	}

	rec := metrics.New()
	clients := make(map[string]*upstream.Client)
	for name, u := range cfg.Upstreams.Named() {
		clients[name] = upstream.NewClient(upstream.Options{
			Name:    name,
			BaseURL: u.BaseURL,
			Timeout: u.Timeout,
			Retries: u.Retries,
			Logger:  log,
		})
	}

	cacheOpts := cache.Options{Size: cfg.Cache.Size, TTL: cfg.Cache.TTL, Recorder: rec}
	content := upstream.NewContentClient(clients["content"])

	engine := core.NewEngine(core.EngineDeps{
		Config:      cfg.EngineConfig(),
		Logger:      log.WithName("engine"),
		Recorder:    rec,
		Metadata:    store,
		Widgets:     content,
		Breadcrumbs: content,
		Content:     content,
		Catalog:     cache.NewCatalog(upstream.NewCatalogClient(clients["catalog"]), cacheOpts),
		Vehicles:    cache.NewVehicles(upstream.NewVehicleClient(clients["vehicle"]), cacheOpts),
		Orders:      upstream.NewOrderClient(clients["order"]),
		Ratings:     upstream.NewRatingClient(clients["rating"]),
	})

	return &app{cfg: cfg, zap: z, log: log, metrics: rec, store: store, engine: engine}, nil
}

func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		a.log.Error(err, "Failed to close SEO store")
	}
	_ = a.zap.Sync()
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if serveAddr != "" {
		cfg.Server.Addr = serveAddr
	}

	a, err := newApp(cfg)
	if err != nil {
		return err
	}
	defer a.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// A cold cache is not fatal; the first requests fill it.
	warmCtx, cancelWarm := context.WithTimeout(ctx, warmTimeout)
	if err := a.engine.Warm(warmCtx); err != nil {
		a.log.Error(err, "Cache warm-up incomplete")
	}
	cancelWarm()

	server := web.NewServer(a.engine, web.Options{Logger: a.zap, Metrics: a.metrics.Handler()})
	httpServer := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      server.Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		a.log.Info("Starting page service", "addr", cfg.Server.Addr, "version", Version, "pages", a.engine.Pages())
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	a.log.Info("Shutting down", "timeout", cfg.Server.ShutdownTimeout)
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}
