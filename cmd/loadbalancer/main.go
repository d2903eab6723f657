// Command loadbalancer boots the adaptive load balancer: it loads the pool
// configuration, starts the background observers, wires the shared-store
// client, and serves the request path and the metrics scrape endpoint on
// their two separate ports (§6). Adapted from the teacher's
// cmd/gateway/main.go.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/sourin00/adaptive-load-balancer/internal/config"
	"github.com/sourin00/adaptive-load-balancer/internal/geoip"
	"github.com/sourin00/adaptive-load-balancer/internal/middleware"
	"github.com/sourin00/adaptive-load-balancer/internal/observer"
	"github.com/sourin00/adaptive-load-balancer/internal/pool"
	"github.com/sourin00/adaptive-load-balancer/internal/proxy"
	"github.com/sourin00/adaptive-load-balancer/internal/store"
)

var (
	version   = "dev"
	buildTime = "unknown"
	commit    = "none"
)

func main() {
	var (
		configPath  = flag.String("config", "configs/loadbalancer.yaml", "path to config file")
		showVersion = flag.Bool("version", false, "show version and exit")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("adaptive-load-balancer version=%s commit=%s buildTime=%s\n", version, commit, buildTime)
		os.Exit(0)
	}

	rawLogger, _ := zap.NewProduction()
	log := rawLogger.Sugar()
	defer log.Sync() //nolint:errcheck

	log.Infow("starting adaptive-load-balancer", "version", version, "config", *configPath)

	cfg, watcher, err := config.LoadAndWatch(*configPath, log)
	if err != nil {
		log.Fatalw("failed to load config", "err", err)
	}
	defer watcher.Close()

	p := buildPool(cfg)

	var geoLookup geoip.Lookup = geoip.Noop{}
	if cfg.GeoIP.Enabled {
		db, err := geoip.Open(cfg.GeoIP.DatabasePath, cfg.GeoIP.FallbackIP)
		if err != nil {
			log.Fatalw("failed to open geoip database", "err", err)
		}
		defer db.Close()
		geoLookup = db
	}

	var primary store.Store
	if cfg.Store.Addr != "" {
		redisStore, err := store.NewRedis(cfg.Store.Addr)
		if err != nil {
			log.Fatalw("failed to configure shared store", "err", err)
		}
		primary = redisStore
	}
	sharedStore := store.NewFallback(primary, log)

	metricsPoller := observer.NewMetricsPoller(p, time.Duration(cfg.Observe.MetricsPollSeconds)*time.Second, log)
	defer metricsPoller.Stop()

	healthProber := observer.NewHealthProber(p, time.Duration(cfg.Observe.HealthProbeSeconds)*time.Second, log)
	defer healthProber.Stop()

	lb := proxy.New(p, sharedStore, geoLookup, log)

	// Config reloads update static weights in place; pool membership and
	// order are fixed at startup (§3).
	go func() {
		for newCfg := range watcher.Updates() {
			applyReload(p, newCfg, log)
		}
	}()

	adminMux := http.NewServeMux()
	lb.RegisterAdminHandlers(adminMux)
	adminSrv := &http.Server{
		Addr:         cfg.Admin.Addr,
		Handler:      adminMux,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	mainSrv := &http.Server{
		Addr: cfg.Server.Addr,
		Handler: middleware.Chain(lb,
			middleware.Recovery(log),
			middleware.RequestID,
			middleware.Logger(log),
		),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: backendOuterBoundPadding,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		log.Infow("admin server listening", "addr", cfg.Admin.Addr)
		if err := adminSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("admin server failed", "err", err)
		}
	}()

	go func() {
		log.Infow("proxy server listening", "addr", cfg.Server.Addr)
		if err := mainSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("proxy server failed", "err", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGTERM, syscall.SIGINT)
	<-quit

	log.Infow("shutting down gracefully…")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	_ = adminSrv.Shutdown(ctx)
	if err := mainSrv.Shutdown(ctx); err != nil {
		log.Errorw("graceful shutdown failed", "err", err)
	}
	log.Infow("goodbye")
}

// backendOuterBoundPadding gives the server a write timeout comfortably
// above the 3.0s outer bound the request path enforces per upstream call.
const backendOuterBoundPadding = 10 * time.Second

func buildPool(cfg *config.Config) *pool.Pool {
	backends := make([]*pool.Backend, len(cfg.Pool))
	for i, b := range cfg.Pool {
		backends[i] = pool.NewBackend(b.Name, b.URL, b.Weight)
	}
	return pool.New(backends)
}

func applyReload(p *pool.Pool, cfg *config.Config, log *zap.SugaredLogger) {
	for _, b := range cfg.Pool {
		backend := p.FindByURL(b.URL)
		if backend == nil {
			log.Warnw("config reload: backend not in the running pool, membership is fixed at startup", "url", b.URL)
			continue
		}
		backend.SetWeight(b.Weight)
	}
	log.Infow("config reloaded, static weights applied")
}
