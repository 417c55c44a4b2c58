package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/kailas-cloud/gplcatalog/internal/config"
	"github.com/kailas-cloud/gplcatalog/internal/db"
	dbBolt "github.com/kailas-cloud/gplcatalog/internal/db/bolt"
	dbFile "github.com/kailas-cloud/gplcatalog/internal/db/file"
	dbRedis "github.com/kailas-cloud/gplcatalog/internal/db/redis"
	"github.com/kailas-cloud/gplcatalog/internal/domain/product"
	logpkg "github.com/kailas-cloud/gplcatalog/internal/logger"
	"github.com/kailas-cloud/gplcatalog/internal/metrics"
	"github.com/kailas-cloud/gplcatalog/internal/repository/partition"
	"github.com/kailas-cloud/gplcatalog/internal/repository/searchcache"
	chiTransport "github.com/kailas-cloud/gplcatalog/internal/transport/chi"
	"github.com/kailas-cloud/gplcatalog/internal/transport/linkproxy"
	"github.com/kailas-cloud/gplcatalog/internal/transport/woocommerce"
	cataloguc "github.com/kailas-cloud/gplcatalog/internal/usecase/catalog"
	healthuc "github.com/kailas-cloud/gplcatalog/internal/usecase/health"
	searchuc "github.com/kailas-cloud/gplcatalog/internal/usecase/search"
	"github.com/kailas-cloud/gplcatalog/internal/usecase/syncer"
	"github.com/kailas-cloud/gplcatalog/internal/version"
)

const boltFileName = "gplcatalog.db"

func main() {
	// Load configuration based on ENV
	env := config.GetEnv()

	cfg, err := config.Load(env)
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	logger, err := logpkg.NewLogger(env, cfg.Logging.Level)
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	defer func() { _ = logger.Sync() }()

	logger.Info("Starting gplcatalog API server",
		zap.String("version", version.String()),
		zap.String("env", env),
		zap.Int("http_port", cfg.HTTP.Port),
		zap.String("storage_driver", cfg.Storage.Driver),
		zap.String("upstream", cfg.Upstream.BaseURL),
	)

	store, err := openStore(cfg.Storage)
	if err != nil {
		logger.Fatal("Failed to open storage", zap.Error(err))
	}
	defer store.Close()

	ctx, stop := context.WithCancel(context.Background())
	defer stop()

	if err := store.WaitForReady(ctx, time.Duration(cfg.Storage.ReadinessTimeout)*time.Second); err != nil {
		logger.Fatal("Storage not ready", zap.Error(err))
	}
	logger.Info("Connected to storage")

	engine, err := metrics.NewEngine(prometheus.DefaultRegisterer)
	if err != nil {
		logger.Fatal("Failed to register metrics", zap.Error(err))
	}
	httpMetrics, err := metrics.NewHTTP(prometheus.DefaultRegisterer)
	if err != nil {
		logger.Fatal("Failed to register HTTP metrics", zap.Error(err))
	}

	// Partition stores: restore the last persisted catalog before serving.
	parts := partition.NewSet(store)
	if err := parts.Load(ctx); err != nil {
		logger.Fatal("Failed to load catalog", zap.Error(err))
	}
	view := parts.View()
	for _, p := range product.Partitions {
		engine.PartitionSize(p.String(), view.Partition(p).Len())
	}
	logger.Info("Catalog loaded",
		zap.Int("all", view.Partition(product.PartitionAll).Len()),
		zap.Int("themes", view.Partition(product.PartitionThemes).Len()),
		zap.Int("plugins", view.Partition(product.PartitionPlugins).Len()),
	)

	// Search: bleve index behind an LRU keyed by snapshot generation.
	index, err := searchuc.New(searchuc.Config{
		Limit:     cfg.Search.Limit,
		Fuzziness: cfg.Search.Fuzziness,
	})
	if err != nil {
		logger.Fatal("Invalid search config", zap.Error(err))
	}
	searcher, err := searchcache.New(index, cfg.Search.CacheSize, engine.SearchCacheTotal(), logger)
	if err != nil {
		logger.Fatal("Failed to create search cache", zap.Error(err))
	}

	userAgent := cfg.Upstream.UserAgent
	if userAgent == "" {
		userAgent = version.UserAgent()
	}
	wc, err := woocommerce.New(woocommerce.Config{
		BaseURL:        cfg.Upstream.BaseURL,
		ConsumerKey:    cfg.Upstream.ConsumerKey,
		ConsumerSecret: cfg.Upstream.ConsumerSecret,
		UserAgent:      userAgent,
		Timeout:        cfg.Upstream.PageTimeout(),
	})
	if err != nil {
		logger.Fatal("Invalid upstream config", zap.Error(err))
	}

	// Pass nil interfaces (not typed nil pointers) when the link endpoint is not configured.
	var (
		authorizer cataloguc.LinkAuthorizer
		downloads  cataloguc.DownloadResolver
	)
	if cfg.Link.EndpointURL != "" {
		lp, err := linkproxy.New(linkproxy.Config{
			EndpointURL: cfg.Link.EndpointURL,
			Timeout:     time.Duration(cfg.Link.TimeoutSec) * time.Second,
		})
		if err != nil {
			logger.Fatal("Invalid link config", zap.Error(err))
		}
		authorizer, downloads = lp, wc
	} else {
		logger.Warn("link.endpoint_url is empty, POST /link is disabled")
	}

	catalogSvc := cataloguc.New(parts, searcher, authorizer, downloads)

	syncSvc := syncer.New(
		wc,
		parts,
		product.NewClassifier(cfg.Sync.ThemeMarker, cfg.Sync.PluginMarker),
		syncer.Config{
			PerPage:     cfg.Upstream.PerPage,
			PageDelay:   cfg.Upstream.PageDelay(),
			PageTimeout: cfg.Upstream.PageTimeout(),
		},
		engine,
		logger,
	)
	scheduler := syncer.NewScheduler(syncSvc, cfg.Sync.Interval(), cfg.Sync.StartupRun(), logger)

	schedulerDone := make(chan struct{})
	go func() {
		defer close(schedulerDone)
		scheduler.Run(ctx)
	}()

	healthSvc := healthuc.New(store, syncSvc)

	server := chiTransport.NewServer(catalogSvc, syncSvc, scheduler, healthSvc, logger)

	r := chi.NewRouter()
	r.Use(jsonRecoverer(logger))
	r.Use(chiMiddleware.RequestID)
	r.Use(wideEventMiddleware(logger))
	r.Use(chiTransport.BearerAuthMiddleware(cfg.Auth.AdminKeys))
	r.Use(httpMetrics.Middleware())
	chiTransport.HandlerWithOptions(server, chiTransport.ChiServerOptions{
		BaseRouter: r,
		ErrorHandlerFunc: func(w http.ResponseWriter, _ *http.Request, err error) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusBadRequest)
			_ = json.NewEncoder(w).Encode(chiTransport.ErrorResponse{Error: err.Error()})
		},
	})

	addr := fmt.Sprintf(":%d", cfg.HTTP.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  time.Duration(cfg.HTTP.ReadTimeoutSec) * time.Second,
		WriteTimeout: time.Duration(cfg.HTTP.WriteTimeoutSec) * time.Second,
	}

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Starting HTTP server", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("HTTP server error", zap.Error(err))
		}
	}()

	<-quit
	logger.Info("Received shutdown signal")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownSec)*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("Error during shutdown", zap.Error(err))
	}

	// An in-flight cycle is abandoned; its partial batch is never published.
	stop()
	select {
	case <-schedulerDone:
	case <-shutdownCtx.Done():
		logger.Warn("Scheduler did not stop before shutdown deadline")
	}

	logger.Info("Server stopped gracefully")
}

// openStore builds the persistence backend for the configured driver.
// valkey speaks the Redis protocol and shares the rueidis backend.
func openStore(cfg config.StorageConfig) (db.Store, error) {
	switch cfg.Driver {
	case config.DriverFile:
		return dbFile.NewStore(dbFile.Config{Dir: cfg.Dir})
	case config.DriverBolt:
		return dbBolt.NewStore(dbBolt.Config{
			Path:        filepath.Join(cfg.Dir, boltFileName),
			OpenTimeout: time.Duration(cfg.ReadinessTimeout) * time.Second,
		})
	case config.DriverRedis, config.DriverValkey:
		return dbRedis.NewStore(dbRedis.Config{
			Addrs:     cfg.Addrs,
			Password:  cfg.Password,
			KeyPrefix: cfg.KeyPrefix,
		})
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

// jsonRecoverer is a recovery middleware that returns JSON instead of a plain text stacktrace.
func jsonRecoverer(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if rvr := recover(); rvr != nil {
					logger.Error("panic recovered",
						zap.Any("panic", rvr),
						zap.Stack("stacktrace"),
					)
					w.Header().Set("Content-Type", "application/json")
					w.WriteHeader(http.StatusInternalServerError)
					_ = json.NewEncoder(w).Encode(chiTransport.ErrorResponse{Error: "internal server error"})
				}
			}()
			next.ServeHTTP(w, r)
		})
	}
}

// wideEventMiddleware emits a canonical log line per request and propagates X-Request-ID.
func wideEventMiddleware(logger *zap.Logger) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			requestID := chiMiddleware.GetReqID(r.Context())
			if requestID != "" {
				w.Header().Set("X-Request-ID", requestID)
			}

			reqLogger := logger.With(zap.String("request_id", requestID))
			ctx := logpkg.ContextWithLogger(r.Context(), reqLogger)

			ww := chiMiddleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r.WithContext(ctx))

			reqLogger.Info("http_request",
				zap.String("method", r.Method),
				zap.String("path", r.URL.Path),
				zap.String("query", r.URL.RawQuery),
				zap.Int("status", ww.Status()),
				zap.Duration("latency", time.Since(start)),
				zap.String("ip", r.RemoteAddr),
				zap.String("user_agent", r.UserAgent()),
				zap.Int("response_bytes", ww.BytesWritten()),
			)
		})
	}
}
