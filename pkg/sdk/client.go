package gplcatalog

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/gplcatalog/internal/db"
	dbBolt "github.com/kailas-cloud/gplcatalog/internal/db/bolt"
	dbFile "github.com/kailas-cloud/gplcatalog/internal/db/file"
	dbRedis "github.com/kailas-cloud/gplcatalog/internal/db/redis"
	"github.com/kailas-cloud/gplcatalog/internal/domain/product"
	"github.com/kailas-cloud/gplcatalog/internal/metrics"
	"github.com/kailas-cloud/gplcatalog/internal/repository/partition"
	"github.com/kailas-cloud/gplcatalog/internal/repository/searchcache"
	"github.com/kailas-cloud/gplcatalog/internal/transport/woocommerce"
	cataloguc "github.com/kailas-cloud/gplcatalog/internal/usecase/catalog"
	healthuc "github.com/kailas-cloud/gplcatalog/internal/usecase/health"
	searchuc "github.com/kailas-cloud/gplcatalog/internal/usecase/search"
	"github.com/kailas-cloud/gplcatalog/internal/usecase/syncer"
	"github.com/kailas-cloud/gplcatalog/internal/version"
)

const (
	defaultReadinessTimeout = 10 * time.Second
	defaultKeyPrefix        = "gplcatalog:"
	defaultThemeMarker      = "wp-gpl-themes"
	defaultPluginMarker     = "wp-gpl-plugins"
)

// Internal interfaces for substitution in tests.
type catalogUseCase interface {
	ListAll() []product.SearchRecord
	ListByPartition(p product.Partition) ([]product.Product, error)
	Search(ctx context.Context, p product.Partition, q string) ([]product.Product, error)
	GetByID(id int64) (product.Product, error)
}

type syncUseCase interface {
	Run(ctx context.Context) error
	Status() syncer.Status
}

// Client is the gplcatalog SDK entry point.
type Client struct {
	store      db.Store
	catalogSvc catalogUseCase
	syncSvc    syncUseCase // nil without WithCatalog
	healthSvc  healthUseCase
	obs        *observer
}

// New opens the configured store, restores the last persisted catalog and wires the engine.
// The provided context is used for the readiness check and the initial load.
func New(ctx context.Context, opts ...Option) (*Client, error) {
	cfg := &clientConfig{
		keyPrefix:    defaultKeyPrefix,
		perPage:      syncer.DefaultPerPage,
		pageDelay:    syncer.DefaultPageDelay,
		pageTimeout:  syncer.DefaultPageTimeout,
		themeMarker:  defaultThemeMarker,
		pluginMarker: defaultPluginMarker,
		searchLimit:  searchuc.DefaultLimit,
	}
	for _, o := range opts {
		o.apply(cfg)
	}

	if cfg.driver == "" {
		return nil, errors.New("gplcatalog: storage required (use WithFileStore, WithBolt, WithRedis or WithValkey)")
	}

	obs, err := newObserver(cfg.logger, cfg.metricsReg)
	if err != nil {
		return nil, err
	}

	store, err := createStore(cfg)
	if err != nil {
		return nil, err
	}

	if err := store.WaitForReady(ctx, defaultReadinessTimeout); err != nil {
		store.Close()
		return nil, fmt.Errorf("gplcatalog: storage not ready: %w", err)
	}

	c, err := wireClient(ctx, store, cfg, obs)
	if err != nil {
		store.Close()
		return nil, err
	}
	return c, nil
}

func createStore(cfg *clientConfig) (db.Store, error) {
	switch cfg.driver {
	case "file":
		s, err := dbFile.NewStore(dbFile.Config{Dir: cfg.dir})
		if err != nil {
			return nil, fmt.Errorf("gplcatalog: create file store: %w", err)
		}
		return s, nil
	case "bolt":
		s, err := dbBolt.NewStore(dbBolt.Config{Path: filepath.Clean(cfg.path)})
		if err != nil {
			return nil, fmt.Errorf("gplcatalog: create bolt store: %w", err)
		}
		return s, nil
	case "redis", "valkey":
		s, err := dbRedis.NewStore(dbRedis.Config{
			Addrs:     cfg.addrs,
			Password:  cfg.password,
			KeyPrefix: cfg.keyPrefix,
		})
		if err != nil {
			return nil, fmt.Errorf("gplcatalog: create %s store: %w", cfg.driver, err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("gplcatalog: unknown driver %q", cfg.driver)
	}
}

func wireClient(ctx context.Context, store db.Store, cfg *clientConfig, obs *observer) (*Client, error) {
	engine, err := metrics.NewEngine(cfg.metricsReg)
	if err != nil {
		return nil, fmt.Errorf("gplcatalog: %w", err)
	}

	parts := partition.NewSet(store)
	if err := parts.Load(ctx); err != nil {
		return nil, fmt.Errorf("gplcatalog: load catalog: %w", err)
	}

	index, err := searchuc.New(searchuc.Config{Limit: cfg.searchLimit})
	if err != nil {
		return nil, fmt.Errorf("gplcatalog: %w", err)
	}
	searcher, err := searchcache.New(index, cfg.cacheSize, engine.SearchCacheTotal(), zap.NewNop())
	if err != nil {
		return nil, fmt.Errorf("gplcatalog: %w", err)
	}

	c := &Client{
		store:      store,
		catalogSvc: cataloguc.New(parts, searcher, nil, nil),
		obs:        obs,
	}

	// nil interface, not a typed nil pointer, when sync is not configured
	var syncChecker healthuc.SyncChecker
	if cfg.baseURL != "" {
		ua := cfg.userAgent
		if ua == "" {
			ua = version.UserAgent()
		}
		wc, err := woocommerce.New(woocommerce.Config{
			BaseURL:        cfg.baseURL,
			ConsumerKey:    cfg.consumerKey,
			ConsumerSecret: cfg.consumerSecret,
			UserAgent:      ua,
			Timeout:        cfg.pageTimeout,
		})
		if err != nil {
			return nil, fmt.Errorf("gplcatalog: %w", err)
		}
		svc := syncer.New(
			wc,
			parts,
			product.NewClassifier(cfg.themeMarker, cfg.pluginMarker),
			syncer.Config{PerPage: cfg.perPage, PageDelay: cfg.pageDelay, PageTimeout: cfg.pageTimeout},
			engine,
			zap.NewNop(),
		)
		c.syncSvc = svc
		syncChecker = svc
	}
	c.healthSvc = healthuc.New(store, syncChecker)

	return c, nil
}

// Close releases all resources.
func (c *Client) Close() {
	if c.store != nil {
		c.store.Close()
	}
}

// Ping checks storage connectivity.
func (c *Client) Ping(ctx context.Context) (err error) {
	start := time.Now()
	defer func() { c.obs.observe(opPing, "", start, err) }()

	if err = c.store.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}
