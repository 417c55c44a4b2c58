package gplcatalog

import (
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Option configures the Client.
type Option interface {
	apply(*clientConfig)
}

// optionFunc adapts a function to the Option interface.
type optionFunc func(*clientConfig)

func (f optionFunc) apply(c *clientConfig) { f(c) }

type clientConfig struct {
	driver    string // "file", "bolt", "redis" or "valkey"
	dir       string
	path      string
	addrs     []string
	password  string
	keyPrefix string

	baseURL        string
	consumerKey    string
	consumerSecret string
	userAgent      string

	perPage     int
	pageDelay   time.Duration
	pageTimeout time.Duration

	themeMarker  string
	pluginMarker string

	searchLimit int
	cacheSize   int

	logger     *slog.Logger
	metricsReg prometheus.Registerer
}

// WithFileStore keeps partitions as JSON files in dir.
func WithFileStore(dir string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = "file"
		c.dir = dir
	})
}

// WithBolt keeps partitions in a single bbolt file.
func WithBolt(path string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = "bolt"
		c.path = path
	})
}

// WithRedis keeps partitions as hashes in a Redis instance.
func WithRedis(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = "redis"
		c.addrs = []string{addr}
		c.password = password
	})
}

// WithValkey keeps partitions as hashes in a Valkey instance.
func WithValkey(addr, password string) Option {
	return optionFunc(func(c *clientConfig) {
		c.driver = "valkey"
		c.addrs = []string{addr}
		c.password = password
	})
}

// WithKeyPrefix sets the Redis/Valkey key prefix. Default: "gplcatalog:".
func WithKeyPrefix(prefix string) Option {
	return optionFunc(func(c *clientConfig) {
		c.keyPrefix = prefix
	})
}

// WithCatalog sets the WooCommerce store and REST credentials.
// Required for Sync; reads work without it.
func WithCatalog(baseURL, consumerKey, consumerSecret string) Option {
	return optionFunc(func(c *clientConfig) {
		c.baseURL = baseURL
		c.consumerKey = consumerKey
		c.consumerSecret = consumerSecret
	})
}

// WithUserAgent overrides the User-Agent sent to the store.
func WithUserAgent(ua string) Option {
	return optionFunc(func(c *clientConfig) {
		c.userAgent = ua
	})
}

// WithPaging sets the page size and the pause between page requests.
// Defaults: 100 per page, 3s delay.
func WithPaging(perPage int, delay time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.perPage = perPage
		c.pageDelay = delay
	})
}

// WithPageTimeout bounds each upstream page request. A page that does not
// arrive in time aborts the cycle with ErrUpstreamUnavailable. Default: 30s.
func WithPageTimeout(d time.Duration) Option {
	return optionFunc(func(c *clientConfig) {
		c.pageTimeout = d
	})
}

// WithMarkers overrides the category slugs that classify themes and plugins.
func WithMarkers(theme, plugin string) Option {
	return optionFunc(func(c *clientConfig) {
		c.themeMarker = theme
		c.pluginMarker = plugin
	})
}

// WithSearchLimit caps search results. Default: 20.
func WithSearchLimit(n int) Option {
	return optionFunc(func(c *clientConfig) {
		c.searchLimit = n
	})
}

// WithSearchCache sets the number of cached search results. Zero disables caching.
func WithSearchCache(size int) Option {
	return optionFunc(func(c *clientConfig) {
		c.cacheSize = size
	})
}

// WithLogger enables structured logging for SDK operations.
// Pass nil to disable (default). Uses standard library slog.
func WithLogger(l *slog.Logger) Option {
	return optionFunc(func(c *clientConfig) {
		c.logger = l
	})
}

// WithPrometheus registers SDK and sync metrics on the given registerer.
// Pass nil to disable (default).
func WithPrometheus(reg prometheus.Registerer) Option {
	return optionFunc(func(c *clientConfig) {
		c.metricsReg = reg
	})
}
