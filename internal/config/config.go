package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Storage drivers.
const (
	DriverFile   = "file"
	DriverBolt   = "bolt"
	DriverRedis  = "redis"
	DriverValkey = "valkey"
)

// Config holds the gplcatalog service configuration.
type Config struct {
	HTTP     HTTPConfig     `yaml:"http"`
	Auth     AuthConfig     `yaml:"auth"`
	Upstream UpstreamConfig `yaml:"upstream"`
	Sync     SyncConfig     `yaml:"sync"`
	Storage  StorageConfig  `yaml:"storage"`
	Link     LinkConfig     `yaml:"link"`
	Search   SearchConfig   `yaml:"search"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level string `yaml:"level"` // debug, info, warn, error (default: determined by env)
}

// AuthConfig holds admin API authentication settings.
type AuthConfig struct {
	AdminKeys []string `yaml:"admin_keys"` // guards /sync routes; empty disables auth
}

// HTTPConfig holds HTTP server settings.
type HTTPConfig struct {
	Port            int `yaml:"port"`
	ReadTimeoutSec  int `yaml:"read_timeout_sec"`
	WriteTimeoutSec int `yaml:"write_timeout_sec"`
	ShutdownSec     int `yaml:"shutdown_timeout_sec"`
}

// UpstreamConfig holds the WooCommerce catalog settings.
type UpstreamConfig struct {
	BaseURL        string `yaml:"base_url"`
	ConsumerKey    string `yaml:"consumer_key"`
	ConsumerSecret string `yaml:"consumer_secret"`
	UserAgent      string `yaml:"user_agent"`
	PerPage        int    `yaml:"per_page"`
	PageDelayMs    int    `yaml:"page_delay_ms"`
	PageTimeoutSec int    `yaml:"page_timeout_sec"`
}

// SyncConfig holds refresh scheduling and classification settings.
type SyncConfig struct {
	IntervalHours int    `yaml:"interval_hours"`
	RunOnStartup  *bool  `yaml:"run_on_startup"` // default true
	ThemeMarker   string `yaml:"theme_marker"`
	PluginMarker  string `yaml:"plugin_marker"`
}

// StorageConfig holds partition persistence settings.
type StorageConfig struct {
	Driver           string   `yaml:"driver"` // file, bolt, redis, valkey (default: file)
	Dir              string   `yaml:"dir"`
	Addrs            []string `yaml:"addrs"`
	Password         string   `yaml:"password"`
	KeyPrefix        string   `yaml:"key_prefix"`
	ReadinessTimeout int      `yaml:"readiness_timeout_sec"`
}

// LinkConfig holds the download-link authorization endpoint.
type LinkConfig struct {
	EndpointURL string `yaml:"endpoint_url"` // empty disables POST /link
	TimeoutSec  int    `yaml:"timeout_sec"`
}

// SearchConfig holds fuzzy search settings.
type SearchConfig struct {
	Limit     int  `yaml:"limit"`
	Fuzziness *int `yaml:"fuzziness"` // default 1
	CacheSize int  `yaml:"cache_size"` // negative disables the cache
}

// Load reads configuration from a YAML file by environment name (local, prod).
func Load(env string) (Config, error) {
	configPath := findConfigPath(env)

	data, err := os.ReadFile(filepath.Clean(configPath))
	if err != nil {
		return Config{}, fmt.Errorf("failed to read config %s: %w", configPath, err)
	}

	// Substitute env variables of the form ${VAR}
	data = expandEnvVars(data)

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.ApplyDefaults()

	if err := cfg.Validate(); err != nil {
		return Config{}, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// MustLoad loads configuration or panics.
func MustLoad(env string) Config {
	cfg, err := Load(env)
	if err != nil {
		panic(err)
	}
	return cfg
}

// GetEnv returns the current environment from the ENV variable, defaulting to "local".
func GetEnv() string {
	if env := os.Getenv("ENV"); env != "" {
		return env
	}
	return "local"
}

// ApplyDefaults fills empty fields with default values.
func (c *Config) ApplyDefaults() {
	if c.HTTP.Port == 0 {
		c.HTTP.Port = 3000
	}
	if c.HTTP.ReadTimeoutSec <= 0 {
		c.HTTP.ReadTimeoutSec = 10
	}
	if c.HTTP.WriteTimeoutSec <= 0 {
		c.HTTP.WriteTimeoutSec = 30
	}
	if c.HTTP.ShutdownSec <= 0 {
		c.HTTP.ShutdownSec = 10
	}
	if c.Upstream.PerPage <= 0 {
		c.Upstream.PerPage = 100
	}
	if c.Upstream.PageDelayMs == 0 {
		c.Upstream.PageDelayMs = 3000
	}
	if c.Upstream.PageTimeoutSec <= 0 {
		c.Upstream.PageTimeoutSec = 30
	}
	if c.Sync.IntervalHours <= 0 {
		c.Sync.IntervalHours = 24
	}
	if c.Sync.RunOnStartup == nil {
		v := true
		c.Sync.RunOnStartup = &v
	}
	if c.Sync.ThemeMarker == "" {
		c.Sync.ThemeMarker = "wp-gpl-themes"
	}
	if c.Sync.PluginMarker == "" {
		c.Sync.PluginMarker = "wp-gpl-plugins"
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = DriverFile
	}
	if c.Storage.Dir == "" {
		c.Storage.Dir = "./data"
	}
	if c.Storage.KeyPrefix == "" {
		c.Storage.KeyPrefix = "gplcatalog:"
	}
	if c.Storage.ReadinessTimeout <= 0 {
		c.Storage.ReadinessTimeout = 10
	}
	if c.Link.TimeoutSec <= 0 {
		c.Link.TimeoutSec = 10
	}
	if c.Search.Limit <= 0 {
		c.Search.Limit = 20
	}
	if c.Search.Fuzziness == nil {
		v := 1
		c.Search.Fuzziness = &v
	}
	if c.Search.CacheSize == 0 {
		c.Search.CacheSize = 256
	}
}

// Validate checks the configuration for correctness.
func (c *Config) Validate() error {
	if c.HTTP.Port <= 0 || c.HTTP.Port > 65535 {
		return fmt.Errorf("http.port must be between 1 and 65535, got %d", c.HTTP.Port)
	}
	if c.Upstream.BaseURL == "" {
		return fmt.Errorf("upstream.base_url is required")
	}
	if c.Upstream.PerPage < 1 || c.Upstream.PerPage > 100 {
		return fmt.Errorf("upstream.per_page must be between 1 and 100, got %d", c.Upstream.PerPage)
	}
	switch c.Storage.Driver {
	case DriverFile, DriverBolt:
		if c.Storage.Dir == "" {
			return fmt.Errorf("storage.dir is required for driver %q", c.Storage.Driver)
		}
	case DriverRedis, DriverValkey:
		if len(c.Storage.Addrs) == 0 {
			return fmt.Errorf("storage.addrs is required for driver %q", c.Storage.Driver)
		}
	default:
		return fmt.Errorf("storage.driver must be one of file, bolt, redis, valkey, got %q", c.Storage.Driver)
	}
	if c.Search.Limit <= 0 {
		return fmt.Errorf("search.limit must be positive, got %d", c.Search.Limit)
	}
	if f := c.Search.Fuzziness; f != nil && (*f < 0 || *f > 2) {
		return fmt.Errorf("search.fuzziness must be between 0 and 2, got %d", *f)
	}
	return nil
}

// PageDelay returns the pause between upstream page requests.
// A negative page_delay_ms disables pacing.
func (c *UpstreamConfig) PageDelay() time.Duration {
	if c.PageDelayMs < 0 {
		return 0
	}
	return time.Duration(c.PageDelayMs) * time.Millisecond
}

// PageTimeout returns the deadline of a single page request.
func (c *UpstreamConfig) PageTimeout() time.Duration {
	return time.Duration(c.PageTimeoutSec) * time.Second
}

// Interval returns the period between scheduled syncs.
func (c *SyncConfig) Interval() time.Duration {
	return time.Duration(c.IntervalHours) * time.Hour
}

// StartupRun reports whether a sync runs at process start.
func (c *SyncConfig) StartupRun() bool {
	return c.RunOnStartup == nil || *c.RunOnStartup
}

// FuzzinessOrDefault returns the configured edit distance.
func (c *SearchConfig) FuzzinessOrDefault() int {
	if c.Fuzziness == nil {
		return 1
	}
	return *c.Fuzziness
}

// findConfigPath locates the config file.
func findConfigPath(env string) string {
	filename := fmt.Sprintf("%s.yaml", env)

	// 1. Check ./config/
	if path := filepath.Join("config", filename); fileExists(path) {
		return path
	}

	// 2. Check relative to the source file
	_, b, _, _ := runtime.Caller(0)
	projectRoot := filepath.Dir(filepath.Dir(filepath.Dir(b))) // internal/config -> project root
	if path := filepath.Join(projectRoot, "config", filename); fileExists(path) {
		return path
	}

	// 3. Fallback to ./config/
	return filepath.Join("config", filename)
}

func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// expandEnvVars replaces ${VAR} and ${VAR:-default} with environment variable values.
var envVarRegex = regexp.MustCompile(`\$\{([^}]+)\}`)

func expandEnvVars(data []byte) []byte {
	return envVarRegex.ReplaceAllFunc(data, func(match []byte) []byte {
		expr := string(match[2 : len(match)-1]) // strip ${ and }
		varName, defaultVal, hasDefault := strings.Cut(expr, ":-")
		val := os.Getenv(varName)
		if val == "" && hasDefault {
			val = defaultVal
		}
		return []byte(val)
	})
}
