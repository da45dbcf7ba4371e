// Package config loads justgrid settings from TOML or YAML files and the
// environment.
//
// A missing file is not an error: [Default] is used. Values present in the
// file override the defaults field by field. Secrets are never read from
// files; the provider token comes from JUSTGRID_TOKEN only (see [Config.ApplyEnv]).
//
// Example justgrid.toml:
//
//	[layout]
//	gap = 6
//	row_height_mode = "auto"
//	max_viewport_height = 0.8
//
//	[[layout.breakpoints]]
//	min_width = 1000
//	items_per_row = 4
//
//	[loader]
//	sort_order = "most-viewed"
//	max_items = 500
//	max_delay = "20s"
//
//	[provider]
//	base_url = "https://photos.example.com/api/v1"
//
//	[cache]
//	backend = "redis"
//	redis_url = "redis://localhost:6379/0"
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"go.uber.org/multierr"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/justgrid/pkg/cache"
	"github.com/matzehuels/justgrid/pkg/errors"
	"github.com/matzehuels/justgrid/pkg/layout"
	"github.com/matzehuels/justgrid/pkg/loader"
	"github.com/matzehuels/justgrid/pkg/proximity"
)

// Environment variables read by [Config.ApplyEnv].
const (
	EnvToken    = "JUSTGRID_TOKEN"
	EnvBaseURL  = "JUSTGRID_API_URL"
	EnvRedisURL = "JUSTGRID_REDIS_URL"
	EnvMongoURI = "JUSTGRID_MONGO_URI"
)

// Backend names.
const (
	BackendNone  = "none"
	BackendFile  = "file"
	BackendRedis = "redis"
	BackendMongo = "mongo"
)

// Config is the complete justgrid configuration.
type Config struct {
	Layout   layout.Config  `toml:"layout" yaml:"layout" json:"layout"`
	Loader   LoaderConfig   `toml:"loader" yaml:"loader" json:"loader"`
	Provider ProviderConfig `toml:"provider" yaml:"provider" json:"provider"`
	Cache    CacheConfig    `toml:"cache" yaml:"cache" json:"cache"`
	Snapshot SnapshotConfig `toml:"snapshot" yaml:"snapshot" json:"snapshot"`
	Server   ServerConfig   `toml:"server" yaml:"server" json:"server"`
}

// LoaderConfig tunes every gallery controller.
type LoaderConfig struct {
	SortOrder          loader.SortOrder `toml:"sort_order" yaml:"sort_order" json:"sort_order"`
	MaxItems           int              `toml:"max_items" yaml:"max_items" json:"max_items"`
	Cooldown           time.Duration    `toml:"cooldown" yaml:"cooldown" json:"cooldown"`
	BaseDelay          time.Duration    `toml:"base_delay" yaml:"base_delay" json:"base_delay"`
	MaxDelay           time.Duration    `toml:"max_delay" yaml:"max_delay" json:"max_delay"`
	DefaultRetryDelay  time.Duration    `toml:"default_retry_delay" yaml:"default_retry_delay" json:"default_retry_delay"`
	DedupCapacity      int              `toml:"dedup_capacity" yaml:"dedup_capacity" json:"dedup_capacity"`
	TriggerMarginPx    float64          `toml:"trigger_margin" yaml:"trigger_margin" json:"trigger_margin"`
	TriggerMinInterval time.Duration    `toml:"trigger_min_interval" yaml:"trigger_min_interval" json:"trigger_min_interval"`
}

// ProviderConfig selects the remote photo API.
type ProviderConfig struct {
	BaseURL  string `toml:"base_url" yaml:"base_url" json:"base_url"`
	PageSize int    `toml:"page_size" yaml:"page_size" json:"page_size"`
	// Token is taken from the environment only.
	Token string `toml:"-" yaml:"-" json:"-"`
	// Probe resolves missing dimensions of direct URLs by downloading headers.
	Probe bool `toml:"probe" yaml:"probe" json:"probe"`
	// Orient applies EXIF orientation when probing.
	Orient bool `toml:"orient" yaml:"orient" json:"orient"`
}

// CacheConfig selects where fetched pages and probe results are kept.
type CacheConfig struct {
	Backend  string        `toml:"backend" yaml:"backend" json:"backend"`
	Dir      string        `toml:"dir" yaml:"dir" json:"dir,omitempty"`
	RedisURL string        `toml:"redis_url" yaml:"redis_url" json:"-"`
	TTL      time.Duration `toml:"ttl" yaml:"ttl" json:"ttl"`
}

// SnapshotConfig selects where gallery snapshots are stored.
type SnapshotConfig struct {
	Backend    string `toml:"backend" yaml:"backend" json:"backend"`
	Dir        string `toml:"dir" yaml:"dir" json:"dir,omitempty"`
	MongoURI   string `toml:"mongo_uri" yaml:"mongo_uri" json:"-"`
	Database   string `toml:"database" yaml:"database" json:"database,omitempty"`
	Collection string `toml:"collection" yaml:"collection" json:"collection,omitempty"`
}

// ServerConfig configures `justgrid serve`.
type ServerConfig struct {
	Addr            string        `toml:"addr" yaml:"addr" json:"addr"`
	ReadTimeout     time.Duration `toml:"read_timeout" yaml:"read_timeout" json:"read_timeout"`
	WriteTimeout    time.Duration `toml:"write_timeout" yaml:"write_timeout" json:"write_timeout"`
	ShutdownTimeout time.Duration `toml:"shutdown_timeout" yaml:"shutdown_timeout" json:"shutdown_timeout"`
	MaxGalleries    int           `toml:"max_galleries" yaml:"max_galleries" json:"max_galleries"`
}

// Server defaults.
const (
	DefaultAddr            = ":8080"
	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 60 * time.Second
	DefaultShutdownTimeout = 10 * time.Second
	DefaultMaxGalleries    = 1000
	DefaultMongoDatabase   = "justgrid"
)

// Default returns the configuration used when no file is given.
func Default() Config {
	c := Config{Layout: layout.DefaultConfig()}
	c.SetDefaults()
	return c
}

// SetDefaults fills zero-valued fields with their defaults.
func (c *Config) SetDefaults() {
	c.Layout.SetDefaults()

	l := &c.Loader
	if l.SortOrder == "" {
		l.SortOrder = loader.SortDefault
	}
	if l.Cooldown == 0 {
		l.Cooldown = loader.DefaultCooldown
	}
	if l.BaseDelay == 0 {
		l.BaseDelay = loader.DefaultBaseDelay
	}
	if l.MaxDelay == 0 {
		l.MaxDelay = loader.DefaultMaxDelay
	}
	if l.DefaultRetryDelay == 0 {
		l.DefaultRetryDelay = loader.DefaultRetryDelay
	}
	if l.DedupCapacity == 0 {
		l.DedupCapacity = loader.DefaultDedupCapacity
	}
	if l.TriggerMarginPx == 0 {
		l.TriggerMarginPx = loader.DefaultTriggerMarginPx
	}
	if l.TriggerMinInterval == 0 {
		l.TriggerMinInterval = proximity.DefaultMinInterval
	}

	if c.Cache.Backend == "" {
		c.Cache.Backend = BackendFile
	}
	if c.Cache.TTL == 0 {
		c.Cache.TTL = cache.TTLPage
	}
	if c.Snapshot.Backend == "" {
		c.Snapshot.Backend = BackendFile
	}
	if c.Snapshot.Database == "" {
		c.Snapshot.Database = DefaultMongoDatabase
	}

	s := &c.Server
	if s.Addr == "" {
		s.Addr = DefaultAddr
	}
	if s.ReadTimeout == 0 {
		s.ReadTimeout = DefaultReadTimeout
	}
	if s.WriteTimeout == 0 {
		s.WriteTimeout = DefaultWriteTimeout
	}
	if s.ShutdownTimeout == 0 {
		s.ShutdownTimeout = DefaultShutdownTimeout
	}
	if s.MaxGalleries == 0 {
		s.MaxGalleries = DefaultMaxGalleries
	}
}

// Validate reports every invalid field.
func (c Config) Validate() error {
	err := c.Layout.Validate()

	l := c.Loader
	if !l.SortOrder.Valid() {
		err = multierr.Append(err, errors.New(errors.ErrCodeInvalidConfig, "invalid sort order: %q (must be one of: default, most-viewed)", l.SortOrder))
	}
	if l.MaxItems < 0 {
		err = multierr.Append(err, errors.New(errors.ErrCodeInvalidConfig, "max items must be >= 0, got %d", l.MaxItems))
	}
	if l.MaxDelay < l.BaseDelay {
		err = multierr.Append(err, errors.New(errors.ErrCodeInvalidConfig, "max delay %s is below base delay %s", l.MaxDelay, l.BaseDelay))
	}
	if l.DedupCapacity < 0 {
		err = multierr.Append(err, errors.New(errors.ErrCodeInvalidConfig, "dedup capacity must be >= 0, got %d", l.DedupCapacity))
	}

	if c.Provider.BaseURL != "" {
		if e := errors.ValidateURL(c.Provider.BaseURL); e != nil {
			err = multierr.Append(err, e)
		}
	}
	if c.Provider.PageSize < 0 {
		err = multierr.Append(err, errors.New(errors.ErrCodeInvalidConfig, "page size must be >= 0, got %d", c.Provider.PageSize))
	}

	switch c.Cache.Backend {
	case BackendNone, BackendFile:
	case BackendRedis:
		if c.Cache.RedisURL == "" {
			err = multierr.Append(err, errors.New(errors.ErrCodeInvalidConfig, "cache backend redis needs redis_url or %s", EnvRedisURL))
		}
	default:
		err = multierr.Append(err, errors.New(errors.ErrCodeInvalidConfig, "invalid cache backend: %q (must be one of: none, file, redis)", c.Cache.Backend))
	}

	switch c.Snapshot.Backend {
	case BackendNone, BackendFile:
	case BackendMongo:
		if c.Snapshot.MongoURI == "" {
			err = multierr.Append(err, errors.New(errors.ErrCodeInvalidConfig, "snapshot backend mongo needs mongo_uri or %s", EnvMongoURI))
		}
	default:
		err = multierr.Append(err, errors.New(errors.ErrCodeInvalidConfig, "invalid snapshot backend: %q (must be one of: none, file, mongo)", c.Snapshot.Backend))
	}

	if c.Server.MaxGalleries < 0 {
		err = multierr.Append(err, errors.New(errors.ErrCodeInvalidConfig, "max galleries must be >= 0, got %d", c.Server.MaxGalleries))
	}
	return err
}

// Load reads path over [Default]. The format follows the extension:
// .toml, or .yaml/.yml. An empty path returns the defaults.
func Load(path string) (Config, error) {
	c := Default()
	if path == "" {
		return c, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if err := Decode(data, filepath.Ext(path), &c); err != nil {
		return Config{}, err
	}
	c.SetDefaults()
	return c, nil
}

// Decode parses data in the format named by ext into c.
func Decode(data []byte, ext string, c *Config) error {
	var err error
	switch strings.ToLower(ext) {
	case ".toml":
		_, err = toml.Decode(string(data), c)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, c)
	default:
		return errors.New(errors.ErrCodeUnsupported, "unsupported config format %q (use .toml, .yaml or .yml)", ext)
	}
	if err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfig, err, "parse config")
	}
	return nil
}

// ApplyEnv overrides settings from the environment. lookup is usually
// os.LookupEnv.
func (c *Config) ApplyEnv(lookup func(string) (string, bool)) {
	if v, ok := lookup(EnvToken); ok {
		c.Provider.Token = v
	}
	if v, ok := lookup(EnvBaseURL); ok && v != "" {
		c.Provider.BaseURL = v
	}
	if v, ok := lookup(EnvRedisURL); ok && v != "" {
		c.Cache.RedisURL = v
	}
	if v, ok := lookup(EnvMongoURI); ok && v != "" {
		c.Snapshot.MongoURI = v
	}
}

// LoaderOptions returns controller options for the given collections. The
// caller sets Provider, ID, Logger and callbacks.
func (c Config) LoaderOptions(collections []string) loader.Options {
	l := c.Loader
	return loader.Options{
		Collections:        collections,
		SortOrder:          l.SortOrder,
		MaxItems:           l.MaxItems,
		Cooldown:           l.Cooldown,
		BaseDelay:          l.BaseDelay,
		MaxDelay:           l.MaxDelay,
		DefaultRetryDelay:  l.DefaultRetryDelay,
		DedupCapacity:      l.DedupCapacity,
		TriggerMarginPx:    l.TriggerMarginPx,
		TriggerMinInterval: l.TriggerMinInterval,
	}
}
