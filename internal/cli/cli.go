// Package cli implements the justgrid command-line interface.
//
// Commands share one [CLI] value holding the logger and the loaded
// configuration. Configuration comes from --config (TOML or YAML), then
// the environment, including a .env file in the working directory.
//
// # Commands
//
//   - layout: compute justified rows for a JSON list of items
//   - fetch: load collections from the photo API until exhausted
//   - browse: scroll a gallery in the terminal, loading pages on demand
//   - probe: read image dimensions from URLs
//   - serve: run the HTTP API
//   - snapshot: list or delete saved gallery snapshots
//   - cache: manage the page and probe cache
package cli

import (
	"context"
	"io"
	"os"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/justgrid/pkg/cache"
	"github.com/matzehuels/justgrid/pkg/config"
)

const appName = "justgrid"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
	LogWarn  = log.WarnLevel
)

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	configPath string
	noCache    bool
	refresh    bool
	config     *config.Config
}

// New creates a CLI logging to w at the given level.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// Config loads the configuration once: the --config file over the
// defaults, then the environment.
func (c *CLI) Config() (config.Config, error) {
	if c.config != nil {
		return *c.config, nil
	}
	cfg, err := config.Load(c.configPath)
	if err != nil {
		return config.Config{}, err
	}
	cfg.ApplyEnv(os.LookupEnv)
	if err := cfg.Validate(); err != nil {
		return config.Config{}, err
	}
	c.config = &cfg
	return cfg, nil
}

// openCache returns the configured cache, or the null cache with
// --no-cache. A broken cache backend degrades to no caching.
func (c *CLI) openCache(ctx context.Context, cfg config.Config) cache.Cache {
	if c.noCache {
		return cache.NewNullCache()
	}
	pc, err := cfg.OpenCache(ctx)
	if err != nil {
		c.Logger.Warn("cache disabled", "backend", cfg.Cache.Backend, "err", err)
		return cache.NewNullCache()
	}
	return pc
}
