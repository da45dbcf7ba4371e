package config

import (
	"context"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/justgrid/pkg/cache"
	"github.com/matzehuels/justgrid/pkg/errors"
	"github.com/matzehuels/justgrid/pkg/integrations/album"
	"github.com/matzehuels/justgrid/pkg/integrations/urls"
	"github.com/matzehuels/justgrid/pkg/snapshot"
)

// OpenCache opens the configured cache backend.
func (c Config) OpenCache(ctx context.Context) (cache.Cache, error) {
	switch c.Cache.Backend {
	case BackendNone:
		return cache.NewNullCache(), nil
	case BackendRedis:
		return cache.NewRedisCache(ctx, c.Cache.RedisURL, "justgrid:")
	case BackendFile, "":
		return cache.NewFileCache(c.Cache.Dir)
	}
	return nil, errors.New(errors.ErrCodeInvalidConfig, "invalid cache backend: %q", c.Cache.Backend)
}

// OpenSnapshots opens the configured snapshot store. It returns nil, nil
// when snapshots are disabled.
func (c Config) OpenSnapshots(ctx context.Context) (snapshot.Store, error) {
	switch c.Snapshot.Backend {
	case BackendNone:
		return nil, nil
	case BackendMongo:
		return snapshot.NewMongoStore(ctx, c.Snapshot.MongoURI, c.Snapshot.Database, c.Snapshot.Collection)
	case BackendFile, "":
		return snapshot.NewFileStore(c.Snapshot.Dir)
	}
	return nil, errors.New(errors.ErrCodeInvalidConfig, "invalid snapshot backend: %q", c.Snapshot.Backend)
}

// AlbumClient creates the remote collection provider.
func (c Config) AlbumClient(pc cache.Cache, refresh bool, logger *log.Logger) (*album.Client, error) {
	if c.Provider.BaseURL == "" {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "provider base_url is not set (config file or %s)", EnvBaseURL)
	}
	return album.NewClient(album.Options{
		BaseURL:  c.Provider.BaseURL,
		Token:    c.Provider.Token,
		PageSize: c.Provider.PageSize,
		Cache:    pc,
		TTL:      c.Cache.TTL,
		Refresh:  refresh,
		Logger:   logger,
	})
}

// URLProvider creates the direct-URL provider, probing dimensions when
// enabled.
func (c Config) URLProvider(pc cache.Cache, logger *log.Logger) *urls.Provider {
	var prober *urls.Prober
	if c.Provider.Probe {
		prober = c.Prober(pc)
	}
	return urls.New(urls.Options{Prober: prober, Logger: logger})
}

// Prober creates an image prober sharing the configured cache.
func (c Config) Prober(pc cache.Cache) *urls.Prober {
	return urls.NewProber(urls.ProberOptions{Cache: pc, Orient: c.Provider.Orient})
}
