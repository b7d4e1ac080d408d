package main

import (
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/sydlexius/calliope/internal/cache"
	"github.com/sydlexius/calliope/internal/config"
	"github.com/sydlexius/calliope/internal/logging"
	"github.com/sydlexius/calliope/internal/provider"
	"github.com/sydlexius/calliope/internal/provider/discogs"
	"github.com/sydlexius/calliope/internal/provider/genius"
	"github.com/sydlexius/calliope/internal/provider/lastfm"
	"github.com/sydlexius/calliope/internal/provider/musicbrainz"
	"github.com/sydlexius/calliope/internal/provider/spotify"
	"github.com/sydlexius/calliope/internal/provider/youtube"
	"github.com/sydlexius/calliope/internal/reconcile"
)

type commandContext struct {
	configFlag   *string
	logLevelFlag *string
	jsonFlag     *bool

	configOnce sync.Once
	config     *config.Config
	configErr  error

	appOnce sync.Once
	app     *appEnv
	appErr  error
}

// appEnv is the wired application: everything a command needs beyond the
// bare config. Built once per invocation.
type appEnv struct {
	cfg      *config.Config
	logger   *slog.Logger
	registry *provider.Registry
	orch     *provider.Orchestrator
	merger   *reconcile.Merger

	// youtube is the registered YouTube adapter, kept separately because
	// the download command needs its Resolve method. Nil when disabled.
	youtube *youtube.Adapter

	logManager *logging.Manager
	cacheDB    *sql.DB
}

func newCommandContext(configFlag, logLevelFlag *string, jsonFlag *bool) *commandContext {
	return &commandContext{
		configFlag:   configFlag,
		logLevelFlag: logLevelFlag,
		jsonFlag:     jsonFlag,
	}
}

func (c *commandContext) jsonOutput() bool {
	return c.jsonFlag != nil && *c.jsonFlag
}

func (c *commandContext) configPath() string {
	if c.configFlag != nil && strings.TrimSpace(*c.configFlag) != "" {
		return strings.TrimSpace(*c.configFlag)
	}
	return config.DefaultPath()
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		cfg, err := config.Load(c.configPath())
		if err != nil {
			c.configErr = err
			return
		}
		if c.logLevelFlag != nil && *c.logLevelFlag != "" {
			if !logging.ValidLevel(*c.logLevelFlag) {
				c.configErr = fmt.Errorf("invalid log level: %q", *c.logLevelFlag)
				return
			}
			cfg.Log.Level = *c.logLevelFlag
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// ensureApp wires the full provider stack from the config. Providers that
// are enabled but missing credentials are skipped with a warning, so a
// half-configured instance still answers from the providers it can reach.
func (c *commandContext) ensureApp() (*appEnv, error) {
	c.appOnce.Do(func() {
		cfg, err := c.ensureConfig()
		if err != nil {
			c.appErr = err
			return
		}

		logManager, logger := logging.NewManager(logging.Config{
			Level:          cfg.Log.Level,
			Format:         cfg.Log.Format,
			FilePath:       cfg.Log.FilePath,
			FileMaxSizeMB:  cfg.Log.FileMaxSizeMB,
			FileMaxFiles:   cfg.Log.FileMaxFiles,
			FileMaxAgeDays: cfg.Log.FileMaxAgeDays,
		})
		slog.SetDefault(logger)

		env := &appEnv{
			cfg:        cfg,
			logger:     logger,
			logManager: logManager,
		}

		var store *cache.Store
		if cfg.Cache.Enabled {
			db, err := cache.Open(cfg.Cache.Path)
			if err != nil {
				logger.Warn("cache unavailable, continuing without it", "error", err)
			} else if err := cache.Migrate(db); err != nil {
				logger.Warn("cache migration failed, continuing without it", "error", err)
				db.Close() //nolint:errcheck
			} else {
				env.cacheDB = db
				store = cache.NewStore(db, time.Duration(cfg.Cache.TTLHours)*time.Hour)
			}
		}

		limiters := provider.NewRateLimiterMap()
		registry := provider.NewRegistry()

		if cfg.Providers.MusicBrainz.Enabled {
			registry.Register(musicbrainz.New(cfg.Providers.MusicBrainz.UserAgent, limiters, logger))
		}
		if cfg.Providers.Discogs.Enabled {
			if cfg.Providers.Discogs.Token != "" {
				registry.Register(discogs.New(cfg.Providers.Discogs.Token, limiters, logger))
			} else {
				logger.Warn("skipping provider: credentials not configured", "provider", "discogs")
			}
		}
		if cfg.Providers.Spotify.Enabled {
			if cfg.Providers.Spotify.ClientID != "" && cfg.Providers.Spotify.ClientSecret != "" {
				registry.Register(spotify.New(cfg.Providers.Spotify.ClientID, cfg.Providers.Spotify.ClientSecret, limiters, logger))
			} else {
				logger.Warn("skipping provider: credentials not configured", "provider", "spotify")
			}
		}
		if cfg.Providers.LastFm.Enabled {
			if cfg.Providers.LastFm.APIKey != "" {
				registry.Register(lastfm.New(cfg.Providers.LastFm.APIKey, limiters, logger))
			} else {
				logger.Warn("skipping provider: credentials not configured", "provider", "lastfm")
			}
		}
		if cfg.Providers.Genius.Enabled {
			if cfg.Providers.Genius.AccessToken != "" {
				registry.Register(genius.New(cfg.Providers.Genius.AccessToken, limiters, logger))
			} else {
				logger.Warn("skipping provider: credentials not configured", "provider", "genius")
			}
		}
		if cfg.Providers.YouTube.Enabled {
			env.youtube = youtube.New(cfg.Providers.YouTube.YtDlpPath, cfg.Providers.YouTube.SearchResults, limiters, logger)
			registry.Register(env.youtube)
		}

		env.registry = registry
		env.orch = provider.NewOrchestrator(registry, store,
			time.Duration(cfg.Fetch.TimeoutSeconds)*time.Second, logger)
		env.merger = reconcile.NewMerger(cfg.Scoring.Weights())

		c.app = env
	})
	return c.app, c.appErr
}

func (a *appEnv) close() {
	if a.cacheDB != nil {
		a.cacheDB.Close() //nolint:errcheck
	}
	if a.logManager != nil {
		a.logManager.Close() //nolint:errcheck
	}
}
