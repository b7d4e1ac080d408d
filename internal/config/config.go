package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/sydlexius/calliope/internal/filesystem"
	"github.com/sydlexius/calliope/internal/logging"
	"github.com/sydlexius/calliope/internal/reconcile"
)

// Config holds all application configuration.
type Config struct {
	Log       LogConfig       `yaml:"log"`
	Cache     CacheConfig     `yaml:"cache"`
	Providers ProvidersConfig `yaml:"providers"`
	Scoring   ScoringConfig   `yaml:"scoring"`
	Download  DownloadConfig  `yaml:"download"`
	Fetch     FetchConfig     `yaml:"fetch"`
	Watch     WatchConfig     `yaml:"watch"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level          string `yaml:"level"`
	Format         string `yaml:"format"`
	FilePath       string `yaml:"file_path,omitempty"`
	FileMaxSizeMB  int    `yaml:"file_max_size_mb,omitempty"`
	FileMaxFiles   int    `yaml:"file_max_files,omitempty"`
	FileMaxAgeDays int    `yaml:"file_max_age_days,omitempty"`
}

// CacheConfig holds response cache settings.
type CacheConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Path     string `yaml:"path"`
	TTLHours int    `yaml:"ttl_hours"`
}

// ProvidersConfig holds per-provider enablement and credentials.
type ProvidersConfig struct {
	MusicBrainz MusicBrainzConfig `yaml:"musicbrainz"`
	Discogs     DiscogsConfig     `yaml:"discogs"`
	Spotify     SpotifyConfig     `yaml:"spotify"`
	LastFm      LastFmConfig      `yaml:"lastfm"`
	Genius      GeniusConfig      `yaml:"genius"`
	YouTube     YouTubeConfig     `yaml:"youtube"`
}

// MusicBrainzConfig holds MusicBrainz settings. The API requires a
// descriptive User-Agent; an empty value falls back to the built-in one.
type MusicBrainzConfig struct {
	Enabled   bool   `yaml:"enabled"`
	UserAgent string `yaml:"user_agent,omitempty"`
}

// DiscogsConfig holds Discogs settings.
type DiscogsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Token   string `yaml:"token,omitempty"`
}

// SpotifyConfig holds Spotify client-credentials settings.
type SpotifyConfig struct {
	Enabled      bool   `yaml:"enabled"`
	ClientID     string `yaml:"client_id,omitempty"`
	ClientSecret string `yaml:"client_secret,omitempty"`
}

// LastFmConfig holds Last.fm settings.
type LastFmConfig struct {
	Enabled bool   `yaml:"enabled"`
	APIKey  string `yaml:"api_key,omitempty"`
}

// GeniusConfig holds Genius settings.
type GeniusConfig struct {
	Enabled     bool   `yaml:"enabled"`
	AccessToken string `yaml:"access_token,omitempty"`
}

// YouTubeConfig holds YouTube search settings. Search runs through yt-dlp,
// so no API key is needed.
type YouTubeConfig struct {
	Enabled       bool   `yaml:"enabled"`
	YtDlpPath     string `yaml:"yt_dlp,omitempty"`
	SearchResults int    `yaml:"search_results"`
}

// ScoringConfig holds the merge scoring knobs.
type ScoringConfig struct {
	ConfidenceWeight   float64 `yaml:"confidence_weight"`
	CompletenessWeight float64 `yaml:"completeness_weight"`
	CorroborationBonus float64 `yaml:"corroboration_bonus"`
}

// Weights converts the scoring knobs to engine weights.
func (s ScoringConfig) Weights() reconcile.Weights {
	return reconcile.Weights{
		Confidence:         s.ConfidenceWeight,
		Completeness:       s.CompletenessWeight,
		CorroborationBonus: s.CorroborationBonus,
	}
}

// DownloadConfig holds audio download settings.
type DownloadConfig struct {
	Directory     string `yaml:"directory"`
	StagingDir    string `yaml:"staging_dir"`
	AudioFormat   string `yaml:"audio_format"`
	Parallel      int    `yaml:"parallel"`
	EmbedCoverArt bool   `yaml:"embed_cover_art"`
}

// FetchConfig holds provider HTTP client settings.
type FetchConfig struct {
	TimeoutSeconds int `yaml:"timeout_seconds"`
}

// WatchConfig holds watch-mode settings.
type WatchConfig struct {
	Paths      []string `yaml:"paths,omitempty"`
	DebounceMS int      `yaml:"debounce_ms"`
	Extensions []string `yaml:"extensions,omitempty"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
		Cache: CacheConfig{
			Enabled:  true,
			Path:     defaultCachePath(),
			TTLHours: 24 * 14,
		},
		Providers: ProvidersConfig{
			MusicBrainz: MusicBrainzConfig{Enabled: true},
			Discogs:     DiscogsConfig{Enabled: true},
			Spotify:     SpotifyConfig{Enabled: true},
			LastFm:      LastFmConfig{Enabled: true},
			Genius:      GeniusConfig{Enabled: true},
			YouTube: YouTubeConfig{
				Enabled:       true,
				YtDlpPath:     "yt-dlp",
				SearchResults: 5,
			},
		},
		Scoring: ScoringConfig{
			ConfidenceWeight:   0.7,
			CompletenessWeight: 0.3,
			CorroborationBonus: 0.1,
		},
		Download: DownloadConfig{
			Directory:     defaultMusicDir(),
			StagingDir:    filepath.Join(os.TempDir(), "calliope"),
			AudioFormat:   "m4a",
			Parallel:      2,
			EmbedCoverArt: true,
		},
		Fetch: FetchConfig{
			TimeoutSeconds: 15,
		},
		Watch: WatchConfig{
			DebounceMS: 2000,
			Extensions: []string{".mp3", ".m4a", ".flac", ".ogg", ".opus"},
		},
	}
}

// DefaultPath returns the default config file location,
// ~/.config/calliope/config.yaml on most systems.
func DefaultPath() string {
	if v := os.Getenv("CALLIOPE_CONFIG_PATH"); v != "" {
		return v
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return "calliope.yaml"
	}
	return filepath.Join(dir, "calliope", "config.yaml")
}

func defaultCachePath() string {
	dir, err := os.UserCacheDir()
	if err != nil {
		return "calliope-cache.db"
	}
	return filepath.Join(dir, "calliope", "cache.db")
}

func defaultMusicDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "Music"
	}
	return filepath.Join(home, "Music")
}

// Load reads config from a YAML file (if it exists) and overrides with
// environment variables. Environment variables take precedence.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		if err := cfg.loadFromFile(path); err != nil {
			return nil, fmt.Errorf("loading config file: %w", err)
		}
	}

	cfg.loadFromEnv()
	cfg.expandPaths()

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// Save writes the config to path atomically with owner-only permissions,
// since provider credentials live in it.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := filesystem.WriteFileAtomic(path, data, 0o600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}
	return nil
}

func (c *Config) loadFromFile(path string) error {
	data, err := os.ReadFile(path) //nolint:gosec // G304: path comes from the user's own flag or env
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	return yaml.Unmarshal(data, c)
}

func (c *Config) loadFromEnv() {
	if v := os.Getenv("CALLIOPE_LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("CALLIOPE_LOG_FORMAT"); v != "" {
		c.Log.Format = v
	}
	if v := os.Getenv("CALLIOPE_CACHE_PATH"); v != "" {
		c.Cache.Path = v
	}
	if v := os.Getenv("CALLIOPE_CACHE_TTL_HOURS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Cache.TTLHours = n
		}
	}
	if v := os.Getenv("CALLIOPE_MUSICBRAINZ_USER_AGENT"); v != "" {
		c.Providers.MusicBrainz.UserAgent = v
	}
	if v := os.Getenv("CALLIOPE_DISCOGS_TOKEN"); v != "" {
		c.Providers.Discogs.Token = v
	}
	if v := os.Getenv("CALLIOPE_SPOTIFY_CLIENT_ID"); v != "" {
		c.Providers.Spotify.ClientID = v
	}
	if v := os.Getenv("CALLIOPE_SPOTIFY_CLIENT_SECRET"); v != "" {
		c.Providers.Spotify.ClientSecret = v
	}
	if v := os.Getenv("CALLIOPE_LASTFM_API_KEY"); v != "" {
		c.Providers.LastFm.APIKey = v
	}
	if v := os.Getenv("CALLIOPE_GENIUS_ACCESS_TOKEN"); v != "" {
		c.Providers.Genius.AccessToken = v
	}
	if v := os.Getenv("CALLIOPE_YTDLP_PATH"); v != "" {
		c.Providers.YouTube.YtDlpPath = v
	}
	if v := os.Getenv("CALLIOPE_DOWNLOAD_DIR"); v != "" {
		c.Download.Directory = v
	}
}

// expandPaths resolves a leading ~/ in user-supplied paths.
func (c *Config) expandPaths() {
	c.Cache.Path = expandHome(c.Cache.Path)
	c.Download.Directory = expandHome(c.Download.Directory)
	c.Download.StagingDir = expandHome(c.Download.StagingDir)
	c.Log.FilePath = expandHome(c.Log.FilePath)
	for i, p := range c.Watch.Paths {
		c.Watch.Paths[i] = expandHome(p)
	}
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}

func (c *Config) validate() error {
	if !logging.ValidLevel(c.Log.Level) {
		return fmt.Errorf("invalid log level: %q", c.Log.Level)
	}
	if !logging.ValidFormat(c.Log.Format) {
		return fmt.Errorf("invalid log format: %q", c.Log.Format)
	}
	if c.Cache.Enabled {
		if c.Cache.Path == "" {
			return fmt.Errorf("cache path is required when the cache is enabled")
		}
		if c.Cache.TTLHours <= 0 {
			return fmt.Errorf("cache ttl_hours must be positive, got %d", c.Cache.TTLHours)
		}
	}
	if err := c.Scoring.Weights().Validate(); err != nil {
		return fmt.Errorf("scoring: %w", err)
	}
	if c.Download.Parallel < 1 {
		return fmt.Errorf("download parallel must be at least 1, got %d", c.Download.Parallel)
	}
	switch c.Download.AudioFormat {
	case "m4a", "mp3", "opus", "flac", "vorbis", "wav":
	default:
		return fmt.Errorf("unsupported audio format: %q", c.Download.AudioFormat)
	}
	if c.Providers.YouTube.SearchResults < 1 || c.Providers.YouTube.SearchResults > 25 {
		return fmt.Errorf("youtube search_results must be between 1 and 25, got %d",
			c.Providers.YouTube.SearchResults)
	}
	if c.Fetch.TimeoutSeconds <= 0 {
		return fmt.Errorf("fetch timeout_seconds must be positive, got %d", c.Fetch.TimeoutSeconds)
	}
	if c.Watch.DebounceMS < 0 {
		return fmt.Errorf("watch debounce_ms must not be negative, got %d", c.Watch.DebounceMS)
	}
	return nil
}

// MissingCredentials lists enabled providers whose required credentials are
// absent. These providers are skipped at runtime rather than failing Load.
func (c *Config) MissingCredentials() []string {
	var missing []string
	if c.Providers.Discogs.Enabled && c.Providers.Discogs.Token == "" {
		missing = append(missing, "discogs")
	}
	if c.Providers.Spotify.Enabled &&
		(c.Providers.Spotify.ClientID == "" || c.Providers.Spotify.ClientSecret == "") {
		missing = append(missing, "spotify")
	}
	if c.Providers.LastFm.Enabled && c.Providers.LastFm.APIKey == "" {
		missing = append(missing, "lastfm")
	}
	if c.Providers.Genius.Enabled && c.Providers.Genius.AccessToken == "" {
		missing = append(missing, "genius")
	}
	return missing
}

// Redacted returns a copy safe for display, with credentials masked.
func (c *Config) Redacted() *Config {
	out := *c
	mask := func(s string) string {
		if s == "" {
			return ""
		}
		return "********"
	}
	out.Providers.Discogs.Token = mask(c.Providers.Discogs.Token)
	out.Providers.Spotify.ClientID = mask(c.Providers.Spotify.ClientID)
	out.Providers.Spotify.ClientSecret = mask(c.Providers.Spotify.ClientSecret)
	out.Providers.LastFm.APIKey = mask(c.Providers.LastFm.APIKey)
	out.Providers.Genius.AccessToken = mask(c.Providers.Genius.AccessToken)
	return &out
}
