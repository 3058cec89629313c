package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"
	_ "time/tzdata" // timezone database for hosts without zoneinfo

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Feed      FeedConfig      `yaml:"feed" mapstructure:"feed"`
	Sync      SyncConfig      `yaml:"sync" mapstructure:"sync"`
	Rating    RatingConfig    `yaml:"rating" mapstructure:"rating"`
	Recommend RecommendConfig `yaml:"recommend" mapstructure:"recommend"`
	Modes     ModesConfig     `yaml:"modes" mapstructure:"modes"`
	Server    ServerConfig    `yaml:"server" mapstructure:"server"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
	Timezone  string          `yaml:"timezone" mapstructure:"timezone"`
}

// FeedConfig configures the upstream frame service client.
type FeedConfig struct {
	BaseURL       string  `yaml:"base_url" mapstructure:"base_url"`
	TimeoutSecs   int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RatePerSec    float64 `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
	Burst         int     `yaml:"burst" mapstructure:"burst"`
	RetryAttempts int     `yaml:"retry_attempts" mapstructure:"retry_attempts"`
	RetryBaseMs   int     `yaml:"retry_base_ms" mapstructure:"retry_base_ms"`
	RetryMaxMs    int     `yaml:"retry_max_ms" mapstructure:"retry_max_ms"`
	CacheSize     int     `yaml:"cache_size" mapstructure:"cache_size"`
	CacheTTLSecs  int     `yaml:"cache_ttl_secs" mapstructure:"cache_ttl_secs"`
}

// SyncConfig configures the time-bin synchronizer.
type SyncConfig struct {
	TickSecs    int `yaml:"tick_secs" mapstructure:"tick_secs"`
	RefreshSecs int `yaml:"refresh_secs" mapstructure:"refresh_secs"`
	GraceSecs   int `yaml:"grace_secs" mapstructure:"grace_secs"`
	DebounceMs  int `yaml:"debounce_ms" mapstructure:"debounce_ms"`
}

// RatingConfig configures the two local-view rules.
type RatingConfig struct {
	Island IslandConfig `yaml:"island" mapstructure:"island"`
	Urban  UrbanConfig  `yaml:"urban" mapstructure:"urban"`
}

// IslandConfig configures the island-local rule.
type IslandConfig struct {
	Borough    string `yaml:"borough" mapstructure:"borough"`
	MinSamples int    `yaml:"min_samples" mapstructure:"min_samples"`
}

// UrbanConfig configures the core-urban rule.
type UrbanConfig struct {
	Borough      string  `yaml:"borough" mapstructure:"borough"`
	MaxLatitude  float64 `yaml:"max_latitude" mapstructure:"max_latitude"`
	MinSamples   int     `yaml:"min_samples" mapstructure:"min_samples"`
	PayWeight    float64 `yaml:"pay_weight" mapstructure:"pay_weight"`
	VolumeWeight float64 `yaml:"volume_weight" mapstructure:"volume_weight"`
	Dampening    float64 `yaml:"dampening" mapstructure:"dampening"`
}

// RecommendConfig configures the recommendation scorer.
type RecommendConfig struct {
	PenaltyPerMile float64 `yaml:"penalty_per_mile" mapstructure:"penalty_per_mile"`
}

// ModesConfig holds the initial local-view toggles for a session.
type ModesConfig struct {
	Island bool `yaml:"island" mapstructure:"island"`
	Urban  bool `yaml:"urban" mapstructure:"urban"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from .env, config.yaml and HOTSPOT_* variables.
// Environment wins over the file; the file wins over defaults.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, eris.Wrap(err, "config: read .env")
	}

	v := viper.New()

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	v.SetEnvPrefix("HOTSPOT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	v.SetDefault("feed.base_url", "http://localhost:8000")
	v.SetDefault("feed.timeout_secs", 15)
	v.SetDefault("feed.rate_per_sec", 10.0)
	v.SetDefault("feed.burst", 5)
	v.SetDefault("feed.retry_attempts", 3)
	v.SetDefault("feed.retry_base_ms", 250)
	v.SetDefault("feed.retry_max_ms", 5000)
	v.SetDefault("feed.cache_size", 32)
	v.SetDefault("feed.cache_ttl_secs", 120)
	v.SetDefault("sync.tick_secs", 30)
	v.SetDefault("sync.refresh_secs", 300)
	v.SetDefault("sync.grace_secs", 45)
	v.SetDefault("sync.debounce_ms", 250)
	v.SetDefault("rating.island.borough", "Staten Island")
	v.SetDefault("rating.island.min_samples", 3)
	v.SetDefault("rating.urban.borough", "Manhattan")
	v.SetDefault("rating.urban.max_latitude", 40.8)
	v.SetDefault("rating.urban.min_samples", 10)
	v.SetDefault("rating.urban.pay_weight", 0.60)
	v.SetDefault("rating.urban.volume_weight", 0.40)
	v.SetDefault("rating.urban.dampening", 0.95)
	v.SetDefault("recommend.penalty_per_mile", 4.0)
	v.SetDefault("modes.island", false)
	v.SetDefault("modes.urban", false)
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"*"})
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("timezone", "America/New_York")

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks values that would otherwise fail deep inside a run.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Feed.BaseURL) == "" {
		return eris.New("config: feed.base_url is required")
	}
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return eris.Errorf("config: server.port %d out of range", c.Server.Port)
	}
	if c.Rating.Urban.PayWeight < 0 || c.Rating.Urban.VolumeWeight < 0 {
		return eris.New("config: rating.urban weights must be non-negative")
	}
	if c.Rating.Urban.PayWeight+c.Rating.Urban.VolumeWeight <= 0 {
		return eris.New("config: rating.urban weights must not both be zero")
	}
	if d := c.Rating.Urban.Dampening; d <= 0 || d > 1 {
		return eris.Errorf("config: rating.urban.dampening %.3f must be in (0, 1]", d)
	}
	if lat := c.Rating.Urban.MaxLatitude; lat < -90 || lat > 90 {
		return eris.Errorf("config: rating.urban.max_latitude %.4f out of range", lat)
	}
	if c.Recommend.PenaltyPerMile < 0 {
		return eris.New("config: recommend.penalty_per_mile must be non-negative")
	}
	if f := c.Log.Format; f != "json" && f != "console" {
		return eris.Errorf("config: log.format %q must be json or console", f)
	}
	if _, err := c.Location(); err != nil {
		return err
	}
	return nil
}

// Location resolves the home timezone used for naive upstream timestamps.
func (c *Config) Location() (*time.Location, error) {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, eris.Wrapf(err, "config: load timezone %q", c.Timezone)
	}
	return loc, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
