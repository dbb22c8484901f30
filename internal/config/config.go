package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-viper/mapstructure/v2"
	"github.com/hashicorp/go-multierror"
	toml "github.com/knadh/koanf/parsers/toml/v2"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
	gotoml "github.com/pelletier/go-toml/v2"
	"github.com/robfig/cron/v3"

	"github.com/belphemur/hebrew-calendar/internal/constants"
	"github.com/belphemur/hebrew-calendar/internal/logging"
)

// EnvPrefix prefixes environment overrides, e.g. HCAL_SERVICE_PORT=9090.
const EnvPrefix = "HCAL_"

// Config holds the application configuration
type Config struct {
	Dataset DatasetConfig `koanf:"dataset" toml:"dataset"`
	Service ServiceConfig `koanf:"service" toml:"service"`
	Publish PublishConfig `koanf:"publish" toml:"publish"`
	OAuth   *OAuthConfig  `koanf:"-" toml:"-"` // From environment
}

// DatasetConfig describes where the dataset comes from and how it is verified
type DatasetConfig struct {
	Dir              string `koanf:"dir" toml:"dir"`
	Name             string `koanf:"name" toml:"name"`
	RequireDigest    bool   `koanf:"require_digest" toml:"require_digest"`
	ASCIIEscape      bool   `koanf:"ascii_escape" toml:"ascii_escape"`
	Watch            bool   `koanf:"watch" toml:"watch"`
	ReloadSchedule   string `koanf:"reload_schedule" toml:"reload_schedule"`
	SnapshotFallback bool   `koanf:"snapshot_fallback" toml:"snapshot_fallback"`
}

// ServiceConfig holds the service configuration
type ServiceConfig struct {
	Port            int           `koanf:"port" toml:"port"`
	LogLevel        string        `koanf:"log_level" toml:"log_level"`
	Development     bool          `koanf:"development" toml:"development"`
	StateFile       string        `koanf:"state_file" toml:"state_file"`
	WeekStart       string        `koanf:"week_start" toml:"week_start"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout" toml:"shutdown_timeout"`
}

// PublishConfig holds the Google Calendar publishing parameters
type PublishConfig struct {
	CalendarID    string   `koanf:"calendar_id" toml:"calendar_id"`
	Kinds         []string `koanf:"kinds" toml:"kinds"`
	TokenFile     string   `koanf:"token_file" toml:"token_file"`
	LookAheadDays int      `koanf:"look_ahead_days" toml:"look_ahead_days"`
	OnReload      bool     `koanf:"on_reload" toml:"on_reload"` // Republish after every dataset reload
}

// OAuthConfig holds the Google OAuth configuration from environment
type OAuthConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

func defaults() map[string]any {
	return map[string]any{
		"dataset.dir":               "data",
		"dataset.name":              constants.DefaultDatasetName,
		"dataset.require_digest":    false,
		"dataset.ascii_escape":      false,
		"dataset.watch":             true,
		"dataset.reload_schedule":   "",
		"dataset.snapshot_fallback": true,
		"service.port":              8080,
		"service.log_level":         "info",
		"service.development":       false,
		"service.state_file":        "data/hebrew-calendar.db",
		"service.week_start":        "Monday",
		"service.shutdown_timeout":  "10s",
		"publish.calendar_id":       "primary",
		"publish.kinds":             []string{"feast", "sabbath", "new_moon", "new_year"},
		"publish.token_file":        "data/token.json",
		"publish.look_ahead_days":   90,
		"publish.on_reload":         false,
	}
}

// envKey maps HCAL_DATASET_REQUIRE_DIGEST to dataset.require_digest.
func envKey(s string) string {
	return strings.Replace(strings.ToLower(strings.TrimPrefix(s, EnvPrefix)), "_", ".", 1)
}

// Load reads defaults, then the TOML file at path (skipped when path is
// empty), then HCAL_ environment overrides.
func Load(path string) (*Config, error) {
	logger := logging.GetLogger("config")
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	baseDir := ""
	if path != "" {
		if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
			logger.Error().Err(err).Str("path", path).Msg("Failed to load config file")
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
		baseDir = filepath.Dir(path)
	}

	if err := k.Load(env.Provider(EnvPrefix, ".", envKey), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment overrides: %w", err)
	}

	var cfg Config
	err := k.UnmarshalWithConf("", &cfg, koanf.UnmarshalConf{
		Tag: "koanf",
		DecoderConfig: &mapstructure.DecoderConfig{
			DecodeHook: mapstructure.ComposeDecodeHookFunc(
				mapstructure.StringToTimeDurationHookFunc(),
				mapstructure.StringToSliceHookFunc(","),
			),
			Result:           &cfg,
			WeaklyTypedInput: true,
		},
	})
	if err != nil {
		logger.Error().Err(err).Msg("Failed to decode configuration")
		return nil, fmt.Errorf("failed to decode configuration: %w", err)
	}

	// Relative paths are resolved against the config file's directory
	if baseDir != "" {
		cfg.Dataset.Dir = resolvePath(baseDir, cfg.Dataset.Dir)
		cfg.Service.StateFile = resolvePath(baseDir, cfg.Service.StateFile)
		cfg.Publish.TokenFile = resolvePath(baseDir, cfg.Publish.TokenFile)
	}

	cfg.OAuth = &OAuthConfig{
		ClientID:     os.Getenv("GOOGLE_OAUTH_CLIENT_ID"),
		ClientSecret: os.Getenv("GOOGLE_OAUTH_CLIENT_SECRET"),
		RedirectURL:  os.Getenv("GOOGLE_OAUTH_REDIRECT_URL"),
	}

	if err := validate(&cfg); err != nil {
		return nil, err
	}

	logger.Debug().Str("path", path).Str("dataset_dir", cfg.Dataset.Dir).Msg("Configuration loaded")
	return &cfg, nil
}

func resolvePath(baseDir, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(baseDir, p)
}

// validate collects every configuration problem rather than stopping at the first
func validate(cfg *Config) error {
	var result *multierror.Error

	if cfg.Dataset.Dir == "" {
		result = multierror.Append(result, errors.New("dataset.dir is required"))
	}
	if cfg.Dataset.Name == "" {
		result = multierror.Append(result, errors.New("dataset.name is required"))
	}
	if cfg.Dataset.ReloadSchedule != "" {
		if _, err := cron.ParseStandard(cfg.Dataset.ReloadSchedule); err != nil {
			result = multierror.Append(result, fmt.Errorf("invalid dataset.reload_schedule %q: %w", cfg.Dataset.ReloadSchedule, err))
		}
	}

	if cfg.Service.Port < 1 || cfg.Service.Port > 65535 {
		result = multierror.Append(result, fmt.Errorf("service.port must be between 1 and 65535, got %d", cfg.Service.Port))
	}
	if !logging.IsValidLevel(cfg.Service.LogLevel) {
		result = multierror.Append(result, fmt.Errorf("invalid service.log_level: %s", cfg.Service.LogLevel))
	}
	if !constants.IsValidDayOfWeek(cfg.Service.WeekStart) {
		result = multierror.Append(result, fmt.Errorf("invalid service.week_start: %s", cfg.Service.WeekStart))
	}
	if cfg.Service.ShutdownTimeout <= 0 {
		result = multierror.Append(result, errors.New("service.shutdown_timeout must be positive"))
	}

	for _, kind := range cfg.Publish.Kinds {
		if _, err := constants.ParseEventKind(kind); err != nil {
			result = multierror.Append(result, fmt.Errorf("publish.kinds: %w", err))
		}
	}
	if cfg.Publish.LookAheadDays < 1 {
		result = multierror.Append(result, errors.New("publish.look_ahead_days must be positive"))
	}

	return result.ErrorOrNil()
}

// ValidatePublish checks the settings only the publish command needs
func (c *Config) ValidatePublish() error {
	var result *multierror.Error
	if c.Publish.CalendarID == "" {
		result = multierror.Append(result, errors.New("publish.calendar_id is required"))
	}
	if c.Publish.TokenFile == "" {
		result = multierror.Append(result, errors.New("publish.token_file is required"))
	}
	if c.OAuth == nil || c.OAuth.ClientID == "" {
		result = multierror.Append(result, errors.New("GOOGLE_OAUTH_CLIENT_ID environment variable is required"))
	}
	if c.OAuth == nil || c.OAuth.ClientSecret == "" {
		result = multierror.Append(result, errors.New("GOOGLE_OAUTH_CLIENT_SECRET environment variable is required"))
	}
	return result.ErrorOrNil()
}

// EventKinds returns the configured publish kinds as typed values
func (c *Config) EventKinds() []constants.EventKind {
	kinds := make([]constants.EventKind, 0, len(c.Publish.Kinds))
	for _, k := range c.Publish.Kinds {
		if kind, err := constants.ParseEventKind(k); err == nil {
			kinds = append(kinds, kind)
		}
	}
	return kinds
}

// WeekStartDay returns the configured first day of the week
func (c *Config) WeekStartDay() time.Weekday {
	wd, err := constants.ParseDayOfWeek(c.Service.WeekStart)
	if err != nil {
		return time.Monday
	}
	return wd
}

// DatasetPath returns the full path of the primary dataset file
func (c *Config) DatasetPath() string {
	return filepath.Join(c.Dataset.Dir, c.Dataset.Name)
}

// TOML renders the effective configuration. OAuth secrets are never included.
func (c *Config) TOML() ([]byte, error) {
	out, err := gotoml.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("failed to encode configuration: %w", err)
	}
	return out, nil
}
