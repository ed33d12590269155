// ABOUTME: Configuration loader for the bookshelf client
// ABOUTME: Layers defaults, config file, .env, BOOKSHELF_* env vars and flags via viper

package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

// AppName names the config directory and env prefix.
const AppName = "bookshelf"

// EnvPrefix is prepended to every environment variable.
const EnvPrefix = "BOOKSHELF"

// DefaultAPIURL is used when nothing else names the service.
const DefaultAPIURL = "http://localhost:8000"

// Config holds every client setting. Tags are mapstructure because viper
// decodes through it.
type Config struct {
	APIURL           string        `mapstructure:"api_url"`
	PageSize         int           `mapstructure:"page_size"`
	SuggestionLimit  int           `mapstructure:"suggestion_limit"`
	Debounce         time.Duration `mapstructure:"debounce"`
	ReadingListLimit int           `mapstructure:"reading_list_limit"`
	Timeout          time.Duration `mapstructure:"timeout"`
	Proxy            string        `mapstructure:"proxy"`

	StateBackend string `mapstructure:"state_backend"`
	StateDir     string `mapstructure:"state_dir"`

	LogFile  string `mapstructure:"log_file"`
	LogLevel string `mapstructure:"log_level"`

	DevServer DevServer `mapstructure:"devserver"`
}

// DevServer configures the bundled development catalog service.
type DevServer struct {
	Addr      string        `mapstructure:"addr"`
	JWTSecret string        `mapstructure:"jwt_secret"`
	TokenTTL  time.Duration `mapstructure:"token_ttl"`
}

// SetDefaults registers every key so env vars bind even without a file.
func SetDefaults(v *viper.Viper) {
	v.SetDefault("api_url", DefaultAPIURL)
	v.SetDefault("page_size", 50)
	v.SetDefault("suggestion_limit", 200)
	v.SetDefault("debounce", 300*time.Millisecond)
	v.SetDefault("reading_list_limit", 100)
	v.SetDefault("timeout", 30*time.Second)
	v.SetDefault("proxy", "")
	v.SetDefault("state_backend", "file")
	v.SetDefault("state_dir", DefaultConfigDir())
	v.SetDefault("log_file", "")
	v.SetDefault("log_level", "info")
	v.SetDefault("devserver.addr", ":8000")
	v.SetDefault("devserver.jwt_secret", "")
	v.SetDefault("devserver.token_ttl", 24*time.Hour)
}

// DefaultConfigDir returns the default config directory under XDG_CONFIG_HOME
func DefaultConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, AppName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", AppName)
}

// Load resolves configuration. configFile may be empty, in which case
// config.{yaml,toml,json} in the config directory is used when present.
// A .env file in the working directory is loaded into the environment first
// without overriding variables that are already set.
func Load(v *viper.Viper, configFile string) (*Config, error) {
	if _, err := os.Stat(".env"); err == nil {
		if err := godotenv.Load(); err != nil {
			return nil, errors.Wrap(err, "load .env")
		}
	}

	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configFile != "" {
		if _, err := os.Stat(configFile); err != nil {
			return nil, errors.Wrapf(err, "unable to access config file %s", configFile)
		}
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, errors.Wrapf(err, "read config file %s", configFile)
		}
	} else if dir := DefaultConfigDir(); dir != "" {
		v.SetConfigName("config")
		v.AddConfigPath(dir)
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, errors.Wrap(err, "read config file")
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.Wrap(err, "decode config")
	}
	cfg.APIURL = ensureScheme(strings.TrimRight(cfg.APIURL, "/"))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks ranges the service and engines depend on.
func (c *Config) Validate() error {
	if c.APIURL == "" {
		return errors.New("api_url is required")
	}
	if c.PageSize < 1 || c.PageSize > 100 {
		return errors.Errorf("page_size must be between 1 and 100, got %d", c.PageSize)
	}
	if c.SuggestionLimit < 1 {
		return errors.Errorf("suggestion_limit must be positive, got %d", c.SuggestionLimit)
	}
	if c.Debounce < 0 {
		return errors.Errorf("debounce must not be negative, got %s", c.Debounce)
	}
	if c.ReadingListLimit < 1 || c.ReadingListLimit > 100 {
		return errors.Errorf("reading_list_limit must be between 1 and 100, got %d", c.ReadingListLimit)
	}
	switch c.StateBackend {
	case "file", "sqlite", "memory":
	default:
		return errors.Errorf("state_backend must be file, sqlite or memory, got %q", c.StateBackend)
	}
	return nil
}

// LogDir is where the debug log goes when log_file is not set.
func (c *Config) LogDir() string {
	return c.StateDir
}

// ensureScheme adds a scheme if the URL has none: http for local hosts,
// https otherwise
func ensureScheme(url string) string {
	if url == "" || strings.Contains(url, "://") {
		return url
	}
	if strings.HasPrefix(url, "localhost") || strings.HasPrefix(url, "127.0.0.1") {
		return "http://" + url
	}
	return "https://" + url
}
