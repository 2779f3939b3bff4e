// Package config loads sectors settings from defaults, an optional YAML
// file, SECTORS_* environment variables and command-line flags, in that
// order of increasing precedence.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. SECTORS_SERVER_URL.
const EnvPrefix = "SECTORS"

// Config is the full set of settings.
type Config struct {
	Server  ServerConfig  `mapstructure:"server"`
	Session SessionConfig `mapstructure:"session"`
	Logging LoggingConfig `mapstructure:"logging"`
	Form    FormConfig    `mapstructure:"form"`
}

// ServerConfig locates the sector service.
type ServerConfig struct {
	URL       string `mapstructure:"url"`
	TimeoutMs int    `mapstructure:"timeout_ms"`
}

// Timeout returns the per-request timeout.
func (c ServerConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutMs) * time.Millisecond
}

// SessionConfig controls where the session cookie is kept.
type SessionConfig struct {
	DBPath string `mapstructure:"db_path"`
}

// LoggingConfig controls the debug log file.
type LoggingConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Level   string `mapstructure:"level"`
	File    string `mapstructure:"file"`
}

// FormConfig tunes the interactive form.
type FormConfig struct {
	// LatePolicy is "discard" or "overwrite"; see form.LatePolicy.
	LatePolicy string `mapstructure:"late_policy"`
	NotifyMs   int    `mapstructure:"notify_ms"`
}

// NotifyDuration returns how long notifications stay visible.
func (c FormConfig) NotifyDuration() time.Duration {
	return time.Duration(c.NotifyMs) * time.Millisecond
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			URL:       "http://localhost:8080",
			TimeoutMs: 10000,
		},
		Session: SessionConfig{
			DBPath: filepath.Join(DataDir(), "session.db"),
		},
		Logging: LoggingConfig{
			Enabled: true,
			Level:   "info",
			File:    filepath.Join(DataDir(), "sectors.log"),
		},
		Form: FormConfig{
			LatePolicy: "discard",
			NotifyMs:   3000,
		},
	}
}

// SetDefaults registers every default with v so that unmarshalling and
// environment lookups see all keys.
func SetDefaults(v *viper.Viper) {
	d := Default()
	v.SetDefault("server.url", d.Server.URL)
	v.SetDefault("server.timeout_ms", d.Server.TimeoutMs)
	v.SetDefault("session.db_path", d.Session.DBPath)
	v.SetDefault("logging.enabled", d.Logging.Enabled)
	v.SetDefault("logging.level", d.Logging.Level)
	v.SetDefault("logging.file", d.Logging.File)
	v.SetDefault("form.late_policy", d.Form.LatePolicy)
	v.SetDefault("form.notify_ms", d.Form.NotifyMs)
}

// flagKeys maps command-line flags to config keys.
var flagKeys = map[string]string{
	"server":      "server.url",
	"timeout-ms":  "server.timeout_ms",
	"session-db":  "session.db_path",
	"log-level":   "logging.level",
	"late-policy": "form.late_policy",
}

// RegisterFlags adds the overridable settings to fs.
func RegisterFlags(fs *pflag.FlagSet) {
	d := Default()
	fs.StringP("config", "c", "", "config file (default is "+ConfigFile()+")")
	fs.String("server", d.Server.URL, "sector service base URL")
	fs.Int("timeout-ms", d.Server.TimeoutMs, "per-request timeout in milliseconds")
	fs.String("session-db", d.Session.DBPath, "session cookie database")
	fs.String("log-level", d.Logging.Level, "log level (debug, info, warn, error)")
	fs.String("late-policy", d.Form.LatePolicy, "late saved-selection policy (discard, overwrite)")
}

// New builds a viper instance with defaults, environment binding and any
// flags from fs that were registered with RegisterFlags. fs may be nil.
func New(fs *pflag.FlagSet) (*viper.Viper, error) {
	v := viper.New()
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	// SECTORS_SERVER_URL for server.url
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if fs != nil {
		for name, key := range flagKeys {
			if f := fs.Lookup(name); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("binding flag %s: %w", name, err)
				}
			}
		}
		if f := fs.Lookup("config"); f != nil {
			if err := v.BindPFlag("config", f); err != nil {
				return nil, fmt.Errorf("binding flag config: %w", err)
			}
		}
	}
	return v, nil
}

// ReadFile loads the config file named by the "config" key, or config.yaml
// from the config directory. A missing default file is not an error; a
// missing explicit file is.
func ReadFile(v *viper.Viper) error {
	if cfgFile := v.GetString("config"); cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return fmt.Errorf("reading config %s: %w", cfgFile, err)
		}
		return nil
	}

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(ConfigDir())
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("reading config: %w", err)
	}
	return nil
}

// Load unmarshals v into a Config and validates it.
func Load(v *viper.Viper) (*Config, error) {
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}
	cfg.Session.DBPath = expandHome(cfg.Session.DBPath)
	cfg.Logging.File = expandHome(cfg.Logging.File)

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, errs
	}
	return &cfg, nil
}

// ConfigDir returns the path to the user's config directory.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "sectors")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".sectors"
	}
	return filepath.Join(home, ".config", "sectors")
}

// ConfigFile returns the path to the default config file.
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}

// DataDir holds the session database and the log file.
func DataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".sectors"
	}
	return filepath.Join(home, ".sectors")
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
