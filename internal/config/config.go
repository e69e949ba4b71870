// Package config resolves where track keeps its files and how it logs.
//
// Values come from, in increasing precedence: built-in defaults, an optional
// TOML config file, TRACK_* environment variables and command-line flags.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"timetrack/internal/logger"
	"timetrack/internal/tracker"
)

const (
	appName = "track"

	DefaultLockFile     = "track.lock"
	DefaultDatabaseFile = "db.json"
	DefaultLogLevel     = "warn"
)

// Config is the resolved configuration.
type Config struct {
	DataDir      string    `mapstructure:"data_dir"`
	LockFile     string    `mapstructure:"lock_file"`
	DatabaseFile string    `mapstructure:"database_file"`
	Log          LogConfig `mapstructure:"log"`
}

// LogConfig controls logging.
type LogConfig struct {
	Level      string `mapstructure:"level"`
	File       string `mapstructure:"file"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

// Options tells Load where to look.
type Options struct {
	// ConfigFile is an explicit config path. When empty, config.toml in
	// ConfigDir() is used if present.
	ConfigFile string
	// Flags, when set, are bound to configuration keys of the same name.
	Flags *pflag.FlagSet
}

// flagKeys maps command-line flag names to configuration keys.
var flagKeys = map[string]string{
	"data-dir":  "data_dir",
	"log-level": "log.level",
	"log-file":  "log.file",
}

// Load resolves the configuration.
func Load(opts Options) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetEnvPrefix("TRACK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if opts.Flags != nil {
		for flag, key := range flagKeys {
			if f := opts.Flags.Lookup(flag); f != nil {
				if err := v.BindPFlag(key, f); err != nil {
					return nil, fmt.Errorf("bind flag %s: %w", flag, err)
				}
			}
		}
	}

	v.SetConfigType("toml")
	if opts.ConfigFile != "" {
		v.SetConfigFile(opts.ConfigFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", opts.ConfigFile, err)
		}
	} else {
		v.SetConfigName("config")
		v.AddConfigPath(ConfigDir())
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("data_dir", DataDir())
	v.SetDefault("lock_file", DefaultLockFile)
	v.SetDefault("database_file", DefaultDatabaseFile)
	v.SetDefault("log.level", DefaultLogLevel)
	v.SetDefault("log.file", "")
	v.SetDefault("log.max_size_mb", logger.DefaultMaxSizeMB)
	v.SetDefault("log.max_backups", logger.DefaultMaxBackups)
	v.SetDefault("log.max_age_days", logger.DefaultMaxAgeDays)
	v.SetDefault("log.compress", false)
}

// Validate checks the configuration for values that cannot work.
func (c *Config) Validate() error {
	var errs []error
	if c.DataDir == "" {
		errs = append(errs, errors.New("data_dir must not be empty"))
	}
	if c.LockFile == "" {
		errs = append(errs, errors.New("lock_file must not be empty"))
	}
	if c.DatabaseFile == "" {
		errs = append(errs, errors.New("database_file must not be empty"))
	}
	if _, err := logger.ParseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	if c.LockFile != "" && c.LockPath() == c.DatabasePath() {
		errs = append(errs, errors.New("lock_file and database_file must differ"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("invalid config: %w", errors.Join(errs...))
	}
	return nil
}

// LockPath returns the absolute lock file location. Relative names are
// resolved against DataDir.
func (c *Config) LockPath() string { return c.resolve(c.LockFile) }

// DatabasePath returns the absolute database location. Relative names are
// resolved against DataDir.
func (c *Config) DatabasePath() string { return c.resolve(c.DatabaseFile) }

// TrackerPaths returns the file locations for tracker.Open.
func (c *Config) TrackerPaths() tracker.Paths {
	return tracker.Paths{LockFile: c.LockPath(), DatabaseFile: c.DatabasePath()}
}

// Logger returns the logging configuration.
func (c *Config) Logger() logger.Config {
	file := c.Log.File
	if file != "" {
		file = c.resolve(file)
	}
	return logger.Config{
		Level:      c.Log.Level,
		File:       file,
		MaxSizeMB:  c.Log.MaxSizeMB,
		MaxBackups: c.Log.MaxBackups,
		MaxAgeDays: c.Log.MaxAgeDays,
		Compress:   c.Log.Compress,
	}
}

func (c *Config) resolve(p string) string {
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(c.DataDir, p)
}

// ConfigDir returns the directory searched for config.toml.
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, appName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "." + appName
	}
	return filepath.Join(home, ".config", appName)
}

// DataDir returns the default directory for the lock and database files.
func DataDir() string {
	if xdg := os.Getenv("XDG_DATA_HOME"); xdg != "" {
		return filepath.Join(xdg, appName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "." + appName
	}
	return filepath.Join(home, ".local", "share", appName)
}
