package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Simplici0/displayquote/internal/logging"
)

const (
	defaultDBPath     = "./sessions.db"
	defaultPort       = "8080"
	defaultCatalogDir = "./catalogs"
	defaultEnv        = "dev"
)

// Config holds application configuration. Values come from an optional YAML
// file, then environment variables, which win.
type Config struct {
	Env           string         `yaml:"env"`
	Port          string         `yaml:"port"`
	DBPath        string         `yaml:"db_path"`
	CatalogDir    string         `yaml:"catalog_dir"`
	SessionSecret string         `yaml:"session_secret"`
	WatchCatalogs bool           `yaml:"watch_catalogs"`
	Log           logging.Config `yaml:"log"`
}

// Default returns the development defaults.
func Default() Config {
	return Config{
		Env:        defaultEnv,
		Port:       defaultPort,
		DBPath:     defaultDBPath,
		CatalogDir: defaultCatalogDir,
		Log:        logging.DefaultConfig(),
	}
}

// Load builds the configuration. path names a YAML file; when empty the
// CONFIG_FILE variable is used, and when that is empty too only defaults and
// environment apply.
func Load(path string) (Config, error) {
	// Best-effort: local development variables.
	if _, err := loadDotEnv(".env"); err != nil {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	cfg := Default()
	if path == "" {
		path = os.Getenv("CONFIG_FILE")
	}
	if path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return Config{}, err
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	setString := func(key string, dst *string) {
		if v := strings.TrimSpace(os.Getenv(key)); v != "" {
			*dst = v
		}
	}
	setString("ENV", &c.Env)
	setString("PORT", &c.Port)
	setString("DB_PATH", &c.DBPath)
	setString("CATALOG_DIR", &c.CatalogDir)
	setString("SESSION_SECRET", &c.SessionSecret)
	setString("LOG_LEVEL", &c.Log.Level)
	setString("LOG_FORMAT", &c.Log.Format)
	setString("LOG_OUTPUT", &c.Log.Output)

	if v := strings.TrimSpace(os.Getenv("WATCH_CATALOGS")); v != "" {
		watch, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("WATCH_CATALOGS must be a boolean, got %q", v)
		}
		c.WatchCatalogs = watch
	}
	return nil
}

// Validate checks required settings.
func (c Config) Validate() error {
	var errs []error
	if c.Port == "" {
		errs = append(errs, errors.New("port is required"))
	} else if _, err := strconv.Atoi(c.Port); err != nil {
		errs = append(errs, fmt.Errorf("port must be numeric, got %q", c.Port))
	}
	if c.CatalogDir == "" {
		errs = append(errs, errors.New("catalog_dir is required"))
	}
	if c.DBPath == "" {
		errs = append(errs, errors.New("db_path is required"))
	}
	if !c.IsDev() && c.SessionSecret == "" {
		errs = append(errs, errors.New("session_secret is required outside dev"))
	}
	return errors.Join(errs...)
}

// IsDev reports whether the server runs in development mode.
func (c Config) IsDev() bool {
	return c.Env == "" || c.Env == "dev" || c.Env == "development"
}
