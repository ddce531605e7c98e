package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/julianstephens/habitpal/internal/constants"
	"github.com/julianstephens/habitpal/internal/models"
	"github.com/julianstephens/habitpal/internal/progress"
)

// Config is the merged configuration: defaults, then the YAML file, then .env and the environment.
// CLI flags are applied last by the caller.
type Config struct {
	Database string            `yaml:"database"`
	DataDir  string            `yaml:"data_dir"`
	Timezone string            `yaml:"timezone"`
	Debug    bool              `yaml:"debug"`
	Server   ServerConfig      `yaml:"server"`
	Store    []models.FoodItem `yaml:"store"`
}

// ServerConfig configures the API server.
type ServerConfig struct {
	Listen          string        `yaml:"listen"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	WriteTimeout    time.Duration `yaml:"write_timeout"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Database: constants.DefaultDBPath,
		DataDir:  constants.DefaultConfigDir,
		Timezone: constants.DefaultTimezone,
		Server: ServerConfig{
			Listen:          constants.DefaultListenAddr,
			ReadTimeout:     constants.DefaultReadTimeout,
			WriteTimeout:    constants.DefaultWriteTimeout,
			ShutdownTimeout: constants.DefaultShutdownTimeout,
		},
		Store: DefaultCatalog(),
	}
}

// DefaultCatalog is the food sold when the config file does not define a store.
func DefaultCatalog() []models.FoodItem {
	return []models.FoodItem{
		{Name: "kibble", Price: 10},
		{Name: "apple", Price: 15},
		{Name: "fish", Price: 25},
		{Name: "cake", Price: 40},
	}
}

// Load reads the YAML file at path (a missing file is not an error), then .env in the working
// directory, then HABITPAL_* environment variables.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(ExpandHome(path))
		switch {
		case err == nil:
			if err := decodeYAML(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("failed to parse config %s: %w", path, err)
			}
		case errors.Is(err, os.ErrNotExist):
		default:
			return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
		}
	}

	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Config{}, fmt.Errorf("failed to load .env: %w", err)
	}
	if err := cfg.applyEnv(); err != nil {
		return Config{}, err
	}

	cfg.Database = ExpandHome(cfg.Database)
	cfg.DataDir = ExpandHome(cfg.DataDir)

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func decodeYAML(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func (c *Config) applyEnv() error {
	if v := env("DATABASE"); v != "" {
		c.Database = v
	}
	if v := env("DATA_DIR"); v != "" {
		c.DataDir = v
	}
	if v := env("TIMEZONE"); v != "" {
		c.Timezone = v
	}
	if v := env("LISTEN"); v != "" {
		c.Server.Listen = v
	}
	if v := env("DEBUG"); v != "" {
		debug, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("invalid %sDEBUG: %w", constants.EnvPrefix, err)
		}
		c.Debug = debug
	}
	return nil
}

func env(key string) string {
	return strings.TrimSpace(os.Getenv(constants.EnvPrefix + key))
}

// Validate checks the catalog, the timezone and the server timeouts.
func (c Config) Validate() error {
	if _, err := progress.ParseZone(c.Timezone); err != nil {
		return fmt.Errorf("invalid timezone: %w", err)
	}
	if len(c.Store) == 0 {
		return fmt.Errorf("store must list at least one food")
	}
	seen := make(map[string]bool, len(c.Store))
	for _, item := range c.Store {
		name := strings.TrimSpace(item.Name)
		if name == "" {
			return fmt.Errorf("store item with empty name")
		}
		if seen[name] {
			return fmt.Errorf("duplicate store item %q", name)
		}
		seen[name] = true
		if item.Price <= 0 {
			return fmt.Errorf("store item %q must have a positive price", name)
		}
	}
	if c.Server.ReadTimeout <= 0 || c.Server.WriteTimeout <= 0 || c.Server.ShutdownTimeout <= 0 {
		return fmt.Errorf("server timeouts must be positive")
	}
	return nil
}

// Food looks up a catalog entry by name.
func (c Config) Food(name string) (models.FoodItem, bool) {
	name = strings.TrimSpace(name)
	for _, item := range c.Store {
		if item.Name == name {
			return item, true
		}
	}
	return models.FoodItem{}, false
}

// ExpandHome replaces a leading "~/" with the user's home directory.
func ExpandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}
