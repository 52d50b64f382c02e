package config

import (
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvConfigPath overrides the config file path.
const EnvConfigPath = "PORTALGO_CONFIG"

// DefaultPath is used when EnvConfigPath is not set.
const DefaultPath = "config/server.yaml"

// Server holds all configuration for the simulation server.
type Server struct {
	LogLevel string `yaml:"log_level"`

	// Game content
	MapsDir string `yaml:"maps_dir"` // root of the game filesystem, holds maps/
	Map     string `yaml:"map"`

	TickRate         int           `yaml:"tick_rate"`
	AutosaveInterval time.Duration `yaml:"autosave_interval"` // 0 disables autosave
	RandomSeed       uint64        `yaml:"random_seed"`

	// game_allow_patches
	AllowPatches    bool `yaml:"allow_patches"`
	DebugAssertions bool `yaml:"debug_assertions"`

	Database DatabaseConfig `yaml:"database"`
}

// DatabaseConfig holds PostgreSQL connection parameters.
type DatabaseConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname"`
	SSLMode  string `yaml:"sslmode"`
}

// DSN returns the PostgreSQL connection string.
func (d DatabaseConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		d.User, d.Password, d.Host, d.Port, d.DBName, d.SSLMode,
	)
}

// DefaultServer returns Server config with sensible defaults.
func DefaultServer() Server {
	return Server{
		LogLevel:         "info",
		MapsDir:          ".",
		Map:              "testchmb_a_00",
		TickRate:         66,
		AutosaveInterval: 5 * time.Minute,
		RandomSeed:       1,
		AllowPatches:     true,
		Database: DatabaseConfig{
			Host:     "127.0.0.1",
			Port:     5432,
			User:     "portalgo",
			Password: "portalgo",
			DBName:   "portalgo",
			SSLMode:  "disable",
		},
	}
}

// Path returns the config path from the environment, or DefaultPath.
func Path() string {
	if p := os.Getenv(EnvConfigPath); p != "" {
		return p
	}
	return DefaultPath
}

// LoadServer loads server config from a YAML file.
// If the file doesn't exist, returns defaults.
func LoadServer(path string) (Server, error) {
	cfg := DefaultServer()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if cfg.TickRate <= 0 {
		return cfg, fmt.Errorf("config %s: tick_rate must be positive, got %d", path, cfg.TickRate)
	}

	return cfg, nil
}

// SlogLevel maps LogLevel to a slog level. Unknown names mean info.
func (s Server) SlogLevel() slog.Level {
	switch strings.ToLower(s.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
