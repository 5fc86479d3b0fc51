package common

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/robfig/cron/v3"
)

// Config represents the application configuration
type Config struct {
	Environment string          `toml:"environment"` // "development" or "production"
	Server      ServerConfig    `toml:"server"`
	Storage     StorageConfig   `toml:"storage"`
	Logging     LoggingConfig   `toml:"logging"`
	WebSocket   WebSocketConfig `toml:"websocket"`
	Indexer     IndexerConfig   `toml:"indexer"`
	Scheduler   SchedulerConfig `toml:"scheduler"`
	Metadata    MetadataConfig  `toml:"metadata"`
	Claude      ClaudeConfig    `toml:"claude"`
}

type ServerConfig struct {
	Port int    `toml:"port"`
	Host string `toml:"host"`
}

type StorageConfig struct {
	Badger BadgerConfig `toml:"badger"`
}

// BadgerConfig represents BadgerDB-specific configuration
type BadgerConfig struct {
	Path           string `toml:"path"`             // Database directory path
	ResetOnStartup bool   `toml:"reset_on_startup"` // Delete database on startup for clean test runs
	InMemory       bool   `toml:"in_memory"`        // Keep data off disk entirely
}

type LoggingConfig struct {
	Level  string   `toml:"level"`  // "debug", "info", "warn", "error"
	Output []string `toml:"output"` // "stdout", "file"
}

type WebSocketConfig struct {
	// SnapshotInterval throttles job_snapshot pushes per connection, e.g. "250ms".
	// Empty disables throttling.
	SnapshotInterval string `toml:"snapshot_interval"`
}

type IndexerConfig struct {
	// DocumentDelay paces per-document indexing, e.g. "100ms". Mostly useful in
	// development so progress is observable from the UI.
	DocumentDelay string `toml:"document_delay"`
	// HeartbeatTimeout marks a processing job failed when no document has been
	// touched for this long, e.g. "10m".
	HeartbeatTimeout string `toml:"heartbeat_timeout"`
}

type SchedulerConfig struct {
	Enabled  bool   `toml:"enabled"`
	Schedule string `toml:"schedule"` // Cron schedule for the stale-job sweep
}

type MetadataConfig struct {
	// FieldsDir holds per-collection extraction field definitions (*.yaml)
	// loaded at startup.
	FieldsDir string `toml:"fields_dir"`
}

type ClaudeConfig struct {
	APIKey    string  `toml:"api_key"`
	Model     string  `toml:"model"`
	MaxTokens int     `toml:"max_tokens"`
	Timeout   string  `toml:"timeout"`
	Temperature float32 `toml:"temperature"`
}

// DefaultConfig returns the built-in defaults, overridden by files and env
func DefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Port: 8085,
			Host: "localhost",
		},
		Storage: StorageConfig{
			Badger: BadgerConfig{
				Path: "./data/pharmadoc",
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Output: []string{"stdout"},
		},
		WebSocket: WebSocketConfig{
			SnapshotInterval: "250ms",
		},
		Indexer: IndexerConfig{
			HeartbeatTimeout: "10m",
		},
		Scheduler: SchedulerConfig{
			Enabled:  true,
			Schedule: "*/1 * * * *",
		},
		Metadata: MetadataConfig{
			FieldsDir: "./metadata",
		},
		Claude: ClaudeConfig{
			Model:     "claude-sonnet-4-20250514",
			MaxTokens: 4096,
			Timeout:   "60s",
		},
	}
}

// LoadFromFiles loads configuration with precedence: defaults -> files (in order) -> env.
// Later files override earlier ones.
func LoadFromFiles(paths ...string) (*Config, error) {
	cfg := DefaultConfig()

	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// applyEnvOverrides applies PHARMADOC_* environment variable overrides
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("PHARMADOC_SERVER_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = port
		}
	}
	if v := os.Getenv("PHARMADOC_SERVER_HOST"); v != "" {
		cfg.Server.Host = v
	}
	if v := os.Getenv("PHARMADOC_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("PHARMADOC_BADGER_PATH"); v != "" {
		cfg.Storage.Badger.Path = v
	}
	if v := os.Getenv("ANTHROPIC_API_KEY"); v != "" && cfg.Claude.APIKey == "" {
		cfg.Claude.APIKey = v
	}
}

// ApplyFlagOverrides applies command-line flag overrides (highest priority)
func ApplyFlagOverrides(cfg *Config, port int, host string) {
	if port != 0 {
		cfg.Server.Port = port
	}
	if host != "" {
		cfg.Server.Host = host
	}
}

// Validate checks configuration consistency
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Storage.Badger.Path == "" && !c.Storage.Badger.InMemory {
		return fmt.Errorf("storage.badger.path is required")
	}
	if c.Scheduler.Enabled && c.Scheduler.Schedule != "" {
		if _, err := cron.ParseStandard(c.Scheduler.Schedule); err != nil {
			return fmt.Errorf("invalid scheduler.schedule %q: %w", c.Scheduler.Schedule, err)
		}
	}
	if c.WebSocket.SnapshotInterval != "" {
		if _, err := time.ParseDuration(c.WebSocket.SnapshotInterval); err != nil {
			return fmt.Errorf("invalid websocket.snapshot_interval %q: %w", c.WebSocket.SnapshotInterval, err)
		}
	}
	return nil
}
