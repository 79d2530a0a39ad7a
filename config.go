package storedb

import (
	"fmt"
	"log/slog"
	"os"
)

// Store kinds accepted by Config.Store.
const (
	StoreFile   = "file"
	StoreSQLite = "sqlite"
)

// Environment variables read by LoadConfigFromEnvironment.
const (
	EnvStore         = "STOREDB_STORE"
	EnvDBPath        = "STOREDB_DB_PATH"
	EnvCompression   = "STOREDB_COMPRESSION"
	EnvFormatVersion = "STOREDB_FORMAT_VERSION"
	EnvMaxDepth      = "STOREDB_MAX_DEPTH"
	EnvLogLevel      = "STOREDB_LOG_LEVEL"
)

// Defaults applied by Config.Validate for unset optional fields.
const (
	DefaultStore  = StoreFile
	DefaultDBPath = "storedb.sqlite"
)

// Config holds engine configuration. It contains only data, no
// behavior; it can be built in code, loaded from the environment, or
// loaded from a YAML file, and handed to NewEngineFromConfig.
type Config struct {
	// Store selects the container backend: "file" (default) or
	// "sqlite".
	Store string `yaml:"store"`

	// DBPath is the SQLite database location, used only when Store is
	// "sqlite". Default: storedb.sqlite.
	DBPath string `yaml:"db_path"`

	// Compression toggles snappy compression of container payloads.
	Compression *bool `yaml:"compression"`

	// FormatVersion overrides the version written into containers.
	// Zero means DefaultFormatVersion.
	FormatVersion int `yaml:"format_version"`

	// MaxDepth overrides the graph recursion limit. Zero means
	// DefaultMaxDepth.
	MaxDepth int `yaml:"max_depth"`

	// LogLevel is one of debug, info, warn, error. Default: info.
	LogLevel string `yaml:"log_level"`
}

// Validate checks the configuration and applies defaults to optional
// fields.
func (c *Config) Validate() error {
	if c.Store == "" {
		c.Store = DefaultStore
	}
	if c.Store != StoreFile && c.Store != StoreSQLite {
		return fmt.Errorf("%w: unknown store kind %q", ErrConfiguration, c.Store)
	}
	if c.DBPath == "" {
		c.DBPath = DefaultDBPath
	}
	if c.FormatVersion < 0 {
		return fmt.Errorf("%w: format version must be non-negative, got %d", ErrConfiguration, c.FormatVersion)
	}
	if c.MaxDepth < 0 {
		return fmt.Errorf("%w: max depth must be non-negative, got %d", ErrConfiguration, c.MaxDepth)
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if _, err := parseLogLevel(c.LogLevel); err != nil {
		return err
	}
	return nil
}

func parseLogLevel(level string) (slog.Level, error) {
	switch level {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("%w: unknown log level %q", ErrConfiguration, level)
	}
}

// NewEngineFromConfig validates cfg and builds an engine from it.
// Options are applied afterwards and win over the config.
func NewEngineFromConfig(schemas []*ObjectSchema, cfg Config, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	fromConfig := make([]Option, 0, 5)
	level, err := parseLogLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	fromConfig = append(fromConfig, WithLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: level,
	})).With("component", "storedb")))
	if cfg.Store == StoreSQLite {
		store, err := NewSQLiteStore(cfg.DBPath)
		if err != nil {
			return nil, err
		}
		fromConfig = append(fromConfig, WithStore(store))
	}
	if cfg.Compression != nil {
		fromConfig = append(fromConfig, WithCompression(*cfg.Compression))
	}
	if cfg.FormatVersion > 0 {
		fromConfig = append(fromConfig, WithFormatVersion(cfg.FormatVersion))
	}
	if cfg.MaxDepth > 0 {
		fromConfig = append(fromConfig, WithMaxDepth(cfg.MaxDepth))
	}
	return New(schemas, append(fromConfig, opts...)...)
}
