package storedb

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// LoadConfigFromEnvironment reads engine configuration from STOREDB_*
// environment variables, following the 12-factor convention. Unset
// variables fall back to their defaults during Validate.
func LoadConfigFromEnvironment() (Config, error) {
	cfg := Config{
		Store:    os.Getenv(EnvStore),
		DBPath:   os.Getenv(EnvDBPath),
		LogLevel: os.Getenv(EnvLogLevel),
	}

	if raw := os.Getenv(EnvCompression); raw != "" {
		enabled, err := strconv.ParseBool(raw)
		if err != nil {
			return Config{}, fmt.Errorf("%w: %s=%q is not a boolean", ErrConfiguration, EnvCompression, raw)
		}
		cfg.Compression = &enabled
	}
	if raw := os.Getenv(EnvFormatVersion); raw != "" {
		version, err := strconv.Atoi(raw)
		if err != nil {
			return Config{}, fmt.Errorf("%w: %s=%q is not an integer", ErrConfiguration, EnvFormatVersion, raw)
		}
		cfg.FormatVersion = version
	}
	if raw := os.Getenv(EnvMaxDepth); raw != "" {
		depth, err := strconv.Atoi(raw)
		if err != nil {
			return Config{}, fmt.Errorf("%w: %s=%q is not an integer", ErrConfiguration, EnvMaxDepth, raw)
		}
		cfg.MaxDepth = depth
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// LoadConfigFromFile reads engine configuration from a YAML file.
func LoadConfigFromFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("%w: reading config file: %v", ErrConfiguration, err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("%w: parsing config file %s: %v", ErrConfiguration, path, err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
