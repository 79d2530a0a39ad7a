package storedb

import (
	"fmt"
	"log/slog"
)

// Option configures an Engine during New.
type Option func(*Engine) error

// WithLogger replaces the engine's logger.
func WithLogger(log *slog.Logger) Option {
	return func(e *Engine) error {
		if log == nil {
			return fmt.Errorf("%w: logger cannot be nil", ErrConfiguration)
		}
		e.log = log
		return nil
	}
}

// WithStore replaces the default file-backed container store.
func WithStore(store ContainerStore) Option {
	return func(e *Engine) error {
		if store == nil {
			return fmt.Errorf("%w: store cannot be nil", ErrConfiguration)
		}
		e.store = store
		return nil
	}
}

// WithFormatVersion sets the format version written into containers.
func WithFormatVersion(version int) Option {
	return func(e *Engine) error {
		if version < 0 {
			return fmt.Errorf("%w: format version must be non-negative, got %d", ErrConfiguration, version)
		}
		e.formatVersion = version
		return nil
	}
}

// WithCompression enables or disables snappy compression of the
// container payload. Containers record the choice, so either setting
// reads both kinds.
func WithCompression(enabled bool) Option {
	return func(e *Engine) error {
		e.compress = enabled
		return nil
	}
}

// WithMaxDepth overrides the recursion depth limit of the graph walk.
func WithMaxDepth(depth int) Option {
	return func(e *Engine) error {
		if depth < 1 {
			return fmt.Errorf("%w: max depth must be positive, got %d", ErrConfiguration, depth)
		}
		e.maxDepth = depth
		return nil
	}
}

// WithUpgradeHook installs the hook invoked between reading a container
// and restoring its records. The default hook only logs a version
// mismatch and passes the records through unchanged.
func WithUpgradeHook(upgrade UpgradeFunc) Option {
	return func(e *Engine) error {
		if upgrade == nil {
			return fmt.Errorf("%w: upgrade hook cannot be nil", ErrConfiguration)
		}
		e.upgrade = upgrade
		return nil
	}
}
