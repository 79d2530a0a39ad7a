package storedb

import (
	"log/slog"
)

const (
	// DefaultFormatVersion is the format version written into new
	// containers unless WithFormatVersion overrides it.
	DefaultFormatVersion = 1

	// DefaultMaxDepth bounds the recursive graph walk. The memo already
	// guarantees each object converts once; the limit only exists so a
	// pathological non-cyclic chain fails cleanly instead of exhausting
	// the call stack.
	DefaultMaxDepth = 10000
)

// Engine is the object-graph persistence engine. It is immutable after
// construction; the per-call conversion state lives in the call, so
// concurrent saves and restores over disjoint object graphs are safe.
// Callers must not mutate an object graph while it is being converted.
type Engine struct {
	reg           *Registry
	log           *slog.Logger
	store         ContainerStore
	formatVersion int
	compress      bool
	maxDepth      int
	upgrade       UpgradeFunc
}

// New builds an engine over the given schema set. The registry is built
// once here; an unresolvable or inconsistent schema set is a fatal
// configuration error, not something to recover from later.
func New(schemas []*ObjectSchema, opts ...Option) (*Engine, error) {
	reg, err := NewRegistry(schemas)
	if err != nil {
		return nil, err
	}
	e := &Engine{
		reg:           reg,
		log:           slog.Default().With("component", "storedb"),
		store:         FileStore{},
		formatVersion: DefaultFormatVersion,
		compress:      true,
		maxDepth:      DefaultMaxDepth,
	}
	e.upgrade = e.noopUpgrade
	for _, opt := range opts {
		if err := opt(e); err != nil {
			return nil, err
		}
	}
	return e, nil
}

// Registry exposes the engine's immutable schema lookups.
func (e *Engine) Registry() *Registry { return e.reg }

// FormatVersion returns the version the engine writes into containers.
func (e *Engine) FormatVersion() int { return e.formatVersion }
