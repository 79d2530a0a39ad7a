package storedb

import (
	"errors"
	"fmt"
)

var (
	// ErrConfiguration indicates the schema set and the registered
	// classes disagree. It is never recovered: it means a build-time
	// bug, not bad data.
	ErrConfiguration = errors.New("invalid persistence configuration")

	// ErrValidation indicates a value does not conform to its schema
	// node. Fatal while saving, downgraded to a warning while restoring.
	ErrValidation = errors.New("value does not conform to schema")

	// ErrCorruptContainer indicates the binary envelope could not be
	// parsed into the (version, records) pair.
	ErrCorruptContainer = errors.New("corrupt container")

	// ErrUnsupportedSchema indicates a SchemaNode outside the four
	// defined variants. This is a programmer error, never recovered.
	ErrUnsupportedSchema = errors.New("unsupported schema item")
)

// ValidationError carries the context needed to localize a bad value:
// the breadcrumb path from the root object down to the value, the schema
// node it failed against, and the reason.
type ValidationError struct {
	Path   string
	Schema SchemaNode
	Value  any
	Reason string
}

func (e *ValidationError) Error() string {
	schema := "<nil>"
	if e.Schema != nil {
		schema = e.Schema.String()
	}
	return fmt.Sprintf("%s: %s (schema %s, path %s)", ErrValidation, e.Reason, schema, e.Path)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

func newValidationError(path string, schema SchemaNode, value any, reason string) *ValidationError {
	return &ValidationError{Path: path, Schema: schema, Value: value, Reason: reason}
}

func newConfigurationError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConfiguration, fmt.Sprintf(format, args...))
}

func newCorruptContainerError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrCorruptContainer, fmt.Sprintf(format, args...))
}

func newUnsupportedSchemaError(node SchemaNode) error {
	return fmt.Errorf("%w: %T", ErrUnsupportedSchema, node)
}
