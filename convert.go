package storedb

import (
	"errors"
	"fmt"
	"reflect"
)

// rootEntry is one prepared top-level conversion: the value, the object
// node it converts under, and the label its breadcrumb path starts with.
type rootEntry struct {
	value any
	node  SchemaNode
	label string
}

// conversionSide captures the direction-specific half of a conversion.
// The flattening side validates live values before converting them and
// writes fields into records; the restoring side builds live objects,
// validates them after reconstruction, and downgrades validation
// failures to warnings.
type conversionSide interface {
	// prepare filters and pairs the top-level values with their object
	// nodes.
	prepare(objects []any) ([]rootEntry, error)

	// preValidate runs on a value before it is converted; postValidate
	// runs on the converted result. Each side implements exactly one of
	// the two, so the live representation is always the one validated.
	preValidate(value any, node SchemaNode) error
	postValidate(converted any, node SchemaNode) error

	// objectSchema resolves the schema for a value under an object
	// node. Errors wrapping ErrValidation describe bad data; any other
	// error is a configuration problem and aborts the conversion.
	objectSchema(value any) (*ObjectSchema, error)
	newTarget(class string) (any, error)
	getField(src any, f Field) (any, error)
	setField(dst any, f Field, value any) error

	// handleValidation decides the fate of a validation failure. A
	// non-nil return aborts the conversion; nil means the caller keeps
	// going with the offending value.
	handleValidation(cause error, value any, node SchemaNode, path string) error
}

// converter walks a value graph guided by schema nodes, delegating the
// direction-specific work to its side. The memo maps source identity to
// converted target; installing the target before recursing into fields
// is what preserves shared references and terminates cycles.
type converter struct {
	side     conversionSide
	memo     map[any]any
	maxDepth int
}

// convertObjectList converts a list of top-level values, sharing one
// memo across the whole call so objects reachable from several roots
// convert exactly once.
func (c *converter) convertObjectList(objects []any) ([]any, error) {
	c.memo = make(map[any]any)
	roots, err := c.side.prepare(objects)
	if err != nil {
		return nil, err
	}
	converted := make([]any, 0, len(roots))
	for _, root := range roots {
		value, err := c.convertData(root.value, root.node, 0, root.label)
		if err != nil {
			return nil, err
		}
		converted = append(converted, value)
	}
	return converted, nil
}

func (c *converter) convertData(data any, node SchemaNode, depth int, path string) (any, error) {
	if depth > c.maxDepth {
		return nil, newValidationError(path, node, data,
			fmt.Sprintf("graph deeper than %d levels", c.maxDepth))
	}

	if err := c.side.preValidate(data, node); err != nil {
		if herr := c.side.handleValidation(err, data, node, path); herr != nil {
			return nil, herr
		}
	}

	var converted any
	var err error
	switch n := node.(type) {
	case *SchemaScalar:
		converted = data
	case *SchemaList:
		converted, err = c.convertList(data, n, depth, path)
	case *SchemaDict:
		converted, err = c.convertDict(data, n, depth, path)
	case *SchemaObject:
		converted, err = c.convertObject(data, node, depth, path)
	default:
		return nil, newUnsupportedSchemaError(node)
	}
	if err != nil {
		return nil, err
	}

	if verr := c.side.postValidate(converted, node); verr != nil {
		if herr := c.side.handleValidation(verr, converted, node, path); herr != nil {
			return nil, herr
		}
	}
	return converted, nil
}

func (c *converter) convertList(data any, node *SchemaList, depth int, path string) (any, error) {
	if data == nil {
		return nil, nil
	}
	list, ok := data.([]any)
	if !ok {
		cause := fmt.Errorf("%w: expected []any, got %T", ErrValidation, data)
		if herr := c.side.handleValidation(cause, data, node, path); herr != nil {
			return nil, herr
		}
		return data, nil
	}
	converted := make([]any, len(list))
	for i, item := range list {
		value, err := c.convertData(item, node.Child, depth+1, fmt.Sprintf("%s[%d]", path, i))
		if err != nil {
			return nil, err
		}
		converted[i] = value
	}
	return converted, nil
}

func (c *converter) convertDict(data any, node *SchemaDict, depth int, path string) (any, error) {
	if data == nil {
		return nil, nil
	}
	dict, ok := data.(map[any]any)
	if !ok {
		cause := fmt.Errorf("%w: expected map[any]any, got %T", ErrValidation, data)
		if herr := c.side.handleValidation(cause, data, node, path); herr != nil {
			return nil, herr
		}
		return data, nil
	}
	converted := make(map[any]any, len(dict))
	for key, value := range dict {
		entryPath := fmt.Sprintf("%s{%v}", path, key)
		keyPath := entryPath + ".key"
		newKey, err := c.convertData(key, node.Key, depth+1, keyPath)
		if err != nil {
			return nil, err
		}
		newValue, err := c.convertData(value, node.Value, depth+1, entryPath)
		if err != nil {
			return nil, err
		}
		if newKey != nil && !reflect.TypeOf(newKey).Comparable() {
			cause := fmt.Errorf("%w: converted key of type %T is not usable as a dict key", ErrValidation, newKey)
			if herr := c.side.handleValidation(cause, newKey, node.Key, keyPath); herr != nil {
				return nil, herr
			}
			continue
		}
		// Two distinct source keys converting to the same key would
		// silently drop an entry; that is data loss, not a feature.
		if _, collision := converted[newKey]; collision {
			cause := fmt.Errorf("%w: duplicate converted key %v", ErrValidation, newKey)
			if herr := c.side.handleValidation(cause, newKey, node.Key, keyPath); herr != nil {
				return nil, herr
			}
		}
		converted[newKey] = newValue
	}
	return converted, nil
}

func (c *converter) convertObject(data any, node SchemaNode, depth int, path string) (any, error) {
	if data == nil {
		return nil, nil
	}

	// The declared node is deliberately ignored from here on: the value
	// may belong to any registered class, so resolution goes through the
	// runtime tag (or the stored tag) instead.
	schema, err := c.side.objectSchema(data)
	if err != nil {
		if errors.Is(err, ErrValidation) {
			if herr := c.side.handleValidation(err, data, node, path); herr != nil {
				return nil, herr
			}
			return data, nil
		}
		return nil, err
	}

	if target, seen := c.memo[data]; seen {
		return target, nil
	}
	target, err := c.side.newTarget(schema.Class)
	if err != nil {
		return nil, err
	}
	// Install before recursing into fields; a cycle back to this object
	// resolves to the in-progress target instead of recursing forever.
	c.memo[data] = target

	for _, f := range schema.Fields {
		fieldPath := path + "." + f.Name
		value, err := c.side.getField(data, f)
		if err != nil {
			if herr := c.side.handleValidation(err, data, f.Schema, fieldPath); herr != nil {
				return nil, herr
			}
			value = nil
		}
		converted, err := c.convertData(value, f.Schema, depth+1, fieldPath)
		if err != nil {
			return nil, err
		}
		if err := c.side.setField(target, f, converted); err != nil {
			if herr := c.side.handleValidation(err, converted, f.Schema, fieldPath); herr != nil {
				return nil, herr
			}
		}
	}
	return target, nil
}
