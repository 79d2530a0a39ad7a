package storedb

import (
	"fmt"
	"time"
)

// validate checks that a live value conforms to a schema node. It is
// called on the side of the conversion where the live representation is
// materialized: before conversion when flattening, after reconstruction
// when restoring. Returned errors carry only the reason; the converter
// adds path context.
func (r *Registry) validate(value any, node SchemaNode) error {
	if value == nil {
		if node.AllowsNone() {
			return nil
		}
		return fmt.Errorf("%w: nil not allowed by %s", ErrValidation, node)
	}

	switch n := node.(type) {
	case *SchemaScalar:
		return validateScalar(value, n)
	case *SchemaList:
		list, ok := value.([]any)
		if !ok {
			return fmt.Errorf("%w: expected []any for %s, got %T", ErrValidation, n, value)
		}
		for i, item := range list {
			if err := r.validate(item, n.Child); err != nil {
				return fmt.Errorf("element %d: %w", i, err)
			}
		}
		return nil
	case *SchemaDict:
		dict, ok := value.(map[any]any)
		if !ok {
			return fmt.Errorf("%w: expected map[any]any for %s, got %T", ErrValidation, n, value)
		}
		for key, val := range dict {
			if err := r.validate(key, n.Key); err != nil {
				return fmt.Errorf("key %v: %w", key, err)
			}
			if err := r.validate(val, n.Value); err != nil {
				return fmt.Errorf("value of %v: %w", key, err)
			}
		}
		return nil
	case *SchemaObject:
		obj, ok := value.(Persistable)
		if !ok {
			return fmt.Errorf("%w: expected Persistable for %s, got %T", ErrValidation, n, value)
		}
		if _, ok := r.schemas[obj.TypeTag()]; !ok {
			return fmt.Errorf("%w: class %q is not registered", ErrValidation, obj.TypeTag())
		}
		return nil
	default:
		return newUnsupportedSchemaError(node)
	}
}

func validateScalar(value any, node *SchemaScalar) error {
	var ok bool
	switch node.Kind {
	case KindBool:
		_, ok = value.(bool)
	case KindInt:
		_, ok = value.(int64)
	case KindFloat:
		_, ok = value.(float64)
	case KindString:
		_, ok = value.(string)
	case KindBinary:
		_, ok = value.([]byte)
	case KindDateTime:
		_, ok = value.(time.Time)
	default:
		return fmt.Errorf("%w: scalar kind %s", ErrUnsupportedSchema, node.Kind)
	}
	if !ok {
		return fmt.Errorf("%w: expected %s, got %T", ErrValidation, node.Kind, value)
	}
	return nil
}
