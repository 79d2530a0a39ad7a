package storedb

import (
	"fmt"
	"log/slog"
	"reflect"
)

// flattener converts live objects into records. Validation runs on the
// live value before conversion, and any failure aborts the save: no
// partially converted list ever reaches a store.
type flattener struct {
	reg *Registry
	log *slog.Logger
}

func (f *flattener) prepare(objects []any) ([]rootEntry, error) {
	roots := make([]rootEntry, 0, len(objects))
	for _, obj := range objects {
		if obj == nil {
			continue
		}
		p, ok := obj.(Persistable)
		if !ok {
			f.log.Warn("skipping non-persistable root object", "type", fmt.Sprintf("%T", obj))
			continue
		}
		if _, registered := f.reg.SchemaFor(p.TypeTag()); !registered {
			f.log.Warn("skipping root object with unregistered class", "class", p.TypeTag())
			continue
		}
		roots = append(roots, rootEntry{
			value: obj,
			node:  &SchemaObject{Class: p.TypeTag()},
			label: p.TypeTag(),
		})
	}
	return roots, nil
}

func (f *flattener) preValidate(value any, node SchemaNode) error {
	return f.reg.validate(value, node)
}

func (f *flattener) postValidate(any, SchemaNode) error { return nil }

func (f *flattener) objectSchema(value any) (*ObjectSchema, error) {
	p, ok := value.(Persistable)
	if !ok {
		return nil, fmt.Errorf("%w: expected Persistable, got %T", ErrValidation, value)
	}
	if !reflect.TypeOf(value).Comparable() {
		return nil, fmt.Errorf("%w: %T is not comparable; persist pointers, not values", ErrValidation, value)
	}
	schema, ok := f.reg.SchemaFor(p.TypeTag())
	if !ok {
		return nil, newConfigurationError("no schema registered for class %q", p.TypeTag())
	}
	return schema, nil
}

func (f *flattener) newTarget(class string) (any, error) {
	return NewRecord(class), nil
}

func (f *flattener) getField(src any, field Field) (any, error) {
	return field.Get(src.(Persistable)), nil
}

func (f *flattener) setField(dst any, field Field, value any) error {
	dst.(*Record).SavedData[field.Name] = value
	return nil
}

func (f *flattener) handleValidation(cause error, value any, node SchemaNode, path string) error {
	return newValidationError(path, node, value, cause.Error())
}
