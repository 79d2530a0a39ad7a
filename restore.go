package storedb

import (
	"fmt"
	"log/slog"

	"github.com/hengadev/errsx"
)

// restorer converts records back into live objects. Validation runs on
// the reconstructed live value after conversion and is downgraded to a
// warning: a single corrupt field must not prevent loading the rest of
// the database, so the bad value is kept and the load goes on.
type restorer struct {
	reg      *Registry
	log      *slog.Logger
	warnings errsx.Map
}

func (r *restorer) prepare(objects []any) ([]rootEntry, error) {
	roots := make([]rootEntry, 0, len(objects))
	for _, obj := range objects {
		if obj == nil {
			continue
		}
		rec, ok := obj.(*Record)
		if !ok {
			return nil, newConfigurationError("restore input contains %T, not *Record", obj)
		}
		// An unresolvable stored tag means the schema set and the stored
		// data disagree, which is a setup bug rather than corruption.
		if _, registered := r.reg.SchemaFor(rec.Class); !registered {
			return nil, newConfigurationError("stored class %q is not registered", rec.Class)
		}
		roots = append(roots, rootEntry{
			value: obj,
			node:  &SchemaObject{Class: rec.Class},
			label: rec.Class,
		})
	}
	return roots, nil
}

func (r *restorer) preValidate(any, SchemaNode) error { return nil }

func (r *restorer) postValidate(converted any, node SchemaNode) error {
	return r.reg.validate(converted, node)
}

func (r *restorer) objectSchema(value any) (*ObjectSchema, error) {
	rec, ok := value.(*Record)
	if !ok {
		return nil, fmt.Errorf("%w: expected *Record, got %T", ErrValidation, value)
	}
	schema, ok := r.reg.SchemaFor(rec.Class)
	if !ok {
		return nil, newConfigurationError("stored class %q is not registered", rec.Class)
	}
	return schema, nil
}

func (r *restorer) newTarget(class string) (any, error) {
	schema, ok := r.reg.SchemaFor(class)
	if !ok {
		return nil, newConfigurationError("stored class %q is not registered", class)
	}
	obj := schema.New()
	if obj == nil {
		return nil, newConfigurationError("constructor for %q returned nil", class)
	}
	return obj, nil
}

func (r *restorer) getField(src any, field Field) (any, error) {
	value, ok := src.(*Record).SavedData[field.Name]
	if !ok {
		return nil, fmt.Errorf("%w: stored record has no field %q", ErrValidation, field.Name)
	}
	return value, nil
}

// setField hands a possibly invalid value to a caller-written setter.
// A setter that trips over such a value must not take the load down
// with it, so panics surface as validation failures instead.
func (r *restorer) setField(dst any, field Field, value any) (err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("%w: setter for %q panicked: %v", ErrValidation, field.Name, rec)
		}
	}()
	field.Set(dst.(Persistable), value)
	return nil
}

// handleValidation implements the restore-side downgrade policy: the
// failure is logged and remembered, and conversion continues with the
// offending value. Bad things may happen later; that is the accepted
// price of loading a mostly-good database.
func (r *restorer) handleValidation(cause error, value any, node SchemaNode, path string) error {
	verr := newValidationError(path, node, value, cause.Error())
	r.warnings.Set(path, verr)
	r.log.Warn("validation failed during restore, keeping value anyway",
		"path", path,
		"reason", cause.Error(),
	)
	return nil
}
