package storedb

import (
	"github.com/hengadev/errsx"
)

// Registry is the prebuilt, immutable lookup over a schema set. It
// resolves class tags to schemas and constructors in O(1) in both
// directions. Construction checks the set for totality; a registry that
// builds successfully can resolve every class the converter will ever
// ask about.
type Registry struct {
	schemas map[string]*ObjectSchema
}

// NewRegistry builds a registry from the full schema set. All problems
// are collected and reported together as a single ErrConfiguration.
func NewRegistry(schemas []*ObjectSchema) (*Registry, error) {
	reg := &Registry{schemas: make(map[string]*ObjectSchema, len(schemas))}

	var errs errsx.Map
	for _, schema := range schemas {
		switch {
		case schema == nil:
			errs.Set("schema set", newConfigurationError("nil ObjectSchema"))
			continue
		case schema.Class == "":
			errs.Set("schema set", newConfigurationError("ObjectSchema with empty class tag"))
			continue
		}
		if _, dup := reg.schemas[schema.Class]; dup {
			errs.Set("class "+schema.Class, newConfigurationError("duplicate class tag %q", schema.Class))
			continue
		}
		if schema.New == nil {
			errs.Set("class "+schema.Class, newConfigurationError("class %q has no constructor", schema.Class))
			continue
		}
		reg.schemas[schema.Class] = schema
	}

	for _, schema := range schemas {
		if schema == nil || schema.Class == "" || reg.schemas[schema.Class] != schema {
			continue
		}
		reg.checkSchema(schema, &errs)
	}

	if !errs.IsEmpty() {
		return nil, errs.AsError()
	}
	return reg, nil
}

// checkSchema verifies one class: the constructor's product must carry
// the class's own tag, every field needs both accessors, and every
// object reference anywhere in the field schemas must resolve.
func (r *Registry) checkSchema(schema *ObjectSchema, errs *errsx.Map) {
	if made := schema.New(); made == nil {
		errs.Set("class "+schema.Class, newConfigurationError("constructor for %q returned nil", schema.Class))
	} else if tag := made.TypeTag(); tag != schema.Class {
		errs.Set("class "+schema.Class,
			newConfigurationError("constructor for %q builds objects tagged %q", schema.Class, tag))
	}

	for _, f := range schema.Fields {
		key := "class " + schema.Class + " field " + f.Name
		if f.Name == "" {
			errs.Set("class "+schema.Class, newConfigurationError("field with empty name in %q", schema.Class))
		}
		if f.Get == nil || f.Set == nil {
			errs.Set(key, newConfigurationError("field %q of %q is missing an accessor", f.Name, schema.Class))
		}
		if f.Schema == nil {
			errs.Set(key, newConfigurationError("field %q of %q has no schema", f.Name, schema.Class))
			continue
		}
		r.checkNode(f.Schema, key, errs)
	}
}

func (r *Registry) checkNode(node SchemaNode, key string, errs *errsx.Map) {
	switch n := node.(type) {
	case *SchemaScalar:
	case *SchemaList:
		if n.Child == nil {
			errs.Set(key, newConfigurationError("list node with nil child schema"))
			return
		}
		r.checkNode(n.Child, key, errs)
	case *SchemaDict:
		if n.Key == nil || n.Value == nil {
			errs.Set(key, newConfigurationError("dict node with nil key or value schema"))
			return
		}
		if ks, ok := n.Key.(*SchemaScalar); !ok {
			errs.Set(key, newConfigurationError("dict keys must be scalar, got %s", n.Key))
		} else if ks.Kind == KindBinary {
			errs.Set(key, newConfigurationError("binary values cannot be dict keys"))
		}
		r.checkNode(n.Key, key, errs)
		r.checkNode(n.Value, key, errs)
	case *SchemaObject:
		if _, ok := r.schemas[n.Class]; !ok {
			errs.Set(key, newConfigurationError("object reference to unregistered class %q", n.Class))
		}
	default:
		errs.Set(key, newUnsupportedSchemaError(node))
	}
}

// SchemaFor resolves a class tag to its ObjectSchema.
func (r *Registry) SchemaFor(class string) (*ObjectSchema, bool) {
	schema, ok := r.schemas[class]
	return schema, ok
}

// Classes returns the number of registered classes.
func (r *Registry) Classes() int { return len(r.schemas) }
