package storedb

import (
	"fmt"

	"github.com/ndim/storedb/internal/wire"
)

// Record is the flat, storage-safe form of a persisted object. See the
// wire package for the layout guarantees.
type Record = wire.Record

// NewRecord returns an empty record tagged with the given class.
func NewRecord(class string) *Record { return wire.NewRecord(class) }

// Persistable is implemented by every live object the engine can save.
// TypeTag returns the stable class identifier the object is persisted
// under; it must match the Class of a registered ObjectSchema. Dispatch
// is always on the runtime tag, so a field declared as one class may
// hold any registered type (polymorphic persistence).
type Persistable interface {
	TypeTag() string
}

// ScalarKind enumerates the primitive kinds a SchemaScalar accepts.
type ScalarKind int

const (
	KindBool ScalarKind = iota
	KindInt
	KindFloat
	KindString
	KindBinary
	KindDateTime
)

func (k ScalarKind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindBinary:
		return "binary"
	case KindDateTime:
		return "datetime"
	default:
		return fmt.Sprintf("ScalarKind(%d)", int(k))
	}
}

// SchemaNode describes the shape of one persisted value. The four
// variants are SchemaScalar, SchemaList, SchemaDict and SchemaObject;
// the interface is sealed so the set cannot grow behind the converter's
// back.
type SchemaNode interface {
	// AllowsNone reports whether a nil value satisfies this node.
	AllowsNone() bool
	String() string

	schemaNode()
}

// SchemaScalar accepts a single primitive value of the declared kind.
// The engine's canonical scalar types are bool, int64, float64, string,
// []byte and time.Time.
type SchemaScalar struct {
	Kind   ScalarKind
	NoneOK bool
}

// SchemaList accepts an ordered []any whose elements all conform to
// Child.
type SchemaList struct {
	Child  SchemaNode
	NoneOK bool
}

// SchemaDict accepts a map[any]any whose keys conform to Key and values
// to Value. Keys must be comparable scalars.
type SchemaDict struct {
	Key    SchemaNode
	Value  SchemaNode
	NoneOK bool
}

// SchemaObject accepts a reference to a persisted object. Class names
// the declared target, but any object whose runtime tag resolves in the
// registry satisfies the node; the declared class only documents intent.
type SchemaObject struct {
	Class  string
	NoneOK bool
}

func (s *SchemaScalar) AllowsNone() bool { return s.NoneOK }
func (s *SchemaList) AllowsNone() bool   { return s.NoneOK }
func (s *SchemaDict) AllowsNone() bool   { return s.NoneOK }
func (s *SchemaObject) AllowsNone() bool { return s.NoneOK }

func (s *SchemaScalar) String() string { return "scalar<" + s.Kind.String() + ">" }
func (s *SchemaList) String() string   { return "list<" + s.Child.String() + ">" }
func (s *SchemaDict) String() string {
	return "dict<" + s.Key.String() + ", " + s.Value.String() + ">"
}
func (s *SchemaObject) String() string { return "object<" + s.Class + ">" }

func (s *SchemaScalar) schemaNode() {}
func (s *SchemaList) schemaNode()   {}
func (s *SchemaDict) schemaNode()   {}
func (s *SchemaObject) schemaNode() {}

// Field pairs a field name with its schema and the accessor closures the
// converter uses instead of reflection. Get reads the field off a live
// object during flattening; Set writes the restored value back.
type Field struct {
	Name   string
	Schema SchemaNode
	Get    func(obj Persistable) any
	Set    func(obj Persistable, value any)
}

// ObjectSchema declares the persisted shape of one class: its stable
// class tag, a constructor for an empty instance, and the ordered field
// list. Fields are converted in declaration order.
type ObjectSchema struct {
	Class  string
	New    func() Persistable
	Fields []Field
}
