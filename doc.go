// Package storedb is a schema-driven object-graph persistence engine.
//
// It converts an arbitrary graph of live application objects into a flat,
// storage-safe record form and back, guided by declared per-class schemas
// rather than reflection. Shared references and cycles are preserved
// through a per-call identity memo, values are validated against their
// schema nodes on whichever side of the conversion the live
// representation exists, and the resulting record list is wrapped in a
// versioned, checksummed binary container.
//
// # Declaring schemas
//
// Each persisted class registers an ObjectSchema: a stable class tag, a
// constructor, and an ordered field table whose accessors replace
// reflection:
//
//	feedSchema := &storedb.ObjectSchema{
//	    Class: "feed",
//	    New:   func() storedb.Persistable { return &Feed{} },
//	    Fields: []storedb.Field{
//	        {
//	            Name:   "title",
//	            Schema: &storedb.SchemaScalar{Kind: storedb.KindString},
//	            Get:    func(o storedb.Persistable) any { return o.(*Feed).Title },
//	            Set:    func(o storedb.Persistable, v any) { o.(*Feed).Title = v.(string) },
//	        },
//	        {
//	            Name:   "items",
//	            Schema: &storedb.SchemaList{Child: &storedb.SchemaObject{Class: "item"}},
//	            Get:    func(o storedb.Persistable) any { return o.(*Feed).itemsAny() },
//	            Set:    func(o storedb.Persistable, v any) { o.(*Feed).setItems(v) },
//	        },
//	    },
//	}
//
// # Saving and restoring
//
//	engine, err := storedb.New([]*storedb.ObjectSchema{feedSchema, itemSchema})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := engine.SaveDatabase(objects, "app.db"); err != nil {
//	    // a validation failure aborts before anything is written
//	}
//	objects, err := engine.RestoreDatabase("app.db")
//
// Saving validates strictly and fails fast. Restoring deliberately does
// not: a value that no longer matches its schema is logged, kept, and the
// rest of the database loads anyway.
//
// Containers can live in plain files (the default) or in SQLite via
// SQLiteStore; both go through the same stable (version, records)
// envelope, so data written by older engine versions stays readable.
package storedb
