package storedb

import (
	"fmt"

	"github.com/google/uuid"
)

// SaveObjectList converts a list of live objects into their flat record
// form. Objects whose class is not registered are skipped with a
// warning; any validation failure aborts the whole conversion. The
// call has no side effects beyond allocation.
func (e *Engine) SaveObjectList(objects []Persistable) ([]*Record, error) {
	log := e.log.With("op", "save_object_list", "op_id", uuid.NewString())

	side := &flattener{reg: e.reg, log: log}
	conv := &converter{side: side, maxDepth: e.maxDepth}

	anys := make([]any, len(objects))
	for i, obj := range objects {
		anys[i] = obj
	}
	converted, err := conv.convertObjectList(anys)
	if err != nil {
		return nil, err
	}

	records := make([]*Record, len(converted))
	for i, value := range converted {
		records[i] = value.(*Record)
	}
	log.Debug("object list flattened", "objects", len(objects), "records", len(records))
	return records, nil
}

// RestoreObjectList rebuilds live objects from their flat record form.
// Validation failures are downgraded to warnings and the offending
// values are kept, so a single corrupt field does not prevent loading
// the rest of the database. An unknown stored class tag, by contrast,
// is a configuration error and fails the whole call.
func (e *Engine) RestoreObjectList(records []*Record) ([]Persistable, error) {
	log := e.log.With("op", "restore_object_list", "op_id", uuid.NewString())

	side := &restorer{reg: e.reg, log: log}
	conv := &converter{side: side, maxDepth: e.maxDepth}

	anys := make([]any, len(records))
	for i, rec := range records {
		anys[i] = rec
	}
	converted, err := conv.convertObjectList(anys)
	if err != nil {
		return nil, err
	}

	objects := make([]Persistable, 0, len(converted))
	for _, value := range converted {
		obj, ok := value.(Persistable)
		if !ok {
			return nil, newConfigurationError("restored root is %T, not Persistable", value)
		}
		objects = append(objects, obj)
	}
	if !side.warnings.IsEmpty() {
		log.Warn("database restored with validation warnings",
			"warnings", side.warnings.AsError(),
		)
	}
	return objects, nil
}

// SaveDatabase flattens the objects and writes them to path as one
// versioned container. Conversion runs to completion before a single
// byte is written, so a validation failure leaves no partial file.
func (e *Engine) SaveDatabase(objects []Persistable, path string) error {
	log := e.log.With("op", "save_database", "op_id", uuid.NewString(), "path", path)

	records, err := e.SaveObjectList(objects)
	if err != nil {
		return err
	}
	blob, err := EncodeContainer(e.formatVersion, records, e.compress)
	if err != nil {
		return err
	}
	if err := e.store.WriteContainer(path, blob); err != nil {
		return fmt.Errorf("writing container to %s: %w", path, err)
	}
	log.Info("database saved", "records", len(records), "bytes", len(blob))
	return nil
}

// RestoreDatabase reads the container at path, runs the upgrade hook on
// the (version, records) pair, and rebuilds the live objects.
func (e *Engine) RestoreDatabase(path string) ([]Persistable, error) {
	log := e.log.With("op", "restore_database", "op_id", uuid.NewString(), "path", path)

	blob, err := e.store.ReadContainer(path)
	if err != nil {
		return nil, fmt.Errorf("reading container from %s: %w", path, err)
	}
	version, records, err := DecodeContainer(blob)
	if err != nil {
		return nil, err
	}
	records, err = e.upgrade(version, records)
	if err != nil {
		return nil, err
	}
	objects, err := e.RestoreObjectList(records)
	if err != nil {
		return nil, err
	}
	log.Info("database restored", "stored_version", version, "objects", len(objects))
	return objects, nil
}
