package storedb

// UpgradeFunc adapts records written under an older format version
// before they are restored. The tuple shape on disk never changes, so
// any container can at least be read and handed to the hook.
type UpgradeFunc func(storedVersion int, records []*Record) ([]*Record, error)

// noopUpgrade is the default hook: it notes a version mismatch and
// passes the records through unchanged. Actual migration is an external
// concern.
func (e *Engine) noopUpgrade(storedVersion int, records []*Record) ([]*Record, error) {
	if storedVersion != e.formatVersion {
		e.log.Info("container format version differs from engine, restoring as-is",
			"stored_version", storedVersion,
			"engine_version", e.formatVersion,
		)
	}
	return records, nil
}
