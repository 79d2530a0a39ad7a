package storedb

import (
	"fmt"
	"os"
)

// ContainerStore abstracts where encoded containers live. The engine
// performs one write or one read per operation; there is no locking
// against concurrent writers to the same destination, so callers that
// need multi-writer safety must serialize access themselves.
type ContainerStore interface {
	WriteContainer(path string, blob []byte) error
	ReadContainer(path string) ([]byte, error)
}

// FileStore keeps each container in a single binary file. The write is
// open-write-close against a temporary sibling followed by a rename, so
// a crash mid-write never leaves a half-written container at path.
type FileStore struct{}

func (FileStore) WriteContainer(path string, blob []byte) error {
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, blob, 0o644); err != nil {
		return err
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("replacing %s: %w", path, err)
	}
	return nil
}

func (FileStore) ReadContainer(path string) ([]byte, error) {
	return os.ReadFile(path)
}
