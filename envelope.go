package storedb

import (
	"bytes"
	"crypto/subtle"
	"encoding/binary"
	"io"

	"github.com/golang/snappy"
	"golang.org/x/crypto/blake2b"

	"github.com/ndim/storedb/internal/wire"
)

// Container layout:
//
//	magic "SDBC" | uvarint formatVersion | flags byte | 32-byte
//	BLAKE2b-256 of payload | payload
//
// flags bit 0 marks a snappy-compressed payload. The payload is the
// wire record-table encoding of the root records. The (version,
// records) pair is always recoverable regardless of what the class
// schemas looked like when the container was written.
var containerMagic = []byte("SDBC")

const flagSnappy byte = 0x01

// EncodeContainer serializes the (formatVersion, records) pair into a
// single binary blob.
func EncodeContainer(formatVersion int, records []*Record, compress bool) ([]byte, error) {
	if formatVersion < 0 {
		return nil, newConfigurationError("format version must be non-negative, got %d", formatVersion)
	}
	payload, err := wire.Encode(records)
	if err != nil {
		return nil, newCorruptContainerError("encoding records: %v", err)
	}
	var flags byte
	if compress {
		payload = snappy.Encode(nil, payload)
		flags |= flagSnappy
	}
	sum := blake2b.Sum256(payload)

	var buf bytes.Buffer
	buf.Write(containerMagic)
	var tmp [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(tmp[:], uint64(formatVersion))
	buf.Write(tmp[:n])
	buf.WriteByte(flags)
	buf.Write(sum[:])
	buf.Write(payload)
	return buf.Bytes(), nil
}

// DecodeContainer parses a blob written by EncodeContainer back into
// the (formatVersion, records) pair. Any structural problem, from a bad
// magic to a checksum mismatch, surfaces as ErrCorruptContainer; no
// object conversion has happened by then.
func DecodeContainer(blob []byte) (int, []*Record, error) {
	r := bytes.NewReader(blob)

	magic := make([]byte, len(containerMagic))
	if _, err := io.ReadFull(r, magic); err != nil || !bytes.Equal(magic, containerMagic) {
		return 0, nil, newCorruptContainerError("bad magic")
	}
	version, err := binary.ReadUvarint(r)
	if err != nil {
		return 0, nil, newCorruptContainerError("reading format version: %v", err)
	}
	flags, err := r.ReadByte()
	if err != nil {
		return 0, nil, newCorruptContainerError("reading flags: %v", err)
	}
	if flags&^flagSnappy != 0 {
		return 0, nil, newCorruptContainerError("unknown flags 0x%02x", flags)
	}
	sum := make([]byte, blake2b.Size256)
	if _, err := io.ReadFull(r, sum); err != nil {
		return 0, nil, newCorruptContainerError("reading checksum: %v", err)
	}

	payload := make([]byte, r.Len())
	if _, err := io.ReadFull(r, payload); err != nil {
		return 0, nil, newCorruptContainerError("reading payload: %v", err)
	}
	got := blake2b.Sum256(payload)
	if subtle.ConstantTimeCompare(got[:], sum) != 1 {
		return 0, nil, newCorruptContainerError("payload checksum mismatch")
	}
	if flags&flagSnappy != 0 {
		payload, err = snappy.Decode(nil, payload)
		if err != nil {
			return 0, nil, newCorruptContainerError("decompressing payload: %v", err)
		}
	}

	records, err := wire.Decode(payload)
	if err != nil {
		return 0, nil, newCorruptContainerError("decoding records: %v", err)
	}
	return int(version), records, nil
}
