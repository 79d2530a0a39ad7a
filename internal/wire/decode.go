package wire

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"time"
)

// Decode parses data produced by Encode and returns the root records.
// All records in the table are allocated before any body is read, so a
// reference can point at a record whose body appears later in the stream
// or at a record still being filled in (a cycle).
func Decode(data []byte) ([]*Record, error) {
	r := bytes.NewReader(data)

	count, err := readUvarint(r)
	if err != nil {
		return nil, fmt.Errorf("record count: %w", err)
	}
	if count > uint64(len(data)) {
		return nil, fmt.Errorf("record count %d exceeds input size", count)
	}

	table := make([]*Record, count)
	for i := range table {
		class, err := readString(r)
		if err != nil {
			return nil, fmt.Errorf("record %d class: %w", i, err)
		}
		table[i] = NewRecord(class)
	}

	for i, rec := range table {
		fields, err := readUvarint(r)
		if err != nil {
			return nil, fmt.Errorf("record %d field count: %w", i, err)
		}
		for range fields {
			name, err := readString(r)
			if err != nil {
				return nil, fmt.Errorf("record %d field name: %w", i, err)
			}
			value, err := decodeValue(r, table)
			if err != nil {
				return nil, fmt.Errorf("record %d field %q: %w", i, name, err)
			}
			rec.SavedData[name] = value
		}
	}

	rootCount, err := readUvarint(r)
	if err != nil {
		return nil, fmt.Errorf("root count: %w", err)
	}
	if rootCount > count {
		return nil, fmt.Errorf("root count %d exceeds record count %d", rootCount, count)
	}
	roots := make([]*Record, rootCount)
	for i := range roots {
		idx, err := readUvarint(r)
		if err != nil {
			return nil, fmt.Errorf("root %d: %w", i, err)
		}
		if idx >= count {
			return nil, fmt.Errorf("root %d references record %d of %d", i, idx, count)
		}
		roots[i] = table[idx]
	}
	if r.Len() != 0 {
		return nil, fmt.Errorf("%d trailing bytes after roots", r.Len())
	}
	return roots, nil
}

func decodeValue(r *bytes.Reader, table []*Record) (any, error) {
	tag, err := r.ReadByte()
	if err != nil {
		return nil, fmt.Errorf("value tag: %w", err)
	}
	switch tag {
	case tagNone:
		return nil, nil
	case tagBool:
		b, err := r.ReadByte()
		if err != nil {
			return nil, err
		}
		return b != 0x00, nil
	case tagInt:
		v, err := readFixed64(r)
		if err != nil {
			return nil, err
		}
		return int64(v), nil
	case tagFloat:
		v, err := readFixed64(r)
		if err != nil {
			return nil, err
		}
		return math.Float64frombits(v), nil
	case tagString:
		return readString(r)
	case tagBytes:
		n, err := readUvarint(r)
		if err != nil {
			return nil, err
		}
		if n > uint64(r.Len()) {
			return nil, fmt.Errorf("byte string length %d exceeds remaining input", n)
		}
		b := make([]byte, n)
		if _, err := io.ReadFull(r, b); err != nil {
			return nil, err
		}
		return b, nil
	case tagTime:
		sec, err := readFixed64(r)
		if err != nil {
			return nil, err
		}
		nsec, err := readFixed64(r)
		if err != nil {
			return nil, err
		}
		return time.Unix(int64(sec), int64(nsec)).UTC(), nil
	case tagList:
		n, err := readUvarint(r)
		if err != nil {
			return nil, err
		}
		if n > uint64(r.Len()) {
			return nil, fmt.Errorf("list length %d exceeds remaining input", n)
		}
		list := make([]any, n)
		for i := range list {
			if list[i], err = decodeValue(r, table); err != nil {
				return nil, err
			}
		}
		return list, nil
	case tagDict:
		n, err := readUvarint(r)
		if err != nil {
			return nil, err
		}
		if n > uint64(r.Len()) {
			return nil, fmt.Errorf("dict length %d exceeds remaining input", n)
		}
		dict := make(map[any]any, n)
		for range n {
			key, err := decodeValue(r, table)
			if err != nil {
				return nil, err
			}
			switch key.(type) {
			case []byte, []any, map[any]any:
				return nil, fmt.Errorf("dict key of non-comparable type %T", key)
			}
			value, err := decodeValue(r, table)
			if err != nil {
				return nil, err
			}
			dict[key] = value
		}
		return dict, nil
	case tagRef:
		idx, err := readUvarint(r)
		if err != nil {
			return nil, err
		}
		if idx >= uint64(len(table)) {
			return nil, fmt.Errorf("reference to record %d of %d", idx, len(table))
		}
		return table[idx], nil
	default:
		return nil, fmt.Errorf("unknown value tag 0x%02x", tag)
	}
}

func readUvarint(r *bytes.Reader) (uint64, error) {
	return binary.ReadUvarint(r)
}

func readFixed64(r *bytes.Reader) (uint64, error) {
	var tmp [8]byte
	if _, err := io.ReadFull(r, tmp[:]); err != nil {
		return 0, err
	}
	return binary.LittleEndian.Uint64(tmp[:]), nil
}

func readString(r *bytes.Reader) (string, error) {
	n, err := readUvarint(r)
	if err != nil {
		return "", err
	}
	if n > uint64(r.Len()) {
		return "", fmt.Errorf("string length %d exceeds remaining input", n)
	}
	b := make([]byte, n)
	if _, err := io.ReadFull(r, b); err != nil {
		return "", err
	}
	return string(b), nil
}
