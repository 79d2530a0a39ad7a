// Package wire implements the binary encoding of the flat record graph.
//
// Records may alias each other and may form cycles, so they cannot be
// encoded by value: the encoder first linearizes every distinct record
// into a table, then encodes object references as table indices. The
// scalar encodings use little-endian fixed widths for numeric values and
// uvarint-prefixed byte strings, optimized for deterministic output.
package wire

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"sort"
	"time"
)

// Value type markers. These are part of the durable format and must not
// be renumbered.
const (
	tagNone   byte = 0x00
	tagBool   byte = 0x01
	tagInt    byte = 0x02
	tagFloat  byte = 0x03
	tagString byte = 0x04
	tagBytes  byte = 0x05
	tagTime   byte = 0x06
	tagList   byte = 0x07
	tagDict   byte = 0x08
	tagRef    byte = 0x09
)

// Encode serializes the given root records, together with every record
// reachable from them, into the record-table wire format. Shared records
// encode once; cycles are safe.
func Encode(roots []*Record) ([]byte, error) {
	table, index, err := collectRecords(roots)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	writeUvarint(&buf, uint64(len(table)))
	for _, rec := range table {
		writeString(&buf, rec.Class)
	}
	for _, rec := range table {
		if err := encodeBody(&buf, rec, index); err != nil {
			return nil, err
		}
	}
	writeUvarint(&buf, uint64(len(roots)))
	for _, root := range roots {
		writeUvarint(&buf, uint64(index[root]))
	}
	return buf.Bytes(), nil
}

// collectRecords walks the value graph and assigns every distinct record
// a table index. The index is installed before the record's own fields
// are walked, which is what terminates cyclic graphs.
func collectRecords(roots []*Record) ([]*Record, map[*Record]int, error) {
	var table []*Record
	index := make(map[*Record]int)

	var walkValue func(v any) error
	var walkRecord func(rec *Record) error

	walkRecord = func(rec *Record) error {
		if _, seen := index[rec]; seen {
			return nil
		}
		index[rec] = len(table)
		table = append(table, rec)
		for _, name := range sortedFieldNames(rec) {
			if err := walkValue(rec.SavedData[name]); err != nil {
				return err
			}
		}
		return nil
	}

	walkValue = func(v any) error {
		switch val := v.(type) {
		case *Record:
			if val == nil {
				return nil
			}
			return walkRecord(val)
		case []any:
			for _, item := range val {
				if err := walkValue(item); err != nil {
					return err
				}
			}
		case map[any]any:
			for _, key := range sortedDictKeys(val) {
				if err := walkValue(key); err != nil {
					return err
				}
				if err := walkValue(val[key]); err != nil {
					return err
				}
			}
		case nil, bool, int64, float64, string, []byte, time.Time:
			// scalars carry no references
		default:
			return fmt.Errorf("unsupported value type %T in record graph", v)
		}
		return nil
	}

	for _, root := range roots {
		if root == nil {
			return nil, nil, fmt.Errorf("nil root record")
		}
		if err := walkRecord(root); err != nil {
			return nil, nil, err
		}
	}
	return table, index, nil
}

func encodeBody(buf *bytes.Buffer, rec *Record, index map[*Record]int) error {
	names := sortedFieldNames(rec)
	writeUvarint(buf, uint64(len(names)))
	for _, name := range names {
		writeString(buf, name)
		if err := encodeValue(buf, rec.SavedData[name], index); err != nil {
			return fmt.Errorf("field %q: %w", name, err)
		}
	}
	return nil
}

func encodeValue(buf *bytes.Buffer, v any, index map[*Record]int) error {
	switch val := v.(type) {
	case nil:
		buf.WriteByte(tagNone)
	case bool:
		buf.WriteByte(tagBool)
		if val {
			buf.WriteByte(0x01)
		} else {
			buf.WriteByte(0x00)
		}
	case int64:
		buf.WriteByte(tagInt)
		writeFixed64(buf, uint64(val))
	case float64:
		buf.WriteByte(tagFloat)
		writeFixed64(buf, math.Float64bits(val))
	case string:
		buf.WriteByte(tagString)
		writeString(buf, val)
	case []byte:
		buf.WriteByte(tagBytes)
		writeUvarint(buf, uint64(len(val)))
		buf.Write(val)
	case time.Time:
		// Seconds and nanoseconds travel separately; a single UnixNano
		// overflows outside 1678-2262 and would mangle the zero time.
		buf.WriteByte(tagTime)
		writeFixed64(buf, uint64(val.Unix()))
		writeFixed64(buf, uint64(val.Nanosecond()))
	case []any:
		buf.WriteByte(tagList)
		writeUvarint(buf, uint64(len(val)))
		for _, item := range val {
			if err := encodeValue(buf, item, index); err != nil {
				return err
			}
		}
	case map[any]any:
		buf.WriteByte(tagDict)
		writeUvarint(buf, uint64(len(val)))
		for _, key := range sortedDictKeys(val) {
			if err := encodeValue(buf, key, index); err != nil {
				return err
			}
			if err := encodeValue(buf, val[key], index); err != nil {
				return err
			}
		}
	case *Record:
		if val == nil {
			buf.WriteByte(tagNone)
			return nil
		}
		idx, ok := index[val]
		if !ok {
			return fmt.Errorf("record %q missing from table", val.Class)
		}
		buf.WriteByte(tagRef)
		writeUvarint(buf, uint64(idx))
	default:
		return fmt.Errorf("unsupported value type %T", v)
	}
	return nil
}

func sortedFieldNames(rec *Record) []string {
	names := make([]string, 0, len(rec.SavedData))
	for name := range rec.SavedData {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// sortedDictKeys orders dict keys by their rendered form so the encoding
// is deterministic. Keys are scalars, so rendering is cheap and total.
func sortedDictKeys(dict map[any]any) []any {
	keys := make([]any, 0, len(dict))
	for key := range dict {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool {
		return fmt.Sprint(keys[i]) < fmt.Sprint(keys[j])
	})
	return keys
}

func writeUvarint(buf *bytes.Buffer, v uint64) {
	var tmp [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(tmp[:], v)
	buf.Write(tmp[:n])
}

func writeFixed64(buf *bytes.Buffer, v uint64) {
	var tmp [8]byte
	binary.LittleEndian.PutUint64(tmp[:], v)
	buf.Write(tmp[:])
}

func writeString(buf *bytes.Buffer, s string) {
	writeUvarint(buf, uint64(len(s)))
	buf.WriteString(s)
}
