package wire

// Record is the flat, storage-safe form of a persisted object. It carries
// the class tag the object was converted from and the already-converted
// field values. Allowed values in SavedData are nil, bool, int64, float64,
// string, []byte, time.Time, []any, map[any]any and *Record; a Record
// never holds a live object.
//
// The Record layout is guaranteed never to change, so containers written
// by older engine versions stay readable before any upgrade step runs.
type Record struct {
	Class     string
	SavedData map[string]any
}

// NewRecord returns an empty record tagged with the given class.
func NewRecord(class string) *Record {
	return &Record{Class: class, SavedData: make(map[string]any)}
}
