package storedb_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ndim/storedb"
)

func TestRoundTripIdentity(t *testing.T) {
	engine, err := storedb.New(feedItemSchemas())
	require.NoError(t, err)

	feed := &Feed{Title: "releases"}
	first := &Item{Name: "first", Feed: feed}
	second := &Item{Name: "second", Feed: feed}
	feed.Items = []storedb.Persistable{first, second}

	records, err := engine.SaveObjectList([]storedb.Persistable{feed})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "feed", records[0].Class)
	assert.Equal(t, "releases", records[0].SavedData["title"])

	objects, err := engine.RestoreObjectList(records)
	require.NoError(t, err)
	require.Len(t, objects, 1)

	restored, ok := objects[0].(*Feed)
	require.True(t, ok)
	assert.Equal(t, "releases", restored.Title)
	require.Len(t, restored.Items, 2)
	assert.Equal(t, "first", restored.Items[0].(*Item).Name)
	assert.Equal(t, "second", restored.Items[1].(*Item).Name)
}

func TestReferencePreservation(t *testing.T) {
	engine, err := storedb.New(feedItemSchemas())
	require.NoError(t, err)

	shared := &Feed{Title: "shared"}
	one := &Item{Name: "one", Feed: shared}
	two := &Item{Name: "two", Feed: shared}

	records, err := engine.SaveObjectList([]storedb.Persistable{one, two})
	require.NoError(t, err)
	require.Len(t, records, 2)
	// The flat form must already alias: both item records point at the
	// same feed record.
	assert.Same(t, records[0].SavedData["feed"], records[1].SavedData["feed"])

	objects, err := engine.RestoreObjectList(records)
	require.NoError(t, err)
	require.Len(t, objects, 2)
	assert.Same(t, objects[0].(*Item).Feed, objects[1].(*Item).Feed)
}

func TestCycleSafety(t *testing.T) {
	engine, err := storedb.New(feedItemSchemas())
	require.NoError(t, err)

	feed := &Feed{Title: "cyclic"}
	item := &Item{Name: "loop", Feed: feed}
	feed.Items = []storedb.Persistable{item}

	records, err := engine.SaveObjectList([]storedb.Persistable{feed})
	require.NoError(t, err)

	itemRecord := records[0].SavedData["items"].([]any)[0].(*storedb.Record)
	assert.Same(t, records[0], itemRecord.SavedData["feed"])

	objects, err := engine.RestoreObjectList(records)
	require.NoError(t, err)

	restored := objects[0].(*Feed)
	require.Len(t, restored.Items, 1)
	assert.Same(t, restored, restored.Items[0].(*Item).Feed)
}

func TestPolymorphicDispatch(t *testing.T) {
	engine, err := storedb.New(feedItemSchemas())
	require.NoError(t, err)

	feed := &Feed{Title: "mixed"}
	plain := &Item{Name: "plain", Feed: feed}
	special := &SpecialItem{Name: "special", Feed: feed, Rank: 7}
	// The items field declares object<item>, but dispatch is on the
	// runtime tag, so the special item converts with its own schema.
	feed.Items = []storedb.Persistable{plain, special}

	records, err := engine.SaveObjectList([]storedb.Persistable{feed})
	require.NoError(t, err)

	stored := records[0].SavedData["items"].([]any)
	assert.Equal(t, "item", stored[0].(*storedb.Record).Class)
	assert.Equal(t, "special-item", stored[1].(*storedb.Record).Class)
	assert.Equal(t, int64(7), stored[1].(*storedb.Record).SavedData["rank"])

	objects, err := engine.RestoreObjectList(records)
	require.NoError(t, err)

	restored := objects[0].(*Feed)
	require.Len(t, restored.Items, 2)
	restoredSpecial, ok := restored.Items[1].(*SpecialItem)
	require.True(t, ok, "special item must restore as its runtime class")
	assert.Equal(t, int64(7), restoredSpecial.Rank)
	assert.Same(t, restored, restoredSpecial.Feed)
}

func TestValidationAsymmetry(t *testing.T) {
	schemas := []*storedb.ObjectSchema{
		flexBoxSchema(&storedb.SchemaScalar{Kind: storedb.KindString}),
	}

	t.Run("save rejects a bad live value", func(t *testing.T) {
		engine, err := storedb.New(schemas)
		require.NoError(t, err)

		_, err = engine.SaveObjectList([]storedb.Persistable{&FlexBox{Value: int64(42)}})
		require.ErrorIs(t, err, storedb.ErrValidation)

		var verr *storedb.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Contains(t, verr.Path, "flexbox")
		assert.Contains(t, verr.Path, "value")
	})

	t.Run("restore downgrades the same defect to a warning", func(t *testing.T) {
		log, buf := testLogger(t)
		engine, err := storedb.New(schemas, storedb.WithLogger(log))
		require.NoError(t, err)

		bad := storedb.NewRecord("flexbox")
		bad.SavedData["value"] = int64(42)

		objects, err := engine.RestoreObjectList([]*storedb.Record{bad})
		require.NoError(t, err, "restore must not fail on a bad stored value")
		require.Len(t, objects, 1)
		assert.Contains(t, buf.String(), "validation failed during restore")
	})
}

func TestDictBreadcrumbPaths(t *testing.T) {
	schemas := []*storedb.ObjectSchema{
		flexBoxSchema(&storedb.SchemaDict{
			Key:   &storedb.SchemaScalar{Kind: storedb.KindString},
			Value: &storedb.SchemaScalar{Kind: storedb.KindInt},
		}),
	}

	t.Run("bad value names the entry", func(t *testing.T) {
		log, buf := testLogger(t)
		engine, err := storedb.New(schemas, storedb.WithLogger(log))
		require.NoError(t, err)

		bad := storedb.NewRecord("flexbox")
		bad.SavedData["value"] = map[any]any{"k": "oops"}

		_, err = engine.RestoreObjectList([]*storedb.Record{bad})
		require.NoError(t, err)
		assert.Contains(t, buf.String(), "flexbox.value{k}")
		assert.NotContains(t, buf.String(), "{k}.key")
	})

	t.Run("bad key names the key step", func(t *testing.T) {
		log, buf := testLogger(t)
		engine, err := storedb.New(schemas, storedb.WithLogger(log))
		require.NoError(t, err)

		bad := storedb.NewRecord("flexbox")
		bad.SavedData["value"] = map[any]any{int64(9): int64(1)}

		_, err = engine.RestoreObjectList([]*storedb.Record{bad})
		require.NoError(t, err)
		assert.Contains(t, buf.String(), "flexbox.value{9}.key")
	})
}

func TestEmptyGraph(t *testing.T) {
	engine, err := storedb.New(feedItemSchemas())
	require.NoError(t, err)

	records, err := engine.SaveObjectList(nil)
	require.NoError(t, err)
	assert.Empty(t, records)

	objects, err := engine.RestoreObjectList(records)
	require.NoError(t, err)
	assert.Empty(t, objects)
}

func TestUnregisteredRootSkippedOnSave(t *testing.T) {
	log, buf := testLogger(t)
	engine, err := storedb.New(feedItemSchemas(), storedb.WithLogger(log))
	require.NoError(t, err)

	records, err := engine.SaveObjectList([]storedb.Persistable{
		&Feed{Title: "kept"},
		&FlexBox{Value: "not registered"},
	})
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "feed", records[0].Class)
	assert.Contains(t, buf.String(), "unregistered class")
}

func TestUnknownStoredClassFailsRestore(t *testing.T) {
	engine, err := storedb.New(feedItemSchemas())
	require.NoError(t, err)

	_, err = engine.RestoreObjectList([]*storedb.Record{storedb.NewRecord("ghost")})
	require.ErrorIs(t, err, storedb.ErrConfiguration)
}

func TestNoneHandling(t *testing.T) {
	engine, err := storedb.New(feedItemSchemas())
	require.NoError(t, err)

	item := &Item{Name: "orphan", Feed: nil}
	records, err := engine.SaveObjectList([]storedb.Persistable{item})
	require.NoError(t, err)
	assert.Nil(t, records[0].SavedData["feed"])

	objects, err := engine.RestoreObjectList(records)
	require.NoError(t, err)
	assert.Nil(t, objects[0].(*Item).Feed)
}

func TestDepthLimit(t *testing.T) {
	// A schema nested deeper than the engine's depth limit plus a value
	// to match: the walk must fail cleanly instead of overflowing.
	var node storedb.SchemaNode = &storedb.SchemaScalar{Kind: storedb.KindString}
	var value any = "leaf"
	for range 30 {
		node = &storedb.SchemaList{Child: node}
		value = []any{value}
	}

	schema := &storedb.ObjectSchema{
		Class: "flexbox",
		New:   func() storedb.Persistable { return &FlexBox{} },
		Fields: []storedb.Field{
			{
				Name:   "value",
				Schema: node,
				Get:    func(o storedb.Persistable) any { return o.(*FlexBox).Value },
				Set:    func(o storedb.Persistable, v any) { o.(*FlexBox).Value = v },
			},
		},
	}

	engine, err := storedb.New([]*storedb.ObjectSchema{schema}, storedb.WithMaxDepth(10))
	require.NoError(t, err)

	_, err = engine.SaveObjectList([]storedb.Persistable{&FlexBox{Value: value}})
	require.ErrorIs(t, err, storedb.ErrValidation)
	assert.True(t, strings.Contains(err.Error(), "deeper than"), "error should name the depth limit: %v", err)
}

func TestScalarKindsRoundTrip(t *testing.T) {
	type row struct {
		name  string
		node  storedb.SchemaNode
		value any
	}
	rows := []row{
		{"bool", &storedb.SchemaScalar{Kind: storedb.KindBool}, true},
		{"int", &storedb.SchemaScalar{Kind: storedb.KindInt}, int64(-12)},
		{"float", &storedb.SchemaScalar{Kind: storedb.KindFloat}, 2.75},
		{"string", &storedb.SchemaScalar{Kind: storedb.KindString}, "héllo"},
		{"binary", &storedb.SchemaScalar{Kind: storedb.KindBinary}, []byte{0x00, 0xff}},
		{"datetime", &storedb.SchemaScalar{Kind: storedb.KindDateTime}, time.Date(2010, 2, 1, 12, 0, 0, 0, time.UTC)},
		{
			"dict",
			&storedb.SchemaDict{
				Key:   &storedb.SchemaScalar{Kind: storedb.KindString},
				Value: &storedb.SchemaScalar{Kind: storedb.KindInt},
			},
			map[any]any{"a": int64(1), "b": int64(2)},
		},
	}

	for _, tt := range rows {
		t.Run(tt.name, func(t *testing.T) {
			schema := &storedb.ObjectSchema{
				Class: "flexbox",
				New:   func() storedb.Persistable { return &FlexBox{} },
				Fields: []storedb.Field{
					{
						Name:   "value",
						Schema: tt.node,
						Get:    func(o storedb.Persistable) any { return o.(*FlexBox).Value },
						Set:    func(o storedb.Persistable, v any) { o.(*FlexBox).Value = v },
					},
				},
			}
			engine, err := storedb.New([]*storedb.ObjectSchema{schema})
			require.NoError(t, err)

			records, err := engine.SaveObjectList([]storedb.Persistable{&FlexBox{Value: tt.value}})
			require.NoError(t, err)

			objects, err := engine.RestoreObjectList(records)
			require.NoError(t, err)
			assert.Equal(t, tt.value, objects[0].(*FlexBox).Value)
		})
	}
}
