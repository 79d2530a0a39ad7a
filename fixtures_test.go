package storedb_test

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/ndim/storedb"
)

// The test domain mirrors a small feed reader: feeds own items, items
// point back at their feed, and special items extend the plain item
// shape with an extra field.

type Feed struct {
	Title string
	Items []storedb.Persistable
}

func (f *Feed) TypeTag() string { return "feed" }

type Item struct {
	Name string
	Feed *Feed
}

func (i *Item) TypeTag() string { return "item" }

type SpecialItem struct {
	Name string
	Feed *Feed
	Rank int64
}

func (s *SpecialItem) TypeTag() string { return "special-item" }

// FlexBox holds an untyped value so tests can feed the converter data
// that disagrees with the declared schema.
type FlexBox struct {
	Value any
}

func (b *FlexBox) TypeTag() string { return "flexbox" }

func feedSchema() *storedb.ObjectSchema {
	return &storedb.ObjectSchema{
		Class: "feed",
		New:   func() storedb.Persistable { return &Feed{} },
		Fields: []storedb.Field{
			{
				Name:   "title",
				Schema: &storedb.SchemaScalar{Kind: storedb.KindString},
				Get:    func(o storedb.Persistable) any { return o.(*Feed).Title },
				Set:    func(o storedb.Persistable, v any) { o.(*Feed).Title = v.(string) },
			},
			{
				Name:   "items",
				Schema: &storedb.SchemaList{Child: &storedb.SchemaObject{Class: "item"}},
				Get: func(o storedb.Persistable) any {
					items := make([]any, len(o.(*Feed).Items))
					for i, item := range o.(*Feed).Items {
						items[i] = item
					}
					return items
				},
				Set: func(o storedb.Persistable, v any) {
					raw := v.([]any)
					items := make([]storedb.Persistable, len(raw))
					for i, item := range raw {
						items[i] = item.(storedb.Persistable)
					}
					o.(*Feed).Items = items
				},
			},
		},
	}
}

func itemSchema() *storedb.ObjectSchema {
	return &storedb.ObjectSchema{
		Class: "item",
		New:   func() storedb.Persistable { return &Item{} },
		Fields: []storedb.Field{
			{
				Name:   "name",
				Schema: &storedb.SchemaScalar{Kind: storedb.KindString},
				Get:    func(o storedb.Persistable) any { return o.(*Item).Name },
				Set:    func(o storedb.Persistable, v any) { o.(*Item).Name = v.(string) },
			},
			{
				Name:   "feed",
				Schema: &storedb.SchemaObject{Class: "feed", NoneOK: true},
				Get: func(o storedb.Persistable) any {
					if o.(*Item).Feed == nil {
						return nil
					}
					return o.(*Item).Feed
				},
				Set: func(o storedb.Persistable, v any) {
					if v == nil {
						o.(*Item).Feed = nil
						return
					}
					o.(*Item).Feed = v.(*Feed)
				},
			},
		},
	}
}

func specialItemSchema() *storedb.ObjectSchema {
	return &storedb.ObjectSchema{
		Class: "special-item",
		New:   func() storedb.Persistable { return &SpecialItem{} },
		Fields: []storedb.Field{
			{
				Name:   "name",
				Schema: &storedb.SchemaScalar{Kind: storedb.KindString},
				Get:    func(o storedb.Persistable) any { return o.(*SpecialItem).Name },
				Set:    func(o storedb.Persistable, v any) { o.(*SpecialItem).Name = v.(string) },
			},
			{
				Name:   "feed",
				Schema: &storedb.SchemaObject{Class: "feed", NoneOK: true},
				Get: func(o storedb.Persistable) any {
					if o.(*SpecialItem).Feed == nil {
						return nil
					}
					return o.(*SpecialItem).Feed
				},
				Set: func(o storedb.Persistable, v any) {
					if v == nil {
						o.(*SpecialItem).Feed = nil
						return
					}
					o.(*SpecialItem).Feed = v.(*Feed)
				},
			},
			{
				Name:   "rank",
				Schema: &storedb.SchemaScalar{Kind: storedb.KindInt},
				Get:    func(o storedb.Persistable) any { return o.(*SpecialItem).Rank },
				Set:    func(o storedb.Persistable, v any) { o.(*SpecialItem).Rank = v.(int64) },
			},
		},
	}
}

func flexBoxSchema(node storedb.SchemaNode) *storedb.ObjectSchema {
	return &storedb.ObjectSchema{
		Class: "flexbox",
		New:   func() storedb.Persistable { return &FlexBox{} },
		Fields: []storedb.Field{
			{
				Name:   "value",
				Schema: node,
				Get:    func(o storedb.Persistable) any { return o.(*FlexBox).Value },
				Set:    func(o storedb.Persistable, v any) { o.(*FlexBox).Value = v.(string) },
			},
		},
	}
}

func feedItemSchemas() []*storedb.ObjectSchema {
	return []*storedb.ObjectSchema{feedSchema(), itemSchema(), specialItemSchema()}
}

// testLogger returns a logger writing into the returned buffer so tests
// can assert on warnings.
func testLogger(t *testing.T) (*slog.Logger, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	return slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})), &buf
}
