package index

import (
	"github.com/tidwall/sjson"
)

// Dump renders the index as JSON:
//
//	{"entries":[{"pos":1,"length":6,"order":0},{"pos":9,"length":null,"order":null}]}
//
// Unmatched entries carry null length and order.
func (ix *Index) Dump() (string, error) {
	items := make([]map[string]any, 0, ix.Len())
	for pos, e := range ix.Entries() {
		item := map[string]any{"pos": pos, "length": nil, "order": nil}
		if length, ok := e.Match.Length(); ok {
			item["length"] = length
		}
		if order, ok := e.Order(); ok {
			item["order"] = order
		}
		items = append(items, item)
	}
	return sjson.Set(`{}`, "entries", items)
}
