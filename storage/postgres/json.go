package postgres

import (
	"encoding/json"

	"github.com/SeineAI/SeineFish/storage"
)

// itemsToJSON converts reviewed items to a JSON string for storage.
func itemsToJSON(items []storage.Item) string {
	if len(items) == 0 {
		return "[]"
	}
	b, _ := json.Marshal(items)
	return string(b)
}

// itemsFromJSON parses a JSON string into reviewed items.
func itemsFromJSON(s string) []storage.Item {
	if s == "" || s == "null" {
		return nil
	}
	var items []storage.Item
	if err := json.Unmarshal([]byte(s), &items); err != nil {
		return nil
	}
	return items
}
