package postgres

import (
	"reflect"
	"testing"

	"github.com/SeineAI/SeineFish/storage"
)

func TestItemsJSONRoundTrip(t *testing.T) {
	items := []storage.Item{
		{Filename: "a.py", Review: "Looks good."},
		{Filename: "b.py", Function: "parse", Review: "Fine."},
	}

	got := itemsFromJSON(itemsToJSON(items))
	if !reflect.DeepEqual(got, items) {
		t.Errorf("round trip = %+v, want %+v", got, items)
	}
}

func TestItemsJSONEdgeCases(t *testing.T) {
	if got := itemsToJSON(nil); got != "[]" {
		t.Errorf("itemsToJSON(nil) = %q, want []", got)
	}
	if got := itemsFromJSON(""); got != nil {
		t.Errorf("itemsFromJSON(\"\") = %v, want nil", got)
	}
	if got := itemsFromJSON("null"); got != nil {
		t.Errorf("itemsFromJSON(null) = %v, want nil", got)
	}
	if got := itemsFromJSON("{broken"); got != nil {
		t.Errorf("itemsFromJSON(invalid) = %v, want nil", got)
	}
}
