package jira

import (
	"encoding/json"
	"reflect"
	"testing"

	"github.com/rs/zerolog"
)

func TestNormalizeTransitionsShapes(t *testing.T) {
	want := []Transition{
		{ID: "11", Name: "Start Progress", ToStatus: "In Progress"},
		{ID: "21", Name: "Resolve", ToStatus: "Done"},
	}

	// The same transitions in the three wire shapes seen in the wild.
	shapes := map[string]string{
		"object with to object": `{"transitions": [
			{"id": "11", "name": "Start Progress", "to": {"id": "3", "name": "In Progress"}},
			{"id": "21", "name": "Resolve", "to": {"id": "5", "name": "Done"}}
		]}`,
		"object with to string": `{"transitions": [
			{"id": "11", "name": "Start Progress", "to": "In Progress"},
			{"id": "21", "name": "Resolve", "to": "Done"}
		]}`,
		"bare array with to_status": `[
			{"id": "11", "name": "Start Progress", "to_status": "In Progress"},
			{"id": "21", "name": "Resolve", "to_status": "Done"}
		]`,
		"bare array with status": `[
			{"id": "11", "name": "Start Progress", "status": "In Progress"},
			{"id": "21", "name": "Resolve", "status": "Done"}
		]`,
	}

	for name, body := range shapes {
		got := normalizeTransitions(json.RawMessage(body), zerolog.Nop())
		if !reflect.DeepEqual(got, want) {
			t.Errorf("%s: got %+v, want %+v", name, got, want)
		}
	}
}

func TestNormalizeTransitionsNumericID(t *testing.T) {
	body := `{"transitions": [{"id": 11, "name": "Start", "to": {"name": "In Progress"}}]}`
	got := normalizeTransitions(json.RawMessage(body), zerolog.Nop())
	if len(got) != 1 {
		t.Fatalf("got %d transitions, want 1", len(got))
	}
	if got[0].ID != "11" {
		t.Errorf("ID = %q, want %q", got[0].ID, "11")
	}
}

func TestNormalizeTransitionsLargeNumericID(t *testing.T) {
	// An id too large for an exact float64 must keep its digits.
	body := `[{"id": 9007199254740993, "name": "Start", "to": "Done"}]`
	got := normalizeTransitions(json.RawMessage(body), zerolog.Nop())
	if len(got) != 1 {
		t.Fatalf("got %d transitions, want 1", len(got))
	}
	if got[0].ID != "9007199254740993" {
		t.Errorf("ID = %q, want exact digits", got[0].ID)
	}
}

func TestNormalizeTransitionsUnknownShape(t *testing.T) {
	for _, body := range []string{`"oops"`, `42`, `{"values": []}`} {
		got := normalizeTransitions(json.RawMessage(body), zerolog.Nop())
		if got == nil || len(got) != 0 {
			t.Errorf("normalizeTransitions(%s) = %v, want empty slice", body, got)
		}
	}
}

func TestNormalizeTransitionsSkipsMalformedEntries(t *testing.T) {
	body := `{"transitions": [
		{"id": "11", "name": "Start", "to": "In Progress"},
		"not an object",
		{"id": "21", "name": "Resolve", "to": "Done"}
	]}`
	got := normalizeTransitions(json.RawMessage(body), zerolog.Nop())
	if len(got) != 2 {
		t.Fatalf("got %d transitions, want 2", len(got))
	}
	if got[0].ID != "11" || got[1].ID != "21" {
		t.Errorf("unexpected ids: %+v", got)
	}
}
