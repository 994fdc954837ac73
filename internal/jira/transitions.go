package jira

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/rs/zerolog"
)

// Transitions fetches the workflow transitions available for an issue
// and reshapes them into canonical form. Jira instances disagree on
// the response envelope (object-with-transitions vs bare array) and on
// the per-transition target-status field (`to` as object, `to` as
// string, `to_status`, `status`); all known shapes normalize here.
func (s *IssuesService) Transitions(ctx context.Context, issueKey string) ([]Transition, error) {
	raw, err := s.tx.Do(ctx, http.MethodGet, "/rest/api/2/issue/"+url.PathEscape(issueKey)+"/transitions", nil, nil)
	if err != nil {
		return nil, mapError(err, "transitions", issueKey)
	}
	return normalizeTransitions(raw, s.log), nil
}

// normalizeTransitions never fails: transitions are frequently probed
// speculatively, so an unrecognized response shape yields an empty
// slice plus a diagnostic, and malformed entries are skipped.
func normalizeTransitions(raw json.RawMessage, log zerolog.Logger) []Transition {
	entries, ok := transitionEntries(raw)
	if !ok {
		log.Warn().Str("body", truncate(string(raw), 256)).Msg("unexpected shape for transitions response")
		return []Transition{}
	}

	result := make([]Transition, 0, len(entries))
	for _, entry := range entries {
		record, ok := decodeRecord(entry)
		if !ok {
			continue
		}

		t := Transition{
			ID:   stringValue(record["id"]),
			Name: stringValue(record["name"]),
		}

		// Target status: `to` first (object or string), then the
		// flattened spellings.
		if to, present := record["to"]; present && to != nil {
			switch v := to.(type) {
			case map[string]any:
				t.ToStatus = stringValue(v["name"])
			default:
				t.ToStatus = stringValue(v)
			}
		} else if v, present := record["to_status"]; present {
			t.ToStatus = stringValue(v)
		} else if v, present := record["status"]; present {
			t.ToStatus = stringValue(v)
		}

		result = append(result, t)
	}
	return result
}

// transitionEntries accepts either {"transitions": [...]} or a bare
// array. Anything else is an unknown shape.
func transitionEntries(raw json.RawMessage) ([]json.RawMessage, bool) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err == nil {
		inner, present := obj["transitions"]
		if !present {
			return nil, false
		}
		var entries []json.RawMessage
		if err := json.Unmarshal(inner, &entries); err != nil {
			return nil, string(inner) == "null"
		}
		return entries, true
	}

	var entries []json.RawMessage
	if err := json.Unmarshal(raw, &entries); err == nil {
		return entries, true
	}
	return nil, false
}

// decodeRecord parses one transition entry as a JSON object, preserving
// numeric values exactly so a numeric id round-trips as its original
// digits rather than a float rendering.
func decodeRecord(entry json.RawMessage) (map[string]any, bool) {
	dec := json.NewDecoder(bytes.NewReader(entry))
	dec.UseNumber()
	var record map[string]any
	if err := dec.Decode(&record); err != nil {
		return nil, false
	}
	return record, true
}

// stringValue renders a decoded JSON scalar as a string; numbers keep
// their exact wire digits via json.Number.
func stringValue(v any) string {
	switch s := v.(type) {
	case string:
		return s
	case json.Number:
		return s.String()
	default:
		return ""
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
