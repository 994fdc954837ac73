package jira

import (
	"context"
	"maps"
	"net/http"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/jirabridge/jirabridge/internal/transport"
)

// Semantic field keys produced by field discovery. Discovery may also
// emit synthesized "epic_<name>" keys for unanticipated epic-related
// fields, since schemas vary unpredictably across instances.
const (
	FieldEpicLink    = "epic_link"
	FieldEpicName    = "epic_name"
	FieldEpicStatus  = "epic_status"
	FieldEpicColor   = "epic_color"
	FieldParent      = "parent"
	FieldPriority    = "priority"
	FieldSprint      = "sprint"
	FieldStoryPoints = "story_points"
)

// Greenhopper custom-type tags that identify agile fields regardless of
// the display name an admin gave them.
const (
	customEpicLink  = "com.pyxis.greenhopper.jira:gh-epic-link"
	customEpicLabel = "com.pyxis.greenhopper.jira:gh-epic-label"
	customEpicColor = "com.pyxis.greenhopper.jira:gh-epic-color"
	customSprint    = "com.pyxis.greenhopper.jira:gh-sprint"
)

// Field is one row of the instance's field catalog.
type Field struct {
	ID     string      `json:"id"`
	Name   string      `json:"name"`
	Schema FieldSchema `json:"schema"`
}

// FieldSchema carries the type information attached to a catalog entry.
type FieldSchema struct {
	Type   string `json:"type"`
	Custom string `json:"custom"`
}

// FieldsService discovers and caches the instance-specific identifiers
// of semantically known fields (epic link, sprint, story points, ...).
// The mapping is built once per client lifetime and is immutable until
// an explicit Reset; concurrent first access performs at most one
// catalog fetch.
type FieldsService struct {
	tx  *transport.Client
	log zerolog.Logger

	mu    sync.RWMutex
	cache map[string]string
	group singleflight.Group
}

// Resolve returns the semantic-key -> field-ID mapping for the
// instance, fetching the field catalog on first use. On upstream
// failure it logs the classified error and returns an empty map so
// field-dependent operations can degrade gracefully instead of failing.
func (s *FieldsService) Resolve(ctx context.Context) map[string]string {
	s.mu.RLock()
	cached := s.cache
	s.mu.RUnlock()
	if cached != nil {
		return maps.Clone(cached)
	}

	result, err, _ := s.group.Do("field-catalog", func() (any, error) {
		// Re-check under the flight: a previous flight may have
		// populated the cache between our read and Do.
		s.mu.RLock()
		cached := s.cache
		s.mu.RUnlock()
		if cached != nil {
			return cached, nil
		}

		raw, err := s.tx.Do(ctx, http.MethodGet, "/rest/api/2/field", nil, nil)
		if err != nil {
			return nil, mapError(err, "fields", "")
		}

		var catalog []Field
		if err := unmarshal(raw, &catalog); err != nil {
			return nil, mapError(err, "fields", "")
		}

		ids := classifyFields(catalog, s.log)
		s.mu.Lock()
		s.cache = ids
		s.mu.Unlock()
		return ids, nil
	})
	if err != nil {
		s.log.Error().Err(err).Msg("field discovery failed; continuing with empty field map")
		return map[string]string{}
	}
	return maps.Clone(result.(map[string]string))
}

// Reset drops the cached mapping so the next Resolve re-queries the
// catalog. The cache is never invalidated automatically.
func (s *FieldsService) Reset() {
	s.mu.Lock()
	s.cache = nil
	s.mu.Unlock()
}

// classifyFields assigns each catalog entry to at most one semantic
// key. Rules are tried in a fixed order and the first match wins;
// catalog order is the tie-break when two fields compete for the same
// synthesized key. This is a heuristic table, not a hard contract:
// Jira schemas are not reliably introspectable across deployments.
func classifyFields(catalog []Field, log zerolog.Logger) map[string]string {
	ids := make(map[string]string)

	assign := func(key string, f Field) {
		if _, taken := ids[key]; taken {
			return
		}
		ids[key] = f.ID
		log.Debug().Str("key", key).Str("field", f.Name).Str("id", f.ID).Msg("discovered field")
	}

	for _, f := range catalog {
		name := strings.ToLower(f.Name)
		custom := f.Schema.Custom

		switch {
		case strings.Contains(name, "epic link") || strings.Contains(name, "epic-link") || custom == customEpicLink:
			assign(FieldEpicLink, f)
		case strings.Contains(name, "epic name") || strings.Contains(name, "epic-name") || custom == customEpicLabel:
			assign(FieldEpicName, f)
		case name == "parent" || name == "parent link":
			assign(FieldParent, f)
		case strings.Contains(name, "epic status"):
			assign(FieldEpicStatus, f)
		case strings.Contains(name, "epic colour") || strings.Contains(name, "epic color") || custom == customEpicColor:
			assign(FieldEpicColor, f)
		case name == "priority":
			assign(FieldPriority, f)
		case strings.Contains(name, "sprint") || custom == customSprint:
			assign(FieldSprint, f)
		case strings.Contains(name, "story point"):
			assign(FieldStoryPoints, f)
		case strings.Contains(name, "epic") || strings.Contains(custom, "epic"):
			// Catch-all for unanticipated epic-related fields.
			if !containsValue(ids, f.ID) {
				assign("epic_"+strings.ReplaceAll(name, " ", "_"), f)
			}
		}
	}

	return ids
}

func containsValue(m map[string]string, v string) bool {
	for _, existing := range m {
		if existing == v {
			return true
		}
	}
	return false
}
