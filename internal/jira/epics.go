package jira

import (
	"context"
	"fmt"
	"strings"
)

// epicLinkFallbacks are field ids tried when runtime discovery does not
// surface an epic link field. 10014 is the usual Cloud id, 10000 the
// usual Server id.
var epicLinkFallbacks = []string{"customfield_10014", "customfield_10000", "epic_link"}

// LinkToEpic links an existing issue under an epic. Jira instances
// disagree on which field carries the relationship, so this walks a
// ladder of candidates: the parent field, the discovered epic link
// field, then the common hard-coded ids. The first accepted update
// wins and the refreshed issue is returned.
func (s *IssuesService) LinkToEpic(ctx context.Context, issueKey, epicKey string) (*Issue, error) {
	epic, err := s.Get(ctx, epicKey)
	if err != nil {
		return nil, err
	}
	if err := requireEpic(epic); err != nil {
		return nil, err
	}

	fieldIDs := s.fields.Resolve(ctx)

	candidates := make([]map[string]any, 0, 2+len(epicLinkFallbacks))
	candidates = append(candidates, map[string]any{"parent": map[string]string{"key": epicKey}})
	if discovered, ok := fieldIDs[FieldEpicLink]; ok {
		candidates = append(candidates, map[string]any{discovered: epicKey})
	}
	for _, id := range epicLinkFallbacks {
		candidates = append(candidates, map[string]any{id: epicKey})
	}

	tried := make(map[string]bool)
	for _, fields := range candidates {
		key := candidateKey(fields)
		if tried[key] {
			continue
		}
		tried[key] = true

		if err := s.updateFields(ctx, issueKey, fields); err != nil {
			s.log.Debug().Err(err).Str("issue", issueKey).Str("field", key).
				Msg("epic link attempt rejected, trying next field")
			continue
		}
		return s.Get(ctx, issueKey)
	}

	return nil, &APIError{
		Kind:    KindField,
		Message: fmt.Sprintf("Could not link issue %s to epic %s. Your Jira instance might use a different field for epic links.", issueKey, epicKey),
	}
}

// requireEpic rejects issues whose type is anything other than Epic.
func requireEpic(issue *Issue) error {
	typeName := "unknown"
	if issue.Fields.IssueType != nil {
		typeName = issue.Fields.IssueType.Name
	}
	if strings.EqualFold(typeName, "Epic") {
		return nil
	}
	return &APIError{
		Kind:    KindIssueType,
		Message: fmt.Sprintf("Issue %s is not an Epic, it is a %s", issue.Key, typeName),
	}
}

func candidateKey(fields map[string]any) string {
	for k := range fields {
		return k
	}
	return ""
}

// EpicIssues returns the issues that belong to an epic. Like linking,
// membership is modelled differently across instances, so a sequence
// of JQL spellings is tried and the first one that yields results
// wins. No match at all is an empty result, not an error.
func (s *IssuesService) EpicIssues(ctx context.Context, epicKey string, startAt, maxResults int) ([]Issue, error) {
	epic, err := s.Get(ctx, epicKey)
	if err != nil {
		return nil, err
	}
	if err := requireEpic(epic); err != nil {
		return nil, err
	}

	fieldIDs := s.fields.Resolve(ctx)

	var queries []string
	if _, ok := fieldIDs[FieldParent]; ok {
		queries = append(queries, fmt.Sprintf("parent = %s", epicKey))
	}
	if discovered, ok := fieldIDs[FieldEpicLink]; ok {
		queries = append(queries,
			fmt.Sprintf("%q = %s", discovered, epicKey),
			fmt.Sprintf("%q ~ %s", discovered, epicKey),
		)
	}
	queries = append(queries,
		fmt.Sprintf("parent = %s", epicKey),
		fmt.Sprintf("'Epic Link' = %s", epicKey),
		fmt.Sprintf("'Epic' = %s", epicKey),
		fmt.Sprintf("issue in childIssuesOf('%s')", epicKey),
	)

	tried := make(map[string]bool)
	for _, jql := range queries {
		if tried[jql] {
			continue
		}
		tried[jql] = true

		result, err := s.Search(ctx, jql, startAt, maxResults)
		if err != nil {
			s.log.Debug().Err(err).Str("jql", jql).Msg("epic issue query failed, trying next spelling")
			continue
		}
		if len(result.Issues) > 0 {
			return result.Issues, nil
		}
	}

	s.log.Warn().Str("epic", epicKey).
		Msg("no issues found under epic; the instance might use a different field for epic links")
	return []Issue{}, nil
}
