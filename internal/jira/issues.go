package jira

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/jirabridge/jirabridge/internal/transport"
)

// IssuesService handles issue CRUD, JQL search, comments, worklogs,
// workflow transitions, and epic relationships.
type IssuesService struct {
	tx     *transport.Client
	log    zerolog.Logger
	fields *FieldsService
	users  *UsersService
}

// missingFieldRe extracts the custom field id from Jira's two known
// "required field missing" error phrasings.
var missingFieldRe = regexp.MustCompile(`(?:Field '(customfield_\d+)'|'(customfield_\d+)' cannot be set)`)

// Get fetches a single issue. Optional expand values are passed
// through to the API (e.g. "renderedFields", "changelog").
func (s *IssuesService) Get(ctx context.Context, issueKey string, expand ...string) (*Issue, error) {
	var query url.Values
	if len(expand) > 0 {
		query = url.Values{"expand": {strings.Join(expand, ",")}}
	}

	raw, err := s.tx.Do(ctx, http.MethodGet, "/rest/api/2/issue/"+url.PathEscape(issueKey), query, nil)
	if err != nil {
		return nil, mapError(err, "issue", issueKey)
	}

	var issue Issue
	if err := unmarshal(raw, &issue); err != nil {
		return nil, mapError(err, "issue", issueKey)
	}
	return &issue, nil
}

// EpicKey returns the key of the epic this issue belongs to, or "".
// The parent field is checked first, then the custom fields that
// commonly carry the epic link.
func (i *Issue) EpicKey() string {
	if i.Fields.Parent != nil && i.Fields.Parent.Key != "" {
		return i.Fields.Parent.Key
	}
	for _, fieldID := range epicLinkFallbacks {
		raw, ok := i.Fields.Custom[fieldID]
		if !ok {
			continue
		}
		// Either a bare key string or an object with a key member.
		var key string
		if err := json.Unmarshal(raw, &key); err == nil && key != "" {
			return key
		}
		var ref struct {
			Key string `json:"key"`
		}
		if err := json.Unmarshal(raw, &ref); err == nil && ref.Key != "" {
			return ref.Key
		}
	}
	return ""
}

// CreateIssueInput carries the fields for issue creation. Extra holds
// any additional field values keyed by field id; for epics it may also
// carry the semantic keys "epic_name" and "epic_color".
type CreateIssueInput struct {
	ProjectKey  string
	Summary     string
	IssueType   string
	Description string
	Assignee    string
	Extra       map[string]any
}

// Create creates an issue and returns it freshly fetched. Epic
// creation is special-cased: the Epic Name and Epic Color fields vary
// per instance, so their ids come from runtime discovery, with the
// summary and "green" as defaults.
func (s *IssuesService) Create(ctx context.Context, in CreateIssueInput) (*Issue, error) {
	fields := map[string]any{
		"project":   map[string]string{"key": in.ProjectKey},
		"summary":   in.Summary,
		"issuetype": map[string]string{"name": in.IssueType},
	}
	if in.Description != "" {
		fields["description"] = in.Description
	}

	extra := maps.Clone(in.Extra)
	isEpic := strings.EqualFold(in.IssueType, "epic")
	if isEpic {
		s.prepareEpicFields(ctx, fields, extra, in.Summary)
	}

	if in.Assignee != "" {
		accountID, err := s.users.ResolveAccountID(ctx, in.Assignee)
		if err != nil {
			return nil, err
		}
		fields["assignee"] = map[string]string{"accountId": accountID}
	}
	if _, ok := extra["assignee"]; ok {
		s.log.Warn().Msg("assignee found in extra fields and ignored; use the Assignee input instead")
		delete(extra, "assignee")
	}
	for key, value := range extra {
		fields[key] = value
	}

	raw, err := s.tx.Do(ctx, http.MethodPost, "/rest/api/2/issue", nil, map[string]any{"fields": fields})
	if err != nil {
		return nil, s.mapCreateError(err, isEpic)
	}

	var created struct {
		Key string `json:"key"`
	}
	if err := unmarshal(raw, &created); err != nil {
		return nil, mapError(err, "issue", "creation")
	}
	s.log.Info().Str("issue", created.Key).Msg("created issue")
	return s.Get(ctx, created.Key)
}

// prepareEpicFields injects the instance-specific epic fields into a
// creation payload. Discovery failure is not fatal: some instances
// accept epics without them.
func (s *IssuesService) prepareEpicFields(ctx context.Context, fields map[string]any, extra map[string]any, summary string) {
	fieldIDs := s.fields.Resolve(ctx)

	epicName := popString(extra, "epic_name")
	epicColor := popString(extra, "epic_color")
	if epicColor == "" {
		epicColor = popString(extra, "epic_colour")
	}

	if id, ok := fieldIDs[FieldEpicName]; ok {
		if epicName == "" {
			epicName = summary
		}
		fields[id] = epicName
		s.log.Debug().Str("field", id).Str("value", epicName).Msg("setting epic name field")
	} else {
		s.log.Warn().Msg("epic name field not found in schema; if the instance requires it, provide the customfield_* id directly")
	}

	if id, ok := fieldIDs[FieldEpicColor]; ok {
		if epicColor == "" {
			epicColor = "green"
		}
		fields[id] = epicColor
		s.log.Debug().Str("field", id).Str("value", epicColor).Msg("setting epic color field")
	}
}

func popString(m map[string]any, key string) string {
	v, ok := m[key]
	if !ok {
		return ""
	}
	delete(m, key)
	s, _ := v.(string)
	return s
}

// mapCreateError turns a rejected epic creation naming a custom field
// into a field error that tells the caller which id to supply.
func (s *IssuesService) mapCreateError(err error, isEpic bool) error {
	if isEpic && strings.Contains(err.Error(), "customfield_") {
		if m := missingFieldRe.FindStringSubmatch(err.Error()); m != nil {
			fieldID := m[1]
			if fieldID == "" {
				fieldID = m[2]
			}
			return &APIError{
				Kind:    KindField,
				Message: fmt.Sprintf("Missing required Epic field: %s", fieldID),
			}
		}
		return &APIError{
			Kind:    KindField,
			Message: fmt.Sprintf("Epic creation failed: %s", err.Error()),
		}
	}
	return mapError(err, "issue", "creation")
}

// Update applies field changes to an issue and returns the refreshed
// issue. A "status" key is not a field: it is resolved to a workflow
// transition whose target status matches case-insensitively, and the
// remaining fields travel with the transition.
func (s *IssuesService) Update(ctx context.Context, issueKey string, fields map[string]any) (*Issue, error) {
	fields = maps.Clone(fields)
	if fields == nil {
		fields = map[string]any{}
	}

	if requested, ok := fields["status"]; ok {
		delete(fields, "status")
		status, ok := requested.(string)
		if !ok {
			s.log.Warn().Interface("status", requested).Msg("status must be a string, coercing")
			status = fmt.Sprint(requested)
		}

		transitions, err := s.Transitions(ctx, issueKey)
		if err != nil {
			return nil, err
		}
		for _, t := range transitions {
			if strings.EqualFold(t.ToStatus, status) {
				s.log.Debug().Str("issue", issueKey).Str("transition", t.ID).Str("status", status).
					Msg("resolved status update to transition")
				return s.DoTransition(ctx, issueKey, t.ID, fields, "")
			}
		}

		available := make([]string, 0, len(transitions))
		for _, t := range transitions {
			available = append(available, t.ToStatus)
		}
		return nil, &APIError{
			Kind:    KindWorkflow,
			Message: fmt.Sprintf("Cannot transition issue to status %q. Available status transitions: %s", status, strings.Join(available, ", ")),
		}
	}

	if err := s.updateFields(ctx, issueKey, fields); err != nil {
		return nil, mapError(err, "issue", issueKey)
	}
	return s.Get(ctx, issueKey)
}

// updateFields performs the raw PUT without error mapping so probing
// callers can distinguish rejection from absence themselves.
func (s *IssuesService) updateFields(ctx context.Context, issueKey string, fields map[string]any) error {
	_, err := s.tx.Do(ctx, http.MethodPut, "/rest/api/2/issue/"+url.PathEscape(issueKey), nil, map[string]any{"fields": fields})
	return err
}

// Delete deletes an issue.
func (s *IssuesService) Delete(ctx context.Context, issueKey string) error {
	_, err := s.tx.Do(ctx, http.MethodDelete, "/rest/api/2/issue/"+url.PathEscape(issueKey), nil, nil)
	if err != nil {
		return mapError(err, "issue", issueKey)
	}
	return nil
}

// Search runs a JQL query.
func (s *IssuesService) Search(ctx context.Context, jql string, startAt, maxResults int) (*SearchResult, error) {
	query := url.Values{
		"jql":        {jql},
		"startAt":    {strconv.Itoa(startAt)},
		"maxResults": {strconv.Itoa(maxResults)},
		"fields":     {"*all"},
	}

	raw, err := s.tx.Do(ctx, http.MethodGet, "/rest/api/2/search", query, nil)
	if err != nil {
		return nil, mapError(err, "issues", fmt.Sprintf("search %q", jql))
	}

	var result SearchResult
	if err := unmarshal(raw, &result); err != nil {
		return nil, mapError(err, "issues", fmt.Sprintf("search %q", jql))
	}
	return &result, nil
}

// ProjectIssues returns a project's issues, newest first.
func (s *IssuesService) ProjectIssues(ctx context.Context, projectKey string, startAt, maxResults int) (*SearchResult, error) {
	return s.Search(ctx, fmt.Sprintf("project = %s ORDER BY created DESC", projectKey), startAt, maxResults)
}

// wireComment is the API shape of a comment; Body may be a wiki markup
// string or an ADF document depending on the instance.
type wireComment struct {
	ID      string          `json:"id"`
	Body    json.RawMessage `json:"body"`
	Created string          `json:"created"`
	Updated string          `json:"updated"`
	Author  *User           `json:"author"`
}

func (w wireComment) normalize(log zerolog.Logger) Comment {
	return Comment{
		ID:      w.ID,
		Author:  displayName(w.Author),
		Body:    textBody(w.Body),
		Created: normalizeDate(log, w.Created),
		Updated: normalizeDate(log, w.Updated),
	}
}

// Comments returns up to limit comments on an issue.
func (s *IssuesService) Comments(ctx context.Context, issueKey string, limit int) ([]Comment, error) {
	raw, err := s.tx.Do(ctx, http.MethodGet, "/rest/api/2/issue/"+url.PathEscape(issueKey)+"/comment", nil, nil)
	if err != nil {
		return nil, mapError(err, "comments", issueKey)
	}

	var envelope struct {
		Comments []wireComment `json:"comments"`
	}
	if err := unmarshal(raw, &envelope); err != nil {
		return nil, mapError(err, "comments", issueKey)
	}

	if limit > 0 && len(envelope.Comments) > limit {
		envelope.Comments = envelope.Comments[:limit]
	}
	comments := make([]Comment, 0, len(envelope.Comments))
	for _, c := range envelope.Comments {
		comments = append(comments, c.normalize(s.log))
	}
	return comments, nil
}

// AddComment posts a comment and returns the normalized result.
func (s *IssuesService) AddComment(ctx context.Context, issueKey, body string) (*Comment, error) {
	raw, err := s.tx.Do(ctx, http.MethodPost, "/rest/api/2/issue/"+url.PathEscape(issueKey)+"/comment", nil, map[string]string{"body": body})
	if err != nil {
		return nil, mapError(err, "comment", issueKey)
	}

	var wire wireComment
	if err := unmarshal(raw, &wire); err != nil {
		return nil, mapError(err, "comment", issueKey)
	}
	comment := wire.normalize(s.log)
	return &comment, nil
}

// WorklogInput carries a worklog entry. TimeSpent uses Jira duration
// syntax ("1h 30m"); the estimates, when set, use the same syntax.
type WorklogInput struct {
	TimeSpent         string
	Comment           string
	Started           string
	OriginalEstimate  string
	RemainingEstimate string
}

type wireWorklog struct {
	ID               string          `json:"id"`
	Comment          json.RawMessage `json:"comment"`
	Created          string          `json:"created"`
	Updated          string          `json:"updated"`
	Started          string          `json:"started"`
	TimeSpent        string          `json:"timeSpent"`
	TimeSpentSeconds int             `json:"timeSpentSeconds"`
	Author           *User           `json:"author"`
}

func (w wireWorklog) normalize(log zerolog.Logger) Worklog {
	return Worklog{
		ID:               w.ID,
		Author:           displayName(w.Author),
		Comment:          textBody(w.Comment),
		Created:          normalizeDate(log, w.Created),
		Updated:          normalizeDate(log, w.Updated),
		Started:          normalizeDate(log, w.Started),
		TimeSpent:        w.TimeSpent,
		TimeSpentSeconds: w.TimeSpentSeconds,
	}
}

// AddWorklog logs time against an issue. The original estimate, when
// given, is written in a separate update first, and its failure does
// not abort the worklog. The remaining estimate rides the worklog call
// itself via adjustEstimate=new.
func (s *IssuesService) AddWorklog(ctx context.Context, issueKey string, in WorklogInput) (*Worklog, error) {
	seconds, err := ParseDuration(in.TimeSpent)
	if err != nil {
		return nil, fmt.Errorf("time spent %q: %w", in.TimeSpent, err)
	}

	originalUpdated := false
	if in.OriginalEstimate != "" {
		fields := map[string]any{"timetracking": map[string]string{"originalEstimate": in.OriginalEstimate}}
		if err := s.updateFields(ctx, issueKey, fields); err != nil {
			s.log.Error().Err(err).Str("issue", issueKey).Msg("failed to update original estimate, continuing with worklog")
		} else {
			originalUpdated = true
		}
	}

	body := map[string]any{"timeSpentSeconds": seconds}
	if in.Comment != "" {
		body["comment"] = in.Comment
	}
	if in.Started != "" {
		body["started"] = in.Started
	}

	var query url.Values
	remainingUpdated := false
	if in.RemainingEstimate != "" {
		query = url.Values{
			"adjustEstimate": {"new"},
			"newEstimate":    {in.RemainingEstimate},
		}
		remainingUpdated = true
	}

	raw, err := s.tx.Do(ctx, http.MethodPost, "/rest/api/2/issue/"+url.PathEscape(issueKey)+"/worklog", query, body)
	if err != nil {
		return nil, mapError(err, "worklog", issueKey)
	}

	var wire wireWorklog
	if err := unmarshal(raw, &wire); err != nil {
		return nil, mapError(err, "worklog", issueKey)
	}
	worklog := wire.normalize(s.log)
	worklog.OriginalEstimateUpdated = originalUpdated
	worklog.RemainingEstimateUpdated = remainingUpdated
	return &worklog, nil
}

// Worklogs returns the worklog entries for an issue.
func (s *IssuesService) Worklogs(ctx context.Context, issueKey string) ([]Worklog, error) {
	raw, err := s.tx.Do(ctx, http.MethodGet, "/rest/api/2/issue/"+url.PathEscape(issueKey)+"/worklog", nil, nil)
	if err != nil {
		return nil, mapError(err, "worklogs", issueKey)
	}

	var envelope struct {
		Worklogs []wireWorklog `json:"worklogs"`
	}
	if err := unmarshal(raw, &envelope); err != nil {
		return nil, mapError(err, "worklogs", issueKey)
	}

	worklogs := make([]Worklog, 0, len(envelope.Worklogs))
	for _, w := range envelope.Worklogs {
		worklogs = append(worklogs, w.normalize(s.log))
	}
	return worklogs, nil
}

// DoTransition performs a workflow transition, optionally updating
// fields and adding a comment in the same request. Nil field values
// are dropped; a string assignee is resolved to an account id, and an
// unresolvable one is skipped rather than failing the transition.
func (s *IssuesService) DoTransition(ctx context.Context, issueKey, transitionID string, fields map[string]any, comment string) (*Issue, error) {
	payload := map[string]any{
		"transition": map[string]string{"id": transitionID},
	}

	if len(fields) > 0 {
		sanitized := make(map[string]any, len(fields))
		for key, value := range fields {
			if value == nil {
				continue
			}
			if key == "assignee" {
				if name, ok := value.(string); ok {
					accountID, err := s.users.ResolveAccountID(ctx, name)
					if err != nil {
						s.log.Warn().Err(err).Str("assignee", name).Msg("could not resolve assignee, skipping field")
						continue
					}
					sanitized[key] = map[string]string{"accountId": accountID}
					continue
				}
			}
			sanitized[key] = value
		}
		if len(sanitized) > 0 {
			payload["fields"] = sanitized
		}
	}

	if comment != "" {
		payload["update"] = map[string]any{
			"comment": []map[string]any{
				{"add": map[string]string{"body": comment}},
			},
		}
	}

	s.log.Info().Str("issue", issueKey).Str("transition", transitionID).Msg("transitioning issue")
	_, err := s.tx.Do(ctx, http.MethodPost, "/rest/api/2/issue/"+url.PathEscape(issueKey)+"/transitions", nil, payload)
	if err != nil {
		return nil, mapTransitionError(err, issueKey, transitionID)
	}
	return s.Get(ctx, issueKey)
}

// mapTransitionError classifies a failed transition: missing resources
// stay not-found, anything mentioning the workflow machinery becomes a
// workflow error.
func mapTransitionError(err error, issueKey, transitionID string) error {
	message := fmt.Sprintf("Error transitioning issue %s with transition ID %s: %s", issueKey, transitionID, err.Error())
	lower := strings.ToLower(err.Error())
	switch {
	case strings.Contains(lower, "does not exist") || strings.Contains(lower, "not found"):
		return &APIError{Kind: KindNotFound, Message: message, StatusCode: statusCode(err)}
	case strings.Contains(lower, "workflow") || strings.Contains(lower, "transition"):
		return &APIError{Kind: KindWorkflow, Message: message, StatusCode: statusCode(err)}
	default:
		return &APIError{Kind: KindGeneric, Message: message, StatusCode: statusCode(err)}
	}
}

func statusCode(err error) int {
	var terr *transport.Error
	if errors.As(err, &terr) {
		return terr.StatusCode
	}
	return 0
}

func displayName(u *User) string {
	if u == nil || u.DisplayName == "" {
		return "Unknown"
	}
	return u.DisplayName
}

// textBody renders a comment or worklog body as plain text whether the
// wire carried a string or an ADF document.
func textBody(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return adfToText(raw)
}
