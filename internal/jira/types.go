// Package jira implements an adaptive integration layer over the Jira
// REST API. It discovers instance-specific custom field identifiers at
// runtime, resolves user identities, normalizes workflow transitions,
// and links issues to epics across the field-naming differences between
// Cloud and Server/Data Center deployments.
package jira

import (
	"encoding/json"
	"strings"
)

// Issue represents a Jira issue from the REST API.
type Issue struct {
	ID     string      `json:"id"`
	Key    string      `json:"key"` // e.g., "PROJ-123"
	Self   string      `json:"self"`
	Fields IssueFields `json:"fields"`
}

// IssueFields contains the issue field values. Custom captures every
// instance-specific field (anything outside Jira's fixed schema) so
// epic-link detection can probe fields that vary per deployment.
type IssueFields struct {
	Summary     string          `json:"summary"`
	Description json.RawMessage `json:"description"` // wiki markup string or ADF doc
	Status      *Status         `json:"status"`
	Priority    *Priority       `json:"priority"`
	IssueType   *IssueType      `json:"issuetype"`
	Project     *ProjectRef     `json:"project"`
	Assignee    *User           `json:"assignee"`
	Reporter    *User           `json:"reporter"`
	Labels      []string        `json:"labels"`
	Created     string          `json:"created"`
	Updated     string          `json:"updated"`
	Parent      *ParentRef      `json:"parent"`

	Custom map[string]json.RawMessage `json:"-"`
}

// knownFieldKeys are the wire names decoded into typed IssueFields
// members; everything else lands in Custom.
var knownFieldKeys = map[string]bool{
	"summary": true, "description": true, "status": true, "priority": true,
	"issuetype": true, "project": true, "assignee": true, "reporter": true,
	"labels": true, "created": true, "updated": true, "parent": true,
}

func (f *IssueFields) UnmarshalJSON(data []byte) error {
	type fields IssueFields
	var typed fields
	if err := json.Unmarshal(data, &typed); err != nil {
		return err
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	for key, value := range raw {
		if knownFieldKeys[key] || string(value) == "null" {
			continue
		}
		if typed.Custom == nil {
			typed.Custom = make(map[string]json.RawMessage)
		}
		typed.Custom[key] = value
	}

	*f = IssueFields(typed)
	return nil
}

// DescriptionText returns the description as plain text whether the
// instance returned a wiki markup string (API v2) or an ADF document
// (API v3).
func (f *IssueFields) DescriptionText() string {
	if len(f.Description) == 0 || string(f.Description) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(f.Description, &s); err == nil {
		return s
	}
	return adfToText(f.Description)
}

// CreatedDate returns the creation timestamp as a canonical
// YYYY-MM-DD date. When the timestamp does not parse the raw value is
// returned with the error so the caller can record it.
func (f *IssueFields) CreatedDate() (string, error) {
	return NormalizeDate(f.Created)
}

// adfToText extracts the text nodes from an Atlassian Document Format
// payload, one line per top-level block.
func adfToText(raw json.RawMessage) string {
	var doc struct {
		Type    string `json:"type"`
		Content []struct {
			Content []struct {
				Text string `json:"text"`
			} `json:"content"`
		} `json:"content"`
	}
	if err := json.Unmarshal(raw, &doc); err != nil || doc.Type != "doc" {
		return string(raw)
	}

	var lines []string
	for _, block := range doc.Content {
		var line strings.Builder
		for _, inline := range block.Content {
			line.WriteString(inline.Text)
		}
		if line.Len() > 0 {
			lines = append(lines, line.String())
		}
	}
	return strings.Join(lines, "\n")
}

// Status represents a Jira workflow status.
type Status struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Priority represents a Jira priority.
type Priority struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// IssueType represents a Jira issue type.
type IssueType struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Subtask bool   `json:"subtask"`
}

// ProjectRef is the project reference embedded in an issue.
type ProjectRef struct {
	ID   string `json:"id"`
	Key  string `json:"key"`
	Name string `json:"name"`
}

// User represents a Jira user.
type User struct {
	AccountID    string `json:"accountId"`
	DisplayName  string `json:"displayName"`
	EmailAddress string `json:"emailAddress"`
	Name         string `json:"name"` // Server/DC only
}

// ParentRef is a reference to a parent issue (epic or subtask parent).
type ParentRef struct {
	ID     string `json:"id"`
	Key    string `json:"key"`
	Fields struct {
		Summary string `json:"summary"`
	} `json:"fields"`
}

// Transition is the canonical form of a workflow transition. ID is
// always a string, even when the wire representation is numeric, so
// downstream comparisons stay string-keyed.
type Transition struct {
	ID       string `json:"id"`
	Name     string `json:"name,omitempty"`
	ToStatus string `json:"to_status,omitempty"`
}

// Comment is a normalized issue comment.
type Comment struct {
	ID      string `json:"id"`
	Author  string `json:"author"`
	Body    string `json:"body"`
	Created string `json:"created"`
	Updated string `json:"updated,omitempty"`
}

// Worklog is a normalized worklog entry.
type Worklog struct {
	ID               string `json:"id"`
	Author           string `json:"author"`
	Comment          string `json:"comment,omitempty"`
	Created          string `json:"created"`
	Updated          string `json:"updated,omitempty"`
	Started          string `json:"started,omitempty"`
	TimeSpent        string `json:"timeSpent,omitempty"`
	TimeSpentSeconds int    `json:"timeSpentSeconds"`

	OriginalEstimateUpdated  bool `json:"original_estimate_updated,omitempty"`
	RemainingEstimateUpdated bool `json:"remaining_estimate_updated,omitempty"`
}

// SearchResult represents a JQL search response.
type SearchResult struct {
	StartAt    int     `json:"startAt"`
	MaxResults int     `json:"maxResults"`
	Total      int     `json:"total"`
	Issues     []Issue `json:"issues"`
}

// Board represents an agile board.
type Board struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"` // "scrum" or "kanban"
}

// Sprint represents a board sprint.
type Sprint struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	State     string `json:"state"`
	StartDate string `json:"startDate,omitempty"`
	EndDate   string `json:"endDate,omitempty"`
}

// Project represents a Jira project.
type Project struct {
	ID   string `json:"id"`
	Key  string `json:"key"`
	Name string `json:"name"`
}

// Component represents a project component.
type Component struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Version represents a project version.
type Version struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Released bool   `json:"released"`
}

// Role is a project role with its member actors.
type Role struct {
	ID          int         `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Actors      []RoleActor `json:"actors"`
}

// RoleActor is one member of a project role, either a user or a group.
type RoleActor struct {
	ID          int    `json:"id"`
	DisplayName string `json:"displayName"`
	Type        string `json:"type"`
	Name        string `json:"name"`
}

// ProjectType describes one of the instance's available project types.
type ProjectType struct {
	Key          string `json:"key"`
	FormattedKey string `json:"formattedKey"`
	Color        string `json:"color"`
}

// ProjectCategory groups projects for navigation.
type ProjectCategory struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}
