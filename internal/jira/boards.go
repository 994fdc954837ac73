package jira

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"

	"github.com/rs/zerolog"

	"github.com/jirabridge/jirabridge/internal/transport"
)

const agilePath = "/rest/agile/1.0"

// BoardsService covers the agile API: boards, their configuration,
// backlogs, and sprints.
type BoardsService struct {
	tx  *transport.Client
	log zerolog.Logger
}

// BoardFilter narrows a board listing. Zero values mean no filter.
type BoardFilter struct {
	Type       string // "scrum" or "kanban"
	Name       string
	ProjectKey string
}

// Boards lists boards visible to the caller.
func (s *BoardsService) Boards(ctx context.Context, filter BoardFilter, startAt, maxResults int) ([]Board, error) {
	query := url.Values{
		"startAt":    {strconv.Itoa(startAt)},
		"maxResults": {strconv.Itoa(maxResults)},
	}
	if filter.Type != "" {
		query.Set("type", filter.Type)
	}
	if filter.Name != "" {
		query.Set("name", filter.Name)
	}
	if filter.ProjectKey != "" {
		query.Set("projectKeyOrId", filter.ProjectKey)
	}

	raw, err := s.tx.Do(ctx, http.MethodGet, agilePath+"/board", query, nil)
	if err != nil {
		return nil, mapError(err, "boards", "")
	}

	var envelope struct {
		Values []Board `json:"values"`
	}
	if err := unmarshal(raw, &envelope); err != nil {
		return nil, mapError(err, "boards", "")
	}
	return envelope.Values, nil
}

// Board fetches one board by id.
func (s *BoardsService) Board(ctx context.Context, boardID int) (*Board, error) {
	raw, err := s.tx.Do(ctx, http.MethodGet, fmt.Sprintf("%s/board/%d", agilePath, boardID), nil, nil)
	if err != nil {
		return nil, mapError(err, "board", strconv.Itoa(boardID))
	}

	var board Board
	if err := unmarshal(raw, &board); err != nil {
		return nil, mapError(err, "board", strconv.Itoa(boardID))
	}
	return &board, nil
}

// BoardConfiguration holds the column-to-status mapping and the
// estimation field of a board.
type BoardConfiguration struct {
	ID           int    `json:"id"`
	Name         string `json:"name"`
	Type         string `json:"type"`
	ColumnConfig struct {
		Columns []struct {
			Name     string   `json:"name"`
			Statuses []Status `json:"statuses"`
		} `json:"columns"`
	} `json:"columnConfig"`
	Estimation struct {
		Field struct {
			FieldID     string `json:"fieldId"`
			DisplayName string `json:"displayName"`
		} `json:"field"`
	} `json:"estimation"`
}

// Configuration fetches a board's configuration.
func (s *BoardsService) Configuration(ctx context.Context, boardID int) (*BoardConfiguration, error) {
	raw, err := s.tx.Do(ctx, http.MethodGet, fmt.Sprintf("%s/board/%d/configuration", agilePath, boardID), nil, nil)
	if err != nil {
		return nil, mapError(err, "board", strconv.Itoa(boardID))
	}

	var cfg BoardConfiguration
	if err := unmarshal(raw, &cfg); err != nil {
		return nil, mapError(err, "board", strconv.Itoa(boardID))
	}
	return &cfg, nil
}

// Issues lists the issues on a board, optionally narrowed by JQL.
func (s *BoardsService) Issues(ctx context.Context, boardID int, jql string, startAt, maxResults int) ([]Issue, error) {
	return s.boardIssues(ctx, fmt.Sprintf("%s/board/%d/issue", agilePath, boardID), boardID, jql, startAt, maxResults)
}

// Backlog lists the backlog issues of a board.
func (s *BoardsService) Backlog(ctx context.Context, boardID int, startAt, maxResults int) ([]Issue, error) {
	return s.boardIssues(ctx, fmt.Sprintf("%s/board/%d/backlog", agilePath, boardID), boardID, "", startAt, maxResults)
}

func (s *BoardsService) boardIssues(ctx context.Context, path string, boardID int, jql string, startAt, maxResults int) ([]Issue, error) {
	query := url.Values{
		"startAt":    {strconv.Itoa(startAt)},
		"maxResults": {strconv.Itoa(maxResults)},
	}
	if jql != "" {
		query.Set("jql", jql)
	}

	raw, err := s.tx.Do(ctx, http.MethodGet, path, query, nil)
	if err != nil {
		return nil, mapError(err, "board", strconv.Itoa(boardID))
	}

	var envelope struct {
		Issues []Issue `json:"issues"`
	}
	if err := unmarshal(raw, &envelope); err != nil {
		return nil, mapError(err, "board", strconv.Itoa(boardID))
	}
	return envelope.Issues, nil
}

// Epics lists the epics tracked on a board.
func (s *BoardsService) Epics(ctx context.Context, boardID int, startAt, maxResults int) ([]Issue, error) {
	query := url.Values{
		"startAt":    {strconv.Itoa(startAt)},
		"maxResults": {strconv.Itoa(maxResults)},
	}

	raw, err := s.tx.Do(ctx, http.MethodGet, fmt.Sprintf("%s/board/%d/epic", agilePath, boardID), query, nil)
	if err != nil {
		return nil, mapError(err, "board", strconv.Itoa(boardID))
	}

	var envelope struct {
		Values []Issue `json:"values"`
	}
	if err := unmarshal(raw, &envelope); err != nil {
		return nil, mapError(err, "board", strconv.Itoa(boardID))
	}
	return envelope.Values, nil
}

// Sprints lists a board's sprints, optionally filtered by state
// ("active", "future", "closed").
func (s *BoardsService) Sprints(ctx context.Context, boardID int, state string, startAt, maxResults int) ([]Sprint, error) {
	query := url.Values{
		"startAt":    {strconv.Itoa(startAt)},
		"maxResults": {strconv.Itoa(maxResults)},
	}
	if state != "" {
		query.Set("state", state)
	}

	raw, err := s.tx.Do(ctx, http.MethodGet, fmt.Sprintf("%s/board/%d/sprint", agilePath, boardID), query, nil)
	if err != nil {
		return nil, mapError(err, "board", strconv.Itoa(boardID))
	}

	var envelope struct {
		Values []Sprint `json:"values"`
	}
	if err := unmarshal(raw, &envelope); err != nil {
		return nil, mapError(err, "board", strconv.Itoa(boardID))
	}
	return envelope.Values, nil
}

// SprintIssues lists the issues committed to a sprint.
func (s *BoardsService) SprintIssues(ctx context.Context, sprintID int, startAt, maxResults int) ([]Issue, error) {
	query := url.Values{
		"startAt":    {strconv.Itoa(startAt)},
		"maxResults": {strconv.Itoa(maxResults)},
	}

	raw, err := s.tx.Do(ctx, http.MethodGet, fmt.Sprintf("%s/sprint/%d/issue", agilePath, sprintID), query, nil)
	if err != nil {
		return nil, mapError(err, "sprint", strconv.Itoa(sprintID))
	}

	var envelope struct {
		Issues []Issue `json:"issues"`
	}
	if err := unmarshal(raw, &envelope); err != nil {
		return nil, mapError(err, "sprint", strconv.Itoa(sprintID))
	}
	return envelope.Issues, nil
}
