package jira

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetIssue(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/rest/api/2/issue/PROJ-1", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, `{
			"id": "10002", "key": "PROJ-1",
			"fields": {
				"summary": "Story",
				"description": "plain text",
				"status": {"id": "3", "name": "In Progress"},
				"issuetype": {"name": "Story"},
				"customfield_10014": "EPIC-1",
				"customfield_10016": 5
			}
		}`)
	})
	c := newTestClient(t, mux)

	issue, err := c.Issues.Get(context.Background(), "PROJ-1")
	require.NoError(t, err)
	assert.Equal(t, "PROJ-1", issue.Key)
	assert.Equal(t, "Story", issue.Fields.Summary)
	assert.Equal(t, "In Progress", issue.Fields.Status.Name)
	assert.Equal(t, "plain text", issue.Fields.DescriptionText())

	// Unknown fields land in Custom for epic detection.
	assert.Contains(t, issue.Fields.Custom, "customfield_10016")
	assert.Equal(t, "EPIC-1", issue.EpicKey())
}

func TestGetIssueNotFound(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/rest/api/2/issue/PROJ-404", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"errorMessages": ["Issue does not exist"]}`, http.StatusNotFound)
	})
	c := newTestClient(t, mux)

	_, err := c.Issues.Get(context.Background(), "PROJ-404")
	assert.True(t, IsNotFound(err), "error = %v", err)
}

func TestEpicKeyFromParent(t *testing.T) {
	var issue Issue
	require.NoError(t, json.Unmarshal([]byte(`{
		"key": "PROJ-1",
		"fields": {
			"parent": {"key": "EPIC-9", "fields": {"summary": "Parent epic"}},
			"customfield_10014": "EPIC-1"
		}
	}`), &issue))
	// Parent wins over the custom fields.
	assert.Equal(t, "EPIC-9", issue.EpicKey())
}

func TestCreateIssue(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/rest/api/2/issue", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		var payload struct {
			Fields map[string]any `json:"fields"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "Fix the bug", payload.Fields["summary"])
		assert.Equal(t, map[string]any{"key": "PROJ"}, payload.Fields["project"])
		assert.Equal(t, map[string]any{"name": "Bug"}, payload.Fields["issuetype"])
		writeJSON(t, w, `{"id": "10010", "key": "PROJ-10"}`)
	})
	mux.HandleFunc("/rest/api/2/issue/PROJ-10", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, `{"id": "10010", "key": "PROJ-10", "fields": {"summary": "Fix the bug"}}`)
	})
	c := newTestClient(t, mux)

	issue, err := c.Issues.Create(context.Background(), CreateIssueInput{
		ProjectKey: "PROJ",
		Summary:    "Fix the bug",
		IssueType:  "Bug",
	})
	require.NoError(t, err)
	assert.Equal(t, "PROJ-10", issue.Key)
}

func TestCreateEpicInjectsDiscoveredFields(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/rest/api/2/field", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, `[
			{"id": "customfield_10011", "name": "Epic Name", "schema": {"custom": "com.pyxis.greenhopper.jira:gh-epic-label"}},
			{"id": "customfield_10012", "name": "Epic Color", "schema": {"custom": "com.pyxis.greenhopper.jira:gh-epic-color"}}
		]`)
	})
	mux.HandleFunc("/rest/api/2/issue", func(w http.ResponseWriter, r *http.Request) {
		var payload struct {
			Fields map[string]any `json:"fields"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		// Name defaults to the summary, color to green.
		assert.Equal(t, "Q3 Platform Work", payload.Fields["customfield_10011"])
		assert.Equal(t, "green", payload.Fields["customfield_10012"])
		// The semantic keys must not leak as literal field names.
		assert.NotContains(t, payload.Fields, "epic_name")
		assert.NotContains(t, payload.Fields, "epic_color")
		writeJSON(t, w, `{"id": "10020", "key": "PROJ-20"}`)
	})
	mux.HandleFunc("/rest/api/2/issue/PROJ-20", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, `{"id": "10020", "key": "PROJ-20", "fields": {"summary": "Q3 Platform Work", "issuetype": {"name": "Epic"}}}`)
	})
	c := newTestClient(t, mux)

	issue, err := c.Issues.Create(context.Background(), CreateIssueInput{
		ProjectKey: "PROJ",
		Summary:    "Q3 Platform Work",
		IssueType:  "Epic",
	})
	require.NoError(t, err)
	assert.Equal(t, "PROJ-20", issue.Key)
}

func TestCreateEpicMissingFieldError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/rest/api/2/field", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, `[]`)
	})
	mux.HandleFunc("/rest/api/2/issue", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"errorMessages": ["Field 'customfield_10011' cannot be set. It is not on the appropriate screen, or unknown."]}`, http.StatusBadRequest)
	})
	c := newTestClient(t, mux)

	_, err := c.Issues.Create(context.Background(), CreateIssueInput{
		ProjectKey: "PROJ",
		Summary:    "Epic without name field",
		IssueType:  "Epic",
	})
	require.Error(t, err)
	assert.Equal(t, KindField, KindOf(err))
	assert.Contains(t, err.Error(), "customfield_10011")
}

func TestCreateResolvesAssignee(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/rest/api/2/user/search", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, `[{"accountId": "acct-7", "displayName": "Jane Doe"}]`)
	})
	mux.HandleFunc("/rest/api/2/issue", func(w http.ResponseWriter, r *http.Request) {
		var payload struct {
			Fields map[string]any `json:"fields"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, map[string]any{"accountId": "acct-7"}, payload.Fields["assignee"])
		writeJSON(t, w, `{"id": "10030", "key": "PROJ-30"}`)
	})
	mux.HandleFunc("/rest/api/2/issue/PROJ-30", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, `{"id": "10030", "key": "PROJ-30", "fields": {"summary": "Assigned"}}`)
	})
	c := newTestClient(t, mux)

	_, err := c.Issues.Create(context.Background(), CreateIssueInput{
		ProjectKey: "PROJ",
		Summary:    "Assigned",
		IssueType:  "Task",
		Assignee:   "jane@example.com",
	})
	require.NoError(t, err)
}

func TestUpdateStatusResolvesTransition(t *testing.T) {
	var transitioned bool
	mux := http.NewServeMux()
	mux.HandleFunc("/rest/api/2/issue/PROJ-1/transitions", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			transitioned = true
			var payload struct {
				Transition map[string]string `json:"transition"`
				Fields     map[string]any    `json:"fields"`
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
			assert.Equal(t, "21", payload.Transition["id"])
			// The non-status fields ride along with the transition.
			assert.Equal(t, "updated summary", payload.Fields["summary"])
			w.WriteHeader(http.StatusNoContent)
			return
		}
		writeJSON(t, w, `{"transitions": [
			{"id": "11", "name": "Start", "to": {"name": "In Progress"}},
			{"id": "21", "name": "Finish", "to": {"name": "Done"}}
		]}`)
	})
	mux.HandleFunc("/rest/api/2/issue/PROJ-1", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, `{"id": "10002", "key": "PROJ-1", "fields": {"summary": "updated summary", "status": {"name": "Done"}}}`)
	})
	c := newTestClient(t, mux)

	issue, err := c.Issues.Update(context.Background(), "PROJ-1", map[string]any{
		"status":  "done",
		"summary": "updated summary",
	})
	require.NoError(t, err)
	assert.True(t, transitioned, "transition endpoint was not called")
	assert.Equal(t, "Done", issue.Fields.Status.Name)
}

func TestUpdateStatusNoMatchingTransition(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/rest/api/2/issue/PROJ-1/transitions", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, `{"transitions": [{"id": "11", "name": "Start", "to": {"name": "In Progress"}}]}`)
	})
	c := newTestClient(t, mux)

	_, err := c.Issues.Update(context.Background(), "PROJ-1", map[string]any{"status": "Cancelled"})
	require.Error(t, err)
	assert.Equal(t, KindWorkflow, KindOf(err))
	assert.Contains(t, err.Error(), "In Progress")
}

func TestUpdatePlainFields(t *testing.T) {
	var updated bool
	mux := http.NewServeMux()
	mux.HandleFunc("/rest/api/2/issue/PROJ-1", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPut {
			updated = true
			w.WriteHeader(http.StatusNoContent)
			return
		}
		writeJSON(t, w, `{"id": "10002", "key": "PROJ-1", "fields": {"summary": "renamed"}}`)
	})
	c := newTestClient(t, mux)

	issue, err := c.Issues.Update(context.Background(), "PROJ-1", map[string]any{"summary": "renamed"})
	require.NoError(t, err)
	assert.True(t, updated)
	assert.Equal(t, "renamed", issue.Fields.Summary)
}

func TestDoTransitionWithComment(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/rest/api/2/issue/PROJ-1/transitions", func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]json.RawMessage
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Contains(t, payload, "transition")
		assert.Contains(t, payload, "update")
		assert.NotContains(t, payload, "fields")
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("/rest/api/2/issue/PROJ-1", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, `{"id": "10002", "key": "PROJ-1", "fields": {"summary": "Story"}}`)
	})
	c := newTestClient(t, mux)

	// Nil-valued fields are dropped entirely.
	_, err := c.Issues.DoTransition(context.Background(), "PROJ-1", "21", map[string]any{"resolution": nil}, "closing out")
	require.NoError(t, err)
}

func TestSearch(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/rest/api/2/search", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, "project = PROJ ORDER BY created DESC", q.Get("jql"))
		assert.Equal(t, "10", q.Get("startAt"))
		assert.Equal(t, "25", q.Get("maxResults"))
		assert.Equal(t, "*all", q.Get("fields"))
		writeJSON(t, w, `{"startAt": 10, "maxResults": 25, "total": 1, "issues": [`+storyBody+`]}`)
	})
	c := newTestClient(t, mux)

	result, err := c.Issues.ProjectIssues(context.Background(), "PROJ", 10, 25)
	require.NoError(t, err)
	assert.Equal(t, 1, result.Total)
	require.Len(t, result.Issues, 1)
	assert.Equal(t, "PROJ-1", result.Issues[0].Key)
}

func TestComments(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/rest/api/2/issue/PROJ-1/comment", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, `{"comments": [
			{"id": "1", "body": "first", "created": "2024-01-15T10:30:00.000+0000", "author": {"displayName": "Jane"}},
			{"id": "2", "body": "second", "created": "2024-01-16T10:30:00.000+0000", "author": {"displayName": "Joe"}},
			{"id": "3", "body": "third", "created": "2024-01-17T10:30:00.000+0000"}
		]}`)
	})
	c := newTestClient(t, mux)

	comments, err := c.Issues.Comments(context.Background(), "PROJ-1", 2)
	require.NoError(t, err)
	require.Len(t, comments, 2)
	assert.Equal(t, "first", comments[0].Body)
	assert.Equal(t, "Jane", comments[0].Author)
	assert.Equal(t, "2024-01-15", comments[0].Created)
}

func TestCommentsBadTimestampLogsAndPassesThrough(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/rest/api/2/issue/PROJ-1/comment", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, `{"comments": [
			{"id": "1", "body": "first", "created": "not a timestamp", "author": {"displayName": "Jane"}}
		]}`)
	})
	c := newTestClient(t, mux)

	var buf strings.Builder
	c.Issues.log = zerolog.New(&buf)

	comments, err := c.Issues.Comments(context.Background(), "PROJ-1", 0)
	require.NoError(t, err)
	require.Len(t, comments, 1)
	assert.Equal(t, "not a timestamp", comments[0].Created)
	assert.Contains(t, buf.String(), "did not normalize")
}

func TestAddComment(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/rest/api/2/issue/PROJ-1/comment", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		var payload map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "looks good", payload["body"])
		writeJSON(t, w, `{"id": "5", "body": "looks good", "created": "2024-01-15T10:30:00.000+0000", "author": {"displayName": "Jane"}}`)
	})
	c := newTestClient(t, mux)

	comment, err := c.Issues.AddComment(context.Background(), "PROJ-1", "looks good")
	require.NoError(t, err)
	assert.Equal(t, "5", comment.ID)
	assert.Equal(t, "looks good", comment.Body)
}

func TestAddWorklog(t *testing.T) {
	var estimatePut, worklogPost bool
	mux := http.NewServeMux()
	mux.HandleFunc("/rest/api/2/issue/PROJ-1", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPut, r.Method)
		estimatePut = true
		var payload struct {
			Fields map[string]any `json:"fields"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, map[string]any{"originalEstimate": "4h"}, payload.Fields["timetracking"])
		w.WriteHeader(http.StatusNoContent)
	})
	mux.HandleFunc("/rest/api/2/issue/PROJ-1/worklog", func(w http.ResponseWriter, r *http.Request) {
		worklogPost = true
		q := r.URL.Query()
		assert.Equal(t, "new", q.Get("adjustEstimate"))
		assert.Equal(t, "2h", q.Get("newEstimate"))
		var payload map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, float64(5400), payload["timeSpentSeconds"])
		writeJSON(t, w, `{"id": "100", "timeSpent": "1h 30m", "timeSpentSeconds": 5400, "created": "2024-01-15T10:30:00.000+0000", "author": {"displayName": "Jane"}}`)
	})
	c := newTestClient(t, mux)

	worklog, err := c.Issues.AddWorklog(context.Background(), "PROJ-1", WorklogInput{
		TimeSpent:         "1h 30m",
		OriginalEstimate:  "4h",
		RemainingEstimate: "2h",
	})
	require.NoError(t, err)
	assert.True(t, estimatePut, "original estimate was not written")
	assert.True(t, worklogPost, "worklog was not posted")
	assert.Equal(t, 5400, worklog.TimeSpentSeconds)
	assert.True(t, worklog.OriginalEstimateUpdated)
	assert.True(t, worklog.RemainingEstimateUpdated)
}

func TestAddWorklogEstimateFailureIsNotFatal(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/rest/api/2/issue/PROJ-1", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"errorMessages": ["Time tracking is disabled"]}`, http.StatusBadRequest)
	})
	mux.HandleFunc("/rest/api/2/issue/PROJ-1/worklog", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, `{"id": "100", "timeSpent": "1h", "timeSpentSeconds": 3600, "author": {"displayName": "Jane"}}`)
	})
	c := newTestClient(t, mux)

	worklog, err := c.Issues.AddWorklog(context.Background(), "PROJ-1", WorklogInput{
		TimeSpent:        "1h",
		OriginalEstimate: "4h",
	})
	require.NoError(t, err)
	assert.False(t, worklog.OriginalEstimateUpdated)
}

func TestAddWorklogInvalidDuration(t *testing.T) {
	c := newTestClient(t, http.NewServeMux())
	_, err := c.Issues.AddWorklog(context.Background(), "PROJ-1", WorklogInput{TimeSpent: "soon"})
	assert.ErrorIs(t, err, ErrInvalidDuration)
}

func TestWorklogs(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/rest/api/2/issue/PROJ-1/worklog", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(t, w, `{"worklogs": [
			{"id": "100", "comment": "debugging", "timeSpent": "2h", "timeSpentSeconds": 7200, "started": "2024-01-15T09:00:00.000+0000", "author": {"displayName": "Jane"}}
		]}`)
	})
	c := newTestClient(t, mux)

	worklogs, err := c.Issues.Worklogs(context.Background(), "PROJ-1")
	require.NoError(t, err)
	require.Len(t, worklogs, 1)
	assert.Equal(t, "debugging", worklogs[0].Comment)
	assert.Equal(t, 7200, worklogs[0].TimeSpentSeconds)
	assert.Equal(t, "2024-01-15", worklogs[0].Started)
}

func TestDeleteIssue(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/rest/api/2/issue/PROJ-1", func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodDelete, r.Method)
		w.WriteHeader(http.StatusNoContent)
	})
	c := newTestClient(t, mux)

	require.NoError(t, c.Issues.Delete(context.Background(), "PROJ-1"))
}
