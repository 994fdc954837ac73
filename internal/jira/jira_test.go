package jira

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/rs/zerolog"

	"github.com/jirabridge/jirabridge/internal/transport"
)

// newTestClient wires the full service facade against an in-process
// HTTP server. Retries are disabled so failure-path tests stay fast.
func newTestClient(t *testing.T, handler http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	tx := transport.New(srv.URL, "", "test-pat", transport.WithMaxRetryElapsed(0))
	c := &Client{tx: tx, log: zerolog.Nop()}
	c.Fields = &FieldsService{tx: tx, log: c.log}
	c.Users = &UsersService{tx: tx, log: c.log}
	c.Issues = &IssuesService{tx: tx, log: c.log, fields: c.Fields, users: c.Users}
	c.Boards = &BoardsService{tx: tx, log: c.log}
	c.Projects = &ProjectsService{tx: tx, log: c.log, issues: c.Issues}
	return c
}

func writeJSON(t *testing.T, w http.ResponseWriter, body string) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	if _, err := w.Write([]byte(body)); err != nil {
		t.Errorf("write response: %v", err)
	}
}
