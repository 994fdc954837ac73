package jira

import (
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/jirabridge/jirabridge/internal/config"
	"github.com/jirabridge/jirabridge/internal/transport"
)

// Client is the entry point to the integration layer: one transport
// bound to one Jira instance, shared by independent per-resource
// services.
type Client struct {
	tx  *transport.Client
	log zerolog.Logger

	Fields   *FieldsService
	Users    *UsersService
	Issues   *IssuesService
	Boards   *BoardsService
	Projects *ProjectsService
}

// ClientOption mutates client construction.
type ClientOption func(*Client)

// WithLogger attaches a logger; the default is a no-op logger so the
// library stays quiet unless asked.
func WithLogger(log zerolog.Logger) ClientOption {
	return func(c *Client) { c.log = log }
}

// NewClient validates cfg and assembles the service facade. Invalid
// configuration is a KindConfiguration error, never a panic.
func NewClient(cfg config.Config, opts ...ClientOption) (*Client, error) {
	if err := cfg.Validate(); err != nil {
		return nil, &APIError{
			Kind:    KindConfiguration,
			Message: fmt.Sprintf("jira client configuration: %s", err),
		}
	}

	c := &Client{log: zerolog.Nop()}
	for _, opt := range opts {
		opt(c)
	}

	txOpts := []transport.Option{
		transport.WithLogger(c.log),
		transport.WithTimeout(cfg.Timeout),
	}
	if !cfg.VerifySSL {
		txOpts = append(txOpts, transport.WithInsecureSkipVerify())
	}

	token := cfg.PersonalToken
	username := ""
	if cfg.IsCloud() {
		token = cfg.APIToken
		username = cfg.Username
	}
	c.tx = transport.New(cfg.URL, username, token, txOpts...)

	c.Fields = &FieldsService{tx: c.tx, log: c.log}
	c.Users = &UsersService{tx: c.tx, log: c.log}
	c.Issues = &IssuesService{tx: c.tx, log: c.log, fields: c.Fields, users: c.Users}
	c.Boards = &BoardsService{tx: c.tx, log: c.log}
	c.Projects = &ProjectsService{tx: c.tx, log: c.log, issues: c.Issues}
	return c, nil
}

// BrowseURL returns the human-readable URL for an issue key.
func (c *Client) BrowseURL(issueKey string) string {
	return c.tx.BaseURL() + "/browse/" + issueKey
}

// unmarshal decodes a raw API response, wrapping decode failures with
// context so they classify as Generic at the boundary.
func unmarshal(raw json.RawMessage, out any) error {
	if len(raw) == 0 {
		return fmt.Errorf("empty response body")
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("parse response: %w", err)
	}
	return nil
}
