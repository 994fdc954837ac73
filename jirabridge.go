// Package jirabridge exposes the public surface of the Jira
// integration layer for programmatic use.
//
// Most callers should construct a Client from a Config and use the
// per-resource services hanging off it (Issues, Users, Fields, Boards,
// Projects). The cmd/jirabridge CLI is a thin wrapper over the same
// API.
package jirabridge

import (
	"github.com/jirabridge/jirabridge/internal/config"
	"github.com/jirabridge/jirabridge/internal/jira"
)

// Core domain types.
type (
	Client       = jira.Client
	Issue        = jira.Issue
	IssueFields  = jira.IssueFields
	Transition   = jira.Transition
	Comment      = jira.Comment
	Worklog      = jira.Worklog
	SearchResult = jira.SearchResult
	Board        = jira.Board
	Sprint       = jira.Sprint
	Project      = jira.Project
	Role         = jira.Role
	User         = jira.User

	CreateIssueInput   = jira.CreateIssueInput
	WorklogInput       = jira.WorklogInput
	CreateProjectInput = jira.CreateProjectInput
	UpdateProjectInput = jira.UpdateProjectInput
)

// Config holds connection settings for one Jira instance.
type Config = config.Config

// Error classification.
type APIError = jira.APIError

const (
	KindGeneric        = jira.KindGeneric
	KindAuthentication = jira.KindAuthentication
	KindPermission     = jira.KindPermission
	KindNotFound       = jira.KindNotFound
	KindConfiguration  = jira.KindConfiguration
	KindField          = jira.KindField
	KindIssueType      = jira.KindIssueType
	KindWorkflow       = jira.KindWorkflow
)

var (
	IsNotFound       = jira.IsNotFound
	IsAuthentication = jira.IsAuthentication
	IsPermission     = jira.IsPermission
)

// NewClient connects to the instance described by cfg.
func NewClient(cfg Config, opts ...jira.ClientOption) (*Client, error) {
	return jira.NewClient(cfg, opts...)
}

// WithLogger attaches a zerolog logger to the client.
var WithLogger = jira.WithLogger

// LoadConfig reads configuration from an optional YAML file and the
// JIRA_* environment variables.
func LoadConfig(path string) (Config, error) {
	return config.Load(path)
}

// ParseDuration converts a Jira duration string like "1h 30m" to
// seconds; FormatDuration is its inverse.
var (
	ParseDuration  = jira.ParseDuration
	FormatDuration = jira.FormatDuration
)
