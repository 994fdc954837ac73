package jira

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/rs/zerolog"

	"github.com/jirabridge/jirabridge/internal/transport"
)

// ProjectsService covers project administration: the project list,
// components, versions, roles, properties, types, categories, and the
// project lifecycle (create, update, delete, archive, restore). Issue
// listing delegates to the issue service's JQL path.
type ProjectsService struct {
	tx     *transport.Client
	log    zerolog.Logger
	issues *IssuesService
}

// Projects lists the projects visible to the caller.
func (s *ProjectsService) Projects(ctx context.Context) ([]Project, error) {
	raw, err := s.tx.Do(ctx, http.MethodGet, "/rest/api/2/project", nil, nil)
	if err != nil {
		return nil, mapError(err, "projects", "")
	}

	var projects []Project
	if err := unmarshal(raw, &projects); err != nil {
		return nil, mapError(err, "projects", "")
	}
	return projects, nil
}

// Project fetches one project by key or id.
func (s *ProjectsService) Project(ctx context.Context, keyOrID string) (*Project, error) {
	raw, err := s.tx.Do(ctx, http.MethodGet, "/rest/api/2/project/"+url.PathEscape(keyOrID), nil, nil)
	if err != nil {
		return nil, mapError(err, "project", keyOrID)
	}

	var project Project
	if err := unmarshal(raw, &project); err != nil {
		return nil, mapError(err, "project", keyOrID)
	}
	return &project, nil
}

// Components lists a project's components.
func (s *ProjectsService) Components(ctx context.Context, keyOrID string) ([]Component, error) {
	raw, err := s.tx.Do(ctx, http.MethodGet, "/rest/api/2/project/"+url.PathEscape(keyOrID)+"/components", nil, nil)
	if err != nil {
		return nil, mapError(err, "project", keyOrID)
	}

	var components []Component
	if err := unmarshal(raw, &components); err != nil {
		return nil, mapError(err, "project", keyOrID)
	}
	return components, nil
}

// Versions lists a project's versions.
func (s *ProjectsService) Versions(ctx context.Context, keyOrID string) ([]Version, error) {
	raw, err := s.tx.Do(ctx, http.MethodGet, "/rest/api/2/project/"+url.PathEscape(keyOrID)+"/versions", nil, nil)
	if err != nil {
		return nil, mapError(err, "project", keyOrID)
	}

	var versions []Version
	if err := unmarshal(raw, &versions); err != nil {
		return nil, mapError(err, "project", keyOrID)
	}
	return versions, nil
}

// Issues returns a project's issues, newest first.
func (s *ProjectsService) Issues(ctx context.Context, projectKey string, startAt, maxResults int) (*SearchResult, error) {
	return s.issues.ProjectIssues(ctx, projectKey, startAt, maxResults)
}

// Roles returns the project's role names mapped to their resource URLs.
func (s *ProjectsService) Roles(ctx context.Context, keyOrID string) (map[string]string, error) {
	raw, err := s.tx.Do(ctx, http.MethodGet, "/rest/api/2/project/"+url.PathEscape(keyOrID)+"/role", nil, nil)
	if err != nil {
		return nil, mapError(err, "project roles", keyOrID)
	}

	var roles map[string]string
	if err := unmarshal(raw, &roles); err != nil {
		return nil, mapError(err, "project roles", keyOrID)
	}
	return roles, nil
}

// Role fetches one project role, actors included.
func (s *ProjectsService) Role(ctx context.Context, keyOrID, roleID string) (*Role, error) {
	raw, err := s.tx.Do(ctx, http.MethodGet, "/rest/api/2/project/"+url.PathEscape(keyOrID)+"/role/"+url.PathEscape(roleID), nil, nil)
	if err != nil {
		return nil, mapError(err, "project role "+roleID, keyOrID)
	}

	var role Role
	if err := unmarshal(raw, &role); err != nil {
		return nil, mapError(err, "project role "+roleID, keyOrID)
	}
	return &role, nil
}

// RoleActors returns the members of one project role.
func (s *ProjectsService) RoleActors(ctx context.Context, keyOrID, roleID string) ([]RoleActor, error) {
	role, err := s.Role(ctx, keyOrID, roleID)
	if err != nil {
		return nil, err
	}
	return role.Actors, nil
}

// PropertyKeys lists the keys of a project's properties.
func (s *ProjectsService) PropertyKeys(ctx context.Context, keyOrID string) ([]string, error) {
	raw, err := s.tx.Do(ctx, http.MethodGet, "/rest/api/2/project/"+url.PathEscape(keyOrID)+"/properties", nil, nil)
	if err != nil {
		return nil, mapError(err, "project properties", keyOrID)
	}

	var envelope struct {
		Keys []struct {
			Key string `json:"key"`
		} `json:"keys"`
	}
	if err := unmarshal(raw, &envelope); err != nil {
		return nil, mapError(err, "project properties", keyOrID)
	}
	keys := make([]string, 0, len(envelope.Keys))
	for _, k := range envelope.Keys {
		keys = append(keys, k.Key)
	}
	return keys, nil
}

// Property returns one project property's value, undecoded.
func (s *ProjectsService) Property(ctx context.Context, keyOrID, propertyKey string) (json.RawMessage, error) {
	raw, err := s.tx.Do(ctx, http.MethodGet, "/rest/api/2/project/"+url.PathEscape(keyOrID)+"/properties/"+url.PathEscape(propertyKey), nil, nil)
	if err != nil {
		return nil, mapError(err, "project property "+propertyKey, keyOrID)
	}

	var envelope struct {
		Value json.RawMessage `json:"value"`
	}
	if err := unmarshal(raw, &envelope); err != nil {
		return nil, mapError(err, "project property "+propertyKey, keyOrID)
	}
	return envelope.Value, nil
}

// Types lists the instance's available project types.
func (s *ProjectsService) Types(ctx context.Context) ([]ProjectType, error) {
	raw, err := s.tx.Do(ctx, http.MethodGet, "/rest/api/2/project/type", nil, nil)
	if err != nil {
		return nil, mapError(err, "project types", "")
	}

	var types []ProjectType
	if err := unmarshal(raw, &types); err != nil {
		return nil, mapError(err, "project types", "")
	}
	return types, nil
}

// Type fetches one project type by key, e.g. "software" or "business".
func (s *ProjectsService) Type(ctx context.Context, typeKey string) (*ProjectType, error) {
	raw, err := s.tx.Do(ctx, http.MethodGet, "/rest/api/2/project/type/"+url.PathEscape(typeKey), nil, nil)
	if err != nil {
		return nil, mapError(err, "project type", typeKey)
	}

	var pt ProjectType
	if err := unmarshal(raw, &pt); err != nil {
		return nil, mapError(err, "project type", typeKey)
	}
	return &pt, nil
}

// Categories lists the instance's project categories.
func (s *ProjectsService) Categories(ctx context.Context) ([]ProjectCategory, error) {
	raw, err := s.tx.Do(ctx, http.MethodGet, "/rest/api/2/projectCategory", nil, nil)
	if err != nil {
		return nil, mapError(err, "project categories", "")
	}

	var categories []ProjectCategory
	if err := unmarshal(raw, &categories); err != nil {
		return nil, mapError(err, "project categories", "")
	}
	return categories, nil
}

// Category fetches one project category by id.
func (s *ProjectsService) Category(ctx context.Context, categoryID string) (*ProjectCategory, error) {
	raw, err := s.tx.Do(ctx, http.MethodGet, "/rest/api/2/projectCategory/"+url.PathEscape(categoryID), nil, nil)
	if err != nil {
		return nil, mapError(err, "project category", categoryID)
	}

	var category ProjectCategory
	if err := unmarshal(raw, &category); err != nil {
		return nil, mapError(err, "project category", categoryID)
	}
	return &category, nil
}

// CreateProjectInput carries the fields for a new project. Key, Name,
// and TypeKey are required; zero-valued optional fields are omitted
// from the request.
type CreateProjectInput struct {
	Key                string
	Name               string
	TypeKey            string
	Description        string
	LeadAccountID      string
	URL                string
	AssigneeType       string
	AvatarID           int
	CategoryID         int
	PermissionScheme   int
	NotificationScheme int
	WorkflowScheme     int
}

func (in CreateProjectInput) payload() map[string]any {
	payload := map[string]any{
		"key":            in.Key,
		"name":           in.Name,
		"projectTypeKey": in.TypeKey,
	}
	setString(payload, "description", in.Description)
	setString(payload, "leadAccountId", in.LeadAccountID)
	setString(payload, "url", in.URL)
	setString(payload, "assigneeType", in.AssigneeType)
	setInt(payload, "avatarId", in.AvatarID)
	setInt(payload, "categoryId", in.CategoryID)
	setInt(payload, "permissionScheme", in.PermissionScheme)
	setInt(payload, "notificationScheme", in.NotificationScheme)
	setInt(payload, "workflowScheme", in.WorkflowScheme)
	return payload
}

// Create provisions a new project.
func (s *ProjectsService) Create(ctx context.Context, in CreateProjectInput) (*Project, error) {
	if in.Key == "" || in.Name == "" || in.TypeKey == "" {
		return nil, &APIError{
			Kind:    KindConfiguration,
			Message: fmt.Sprintf("Project %s: key, name, and type key are required", in.Key),
		}
	}

	raw, err := s.tx.Do(ctx, http.MethodPost, "/rest/api/2/project", nil, in.payload())
	if err != nil {
		return nil, mapError(err, "project creation", in.Key)
	}

	var project Project
	if err := unmarshal(raw, &project); err != nil {
		return nil, mapError(err, "project creation", in.Key)
	}
	return &project, nil
}

// UpdateProjectInput carries the changed fields for a project update.
// Zero-valued fields are left untouched on the server.
type UpdateProjectInput struct {
	Name          string
	Description   string
	LeadAccountID string
	URL           string
	AssigneeType  string
	AvatarID      int
	CategoryID    int
}

func (in UpdateProjectInput) payload() map[string]any {
	payload := map[string]any{}
	setString(payload, "name", in.Name)
	setString(payload, "description", in.Description)
	setString(payload, "leadAccountId", in.LeadAccountID)
	setString(payload, "url", in.URL)
	setString(payload, "assigneeType", in.AssigneeType)
	setInt(payload, "avatarId", in.AvatarID)
	setInt(payload, "categoryId", in.CategoryID)
	return payload
}

// Update changes project fields. An input with no changes skips the
// write and returns the current project.
func (s *ProjectsService) Update(ctx context.Context, keyOrID string, in UpdateProjectInput) (*Project, error) {
	payload := in.payload()
	if len(payload) == 0 {
		return s.Project(ctx, keyOrID)
	}

	raw, err := s.tx.Do(ctx, http.MethodPut, "/rest/api/2/project/"+url.PathEscape(keyOrID), nil, payload)
	if err != nil {
		return nil, mapError(err, "project update", keyOrID)
	}

	var project Project
	if err := unmarshal(raw, &project); err != nil {
		return nil, mapError(err, "project update", keyOrID)
	}
	return &project, nil
}

// Delete removes a project. With enableUndo the server moves it to the
// recycle bin instead of erasing it.
func (s *ProjectsService) Delete(ctx context.Context, keyOrID string, enableUndo bool) error {
	var query url.Values
	if enableUndo {
		query = url.Values{"enableUndo": []string{"true"}}
	}
	if _, err := s.tx.Do(ctx, http.MethodDelete, "/rest/api/2/project/"+url.PathEscape(keyOrID), query, nil); err != nil {
		return mapError(err, "project deletion", keyOrID)
	}
	return nil
}

// Archive moves a project into the archive.
func (s *ProjectsService) Archive(ctx context.Context, keyOrID string) error {
	if _, err := s.tx.Do(ctx, http.MethodPost, "/rest/api/2/project/"+url.PathEscape(keyOrID)+"/archive", nil, nil); err != nil {
		return mapError(err, "project archival", keyOrID)
	}
	return nil
}

// Restore brings an archived project back.
func (s *ProjectsService) Restore(ctx context.Context, keyOrID string) error {
	if _, err := s.tx.Do(ctx, http.MethodPost, "/rest/api/2/project/"+url.PathEscape(keyOrID)+"/restore", nil, nil); err != nil {
		return mapError(err, "project restoration", keyOrID)
	}
	return nil
}

func setString(payload map[string]any, key, value string) {
	if value != "" {
		payload[key] = value
	}
}

func setInt(payload map[string]any, key string, value int) {
	if value != 0 {
		payload[key] = value
	}
}
