package jira

import (
	"errors"
	"fmt"
	"strings"

	"github.com/jirabridge/jirabridge/internal/transport"
)

// Kind classifies a Jira API failure. Every error leaving this package
// is an *APIError tagged with exactly one Kind.
type Kind int

const (
	// KindGeneric is the catch-all for transport and API failures.
	KindGeneric Kind = iota
	// KindAuthentication covers 401s and credential problems.
	KindAuthentication
	// KindPermission covers 403s and access denials.
	KindPermission
	// KindNotFound covers 404s and missing resources.
	KindNotFound
	// KindConfiguration covers missing or invalid client setup.
	KindConfiguration
	// KindField covers missing or invalid custom fields.
	KindField
	// KindIssueType covers the wrong issue type for an epic operation.
	KindIssueType
	// KindWorkflow covers unavailable status transitions.
	KindWorkflow
)

func (k Kind) String() string {
	switch k {
	case KindAuthentication:
		return "authentication"
	case KindPermission:
		return "permission"
	case KindNotFound:
		return "not_found"
	case KindConfiguration:
		return "configuration"
	case KindField:
		return "field"
	case KindIssueType:
		return "issue_type"
	case KindWorkflow:
		return "workflow"
	default:
		return "generic"
	}
}

// APIError is a classified Jira failure. StatusCode is zero when the
// failure never reached HTTP; Body holds the raw upstream response for
// diagnostics when one exists.
type APIError struct {
	Kind       Kind
	Message    string
	StatusCode int
	Body       []byte
}

func (e *APIError) Error() string { return e.Message }

// KindOf extracts the Kind from an error chain, or KindGeneric.
func KindOf(err error) Kind {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return KindGeneric
}

// IsNotFound reports whether err classifies as a missing resource.
func IsNotFound(err error) bool { return KindOf(err) == KindNotFound }

// IsAuthentication reports whether err classifies as an auth failure.
func IsAuthentication(err error) bool { return KindOf(err) == KindAuthentication }

// IsPermission reports whether err classifies as an access denial.
func IsPermission(err error) bool { return KindOf(err) == KindPermission }

// mapError classifies a raw failure into exactly one APIError, in
// priority order: HTTP status first, then message substrings, then
// Generic. Errors that are already classified pass through untouched
// so typed errors raised deeper in the package keep their Kind.
func mapError(err error, resourceType, resourceID string) *APIError {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr
	}

	message := err.Error()
	var statusCode int
	var body []byte
	var terr *transport.Error
	if errors.As(err, &terr) {
		statusCode = terr.StatusCode
		body = terr.Body
	}

	kind := KindGeneric
	switch statusCode {
	case 401:
		kind = KindAuthentication
	case 403:
		kind = KindPermission
	case 404:
		kind = KindNotFound
	default:
		lower := strings.ToLower(message)
		switch {
		case strings.Contains(lower, "authentication") || strings.Contains(lower, "unauthorized"):
			kind = KindAuthentication
		case strings.Contains(lower, "permission") || strings.Contains(lower, "access"):
			kind = KindPermission
		case strings.Contains(lower, "not found") || strings.Contains(lower, "does not exist"):
			kind = KindNotFound
		}
	}

	return &APIError{
		Kind:       kind,
		Message:    fmt.Sprintf("%s %s: %s", capitalize(resourceType), resourceID, message),
		StatusCode: statusCode,
		Body:       body,
	}
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
