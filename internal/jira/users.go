package jira

import (
	"context"
	"fmt"
	"net/http"
	"net/url"

	"github.com/rs/zerolog"

	"github.com/jirabridge/jirabridge/internal/transport"
)

// UsersService resolves human-supplied user identifiers (email, display
// name, or an account ID) to canonical account IDs. Results are never
// cached: identity staleness is a worse failure mode than the cost of a
// lookup.
type UsersService struct {
	tx  *transport.Client
	log zerolog.Logger
}

// ResolveAccountID resolves identifier to a Jira account ID.
//
// An identifier made only of alphanumerics and hyphens is assumed to
// already be an account ID and is returned without an upstream call.
// Otherwise a direct user search is tried first, then a browse-
// permission-scoped search. Deployments restrict the directory search
// endpoint differently, and the permission-scoped variant is broader
// but less precise.
func (s *UsersService) ResolveAccountID(ctx context.Context, identifier string) (string, error) {
	if identifier == "" {
		return "", &APIError{Kind: KindNotFound, Message: "user : empty identifier"}
	}

	if looksLikeAccountID(identifier) {
		s.log.Debug().Str("identifier", identifier).Msg("treating identifier as account ID")
		return identifier, nil
	}

	if accountID := s.directLookup(ctx, identifier); accountID != "" {
		return accountID, nil
	}

	if accountID := s.browsePermissionLookup(ctx, identifier); accountID != "" {
		return accountID, nil
	}

	return "", &APIError{
		Kind:    KindNotFound,
		Message: fmt.Sprintf("User %s: could not resolve account ID", identifier),
	}
}

// directLookup queries the user directory search endpoint. Multiple
// matches are resolved deterministically to the first returned, with
// the ambiguity logged.
func (s *UsersService) directLookup(ctx context.Context, identifier string) string {
	query := url.Values{}
	// Cloud renamed the search parameter from username to query.
	if s.tx.IsCloud() {
		query.Set("query", identifier)
	} else {
		query.Set("username", identifier)
	}

	raw, err := s.tx.Do(ctx, http.MethodGet, "/rest/api/2/user/search", query, nil)
	if err != nil {
		s.log.Warn().Err(err).Str("identifier", identifier).Msg("direct user lookup failed")
		return ""
	}

	var users []User
	if err := unmarshal(raw, &users); err != nil {
		s.log.Warn().Err(err).Str("identifier", identifier).Msg("direct user lookup returned unparseable body")
		return ""
	}
	if len(users) == 0 {
		s.log.Warn().Str("identifier", identifier).Msg("direct user lookup found no users")
		return ""
	}
	if len(users) > 1 {
		s.log.Warn().
			Str("identifier", identifier).
			Int("matches", len(users)).
			Str("chosen", users[0].DisplayName).
			Msg("multiple users matched; using first")
	}

	if users[0].AccountID == "" {
		s.log.Warn().Str("identifier", identifier).Msg("user found but no account ID present")
		return ""
	}
	return users[0].AccountID
}

// browsePermissionLookup searches users with browse access, filtered by
// the same string. Broader than the directory search on locked-down
// instances.
func (s *UsersService) browsePermissionLookup(ctx context.Context, identifier string) string {
	query := url.Values{}
	query.Set("username", identifier)

	raw, err := s.tx.Do(ctx, http.MethodGet, "/rest/api/2/user/viewissue/search", query, nil)
	if err != nil {
		s.log.Warn().Err(err).Str("identifier", identifier).Msg("browse-permission user lookup failed")
		return ""
	}

	var users []User
	if err := unmarshal(raw, &users); err != nil || len(users) == 0 || users[0].AccountID == "" {
		return ""
	}
	s.log.Debug().Str("identifier", identifier).Str("accountId", users[0].AccountID).Msg("resolved via browse-permission lookup")
	return users[0].AccountID
}

// Myself returns the account ID of the authenticated user.
func (s *UsersService) Myself(ctx context.Context) (string, error) {
	raw, err := s.tx.Do(ctx, http.MethodGet, "/rest/api/2/myself", nil, nil)
	if err != nil {
		return "", mapError(err, "user", "current")
	}

	var myself struct {
		AccountID string `json:"accountId"`
	}
	if err := unmarshal(raw, &myself); err != nil {
		return "", mapError(err, "user", "current")
	}
	if myself.AccountID == "" {
		return "", &APIError{
			Kind:    KindAuthentication,
			Message: "unable to get account ID from user profile",
		}
	}
	return myself.AccountID, nil
}

// looksLikeAccountID reports whether s contains only alphanumerics and
// hyphens. Callers must not pass ambiguous strings that happen to
// satisfy this shape expecting a directory lookup.
func looksLikeAccountID(s string) bool {
	seen := false
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			seen = true
		case r == '-':
		default:
			return false
		}
	}
	return seen
}
