// Package transport provides the authenticated HTTP+JSON layer shared by
// all Jira API services. It is bound to one base URL and one credential
// set; it knows nothing about issues, fields, or epics.
package transport

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"
)

const defaultTimeout = 30 * time.Second

// Client executes authenticated requests against a single Jira instance.
type Client struct {
	baseURL    string
	username   string
	token      string
	cloud      bool
	httpClient *http.Client
	log        zerolog.Logger
	maxRetry   time.Duration
}

// Option mutates Client construction.
type Option func(*Client)

// WithHTTPClient injects a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.httpClient = hc
		}
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithLogger attaches a logger for request diagnostics.
func WithLogger(log zerolog.Logger) Option {
	return func(c *Client) { c.log = log }
}

// WithInsecureSkipVerify disables TLS certificate verification.
// Needed for some self-hosted Server/Data Center instances.
func WithInsecureSkipVerify() Option {
	return func(c *Client) {
		c.httpClient.Transport = &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		}
	}
}

// WithMaxRetryElapsed bounds the total time spent retrying transient
// failures. Zero disables retries.
func WithMaxRetryElapsed(d time.Duration) Option {
	return func(c *Client) { c.maxRetry = d }
}

// New creates a transport client. Cloud instances (hostnames under
// atlassian.net) authenticate with basic auth (username + API token);
// everything else uses a bearer personal access token.
func New(baseURL, username, token string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		username:   username,
		token:      token,
		cloud:      strings.Contains(baseURL, "atlassian.net"),
		httpClient: &http.Client{Timeout: defaultTimeout},
		log:        zerolog.Nop(),
		maxRetry:   15 * time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// BaseURL returns the configured base URL without a trailing slash.
func (c *Client) BaseURL() string { return c.baseURL }

// IsCloud reports whether the instance is Jira Cloud. Several endpoints
// take different query parameters on Cloud vs Server/Data Center.
func (c *Client) IsCloud() bool { return c.cloud }

// Do executes one JSON request and returns the raw response body.
// Transient failures (429, 5xx, temporary network errors) are retried
// with exponential backoff; everything else returns a *transport.Error
// immediately. A 204 response yields a nil body and nil error.
func (c *Client) Do(ctx context.Context, method, path string, query url.Values, body any) (json.RawMessage, error) {
	var payload []byte
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request body: %w", err)
		}
		payload = data
	}

	var out json.RawMessage
	op := func() error {
		raw, err := c.doOnce(ctx, method, path, query, payload)
		if err != nil {
			var terr *Error
			if errors.As(err, &terr) && terr.Temporary() {
				return err
			}
			var nerr net.Error
			if errors.As(err, &nerr) && nerr.Timeout() {
				return err
			}
			return backoff.Permanent(err)
		}
		out = raw
		return nil
	}

	var bo backoff.BackOff = &backoff.StopBackOff{}
	if c.maxRetry > 0 {
		ebo := backoff.NewExponentialBackOff()
		ebo.InitialInterval = 100 * time.Millisecond
		ebo.MaxElapsedTime = c.maxRetry
		bo = ebo
	}
	if err := backoff.Retry(op, backoff.WithContext(bo, ctx)); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) doOnce(ctx context.Context, method, path string, query url.Values, payload []byte) (json.RawMessage, error) {
	if c.baseURL == "" {
		return nil, errors.New("jira URL not configured")
	}

	endpoint := c.baseURL + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}

	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	c.setAuth(req)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "jirabridge/1.0")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		terr := newError(resp)
		c.log.Debug().
			Str("method", method).
			Str("path", path).
			Int("status", resp.StatusCode).
			Msg("jira request failed")
		return nil, terr
	}

	// DELETE and PUT commonly return 204 No Content.
	if resp.StatusCode == http.StatusNoContent {
		return nil, nil
	}

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	return respBody, nil
}

// setAuth picks the authentication scheme for the instance: basic auth
// for Cloud (or whenever a username is configured), bearer PAT otherwise.
func (c *Client) setAuth(req *http.Request) {
	if c.username != "" {
		auth := base64.StdEncoding.EncodeToString([]byte(c.username + ":" + c.token))
		req.Header.Set("Authorization", "Basic "+auth)
		return
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
}
