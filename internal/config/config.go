// Package config loads Jira connection settings from an optional YAML
// config file and JIRA_* environment variables. Environment variables
// take precedence over file values.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds everything needed to connect to one Jira instance.
type Config struct {
	// URL is the Jira base URL, e.g. https://company.atlassian.net.
	URL string

	// Username and APIToken authenticate against Jira Cloud.
	Username string
	APIToken string

	// PersonalToken authenticates against Server/Data Center.
	PersonalToken string

	// VerifySSL controls TLS certificate verification. Defaults to true.
	VerifySSL bool

	// Timeout is the per-request HTTP timeout.
	Timeout time.Duration
}

// IsCloud reports whether the URL points at a Jira Cloud instance.
func (c Config) IsCloud() bool {
	return strings.Contains(c.URL, "atlassian.net")
}

// Validate checks that the config names a reachable, authenticable
// instance. Cloud requires username + API token; Server/Data Center
// requires a personal access token.
func (c Config) Validate() error {
	if c.URL == "" {
		return errors.New("missing required JIRA_URL")
	}
	if c.IsCloud() {
		if c.Username == "" || c.APIToken == "" {
			return errors.New("cloud authentication requires JIRA_USERNAME and JIRA_API_TOKEN")
		}
		return nil
	}
	if c.PersonalToken == "" {
		return errors.New("server/data center authentication requires JIRA_PERSONAL_TOKEN")
	}
	return nil
}

// Load reads configuration from the given YAML file (optional; pass ""
// to skip) and the environment. A missing file is not an error.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			if _, statErr := os.Stat(path); statErr == nil {
				return Config{}, fmt.Errorf("read config %s: %w", path, err)
			}
			// File absent: env-only configuration is fine.
		}
	}

	v.SetDefault("jira.verify_ssl", true)
	v.SetDefault("jira.timeout", "30s")

	bind := func(key, env string) {
		if val := os.Getenv(env); val != "" {
			v.Set(key, val)
		}
	}
	bind("jira.url", "JIRA_URL")
	bind("jira.username", "JIRA_USERNAME")
	bind("jira.api_token", "JIRA_API_TOKEN")
	bind("jira.personal_token", "JIRA_PERSONAL_TOKEN")
	if val := os.Getenv("JIRA_SSL_VERIFY"); val != "" {
		v.Set("jira.verify_ssl", strings.ToLower(val) != "false")
	}

	cfg := Config{
		URL:           v.GetString("jira.url"),
		Username:      v.GetString("jira.username"),
		APIToken:      v.GetString("jira.api_token"),
		PersonalToken: v.GetString("jira.personal_token"),
		VerifySSL:     v.GetBool("jira.verify_ssl"),
		Timeout:       v.GetDuration("jira.timeout"),
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return cfg, nil
}
