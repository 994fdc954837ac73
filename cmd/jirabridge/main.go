package main

import (
	"encoding/json"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/jirabridge/jirabridge/internal/config"
	"github.com/jirabridge/jirabridge/internal/jira"
)

var (
	configPath  string
	verboseFlag bool
)

var rootCmd = &cobra.Command{
	Use:           "jirabridge",
	Short:         "Jira bridge for Cloud and Server/Data Center instances",
	Long:          "jirabridge talks to a Jira instance through its REST API, adapting to instance-specific custom fields, workflow shapes, and epic link conventions at runtime.",
	SilenceUsage:  true,
	SilenceErrors: false,
}

func main() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file path (default: JIRA_* environment only)")
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "Enable debug output")

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newClient assembles the Jira client from the config file and
// environment. Called lazily by each command so --help never needs
// credentials.
func newClient() (*jira.Client, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	level := zerolog.WarnLevel
	if verboseFlag {
		level = zerolog.DebugLevel
	}
	log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		Level(level).
		With().Timestamp().Logger()

	return jira.NewClient(cfg, jira.WithLogger(log))
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
