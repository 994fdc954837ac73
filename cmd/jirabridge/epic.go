package main

import (
	"github.com/spf13/cobra"
)

var epicCmd = &cobra.Command{
	Use:   "epic",
	Short: "Work with epics",
}

var epicLinkCmd = &cobra.Command{
	Use:   "link ISSUE EPIC",
	Short: "Link an issue to an epic",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		issue, err := c.Issues.LinkToEpic(cmd.Context(), args[0], args[1])
		if err != nil {
			return err
		}
		return printJSON(issue)
	},
}

var (
	epicIssuesStartAt    int
	epicIssuesMaxResults int
)

var epicIssuesCmd = &cobra.Command{
	Use:   "issues EPIC",
	Short: "List the issues linked to an epic",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		issues, err := c.Issues.EpicIssues(cmd.Context(), args[0], epicIssuesStartAt, epicIssuesMaxResults)
		if err != nil {
			return err
		}
		return printJSON(issues)
	},
}

func init() {
	epicIssuesCmd.Flags().IntVar(&epicIssuesStartAt, "start-at", 0, "Pagination offset")
	epicIssuesCmd.Flags().IntVar(&epicIssuesMaxResults, "max-results", 50, "Maximum issues to return")

	epicCmd.AddCommand(epicLinkCmd, epicIssuesCmd)
	rootCmd.AddCommand(epicCmd)
}
