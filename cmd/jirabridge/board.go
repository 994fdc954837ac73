package main

import (
	"strconv"

	"github.com/spf13/cobra"

	"github.com/jirabridge/jirabridge/internal/jira"
)

var boardCmd = &cobra.Command{
	Use:   "board",
	Short: "Work with agile boards and sprints",
}

var (
	boardType    string
	boardProject string
)

var boardListCmd = &cobra.Command{
	Use:   "list",
	Short: "List boards",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		boards, err := c.Boards.Boards(cmd.Context(), jira.BoardFilter{
			Type:       boardType,
			ProjectKey: boardProject,
		}, 0, 50)
		if err != nil {
			return err
		}
		return printJSON(boards)
	},
}

var boardConfigCmd = &cobra.Command{
	Use:   "config ID",
	Short: "Show a board's configuration",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		boardID, err := strconv.Atoi(args[0])
		if err != nil {
			return err
		}
		c, err := newClient()
		if err != nil {
			return err
		}
		cfg, err := c.Boards.Configuration(cmd.Context(), boardID)
		if err != nil {
			return err
		}
		return printJSON(cfg)
	},
}

var boardBacklogCmd = &cobra.Command{
	Use:   "backlog ID",
	Short: "List a board's backlog issues",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		boardID, err := strconv.Atoi(args[0])
		if err != nil {
			return err
		}
		c, err := newClient()
		if err != nil {
			return err
		}
		issues, err := c.Boards.Backlog(cmd.Context(), boardID, 0, 50)
		if err != nil {
			return err
		}
		return printJSON(issues)
	},
}

var sprintState string

var boardSprintsCmd = &cobra.Command{
	Use:   "sprints ID",
	Short: "List a board's sprints",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		boardID, err := strconv.Atoi(args[0])
		if err != nil {
			return err
		}
		c, err := newClient()
		if err != nil {
			return err
		}
		sprints, err := c.Boards.Sprints(cmd.Context(), boardID, sprintState, 0, 50)
		if err != nil {
			return err
		}
		return printJSON(sprints)
	},
}

var sprintIssuesCmd = &cobra.Command{
	Use:   "sprint-issues ID",
	Short: "List the issues in a sprint",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sprintID, err := strconv.Atoi(args[0])
		if err != nil {
			return err
		}
		c, err := newClient()
		if err != nil {
			return err
		}
		issues, err := c.Boards.SprintIssues(cmd.Context(), sprintID, 0, 50)
		if err != nil {
			return err
		}
		return printJSON(issues)
	},
}

func init() {
	boardListCmd.Flags().StringVar(&boardType, "type", "", "Filter by board type (scrum, kanban)")
	boardListCmd.Flags().StringVar(&boardProject, "project", "", "Filter by project key")

	boardSprintsCmd.Flags().StringVar(&sprintState, "state", "", "Filter by sprint state (active, future, closed)")

	boardCmd.AddCommand(boardListCmd, boardConfigCmd, boardBacklogCmd, boardSprintsCmd, sprintIssuesCmd)
	rootCmd.AddCommand(boardCmd)
}
