package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jirabridge/jirabridge/internal/jira"
)

var issueCmd = &cobra.Command{
	Use:   "issue",
	Short: "Work with issues",
}

var issueGetCmd = &cobra.Command{
	Use:   "get KEY",
	Short: "Fetch one issue",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		issue, err := c.Issues.Get(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return printJSON(issue)
	},
}

var (
	createProject     string
	createSummary     string
	createType        string
	createDescription string
	createAssignee    string
	createFieldsJSON  string
)

var issueCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create an issue",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}

		var extra map[string]any
		if createFieldsJSON != "" {
			if err := json.Unmarshal([]byte(createFieldsJSON), &extra); err != nil {
				return fmt.Errorf("parse --fields: %w", err)
			}
		}

		issue, err := c.Issues.Create(cmd.Context(), jira.CreateIssueInput{
			ProjectKey:  createProject,
			Summary:     createSummary,
			IssueType:   createType,
			Description: createDescription,
			Assignee:    createAssignee,
			Extra:       extra,
		})
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.ErrOrStderr(), c.BrowseURL(issue.Key))
		return printJSON(issue)
	},
}

var updateFieldsJSON string

var issueUpdateCmd = &cobra.Command{
	Use:   "update KEY",
	Short: "Update issue fields; a \"status\" key triggers a workflow transition",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}

		var fields map[string]any
		if err := json.Unmarshal([]byte(updateFieldsJSON), &fields); err != nil {
			return fmt.Errorf("parse --fields: %w", err)
		}

		issue, err := c.Issues.Update(cmd.Context(), args[0], fields)
		if err != nil {
			return err
		}
		return printJSON(issue)
	},
}

var issueDeleteCmd = &cobra.Command{
	Use:   "delete KEY",
	Short: "Delete an issue",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		if err := c.Issues.Delete(cmd.Context(), args[0]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
		return nil
	},
}

var (
	searchStartAt    int
	searchMaxResults int
)

var issueSearchCmd = &cobra.Command{
	Use:   "search JQL",
	Short: "Search issues with JQL",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		result, err := c.Issues.Search(cmd.Context(), args[0], searchStartAt, searchMaxResults)
		if err != nil {
			return err
		}
		return printJSON(result)
	},
}

var issueTransitionsCmd = &cobra.Command{
	Use:   "transitions KEY",
	Short: "List the workflow transitions available for an issue",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		transitions, err := c.Issues.Transitions(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return printJSON(transitions)
	},
}

var (
	commentLimit int
	commentBody  string
)

var issueCommentsCmd = &cobra.Command{
	Use:   "comments KEY",
	Short: "List or add comments",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		if commentBody != "" {
			comment, err := c.Issues.AddComment(cmd.Context(), args[0], commentBody)
			if err != nil {
				return err
			}
			return printJSON(comment)
		}
		comments, err := c.Issues.Comments(cmd.Context(), args[0], commentLimit)
		if err != nil {
			return err
		}
		return printJSON(comments)
	},
}

var (
	worklogTime              string
	worklogComment           string
	worklogStarted           string
	worklogOriginalEstimate  string
	worklogRemainingEstimate string
)

var issueWorklogCmd = &cobra.Command{
	Use:   "worklog KEY",
	Short: "List worklogs, or log time with --time",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		if worklogTime != "" {
			worklog, err := c.Issues.AddWorklog(cmd.Context(), args[0], jira.WorklogInput{
				TimeSpent:         worklogTime,
				Comment:           worklogComment,
				Started:           worklogStarted,
				OriginalEstimate:  worklogOriginalEstimate,
				RemainingEstimate: worklogRemainingEstimate,
			})
			if err != nil {
				return err
			}
			return printJSON(worklog)
		}
		worklogs, err := c.Issues.Worklogs(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return printJSON(worklogs)
	},
}

func init() {
	issueCreateCmd.Flags().StringVar(&createProject, "project", "", "Project key (required)")
	issueCreateCmd.Flags().StringVar(&createSummary, "summary", "", "Issue summary (required)")
	issueCreateCmd.Flags().StringVar(&createType, "type", "Task", "Issue type (Task, Bug, Story, Epic, ...)")
	issueCreateCmd.Flags().StringVar(&createDescription, "description", "", "Issue description")
	issueCreateCmd.Flags().StringVar(&createAssignee, "assignee", "", "Assignee (email, display name, or account id)")
	issueCreateCmd.Flags().StringVar(&createFieldsJSON, "fields", "", "Additional fields as a JSON object")
	_ = issueCreateCmd.MarkFlagRequired("project")
	_ = issueCreateCmd.MarkFlagRequired("summary")

	issueUpdateCmd.Flags().StringVar(&updateFieldsJSON, "fields", "", "Fields to update as a JSON object (required)")
	_ = issueUpdateCmd.MarkFlagRequired("fields")

	issueSearchCmd.Flags().IntVar(&searchStartAt, "start-at", 0, "Pagination offset")
	issueSearchCmd.Flags().IntVar(&searchMaxResults, "max-results", 50, "Maximum issues to return")

	issueCommentsCmd.Flags().IntVar(&commentLimit, "limit", 50, "Maximum comments to return")
	issueCommentsCmd.Flags().StringVar(&commentBody, "add", "", "Add a comment instead of listing")

	issueWorklogCmd.Flags().StringVar(&worklogTime, "time", "", "Time spent, e.g. \"1h 30m\"")
	issueWorklogCmd.Flags().StringVar(&worklogComment, "comment", "", "Worklog comment")
	issueWorklogCmd.Flags().StringVar(&worklogStarted, "started", "", "Start timestamp")
	issueWorklogCmd.Flags().StringVar(&worklogOriginalEstimate, "original-estimate", "", "Set the original estimate, e.g. \"4h\"")
	issueWorklogCmd.Flags().StringVar(&worklogRemainingEstimate, "remaining-estimate", "", "Set the remaining estimate, e.g. \"2h\"")

	issueCmd.AddCommand(issueGetCmd, issueCreateCmd, issueUpdateCmd, issueDeleteCmd,
		issueSearchCmd, issueTransitionsCmd, issueCommentsCmd, issueWorklogCmd)
	rootCmd.AddCommand(issueCmd)
}
