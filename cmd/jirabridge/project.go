package main

import (
	"github.com/spf13/cobra"

	"github.com/jirabridge/jirabridge/internal/jira"
)

var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Work with projects",
}

var projectListCmd = &cobra.Command{
	Use:   "list",
	Short: "List visible projects",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		projects, err := c.Projects.Projects(cmd.Context())
		if err != nil {
			return err
		}
		return printJSON(projects)
	},
}

var (
	projectIssuesStartAt    int
	projectIssuesMaxResults int
)

var projectIssuesCmd = &cobra.Command{
	Use:   "issues KEY",
	Short: "List a project's issues, newest first",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		result, err := c.Projects.Issues(cmd.Context(), args[0], projectIssuesStartAt, projectIssuesMaxResults)
		if err != nil {
			return err
		}
		return printJSON(result)
	},
}

var projectComponentsCmd = &cobra.Command{
	Use:   "components KEY",
	Short: "List a project's components",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		components, err := c.Projects.Components(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return printJSON(components)
	},
}

var projectVersionsCmd = &cobra.Command{
	Use:   "versions KEY",
	Short: "List a project's versions",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		versions, err := c.Projects.Versions(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return printJSON(versions)
	},
}

var projectRolesCmd = &cobra.Command{
	Use:   "roles KEY [ROLE_ID]",
	Short: "List a project's roles, or one role's actors",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		if len(args) == 2 {
			role, err := c.Projects.Role(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			return printJSON(role)
		}
		roles, err := c.Projects.Roles(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return printJSON(roles)
	},
}

var projectPropertiesCmd = &cobra.Command{
	Use:   "properties KEY [PROPERTY_KEY]",
	Short: "List a project's property keys, or read one property",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		if len(args) == 2 {
			value, err := c.Projects.Property(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			return printJSON(value)
		}
		keys, err := c.Projects.PropertyKeys(cmd.Context(), args[0])
		if err != nil {
			return err
		}
		return printJSON(keys)
	},
}

var projectTypesCmd = &cobra.Command{
	Use:   "types",
	Short: "List available project types",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		types, err := c.Projects.Types(cmd.Context())
		if err != nil {
			return err
		}
		return printJSON(types)
	},
}

var projectCategoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "List project categories",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		categories, err := c.Projects.Categories(cmd.Context())
		if err != nil {
			return err
		}
		return printJSON(categories)
	},
}

var (
	createProjectKey  string
	createProjectName string
	createProjectType string
	createProjectDesc string
	createProjectLead string
)

var projectCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a project",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		project, err := c.Projects.Create(cmd.Context(), jira.CreateProjectInput{
			Key:           createProjectKey,
			Name:          createProjectName,
			TypeKey:       createProjectType,
			Description:   createProjectDesc,
			LeadAccountID: createProjectLead,
		})
		if err != nil {
			return err
		}
		return printJSON(project)
	},
}

var (
	updateProjectName string
	updateProjectDesc string
	updateProjectLead string
)

var projectUpdateCmd = &cobra.Command{
	Use:   "update KEY",
	Short: "Update a project's fields",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		project, err := c.Projects.Update(cmd.Context(), args[0], jira.UpdateProjectInput{
			Name:          updateProjectName,
			Description:   updateProjectDesc,
			LeadAccountID: updateProjectLead,
		})
		if err != nil {
			return err
		}
		return printJSON(project)
	},
}

var deleteProjectEnableUndo bool

var projectDeleteCmd = &cobra.Command{
	Use:   "delete KEY",
	Short: "Delete a project",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		return c.Projects.Delete(cmd.Context(), args[0], deleteProjectEnableUndo)
	},
}

var projectArchiveCmd = &cobra.Command{
	Use:   "archive KEY",
	Short: "Archive a project",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		return c.Projects.Archive(cmd.Context(), args[0])
	},
}

var projectRestoreCmd = &cobra.Command{
	Use:   "restore KEY",
	Short: "Restore an archived project",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		return c.Projects.Restore(cmd.Context(), args[0])
	},
}

func init() {
	projectIssuesCmd.Flags().IntVar(&projectIssuesStartAt, "start-at", 0, "Pagination offset")
	projectIssuesCmd.Flags().IntVar(&projectIssuesMaxResults, "max-results", 50, "Maximum issues to return")

	projectCreateCmd.Flags().StringVar(&createProjectKey, "key", "", "Project key")
	projectCreateCmd.Flags().StringVar(&createProjectName, "name", "", "Project name")
	projectCreateCmd.Flags().StringVar(&createProjectType, "type", "", "Project type key (software, business, ...)")
	projectCreateCmd.Flags().StringVar(&createProjectDesc, "description", "", "Project description")
	projectCreateCmd.Flags().StringVar(&createProjectLead, "lead", "", "Lead account ID")
	_ = projectCreateCmd.MarkFlagRequired("key")
	_ = projectCreateCmd.MarkFlagRequired("name")
	_ = projectCreateCmd.MarkFlagRequired("type")

	projectUpdateCmd.Flags().StringVar(&updateProjectName, "name", "", "New project name")
	projectUpdateCmd.Flags().StringVar(&updateProjectDesc, "description", "", "New project description")
	projectUpdateCmd.Flags().StringVar(&updateProjectLead, "lead", "", "New lead account ID")

	projectDeleteCmd.Flags().BoolVar(&deleteProjectEnableUndo, "enable-undo", false, "Move the project to the recycle bin instead of erasing it")

	projectCmd.AddCommand(projectListCmd, projectIssuesCmd, projectComponentsCmd, projectVersionsCmd,
		projectRolesCmd, projectPropertiesCmd, projectTypesCmd, projectCategoriesCmd,
		projectCreateCmd, projectUpdateCmd, projectDeleteCmd, projectArchiveCmd, projectRestoreCmd)
	rootCmd.AddCommand(projectCmd)
}
