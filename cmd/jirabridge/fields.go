package main

import (
	"github.com/spf13/cobra"
)

var fieldsCmd = &cobra.Command{
	Use:   "fields",
	Short: "Show the discovered custom field mapping for this instance",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		return printJSON(c.Fields.Resolve(cmd.Context()))
	},
}

var whoamiCmd = &cobra.Command{
	Use:   "whoami",
	Short: "Show the authenticated account id",
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := newClient()
		if err != nil {
			return err
		}
		accountID, err := c.Users.Myself(cmd.Context())
		if err != nil {
			return err
		}
		return printJSON(map[string]string{"accountId": accountID})
	},
}

func init() {
	rootCmd.AddCommand(fieldsCmd, whoamiCmd)
}
