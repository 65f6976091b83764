// Package auth implements the login, status and logout commands that manage
// the locally stored dashboard credentials.
package auth

import (
	"github.com/spf13/cobra"
)

func NewCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "auth",
		Short: "Authentication commands",
		Long:  `Store, inspect and remove the dashboard URL and API token used by pulsectl.`,
	}

	cmd.AddCommand(newLoginCmd())
	cmd.AddCommand(newStatusCmd())
	cmd.AddCommand(newLogoutCmd())

	return cmd
}
