package auth

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

func newLogoutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Remove stored credentials",
		Long:  `Remove the locally stored dashboard URL and API token.`,
		RunE:  runLogout,
	}
}

func runLogout(cmd *cobra.Command, args []string) error {
	path, err := credentialsPath()
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), "Logged out")
	return nil
}
