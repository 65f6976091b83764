package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/strrl/pulsectl/pkg/pulseapi"
)

func NewTokensCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tokens",
		Short: "Manage API tokens",
	}

	cmd.AddCommand(newTokensListCmd())
	cmd.AddCommand(newTokensCreateCmd())
	cmd.AddCommand(newTokensDeleteCmd())
	cmd.AddCommand(newTokensRegenerateCmd())

	return cmd
}

func newTokensListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List API tokens",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := openConsole(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = c.Close() }()

			tokens, err := c.Tokens.List(cmd.Context())
			if err != nil {
				return err
			}

			w := newTable(cmd.OutOrStdout())
			fmt.Fprintln(w, "ID\tNAME\tTOKEN\tSCOPES\tCREATED\tLAST USED")
			for _, t := range tokens {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
					t.ID, t.Name, t.Display, orDash(strings.Join(t.Scopes, ",")),
					t.CreatedAt.Local().Format("2006-01-02"), formatTime(t.LastUsed))
			}
			return w.Flush()
		},
	}
}

func newTokensCreateCmd() *cobra.Command {
	var scopes []string

	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create an API token",
		Long:  `Create an API token. The secret is printed once and is not stored anywhere.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := openConsole(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = c.Close() }()

			created, err := c.Tokens.Create(cmd.Context(), args[0], scopes)
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), created.Token)
			c.Notifier.Info("Copy the token now; it will not be shown again.")
			return nil
		},
	}

	cmd.Flags().StringSliceVar(&scopes, "scope", nil, "Token scope (repeatable, e.g. "+pulseapi.ScopeHostAgentReport+")")

	return cmd
}

func newTokensDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete an API token",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := openConsole(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = c.Close() }()

			if err := c.Tokens.Delete(cmd.Context(), args[0]); err != nil {
				return err
			}
			c.Notifier.Success("Token deleted")
			return nil
		},
	}
}

func newTokensRegenerateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "regenerate",
		Short: "Regenerate the primary API token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := openConsole(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = c.Close() }()

			token, err := c.Tokens.Regenerate(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), token)
			c.Notifier.Info("The previous token no longer works. Update agents and scripts that used it.")
			return nil
		},
	}
}
