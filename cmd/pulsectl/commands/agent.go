package commands

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/strrl/pulsectl/internal/app/console/service"
	"github.com/strrl/pulsectl/pkg/agentcmd"
	"github.com/strrl/pulsectl/pkg/apitoken"
)

func NewAgentCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "agent",
		Short: "Host agent installation",
	}

	cmd.AddCommand(newAgentInstallCmd())

	return cmd
}

func newAgentInstallCmd() *cobra.Command {
	var platform, tokenName string
	var copyCommand, noToken bool

	cmd := &cobra.Command{
		Use:   "install",
		Short: "Print the host agent install command",
		Long: `Print the install command for the host agent.

When the dashboard requires authentication a new API token scoped to agent
reports is generated and embedded in the command. The token is shown once and
never stored. When the dashboard does not require a token, --no-token renders
the command without one.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			var selected agentcmd.Platform
			if platform != "" {
				p, ok := agentcmd.ParsePlatform(platform)
				if !ok {
					return fmt.Errorf("unknown platform %q", platform)
				}
				selected = p
			}

			c, err := openConsole(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = c.Close() }()

			installer := c.Installer()
			if err := installer.LoadSecurityStatus(cmd.Context()); err != nil {
				slog.Warn("could not determine whether a token is required", "error", err)
			}

			out := cmd.OutOrStdout()
			if noToken {
				if err := installer.ConfirmWithoutToken(); err != nil {
					if errors.Is(err, service.ErrTokenRequired) {
						return errors.New("this dashboard requires an API token for agent reports; run without --no-token")
					}
					return err
				}
			} else {
				created, err := installer.GenerateToken(cmd.Context(), tokenName)
				if err != nil {
					return err
				}
				fmt.Fprintf(out, "Token %s (%s)\n\n", created.Record.Name, apitoken.Hint(created.Token))
			}

			if !installer.CommandsUnlocked() {
				return errors.New("install commands are locked until a token is generated")
			}

			if selected == "" {
				if copyCommand {
					selected = agentcmd.Linux
				} else {
					for _, ic := range installer.Commands() {
						fmt.Fprintf(out, "%s:\n  %s\n\n", ic.Label, ic.Command)
					}
					return nil
				}
			}

			if !copyCommand {
				ic := installer.Command(selected)
				fmt.Fprintf(out, "%s:\n  %s\n", ic.Label, ic.Command)
				return nil
			}
			ic, err := installer.CopyCommand(service.SystemClipboard{}, selected)
			fmt.Fprintf(out, "%s:\n  %s\n", ic.Label, ic.Command)
			return err
		},
	}

	cmd.Flags().StringVar(&platform, "platform", "", "Platform: linux, macos or windows (default: all)")
	cmd.Flags().StringVar(&tokenName, "token-name", service.DefaultAgentTokenName, "Name of the generated API token")
	cmd.Flags().BoolVar(&copyCommand, "copy", false, "Copy the command to the clipboard")
	cmd.Flags().BoolVar(&noToken, "no-token", false, "Install without a token when the dashboard allows it")

	return cmd
}
