package commands

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	"github.com/strrl/pulsectl/internal/app/console/service"
	"github.com/strrl/pulsectl/internal/app/console/tui"
	"github.com/strrl/pulsectl/pkg/livestore"
	"github.com/strrl/pulsectl/pkg/notify"
	"github.com/strrl/pulsectl/pkg/pulseapi"
)

func NewHostsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hosts",
		Short: "Manage host agents",
	}

	cmd.AddCommand(newHostsListCmd())
	cmd.AddCommand(newHostsLookupCmd())
	cmd.AddCommand(newHostsWatchCmd())
	cmd.AddCommand(newHostsRemoveCmd())
	cmd.AddCommand(newHostsUpdateCmd())

	return cmd
}

func newHostsListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List host agents with their status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := openConsole(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = c.Close() }()

			store, err := loadState(cmd, c)
			if err != nil {
				return err
			}

			rows := c.Hosts(store).Rows(c.Clock.Now())
			if len(rows) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No host agents have reported yet.")
				return nil
			}

			w := newTable(cmd.OutOrStdout())
			fmt.Fprintln(w, "ID\tNAME\tSTATUS\tLAST SEEN\tSTALE IN\tPLATFORM\tAGENT")
			for _, row := range rows {
				staleIn := "-"
				if row.UntilStale > 0 {
					staleIn = row.UntilStale.Round(time.Second).String()
				}
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
					row.Host.ID, row.Host.Name(), row.Badge, formatTime(row.Host.LastSeen),
					staleIn, orDash(row.Host.Platform), orDash(row.Host.AgentVersion))
			}
			return w.Flush()
		},
	}
}

func newHostsLookupCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "lookup <hostname-or-id>",
		Short: "Check whether a host agent has reported",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := openConsole(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = c.Close() }()

			store, err := loadState(cmd, c)
			if err != nil {
				slog.Warn("live state unavailable, lookup result will not be matched", "error", err)
				store = livestore.NewStatic(pulseapi.State{})
			}

			tracker := c.LookupTracker(store)
			defer tracker.Stop()

			result, err := tracker.Lookup(cmd.Context(), args[0])
			if err != nil {
				if msg := tracker.Message(); msg != "" {
					return errors.New(msg)
				}
				return err
			}
			tracker.Reconcile(store.Snapshot().Hosts)
			result = tracker.Result()

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Host %s\n", result.Hostname)
			fmt.Fprintf(out, "  ID: %s\n", result.ID)
			fmt.Fprintf(out, "  Status: %s\n", orDash(result.Status))
			fmt.Fprintf(out, "  Connected: %t\n", result.Connected)
			fmt.Fprintf(out, "  Last seen: %s\n", formatTime(result.LastSeen))
			fmt.Fprintf(out, "  Agent version: %s\n", orDash(result.AgentVersion))
			return nil
		},
	}
}

func newHostsWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Watch host agents live",
		Long: `Open an interactive view of host agents fed by the dashboard's live channel.
Look up hosts with "/" and remove them with "x".`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := openConsole(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = c.Close() }()

			store, err := c.LiveStore()
			if err != nil {
				return err
			}
			defer store.Close()

			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()

			go func() {
				err := store.Run(ctx)
				if err != nil && !errors.Is(err, livestore.ErrClosed) && !errors.Is(err, context.Canceled) {
					slog.Warn("live connection ended", "error", err)
				}
			}()

			recorder := &notify.Recorder{}
			removal := service.NewRemovalFlow(c.API, service.SystemClipboard{}, recorder, c.Clock, c.Config.Server.URL)
			model := tui.New(ctx, tui.Deps{
				Store:    store,
				Tracker:  c.LookupTracker(store),
				Removal:  removal,
				Recorder: recorder,
				Clock:    c.Clock,
			})
			defer model.Close()

			_, err = tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
			if errors.Is(err, tea.ErrProgramKilled) {
				return nil
			}
			return err
		},
	}
}

func newHostsRemoveCmd() *cobra.Command {
	var copyCommand, uninstalled, yes bool

	cmd := &cobra.Command{
		Use:   "remove <hostname-or-id>",
		Short: "Uninstall and remove a host agent",
		Long: `Remove a host agent. Removing revokes the host's API token immediately, so
the agent must be uninstalled first: the uninstall command is shown (or copied
with --copy) and you confirm you ran it before the host is deleted.

--uninstalled skips the confirmation prompt and must be paired with --yes.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := openConsole(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = c.Close() }()

			store, err := loadState(cmd, c)
			if err != nil {
				return err
			}
			host, err := resolveHost(cmd.Context(), c.Hosts(store), args[0])
			if err != nil {
				return err
			}

			flow := c.RemovalFlow(service.SystemClipboard{})
			flow.Open(host)

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Remove %s (%s)\n\n", host.Name(), host.ID)
			fmt.Fprintln(out, "Removing a host revokes its API token right away. Run this on the host first:")
			fmt.Fprintf(out, "\n  %s\n\n", flow.Command())

			if copyCommand {
				if err := flow.CopyUninstall(); err != nil {
					return err
				}
			} else if err := flow.MarkCopied(); err != nil {
				return err
			}

			if remaining, ok := flow.Countdown(store.Snapshot().Hosts); ok && remaining > 0 {
				fmt.Fprintf(out, "After uninstalling, the host goes stale in about %s.\n", remaining.Round(time.Second))
			}

			if !uninstalled || !yes {
				fmt.Fprint(out, "Type 'yes' once the uninstall command has run: ")
				answer, _ := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if !strings.EqualFold(strings.TrimSpace(answer), "yes") {
					flow.Close()
					return errors.New("removal cancelled")
				}
			}
			if err := flow.Confirm(); err != nil {
				return err
			}

			return flow.Remove(cmd.Context())
		},
	}

	cmd.Flags().BoolVar(&copyCommand, "copy", false, "Copy the uninstall command to the clipboard")
	cmd.Flags().BoolVar(&uninstalled, "uninstalled", false, "Confirm the uninstall command has already run (requires --yes)")
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "Remove without prompting (requires --uninstalled)")
	cmd.MarkFlagsRequiredTogether("uninstalled", "yes")

	return cmd
}

func newHostsUpdateCmd() *cobra.Command {
	var name string
	var tags []string

	cmd := &cobra.Command{
		Use:   "update <id>",
		Short: "Change a host agent's display name or tags",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var patch pulseapi.HostPatch
			if cmd.Flags().Changed("name") {
				patch.DisplayName = &name
			}
			if cmd.Flags().Changed("tag") {
				patch.Tags = tags
			}
			if patch.DisplayName == nil && patch.Tags == nil {
				return errors.New("nothing to update: pass --name or --tag")
			}

			c, err := openConsole(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = c.Close() }()

			if err := c.Hosts(livestore.NewStatic(pulseapi.State{})).Update(cmd.Context(), args[0], patch); err != nil {
				return err
			}
			c.Notifier.Success("Host updated")
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Display name (empty resets to the hostname)")
	cmd.Flags().StringSliceVar(&tags, "tag", nil, "Tags (repeatable)")

	return cmd
}

// resolveHost finds key in the live host list and falls back to asking the
// backend by id for hosts the state does not carry.
func resolveHost(ctx context.Context, hosts *service.HostsService, key string) (pulseapi.Host, error) {
	if host, ok := hosts.Find(key); ok {
		return host, nil
	}
	host, err := hosts.Get(ctx, key)
	if err != nil {
		return pulseapi.Host{}, fmt.Errorf("host %q not found: %w", key, err)
	}
	return *host, nil
}
