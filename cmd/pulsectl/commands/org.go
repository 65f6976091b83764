package commands

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/strrl/pulsectl/pkg/pulseapi"
)

func NewOrgCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "org",
		Short: "Manage organizations, members and shares",
	}

	members := &cobra.Command{
		Use:   "members",
		Short: "Manage organization members",
	}
	members.AddCommand(newOrgMembersAddCmd())

	shares := &cobra.Command{
		Use:   "shares",
		Short: "Manage resources shared with other organizations",
	}
	shares.AddCommand(newOrgSharesListCmd())
	shares.AddCommand(newOrgSharesAddCmd())
	shares.AddCommand(newOrgSharesDeleteCmd())

	cmd.AddCommand(newOrgListCmd())
	cmd.AddCommand(newOrgShowCmd())
	cmd.AddCommand(newOrgRenameCmd())
	cmd.AddCommand(members)
	cmd.AddCommand(shares)

	return cmd
}

func newOrgListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List organizations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := openConsole(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = c.Close() }()

			orgs, err := c.Orgs.List(cmd.Context())
			if err != nil {
				return err
			}

			w := newTable(cmd.OutOrStdout())
			fmt.Fprintln(w, "ID\tNAME\tOWNER")
			for _, o := range orgs {
				fmt.Fprintf(w, "%s\t%s\t%s\n", o.ID, o.DisplayName, orDash(o.OwnerUserID))
			}
			return w.Flush()
		},
	}
}

func newOrgShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show <org-id>",
		Short: "Show an organization with its members and billing",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := openConsole(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = c.Close() }()

			overview, err := c.Orgs.Overview(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			org := overview.Organization
			fmt.Fprintf(out, "Organization %s\n", org.DisplayName)
			fmt.Fprintf(out, "  ID: %s\n", org.ID)
			fmt.Fprintf(out, "  Owner: %s\n", orDash(org.OwnerUserID))
			if b := overview.Billing; b != nil {
				fmt.Fprintf(out, "  Plan: %s (%s)\n", b.Plan, b.Status)
				if b.HostLimit > 0 {
					fmt.Fprintf(out, "  Hosts: %d of %d\n", b.HostsUsed, b.HostLimit)
				}
				if b.TrialEndsAt.Valid() {
					fmt.Fprintf(out, "  Trial ends: %s\n", formatTime(b.TrialEndsAt))
				}
			}

			fmt.Fprintln(out)
			w := newTable(out)
			fmt.Fprintln(w, "MEMBER\tROLE\tADDED")
			for _, m := range overview.Members {
				fmt.Fprintf(w, "%s\t%s\t%s\n", m.UserID, m.Role, m.AddedAt.Local().Format("2006-01-02"))
			}
			return w.Flush()
		},
	}
}

func newOrgRenameCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rename <org-id> <display-name>",
		Short: "Rename an organization",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := openConsole(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = c.Close() }()

			org, err := c.Orgs.Rename(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			c.Notifier.Success(fmt.Sprintf("Organization renamed to %s", org.DisplayName))
			return nil
		},
	}
}

func newOrgMembersAddCmd() *cobra.Command {
	var role string

	cmd := &cobra.Command{
		Use:   "add <org-id> <user-id>",
		Short: "Add a member to an organization",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := openConsole(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = c.Close() }()

			member, err := c.Orgs.AddMember(cmd.Context(), args[0], args[1], role)
			if err != nil {
				return err
			}
			c.Notifier.Success(fmt.Sprintf("Added %s as %s", member.UserID, member.Role))
			return nil
		},
	}

	cmd.Flags().StringVar(&role, "role", "viewer", "Role: owner, admin, editor or viewer")

	return cmd
}

func newOrgSharesListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list <org-id>",
		Short: "List outgoing and incoming shares",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := openConsole(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = c.Close() }()

			out := cmd.OutOrStdout()

			// The two lists load independently; one failing does not hide the other.
			outgoing, outErr := c.Orgs.Shares(cmd.Context(), args[0])
			fmt.Fprintln(out, "Outgoing")
			if outErr != nil {
				fmt.Fprintf(out, "  %s\n", pulseapi.ErrorMessage(outErr, "Failed to load outgoing shares"))
			} else if err := printShares(cmd, outgoing, false); err != nil {
				return err
			}

			incoming, inErr := c.Orgs.IncomingShares(cmd.Context(), args[0])
			fmt.Fprintln(out, "\nIncoming")
			if inErr != nil {
				fmt.Fprintf(out, "  %s\n", pulseapi.ErrorMessage(inErr, "Failed to load incoming shares"))
			} else if err := printShares(cmd, incoming, true); err != nil {
				return err
			}

			if outErr != nil && inErr != nil {
				return fmt.Errorf("list shares: %w", outErr)
			}
			return nil
		},
	}
}

func printShares(cmd *cobra.Command, shares []pulseapi.Share, incoming bool) error {
	if len(shares) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "  none")
		return nil
	}
	w := newTable(cmd.OutOrStdout())
	peer := "TARGET"
	if incoming {
		peer = "SOURCE"
	}
	fmt.Fprintf(w, "  ID\tRESOURCE\tNAME\t%s\tROLE\n", peer)
	for _, s := range shares {
		org := s.TargetOrgID
		if incoming {
			org = s.SourceOrgID
		}
		fmt.Fprintf(w, "  %s\t%s:%s\t%s\t%s\t%s\n", s.ID, s.ResourceType, s.ResourceID, orDash(s.ResourceName), org, s.AccessRole)
	}
	return w.Flush()
}

func newOrgSharesAddCmd() *cobra.Command {
	var resourceType, resourceID, resourceName, target, role, pick string

	cmd := &cobra.Command{
		Use:   "add <org-id>",
		Short: "Share a resource with another organization",
		Long: `Share a resource with another organization.

Pick a live resource with --pick type::id (see --list-picks), or enter it
manually with --type and --id. Either way the fields are validated before
anything is sent.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := openConsole(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = c.Close() }()

			state := pulseapi.State{}
			if store, err := loadState(cmd, c); err != nil {
				slog.Warn("live resources unavailable, quick picks disabled", "error", err)
			} else {
				state = store.Snapshot()
			}

			form := c.ShareForm(args[0], state)

			if listPicks, _ := cmd.Flags().GetBool("list-picks"); listPicks {
				w := newTable(cmd.OutOrStdout())
				fmt.Fprintln(w, "PICK\tNAME")
				for _, o := range form.Options() {
					fmt.Fprintf(w, "%s\t%s\n", o.Key(), o.Name)
				}
				return w.Flush()
			}

			if pick != "" {
				if err := form.SelectOption(pick); err != nil {
					return err
				}
			}
			if cmd.Flags().Changed("type") {
				form.SetResourceType(resourceType)
			}
			if cmd.Flags().Changed("id") {
				form.SetResourceID(resourceID)
			}
			if cmd.Flags().Changed("name") {
				form.SetResourceName(resourceName)
			}
			form.SetTargetOrg(target)
			form.SetAccessRole(role)

			share, err := form.Submit(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), share.ID)
			return nil
		},
	}

	cmd.Flags().StringVar(&pick, "pick", "", "Live resource to share, as type::id")
	cmd.Flags().Bool("list-picks", false, "List live resources that can be picked")
	cmd.Flags().StringVar(&resourceType, "type", "", "Resource type: vm, container, host, storage, pbs or pmg")
	cmd.Flags().StringVar(&resourceID, "id", "", "Resource ID")
	cmd.Flags().StringVar(&resourceName, "name", "", "Resource display name")
	cmd.Flags().StringVar(&target, "target", "", "Target organization ID")
	cmd.Flags().StringVar(&role, "role", "viewer", "Access role: viewer, editor or admin")

	return cmd
}

func newOrgSharesDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <org-id> <share-id>",
		Short: "Stop sharing a resource",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := openConsole(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = c.Close() }()

			if err := c.Orgs.DeleteShare(cmd.Context(), args[0], args[1]); err != nil {
				return err
			}
			c.Notifier.Success("Share removed")
			return nil
		},
	}
}
