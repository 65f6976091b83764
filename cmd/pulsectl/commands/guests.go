package commands

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/strrl/pulsectl/pkg/pulseapi"
)

func NewGuestsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "guests",
		Short: "Manage VM and container metadata",
	}

	metadata := &cobra.Command{
		Use:   "metadata",
		Short: "Custom URL, description and tags of a guest",
	}
	metadata.AddCommand(newGuestsMetadataGetCmd())
	metadata.AddCommand(newGuestsMetadataSetCmd())

	cmd.AddCommand(metadata)

	return cmd
}

func newGuestsMetadataGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <guest-id>",
		Short: "Show a guest's metadata",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := openConsole(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = c.Close() }()

			md, err := c.Guests.Metadata(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			printGuestMetadata(cmd, md)
			return nil
		},
	}
}

func newGuestsMetadataSetCmd() *cobra.Command {
	var customURL, description string
	var tags []string

	cmd := &cobra.Command{
		Use:   "set <guest-id>",
		Short: "Change a guest's metadata",
		Long:  `Change a guest's metadata. Fields whose flag is not given keep their current value.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := openConsole(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = c.Close() }()

			md, err := c.Guests.Metadata(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			md.ID = args[0]
			if cmd.Flags().Changed("url") {
				md.CustomURL = customURL
			}
			if cmd.Flags().Changed("description") {
				md.Description = description
			}
			if cmd.Flags().Changed("tag") {
				md.Tags = tags
			}

			updated, err := c.Guests.SetMetadata(cmd.Context(), *md)
			if err != nil {
				return err
			}
			c.Notifier.Success("Guest metadata saved")
			printGuestMetadata(cmd, updated)
			return nil
		},
	}

	cmd.Flags().StringVar(&customURL, "url", "", "Custom URL opened from the guest row (empty clears it)")
	cmd.Flags().StringVar(&description, "description", "", "Description")
	cmd.Flags().StringSliceVar(&tags, "tag", nil, "Tags (repeatable)")

	return cmd
}

func printGuestMetadata(cmd *cobra.Command, md *pulseapi.GuestMetadata) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Guest %s\n", md.ID)
	fmt.Fprintf(out, "  URL: %s\n", orDash(md.CustomURL))
	fmt.Fprintf(out, "  Description: %s\n", orDash(md.Description))
	fmt.Fprintf(out, "  Tags: %s\n", orDash(strings.Join(md.Tags, ", ")))
}
