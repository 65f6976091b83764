package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/strrl/pulsectl/internal/app/console/service"
	"github.com/strrl/pulsectl/pkg/pulseapi"
)

func NewDiscoverCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "discover",
		Short: "Discover monitored servers on the network",
	}

	cmd.AddCommand(newDiscoverScanCmd())
	cmd.AddCommand(newDiscoverShowCmd())

	return cmd
}

func newDiscoverScanCmd() *cobra.Command {
	var subnet string

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Scan a subnet for servers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := openConsole(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = c.Close() }()

			result, err := c.Discovery().Scan(cmd.Context(), subnet)
			if errors.Is(err, service.ErrInvalidSubnet) {
				return fmt.Errorf("%w: %q", err, subnet)
			}
			if err != nil {
				return err
			}
			return printDiscovery(cmd, result)
		},
	}

	cmd.Flags().StringVar(&subnet, "subnet", "auto", `Subnet in CIDR notation, or "auto"`)

	return cmd
}

func newDiscoverShowCmd() *cobra.Command {
	var offline bool

	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the last discovery result",
		Long: `Show the last discovery result from the dashboard. With --offline the copy
kept in the local cache is shown without contacting the dashboard.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := openConsole(cmd)
			if err != nil {
				return err
			}
			defer func() { _ = c.Close() }()

			discovery := c.Discovery()
			var result *pulseapi.DiscoveryResult
			if offline {
				result, err = discovery.Offline(cmd.Context())
			} else {
				result, err = discovery.Cached(cmd.Context())
			}
			if err != nil {
				return err
			}
			return printDiscovery(cmd, result)
		},
	}

	cmd.Flags().BoolVar(&offline, "offline", false, "Read the local cache only")

	return cmd
}

func printDiscovery(cmd *cobra.Command, result *pulseapi.DiscoveryResult) error {
	out := cmd.OutOrStdout()
	switch {
	case result.Scanning:
		fmt.Fprintln(out, "A scan is in progress; results may be incomplete.")
	case result.Cached:
		fmt.Fprintf(out, "Cached result from %s\n", formatTime(result.UpdatedAt))
	}

	if len(result.Servers) == 0 {
		fmt.Fprintln(out, "No servers found.")
	} else {
		w := newTable(out)
		fmt.Fprintln(w, "ADDRESS\tTYPE\tVERSION\tHOSTNAME")
		for _, s := range result.Servers {
			fmt.Fprintf(w, "%s:%d\t%s\t%s\t%s\n", s.IP, s.Port, s.Type, orDash(s.Version), orDash(s.Hostname))
		}
		if err := w.Flush(); err != nil {
			return err
		}
	}

	for _, e := range result.Errors {
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", e)
	}
	return nil
}
