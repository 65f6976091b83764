package auth

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/strrl/pulsectl/pkg/apitoken"
	"github.com/strrl/pulsectl/pkg/pulseapi"
)

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show login status",
		Long:  `Show the stored login and the dashboard's security status.`,
		RunE:  runStatus,
	}
}

func runStatus(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()

	creds, err := LoadCredentials()
	if errors.Is(err, os.ErrNotExist) {
		fmt.Fprintln(out, "Not logged in")
		fmt.Fprintln(out, "\nTo log in, run:")
		fmt.Fprintln(out, "  pulsectl auth login --server https://pulse.example.com")
		return nil
	}
	if err != nil {
		return err
	}

	fmt.Fprintln(out, "Login")
	fmt.Fprintf(out, "  Server: %s\n", creds.ServerURL)
	fmt.Fprintf(out, "  Saved: %s\n", creds.SavedAt.Format(time.RFC3339))
	if creds.Token == "" {
		fmt.Fprintln(out, "  Token: none")
	} else {
		fmt.Fprintf(out, "  Token: %s (fingerprint %s)\n", apitoken.Hint(creds.Token), apitoken.Fingerprint(creds.Token))
		if info, err := apitoken.Inspect(creds.Token); err == nil && !info.ExpiresAt.IsZero() {
			state := "valid"
			if info.Expired(time.Now()) {
				state = "expired"
			}
			fmt.Fprintf(out, "  Expires: %s (%s)\n", info.ExpiresAt.Format(time.RFC3339), state)
		}
	}

	client := pulseapi.NewClient(creds.ServerURL, pulseapi.WithToken(creds.Token))
	status, err := client.SecurityStatus(cmd.Context())
	if err != nil {
		fmt.Fprintf(out, "  Dashboard: unreachable (%s)\n", pulseapi.ErrorMessage(err, "request failed"))
		return nil
	}
	fmt.Fprintf(out, "  Requires auth: %t\n", status.RequiresAuth)
	fmt.Fprintf(out, "  API token configured: %t\n", status.APITokenConfigured)
	if status.OIDCEnabled {
		fmt.Fprintf(out, "  OIDC issuer: %s\n", status.OIDCIssuer)
	}
	return nil
}
