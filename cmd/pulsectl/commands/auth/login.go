package auth

import (
	"bufio"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/strrl/pulsectl/pkg/apitoken"
	"github.com/strrl/pulsectl/pkg/pulseapi"
)

var errServerRequired = errors.New("--server is required")

func newLoginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Store the dashboard URL and API token",
		Long: `Verify the dashboard is reachable and store its URL and your API token in
~/.pulsectl/credentials.json.

  pulsectl auth login --server pulse.example.com --token <api-token>

Without --token the token is read from standard input.`,
		RunE: runLogin,
	}
}

func runLogin(cmd *cobra.Command, args []string) error {
	server := normalizeURL(viper.GetString("server.url"))
	if server == "" {
		return errServerRequired
	}

	token := strings.TrimSpace(viper.GetString("server.token"))
	if token == "" {
		fmt.Fprint(cmd.ErrOrStderr(), "API token: ")
		line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		if err != nil && line == "" {
			return fmt.Errorf("read token: %w", err)
		}
		token = strings.TrimSpace(line)
	}

	client := pulseapi.NewClient(server, pulseapi.WithToken(token))
	status, err := client.SecurityStatus(cmd.Context())
	if err != nil {
		return fmt.Errorf("contact dashboard: %w", err)
	}
	if status.RequiresAuth && token == "" {
		return errors.New("this dashboard requires an API token")
	}
	if token != "" {
		if _, err := client.ListTokens(cmd.Context()); err != nil {
			if errors.Is(err, pulseapi.ErrUnauthorized) {
				return errors.New("the dashboard rejected this API token")
			}
			return fmt.Errorf("verify token: %w", err)
		}
	}

	path, err := credentialsPath()
	if err != nil {
		return err
	}
	if err := saveCredentialsTo(path, &Credentials{
		ServerURL: server,
		Token:     token,
		SavedAt:   time.Now(),
	}); err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Logged in to %s\n", server)
	if token != "" {
		fmt.Fprintf(out, "  Token: %s\n", apitoken.Hint(token))
	}
	return nil
}

// normalizeURL adds https:// when no scheme is given and drops trailing
// slashes, the query and the fragment. A path is kept for dashboards served
// under a prefix.
func normalizeURL(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return strings.TrimRight(raw, "/")
	}
	u.RawQuery = ""
	u.Fragment = ""
	u.Path = strings.TrimRight(u.Path, "/")
	u.RawPath = ""
	return u.String()
}
