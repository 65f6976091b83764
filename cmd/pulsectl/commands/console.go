package commands

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/strrl/pulsectl/cmd/pulsectl/commands/auth"
	"github.com/strrl/pulsectl/internal/app/console"
	"github.com/strrl/pulsectl/pkg/livestore"
	"github.com/strrl/pulsectl/pkg/pulseapi"
)

// loadConfig reads the viper configuration and falls back to the stored login
// for the server URL and token.
func loadConfig() (console.Config, error) {
	var cfg console.Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}

	creds, err := auth.LoadCredentials()
	switch {
	case err == nil:
		creds.ApplyTo(&cfg)
	case !errors.Is(err, os.ErrNotExist):
		return cfg, err
	}
	return cfg, nil
}

// openConsole builds the console for a command. Callers must Close it.
func openConsole(cmd *cobra.Command) (*console.Console, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return console.New(cfg, cmd.ErrOrStderr())
}

// loadState fetches the live state once into a static store.
func loadState(cmd *cobra.Command, c *console.Console) (*livestore.Static, error) {
	state, err := c.API.State(cmd.Context())
	if err != nil {
		return nil, fmt.Errorf("load state: %w", err)
	}
	return livestore.NewStatic(*state), nil
}

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
}

func formatTime(ts pulseapi.Timestamp) string {
	if !ts.Valid() {
		return "-"
	}
	return ts.Local().Format("2006-01-02 15:04:05")
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
