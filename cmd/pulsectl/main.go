package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/strrl/pulsectl/cmd/pulsectl/commands"
	"github.com/strrl/pulsectl/cmd/pulsectl/commands/auth"
	"github.com/strrl/pulsectl/internal/app/console"
	"github.com/strrl/pulsectl/internal/app/console/service"
)

// newRootCmd creates the root cobra command for the pulsectl CLI.
func newRootCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "pulsectl",
		Short: "Pulse settings console",
		Long: `pulsectl manages the settings of a Pulse monitoring dashboard from the
terminal: host agents, API tokens, organizations, SSO providers, discovery
and guest metadata.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			initLogger(viper.GetString("log.level"))
		},
	}
}

// initConfig returns a configuration initializer that sets up viper
// to read from config files and environment variables.
func initConfig(configFile *string) func() {
	return func() {
		_ = godotenv.Load()

		if *configFile != "" {
			viper.SetConfigFile(*configFile)
		} else {
			dir, err := console.ConfigDir()
			if err != nil {
				fmt.Fprintln(os.Stderr, err)
				os.Exit(1)
			}

			viper.AddConfigPath(dir)
			viper.AddConfigPath(".")
			viper.SetConfigName("config")
			viper.SetConfigType("yaml")
		}

		setDefaults()

		viper.SetEnvPrefix("PULSECTL")
		viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
		viper.AutomaticEnv()

		if err := viper.ReadInConfig(); err == nil {
			slog.Debug("using config file", "path", viper.ConfigFileUsed())
		}
	}
}

// setDefaults registers every key so AutomaticEnv can resolve it during Unmarshal.
func setDefaults() {
	viper.SetDefault("server.url", "")
	viper.SetDefault("server.token", "")
	viper.SetDefault("server.timeout", console.DefaultTimeout)
	viper.SetDefault("log.level", "WARNING")
	viper.SetDefault("cache.driver", console.DefaultCacheDriver)
	viper.SetDefault("cache.dsn", "")
	viper.SetDefault("keycloak.url", "")
	viper.SetDefault("keycloak.realm", "")
	viper.SetDefault("keycloak.client_id", "")
	viper.SetDefault("keycloak.client_secret", "")
	viper.SetDefault("agent.interval", console.DefaultAgentInterval)
}

func initLogger(level string) {
	var l slog.Level
	switch strings.ToUpper(level) {
	case "ERROR":
		l = slog.LevelError
	case "INFO":
		l = slog.LevelInfo
	case "DEBUG":
		l = slog.LevelDebug
	default:
		l = slog.LevelWarn
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: l,
	})))
}

func main() {
	var configFile string

	rootCmd := newRootCmd()

	cobra.OnInitialize(initConfig(&configFile))

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default is $HOME/.pulsectl/config.yaml)")
	rootCmd.PersistentFlags().String("server", "", "Pulse dashboard URL")
	rootCmd.PersistentFlags().String("token", "", "API token")
	rootCmd.PersistentFlags().String("log-level", "", "Log level (ERROR, WARNING, INFO, DEBUG)")

	_ = viper.BindPFlag("server.url", rootCmd.PersistentFlags().Lookup("server"))
	_ = viper.BindPFlag("server.token", rootCmd.PersistentFlags().Lookup("token"))
	_ = viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))

	rootCmd.AddCommand(commands.NewVersionCmd())
	rootCmd.AddCommand(auth.NewCmd())
	rootCmd.AddCommand(commands.NewHostsCmd())
	rootCmd.AddCommand(commands.NewAgentCmd())
	rootCmd.AddCommand(commands.NewTokensCmd())
	rootCmd.AddCommand(commands.NewOrgCmd())
	rootCmd.AddCommand(commands.NewSSOCmd())
	rootCmd.AddCommand(commands.NewDiscoverCmd())
	rootCmd.AddCommand(commands.NewGuestsCmd())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		if !service.Notified(err) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		os.Exit(1)
	}
}
