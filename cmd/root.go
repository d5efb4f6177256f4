package cmd

import (
	"context"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/compository/app/common"
	"github.com/compository/app/pretty"
	"github.com/compository/app/session"
	"github.com/compository/app/settings"
)

var (
	configFile  string
	debugFlag   bool
	traceFlag   bool
	silentFlag  bool
	adminURL    string
	appURL      string
	dnaHashFlag string

	// dialer opens conductor connections; tests swap in a fake runtime.
	dialer session.Dialer
)

var rootCmd = &cobra.Command{
	Use:   common.Product,
	Short: "Compose, discover and install Holochain DNAs from the compository.",
	Long: `Compository admin console for a local Holochain conductor.

It composes new DNAs out of zomes published to the compository DNA,
discovers DNAs other agents generated, and installs them into the
conductor under a fresh agent key. Run "compository ui" for the
interactive console.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		common.DefineVerbosity(silentFlag, debugFlag, traceFlag)
		pretty.Setup()
		return summonSettings(cmd)
	},
}

func summonSettings(cmd *cobra.Command) error {
	loader := settings.NewLoader()
	bindings := map[string]string{
		settings.AdminURLKey:           "admin-url",
		settings.AppURLKey:             "app-url",
		settings.CompositoryDnaHashKey: "compository-dna",
	}
	for key, name := range bindings {
		flag := cmd.Flags().Lookup(name)
		if flag == nil || !flag.Changed {
			continue
		}
		if err := loader.BindFlag(key, flag); err != nil {
			return err
		}
	}
	config, err := loader.Load(configFile)
	if err != nil {
		return err
	}
	settings.Global = config
	return nil
}

// Execute runs the command line and is the only entry point of the binary.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		pretty.Exit(1, "Error: %v", err)
	}
}

// commandContext is cancelled on interrupt, so conductor calls stop with the command.
func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	return signal.NotifyContext(parent, os.Interrupt)
}

func currentDialer(config *settings.Settings) session.Dialer {
	if dialer != nil {
		return dialer
	}
	return session.WebsocketDialer(config)
}

// openSession bootstraps against the conductor or exits with the session's exit code.
func openSession(ctx context.Context) *session.Session {
	config := settings.Global
	opened, err := session.Bootstrap(ctx, config, currentDialer(config))
	if err != nil {
		pretty.Exit(session.ExitCode(err), "%v", err)
	}
	return opened
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Settings file to use (default is $COMPOSITORY_HOME/settings.yaml).")
	rootCmd.PersistentFlags().BoolVar(&debugFlag, "debug", false, "Turn on debugging output.")
	rootCmd.PersistentFlags().BoolVar(&traceFlag, "trace", false, "Turn on tracing output.")
	rootCmd.PersistentFlags().BoolVar(&silentFlag, "silent", false, "Be less verbose on output.")
	rootCmd.PersistentFlags().StringVar(&adminURL, "admin-url", settings.DefaultAdminURL, "Conductor admin interface websocket URL.")
	rootCmd.PersistentFlags().StringVar(&appURL, "app-url", settings.DefaultAppURL, "Conductor app interface websocket URL.")
	rootCmd.PersistentFlags().StringVar(&dnaHashFlag, "compository-dna", settings.DefaultCompositoryDnaHash, "DNA hash of the compository instance.")
}
