package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
)

func main() {
	root := buildRoot()
	if err := root.Execute(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// GlobalFlags holds persistent flags shared by all commands.
type GlobalFlags struct {
	ConfigPath string
}

// APIFlags holds connection flags for client commands talking to a running daemon.
type APIFlags struct {
	URL     string
	Timeout time.Duration
}

// SettingsFlags holds the four connection parameters for "settings set".
type SettingsFlags struct {
	Device        string
	BaudRate      int
	LocalAddress  string
	RemoteAddress string
}

func buildRoot() *cobra.Command {
	globalFlags := &GlobalFlags{}

	root := &cobra.Command{
		Use:   "ppplink",
		Short: "HTTP control surface for the pppd point-to-point daemon",
		Long: `ppplink wraps the standard pppd binary for use as a BlueOS extension:
it persists connection settings, supervises a single pppd process and
exposes a small REST API for the web UI.

Examples:
  ppplink serve --config=/app/config.toml   # Run the daemon
  ppplink status                            # Query the running daemon
  ppplink settings set --device=/dev/ttyUSB0 --baud=115200 \
      --local=10.0.0.1 --remote=10.0.0.2
  ppplink run
  ppplink stop`,
	}

	root.PersistentFlags().StringVar(&globalFlags.ConfigPath, "config", "", "path to TOML config file (optional)")

	root.AddCommand(
		createServeCommand(globalFlags),
		createStatusCommand(),
		createRunCommand(),
		createStopCommand(),
		createAckCommand(),
		createSettingsCommand(),
		createDevicesCommand(),
	)
	return root
}

func addAPIFlags(cmd *cobra.Command, flags *APIFlags) {
	cmd.Flags().StringVar(&flags.URL, "api-url", "", "daemon URL (default http://127.0.0.1:8000/ppp)")
	cmd.Flags().DurationVar(&flags.Timeout, "api-timeout", 10*time.Second, "request timeout")
}

func createStatusCommand() *cobra.Command {
	flags := &APIFlags{}
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show link status",
		RunE: func(cmd *cobra.Command, args []string) error {
			return newAPIClient(*flags).PrintStatus()
		},
	}
	addAPIFlags(cmd, flags)
	return cmd
}

func createRunCommand() *cobra.Command {
	flags := &APIFlags{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Start the PPP link with the saved settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			return newAPIClient(*flags).Post("/run")
		},
	}
	addAPIFlags(cmd, flags)
	return cmd
}

func createStopCommand() *cobra.Command {
	flags := &APIFlags{}
	cmd := &cobra.Command{
		Use:   "stop",
		Short: "Stop the PPP link",
		RunE: func(cmd *cobra.Command, args []string) error {
			return newAPIClient(*flags).Post("/stop")
		},
	}
	addAPIFlags(cmd, flags)
	return cmd
}

func createAckCommand() *cobra.Command {
	flags := &APIFlags{}
	cmd := &cobra.Command{
		Use:   "ack",
		Short: "Acknowledge a failed link",
		RunE: func(cmd *cobra.Command, args []string) error {
			return newAPIClient(*flags).Post("/ack")
		},
	}
	addAPIFlags(cmd, flags)
	return cmd
}

func createDevicesCommand() *cobra.Command {
	flags := &APIFlags{}
	cmd := &cobra.Command{
		Use:   "devices",
		Short: "List serial devices visible to the daemon",
		RunE: func(cmd *cobra.Command, args []string) error {
			return newAPIClient(*flags).PrintDevices()
		},
	}
	addAPIFlags(cmd, flags)
	return cmd
}

func createSettingsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Read or update the saved connection settings",
	}
	cmd.AddCommand(createSettingsGetCommand(), createSettingsSetCommand())
	return cmd
}

func createSettingsGetCommand() *cobra.Command {
	flags := &APIFlags{}
	cmd := &cobra.Command{
		Use:   "get",
		Short: "Show the saved settings",
		RunE: func(cmd *cobra.Command, args []string) error {
			return newAPIClient(*flags).PrintSettings()
		},
	}
	addAPIFlags(cmd, flags)
	return cmd
}

func createSettingsSetCommand() *cobra.Command {
	apiFlags := &APIFlags{}
	setFlags := &SettingsFlags{}
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Save connection settings",
		Long: `Save the four connection parameters used on the next run.

Example:
  ppplink settings set --device=/dev/ttyUSB0 --baud=115200 --local=10.0.0.1 --remote=10.0.0.2`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return newAPIClient(*apiFlags).SaveSettings(*setFlags)
		},
	}
	cmd.Flags().StringVar(&setFlags.Device, "device", "", "host serial device path (required)")
	cmd.Flags().IntVar(&setFlags.BaudRate, "baud", 0, "baud rate (required)")
	cmd.Flags().StringVar(&setFlags.LocalAddress, "local", "", "local IPv4 address (required)")
	cmd.Flags().StringVar(&setFlags.RemoteAddress, "remote", "", "remote IPv4 address (required)")
	addAPIFlags(cmd, apiFlags)

	for _, f := range []string{"device", "baud", "local", "remote"} {
		if err := cmd.MarkFlagRequired(f); err != nil {
			panic(err)
		}
	}
	return cmd
}
