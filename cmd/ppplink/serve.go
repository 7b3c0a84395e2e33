package main

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"ppplink"
	"ppplink/internal/logger"
)

// ServeFlags holds flags for the serve command.
type ServeFlags struct {
	ConfigPath string
	Debug      bool
	NoColor    bool
}

func createServeCommand(globalFlags *GlobalFlags) *cobra.Command {
	serveFlags := &ServeFlags{}

	cmd := &cobra.Command{
		Use:   "serve [config.toml]",
		Short: "Run the ppplink daemon",
		Long: `Run the ppplink daemon: serve the control API, supervise pppd and
auto-start the link when it was enabled before the last shutdown.

Examples:
  ppplink serve                       # built-in BlueOS extension defaults
  ppplink serve /app/config.toml      # explicit config file`,
		RunE: func(cmd *cobra.Command, args []string) error {
			serveFlags.ConfigPath = globalFlags.ConfigPath
			if len(args) > 0 {
				serveFlags.ConfigPath = args[0]
			}
			return runServeCommand(serveFlags)
		},
	}

	cmd.Flags().BoolVar(&serveFlags.Debug, "debug", false, "enable debug logging")
	cmd.Flags().BoolVar(&serveFlags.NoColor, "no-color", false, "disable ANSI colors in logs")
	return cmd
}

func runServeCommand(flags *ServeFlags) error {
	level := slog.LevelInfo
	if flags.Debug {
		level = slog.LevelDebug
	}
	log := logger.Setup(level, !flags.NoColor)

	cfg, err := ppplink.LoadConfig(flags.ConfigPath)
	if err != nil {
		return fmt.Errorf("error loading config: %w", err)
	}

	store := ppplink.NewStore(cfg.Settings.Path)
	sup := ppplink.NewSupervisor(ppplink.SupervisorConfig{
		BinaryPath:    cfg.PPPD.Binary,
		GracePeriod:   cfg.PPPD.GracePeriod,
		ConfirmWindow: cfg.PPPD.ConfirmWindow,
		Log:           cfg.Log,
	}, store)

	if cfg.Metrics.Enabled {
		if err := ppplink.RegisterMetricsDefault(); err != nil {
			log.Warn("failed to register metrics", "error", err)
		} else if cfg.Metrics.Listen != "" {
			go func() {
				if err := ppplink.ServeMetrics(cfg.Metrics.Listen); err != nil {
					log.Error("metrics server error", "error", err)
				}
			}()
		}
	}

	var sink ppplink.HistorySink
	if cfg.History.DSN != "" {
		sink, err = ppplink.NewHistorySink(cfg.History.DSN)
		if err != nil {
			log.Warn("history sink unavailable", "dsn", cfg.History.DSN, "error", err)
		} else {
			sup.SetHistory(sink)
			defer func() { _ = sink.Close() }()
		}
	}

	server, err := ppplink.NewHTTPServer(cfg.Server.Listen, cfg.Server.BasePath, store, sup)
	if err != nil {
		return fmt.Errorf("failed to create HTTP server: %w", err)
	}
	log.Info("ppplink serving", "listen", cfg.Server.Listen, "base_path", cfg.Server.BasePath)

	// Restore the link when it was enabled before the last shutdown.
	if enabled, err := store.Enabled(); err != nil {
		log.Warn("could not read enabled state", "error", err)
	} else if enabled {
		log.Info("link was enabled, auto-starting")
		go func() {
			if err := sup.Run(); err != nil {
				log.Error("auto-start failed", "error", err)
			}
		}()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	log.Info("shutting down")
	if err := sup.Shutdown(); err != nil {
		log.Warn("supervisor shutdown", "error", err)
	}
	return server.Close()
}
