package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"mercator-hq/meridian/pkg/catalog"
	"mercator-hq/meridian/pkg/config"
)

var runFlags struct {
	listenAddress string
	logLevel      string
	dryRun        bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the Meridian gateway",
	Long: `Start the Meridian gateway with the specified configuration.

The gateway listens on the configured address and serves chat completion
requests with multi-provider failover, plus model listing, health, and
metrics endpoints.

Examples:
  # Start with default config
  meridian run

  # Start with custom config
  meridian run --config /etc/meridian/config.yaml

  # Override listen address
  meridian run --listen 0.0.0.0:8080

  # Validate config without starting the server
  meridian run --dry-run`,
	RunE: runServer,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runFlags.listenAddress, "listen", "l", "", "override listen address")
	runCmd.Flags().StringVar(&runFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	runCmd.Flags().BoolVar(&runFlags.dryRun, "dry-run", false, "validate config without starting the server")
}

func runServer(cmd *cobra.Command, args []string) error {
	if runFlags.dryRun {
		if _, err := config.LoadWithEnvOverrides(cfgFile); err != nil {
			return err
		}
		fmt.Println("✓ Configuration valid")
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a, err := buildApp(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	if runFlags.listenAddress != "" {
		a.cfg.Server.ListenAddress = runFlags.listenAddress
	}
	if runFlags.logLevel != "" {
		a.cfg.Telemetry.Logging.Level = runFlags.logLevel
	}

	fmt.Printf("Meridian v%s\n", Version)
	fmt.Printf("Loading configuration from: %s\n", cfgFile)
	fmt.Println("✓ Configuration loaded")
	fmt.Printf("✓ Providers initialized (%d providers)\n", len(a.gateway.Providers()))
	fmt.Printf("✓ Registry loaded (%d models)\n", a.registry.Stats().Models)

	if a.cfg.Catalog.SyncEnabled {
		if a.cfg.Catalog.SyncOnStartup {
			report := a.ingester.SyncAll(ctx)
			fmt.Printf("✓ Catalog synced (%d providers, failed=%v)\n", len(report.Reports), report.Failed())
		}
		scheduler := catalog.NewScheduler(a.ingester, a.cfg.Catalog.SyncSchedule)
		if err := scheduler.Start(ctx); err != nil {
			return err
		}
		defer scheduler.Stop()
	}

	if a.cfg.Models.Path != "" && a.cfg.Models.Watch {
		watcher, err := config.NewWatcher(a.cfg.Models.Path, 0)
		if err != nil {
			return err
		}
		go func() {
			err := watcher.Watch(ctx, func() error {
				file, err := config.LoadModelsFile(a.cfg.Models.Path)
				if err != nil {
					return err
				}
				return catalog.ApplyCurated(ctx, file, a.registry, a.store)
			})
			if err != nil {
				slog.Error("models file watcher exited", "error", err)
			}
		}()
		defer watcher.Stop()
	}

	srv := &http.Server{
		Addr:         a.cfg.Server.ListenAddress,
		Handler:      newRouter(a),
		ReadTimeout:  a.cfg.Server.ReadTimeout,
		WriteTimeout: a.cfg.Server.WriteTimeout,
		IdleTimeout:  a.cfg.Server.IdleTimeout,
	}

	errChan := make(chan error, 1)
	go func() {
		slog.Info("starting HTTP server", "address", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	fmt.Println()
	fmt.Printf("✓ Server listening on %s\n", a.cfg.Server.ListenAddress)
	fmt.Printf("✓ Health endpoint: http://%s/health\n", a.cfg.Server.ListenAddress)
	if a.collector != nil {
		fmt.Printf("✓ Metrics endpoint: http://%s%s\n", a.cfg.Server.ListenAddress, a.cfg.Telemetry.Metrics.Path)
	}
	fmt.Println("\nPress Ctrl+C to stop")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errChan:
		return fmt.Errorf("server error: %w", err)
	case sig := <-sigChan:
		fmt.Printf("\nReceived signal %s, shutting down gracefully...\n", sig)
		cancel()

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown failed", "error", err)
			return err
		}

		fmt.Println("✓ Server stopped")
		return nil
	}
}
