package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/WilBtc/InsaAutomationCorp-sub007/pkg/cli"
	"github.com/WilBtc/InsaAutomationCorp-sub007/pkg/config"
	"github.com/WilBtc/InsaAutomationCorp-sub007/pkg/datastore"
	"github.com/WilBtc/InsaAutomationCorp-sub007/pkg/retention"
	"github.com/WilBtc/InsaAutomationCorp-sub007/pkg/retention/archive"
	"github.com/WilBtc/InsaAutomationCorp-sub007/pkg/retention/engine"
	"github.com/WilBtc/InsaAutomationCorp-sub007/pkg/retention/policy"
	"github.com/WilBtc/InsaAutomationCorp-sub007/pkg/retention/scheduler"
	"github.com/WilBtc/InsaAutomationCorp-sub007/pkg/retention/tracker"
	"github.com/WilBtc/InsaAutomationCorp-sub007/pkg/server"
	"github.com/WilBtc/InsaAutomationCorp-sub007/pkg/telemetry/health"
	"github.com/WilBtc/InsaAutomationCorp-sub007/pkg/telemetry/logging"
	"github.com/WilBtc/InsaAutomationCorp-sub007/pkg/telemetry/metrics"
)

var runFlags struct {
	listenAddress string
	logLevel      string
	dryRun        bool
}

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Start the retention daemon",
	Long: `Start the retention daemon with the specified configuration.

The daemon seeds policies from the configured seed file, starts the
execution scheduler, and serves the management API on the configured
address until interrupted.

Examples:
  # Start with default config
  retentiond run

  # Start with custom config
  retentiond run --config /etc/retentiond/config.yaml

  # Override listen address
  retentiond run --listen 0.0.0.0:8085

  # Validate config without starting the daemon
  retentiond run --dry-run`,
	RunE: runDaemon,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&runFlags.listenAddress, "listen", "l", "", "override listen address")
	runCmd.Flags().StringVar(&runFlags.logLevel, "log-level", "", "override log level (debug, info, warn, error)")
	runCmd.Flags().BoolVar(&runFlags.dryRun, "dry-run", false, "validate config without starting the daemon")
}

func runDaemon(cmd *cobra.Command, args []string) error {
	cfg, cfgSource, err := loadRuntimeConfig(cmd)
	if err != nil {
		return cli.NewConfigError("", fmt.Sprintf("failed to load config: %v", err))
	}

	// Apply flag overrides
	if runFlags.listenAddress != "" {
		cfg.Server.ListenAddress = runFlags.listenAddress
	}
	if runFlags.logLevel != "" {
		cfg.Telemetry.Logging.Level = runFlags.logLevel
	}
	if verbose {
		cfg.Telemetry.Logging.Level = "debug"
	}

	logger, err := logging.SetDefault(&logging.Config{
		Level:  cfg.Telemetry.Logging.Level,
		Format: cfg.Telemetry.Logging.Format,
	})
	if err != nil {
		return cli.NewConfigError("telemetry.logging.level", err.Error())
	}

	if runFlags.dryRun {
		fmt.Println("✓ Configuration valid")
		return nil
	}

	printBanner(cfg, cfgSource)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Metadata stores. Policies and the execution audit trail share one
	// database file.
	policies, err := openPolicyStore(cfg)
	if err != nil {
		return fmt.Errorf("failed to open policy store: %w", err)
	}
	defer policies.Close()

	trk, err := openTracker(cfg)
	if err != nil {
		return fmt.Errorf("failed to open execution tracker: %w", err)
	}
	defer trk.Close()

	// Hot record store and the data-type registry over it.
	records, err := openRecordStore(cfg)
	if err != nil {
		return fmt.Errorf("failed to open record store: %w", err)
	}
	defer records.Close()

	registry := datastore.NewRegistry()
	if err := registerBuiltinTypes(registry, records); err != nil {
		return fmt.Errorf("failed to register data types: %w", err)
	}
	fmt.Printf("✓ Record store ready (%d data types)\n", len(registry.Types()))

	// Seed policies from the declarative file before the first tick.
	if cfg.Policies.SeedPath != "" {
		result, err := seedPolicies(ctx, policies, cfg.Policies.SeedPath)
		if err != nil {
			return fmt.Errorf("failed to seed policies: %w", err)
		}
		fmt.Printf("✓ Policy seed applied (%d created, %d updated, %d unchanged)\n",
			result.Created, result.Updated, result.Unchanged)
	}

	all, err := policies.List(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to read policy store: %w", err)
	}
	fmt.Printf("✓ Policy store ready (%d policies)\n", len(all))

	archiver := archive.NewWriter(&archive.Config{Root: cfg.Archive.Root})
	collector := metrics.NewCollector(&cfg.Telemetry.Metrics, nil)

	eng := engine.New(policies, registry, archiver, trk, collector)
	sched := scheduler.New(&scheduler.Config{
		TickInterval:  cfg.Scheduler.TickInterval,
		MaxConcurrent: cfg.Scheduler.MaxConcurrent,
	}, policies, eng, collector)

	checker := health.New(5 * time.Second)
	registerHealthChecks(checker, cfg, policies, trk, records, sched)

	api := server.NewAPI(policies, trk, sched)
	srv := server.New(&cfg.Server, &cfg.Telemetry.Metrics, api, checker, collector)

	if cfg.Scheduler.SchedulerEnabled() {
		if err := sched.Start(ctx); err != nil {
			return fmt.Errorf("failed to start scheduler: %w", err)
		}
		fmt.Printf("✓ Scheduler started (tick %s, max %d concurrent)\n",
			cfg.Scheduler.TickInterval, cfg.Scheduler.MaxConcurrent)
	} else {
		fmt.Println("✓ Scheduler disabled (API and CLI executions only)")
	}

	// Live seed reload: re-sync on file changes, then wake the scheduler
	// so edited schedules take effect before the next tick.
	var watcher *policy.Watcher
	if cfg.Policies.Watch && cfg.Policies.SeedPath != "" {
		watcher, err = policy.NewWatcher(&policy.WatcherConfig{
			Path:             cfg.Policies.SeedPath,
			DebounceInterval: cfg.Policies.DebounceInterval,
		}, logger)
		if err != nil {
			return fmt.Errorf("failed to create seed watcher: %w", err)
		}
		go func() {
			err := watcher.Watch(ctx, func() error {
				if _, err := seedPolicies(ctx, policies, cfg.Policies.SeedPath); err != nil {
					return err
				}
				sched.Reload(ctx)
				return nil
			})
			if err != nil {
				slog.Warn("seed watcher exited", "error", err)
			}
		}()
		fmt.Printf("✓ Watching %s for policy changes\n", cfg.Policies.SeedPath)
	}

	// Start the management API in a background goroutine
	errChan := make(chan error, 1)
	go func() {
		if err := srv.Start(ctx); err != nil {
			errChan <- fmt.Errorf("server error: %w", err)
		}
	}()

	fmt.Println()
	fmt.Printf("✓ Management API listening on %s\n", cfg.Server.ListenAddress)
	fmt.Printf("✓ Health endpoint: http://%s/healthz\n", cfg.Server.ListenAddress)
	if cfg.Telemetry.Metrics.MetricsEnabled() {
		fmt.Printf("✓ Metrics endpoint: http://%s%s\n", cfg.Server.ListenAddress, cfg.Telemetry.Metrics.Path)
	}
	fmt.Println("\nPress Ctrl+C to stop")

	// Wait for shutdown signal or server error
	sigChan := cli.WaitForShutdown()

	select {
	case err := <-errChan:
		return cli.NewCommandError("run", err)
	case sig := <-sigChan:
		fmt.Printf("\nReceived signal %s, shutting down gracefully...\n", sig)

		drainCtx, drainCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer drainCancel()

		if watcher != nil {
			if err := watcher.Stop(); err != nil {
				slog.Warn("failed to stop seed watcher", "error", err)
			}
		}

		// Drain the scheduler before cancelling the run context so
		// in-flight executions finish on their own terms.
		if err := sched.Stop(drainCtx); err != nil {
			slog.Warn("scheduler drain incomplete", "error", err)
		}
		cancel()

		if err := srv.Shutdown(drainCtx); err != nil {
			slog.Error("shutdown failed", "error", err)
			return cli.NewCommandError("run", err)
		}

		fmt.Println("✓ Daemon stopped")
		return nil
	}
}

// loadRuntimeConfig resolves the effective configuration. A missing file
// is only an error when the operator asked for it explicitly; the default
// config.yaml is optional and its absence means built-in defaults plus
// environment overrides.
func loadRuntimeConfig(cmd *cobra.Command) (*config.Config, string, error) {
	if _, err := os.Stat(cfgFile); err != nil {
		if os.IsNotExist(err) && !cmd.Flags().Changed("config") {
			cfg, derr := config.DefaultWithEnvOverrides()
			return cfg, "", derr
		}
		return nil, "", fmt.Errorf("config file %s: %w", cfgFile, err)
	}

	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		return nil, "", err
	}
	return cfg, cfgFile, nil
}

func printBanner(cfg *config.Config, source string) {
	fmt.Printf("Retentiond v%s\n", Version)
	if source != "" {
		fmt.Printf("Loading configuration from: %s\n", source)
	} else {
		fmt.Println("No configuration file found, using built-in defaults")
	}
	fmt.Println("✓ Configuration loaded")

	slog.Debug("store backends",
		"store", cfg.Store.Backend,
		"datastore", cfg.Datastore.Backend,
	)
	if cfg.Policies.SeedPath != "" {
		slog.Debug("policy seeding",
			"path", cfg.Policies.SeedPath,
			"watch", cfg.Policies.Watch,
		)
	}
	if cfg.Telemetry.Metrics.MetricsEnabled() {
		slog.Debug("metrics enabled",
			"path", cfg.Telemetry.Metrics.Path,
			"namespace", cfg.Telemetry.Metrics.Namespace,
		)
	}
}

func openPolicyStore(cfg *config.Config) (policy.Store, error) {
	switch cfg.Store.Backend {
	case "sqlite":
		return policy.NewSQLiteStore(&policy.SQLiteConfig{
			Path:         cfg.Store.Path,
			MaxOpenConns: cfg.Store.MaxOpenConns,
			MaxIdleConns: cfg.Store.MaxIdleConns,
			WALMode:      cfg.Store.WALEnabled(),
			BusyTimeout:  cfg.Store.BusyTimeout,
		})
	case "memory":
		return policy.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unsupported store backend: %s", cfg.Store.Backend)
	}
}

func openTracker(cfg *config.Config) (tracker.Tracker, error) {
	switch cfg.Store.Backend {
	case "sqlite":
		return tracker.NewSQLiteTracker(&tracker.SQLiteConfig{
			Path:         cfg.Store.Path,
			MaxOpenConns: cfg.Store.MaxOpenConns,
			MaxIdleConns: cfg.Store.MaxIdleConns,
			WALMode:      cfg.Store.WALEnabled(),
			BusyTimeout:  cfg.Store.BusyTimeout,
		})
	case "memory":
		return tracker.NewMemoryTracker(), nil
	default:
		return nil, fmt.Errorf("unsupported store backend: %s", cfg.Store.Backend)
	}
}

func openRecordStore(cfg *config.Config) (datastore.Store, error) {
	switch cfg.Datastore.Backend {
	case "sqlite":
		return datastore.NewSQLiteStore(&datastore.SQLiteConfig{
			Path:               cfg.Datastore.Path,
			BusyTimeout:        cfg.Datastore.BusyTimeout,
			CheckpointInterval: cfg.Datastore.CheckpointInterval,
		})
	case "memory":
		return datastore.NewMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unsupported datastore backend: %s", cfg.Datastore.Backend)
	}
}

// builtinDataTypes are the record categories the platform ships with. All
// are served by the configured record store, partitioned by data type.
var builtinDataTypes = []struct {
	name        string
	description string
}{
	{"telemetry", "device sensor readings and gateway measurements"},
	{"alerts", "triggered alert instances and acknowledgements"},
	{"audit_logs", "operator and API audit events"},
	{"device_events", "device lifecycle events such as provisioning and firmware updates"},
}

func registerBuiltinTypes(reg *datastore.Registry, store datastore.Store) error {
	for _, dt := range builtinDataTypes {
		h := &datastore.Handler{Store: store, Description: dt.description}
		if err := reg.Register(dt.name, h); err != nil {
			return err
		}
	}
	return nil
}

func seedPolicies(ctx context.Context, store policy.Store, path string) (*policy.SyncResult, error) {
	seeds, err := policy.LoadSeedFile(path)
	if err != nil {
		return nil, err
	}

	result, err := policy.Sync(ctx, store, seeds)
	if err != nil {
		return nil, err
	}

	slog.Info("policy seed synced",
		"path", path,
		"created", result.Created,
		"updated", result.Updated,
		"unchanged", result.Unchanged,
	)
	return result, nil
}

func registerHealthChecks(checker *health.Checker, cfg *config.Config, policies policy.Store, trk tracker.Tracker, records datastore.Store, sched *scheduler.Scheduler) {
	// Liveness: scheduler tick freshness. A loop that has not ticked for
	// three intervals is wedged. Before the first tick the check passes so
	// startup is not reported as a failure.
	if cfg.Scheduler.SchedulerEnabled() {
		staleAfter := 3 * cfg.Scheduler.TickInterval
		checker.RegisterLivenessCheck("scheduler", func(ctx context.Context) (string, error) {
			last := sched.LastTick()
			if last.IsZero() {
				return "no tick yet", nil
			}
			age := time.Since(last)
			if age > staleAfter {
				return "", fmt.Errorf("last tick %s ago", age.Round(time.Second))
			}
			return fmt.Sprintf("last tick %s ago", age.Round(time.Second)), nil
		})
	}

	// Readiness: every store the engine touches answers, and the archive
	// root is writable.
	checker.RegisterCheck("policy_store", func(ctx context.Context) (string, error) {
		enabled := true
		list, err := policies.List(ctx, &retention.PolicyFilter{Enabled: &enabled})
		if err != nil {
			return "", err
		}
		return fmt.Sprintf("%d policies enabled", len(list)), nil
	})

	checker.RegisterCheck("tracker", func(ctx context.Context) (string, error) {
		if _, err := trk.History(ctx, &retention.HistoryQuery{Limit: 1}); err != nil {
			return "", err
		}
		return "reachable", nil
	})

	checker.RegisterCheck("record_store", func(ctx context.Context) (string, error) {
		// Epoch-bounded count: a cheap index probe that exercises the
		// connection without scanning live data.
		sel := &datastore.Selection{DataType: "telemetry", Before: time.Unix(1, 0).UTC()}
		if _, err := records.Count(ctx, sel); err != nil {
			return "", err
		}
		return "reachable", nil
	})

	checker.RegisterCheck("archive", func(ctx context.Context) (string, error) {
		if err := archive.Reachable(cfg.Archive.Root); err != nil {
			return "", err
		}
		return cfg.Archive.Root, nil
	})
}
