/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the KPI engine server. Handles configuration,
  dependency injection, and graceful shutdown.

COMMANDS:
  serve      Start the HTTP server (default when no command is given)
  periods    Print the current weekly and monthly accounting windows
  reconcile  Recompute the open months' rollups once and exit

STARTUP SEQUENCE (serve):
  1. Load configuration (file + KPI_* environment)
  2. Build the zap logger
  3. Open the SQLite store
  4. Build clock, holiday cache, period calculator and tracker
  5. Configure HTTP router and rollup scheduler
  6. Start server with graceful shutdown

GLOBAL FLAGS:
  --config     Path to a YAML config file (default: ./config/config.yaml if present)
  --log-level  Overrides logging.level

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop the scheduler
  2. Stop accepting new connections
  3. Wait for active requests to complete (30s timeout)
  4. Close database connection

EXAMPLES:
  ./server serve --config=./config/config.yaml
  KPI_DATABASE_PATH=":memory:" ./server
  ./server periods

SEE ALSO:
  - config/config.go: Configuration keys and defaults
  - api/server.go: Router configuration
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/warp/kpi-engine/api"
	"github.com/warp/kpi-engine/config"
	"github.com/warp/kpi-engine/generic"
	"github.com/warp/kpi-engine/kpi"
	"github.com/warp/kpi-engine/store/sqlite"
)

var (
	configPath string
	logLevel   string
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "server",
		Short:         "KPI period and performance engine",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "path to config file")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level override (debug, info, warn, error)")

	root.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	})
	root.AddCommand(&cobra.Command{
		Use:   "periods",
		Short: "Print the current accounting windows",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPeriods(cmd)
		},
	})
	root.AddCommand(&cobra.Command{
		Use:   "reconcile",
		Short: "Recompute the open months' rollups once",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReconcile(cmd)
		},
	})
	return root
}

// =============================================================================
// WIRING
// =============================================================================

type app struct {
	cfg      *config.Config
	logger   *zap.Logger
	store    *sqlite.Store
	holidays *generic.CachedHolidayCalendar
	tracker  *kpi.Tracker
	registry *prometheus.Registry
}

func newApp() (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	logger, err := config.NewLogger(cfg.Logging, logLevel)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	store, err := sqlite.New(cfg.Database.Path)
	if err != nil {
		logger.Sync()
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	clock, err := generic.NewZoneClock(cfg.Calendar.TimeZone)
	if err != nil {
		store.Close()
		return nil, err
	}
	holidays, err := generic.NewCachedHolidayCalendar(store, cfg.Holidays.CacheSize)
	if err != nil {
		store.Close()
		return nil, err
	}

	tracker := kpi.NewTracker(store, store, generic.NewPeriodCalculator(clock, holidays), logger)
	tracker.Staff = store

	a := &app{cfg: cfg, logger: logger, store: store, holidays: holidays, tracker: tracker}
	if cfg.Metrics.Enabled {
		a.registry = prometheus.NewRegistry()
		tracker.Metrics = kpi.MustNewMetrics(a.registry)
	}
	return a, nil
}

func (a *app) close() {
	if err := a.store.Close(); err != nil {
		a.logger.Warn("failed to close database", zap.Error(err))
	}
	_ = a.logger.Sync()
}

// =============================================================================
// COMMANDS
// =============================================================================

func runServe(ctx context.Context) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()
	logger := a.logger

	handler := api.NewHandler(a.store, a.tracker, logger)
	handler.Holidays = a.holidays
	handler.History = api.HistoryLimits{
		Weekly:  a.cfg.History.WeeklyLimit,
		Monthly: a.cfg.History.MonthlyLimit,
	}

	opts := api.RouterOptions{CORSOrigins: a.cfg.Server.CORSOrigins}
	if a.registry != nil {
		opts.Metrics = promhttp.HandlerFor(a.registry, promhttp.HandlerOpts{})
	}
	router := api.NewRouter(handler, opts)

	scheduler := api.NewRollupScheduler(a.tracker, logger)
	scheduler.Enabled = a.cfg.Scheduler.Enabled
	scheduler.CheckInterval = a.cfg.Scheduler.Interval
	scheduler.Start()
	defer scheduler.Stop()

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", a.cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("server starting",
			zap.Int("port", a.cfg.Server.Port),
			zap.String("database", a.cfg.Database.Path),
			zap.String("time_zone", a.cfg.Calendar.TimeZone),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case err := <-serverErr:
		return fmt.Errorf("server failed: %w", err)
	}

	logger.Info("shutting down server")

	if ctx == nil {
		ctx = context.Background()
	}
	shutdownCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	logger.Info("server stopped")
	return nil
}

func runPeriods(cmd *cobra.Command) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	status := a.tracker.PeriodStatus(false)
	out := map[string]any{
		"today":   status.Today.String(),
		"weekly":  periodOut(status.Weekly),
		"monthly": periodOut(status.Monthly),
	}
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func periodOut(v kpi.PeriodView) map[string]any {
	return map[string]any{
		"key":        v.Key,
		"start_date": v.Start.String(),
		"end_date":   v.End.String(),
		"due_date":   v.Due.String(),
		"entry_open": v.State.Open,
	}
}

func runReconcile(cmd *cobra.Command) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.close()

	n, err := a.tracker.ReconcileRollups(cmd.Context())
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "rollups written: %d\n", n)
	return nil
}
