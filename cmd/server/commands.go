package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"slices"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/warp/office-quota/api"
	"github.com/warp/office-quota/attendance"
	"github.com/warp/office-quota/config"
	"github.com/warp/office-quota/factory"
	"github.com/warp/office-quota/generic"
	"github.com/warp/office-quota/logger"
	"github.com/warp/office-quota/store/sqlite"
)

const serviceName = "office-quota"

// globalFlags override values loaded from the environment.
type globalFlags struct {
	dbPath string
}

func newRootCmd() *cobra.Command {
	var flags globalFlags

	root := &cobra.Command{
		Use:           "server",
		Short:         "Office attendance quota tracker",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&flags.dbPath, "db", "", "SQLite database path (overrides OFFICEQUOTA_DB_PATH)")

	root.AddCommand(
		newServeCmd(&flags),
		newPlanCmd(&flags),
	)
	return root
}

func loadConfig(flags *globalFlags) (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return config.Config{}, err
	}
	if flags.dbPath != "" {
		cfg.DBPath = flags.dbPath
	}
	return cfg, nil
}

// =============================================================================
// SERVE
// =============================================================================

func newServeCmd(flags *globalFlags) *cobra.Command {
	var port int

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API and the synthesis sweep",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}
			if port != 0 {
				cfg.HTTPPort = port
			}
			return runServe(cfg)
		},
	}

	cmd.Flags().IntVar(&port, "port", 0, "HTTP server port (overrides OFFICEQUOTA_HTTP_PORT)")
	return cmd
}

func runServe(cfg config.Config) error {
	log, err := logger.New(cfg.LogLevel, cfg.LogFormat, serviceName)
	if err != nil {
		return fmt.Errorf("building logger: %w", err)
	}
	defer log.Sync()

	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("initializing database: %w", err)
	}
	defer store.Close()

	handler := api.NewHandler(store, cfg.Aggregator(), log)
	router := api.NewRouter(handler)

	sweep := api.NewSweepScheduler(store, handler.Synthesizer, log.Named("sweep"))
	sweep.Interval = cfg.SweepInterval
	sweep.LookbackDays = cfg.SweepLookbackDays
	sweep.Start()
	defer sweep.Stop()

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serveErr := make(chan error, 1)
	go func() {
		log.Info("server starting",
			zap.Int("port", cfg.HTTPPort),
			zap.String("db_path", cfg.DBPath),
			zap.Stringer("work_start", cfg.WorkWindow.Open),
			zap.Stringer("work_end", cfg.WorkWindow.Close),
		)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(quit)

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-quit:
	}

	log.Info("shutting down server")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Info("server stopped")
	return nil
}

// =============================================================================
// PLAN
// =============================================================================

func newPlanCmd(flags *globalFlags) *cobra.Command {
	var (
		month    string
		watch    bool
		interval time.Duration
	)

	cmd := &cobra.Command{
		Use:   "plan",
		Short: "Print requirements, progress and suggested office days for a month",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(flags)
			if err != nil {
				return err
			}

			store, err := sqlite.New(cfg.DBPath)
			if err != nil {
				return fmt.Errorf("initializing database: %w", err)
			}
			defer store.Close()

			planner := attendance.NewPlanner(store)
			period, err := resolveMonth(month, planner.Today())
			if err != nil {
				return err
			}

			if !watch {
				plan, err := planner.Plan(cmd.Context(), period)
				if err != nil {
					return err
				}
				return printPlan(cmd.OutOrStdout(), plan)
			}

			log, err := logger.New(cfg.LogLevel, "console", serviceName)
			if err != nil {
				return fmt.Errorf("building logger: %w", err)
			}
			defer log.Sync()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return watchPlan(ctx, cmd.OutOrStdout(), planner, period, interval, log)
		},
	}

	cmd.Flags().StringVar(&month, "month", "", "Month as YYYY-MM (default: current month)")
	cmd.Flags().BoolVar(&watch, "watch", false, "Keep running and reprint when data changes")
	cmd.Flags().DurationVar(&interval, "interval", 30*time.Second, "Polling interval for --watch")
	return cmd
}

func resolveMonth(s string, today generic.Date) (generic.Period, error) {
	if s == "" {
		return generic.MonthPeriod(today.Year, today.Month), nil
	}
	return generic.ParseMonth(s)
}

// watchPlan polls the store and feeds each snapshot to a Watcher, printing
// every plan it delivers.
func watchPlan(ctx context.Context, out io.Writer, planner *attendance.Planner, month generic.Period, interval time.Duration, log *zap.Logger) error {
	w := attendance.NewWatcher(month, planner.Today, log.Named("watcher"))
	defer w.Close()

	var diff snapshotDiff
	poll := func() {
		snap, err := planner.Snapshot(ctx, month)
		if err != nil {
			log.Warn("snapshot failed", zap.Error(err))
			return
		}
		if diff.publish(w, snap) {
			log.Debug("snapshot changed", zap.String("month", month.Label()))
		}
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	poll()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			poll()
		case res := <-w.Results():
			if res.Err != nil {
				fmt.Fprintf(out, "error: %v\n", res.Err)
				continue
			}
			fmt.Fprintf(out, "--- update %d ---\n", res.Generation)
			if err := printPlan(out, res.Plan); err != nil {
				return err
			}
		}
	}
}

// snapshotPublisher is the input side of attendance.Watcher.
type snapshotPublisher interface {
	PublishPolicy(*attendance.OfficePolicy)
	PublishHolidays([]attendance.HolidayMark)
	PublishEntries([]attendance.DailyEntry)
}

// snapshotDiff remembers the last published snapshot so that a poll only
// republishes the sources whose plan inputs changed.
type snapshotDiff struct {
	primed bool
	last   attendance.MonthSnapshot
}

func (d *snapshotDiff) publish(p snapshotPublisher, snap attendance.MonthSnapshot) bool {
	changed := false
	if !d.primed || !samePolicy(d.last.Policy, snap.Policy) {
		p.PublishPolicy(snap.Policy)
		changed = true
	}
	if !d.primed || !sameHolidays(d.last.Holidays, snap.Holidays) {
		p.PublishHolidays(snap.Holidays)
		changed = true
	}
	if !d.primed || !sameEntries(d.last.Entries, snap.Entries) {
		p.PublishEntries(snap.Entries)
		changed = true
	}
	d.primed = true
	d.last = snap
	return changed
}

func samePolicy(a, b *attendance.OfficePolicy) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.RequiredDaysPerWeek == b.RequiredDaysPerWeek &&
		a.RequiredHoursPerWeek.Equal(b.RequiredHoursPerWeek) &&
		slices.Equal(a.WeekdayPreferences, b.WeekdayPreferences)
}

func sameHolidays(a, b []attendance.HolidayMark) bool {
	return slices.EqualFunc(a, b, func(x, y attendance.HolidayMark) bool {
		return x.ID == y.ID && x.Date == y.Date && x.Kind == y.Kind
	})
}

func sameEntries(a, b []attendance.DailyEntry) bool {
	return slices.EqualFunc(a, b, func(x, y attendance.DailyEntry) bool {
		return x.ID == y.ID && x.Date == y.Date &&
			x.WasInOffice == y.WasInOffice && x.HoursWorked.Equal(y.HoursWorked)
	})
}

func printPlan(out io.Writer, plan attendance.MonthPlan) error {
	req, prog, sugg := plan.Requirements, plan.Progress, plan.Suggestions

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "Month\t%s\n", req.Month.Label())
	fmt.Fprintf(tw, "Weekdays\t%d (%d excluded)\n", req.TotalWeekdaysInMonth, req.HolidaysCount)
	fmt.Fprintf(tw, "Office days\t%d / %d\n", prog.CompletedDays, prog.RequiredDays)
	fmt.Fprintf(tw, "Hours\t%s / %s\n",
		prog.CompletedHours.Value.StringFixed(1), prog.RequiredHours.Value.StringFixed(1))
	fmt.Fprintf(tw, "Remaining\t%d days, %sh\n",
		prog.RemainingDays(), prog.RemainingHours().Value.StringFixed(1))
	if err := tw.Flush(); err != nil {
		return err
	}

	if prog.IsComplete() {
		fmt.Fprintln(out, "\nQuota met for this month.")
		return nil
	}

	fmt.Fprintln(out, "\nSuggested office days:")
	tw = tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for _, d := range sugg.Days {
		fmt.Fprintf(tw, "  %s\t%s\t%s\n", d.Date, factory.WeekdayName(d.DayOfWeek), d.Reason)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	if sugg.Shortfall > 0 {
		fmt.Fprintf(out, "\nNot enough open weekdays left: %d short of %d.\n", sugg.Shortfall, sugg.TargetDays)
	}
	return nil
}
