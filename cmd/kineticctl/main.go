// Package main provides kineticctl, the admin CLI for a Kinetic store.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/multierr"

	"github.com/claude/kinetic/internal/config"
	"github.com/claude/kinetic/internal/importer"
	"github.com/claude/kinetic/internal/logging"
	"github.com/claude/kinetic/internal/models"
	"github.com/claude/kinetic/internal/planner"
	"github.com/claude/kinetic/internal/storage"
)

var (
	configPath string
	identity   string

	importDryRun bool

	scheduleStart string
	scheduleDays  string

	todayDate string
)

func main() {
	rootCmd := newRootCmd()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:          "kineticctl",
		Short:        "Manage Kinetic programs, schedules and imports",
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config file (default: defaults and KINETIC_* env)")
	rootCmd.PersistentFlags().StringVar(&identity, "identity", "local", "identity (tailnet login) whose data is managed")

	rootCmd.AddCommand(newImportCmd())
	rootCmd.AddCommand(newProgramsCmd())
	rootCmd.AddCommand(newScheduleCmd())
	rootCmd.AddCommand(newTodayCmd())
	return rootCmd
}

// withStore opens the configured store for the duration of fn.
func withStore(fn func(ctx context.Context, store *storage.Store, log *slog.Logger) error) (err error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	log, logFile := logging.New(cfg.Log)
	defer multierr.AppendInvoke(&err, multierr.Close(logFile))

	ctx := context.Background()
	kv, err := storage.Open(ctx, storage.Options{
		Driver: cfg.Storage.Driver,
		Path:   cfg.Storage.Path,
		DSN:    cfg.Storage.Database.DSN(),
	}, log)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	store := storage.New(kv)
	defer multierr.AppendInvoke(&err, multierr.Close(store))

	return fn(ctx, store, log)
}

func newImportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <dump.json>",
		Short: "Import a browser localStorage dump of the web app",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			return withStore(func(ctx context.Context, store *storage.Store, log *slog.Logger) error {
				stats, err := importer.New(store, log, importDryRun).ImportDump(ctx, identity, f)
				if err != nil {
					return err
				}
				printImportStats(cmd.OutOrStdout(), stats)
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&importDryRun, "dry-run", false, "validate without writing")
	return cmd
}

func printImportStats(out io.Writer, stats *importer.Stats) {
	fmt.Fprintf(out, "programs: %d imported (%d replaced, %d skipped)\n",
		stats.ProgramsImported, stats.ProgramsReplaced, stats.ProgramsSkipped)
	fmt.Fprintf(out, "schedule entries: %d\n", stats.EntriesImported)
	fmt.Fprintf(out, "workouts: %d imported, %d already present\n", stats.WorkoutsImported, stats.WorkoutsDuplicated)
	fmt.Fprintf(out, "profile: %t\n", stats.ProfileImported)
	for _, k := range stats.UnknownKeys {
		fmt.Fprintf(out, "ignored key: %s\n", k)
	}
	for _, w := range stats.Warnings {
		fmt.Fprintf(out, "warning: %s\n", w)
	}
}

func newProgramsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "programs",
		Short: "List, add and delete programs",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List saved programs",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withStore(func(ctx context.Context, store *storage.Store, _ *slog.Logger) error {
				programs, err := store.ListPrograms(ctx, identity)
				if err != nil {
					return err
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				fmt.Fprintln(tw, "ID\tNAME\tDAYS\tTRAINING")
				for i := range programs {
					p := &programs[i]
					fmt.Fprintf(tw, "%s\t%s\t%d\t%d\n", p.ID, p.Name, len(p.Workouts), p.TrainingDays())
				}
				return tw.Flush()
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "add <file.toml|file.json>",
		Short: "Add or replace a program from a definition file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := importer.LoadProgramFile(args[0])
			if err != nil {
				return err
			}
			return withStore(func(ctx context.Context, store *storage.Store, _ *slog.Logger) error {
				saved, replaced, err := store.PutProgram(ctx, identity, p)
				if err != nil {
					return err
				}
				verb := "added"
				if replaced {
					verb = "replaced"
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s (%s)\n", verb, saved.Name, saved.ID)
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a program and its schedule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(func(ctx context.Context, store *storage.Store, _ *slog.Logger) error {
				if err := store.DeleteProgram(ctx, identity, args[0]); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
				return nil
			})
		},
	})
	return cmd
}

func newScheduleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schedule <program-id>",
		Short: "Place a program on the calendar, replacing its previous schedule",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			start := models.Today()
			if scheduleStart != "" {
				d, err := models.ParseDate(scheduleStart)
				if err != nil {
					return err
				}
				start = d
			}
			weekdays, err := planner.ParseWeekdays(scheduleDays)
			if err != nil {
				return err
			}

			return withStore(func(ctx context.Context, store *storage.Store, log *slog.Logger) error {
				entries, err := storage.NewScheduler(store, log).Schedule(ctx, identity, args[0], start, weekdays)
				if err != nil {
					return err
				}
				tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
				for _, e := range entries {
					fmt.Fprintf(tw, "%s\t%s\t%s\n", e.Date, e.Date.Weekday().String()[:3], e.WorkoutName)
				}
				if err := tw.Flush(); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%d workouts scheduled\n", len(entries))
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&scheduleStart, "start", "", "start date YYYY-MM-DD (default: today)")
	cmd.Flags().StringVar(&scheduleDays, "days", "mon,wed,fri", "training weekdays, comma separated")
	return cmd
}

func newTodayCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "today",
		Short: "Show the workouts still outstanding today",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			day := models.Today()
			if todayDate != "" {
				d, err := models.ParseDate(todayDate)
				if err != nil {
					return err
				}
				day = d
			}
			return withStore(func(ctx context.Context, store *storage.Store, log *slog.Logger) error {
				view, err := storage.NewScheduler(store, log).Today(ctx, identity, day)
				if err != nil {
					return err
				}
				printToday(cmd.OutOrStdout(), view)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&todayDate, "date", "", "day to show YYYY-MM-DD (default: today)")
	return cmd
}

func printToday(out io.Writer, view planner.TodayView) {
	switch view.Status {
	case planner.StatusNothingScheduled:
		fmt.Fprintf(out, "%s: no workout scheduled\n", view.Date)
		return
	case planner.StatusAllComplete:
		fmt.Fprintf(out, "%s: all workouts complete\n", view.Date)
		return
	}
	for _, item := range view.Items {
		fmt.Fprintf(out, "%s  %s (%s)\n", view.Date, item.Entry.ProgramName, item.Entry.WorkoutName)
		switch {
		case item.Missing:
			fmt.Fprintln(out, "  program or workout no longer exists")
		case item.RestDay:
			fmt.Fprintln(out, "  rest day")
		default:
			for _, ex := range item.Workout.Exercises {
				fmt.Fprintf(out, "  %s: %d x %s\n", ex.Name, ex.Sets, models.FormatMetric(ex.MetricValue, ex.MetricUnit))
			}
		}
	}
}
