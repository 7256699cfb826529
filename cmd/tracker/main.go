// Command tracker is the personal learning tracker: goals, logged study
// hours, scheduled sessions, badges and the dashboard read model.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/urfave/cli/v2"

	"github.com/studylog/learning-tracker/config"
	"github.com/studylog/learning-tracker/internal/application/command"
	"github.com/studylog/learning-tracker/internal/infrastructure/persistence/postgres"
	"github.com/studylog/learning-tracker/internal/infrastructure/persistence/sqlite"
)

// ══════════════════════════════════════════════════════════════════════════════
// MAIN
// ══════════════════════════════════════════════════════════════════════════════

func main() {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := newApp().RunContext(ctx, os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "fatal error: %v\n", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "tracker",
		Usage: "track learning goals, study hours and sessions",
		Flags: []cli.Flag{
			&cli.StringSliceFlag{
				Name:    "env-file",
				Usage:   "dotenv files to load before the environment",
				EnvVars: []string{"TRACKER_ENV_FILE"},
			},
		},
		Commands: []*cli.Command{
			{
				Name:   "run",
				Usage:  "run the tracker with background jobs until interrupted",
				Action: withConfig(runDaemon),
			},
			migrateCommand(),
			dashboardCommand(),
			{
				Name:   "refresh",
				Usage:  "re-evaluate badges",
				Action: withApp(refreshBadges),
			},
			goalCommand(),
			logCommand(),
			scheduleCommand(),
		},
	}
}

// loadConfig reads the --env-file flag of the root command.
func loadConfig(c *cli.Context) (*config.Config, error) {
	cfg, err := config.Load(c.StringSlice("env-file")...)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

func withConfig(fn func(ctx context.Context, cfg *config.Config) error) cli.ActionFunc {
	return func(c *cli.Context) error {
		cfg, err := loadConfig(c)
		if err != nil {
			return err
		}
		return fn(c.Context, cfg)
	}
}

// withApp bootstraps the application for one-shot commands.
func withApp(fn func(c *cli.Context, app *application) error) cli.ActionFunc {
	return func(c *cli.Context) error {
		cfg, err := loadConfig(c)
		if err != nil {
			return err
		}
		app, err := bootstrap(c.Context, cfg)
		if err != nil {
			return err
		}
		defer app.Close()
		return fn(c, app)
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// MIGRATE
// ══════════════════════════════════════════════════════════════════════════════

func migrateCommand() *cli.Command {
	return &cli.Command{
		Name:   "migrate",
		Usage:  "apply pending schema migrations",
		Action: withConfig(migrate),
		Subcommands: []*cli.Command{
			{
				Name:   "status",
				Usage:  "list postgres migrations and whether they are applied",
				Action: withMigrator(migrationStatus),
			},
			{
				Name:   "down",
				Usage:  "roll back the latest postgres migration",
				Action: withMigrator(rollbackMigration),
			},
		},
	}
}

func migrate(ctx context.Context, cfg *config.Config) error {
	log := setupLogger(cfg)

	switch cfg.Database.Driver {
	case config.DriverPostgres:
		return withPostgres(ctx, cfg, func(m *postgres.Migrator) error {
			applied, err := m.Migrate(ctx)
			if err != nil {
				return fmt.Errorf("failed to run migrations: %w", err)
			}
			log.Info("migrations applied", "count", applied)
			return nil
		})

	case config.DriverSQLite:
		// Open migrates the schema.
		db, err := sqlite.Open(sqlite.Config{Path: cfg.Database.URL, LogLevel: cfg.Database.LogLevel, Logger: log})
		if err != nil {
			return fmt.Errorf("failed to open sqlite: %w", err)
		}
		log.Info("sqlite schema is up to date", "path", cfg.Database.URL)
		return sqlite.Close(db)
	}

	log.Info("nothing to migrate", "driver", cfg.Database.Driver)
	return nil
}

func withPostgres(ctx context.Context, cfg *config.Config, fn func(*postgres.Migrator) error) error {
	conn, err := postgres.NewConnection(ctx, postgres.DefaultConfig(cfg.Database.URL))
	if err != nil {
		return fmt.Errorf("failed to connect to postgres: %w", err)
	}
	defer conn.Close()
	return fn(postgres.NewMigrator(conn))
}

// withMigrator restricts a command to the postgres driver; SQLite schemas are
// managed by gorm AutoMigrate and have no versions.
func withMigrator(fn func(c *cli.Context, m *postgres.Migrator) error) cli.ActionFunc {
	return func(c *cli.Context) error {
		cfg, err := loadConfig(c)
		if err != nil {
			return err
		}
		if cfg.Database.Driver != config.DriverPostgres {
			return fmt.Errorf("%s requires a postgres DATABASE_URL, got driver %q", c.Command.Name, cfg.Database.Driver)
		}
		return withPostgres(c.Context, cfg, func(m *postgres.Migrator) error { return fn(c, m) })
	}
}

func migrationStatus(c *cli.Context, m *postgres.Migrator) error {
	migrations, err := m.Status(c.Context)
	if err != nil {
		return err
	}
	for _, mg := range migrations {
		applied := "pending"
		if mg.IsApplied {
			applied = mg.AppliedAt.Format(time.RFC3339)
		}
		fmt.Fprintf(c.App.Writer, "%03d %-28s %s\n", mg.Version, mg.Name, applied)
	}
	return nil
}

func rollbackMigration(c *cli.Context, m *postgres.Migrator) error {
	if err := m.Rollback(c.Context); err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, "latest migration rolled back")
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// DASHBOARD & BADGES
// ══════════════════════════════════════════════════════════════════════════════

func dashboardCommand() *cli.Command {
	return &cli.Command{
		Name:  "dashboard",
		Usage: "print the dashboard as JSON",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "months", Usage: "months in the monthly chart (default from config)"},
			&cli.IntFlag{Name: "upcoming", Usage: "upcoming sessions to show (default from config)"},
			&cli.IntFlag{Name: "recent", Usage: "recent goals to show (default from config)"},
		},
		Action: withApp(func(c *cli.Context, app *application) error {
			q := app.dashboardQuery(time.Now())
			if c.IsSet("months") {
				q.Months = c.Int("months")
			}
			if c.IsSet("upcoming") {
				q.UpcomingLimit = c.Int("upcoming")
			}
			if c.IsSet("recent") {
				q.RecentGoals = c.Int("recent")
			}

			dto, err := app.dashboard.Handle(c.Context, q)
			if err != nil {
				return err
			}

			enc := json.NewEncoder(c.App.Writer)
			enc.SetIndent("", "  ")
			return enc.Encode(dto)
		}),
	}
}

func refreshBadges(c *cli.Context, app *application) error {
	result, err := app.refreshBadges.Handle(c.Context, command.RefreshBadgesCommand{})
	if err != nil {
		return err
	}

	for _, b := range result.Badges {
		mark := " "
		if b.Unlocked {
			mark = "x"
		}
		fmt.Fprintf(c.App.Writer, "[%s] %-20s %s\n", mark, b.ID, b.Title)
	}
	fmt.Fprintf(c.App.Writer, "%d newly unlocked, %.1f hours total\n", len(result.NewlyUnlocked), result.Stats.TotalHours)
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// GOALS
// ══════════════════════════════════════════════════════════════════════════════

func goalCommand() *cli.Command {
	return &cli.Command{
		Name:  "goal",
		Usage: "manage learning goals",
		Subcommands: []*cli.Command{
			{
				Name:  "add",
				Usage: "create a goal",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "title", Required: true},
					&cli.StringFlag{Name: "description"},
					&cli.StringFlag{Name: "category"},
					&cli.StringFlag{Name: "due", Usage: "due date, YYYY-MM-DD"},
				},
				Action: withApp(func(c *cli.Context, app *application) error {
					due, err := parseDay(app.zone, c.String("due"))
					if err != nil {
						return err
					}
					result, err := app.createGoal.Handle(c.Context, command.CreateGoalCommand{
						Title:       c.String("title"),
						Description: c.String("description"),
						Category:    c.String("category"),
						DueDate:     due,
					})
					if err != nil {
						return err
					}
					fmt.Fprintf(c.App.Writer, "goal %s created\n", result.Goal.ID)
					return nil
				}),
			},
			{
				Name:      "update",
				Usage:     "change progress or status of a goal",
				ArgsUsage: "<goal-id>",
				Flags: []cli.Flag{
					&cli.IntFlag{Name: "progress", Usage: "0-100"},
					&cli.StringFlag{Name: "status", Usage: "active, completed or paused"},
				},
				Action: withApp(func(c *cli.Context, app *application) error {
					id, err := parseID(c.Args().First())
					if err != nil {
						return err
					}
					status, err := parseStatus(c.String("status"))
					if err != nil {
						return err
					}
					cmd := command.UpdateGoalCommand{GoalID: id, Status: status}
					if c.IsSet("progress") {
						p := c.Int("progress")
						cmd.Progress = &p
					}

					result, err := app.updateGoal.Handle(c.Context, cmd)
					if err != nil {
						return err
					}
					fmt.Fprintf(c.App.Writer, "goal %s: %d%% %s\n", result.Goal.ID, result.Goal.Progress, result.Goal.Status)
					return nil
				}),
			},
			{
				Name:      "delete",
				Usage:     "delete a goal, keeping its logged hours",
				ArgsUsage: "<goal-id>",
				Action: withApp(func(c *cli.Context, app *application) error {
					id, err := parseID(c.Args().First())
					if err != nil {
						return err
					}
					deleted, err := app.deleteGoal.Handle(c.Context, command.DeleteGoalCommand{GoalID: id})
					if err != nil {
						return err
					}
					fmt.Fprintf(c.App.Writer, "goal %q deleted\n", deleted.Title)
					return nil
				}),
			},
		},
	}
}

// ══════════════════════════════════════════════════════════════════════════════
// PROGRESS
// ══════════════════════════════════════════════════════════════════════════════

func logCommand() *cli.Command {
	return &cli.Command{
		Name:  "log",
		Usage: "manage logged study hours",
		Subcommands: []*cli.Command{
			{
				Name:  "add",
				Usage: "log study hours",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "goal", Usage: "goal id"},
					&cli.StringFlag{Name: "label", Usage: "goal label for hours without a goal"},
					&cli.StringFlag{Name: "date", Usage: "YYYY-MM-DD (default today)"},
					&cli.Float64Flag{Name: "hours", Required: true},
					&cli.StringFlag{Name: "notes"},
				},
				Action: withApp(logProgress),
			},
			{
				Name:      "delete",
				Usage:     "delete a progress entry",
				ArgsUsage: "<entry-id>",
				Action: withApp(func(c *cli.Context, app *application) error {
					id, err := parseID(c.Args().First())
					if err != nil {
						return err
					}
					if _, err := app.deleteProgress.Handle(c.Context, command.DeleteProgressCommand{EntryID: id}); err != nil {
						return err
					}
					fmt.Fprintf(c.App.Writer, "entry %s deleted\n", id)
					return nil
				}),
			},
		},
	}
}

func logProgress(c *cli.Context, app *application) error {
	goalID, err := parseOptionalID(c.String("goal"))
	if err != nil {
		return err
	}
	date, err := parseDay(app.zone, c.String("date"))
	if err != nil {
		return err
	}

	result, err := app.logProgress.Handle(c.Context, command.LogProgressCommand{
		GoalID:  goalID,
		GoalRef: c.String("label"),
		Date:    date,
		Hours:   c.Float64("hours"),
		Notes:   c.String("notes"),
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "entry %s: %.2fh on %s\n",
		result.Entry.ID, result.Entry.Hours, app.zone.DayKey(result.Entry.Date))
	return nil
}

// ══════════════════════════════════════════════════════════════════════════════
// CALENDAR
// ══════════════════════════════════════════════════════════════════════════════

func scheduleCommand() *cli.Command {
	return &cli.Command{
		Name:  "schedule",
		Usage: "manage calendar events",
		Subcommands: []*cli.Command{
			{
				Name:  "add",
				Usage: "schedule a study session, meeting or deadline",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "title", Required: true},
					&cli.StringFlag{Name: "type", Value: "study", Usage: "study, meeting or deadline"},
					&cli.StringFlag{Name: "start", Required: true, Usage: "\"YYYY-MM-DD HH:MM\""},
					&cli.StringFlag{Name: "end", Required: true, Usage: "\"YYYY-MM-DD HH:MM\""},
					&cli.StringFlag{Name: "goal", Usage: "goal id"},
					&cli.StringFlag{Name: "notes"},
				},
				Action: withApp(scheduleEvent),
			},
			{
				Name:      "delete",
				Usage:     "delete a calendar event",
				ArgsUsage: "<event-id>",
				Action: withApp(func(c *cli.Context, app *application) error {
					id, err := parseID(c.Args().First())
					if err != nil {
						return err
					}
					deleted, err := app.deleteEvent.Handle(c.Context, command.DeleteEventCommand{EventID: id})
					if err != nil {
						return err
					}
					fmt.Fprintf(c.App.Writer, "event %q deleted\n", deleted.Title)
					return nil
				}),
			},
		},
	}
}

func scheduleEvent(c *cli.Context, app *application) error {
	kind, err := parseEventType(c.String("type"))
	if err != nil {
		return err
	}
	start, err := parseDateTime(app.zone, c.String("start"))
	if err != nil {
		return err
	}
	end, err := parseDateTime(app.zone, c.String("end"))
	if err != nil {
		return err
	}
	goalID, err := parseOptionalID(c.String("goal"))
	if err != nil {
		return err
	}

	result, err := app.scheduleEvent.Handle(c.Context, command.ScheduleEventCommand{
		Title:  c.String("title"),
		Type:   kind,
		Start:  start,
		End:    end,
		GoalID: goalID,
		Notes:  c.String("notes"),
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(c.App.Writer, "event %s scheduled\n", result.Event.ID)
	return nil
}
