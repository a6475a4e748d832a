package main

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/urfave/cli/v2"

	"github.com/nawafsh/hilalbot/internal/clients/caldav"
	"github.com/nawafsh/hilalbot/internal/domain"
	"github.com/nawafsh/hilalbot/internal/holidays"
	"github.com/nawafsh/hilalbot/internal/ics"
	"github.com/nawafsh/hilalbot/internal/service"
	"github.com/nawafsh/hilalbot/internal/storage"
)

// admin operates on the same database as the bot but needs no Telegram
// token, so it reads the environment directly instead of config.Load.
func main() {
	_ = godotenv.Load()

	app := &cli.App{
		Name:  "hilalbot-admin",
		Usage: "Inspect and correct Hijri holiday dates.",
		Commands: []*cli.Command{
			upcomingCommand(),
			resolveCommand(),
			overrideCommand(),
			exportCommand(),
			publishCommand(),
			unpublishCommand(),
		},
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

type env struct {
	store    *storage.Storage
	holidays *service.HolidayService
	timezone *time.Location
	horizon  int
}

func openEnv() (*env, error) {
	dbPath := os.Getenv("DATABASE_PATH")
	if dbPath == "" {
		dbPath = "./data/hilalbot.db"
	}

	tzName := os.Getenv("TIMEZONE")
	if tzName == "" {
		tzName = "Asia/Riyadh"
	}
	tz, err := time.LoadLocation(tzName)
	if err != nil {
		return nil, fmt.Errorf("invalid TIMEZONE: %w", err)
	}

	weekendDays := os.Getenv("WEEKEND_DAYS")
	if weekendDays == "" {
		weekendDays = "friday,saturday"
	}
	weekend, ok := service.ParseWeekend(weekendDays)
	if !ok {
		return nil, fmt.Errorf("invalid WEEKEND_DAYS %q", weekendDays)
	}

	adjustment := os.Getenv("HOLIDAY_ADJUSTMENT")
	if adjustment == "" {
		adjustment = "smart"
	}

	catalog, err := holidays.LoadExtras(os.Getenv("HOLIDAYS_FILE"))
	if err != nil {
		return nil, err
	}

	store, err := storage.New(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}

	return &env{
		store:    store,
		holidays: service.NewHolidayService(store, catalog, tz, weekend, domain.AdjustmentRule(adjustment)),
		timezone: tz,
		horizon:  2,
	}, nil
}

func upcomingCommand() *cli.Command {
	return &cli.Command{
		Name:  "upcoming",
		Usage: "List upcoming holidays with resolved dates.",
		Flags: []cli.Flag{
			&cli.IntFlag{Name: "years", Value: 2, Usage: "Lookup horizon in Hijri years."},
		},
		Action: func(c *cli.Context) error {
			e, err := openEnv()
			if err != nil {
				return err
			}
			defer e.store.Close()

			now := time.Now().In(e.timezone)
			upcoming, err := e.holidays.UpcomingSaudiHolidays(now, c.Int("years"))
			if err != nil {
				return err
			}

			for _, r := range upcoming {
				printHoliday(&r, now)
			}
			return nil
		},
	}
}

func resolveCommand() *cli.Command {
	return &cli.Command{
		Name:      "resolve",
		Usage:     "Resolve the next occurrence of one holiday.",
		ArgsUsage: "<event-id>",
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return fmt.Errorf("usage: resolve <event-id>")
			}

			e, err := openEnv()
			if err != nil {
				return err
			}
			defer e.store.Close()

			def, ok := e.holidays.Definition(c.Args().First())
			if !ok {
				return fmt.Errorf("unknown holiday %q", c.Args().First())
			}

			now := time.Now().In(e.timezone)
			r, err := e.holidays.Resolve(def, now)
			if err != nil {
				return err
			}
			printHoliday(&r, now)
			return nil
		},
	}
}

func overrideCommand() *cli.Command {
	return &cli.Command{
		Name:  "override",
		Usage: "Manage announced dates that replace the computed ones.",
		Subcommands: []*cli.Command{
			{
				Name:      "set",
				Usage:     "Record an announced Gregorian date for one Hijri year.",
				ArgsUsage: "<event-id> <hijri-year> <YYYY-MM-DD>",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "reason", Usage: "Why the date was moved, e.g. 'moon sighting'."},
				},
				Action: func(c *cli.Context) error {
					if c.NArg() != 3 {
						return fmt.Errorf("usage: override set <event-id> <hijri-year> <YYYY-MM-DD>")
					}

					e, err := openEnv()
					if err != nil {
						return err
					}
					defer e.store.Close()

					var hijriYear int
					if _, err := fmt.Sscanf(c.Args().Get(1), "%d", &hijriYear); err != nil {
						return fmt.Errorf("invalid hijri year %q", c.Args().Get(1))
					}
					date, err := time.ParseInLocation("2006-01-02", c.Args().Get(2), e.timezone)
					if err != nil {
						return fmt.Errorf("invalid date %q (use YYYY-MM-DD)", c.Args().Get(2))
					}

					if err := e.holidays.SetOverride(c.Args().First(), hijriYear, date, c.String("reason")); err != nil {
						return err
					}
					fmt.Printf("Override saved: %s %d AH -> %s\n", c.Args().First(), hijriYear, date.Format("2006-01-02"))
					return nil
				},
			},
			{
				Name:      "clear",
				Usage:     "Drop an override and fall back to the computed date.",
				ArgsUsage: "<event-id> <hijri-year>",
				Action: func(c *cli.Context) error {
					if c.NArg() != 2 {
						return fmt.Errorf("usage: override clear <event-id> <hijri-year>")
					}

					e, err := openEnv()
					if err != nil {
						return err
					}
					defer e.store.Close()

					var hijriYear int
					if _, err := fmt.Sscanf(c.Args().Get(1), "%d", &hijriYear); err != nil {
						return fmt.Errorf("invalid hijri year %q", c.Args().Get(1))
					}

					if err := e.holidays.ClearOverride(c.Args().First(), hijriYear); err != nil {
						return err
					}
					fmt.Printf("Override cleared: %s %d AH\n", c.Args().First(), hijriYear)
					return nil
				},
			},
			{
				Name:      "list",
				Usage:     "List recorded overrides.",
				ArgsUsage: "[event-id]",
				Action: func(c *cli.Context) error {
					e, err := openEnv()
					if err != nil {
						return err
					}
					defer e.store.Close()

					var ids []string
					if c.NArg() > 0 {
						ids = []string{c.Args().First()}
					} else {
						for _, def := range e.holidays.Catalog() {
							ids = append(ids, def.EventID)
						}
					}

					for _, id := range ids {
						overrides, err := e.store.ListOverrides(id)
						if err != nil {
							return err
						}
						for _, o := range overrides {
							fmt.Printf("%-20s %d AH  %s  %s\n", o.EventID, o.HijriYear, o.Date.Format("2006-01-02"), o.Reason)
						}
					}
					return nil
				},
			},
		},
	}
}

func exportCommand() *cli.Command {
	return &cli.Command{
		Name:  "export-ics",
		Usage: "Write upcoming holidays as an iCalendar file.",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "out", Value: "holidays.ics", Usage: "Output path, '-' for stdout."},
			&cli.IntFlag{Name: "years", Value: 2, Usage: "Lookup horizon in Hijri years."},
		},
		Action: func(c *cli.Context) error {
			e, err := openEnv()
			if err != nil {
				return err
			}
			defer e.store.Close()

			now := time.Now().In(e.timezone)
			upcoming, err := e.holidays.UpcomingSaudiHolidays(now, c.Int("years"))
			if err != nil {
				return err
			}

			out := os.Stdout
			if path := c.String("out"); path != "-" {
				f, err := os.Create(path)
				if err != nil {
					return err
				}
				defer f.Close()
				out = f
			}
			return ics.Export(out, upcoming)
		},
	}
}

func publishCommand() *cli.Command {
	return &cli.Command{
		Name:  "publish",
		Usage: "Push upcoming holidays to the configured CalDAV calendar.",
		Action: func(c *cli.Context) error {
			client := caldav.NewClient(
				os.Getenv("CALDAV_URL"),
				os.Getenv("CALDAV_USERNAME"),
				os.Getenv("CALDAV_PASSWORD"),
				os.Getenv("CALDAV_CALENDAR"),
			)
			if !client.IsConfigured() {
				return fmt.Errorf("CALDAV_URL, CALDAV_USERNAME and CALDAV_PASSWORD must be set")
			}

			e, err := openEnv()
			if err != nil {
				return err
			}
			defer e.store.Close()

			now := time.Now().In(e.timezone)
			upcoming, err := e.holidays.UpcomingSaudiHolidays(now, e.horizon)
			if err != nil {
				return err
			}

			for _, r := range upcoming {
				if err := client.PublishHoliday(c.Context, r); err != nil {
					return fmt.Errorf("publish %s/%d: %w", r.EventID, r.HijriYear, err)
				}
				fmt.Printf("Published %s %d AH\n", r.EventID, r.HijriYear)
			}
			return nil
		},
	}
}

func unpublishCommand() *cli.Command {
	return &cli.Command{
		Name:      "unpublish",
		Usage:     "Remove one published occurrence from the CalDAV calendar.",
		ArgsUsage: "<event-id> <hijri-year>",
		Action: func(c *cli.Context) error {
			if c.NArg() != 2 {
				return fmt.Errorf("usage: unpublish <event-id> <hijri-year>")
			}

			client := caldav.NewClient(
				os.Getenv("CALDAV_URL"),
				os.Getenv("CALDAV_USERNAME"),
				os.Getenv("CALDAV_PASSWORD"),
				os.Getenv("CALDAV_CALENDAR"),
			)
			if !client.IsConfigured() {
				return fmt.Errorf("CALDAV_URL, CALDAV_USERNAME and CALDAV_PASSWORD must be set")
			}

			var hijriYear int
			if _, err := fmt.Sscanf(c.Args().Get(1), "%d", &hijriYear); err != nil {
				return fmt.Errorf("invalid hijri year %q", c.Args().Get(1))
			}

			if err := client.RemoveHoliday(c.Context, c.Args().First(), hijriYear); err != nil {
				return err
			}
			fmt.Printf("Removed %s %d AH\n", c.Args().First(), hijriYear)
			return nil
		},
	}
}

func printHoliday(r *domain.ResolvedHoliday, now time.Time) {
	marker := " "
	if r.IsOverridden {
		marker = "*"
	}
	fmt.Printf("%s %-20s %-28s %2d %s %d AH  %s  (%s, in %d days)\n",
		marker, r.EventID, r.Title,
		r.HijriDay, r.HijriMonth, r.HijriYear,
		r.ObservedDate.Format("Mon 2006-01-02"),
		r.Confidence, r.DaysUntil(now))
}
