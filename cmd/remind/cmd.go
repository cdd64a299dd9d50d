package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/notexe/remind/internal/app"
	"github.com/notexe/remind/internal/config"
	"github.com/notexe/remind/internal/logging"
	"github.com/notexe/remind/internal/reminder"
	"github.com/notexe/remind/internal/repl"
	"github.com/urfave/cli"
)

// now is the clock used for default dates and due checks.
var now = time.Now

var (
	globalFlags = []cli.Flag{
		cli.StringFlag{
			Name:  "config",
			Value: config.GetDefaultConfigPath(),
			Usage: "path to configuration file",
		},
		cli.StringFlag{
			Name:  "store, s",
			Usage: "path to the reminder file (overrides config)",
		},
		cli.StringFlag{
			Name:  "driver",
			Usage: "store driver: json or sqlite (overrides config)",
		},
		cli.BoolFlag{
			Name:  "no-color",
			Usage: "disable colored output",
		},
	}

	addFlags = []cli.Flag{
		cli.StringFlag{Name: "title, t", Usage: "reminder title (required)"},
		cli.StringFlag{Name: "description, d", Usage: "reminder description (required)"},
		cli.StringFlag{Name: "date", Usage: "YYYY-MM-DD (defaults to today)"},
		cli.StringFlag{Name: "time", Usage: "HH:MM or HH:MM:SS (required)"},
		cli.IntFlag{Name: "lead, l", Usage: "hours before date/time to notify"},
	}

	editFlags = []cli.Flag{
		cli.StringFlag{Name: "title, t", Usage: "new title"},
		cli.StringFlag{Name: "description, d", Usage: "new description"},
		cli.StringFlag{Name: "date", Usage: "new date, YYYY-MM-DD"},
		cli.StringFlag{Name: "time", Usage: "new time, HH:MM or HH:MM:SS"},
		cli.IntFlag{Name: "lead, l", Usage: "new lead time in hours"},
	}

	listFlags = []cli.Flag{
		cli.BoolFlag{Name: "json", Usage: "output JSON"},
		cli.StringFlag{Name: "state", Usage: "pending|due|delivered"},
	}

	checkFlags = []cli.Flag{
		cli.BoolFlag{Name: "deliver", Usage: "deliver due reminders instead of only listing them"},
	}
)

// Execute runs the CLI with the given arguments, writing to out.
func Execute(args []string, out io.Writer) error {
	a := cli.App{
		Name:      "remind",
		HelpName:  "remind",
		Usage:     "one-shot reminders with a lead time",
		Version:   version,
		UsageText: "remind [global options] <command> [arguments...]",
		Writer:    out,
		Flags:     globalFlags,
		Commands: []cli.Command{
			{
				Name:      "add",
				Aliases:   []string{"a"},
				Usage:     "add a reminder",
				UsageText: `remind add --title "Dentist" --description "Bring card" --date 2025-03-01 --time 14:00 --lead 1`,
				Flags:     addFlags,
				Action:    cmdAdd,
			},
			{
				Name:    "list",
				Aliases: []string{"l", "ls"},
				Usage:   "list reminders in creation order",
				Flags:   listFlags,
				Action:  cmdList,
			},
			{
				Name:      "delete",
				Aliases:   []string{"rm"},
				Usage:     "delete a reminder",
				ArgsUsage: "<id>",
				Action:    cmdDelete,
			},
			{
				Name:      "edit",
				Usage:     "edit a reminder",
				ArgsUsage: "<id>",
				Flags:     editFlags,
				Action:    cmdEdit,
			},
			{
				Name:   "check",
				Usage:  "show reminders due this minute",
				Flags:  checkFlags,
				Action: cmdCheck,
			},
			{
				Name:      "deliver",
				Usage:     "notify a reminder now and mark it delivered",
				ArgsUsage: "<id>",
				Action:    cmdDeliver,
			},
			{
				Name:   "watch",
				Usage:  "check for due reminders until interrupted",
				Action: cmdWatch,
			},
			{
				Name:   "shell",
				Usage:  "interactive shell",
				Action: cmdShell,
			},
		},
	}
	return a.Run(args)
}

// openApp loads configuration, applies global flag overrides and opens
// the store. A store that failed to load is still returned (halted) so
// read-only commands keep working; the problem is reported on stderr.
func openApp(c *cli.Context) (*app.App, error) {
	cfg, err := config.Load(c.GlobalString("config"))
	if err != nil {
		return nil, fmt.Errorf("error loading configuration: %w", err)
	}

	if v := c.GlobalString("store"); v != "" {
		cfg.Store.Path = v
	}
	if v := c.GlobalString("driver"); v != "" {
		cfg.Store.Driver = v
	}
	if c.GlobalBool("no-color") {
		cfg.UI.ColoredOutput = false
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := logging.New(cfg.Log)
	if err != nil {
		return nil, err
	}

	a, err := app.New(context.Background(), cfg, logger, app.Options{Out: c.App.Writer})
	if err != nil {
		if a == nil {
			return nil, err
		}
		fmt.Fprintln(os.Stderr, a.Formatter.FormatError(err))
		if errors.Is(err, reminder.ErrCorrupt) {
			fmt.Fprintln(os.Stderr, "Fix or remove the file; changes will not be saved until then.")
		}
	}
	return a, nil
}

func cmdAdd(c *cli.Context) error {
	a, err := openApp(c)
	if err != nil {
		return err
	}
	defer a.Close()

	date := reminder.DateOf(now())
	if v := c.String("date"); v != "" {
		if date, err = reminder.ParseDate(v); err != nil {
			return err
		}
	}
	if c.String("time") == "" {
		return fmt.Errorf("--time is required")
	}
	clock, err := reminder.ParseClock(c.String("time"))
	if err != nil {
		return err
	}

	added, err := a.Store.Add(reminder.Reminder{
		Title:       strings.TrimSpace(c.String("title")),
		Description: strings.TrimSpace(c.String("description")),
		Date:        date,
		Time:        clock,
		LeadHours:   c.Int("lead"),
	})
	if err != nil {
		if errors.Is(err, reminder.ErrIncomplete) {
			return fmt.Errorf("--title and --description are required")
		}
		return err
	}

	if err := a.Store.Save(context.Background()); err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, added.ID)
	return nil
}

func cmdList(c *cli.Context) error {
	a, err := openApp(c)
	if err != nil {
		return err
	}
	defer a.Close()

	state := strings.ToLower(c.String("state"))
	var reminders []reminder.Reminder
	for _, r := range a.Store.List() {
		if state == "" || r.State().String() == state {
			reminders = append(reminders, r)
		}
	}

	if c.Bool("json") {
		if reminders == nil {
			reminders = []reminder.Reminder{}
		}
		enc := json.NewEncoder(c.App.Writer)
		enc.SetIndent("", "  ")
		return enc.Encode(reminders)
	}

	fmt.Fprintln(c.App.Writer, a.Formatter.FormatReminderList(reminders))
	return nil
}

func cmdDelete(c *cli.Context) error {
	if c.NArg() < 1 {
		return fmt.Errorf("missing id")
	}
	a, err := openApp(c)
	if err != nil {
		return err
	}
	defer a.Close()

	r, err := a.Store.Find(c.Args().First())
	if err != nil {
		return err
	}
	if err := a.Store.Remove(r.ID); err != nil {
		return err
	}
	if err := a.Store.Save(context.Background()); err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, a.Formatter.FormatSuccess(fmt.Sprintf("Deleted %q.", r.Title)))
	return nil
}

func cmdEdit(c *cli.Context) error {
	if c.NArg() < 1 {
		return fmt.Errorf("missing id")
	}
	a, err := openApp(c)
	if err != nil {
		return err
	}
	defer a.Close()

	r, err := a.Store.Find(c.Args().First())
	if err != nil {
		return err
	}

	var fields reminder.UpdateFields
	if c.IsSet("title") {
		v := strings.TrimSpace(c.String("title"))
		fields.Title = &v
	}
	if c.IsSet("description") {
		v := strings.TrimSpace(c.String("description"))
		fields.Description = &v
	}
	if c.IsSet("date") {
		d, err := reminder.ParseDate(c.String("date"))
		if err != nil {
			return err
		}
		fields.Date = &d
	}
	if c.IsSet("time") {
		t, err := reminder.ParseClock(c.String("time"))
		if err != nil {
			return err
		}
		fields.Time = &t
	}
	if c.IsSet("lead") {
		v := c.Int("lead")
		fields.LeadHours = &v
	}

	updated, err := a.Store.Update(r.ID, fields)
	if err != nil {
		return err
	}
	if err := a.Store.Save(context.Background()); err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, a.Formatter.FormatReminder(updated))
	return nil
}

func cmdCheck(c *cli.Context) error {
	a, err := openApp(c)
	if err != nil {
		return err
	}
	defer a.Close()

	t := now()
	if c.Bool("deliver") {
		res := a.Scheduler.Tick(context.Background(), t)
		fmt.Fprintln(c.App.Writer, a.Formatter.FormatInfo(
			fmt.Sprintf("due: %d, delivered: %d, failed: %d", res.Due, res.Delivered, res.Failed)))
		return nil
	}

	fmt.Fprintln(c.App.Writer, a.Formatter.FormatReminderList(a.Scheduler.CheckDue(t)))
	return nil
}

func cmdDeliver(c *cli.Context) error {
	if c.NArg() < 1 {
		return fmt.Errorf("missing id")
	}
	a, err := openApp(c)
	if err != nil {
		return err
	}
	defer a.Close()

	r, err := a.Store.Find(c.Args().First())
	if err != nil {
		return err
	}
	if r.DidNotify {
		fmt.Fprintln(c.App.Writer, a.Formatter.FormatInfo(fmt.Sprintf("%q was already delivered.", r.Title)))
		return nil
	}
	if err := a.Scheduler.Deliver(context.Background(), r.ID); err != nil {
		return err
	}
	fmt.Fprintln(c.App.Writer, a.Formatter.FormatSuccess(fmt.Sprintf("Delivered %q.", r.Title)))
	return nil
}

func cmdWatch(c *cli.Context) error {
	a, err := openApp(c)
	if err != nil {
		return err
	}
	defer a.Close()
	defer a.Logger.Sync()

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	return a.Scheduler.Run(ctx)
}

func cmdShell(c *cli.Context) error {
	a, err := openApp(c)
	if err != nil {
		return err
	}
	defer a.Close()

	shell, err := repl.NewREPL(a.Store, a.Scheduler, a.Formatter)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGTERM)
	defer cancel()

	return shell.Start(ctx)
}
