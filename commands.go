package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/afero"
	"github.com/urfave/cli"

	"assignment-planner/pkg/assignments"
	"assignment-planner/pkg/delivery"
)

var listFlags = []cli.Flag{
	cli.BoolFlag{
		Name:  "all, a",
		Usage: "include completed assignments",
	},
	cli.StringFlag{
		Name:  "course, c",
		Usage: "only show assignments of this course",
	},
	cli.StringFlag{
		Name:  "search, q",
		Usage: "only show assignments whose title or notes contain this text",
	},
	cli.StringFlag{
		Name:  "sort",
		Usage: "dueAsc, priorityDesc, courseAsc, titleAsc or statusAsc",
	},
}

// serve runs the HTTP API and the reminder engine until interrupted.
func (e *env) serve(c *cli.Context) error {
	log, err := e.logger(c)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	hub := delivery.NewHub(log)
	s, err := e.open(ctx, c, delivery.Multi{hub, delivery.NewLog(log)}, log)
	if err != nil {
		log.Close()
		return err
	}
	defer s.Close()

	// Poll so reminders beyond the near-term window become live
	s.planner.StartPolling(ctx, s.cfg.ReconcileInterval.Duration())

	err = listenAndServe(ctx, s.cfg.Addr(), newRouter(s.planner, hub, log), log)
	log.Info("Shutting down")
	return err
}

// The offline commands still hand the planner a log surface: a planner
// without one would save the permission as unsupported.
func (e *env) openOffline(c *cli.Context) (*session, error) {
	log, err := e.logger(c)
	if err != nil {
		return nil, err
	}
	s, err := e.open(context.Background(), c, delivery.NewLog(log), log)
	if err != nil {
		log.Close()
		return nil, err
	}
	return s, nil
}

func (e *env) importCSV(c *cli.Context) error {
	path := c.Args().First()
	if path == "" {
		return errors.New("import: missing CSV file argument")
	}
	f, err := e.fs.Open(path)
	if err != nil {
		return fmt.Errorf("import: %w", err)
	}
	defer f.Close()

	s, err := e.openOffline(c)
	if err != nil {
		return err
	}
	defer s.Close()

	n, err := s.planner.Import(context.Background(), f)
	if err != nil {
		return fmt.Errorf("import %s: %w", path, err)
	}
	fmt.Fprintf(e.stdout, "Imported %d assignments from %s\n", n, path)
	return nil
}

func (e *env) exportCSV(c *cli.Context) error {
	s, err := e.openOffline(c)
	if err != nil {
		return err
	}
	defer s.Close()

	path := c.Args().First()
	if path == "" {
		return s.planner.ExportCSV(e.stdout)
	}
	f, err := e.fs.Create(path)
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}
	if err = s.planner.ExportCSV(f); err != nil {
		f.Close()
		return fmt.Errorf("export: %w", err)
	}
	if err = f.Close(); err != nil {
		return fmt.Errorf("export: %w", err)
	}
	fmt.Fprintf(e.stdout, "Exported to %s\n", path)
	return nil
}

func (e *env) exportICS(c *cli.Context) error {
	id := c.Args().Get(0)
	if id == "" {
		return errors.New("ics: missing assignment id")
	}
	s, err := e.openOffline(c)
	if err != nil {
		return err
	}
	defer s.Close()

	name, body, err := s.planner.ICS(id)
	if err != nil {
		return fmt.Errorf("ics: %w", err)
	}
	path := c.Args().Get(1)
	if path == "" {
		path = name
	}
	err = afero.WriteFile(e.fs, path, []byte(body), 0o644)
	if err != nil {
		return fmt.Errorf("ics: %w", err)
	}
	fmt.Fprintf(e.stdout, "Wrote %s\n", path)
	return nil
}

func (e *env) list(c *cli.Context) error {
	s, err := e.openOffline(c)
	if err != nil {
		return err
	}
	defer s.Close()

	f := s.planner.Filters()
	if c.Bool("all") {
		f.HideDone = false
	}
	if c.IsSet("course") {
		f.Course = c.String("course")
	}
	if c.IsSet("search") {
		f.Search = c.String("search")
	}
	if c.IsSet("sort") {
		f.Sort = assignments.SortMode(c.String("sort"))
	}

	items := s.planner.List(f)
	if len(items) == 0 {
		fmt.Fprintln(e.stdout, "planner: no assignments found")
		return nil
	}
	return printList(e.stdout, items, time.Now())
}

func printList(w io.Writer, items []*assignments.Assignment, now time.Time) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tTITLE\tCOURSE\tDUE\tWHEN\tPRIORITY\tSTATUS\tREMINDER\t")
	for _, a := range items {
		when := assignments.RelativeDueLabel(a, now)
		if badge := assignments.Badge(a, now); badge != "" {
			when += " (" + badge + ")"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t\n",
			a.ID,
			a.Title,
			a.Course,
			assignments.ShortDueLabel(a),
			when,
			a.Priority,
			a.Status.Label(),
			a.RemindAhead,
		)
	}
	return tw.Flush()
}
